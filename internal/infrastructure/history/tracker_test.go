package history

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/doeshing/suggest-go/internal/domain"
)

func entryAt(file string, line int) domain.HistoryEntry {
	return domain.HistoryEntry{
		FilePath:  file,
		Position:  domain.Position{Line: line, Column: 1},
		Snippet:   fmt.Sprintf("line %d", line),
		Timestamp: time.Now(),
		Kind:      domain.ChangeTyping,
	}
}

func TestRecordEnforcesFIFOBound(t *testing.T) {
	const depth = 10
	tr := NewTracker(depth)

	for i := 1; i <= depth+5; i++ {
		tr.Record(entryAt("main.go", i))
	}

	if got := tr.Len(); got != depth {
		t.Fatalf("Len = %d, want %d", got, depth)
	}

	recent := tr.Recent(depth)
	if len(recent) != depth {
		t.Fatalf("Recent returned %d entries, want %d", len(recent), depth)
	}
	// Most recent first; the oldest five (lines 1..5) must be gone.
	for i, e := range recent {
		want := depth + 5 - i
		if e.Position.Line != want {
			t.Fatalf("recent[%d].Line = %d, want %d", i, e.Position.Line, want)
		}
	}
}

func TestRecentCapsAndOrders(t *testing.T) {
	tr := NewTracker(100)
	for i := 1; i <= 6; i++ {
		tr.Record(entryAt("a.go", i))
	}

	got := tr.Recent(3)
	want := []int{6, 5, 4}
	lines := make([]int, len(got))
	for i, e := range got {
		lines[i] = e.Position.Line
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Fatalf("Recent(3) order mismatch (-want +got):\n%s", diff)
	}
}

func TestForFileFiltersExactPath(t *testing.T) {
	tr := NewTracker(100)
	tr.Record(entryAt("a.go", 1))
	tr.Record(entryAt("b.go", 2))
	tr.Record(entryAt("a.go", 3))
	tr.Record(entryAt("a.go.bak", 4))

	got := tr.ForFile("a.go", 10)
	if len(got) != 2 {
		t.Fatalf("ForFile returned %d entries, want 2", len(got))
	}
	if got[0].Position.Line != 3 || got[1].Position.Line != 1 {
		t.Fatalf("ForFile order = [%d %d], want [3 1]", got[0].Position.Line, got[1].Position.Line)
	}
}

func TestSetMaxDepthShrinksImmediately(t *testing.T) {
	tr := NewTracker(10)
	for i := 1; i <= 10; i++ {
		tr.Record(entryAt("a.go", i))
	}

	tr.SetMaxDepth(4)
	if got := tr.Len(); got != 4 {
		t.Fatalf("Len after shrink = %d, want 4", got)
	}
	recent := tr.Recent(4)
	if recent[len(recent)-1].Position.Line != 7 {
		t.Fatalf("oldest surviving line = %d, want 7", recent[len(recent)-1].Position.Line)
	}

	// Growing back does not resurrect dropped entries.
	tr.SetMaxDepth(10)
	if got := tr.Len(); got != 4 {
		t.Fatalf("Len after grow = %d, want still 4", got)
	}
}

func TestClear(t *testing.T) {
	tr := NewTracker(10)
	tr.Record(entryAt("a.go", 1))
	tr.Clear()
	if got := tr.Len(); got != 0 {
		t.Fatalf("Len after Clear = %d, want 0", got)
	}
	if got := tr.Recent(5); len(got) != 0 {
		t.Fatalf("Recent after Clear returned %d entries", len(got))
	}
}

func TestConcurrentRecordersStayWithinBound(t *testing.T) {
	const depth = 50
	tr := NewTracker(depth)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			file := fmt.Sprintf("view-%d.go", w)
			for i := 1; i <= 100; i++ {
				tr.Record(entryAt(file, i))
				if i%10 == 0 {
					tr.Recent(5)
					tr.ForFile(file, 5)
				}
			}
		}(w)
	}
	wg.Wait()

	if got := tr.Len(); got != depth {
		t.Fatalf("Len = %d after concurrent recording, want %d", got, depth)
	}
}

func TestSnapshotIsolatedFromLaterWrites(t *testing.T) {
	tr := NewTracker(10)
	tr.Record(entryAt("a.go", 1))

	snap := tr.Recent(10)
	tr.Record(entryAt("a.go", 2))

	if len(snap) != 1 || snap[0].Position.Line != 1 {
		t.Fatalf("snapshot mutated by later write: %+v", snap)
	}
}
