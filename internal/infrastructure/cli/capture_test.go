package cli

import (
	"strings"
	"testing"

	"github.com/doeshing/suggest-go/internal/domain"
)

func TestInferLanguage(t *testing.T) {
	cases := map[string]string{
		"src/Program.cs":  "csharp",
		"main.go":         "go",
		"script.py":       "python",
		"component.tsx":   "typescript",
		"README":          "",
		"archive.tar.gz":  "",
		"include/types.h": "c",
	}
	for path, want := range cases {
		if got := inferLanguage(path); got != want {
			t.Errorf("inferLanguage(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestResolveStreamPrefersExplicitFlag(t *testing.T) {
	cases := []struct {
		name          string
		flagSet       bool
		flagValue     bool
		configDefault bool
		want          bool
	}{
		{"flag off overrides config on", true, false, true, false},
		{"flag on overrides config off", true, true, false, true},
		{"config on applies when flag unset", false, false, true, true},
		{"config off applies when flag unset", false, false, false, false},
	}
	for _, tc := range cases {
		if got := resolveStream(tc.flagSet, tc.flagValue, tc.configDefault); got != tc.want {
			t.Errorf("%s: resolveStream = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestRenderResultSkippedGoesToStderr(t *testing.T) {
	var out, errOut strings.Builder
	renderResult(&out, &errOut, domain.CompletionResult{
		Skipped:    true,
		SkipReason: "superseded",
	}, false)

	if out.Len() != 0 {
		t.Fatalf("stdout = %q, want empty for skipped result", out.String())
	}
	if !strings.Contains(errOut.String(), "superseded") {
		t.Fatalf("stderr = %q, want skip reason", errOut.String())
	}
}

func TestRenderResultPrintsSuggestionAndFlags(t *testing.T) {
	var out, errOut strings.Builder
	renderResult(&out, &errOut, domain.CompletionResult{
		Suggestion: domain.Suggestion{Text: "return a + b"},
		Issues:     []domain.SanitizationIssue{domain.IssueURL},
	}, false)

	if !strings.Contains(out.String(), "return a + b") {
		t.Fatalf("stdout = %q, want suggestion text", out.String())
	}
	if !strings.Contains(errOut.String(), string(domain.IssueURL)) {
		t.Fatalf("stderr = %q, want flagged issue", errOut.String())
	}
}
