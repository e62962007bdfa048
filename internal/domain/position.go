package domain

import "time"

// Position locates a caret in a document. Line and Column are both 1-based;
// the first character of a file is {Line: 1, Column: 1}. Editor integrations
// using 0-based columns must convert before crossing into this package.
type Position struct {
	Line   int
	Column int
}

// ChangeKind classifies what produced a recorded position.
type ChangeKind string

const (
	ChangeTyping     ChangeKind = "typing"
	ChangeNavigation ChangeKind = "navigation"
	ChangePaste      ChangeKind = "paste"
	ChangeDeletion   ChangeKind = "deletion"
	ChangeCompletion ChangeKind = "completion"
)

// HistoryEntry captures one recorded cursor or edit location. Entries are
// immutable once created.
type HistoryEntry struct {
	FilePath       string
	Position       Position
	Snippet        string
	Timestamp      time.Time
	Kind           ChangeKind
	FromSuggestion bool
}
