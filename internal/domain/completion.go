package domain

import "context"

// CompletionContext is the editor state captured around the caret at the
// moment a completion is requested. Line and Column are both 1-based; see
// Position for the convention.
type CompletionContext struct {
	FilePath       string
	Language       string
	Position       Position
	CurrentLine    string
	PrecedingLines []string
	FollowingLines []string
	SelectedText   string
}

// TextFields returns every free-text field of the context in a stable order.
// The sanitizer scans all of them before the context leaves the process.
func (c CompletionContext) TextFields() []string {
	fields := make([]string, 0, 3+len(c.PrecedingLines)+len(c.FollowingLines))
	fields = append(fields, c.CurrentLine)
	fields = append(fields, c.PrecedingLines...)
	fields = append(fields, c.FollowingLines...)
	fields = append(fields, c.SelectedText, c.FilePath)
	return fields
}

// CompletionRequest captures one debounced unit of work flowing toward the
// backend.
type CompletionRequest struct {
	Context       context.Context
	Completion    CompletionContext
	ModelOverride string
	Stream        bool
	StreamWriter  StreamWriter
	CorrelationID string
}

// Suggestion is a single completion produced by the backend.
type Suggestion struct {
	Text       string
	Confidence float64
	Model      string
}

// CompletionResult is the canonical response propagated back to the editor
// integration. Issues carries inbound-screening flags; deciding whether a
// flagged suggestion is shown or discarded is the caller's policy.
type CompletionResult struct {
	Suggestion    Suggestion
	Issues        []SanitizationIssue
	FromCache     bool
	Skipped       bool
	SkipReason    string
	CorrelationID string
}

// StreamWriter receives partial suggestion chunks during streaming
// generation. Done is called exactly once after the final chunk.
type StreamWriter interface {
	WriteChunk(text string)
	Done()
}

// CompletionService exposes the use-case boundary for handling a request.
type CompletionService interface {
	RequestCompletion(CompletionRequest) (CompletionResult, error)
}
