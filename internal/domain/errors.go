package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the tagged variant used for recovery strategy dispatch.
// Resolution is an explicit priority-ordered match, most specific first,
// with KindUnclassified as the catch-all.
type ErrorKind string

const (
	KindConnection           ErrorKind = "connection"
	KindModel                ErrorKind = "model"
	KindContextCapture       ErrorKind = "context_capture"
	KindSuggestionProcessing ErrorKind = "suggestion_processing"
	KindUnclassified         ErrorKind = "unclassified"
)

// ConnectionError reports an unreachable or refusing backend.
type ConnectionError struct {
	Endpoint string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("backend unreachable at %s: %v", e.Endpoint, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ModelError reports a reachable backend that failed to generate.
type ModelError struct {
	Model string
	Err   error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model %s failed: %v", e.Model, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// ContextCaptureError reports a failure assembling editor context.
type ContextCaptureError struct {
	FilePath string
	Err      error
}

func (e *ContextCaptureError) Error() string {
	return fmt.Sprintf("context capture for %s failed: %v", e.FilePath, e.Err)
}

func (e *ContextCaptureError) Unwrap() error { return e.Err }

// SuggestionProcessingError reports a failure handling a backend response.
type SuggestionProcessingError struct {
	Stage string
	Err   error
}

func (e *SuggestionProcessingError) Error() string {
	return fmt.Sprintf("suggestion processing failed at %s: %v", e.Stage, e.Err)
}

func (e *SuggestionProcessingError) Unwrap() error { return e.Err }

// ClassifyError maps an error to its recovery kind. The match order is the
// documented priority: most specific typed error wins, anything unrecognized
// falls through to KindUnclassified.
func ClassifyError(err error) ErrorKind {
	if err == nil {
		return KindUnclassified
	}
	var (
		connErr    *ConnectionError
		modelErr   *ModelError
		captureErr *ContextCaptureError
		processErr *SuggestionProcessingError
	)
	switch {
	case errors.As(err, &connErr):
		return KindConnection
	case errors.As(err, &modelErr):
		return KindModel
	case errors.As(err, &captureErr):
		return KindContextCapture
	case errors.As(err, &processErr):
		return KindSuggestionProcessing
	default:
		return KindUnclassified
	}
}
