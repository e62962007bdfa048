// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// This package establishes the contract between the application core and
// external adapters (infrastructure). Following the Ports and Adapters
// (Hexagonal) pattern, these interfaces keep the orchestration pipeline
// independent of specific implementations like HTTP backends, CLI frameworks,
// or the in-memory stores that back it.
package ports

import (
	"context"
	"time"

	"github.com/doeshing/suggest-go/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from ~/.suggest/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// ProviderFactory builds inference backend clients from model definitions.
type ProviderFactory interface {
	ForModel(domain.ModelDefinition) (CompletionProvider, error)
}

// CompletionProvider is the opaque "generate completion" contract consumed
// by the orchestrator. Complete must honor ctx cancellation promptly.
// CompleteStream yields partial suggestions through the writer and returns
// the final non-partial one.
type CompletionProvider interface {
	Name() string
	Model() domain.ModelDefinition
	Complete(ctx context.Context, req ProviderRequest) (domain.Suggestion, error)
	CompleteStream(ctx context.Context, req ProviderRequest, w domain.StreamWriter) (domain.Suggestion, error)
}

// ProviderRequest contains all data needed to generate a completion.
type ProviderRequest struct {
	Completion domain.CompletionContext
	Model      domain.ModelDefinition
}

// Sanitizer screens content crossing the trust boundary in either direction.
type Sanitizer interface {
	ValidateOutboundContext(domain.CompletionContext) domain.ValidationResult
	ValidateInboundSuggestion(text string) domain.ValidationResult
	Sanitize(text string) string
	IsPathSafe(path string) bool
	CheckSize(ctx domain.CompletionContext) domain.ValidationResult
}

// SuggestionCache memoizes backend responses by request fingerprint.
type SuggestionCache interface {
	TryGet(key string) (domain.Suggestion, bool)
	Set(key string, value domain.Suggestion, ttl time.Duration)
	Close()
}

// PositionTracker records recent cursor/edit locations for one session.
type PositionTracker interface {
	Record(entry domain.HistoryEntry)
	Recent(max int) []domain.HistoryEntry
	ForFile(path string, max int) []domain.HistoryEntry
	SetMaxDepth(n int)
	Clear()
}

// Scheduler coalesces bursts of keyed work into single executions.
type Scheduler interface {
	Schedule(ctx context.Context, key string, delay time.Duration, fn func(context.Context) error) error
	Cancel(key string) bool
	CancelAll()
	PendingCount() int
}

// RecoveryHandler routes classified errors through registered strategies.
type RecoveryHandler interface {
	Handle(ctx context.Context, err error, operation string, data map[string]interface{}) bool
}

// Logger provides structured logging abstraction for the application layer.
// Implementations can route to different backends (stdout, files, external
// services).
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
