// Package services composes the five core components into the completion
// pipeline: debounce → sanitize → cache → retry-wrapped backend call →
// inbound screening → cache store → history record.
package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/doeshing/suggest-go/internal/domain"
	"github.com/doeshing/suggest-go/internal/ports"
)

// SkipReason values reported when the pipeline degrades to "no suggestion".
const (
	SkipSuperseded   = "superseded"
	SkipSanitization = "sanitization"
	SkipOversized    = "oversized"
)

// CompletionService orchestrates the request lifecycle end-to-end. All
// collaborators are passed explicitly; there is no ambient lookup.
type CompletionService struct {
	ConfigProvider  ports.ConfigProvider
	ProviderFactory ports.ProviderFactory
	Sanitizer       ports.Sanitizer
	Cache           ports.SuggestionCache
	History         ports.PositionTracker
	Scheduler       ports.Scheduler
	Recovery        ports.RecoveryHandler
	Logger          ports.Logger
}

// RequestCompletion processes a single debounced completion request.
//
// A burst of requests for the same file collapses into one backend call; the
// superseded callers get a result with Skipped set and no error. Sanitizer
// rejections also skip silently — partially sanitized content never leaves
// the process. Backend failure after retries and recovery is the one case
// that surfaces an error.
func (s *CompletionService) RequestCompletion(req domain.CompletionRequest) (domain.CompletionResult, error) {
	if s.ConfigProvider == nil || s.ProviderFactory == nil || s.Sanitizer == nil ||
		s.Cache == nil || s.History == nil || s.Scheduler == nil || s.Logger == nil {
		return domain.CompletionResult{}, errors.New("services.CompletionService dependencies not satisfied")
	}

	ctx := req.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if req.CorrelationID == "" {
		req.CorrelationID = uuid.NewString()
	}
	if req.Completion.FilePath == "" {
		return domain.CompletionResult{}, &domain.ContextCaptureError{
			FilePath: "",
			Err:      errors.New("completion context has no file path"),
		}
	}

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		return domain.CompletionResult{}, fmt.Errorf("load config: %w", err)
	}

	// Superseded callers never reach generate; this is what they observe.
	result := domain.CompletionResult{
		Skipped:       true,
		SkipReason:    SkipSuperseded,
		CorrelationID: req.CorrelationID,
	}

	delay := time.Duration(cfg.Debounce.DelayMS) * time.Millisecond
	err = s.Scheduler.Schedule(ctx, req.Completion.FilePath, delay, func(runCtx context.Context) error {
		generated, genErr := s.generate(runCtx, cfg, req)
		if genErr != nil {
			return genErr
		}
		result = generated
		return nil
	})
	if err != nil {
		return domain.CompletionResult{}, err
	}
	return result, nil
}

// generate runs the post-debounce stages for the winning request.
func (s *CompletionService) generate(ctx context.Context, cfg domain.Config, req domain.CompletionRequest) (domain.CompletionResult, error) {
	fields := map[string]interface{}{
		"correlation_id": req.CorrelationID,
		"file":           req.Completion.FilePath,
	}

	if sizeCheck := s.Sanitizer.CheckSize(req.Completion); !sizeCheck.Valid {
		s.Logger.Warn("context rejected by size guard", merge(fields, map[string]interface{}{
			"detail": sizeCheck.Message,
		}))
		return skipped(req.CorrelationID, SkipOversized), nil
	}

	if outbound := s.Sanitizer.ValidateOutboundContext(req.Completion); !outbound.Valid {
		// Silent skip: never send partially sanitized content.
		s.Logger.Warn("context rejected by sanitizer", merge(fields, map[string]interface{}{
			"issues": outbound.Issues,
		}))
		return skipped(req.CorrelationID, SkipSanitization), nil
	}

	model, ok := s.pickModel(cfg, req.ModelOverride)
	if !ok {
		return domain.CompletionResult{}, &domain.ContextCaptureError{
			FilePath: req.Completion.FilePath,
			Err:      fmt.Errorf("model %s not configured", req.ModelOverride),
		}
	}

	key := s.fingerprint(req.Completion, model)
	if cached, hit := s.Cache.TryGet(key); hit {
		s.Logger.Debug("cache hit", fields)
		s.recordHistory(req, cached)
		return domain.CompletionResult{
			Suggestion:    cached,
			Issues:        s.screen(cached.Text),
			FromCache:     true,
			CorrelationID: req.CorrelationID,
		}, nil
	}

	suggestion, err := s.callBackend(ctx, cfg, model, req)
	if err != nil {
		if ctx.Err() != nil {
			return skipped(req.CorrelationID, SkipSuperseded), nil
		}
		if s.Recovery != nil && s.Recovery.Handle(ctx, err, "completion", fields) {
			return skipped(req.CorrelationID, string(domain.ClassifyError(err))), nil
		}
		return domain.CompletionResult{}, err
	}

	issues := s.screen(suggestion.Text)
	s.Cache.Set(key, suggestion, cacheTTL(cfg))
	s.recordHistory(req, suggestion)

	return domain.CompletionResult{
		Suggestion:    suggestion,
		Issues:        issues,
		CorrelationID: req.CorrelationID,
	}, nil
}

// callBackend wraps the provider call in bounded retries with exponential
// backoff. The inter-attempt wait honors cancellation.
func (s *CompletionService) callBackend(ctx context.Context, cfg domain.Config, model domain.ModelDefinition, req domain.CompletionRequest) (domain.Suggestion, error) {
	provider, err := s.ProviderFactory.ForModel(model)
	if err != nil {
		return domain.Suggestion{}, fmt.Errorf("provider init: %w", err)
	}

	providerReq := ports.ProviderRequest{Completion: req.Completion, Model: model}
	base := time.Duration(cfg.Retry.BaseDelayMS) * time.Millisecond
	max := time.Duration(cfg.Retry.MaxDelayMS) * time.Millisecond

	var lastErr error
	for attempt := 0; attempt <= cfg.Retry.Count; attempt++ {
		if attempt > 0 {
			wait := backoff(base, max, attempt)
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return domain.Suggestion{}, ctx.Err()
			}
		}

		var suggestion domain.Suggestion
		if req.Stream && req.StreamWriter != nil {
			suggestion, lastErr = provider.CompleteStream(ctx, providerReq, req.StreamWriter)
		} else {
			suggestion, lastErr = provider.Complete(ctx, providerReq)
		}
		if lastErr == nil {
			return suggestion, nil
		}
		if ctx.Err() != nil {
			return domain.Suggestion{}, ctx.Err()
		}
		s.Logger.Warn("backend attempt failed", map[string]interface{}{
			"correlation_id": req.CorrelationID,
			"attempt":        attempt,
			"kind":           string(domain.ClassifyError(lastErr)),
			"error":          lastErr.Error(),
		})
	}
	return domain.Suggestion{}, lastErr
}

// fingerprint hashes the sanitized context so equivalent requests share a
// cache slot and raw text never becomes a map key.
func (s *CompletionService) fingerprint(ctx domain.CompletionContext, model domain.ModelDefinition) string {
	h := sha256.New()
	h.Write([]byte(model.Name))
	h.Write([]byte{0})
	h.Write([]byte(fmt.Sprintf("%d:%d", ctx.Position.Line, ctx.Position.Column)))
	for _, field := range ctx.TextFields() {
		h.Write([]byte{0})
		h.Write([]byte(s.Sanitizer.Sanitize(field)))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (s *CompletionService) screen(text string) []domain.SanitizationIssue {
	inbound := s.Sanitizer.ValidateInboundSuggestion(text)
	if inbound.Valid {
		return nil
	}
	return inbound.Issues
}

func (s *CompletionService) recordHistory(req domain.CompletionRequest, suggestion domain.Suggestion) {
	snippet := suggestion.Text
	if idx := strings.IndexByte(snippet, '\n'); idx >= 0 {
		snippet = snippet[:idx]
	}
	s.History.Record(domain.HistoryEntry{
		FilePath:       req.Completion.FilePath,
		Position:       req.Completion.Position,
		Snippet:        snippet,
		Timestamp:      time.Now(),
		Kind:           domain.ChangeCompletion,
		FromSuggestion: true,
	})
}

func (s *CompletionService) pickModel(cfg domain.Config, override string) (domain.ModelDefinition, bool) {
	if override != "" {
		return cfg.FindModelByName(override)
	}
	return cfg.GetDefaultModel()
}

func skipped(correlationID, reason string) domain.CompletionResult {
	return domain.CompletionResult{
		Skipped:       true,
		SkipReason:    reason,
		CorrelationID: correlationID,
	}
}

func cacheTTL(cfg domain.Config) time.Duration {
	if d, err := time.ParseDuration(cfg.Cache.TTL); err == nil && d > 0 {
		return d
	}
	return domain.DefaultCacheTTL
}

// backoff doubles the base delay per attempt, capped at max when set.
func backoff(base, max time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	wait := base << (attempt - 1)
	if max > 0 && wait > max {
		wait = max
	}
	return wait
}

func merge(a, b map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

var _ domain.CompletionService = (*CompletionService)(nil)
