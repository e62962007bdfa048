// Package recovery maps classified errors to retry/fallback strategies.
//
// Dispatch is an explicit tagged-variant lookup on domain.ErrorKind: the most
// specific kind wins, and anything unrecognized lands on the registered
// catch-all. The engine is the single seam where a caller chooses between
// surfacing a failure and recovering silently.
package recovery

import (
	"context"
	"sync"
	"time"

	"github.com/doeshing/suggest-go/internal/domain"
	"github.com/doeshing/suggest-go/internal/ports"
)

// Fallback attempts to recover from err. It returns true when the operation
// can be considered recovered.
type Fallback func(ctx context.Context, err error, operation string, data map[string]interface{}) bool

// Strategy describes how one error kind is recovered.
type Strategy struct {
	RetryCount int
	RetryDelay time.Duration
	Fallback   Fallback
}

// Engine executes recovery strategies. Registration happens at startup;
// steady-state lookups only take the read lock.
type Engine struct {
	mu         sync.RWMutex
	strategies map[domain.ErrorKind]Strategy
	logger     ports.Logger
}

// NewEngine builds an engine preloaded with a conservative catch-all: one
// retry, a short delay, and a fallback that logs and reports failure. The
// catch-all never silently "succeeds".
func NewEngine(logger ports.Logger) *Engine {
	e := &Engine{
		strategies: make(map[domain.ErrorKind]Strategy),
		logger:     logger,
	}
	e.strategies[domain.KindUnclassified] = Strategy{
		RetryCount: 1,
		RetryDelay: 100 * time.Millisecond,
		Fallback: func(_ context.Context, err error, operation string, _ map[string]interface{}) bool {
			logger.Warn("unclassified error, no recovery available", map[string]interface{}{
				"operation": operation,
				"error":     err.Error(),
			})
			return false
		},
	}
	return e
}

// RegisterStrategy installs or replaces the strategy for kind. Safe to call
// concurrently with Handle, though registration is meant for startup wiring.
func (e *Engine) RegisterStrategy(kind domain.ErrorKind, s Strategy) {
	if s.RetryCount < 0 {
		s.RetryCount = 0
	}
	if s.RetryDelay < 0 {
		s.RetryDelay = 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.strategies[kind] = s
}

// Handle classifies err and runs the matching strategy's fallback up to
// 1+RetryCount times, waiting RetryDelay between attempts. The first
// successful fallback short-circuits. Returns false once attempts are
// exhausted or ctx is cancelled during a wait.
func (e *Engine) Handle(ctx context.Context, err error, operation string, data map[string]interface{}) bool {
	if err == nil {
		return true
	}
	if ctx == nil {
		ctx = context.Background()
	}

	kind := domain.ClassifyError(err)
	strategy := e.strategyFor(kind)

	for attempt := 0; attempt <= strategy.RetryCount; attempt++ {
		if attempt > 0 && strategy.RetryDelay > 0 {
			if !sleepCtx(ctx, strategy.RetryDelay) {
				return false
			}
		}
		if e.runFallback(ctx, strategy, err, operation, data, attempt) {
			return true
		}
	}

	e.logger.Error("recovery exhausted", err, map[string]interface{}{
		"operation": operation,
		"kind":      string(kind),
		"attempts":  strategy.RetryCount + 1,
	})
	return false
}

// ExecuteWithErrorHandling runs action and converts any error into a
// recovery attempt, returning def instead of propagating. This is the façade
// other components use to avoid duplicating handle-and-log boilerplate.
func ExecuteWithErrorHandling[T any](e *Engine, ctx context.Context, operation string, action func() (T, error), def T) T {
	value, err := action()
	if err == nil {
		return value
	}
	e.Handle(ctx, err, operation, nil)
	return def
}

func (e *Engine) strategyFor(kind domain.ErrorKind) Strategy {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if s, ok := e.strategies[kind]; ok {
		return s
	}
	return e.strategies[domain.KindUnclassified]
}

// runFallback invokes the fallback, treating a panic or a nil fallback as a
// failed attempt rather than aborting the loop.
func (e *Engine) runFallback(ctx context.Context, s Strategy, err error, operation string, data map[string]interface{}, attempt int) (recovered bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("fallback panicked", err, map[string]interface{}{
				"operation": operation,
				"attempt":   attempt,
				"panic":     r,
			})
			recovered = false
		}
	}()
	if s.Fallback == nil {
		return false
	}
	return s.Fallback(ctx, err, operation, data)
}

// sleepCtx waits d, returning false if ctx is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

var _ ports.RecoveryHandler = (*Engine)(nil)
