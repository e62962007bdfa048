package app

import (
	"context"
	"time"

	"github.com/doeshing/suggest-go/internal/application/doctor"
	"github.com/doeshing/suggest-go/internal/domain"
	"github.com/doeshing/suggest-go/internal/infrastructure/ai"
	"github.com/doeshing/suggest-go/internal/infrastructure/cache"
	"github.com/doeshing/suggest-go/internal/infrastructure/config"
	"github.com/doeshing/suggest-go/internal/infrastructure/debounce"
	"github.com/doeshing/suggest-go/internal/infrastructure/history"
	"github.com/doeshing/suggest-go/internal/infrastructure/recovery"
	"github.com/doeshing/suggest-go/internal/infrastructure/security"
	"github.com/doeshing/suggest-go/internal/pkg/logger"
	"github.com/doeshing/suggest-go/internal/ports"
	"github.com/doeshing/suggest-go/internal/services"
)

// Container wires up application services with infrastructure adapters.
type Container struct {
	CompletionService *services.CompletionService
	DoctorService     *doctor.Service
	ConfigProvider    ports.ConfigProvider
	ConfigLoader      *config.FileLoader
	Sanitizer         ports.Sanitizer
	Cache             ports.SuggestionCache
	History           ports.PositionTracker
	Scheduler         ports.Scheduler
	Logger            ports.Logger
}

// BuildContainer constructs the dependency graph.
func BuildContainer(ctx context.Context, verbose bool) (*Container, error) {
	cfgLoader := config.NewFileLoader("")
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, err
	}

	log := logger.NewStd(verbose)

	gate, err := security.NewGate(cfg.Sanitizer)
	if err != nil {
		// Broken rules file: fall back to compiled-in defaults.
		log.Warn("sanitizer rules rejected, using defaults", map[string]interface{}{
			"error": err.Error(),
		})
		gate, err = security.NewGate(domain.SanitizerSettings{
			MaxRequestSizeKB: cfg.Sanitizer.MaxRequestSizeKB,
		})
		if err != nil {
			return nil, err
		}
	}

	suggestionCache := cache.New[string, domain.Suggestion](
		cfg.Cache.MaxEntries, cacheTTL(cfg), cache.WithSweepInterval(sweepInterval(cfg)))
	tracker := history.NewTracker(cfg.History.MaxDepth)
	scheduler := debounce.NewScheduler()

	engine := recovery.NewEngine(log)
	engine.RegisterStrategy(domain.KindConnection, recovery.Strategy{
		RetryCount: cfg.Retry.Count,
		RetryDelay: time.Duration(cfg.Retry.BaseDelayMS) * time.Millisecond,
		Fallback: func(_ context.Context, err error, operation string, _ map[string]interface{}) bool {
			log.Warn("backend offline, suppressing suggestion", map[string]interface{}{
				"operation": operation,
				"error":     err.Error(),
			})
			return true
		},
	})
	engine.RegisterStrategy(domain.KindModel, recovery.Strategy{
		RetryCount: 0,
		Fallback: func(_ context.Context, err error, operation string, _ map[string]interface{}) bool {
			log.Warn("model failure, suppressing suggestion", map[string]interface{}{
				"operation": operation,
				"error":     err.Error(),
			})
			return true
		},
	})

	completionService := &services.CompletionService{
		ConfigProvider:  cfgLoader,
		ProviderFactory: ai.NewFactory(),
		Sanitizer:       gate,
		Cache:           suggestionCache,
		History:         tracker,
		Scheduler:       scheduler,
		Recovery:        engine,
		Logger:          log,
	}

	doctorService := &doctor.Service{
		ConfigProvider: cfgLoader,
		Sanitizer:      gate,
	}

	return &Container{
		CompletionService: completionService,
		DoctorService:     doctorService,
		ConfigProvider:    cfgLoader,
		ConfigLoader:      cfgLoader,
		Sanitizer:         gate,
		Cache:             suggestionCache,
		History:           tracker,
		Scheduler:         scheduler,
		Logger:            log,
	}, nil
}

// Close releases background resources (the cache sweeper, pending timers).
func (c *Container) Close() {
	if c.Scheduler != nil {
		c.Scheduler.CancelAll()
	}
	if c.Cache != nil {
		c.Cache.Close()
	}
}

func cacheTTL(cfg domain.Config) time.Duration {
	if d, err := time.ParseDuration(cfg.Cache.TTL); err == nil && d > 0 {
		return d
	}
	return domain.DefaultCacheTTL
}

func sweepInterval(cfg domain.Config) time.Duration {
	if d, err := time.ParseDuration(cfg.Cache.SweepInterval); err == nil && d > 0 {
		return d
	}
	return domain.DefaultSweepInterval
}
