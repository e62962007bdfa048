package config

import (
	"strings"
	"testing"

	"github.com/doeshing/suggest-go/internal/domain"
)

func validConfig() domain.Config {
	return domain.Config{
		ConfigFormatVersion: "1",
		Preferences:         domain.Preferences{DefaultModel: "local-coder"},
		Models: []domain.ModelDefinition{
			{Name: "local-coder", Endpoint: "http://localhost:11434/v1/chat/completions", ModelID: "codellama:7b"},
		},
		Debounce:  domain.DebounceSettings{DelayMS: 300},
		Cache:     domain.CacheSettings{TTL: "5m", MaxEntries: 1000, SweepInterval: "1m"},
		Retry:     domain.RetrySettings{Count: 2, BaseDelayMS: 500, MaxDelayMS: 5000},
		History:   domain.HistorySettings{MaxDepth: 100},
		Sanitizer: domain.SanitizerSettings{MaxRequestSizeKB: 64},
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("Validate(defaults) error = %v", err)
	}
}

func TestValidateRejectsOutOfRangeValues(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*domain.Config)
		wantSub string
	}{
		{
			name:    "no models",
			mutate:  func(c *domain.Config) { c.Models = nil },
			wantSub: "at least one model",
		},
		{
			name:    "unknown default model",
			mutate:  func(c *domain.Config) { c.Preferences.DefaultModel = "ghost" },
			wantSub: "default model ghost",
		},
		{
			name:    "unknown fallback model",
			mutate:  func(c *domain.Config) { c.Preferences.FallbackModels = []string{"ghost"} },
			wantSub: "fallback model ghost",
		},
		{
			name:    "debounce too small",
			mutate:  func(c *domain.Config) { c.Debounce.DelayMS = 10 },
			wantSub: "debounce.delay_ms",
		},
		{
			name:    "debounce too large",
			mutate:  func(c *domain.Config) { c.Debounce.DelayMS = 60000 },
			wantSub: "debounce.delay_ms",
		},
		{
			name:    "cache ttl unparseable",
			mutate:  func(c *domain.Config) { c.Cache.TTL = "five minutes" },
			wantSub: "cache.ttl",
		},
		{
			name:    "cache ttl out of range",
			mutate:  func(c *domain.Config) { c.Cache.TTL = "48h" },
			wantSub: "cache.ttl",
		},
		{
			name:    "cache max entries zero",
			mutate:  func(c *domain.Config) { c.Cache.MaxEntries = 0 },
			wantSub: "cache.max_entries",
		},
		{
			name:    "retry count negative",
			mutate:  func(c *domain.Config) { c.Retry.Count = -1 },
			wantSub: "retry.count",
		},
		{
			name:    "retry count excessive",
			mutate:  func(c *domain.Config) { c.Retry.Count = 100 },
			wantSub: "retry.count",
		},
		{
			name:    "retry max below base",
			mutate:  func(c *domain.Config) { c.Retry.MaxDelayMS = 100 },
			wantSub: "retry.max_delay_ms",
		},
		{
			name:    "history depth zero",
			mutate:  func(c *domain.Config) { c.History.MaxDepth = 0 },
			wantSub: "history.max_depth",
		},
		{
			name:    "size ceiling too large",
			mutate:  func(c *domain.Config) { c.Sanitizer.MaxRequestSizeKB = 4096 },
			wantSub: "sanitizer.max_request_size_kb",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatal("Validate accepted out-of-range config")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Fatalf("error %q does not name %q", err, tc.wantSub)
			}
		})
	}
}
