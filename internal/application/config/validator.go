// Package config validates the loaded configuration against documented
// ranges. Out-of-range values are rejected with the offending field, value,
// and allowed range — never clamped silently.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/doeshing/suggest-go/internal/domain"
)

// Validate ensures config structure is consistent.
func Validate(cfg domain.Config) error {
	if len(cfg.Models) == 0 {
		return errors.New("at least one model must be configured")
	}
	if cfg.Preferences.DefaultModel != "" {
		if _, ok := cfg.FindModelByName(cfg.Preferences.DefaultModel); !ok {
			return fmt.Errorf("default model %s not found in models list", cfg.Preferences.DefaultModel)
		}
	}
	for _, name := range cfg.Preferences.FallbackModels {
		if _, ok := cfg.FindModelByName(name); !ok {
			return fmt.Errorf("fallback model %s not found", name)
		}
	}
	if err := validateDebounce(cfg.Debounce); err != nil {
		return err
	}
	if err := validateCache(cfg.Cache); err != nil {
		return err
	}
	if err := validateRetry(cfg.Retry); err != nil {
		return err
	}
	if err := validateHistory(cfg.History); err != nil {
		return err
	}
	return validateSanitizer(cfg.Sanitizer)
}

func validateDebounce(d domain.DebounceSettings) error {
	if d.DelayMS < domain.MinDebounceDelayMS || d.DelayMS > domain.MaxDebounceDelayMS {
		return fmt.Errorf("debounce.delay_ms is %d, must be %d..%d",
			d.DelayMS, domain.MinDebounceDelayMS, domain.MaxDebounceDelayMS)
	}
	return nil
}

func validateCache(c domain.CacheSettings) error {
	ttl, err := time.ParseDuration(c.TTL)
	if err != nil {
		return fmt.Errorf("cache.ttl invalid: %w", err)
	}
	if ttl < time.Second || ttl > 24*time.Hour {
		return fmt.Errorf("cache.ttl is %s, must be 1s..24h", ttl)
	}
	if c.MaxEntries < 1 || c.MaxEntries > domain.MaxCacheEntriesCeiling {
		return fmt.Errorf("cache.max_entries is %d, must be 1..%d",
			c.MaxEntries, domain.MaxCacheEntriesCeiling)
	}
	if c.SweepInterval != "" {
		if _, err := time.ParseDuration(c.SweepInterval); err != nil {
			return fmt.Errorf("cache.sweep_interval invalid: %w", err)
		}
	}
	return nil
}

func validateRetry(r domain.RetrySettings) error {
	if r.Count < 0 || r.Count > domain.MaxRetryCount {
		return fmt.Errorf("retry.count is %d, must be 0..%d", r.Count, domain.MaxRetryCount)
	}
	if r.BaseDelayMS < 0 || r.BaseDelayMS > domain.MaxRetryDelayMS {
		return fmt.Errorf("retry.base_delay_ms is %d, must be 0..%d",
			r.BaseDelayMS, domain.MaxRetryDelayMS)
	}
	if r.MaxDelayMS != 0 && r.MaxDelayMS < r.BaseDelayMS {
		return fmt.Errorf("retry.max_delay_ms is %d, must be >= base_delay_ms %d",
			r.MaxDelayMS, r.BaseDelayMS)
	}
	return nil
}

func validateHistory(h domain.HistorySettings) error {
	if h.MaxDepth < 1 || h.MaxDepth > domain.MaxHistoryDepth {
		return fmt.Errorf("history.max_depth is %d, must be 1..%d",
			h.MaxDepth, domain.MaxHistoryDepth)
	}
	return nil
}

func validateSanitizer(s domain.SanitizerSettings) error {
	if s.MaxRequestSizeKB < 1 || s.MaxRequestSizeKB > domain.MaxRequestSizeCeilingKB {
		return fmt.Errorf("sanitizer.max_request_size_kb is %d, must be 1..%d",
			s.MaxRequestSizeKB, domain.MaxRequestSizeCeilingKB)
	}
	return nil
}
