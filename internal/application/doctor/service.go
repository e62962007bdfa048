package doctor

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"

	appconfig "github.com/doeshing/suggest-go/internal/application/config"
	"github.com/doeshing/suggest-go/internal/domain"
	"github.com/doeshing/suggest-go/internal/ports"
)

// Service runs environment diagnostics. The report is advisory only; a
// failing check never blocks completion requests.
type Service struct {
	ConfigProvider ports.ConfigProvider
	Sanitizer      ports.Sanitizer
	HTTPClient     *http.Client
}

// Run executes checks and returns a report.
func (s *Service) Run(ctx context.Context) (domain.HealthReport, error) {
	var checks []domain.HealthCheck

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		checks = append(checks, fail("Config file", fmt.Sprintf("load failed: %v", err)))
		return domain.HealthReport{Checks: checks}, err
	}
	if err := appconfig.Validate(cfg); err != nil {
		checks = append(checks, fail("Config file", err.Error()))
	} else {
		checks = append(checks, ok("Config file", fmt.Sprintf("format version %s, %d model(s)", cfg.ConfigFormatVersion, len(cfg.Models))))
	}

	if s.Sanitizer != nil {
		if safe := s.Sanitizer.IsPathSafe("src/main.go"); safe {
			checks = append(checks, ok("Sanitizer", "rules loaded"))
		} else {
			checks = append(checks, warn("Sanitizer", "gate rejects ordinary paths, check rules file"))
		}
	} else {
		checks = append(checks, warn("Sanitizer", "security gate not initialized"))
	}

	checks = append(checks, s.backendCheck(ctx, cfg))
	checks = append(checks, apiKeyCheck(cfg.Models))
	checks = append(checks, memoryCheck())

	return domain.HealthReport{Checks: checks}, nil
}

// backendCheck probes the default model's endpoint. Unreachable backends are
// a warn, not an error: the user may simply not have started the server yet.
func (s *Service) backendCheck(ctx context.Context, cfg domain.Config) domain.HealthCheck {
	model, found := cfg.GetDefaultModel()
	if !found {
		return warn("Backend", "no default model configured")
	}
	client := s.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 3 * time.Second}
	}

	probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, model.Endpoint, nil)
	if err != nil {
		return warn("Backend", fmt.Sprintf("endpoint %s invalid: %v", model.Endpoint, err))
	}
	resp, err := client.Do(req)
	if err != nil {
		return warn("Backend", fmt.Sprintf("%s unreachable: %v", model.Endpoint, err))
	}
	resp.Body.Close()
	return ok("Backend", fmt.Sprintf("%s reachable (HTTP %d)", model.Endpoint, resp.StatusCode))
}

func apiKeyCheck(models []domain.ModelDefinition) domain.HealthCheck {
	for _, model := range models {
		if model.AuthEnvVar != "" && os.Getenv(model.AuthEnvVar) == "" {
			return warn("API keys", fmt.Sprintf("%s not set for model %s", model.AuthEnvVar, model.Name))
		}
	}
	return ok("API keys", "present for configured models")
}

// memoryCheck compares current heap usage against the advisory ceiling.
func memoryCheck() domain.HealthCheck {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	used := stats.HeapAlloc
	detail := fmt.Sprintf("heap %s of %s ceiling", humanize.Bytes(used), humanize.Bytes(uint64(domain.MemoryCeilingBytes)))
	if used > uint64(domain.MemoryCeilingBytes) {
		return warn("Memory", detail)
	}
	return ok("Memory", detail)
}

func ok(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthOK, Details: details}
}

func warn(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthWarn, Details: details}
}

func fail(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthError, Details: details}
}
