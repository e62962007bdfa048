// Package config loads YAML configuration from the user's home directory,
// seeding it from embedded defaults on first run.
package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/suggest-go/assets"
	"github.com/doeshing/suggest-go/internal/domain"
	"github.com/doeshing/suggest-go/internal/pkg/filesystem"
	"github.com/doeshing/suggest-go/internal/ports"
)

// FileLoader loads YAML configuration from ~/.suggest/config.yaml
// (overridable via SUGGEST_CONFIG).
type FileLoader struct {
	overridePath string
}

// NewFileLoader builds a new loader. An empty path means the default
// location.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{overridePath: path}
}

// Load implements ports.ConfigProvider.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	path := l.resolvePath()
	if err := ensureConfigDir(path); err != nil {
		return domain.Config{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if err := seedDefaults(path); err != nil {
				return domain.Config{}, err
			}
			data = assets.DefaultConfigYAML
		} else {
			return domain.Config{}, err
		}
	}

	return decodeConfig(data)
}

// Path reports where the config file lives on disk.
func (l *FileLoader) Path() string {
	return l.resolvePath()
}

// Save writes cfg back to the config file.
func (l *FileLoader) Save(cfg domain.Config) error {
	path := l.resolvePath()
	if err := ensureConfigDir(path); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Reset overwrites the config file with the embedded defaults and returns
// the resulting configuration.
func (l *FileLoader) Reset() (domain.Config, error) {
	path := l.resolvePath()
	if err := ensureConfigDir(path); err != nil {
		return domain.Config{}, err
	}
	if err := os.WriteFile(path, assets.DefaultConfigYAML, 0o600); err != nil {
		return domain.Config{}, err
	}
	return decodeConfig(assets.DefaultConfigYAML)
}

func (l *FileLoader) resolvePath() string {
	if l.overridePath != "" {
		return expandPath(l.overridePath)
	}
	if custom := os.Getenv("SUGGEST_CONFIG"); custom != "" {
		return expandPath(custom)
	}
	return filepath.Join(filesystem.ConfigDir(), "config.yaml")
}

func ensureConfigDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

// seedDefaults writes the embedded config and sanitizer rules next to each
// other so a first run leaves an editable setup behind.
func seedDefaults(configPath string) error {
	if err := os.WriteFile(configPath, assets.DefaultConfigYAML, 0o600); err != nil {
		return err
	}
	rulesPath := filepath.Join(filepath.Dir(configPath), "sanitizer.yaml")
	if _, err := os.Stat(rulesPath); errors.Is(err, fs.ErrNotExist) {
		return os.WriteFile(rulesPath, assets.DefaultSanitizerYAML, 0o600)
	}
	return nil
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(filesystem.UserHomeDir(), path[2:])
	}
	return path
}

// retrySection shadows the retry block with pointer fields: 0 is a valid
// count and delay there, so absence must be told apart from an explicit zero.
type retrySection struct {
	Retry struct {
		Count       *int `yaml:"count"`
		BaseDelayMS *int `yaml:"base_delay_ms"`
	} `yaml:"retry"`
}

// decodeConfig parses data and fills gaps with defaults. Only fields the file
// does not mention are hydrated; user-set zeros survive.
func decodeConfig(data []byte) (domain.Config, error) {
	var cfg domain.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.Config{}, err
	}

	var present retrySection
	if err := yaml.Unmarshal(data, &present); err != nil {
		return domain.Config{}, err
	}
	if present.Retry.Count == nil {
		cfg.Retry.Count = domain.DefaultRetryCount
	}
	if present.Retry.BaseDelayMS == nil {
		cfg.Retry.BaseDelayMS = int(domain.DefaultRetryBaseDelay.Milliseconds())
	}

	return hydrateDefaults(cfg), nil
}

// hydrateDefaults fills gaps left by partial config files. Fields handled
// here have no valid zero value, so zero always means "not set".
func hydrateDefaults(cfg domain.Config) domain.Config {
	if cfg.ConfigFormatVersion == "" {
		cfg.ConfigFormatVersion = "1"
	}
	if cfg.Debounce.DelayMS == 0 {
		cfg.Debounce.DelayMS = int(domain.DefaultDebounceDelay.Milliseconds())
	}
	if cfg.Cache.TTL == "" {
		cfg.Cache.TTL = domain.DefaultCacheTTL.String()
	}
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = domain.DefaultMaxCacheEntries
	}
	if cfg.Cache.SweepInterval == "" {
		cfg.Cache.SweepInterval = domain.DefaultSweepInterval.String()
	}
	if cfg.History.MaxDepth == 0 {
		cfg.History.MaxDepth = domain.DefaultHistoryDepth
	}
	if cfg.Sanitizer.MaxRequestSizeKB == 0 {
		cfg.Sanitizer.MaxRequestSizeKB = domain.DefaultMaxRequestSizeKB
	}
	if cfg.Preferences.DefaultModel == "" && len(cfg.Models) > 0 {
		cfg.Preferences.DefaultModel = cfg.Models[0].Name
	}
	return cfg
}

var _ ports.ConfigProvider = (*FileLoader)(nil)
