package domain

// Config mirrors ~/.suggest/config.yaml.
type Config struct {
	ConfigFormatVersion string            `yaml:"config_format_version"`
	Preferences         Preferences       `yaml:"preferences"`
	Models              []ModelDefinition `yaml:"models"`
	Debounce            DebounceSettings  `yaml:"debounce"`
	Cache               CacheSettings     `yaml:"cache"`
	Retry               RetrySettings     `yaml:"retry"`
	History             HistorySettings   `yaml:"history"`
	Sanitizer           SanitizerSettings `yaml:"sanitizer"`
}

// Preferences captures user level toggles.
type Preferences struct {
	DefaultModel   string   `yaml:"default_model"`
	FallbackModels []string `yaml:"fallback_models"`
	Stream         bool     `yaml:"stream"`
}

// DebounceSettings configures the coalescing scheduler.
type DebounceSettings struct {
	DelayMS int `yaml:"delay_ms"`
}

// CacheSettings configures the in-memory suggestion cache.
type CacheSettings struct {
	TTL           string `yaml:"ttl"`
	MaxEntries    int    `yaml:"max_entries"`
	SweepInterval string `yaml:"sweep_interval"`
}

// RetrySettings configures recovery engine defaults.
type RetrySettings struct {
	Count       int `yaml:"count"`
	BaseDelayMS int `yaml:"base_delay_ms"`
	MaxDelayMS  int `yaml:"max_delay_ms"`
}

// HistorySettings bounds the per-session position history.
type HistorySettings struct {
	MaxDepth int `yaml:"max_depth"`
}

// SanitizerSettings defines security gate behavior.
type SanitizerSettings struct {
	RulesFile        string `yaml:"rules_file"`
	MaxRequestSizeKB int    `yaml:"max_request_size_kb"`
}

// GetDefaultModel retrieves the default model definition from configuration.
func (c *Config) GetDefaultModel() (ModelDefinition, bool) {
	if c.Preferences.DefaultModel == "" {
		if len(c.Models) > 0 {
			return c.Models[0], true
		}
		return ModelDefinition{}, false
	}
	return c.FindModelByName(c.Preferences.DefaultModel)
}

// FindModelByName searches for a model by its name.
func (c *Config) FindModelByName(name string) (ModelDefinition, bool) {
	for _, model := range c.Models {
		if model.Name == name {
			return model, true
		}
	}
	return ModelDefinition{}, false
}
