// Package domain defines core business entities and value objects for suggest-go.
//
// The domain layer is independent of infrastructure concerns and represents pure
// data structures shared by the scheduler, cache, recovery engine, history
// tracker, and sanitizer.
package domain

// ModelDefinition describes an inference backend declared in the config file.
type ModelDefinition struct {
	Name        string  `yaml:"name"`
	Endpoint    string  `yaml:"endpoint"`
	AuthEnvVar  string  `yaml:"auth_env_var"`
	ModelID     string  `yaml:"model_id"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// ProviderKind identifies the wire dialect a backend speaks.
type ProviderKind string

const (
	ProviderKindOllama  ProviderKind = "ollama"
	ProviderKindOpenAI  ProviderKind = "openai"
	ProviderKindUnknown ProviderKind = "unknown"
)

// PromptMessage follows the role/content pair required by chat-style APIs.
type PromptMessage struct {
	Role    string `yaml:"role" json:"role"`
	Content string `yaml:"content" json:"content"`
}
