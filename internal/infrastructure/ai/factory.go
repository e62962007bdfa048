// Package ai adapts chat-completion HTTP backends to the CompletionProvider
// port. The orchestrator treats these as an opaque "generate completion"
// call; everything dialect-specific stays in here.
package ai

import (
	"net/http"
	"strings"

	"github.com/doeshing/suggest-go/internal/domain"
	"github.com/doeshing/suggest-go/internal/ports"
)

// Factory builds provider clients that share one HTTP client.
type Factory struct {
	httpClient *http.Client
}

// NewFactory creates a Factory with the default backend timeout.
func NewFactory() *Factory {
	return &Factory{
		httpClient: &http.Client{Timeout: domain.DefaultHTTPClientTimeout},
	}
}

// ForModel implements ports.ProviderFactory.
func (f *Factory) ForModel(model domain.ModelDefinition) (ports.CompletionProvider, error) {
	kind := inferProviderKind(model.Endpoint, model.Name)
	return newChatProvider(string(kind), model, f.httpClient), nil
}

func inferProviderKind(endpoint, name string) domain.ProviderKind {
	nameLower := strings.ToLower(name)
	switch {
	case strings.Contains(endpoint, "openai.com"):
		return domain.ProviderKindOpenAI
	case strings.Contains(nameLower, "ollama"), strings.Contains(endpoint, "11434"), strings.Contains(endpoint, "localhost"):
		return domain.ProviderKindOllama
	default:
		return domain.ProviderKindUnknown
	}
}

var _ ports.ProviderFactory = (*Factory)(nil)
