package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/doeshing/suggest-go/internal/domain"
	"github.com/doeshing/suggest-go/internal/ports"
)

// chatProvider speaks the OpenAI-compatible chat-completions dialect, which
// Ollama also serves. One type covers both; only auth headers differ.
type chatProvider struct {
	name       string
	model      domain.ModelDefinition
	httpClient *http.Client
}

func newChatProvider(name string, model domain.ModelDefinition, client *http.Client) ports.CompletionProvider {
	return &chatProvider{
		name:       name,
		model:      model,
		httpClient: client,
	}
}

func (p *chatProvider) Name() string {
	return p.name
}

func (p *chatProvider) Model() domain.ModelDefinition {
	return p.model
}

// Complete implements ports.CompletionProvider.
func (p *chatProvider) Complete(ctx context.Context, req ports.ProviderRequest) (domain.Suggestion, error) {
	resp, err := p.send(ctx, req, false)
	if err != nil {
		return domain.Suggestion{}, err
	}
	defer resp.Body.Close()

	var decoded chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Suggestion{}, &domain.SuggestionProcessingError{Stage: "decode", Err: err}
	}
	content := decoded.FirstMessage()
	if content == "" {
		return domain.Suggestion{}, &domain.ModelError{Model: p.model.ModelID, Err: fmt.Errorf("empty completion")}
	}
	return domain.Suggestion{
		Text:  trimCompletion(content),
		Model: p.model.ModelID,
	}, nil
}

// CompleteStream implements ports.CompletionProvider. Partial chunks are
// forwarded to w as they arrive; the accumulated text is returned as the
// final suggestion after the stream terminates.
func (p *chatProvider) CompleteStream(ctx context.Context, req ports.ProviderRequest, w domain.StreamWriter) (domain.Suggestion, error) {
	resp, err := p.send(ctx, req, true)
	if err != nil {
		return domain.Suggestion{}, err
	}
	defer resp.Body.Close()

	var builder strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		payload := strings.TrimPrefix(line, "data: ")
		if payload == "[DONE]" {
			break
		}
		var chunk chatCompletionChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			continue // keep-alives and comments are not fatal
		}
		if delta := chunk.FirstDelta(); delta != "" {
			builder.WriteString(delta)
			if w != nil {
				w.WriteChunk(delta)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return domain.Suggestion{}, &domain.SuggestionProcessingError{Stage: "stream", Err: err}
	}
	if w != nil {
		w.Done()
	}

	content := builder.String()
	if content == "" {
		return domain.Suggestion{}, &domain.ModelError{Model: p.model.ModelID, Err: fmt.Errorf("empty streamed completion")}
	}
	return domain.Suggestion{
		Text:  trimCompletion(content),
		Model: p.model.ModelID,
	}, nil
}

// send issues the HTTP request and normalizes transport and status failures
// into the domain error taxonomy so the recovery engine can dispatch on them.
func (p *chatProvider) send(ctx context.Context, req ports.ProviderRequest, stream bool) (*http.Response, error) {
	payload := chatCompletionRequest{
		Model:       defaultString(p.model.ModelID, "codellama:7b"),
		MaxTokens:   defaultInt(p.model.MaxTokens, 256),
		Temperature: p.model.Temperature,
		Stream:      stream,
		Messages:    renderPromptMessages(req.Completion),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &domain.SuggestionProcessingError{Stage: "encode", Err: err}
	}

	endpoint := defaultString(p.model.Endpoint, "http://localhost:11434/v1/chat/completions")
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &domain.ConnectionError{Endpoint: endpoint, Err: err}
	}
	httpReq.Header.Set("content-type", "application/json")
	if p.model.AuthEnvVar != "" {
		if key := os.Getenv(p.model.AuthEnvVar); key != "" {
			httpReq.Header.Set("Authorization", "Bearer "+key)
		}
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &domain.ConnectionError{Endpoint: endpoint, Err: err}
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, &domain.ModelError{
			Model: p.model.ModelID,
			Err:   fmt.Errorf("%s: %s", p.name, resp.Status),
		}
	}
	return resp, nil
}

// trimCompletion strips markdown fencing some models wrap around code.
// Leading whitespace of unfenced completions is kept; it is indentation.
func trimCompletion(content string) string {
	if fenced := strings.TrimSpace(content); strings.HasPrefix(fenced, "```") {
		fenced = strings.TrimPrefix(fenced, "```")
		if idx := strings.Index(fenced, "\n"); idx >= 0 {
			fenced = fenced[idx+1:]
		}
		fenced = strings.TrimSuffix(strings.TrimSpace(fenced), "```")
		return strings.TrimRight(fenced, "\n")
	}
	return strings.TrimRight(content, "\n")
}

var _ ports.CompletionProvider = (*chatProvider)(nil)
