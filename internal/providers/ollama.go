package providers

import (
	"context"
	"net/http"
	"strings"
)

const defaultOllamaURL = "http://localhost:11434"

// Ollama talks to Ollama and LM Studio through their OpenAI-compatible API.
type Ollama struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewOllama creates a new Ollama provider. No API key is required by default.
func NewOllama(s Settings) *Ollama {
	baseURL := s.Endpoint
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}

	// Normalize URL: strip trailing /, /v1, /v1/chat/completions
	baseURL = strings.TrimRight(baseURL, "/")
	baseURL = strings.TrimSuffix(baseURL, "/v1/chat/completions")
	baseURL = strings.TrimSuffix(baseURL, "/v1")

	return &Ollama{
		apiKey:  s.APIKey,
		model:   s.Model,
		baseURL: baseURL + "/v1/chat/completions",
		client:  &http.Client{Timeout: s.Timeout},
	}
}

func (o *Ollama) Name() string { return "ollama" }

func (o *Ollama) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	return postCompletion(ctx, o.client, o.baseURL, o.apiKey, o.model, req)
}
