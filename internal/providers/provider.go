package providers

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotConfigured is returned by New when no endpoint is set for a provider
// that requires one.
var ErrNotConfigured = errors.New("oracle endpoint not configured")

// CompletionRequest is a single-turn prompt sent to the oracle.
type CompletionRequest struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// CompletionResponse contains the raw text returned by the oracle.
type CompletionResponse struct {
	Content    string
	TokensUsed int
}

// Completer is the provider abstraction interface.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
	Name() string
}

// Settings selects and configures a provider.
type Settings struct {
	Provider string
	Endpoint string
	Model    string
	APIKey   string
	Timeout  time.Duration
}

// Names lists the provider identifiers accepted by New.
var Names = []string{"completions", "openai", "ollama"}

// New creates a provider from settings.
func New(s Settings) (Completer, error) {
	if s.Timeout <= 0 {
		s.Timeout = 30 * time.Second
	}
	switch s.Provider {
	case "", "completions":
		if s.Endpoint == "" {
			return nil, ErrNotConfigured
		}
		return NewCompletions(s.Endpoint, s.Model, s.APIKey, s.Timeout), nil
	case "openai":
		return NewOpenAI(s)
	case "ollama", "lmstudio":
		return NewOllama(s), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", s.Provider)
	}
}
