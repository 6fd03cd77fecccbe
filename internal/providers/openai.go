package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dshills/colsolve/internal/redact"
	"github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAI uses the go-openai SDK. Endpoint, when set, overrides the SDK's
// base URL so OpenAI-compatible gateways work too.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates a new OpenAI provider. An API key is required.
func NewOpenAI(s Settings) (*OpenAI, error) {
	if s.APIKey == "" {
		return nil, &authError{message: "no API key configured for openai (set COLSOLVE_ORACLE_API_KEY or OPENAI_API_KEY)"}
	}
	cfg := openai.DefaultConfig(s.APIKey)
	if s.Endpoint != "" {
		cfg.BaseURL = s.Endpoint
	}
	cfg.HTTPClient = &http.Client{Timeout: s.Timeout}
	model := s.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	chat := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
	}

	var resp CompletionResponse
	err := retryWithBackoff(ctx, 3, func() error {
		result, err := o.client.CreateChatCompletion(ctx, chat)
		if err != nil {
			return classifyOpenAIError(err)
		}
		resp = CompletionResponse{TokensUsed: result.Usage.TotalTokens}
		if len(result.Choices) > 0 {
			resp.Content = result.Choices[0].Message.Content
		}
		return nil
	})
	return resp, err
}

// classifyOpenAIError maps SDK errors onto the shared retry types.
func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return &rateLimitError{}
		case apiErr.HTTPStatusCode == http.StatusUnauthorized || apiErr.HTTPStatusCode == http.StatusForbidden:
			return &authError{message: redact.Secrets(apiErr.Message)}
		case apiErr.HTTPStatusCode >= 500:
			return &serverError{statusCode: apiErr.HTTPStatusCode, body: redact.Secrets(apiErr.Message)}
		}
		return fmt.Errorf("API error (status %d): %s", apiErr.HTTPStatusCode, redact.Secrets(apiErr.Message))
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		switch {
		case reqErr.HTTPStatusCode == http.StatusTooManyRequests:
			return &rateLimitError{}
		case reqErr.HTTPStatusCode == http.StatusUnauthorized || reqErr.HTTPStatusCode == http.StatusForbidden:
			return &authError{message: redact.Secrets(reqErr.Error())}
		case reqErr.HTTPStatusCode >= 500:
			return &serverError{statusCode: reqErr.HTTPStatusCode, body: redact.Secrets(reqErr.Error())}
		}
	}
	return fmt.Errorf("sending request: %w", err)
}
