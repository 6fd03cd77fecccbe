package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dshills/colsolve/internal/redact"
)

// Completions posts chat-style requests to any endpoint that accepts
// {messages, max_tokens, temperature}. Responses may carry the text in
// choices[0].message.content, completion, response or text.
type Completions struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewCompletions creates a generic completions provider. apiKey and model are
// optional.
func NewCompletions(endpoint, model, apiKey string, timeout time.Duration) *Completions {
	return &Completions{
		apiKey:  apiKey,
		model:   model,
		baseURL: endpoint,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *Completions) Name() string { return "completions" }

func (c *Completions) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	return postCompletion(ctx, c.client, c.baseURL, c.apiKey, c.model, req)
}

func postCompletion(ctx context.Context, client *http.Client, url, apiKey, model string, req CompletionRequest) (CompletionResponse, error) {
	body := completionRequest{
		Model:       model,
		Messages:    []chatMessage{{Role: "user", Content: req.Prompt}},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("marshaling request: %w", err)
	}

	var resp CompletionResponse
	err = retryWithBackoff(ctx, 3, func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if apiKey != "" {
			httpReq.Header.Set("Authorization", "Bearer "+apiKey)
		}

		httpResp, err := client.Do(httpReq)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer httpResp.Body.Close()

		respBody, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}

		if httpResp.StatusCode == http.StatusTooManyRequests {
			return &rateLimitError{}
		}
		if httpResp.StatusCode == http.StatusUnauthorized || httpResp.StatusCode == http.StatusForbidden {
			return &authError{message: redact.Body(respBody, redact.DefaultLimit, apiKey)}
		}
		if httpResp.StatusCode >= 500 {
			return &serverError{statusCode: httpResp.StatusCode, body: redact.Body(respBody, redact.DefaultLimit, apiKey)}
		}
		if httpResp.StatusCode != http.StatusOK {
			return fmt.Errorf("API error (status %d): %s", httpResp.StatusCode, redact.Body(respBody, redact.DefaultLimit, apiKey))
		}

		var result completionResponse
		if err := json.Unmarshal(respBody, &result); err != nil {
			return fmt.Errorf("parsing response: %w", err)
		}
		resp = CompletionResponse{
			Content:    result.text(),
			TokensUsed: result.Usage.TotalTokens,
		}
		return nil
	})

	return resp, err
}

type completionRequest struct {
	Model       string        `json:"model,omitempty"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionResponse struct {
	Choices    []completionChoice `json:"choices"`
	Completion string             `json:"completion"`
	Response   string             `json:"response"`
	Text       string             `json:"text"`
	Usage      completionUsage    `json:"usage"`
}

type completionChoice struct {
	Message chatMessage `json:"message"`
}

type completionUsage struct {
	TotalTokens int `json:"total_tokens"`
}

func (r completionResponse) text() string {
	if len(r.Choices) > 0 && r.Choices[0].Message.Content != "" {
		return r.Choices[0].Message.Content
	}
	switch {
	case r.Completion != "":
		return r.Completion
	case r.Response != "":
		return r.Response
	default:
		return r.Text
	}
}
