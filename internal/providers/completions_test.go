package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func shortBackoff(t *testing.T) {
	t.Helper()
	old := backoffBase
	backoffBase = time.Millisecond
	t.Cleanup(func() { backoffBase = old })
}

func TestCompletions_RequestShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if _, ok := body["model"]; ok {
			t.Error("model should be omitted when empty")
		}
		if body["max_tokens"] != float64(500) {
			t.Errorf("max_tokens = %v", body["max_tokens"])
		}
		if body["temperature"] != 0.1 {
			t.Errorf("temperature = %v", body["temperature"])
		}
		msgs := body["messages"].([]any)
		if len(msgs) != 1 {
			t.Fatalf("messages = %d, want 1", len(msgs))
		}
		msg := msgs[0].(map[string]any)
		if msg["role"] != "user" || msg["content"] != "prompt text" {
			t.Errorf("message = %v", msg)
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"done"}}]}`))
	}))
	defer server.Close()

	c := NewCompletions(server.URL, "", "", 5*time.Second)
	resp, err := c.Complete(context.Background(), CompletionRequest{Prompt: "prompt text", MaxTokens: 500, Temperature: 0.1})
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if resp.Content != "done" {
		t.Errorf("Content = %q", resp.Content)
	}
}

func TestCompletions_ResponseFieldFallbacks(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"choices", `{"choices":[{"message":{"content":"A"}}],"completion":"B"}`, "A"},
		{"completion", `{"completion":"B","response":"C"}`, "B"},
		{"response", `{"response":"C","text":"D"}`, "C"},
		{"text", `{"text":"D"}`, "D"},
		{"empty choice falls through", `{"choices":[{"message":{"content":""}}],"text":"D"}`, "D"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := NewCompletions(server.URL, "", "", 5*time.Second)
			resp, err := c.Complete(context.Background(), CompletionRequest{Prompt: "p"})
			if err != nil {
				t.Fatalf("Complete error: %v", err)
			}
			if resp.Content != tt.want {
				t.Errorf("Content = %q, want %q", resp.Content, tt.want)
			}
		})
	}
}

func TestCompletions_EmptyReplyIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := NewCompletions(server.URL, "", "", 5*time.Second)
	resp, err := c.Complete(context.Background(), CompletionRequest{Prompt: "p"})
	if err != nil {
		t.Fatalf("empty reply should reach the caller, got error: %v", err)
	}
	if resp.Content != "" {
		t.Errorf("Content = %q, want empty", resp.Content)
	}
}

func TestCompletions_ServerErrorRetried(t *testing.T) {
	shortBackoff(t)
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("upstream down"))
			return
		}
		w.Write([]byte(`{"text":"recovered"}`))
	}))
	defer server.Close()

	c := NewCompletions(server.URL, "", "", 5*time.Second)
	resp, err := c.Complete(context.Background(), CompletionRequest{Prompt: "p"})
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if resp.Content != "recovered" || attempts.Load() != 2 {
		t.Errorf("Content = %q after %d attempts", resp.Content, attempts.Load())
	}
}

func TestCompletions_ServerErrorExhausted(t *testing.T) {
	shortBackoff(t)
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer server.Close()

	c := NewCompletions(server.URL, "", "", 5*time.Second)
	_, err := c.Complete(context.Background(), CompletionRequest{Prompt: "p"})
	var se *serverError
	if !errors.As(err, &se) {
		t.Fatalf("Expected serverError, got: %v", err)
	}
	if se.statusCode != 500 {
		t.Errorf("statusCode = %d", se.statusCode)
	}
	if attempts.Load() != 4 {
		t.Errorf("attempts = %d, want 4", attempts.Load())
	}
}

func TestCompletions_BadRequestNotRetried(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	c := NewCompletions(server.URL, "", "", 5*time.Second)
	if _, err := c.Complete(context.Background(), CompletionRequest{Prompt: "p"}); err == nil {
		t.Error("Expected error for 400")
	}
	if attempts.Load() != 1 {
		t.Errorf("attempts = %d, want 1", attempts.Load())
	}
}

func TestCompletions_AuthErrorScrubsKey(t *testing.T) {
	const key = "local-gateway-key-0042"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": "bad credentials", "received": "` + r.Header.Get("Authorization") + `"}`))
	}))
	defer server.Close()

	c := NewCompletions(server.URL, "", key, time.Second)
	_, err := c.Complete(context.Background(), CompletionRequest{Prompt: "x"})
	if !IsAuthError(err) {
		t.Fatalf("err = %v, want auth error", err)
	}
	if strings.Contains(err.Error(), key) {
		t.Errorf("error leaks the API key: %v", err)
	}
	if !strings.Contains(err.Error(), "bad credentials") {
		t.Errorf("error lost the upstream message: %v", err)
	}
}

func TestNew(t *testing.T) {
	if _, err := New(Settings{Provider: "completions"}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Expected ErrNotConfigured, got: %v", err)
	}
	if _, err := New(Settings{}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Expected ErrNotConfigured for default provider, got: %v", err)
	}
	if _, err := New(Settings{Provider: "unknown"}); err == nil {
		t.Error("Expected error for unknown provider")
	}

	c, err := New(Settings{Endpoint: "http://localhost:9999/complete"})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if c.Name() != "completions" {
		t.Errorf("Name() = %q", c.Name())
	}
}
