package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllama_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Verify no Authorization header when no API key is set
		if r.Header.Get("Authorization") != "" {
			t.Error("Expected no Authorization header for keyless Ollama")
		}
		var body completionRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if body.Model != "llama3" {
			t.Errorf("Model = %q, want llama3", body.Model)
		}

		resp := completionResponse{
			Choices: []completionChoice{
				{Message: chatMessage{Role: "assistant", Content: `{"spacedText":"HI"}`}},
			},
			Usage: completionUsage{TotalTokens: 100},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	o := &Ollama{
		model:   "llama3",
		baseURL: server.URL,
		client:  server.Client(),
	}

	resp, err := o.Complete(context.Background(), CompletionRequest{Prompt: "test", MaxTokens: 10})
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if resp.Content != `{"spacedText":"HI"}` {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.TokensUsed != 100 {
		t.Errorf("TokensUsed = %d, want 100", resp.TokensUsed)
	}
}

func TestOllama_CompleteWithAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-ollama-key" {
			t.Error("Missing or wrong Authorization header")
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer server.Close()

	o := &Ollama{
		apiKey:  "test-ollama-key",
		model:   "llama3",
		baseURL: server.URL,
		client:  server.Client(),
	}
	if _, err := o.Complete(context.Background(), CompletionRequest{Prompt: "test"}); err != nil {
		t.Fatalf("Complete error: %v", err)
	}
}

func TestOllama_Name(t *testing.T) {
	o := &Ollama{}
	if o.Name() != "ollama" {
		t.Errorf("Name() = %q, want %q", o.Name(), "ollama")
	}
}

func TestNewOllama_URLNormalization(t *testing.T) {
	tests := []struct {
		name    string
		host    string
		wantURL string
	}{
		{
			name:    "default",
			host:    "",
			wantURL: "http://localhost:11434/v1/chat/completions",
		},
		{
			name:    "trailing slash",
			host:    "http://localhost:11434/",
			wantURL: "http://localhost:11434/v1/chat/completions",
		},
		{
			name:    "with v1",
			host:    "http://localhost:11434/v1",
			wantURL: "http://localhost:11434/v1/chat/completions",
		},
		{
			name:    "with full path",
			host:    "http://localhost:11434/v1/chat/completions",
			wantURL: "http://localhost:11434/v1/chat/completions",
		},
		{
			name:    "custom host",
			host:    "http://192.168.1.100:11434",
			wantURL: "http://192.168.1.100:11434/v1/chat/completions",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOllama(Settings{Endpoint: tt.host, Model: "llama3"})
			if o.baseURL != tt.wantURL {
				t.Errorf("baseURL = %q, want %q", o.baseURL, tt.wantURL)
			}
		})
	}
}

func TestFactory_OllamaAliases(t *testing.T) {
	for _, name := range []string{"ollama", "lmstudio"} {
		r, err := New(Settings{Provider: name, Model: "llama3"})
		if err != nil {
			t.Fatalf("New(%q) error: %v", name, err)
		}
		if r.Name() != "ollama" {
			t.Errorf("New(%q).Name() = %q, want %q", name, r.Name(), "ollama")
		}
	}
}
