package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sromero1905/scrapping-link/internal/config"
)

func TestAnthropicOracleComplete(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/messages") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("X-Api-Key"); got != "sk-test" {
			t.Errorf("unexpected api key %q", got)
		}
		var body struct {
			Model     string `json:"model"`
			MaxTokens int    `json:"max_tokens"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body.Model != "claude-test" || body.MaxTokens != 128 {
			t.Errorf("unexpected request %+v", body)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1", "type": "message", "role": "assistant", "model": "claude-test",
			"content": [{"type": "text", "text": "YES, "}, {"type": "text", "text": "it helps."}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 4}
		}`))
	}))
	defer srv.Close()

	oracle := NewAnthropicOracle(config.AnthropicConfig{APIKey: "sk-test", Model: "claude-test", BaseURL: srv.URL + "/"}, 5*time.Second)
	got, err := oracle.Complete(context.Background(), "Does this post need an image?", 128)
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if got != "YES, it helps." {
		t.Fatalf("unexpected completion %q", got)
	}
}

func TestAnthropicOracleBadRequest(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"max_tokens too large"}}`))
	}))
	defer srv.Close()

	oracle := NewAnthropicOracle(config.AnthropicConfig{APIKey: "sk-test", BaseURL: srv.URL + "/"}, 5*time.Second)
	if _, err := oracle.Complete(context.Background(), "hi", 1); err == nil {
		t.Fatalf("expected an error for a 400 reply")
	}
}

func TestChatCompletionOracle(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer key" {
			t.Errorf("missing bearer token")
		}
		var body struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if len(body.Messages) != 2 || body.Messages[1].Content != "score this" {
			t.Errorf("unexpected messages %+v", body.Messages)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Score: 8/10"}}]}`))
	}))
	defer srv.Close()

	oracle := NewChatCompletionOracle(config.ChatGPTConfig{Endpoint: srv.URL, Model: "gpt", APIKey: "key"}, time.Second)
	got, err := oracle.Complete(context.Background(), "score this", 64)
	if err != nil || got != "Score: 8/10" {
		t.Fatalf("unexpected completion %q, err %v", got, err)
	}
}

func TestChatCompletionOracleEmptyAndMisconfigured(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	oracle := NewChatCompletionOracle(config.ChatGPTConfig{Endpoint: srv.URL, Model: "gpt", APIKey: "key"}, time.Second)
	if _, err := oracle.Complete(context.Background(), "x", 1); !errors.Is(err, ErrEmptyCompletion) {
		t.Fatalf("expected ErrEmptyCompletion, got %v", err)
	}

	if _, err := NewChatCompletionOracle(config.ChatGPTConfig{}, 0).Complete(context.Background(), "x", 1); err == nil {
		t.Fatalf("expected misconfiguration error")
	}
}
