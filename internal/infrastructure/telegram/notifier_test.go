package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/sromero1905/scrapping-link/internal/config"
)

func TestPublishReport(t *testing.T) {
	t.Parallel()

	var (
		mu               sync.Mutex
		gotText, gotChat string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/sendMessage" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		mu.Lock()
		gotText, gotChat = r.PostForm.Get("text"), r.PostForm.Get("chat_id")
		mu.Unlock()
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewNotifier(config.TelegramConfig{BotToken: "TOKEN", ChatID: "42", BaseURL: srv.URL})
	if err := n.PublishReport(context.Background(), strings.Repeat("é", maxMessage+10)); err != nil {
		t.Fatalf("PublishReport error: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if gotChat != "42" {
		t.Fatalf("unexpected chat %q", gotChat)
	}
	if utf8.RuneCountInString(gotText) != maxMessage {
		t.Fatalf("expected the report cut to %d runes, got %d", maxMessage, utf8.RuneCountInString(gotText))
	}
}

func TestPublishReportErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	if err := NewNotifier(config.TelegramConfig{BotToken: "T", ChatID: "1", BaseURL: srv.URL}).PublishReport(context.Background(), "hi"); err == nil {
		t.Fatalf("expected an error for a 403 reply")
	}
	if err := NewNotifier(config.TelegramConfig{}).PublishReport(context.Background(), "hi"); err == nil {
		t.Fatalf("expected misconfiguration error")
	}
}
