package alerts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"exsim-maker-bot/internal/config"

	"go.uber.org/zap"
)

func TestTelegramSendPostsMessage(t *testing.T) {
	var gotPath string
	var gotPayload map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tg := newTelegram(config.TelegramConfig{Enabled: true, Token: "abc123", ChatID: "42"}, zap.NewNop(), srv.URL, srv.Client())
	if err := tg.Send(context.Background(), "Hedge sell 5 lots at 100"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotPath != "/botabc123/sendMessage" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotPayload["chat_id"] != "42" || gotPayload["text"] != "Hedge sell 5 lots at 100" {
		t.Fatalf("unexpected payload %+v", gotPayload)
	}
}

func TestTelegramSendSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	}))
	defer srv.Close()

	tg := newTelegram(config.TelegramConfig{Enabled: true, Token: "abc", ChatID: "42"}, zap.NewNop(), srv.URL, srv.Client())
	if err := tg.Send(context.Background(), "hello"); err == nil {
		t.Fatal("expected error from telegram api response")
	}
}

func TestTelegramSendSurfacesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	tg := newTelegram(config.TelegramConfig{Enabled: true, Token: "bad", ChatID: "42"}, zap.NewNop(), srv.URL, srv.Client())
	if err := tg.Send(context.Background(), "hello"); err == nil {
		t.Fatal("expected error for http 401")
	}
}

func TestTelegramDisabledIsNoop(t *testing.T) {
	tg := NewTelegram(config.TelegramConfig{}, zap.NewNop())
	if err := tg.Send(context.Background(), "ignored"); err != nil {
		t.Fatalf("disabled telegram must not error: %v", err)
	}
}

func TestTelegramRejectsEmptyMessage(t *testing.T) {
	tg := newTelegram(config.TelegramConfig{Enabled: true, Token: "abc", ChatID: "42"}, zap.NewNop(), "http://127.0.0.1:1", nil)
	if err := tg.Send(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty message")
	}
}
