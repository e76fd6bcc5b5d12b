package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"coinpilot/internal/domain"
)

func TestSendPostsMessage(t *testing.T) {
	var got telegramMessage
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	s := NewNotificationService("TOKEN", "42", srv.URL)
	defer s.Close()

	err := s.Send(context.Background(), domain.Notification{
		Title: "Simulated trade opened", Description: "LONG 1.5 BTCUSDT", Severity: domain.SeveritySuccess,
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if path != "/botTOKEN/sendMessage" {
		t.Errorf("path = %s", path)
	}
	if got.ChatID != "42" || !strings.Contains(got.Text, "Simulated trade opened") || got.ParseMode != "Markdown" {
		t.Errorf("unexpected message: %+v", got)
	}
}

func TestSendReportsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	}))
	defer srv.Close()

	s := NewNotificationService("TOKEN", "42", srv.URL)
	defer s.Close()

	err := s.Send(context.Background(), domain.Notification{Title: "x"})
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("expected API error, got %v", err)
	}
}

func TestDisabledWithoutCredentials(t *testing.T) {
	s := NewNotificationService("", "", "")
	defer s.Close()

	if s.Enabled() {
		t.Fatal("expected disabled notifier")
	}
	s.Notify(domain.Notification{Title: "ignored"})
	if err := s.Send(context.Background(), domain.Notification{Title: "ignored"}); err != nil {
		t.Errorf("Send on disabled notifier: %v", err)
	}
}
