package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewNotifierDisabled(t *testing.T) {
	n := NewNotifier("", "")
	if n.Enabled() {
		t.Fatal("expected disabled notifier with empty credentials")
	}
}

func TestNewNotifierEnabled(t *testing.T) {
	n := NewNotifier("bot123", "chat456")
	if !n.Enabled() {
		t.Fatal("expected enabled notifier with credentials")
	}
}

func TestSendDisabled(t *testing.T) {
	n := NewNotifier("", "")
	if err := n.Send(context.Background(), "test"); err != nil {
		t.Fatalf("disabled send should succeed silently: %v", err)
	}
}

func TestSendSuccess(t *testing.T) {
	var receivedChatID, receivedText string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedChatID = r.URL.Query().Get("chat_id")
		receivedText = r.URL.Query().Get("text")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(map[string]bool{"ok": true}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	n := newTestNotifier(server.URL, server.Client())

	err := n.Send(context.Background(), "regime digest")
	if err != nil {
		t.Fatalf("send should succeed: %v", err)
	}
	if receivedChatID != "test-chat" {
		t.Errorf("expected chat_id=test-chat, got %s", receivedChatID)
	}
	if receivedText != "regime digest" {
		t.Errorf("expected text=regime digest, got %s", receivedText)
	}
}

func TestSendServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		if err := json.NewEncoder(w).Encode(map[string]string{"description": "bad request"}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	n := newTestNotifier(server.URL, server.Client())

	err := n.Send(context.Background(), "test")
	if err == nil {
		t.Fatal("expected error for server error response")
	}
}

func newTestNotifier(url string, client *http.Client) *Notifier {
	return &Notifier{
		botToken:   "test-token",
		chatID:     "test-chat",
		httpClient: client,
		enabled:    true,
		baseURL:    url,
	}
}

func TestNotifyRegimeDisabled(t *testing.T) {
	n := NewNotifier("", "")
	if err := n.NotifyRegime(context.Background(), "<b>Regime</b>"); err != nil {
		t.Fatalf("disabled notify should succeed: %v", err)
	}
}

func TestNilNotifierIsDisabled(t *testing.T) {
	var n *Notifier
	if n.Enabled() {
		t.Fatal("expected nil notifier to be disabled")
	}
	if err := n.Send(context.Background(), "x"); err != nil {
		t.Fatalf("nil notifier send should succeed: %v", err)
	}
}

func TestNotifyRegimeSendsHTML(t *testing.T) {
	var receivedText, parseMode string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedText = r.URL.Query().Get("text")
		parseMode = r.URL.Query().Get("parse_mode")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(map[string]bool{"ok": true}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	n := newTestNotifier(server.URL, server.Client())
	if err := n.NotifyRegime(context.Background(), "<b>Macro Regime</b>"); err != nil {
		t.Fatalf("notify regime: %v", err)
	}
	if receivedText != "<b>Macro Regime</b>" {
		t.Errorf("expected digest text, got %q", receivedText)
	}
	if parseMode != "HTML" {
		t.Errorf("expected parse_mode=HTML, got %q", parseMode)
	}
}

func TestNotifyParseFailureEscapes(t *testing.T) {
	var receivedText string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedText = r.URL.Query().Get("text")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := newTestNotifier(server.URL, server.Client())
	if err := n.NotifyParseFailure(context.Background(), "run-1", "unexpected <eof>"); err != nil {
		t.Fatalf("notify failure: %v", err)
	}
	if !strings.Contains(receivedText, "unexpected &lt;eof&gt;") {
		t.Errorf("expected escaped reason, got %q", receivedText)
	}
	if !strings.Contains(receivedText, "<code>run-1</code>") {
		t.Errorf("expected run id, got %q", receivedText)
	}
}
