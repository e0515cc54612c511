package telegram

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDeleteWebhookSendsDropFlag(t *testing.T) {
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		_, _ = w.Write([]byte(`{"ok":true,"result":true}`))
	}))
	defer srv.Close()

	if err := deleteWebhook(context.Background(), srv.Client(), srv.URL, "123:abc", true); err != nil {
		t.Fatalf("deleteWebhook: %v", err)
	}
	if gotPath != "/bot123:abc/deleteWebhook" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotBody != "drop_pending_updates=true" {
		t.Fatalf("unexpected body %q", gotBody)
	}
}

func TestDeleteWebhookStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	if err := deleteWebhook(context.Background(), srv.Client(), srv.URL, "123:abc", false); err == nil {
		t.Fatal("expected error on non-200 status")
	}
	if err := deleteWebhook(context.Background(), nil, srv.URL, " ", false); err == nil {
		t.Fatal("expected error on empty token")
	}
}

func TestPollClientTimeoutExceedsPollWindow(t *testing.T) {
	if got := pollClientTimeout(0); got <= defaultLongPollSeconds*time.Second {
		t.Fatalf("timeout %v must exceed the default poll window", got)
	}
	if got := pollClientTimeout(50); got <= 50*time.Second {
		t.Fatalf("timeout %v must exceed the poll window", got)
	}
}
