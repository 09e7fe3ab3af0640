package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestTelegramSendRendersEventBadge(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/bottok/sendMessage") {
			t.Errorf("path = %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := &TelegramSender{
		apiBase: srv.URL,
		token:   "tok",
		chatID:  "42",
		client:  &http.Client{Timeout: time.Second},
	}
	if err := s.Send(context.Background(), EventUpstreamDown, "Trending refresh failing", "details"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if got["chat_id"] != "42" {
		t.Errorf("chat_id = %q", got["chat_id"])
	}
	if !strings.HasPrefix(got["text"], eventBadge(EventUpstreamDown)) {
		t.Errorf("text missing event badge: %q", got["text"])
	}
	if !strings.Contains(got["text"], "*Trending refresh failing*") {
		t.Errorf("title not bold: %q", got["text"])
	}
}

func TestDiscordSendColorsByEvent(t *testing.T) {
	var got struct {
		Embeds []struct {
			Title string `json:"title"`
			Color int    `json:"color"`
		} `json:"embeds"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s := NewDiscordSender(srv.URL)
	if err := s.Send(context.Background(), EventHealthDegraded, "Pool health degraded", "details"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if len(got.Embeds) != 1 {
		t.Fatalf("embeds = %d", len(got.Embeds))
	}
	if got.Embeds[0].Color != colorDegraded {
		t.Errorf("color = %#x, want %#x", got.Embeds[0].Color, colorDegraded)
	}
	if !strings.Contains(got.Embeds[0].Title, "Pool health degraded") {
		t.Errorf("title = %q", got.Embeds[0].Title)
	}
}

func TestDiscordSendErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad webhook", http.StatusBadRequest)
	}))
	defer srv.Close()

	s := NewDiscordSender(srv.URL)
	err := s.Send(context.Background(), EventUpstreamDown, "t", "m")
	if err == nil {
		t.Fatal("expected error on 400")
	}
	if !strings.Contains(err.Error(), "400") {
		t.Errorf("error = %v", err)
	}
}
