package mail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func TestMailjetSender(t *testing.T) {
	var got mailjetPayload
	var user, pass string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, _ = r.BasicAuth()
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewMailjetSender("key", "secret", "no-reply@clinic.example", "Clinic")
	s.endpoint = srv.URL

	err := s.Send(context.Background(), "ann@example.com", "Your verification code", "Code: 123456")
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if user != "key" || pass != "secret" {
		t.Errorf("basic auth %q/%q", user, pass)
	}
	if len(got.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(got.Messages))
	}
	msg := got.Messages[0]
	if msg.From.Email != "no-reply@clinic.example" || msg.From.Name != "Clinic" {
		t.Errorf("from %+v", msg.From)
	}
	if len(msg.To) != 1 || msg.To[0].Email != "ann@example.com" {
		t.Errorf("to %+v", msg.To)
	}
	if msg.Subject != "Your verification code" || msg.TextPart != "Code: 123456" {
		t.Errorf("content %+v", msg)
	}
}

func TestMailjetSender_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ErrorMessage":"invalid key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := NewMailjetSender("bad", "creds", "no-reply@clinic.example", "Clinic")
	s.endpoint = srv.URL

	if err := s.Send(context.Background(), "ann@example.com", "subject", "body"); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}

func TestLogSender(t *testing.T) {
	s := NewLogSender(zerolog.Nop())
	if err := s.Send(context.Background(), "ann@example.com", "subject", "body"); err != nil {
		t.Fatalf("log sender must never fail: %v", err)
	}
}
