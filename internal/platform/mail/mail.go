// Package mail delivers transactional email. Delivery failure is signaled
// through the returned error and never panics; callers decide whether a
// failed send aborts their operation.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Sender sends a single plain-text message.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// MailjetSender delivers through the Mailjet v3.1 send API.
type MailjetSender struct {
	apiKey    string
	apiSecret string
	fromEmail string
	fromName  string
	client    *http.Client
	endpoint  string
}

const mailjetEndpoint = "https://api.mailjet.com/v3.1/send"

func NewMailjetSender(apiKey, apiSecret, fromEmail, fromName string) *MailjetSender {
	return &MailjetSender{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		fromEmail: fromEmail,
		fromName:  fromName,
		client:    &http.Client{Timeout: 15 * time.Second},
		endpoint:  mailjetEndpoint,
	}
}

type mailjetMessage struct {
	From     mailjetAddress   `json:"From"`
	To       []mailjetAddress `json:"To"`
	Subject  string           `json:"Subject"`
	TextPart string           `json:"TextPart"`
}

type mailjetAddress struct {
	Email string `json:"Email"`
	Name  string `json:"Name,omitempty"`
}

type mailjetPayload struct {
	Messages []mailjetMessage `json:"Messages"`
}

func (s *MailjetSender) Send(ctx context.Context, to, subject, body string) error {
	payload := mailjetPayload{
		Messages: []mailjetMessage{{
			From:     mailjetAddress{Email: s.fromEmail, Name: s.fromName},
			To:       []mailjetAddress{{Email: to}},
			Subject:  subject,
			TextPart: body,
		}},
	}

	buf, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal mailjet payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("build mailjet request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(s.apiKey, s.apiSecret)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", s.endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("mailjet returned status %d: %s", resp.StatusCode, detail)
	}
	return nil
}

// LogSender writes messages to the log instead of delivering them. Used in
// development so registration flows work without mail credentials.
type LogSender struct {
	logger zerolog.Logger
}

func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, to, subject, body string) error {
	s.logger.Info().
		Str("to", to).
		Str("subject", subject).
		Str("body", body).
		Msg("mail (dev sender, not delivered)")
	return nil
}
