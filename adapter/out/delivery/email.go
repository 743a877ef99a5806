// Package delivery implements the outbound e-mail and chat transports
// (§9), each wrapped in its own circuit breaker the way the pack's Gmail
// adapter wraps its Google API calls.
package delivery

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"newsroom/pkg/apperr"
	"newsroom/pkg/logger"
)

const resendAPIURL = "https://api.resend.com/emails"

// EmailConfig holds the Resend transport's settings, sourced from MAIL_*
// env vars (§6).
type EmailConfig struct {
	APIKey   string
	From     string
	PlainOnly bool
}

// EmailAdapter sends a digest through the Resend HTTP API. Grounded on the
// original mail_deliver.py, which settled on Resend as its sole transport.
type EmailAdapter struct {
	cfg    EmailConfig
	client *http.Client
	cb     *gobreaker.CircuitBreaker
	log    *logger.Logger
}

// NewEmailAdapter builds an EmailAdapter.
func NewEmailAdapter(cfg EmailConfig) *EmailAdapter {
	cbSettings := gobreaker.Settings{
		Name:        "resend-email",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithField("breaker", name).WithField("from", from.String()).
				WithField("to", to.String()).Warn("circuit breaker state change")
		},
	}
	return &EmailAdapter{
		cfg:    cfg,
		client: &http.Client{Timeout: 20 * time.Second},
		cb:     gobreaker.NewCircuitBreaker(cbSettings),
		log:    logger.WithField("component", "email-adapter"),
	}
}

type resendRequest struct {
	From    string            `json:"from"`
	To      []string          `json:"to"`
	Subject string            `json:"subject"`
	HTML    string            `json:"html,omitempty"`
	Text    string            `json:"text,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

type resendResponse struct {
	ID string `json:"id"`
}

// SendHTML sends a digest as an HTML e-mail with a plain-text fallback
// part, unless MAIL_PLAIN_ONLY is set, in which case only the plain part
// is sent (§4.5).
func (a *EmailAdapter) SendHTML(ctx context.Context, to, subject, html, plainTextFallback string) error {
	payload := resendRequest{
		From:    a.cfg.From,
		To:      []string{to},
		Subject: subject,
		Text:    plainTextFallback,
	}
	if !a.cfg.PlainOnly {
		payload.HTML = html
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return apperr.Delivery("email", fmt.Errorf("encode request: %w", err))
	}

	// Each SendHTML call generates its own idempotency key, so separate
	// calls (including a second send of the same digest) carry distinct keys
	// and Resend does not deduplicate them.
	idempotencyKey := uuid.NewString()
	result, err := a.cb.Execute(func() (interface{}, error) {
		return a.post(ctx, body, idempotencyKey)
	})
	if err != nil {
		a.log.WithField("to", to).WithError(err).WithField("state", a.cb.State().String()).
			Error("email send failed")
		return apperr.Delivery("email", err)
	}

	resp := result.(resendResponse)
	a.log.WithField("to", to).WithField("message_id", resp.ID).Info("email sent")
	return nil
}

func (a *EmailAdapter) post(ctx context.Context, body []byte, idempotencyKey string) (resendResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, resendAPIURL, bytes.NewReader(body))
	if err != nil {
		return resendResponse{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", idempotencyKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return resendResponse{}, fmt.Errorf("call resend: %w", err)
	}
	defer resp.Body.Close()

	var out resendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if resp.StatusCode >= 400 {
			return resendResponse{}, fmt.Errorf("resend http %d", resp.StatusCode)
		}
		return resendResponse{}, fmt.Errorf("decode resend response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return resendResponse{}, fmt.Errorf("resend http %d", resp.StatusCode)
	}
	return out, nil
}
