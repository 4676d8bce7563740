package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const resendURL = "https://api.resend.com/emails"

// Resend delivers digests as HTML e-mail through the Resend API.
type Resend struct {
	client  *http.Client
	apiKey  string
	from    string
	baseURL string
}

// NewResend creates a Resend e-mail notifier. An empty baseURL uses the
// public endpoint.
func NewResend(apiKey, from, baseURL string) *Resend {
	if baseURL == "" {
		baseURL = resendURL
	}
	return &Resend{
		client:  &http.Client{Timeout: 15 * time.Second},
		apiKey:  apiKey,
		from:    from,
		baseURL: baseURL,
	}
}

func (r *Resend) Name() string { return "email" }

type resendEmail struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (r *Resend) Send(ctx context.Context, d *Digest) error {
	if len(d.Recipients) == 0 {
		return errors.New("no recipients")
	}

	body, err := RenderHTML(d)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(resendEmail{
		From:    r.from,
		To:      d.Recipients,
		Subject: d.Subject,
		HTML:    body,
	})
	if err != nil {
		return fmt.Errorf("marshal resend payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create resend request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("send resend email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("resend status %d", resp.StatusCode)
	}
	return nil
}
