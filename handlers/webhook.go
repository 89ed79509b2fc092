package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/xraph/lanes/job"
)

// WebhookType is the job type handled by Webhook.
const WebhookType = "webhook.deliver"

// Signature headers set on every delivery.
const (
	HeaderTimestamp = "X-Lanes-Timestamp"
	HeaderSignature = "X-Lanes-Signature"
	HeaderEvent     = "X-Lanes-Event"
)

// WebhookPayload is the payload of a webhook.deliver job.
type WebhookPayload struct {
	URL     string            `json:"url"`
	Event   string            `json:"event,omitempty"`
	Body    json.RawMessage   `json:"body"`
	Headers map[string]string `json:"headers,omitempty"`
}

// deniedHeaders are headers a payload must not override.
var deniedHeaders = map[string]bool{
	"host":              true,
	"content-type":      true,
	"content-length":    true,
	"transfer-encoding": true,
	"connection":        true,
	"x-lanes-timestamp": true,
	"x-lanes-signature": true,
	"x-lanes-event":     true,
}

// Webhook POSTs JSON bodies signed with HMAC-SHA256.
type Webhook struct {
	client *http.Client
	secret string
	now    func() time.Time
}

// WebhookOption configures a Webhook.
type WebhookOption func(*Webhook)

// WithHTTPClient sets the client used for deliveries.
func WithHTTPClient(c *http.Client) WebhookOption {
	return func(w *Webhook) { w.client = c }
}

// WithWebhookClock overrides the signing timestamp source.
func WithWebhookClock(now func() time.Time) WebhookOption {
	return func(w *Webhook) { w.now = now }
}

// NewWebhook creates a webhook handler signing with secret. An empty
// secret disables signing.
func NewWebhook(secret string, opts ...WebhookOption) *Webhook {
	w := &Webhook{
		client: &http.Client{Timeout: 10 * time.Second},
		secret: secret,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Definition returns the typed job definition for webhook.deliver.
func (w *Webhook) Definition(opts ...job.Option) *job.Definition[WebhookPayload] {
	return job.NewDefinition(WebhookType, w.Deliver, opts...)
}

// Deliver performs one delivery attempt. Any non-2xx response is an error
// so the job is retried.
func (w *Webhook) Deliver(ctx context.Context, p WebhookPayload) error {
	if p.URL == "" {
		return errors.New("webhook: url is required")
	}
	body := []byte(p.Body)
	if len(body) == 0 {
		body = []byte("null")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range p.Headers {
		if !deniedHeaders[strings.ToLower(k)] {
			req.Header.Set(k, v)
		}
	}
	if p.Event != "" {
		req.Header.Set(HeaderEvent, p.Event)
	}
	if w.secret != "" {
		ts := strconv.FormatInt(w.now().Unix(), 10)
		req.Header.Set(HeaderTimestamp, ts)
		req.Header.Set(HeaderSignature, Sign(w.secret, ts, body))
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: POST %s: %w", p.URL, err)
	}
	defer resp.Body.Close()
	// Drain a bounded amount so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook: POST %s: unexpected status %d", p.URL, resp.StatusCode)
	}
	return nil
}

// Sign returns "sha256=<hex>" over "timestamp.body".
func Sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a signature produced by Sign.
func Verify(secret, timestamp string, body []byte, signature string) bool {
	return hmac.Equal([]byte(Sign(secret, timestamp, body)), []byte(signature))
}
