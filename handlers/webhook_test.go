package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/lanes/handlers"
)

func TestWebhookDeliverSignsBody(t *testing.T) {
	fixed := time.Unix(1_700_000_000, 0)

	var (
		gotBody []byte
		gotHdr  http.Header
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotHdr = r.Header.Clone()
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	wh := handlers.NewWebhook("topsecret", handlers.WithWebhookClock(func() time.Time { return fixed }))
	err := wh.Deliver(context.Background(), handlers.WebhookPayload{
		URL:   srv.URL,
		Event: "invoice.paid",
		Body:  json.RawMessage(`{"invoice":42}`),
		Headers: map[string]string{
			"X-Tenant":          "acme",
			"X-Lanes-Signature": "forged",
		},
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{"invoice":42}`, string(gotBody))
	assert.Equal(t, "application/json", gotHdr.Get("Content-Type"))
	assert.Equal(t, "acme", gotHdr.Get("X-Tenant"))
	assert.Equal(t, "invoice.paid", gotHdr.Get(handlers.HeaderEvent))
	assert.Equal(t, "1700000000", gotHdr.Get(handlers.HeaderTimestamp))

	sig := gotHdr.Get(handlers.HeaderSignature)
	assert.NotEqual(t, "forged", sig)
	assert.True(t, handlers.Verify("topsecret", "1700000000", gotBody, sig))
	assert.False(t, handlers.Verify("other", "1700000000", gotBody, sig))
}

func TestWebhookUnsignedWithoutSecret(t *testing.T) {
	var hdr http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hdr = r.Header.Clone()
	}))
	defer srv.Close()

	require.NoError(t, handlers.NewWebhook("").Deliver(context.Background(), handlers.WebhookPayload{URL: srv.URL}))
	assert.Empty(t, hdr.Get(handlers.HeaderSignature))
}

func TestWebhookNon2xxFails(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := handlers.NewWebhook("s").Deliver(context.Background(), handlers.WebhookPayload{URL: srv.URL})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Equal(t, int32(1), calls.Load())
}

func TestWebhookRequiresURL(t *testing.T) {
	assert.Error(t, handlers.NewWebhook("s").Deliver(context.Background(), handlers.WebhookPayload{}))
}

func TestWebhookDefinition(t *testing.T) {
	def := handlers.NewWebhook("s").Definition()
	assert.Equal(t, handlers.WebhookType, def.Name)
	assert.NotNil(t, def.Handler)
}

func TestSignIsDeterministic(t *testing.T) {
	a := handlers.Sign("k", "1", []byte("body"))
	assert.Equal(t, a, handlers.Sign("k", "1", []byte("body")))
	assert.NotEqual(t, a, handlers.Sign("k", "2", []byte("body")))
	assert.Regexp(t, `^sha256=[0-9a-f]{64}$`, a)
}
