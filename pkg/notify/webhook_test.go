package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookSink_Send(t *testing.T) {
	var gotBody []byte
	var gotQuery, gotContentType string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		gotQuery = r.URL.RawQuery
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	sink := NewWebhookSink(ts.URL, time.Second, false)
	err := sink.Send(context.Background(), &Embed{Title: "hello", URL: "https://example.com", Color: 0x123456})
	require.NoError(t, err)

	assert.Equal(t, "wait=true", gotQuery)
	assert.Equal(t, "application/json", gotContentType)

	var payload struct {
		Embeds []Embed `json:"embeds"`
	}
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	require.Len(t, payload.Embeds, 1)
	assert.Equal(t, "hello", payload.Embeds[0].Title)
	assert.Equal(t, 0x123456, payload.Embeds[0].Color)
}

func TestWebhookSink_SendFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"message": "rate limited"}`))
	}))
	defer ts.Close()

	sink := NewWebhookSink(ts.URL, time.Second, false)
	err := sink.Send(context.Background(), &Embed{Title: "hello"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "rate limited")
}

func TestWebhookSink_DryRun(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { calls++ }))
	defer ts.Close()

	sink := NewWebhookSink(ts.URL, time.Second, true)
	require.NoError(t, sink.Send(context.Background(), &Embed{Title: "hello"}))
	assert.Zero(t, calls, "dry-run must not hit the webhook")
}
