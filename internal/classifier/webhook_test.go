package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docflow/internal/config"
)

func TestWebhookDispatcher_Dispatch(t *testing.T) {
	var received DispatchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewWebhookDispatcher(config.ClassifierConfig{
		WebhookURL:     srv.URL,
		RequestTimeout: 2 * time.Second,
	})

	req := DispatchRequest{
		DocumentID: "doc-1",
		ReadURL:    "http://store.local/presigned",
		FileType:   "application/pdf",
	}
	err := d.Dispatch(context.Background(), req)

	assert.NoError(t, err)
	assert.Equal(t, req, received)
}

func TestWebhookDispatcher_DispatchErrors(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		d := NewWebhookDispatcher(config.ClassifierConfig{})
		err := d.Dispatch(context.Background(), DispatchRequest{DocumentID: "doc-1"})
		assert.ErrorIs(t, err, ErrNotConfigured)
	})

	t.Run("non-2xx response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		d := NewWebhookDispatcher(config.ClassifierConfig{WebhookURL: srv.URL, RequestTimeout: time.Second})
		err := d.Dispatch(context.Background(), DispatchRequest{DocumentID: "doc-1"})
		assert.Error(t, err)
	})

	t.Run("breaker opens after consecutive failures", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		d := NewWebhookDispatcher(config.ClassifierConfig{WebhookURL: srv.URL, RequestTimeout: time.Second})
		for i := 0; i < 5; i++ {
			assert.Error(t, d.Dispatch(context.Background(), DispatchRequest{DocumentID: "doc-1"}))
		}
		// Breaker is now open: the request fails without reaching the server.
		err := d.Dispatch(context.Background(), DispatchRequest{DocumentID: "doc-1"})
		assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	})
}
