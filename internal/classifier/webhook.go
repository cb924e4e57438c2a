package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"docflow/internal/config"
)

// WebhookDispatcher posts dispatch requests to the classifier's webhook URL.
// Requests are wrapped in a circuit breaker so a dead worker endpoint fails
// fast instead of tying up request goroutines for the full timeout on every
// upload.
type WebhookDispatcher struct {
	url     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[any]
}

// NewWebhookDispatcher constructs a dispatcher from config. The HTTP client
// carries an OpenTelemetry transport so outbound calls show up in traces.
func NewWebhookDispatcher(cfg config.ClassifierConfig) *WebhookDispatcher {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:    "classifier-webhook",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &WebhookDispatcher{
		url: cfg.WebhookURL,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: breaker,
	}
}

var _ Dispatcher = (*WebhookDispatcher)(nil)

// Dispatch posts the request to the worker webhook. A non-2xx response is an
// error; the worker acknowledges receipt only, results arrive via callback.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, req DispatchRequest) error {
	if d.url == "" {
		return ErrNotConfigured
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal dispatch request: %w", err)
	}

	_, err = d.breaker.Execute(func() (any, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("build dispatch request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := d.client.Do(httpReq)
		if err != nil {
			return nil, fmt.Errorf("post to classifier: %w", err)
		}
		defer func() {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("classifier webhook returned status %d", resp.StatusCode)
		}
		return nil, nil
	})
	return err
}
