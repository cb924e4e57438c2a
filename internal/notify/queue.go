package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"docflow/internal/config"
)

// Queue carries routed-document events over NATS. Delivery is best-effort:
// core NATS drops messages published while no subscriber is attached, so an
// event can be lost across a worker restart. Notifications are advisory and
// the registry stays the source of truth, so a lost event is acceptable.
type Queue struct {
	conn    *nats.Conn
	subject string
}

// NewQueue connects to NATS. The connection retries in the background so the
// service can start before the broker.
func NewQueue(cfg config.NATSConfig) (*Queue, error) {
	conn, err := nats.Connect(
		cfg.URL,
		nats.Name("docflow"),
		nats.Timeout(2*time.Second),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(60),
		nats.RetryOnFailedConnect(true),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logJSON(map[string]any{
				"component": "notify",
				"event":     "nats_disconnected",
				"level":     "warn",
				"error":     fmt.Sprint(err),
			})
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logJSON(map[string]any{
				"component": "notify",
				"event":     "nats_reconnected",
				"url":       nc.ConnectedUrl(),
			})
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{conn: conn, subject: cfg.Subject}, nil
}

// Close drains the connection.
func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

var _ Publisher = (*Queue)(nil)

// PublishDocumentRouted submits a routed-document event for fan-out.
func (q *Queue) PublishDocumentRouted(_ context.Context, ev RoutedEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal routed event: %w", err)
	}
	if err := q.conn.Publish(q.subject, payload); err != nil {
		return fmt.Errorf("nats publish: %w", err)
	}
	return nil
}

// SubscribeDocumentRouted consumes routed-document events as part of the
// "notifiers" queue group and hands them to handler. It blocks until ctx is
// cancelled, then drains the subscription.
func (q *Queue) SubscribeDocumentRouted(ctx context.Context, handler func(context.Context, RoutedEvent) error) error {
	sub, err := q.conn.QueueSubscribe(q.subject, "notifiers", func(msg *nats.Msg) {
		if ctx.Err() != nil {
			return
		}

		var ev RoutedEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			logJSON(map[string]any{
				"component": "notify",
				"event":     "routed_event_decode_failed",
				"level":     "error",
				"error":     err.Error(),
			})
			return
		}
		if err := handler(ctx, ev); err != nil {
			logJSON(map[string]any{
				"component":   "notify",
				"event":       "routed_event_handler_failed",
				"level":       "error",
				"document_id": ev.DocumentID,
				"error":       err.Error(),
			})
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	return nil
}
