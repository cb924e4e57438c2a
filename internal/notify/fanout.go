package notify

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"docflow/internal/model"
	"docflow/internal/repository"
)

// DocumentProcessedEvent is the live event name pushed to connected clients.
const DocumentProcessedEvent = "document:processed"

// Fanout resolves a sharing scope to an audience and delivers notifications.
// Email is best-effort per recipient; the live broadcast always happens.
type Fanout struct {
	users  repository.UserRepository
	mailer Mailer
	hub    *Hub

	sent *prometheus.CounterVec
}

// NewFanout constructs a Fanout and registers its metrics with reg.
func NewFanout(users repository.UserRepository, mailer Mailer, hub *Hub, reg prometheus.Registerer) (*Fanout, error) {
	sent := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total notification email attempts by outcome.",
		},
		[]string{"outcome"},
	)
	if reg != nil {
		if err := reg.Register(sent); err != nil {
			return nil, err
		}
	}
	return &Fanout{users: users, mailer: mailer, hub: hub, sent: sent}, nil
}

// Handle delivers one routed-document event. An empty audience (private
// scope) produces no email; the live event is broadcast regardless.
func (f *Fanout) Handle(ctx context.Context, ev RoutedEvent) error {
	defer f.broadcast(ev)

	recipients, err := f.resolveAudience(ctx, ev.Scope)
	if err != nil {
		return fmt.Errorf("resolve audience for scope %q: %w", ev.Scope, err)
	}
	if len(recipients) == 0 {
		return nil
	}

	subject := fmt.Sprintf("Document available: %s", ev.Filename)
	body := fmt.Sprintf(
		"The document %q was classified as %q and shared with %s.\nUploaded by: %s\n",
		ev.Filename, ev.Classification, ev.Scope, ev.OwnerEmail,
	)

	for _, rcpt := range recipients {
		if err := f.mailer.Send(ctx, rcpt, subject, body); err != nil {
			f.sent.WithLabelValues("error").Inc()
			logJSON(map[string]any{
				"component":   "notify",
				"event":       "notification_send_failed",
				"level":       "warn",
				"document_id": ev.DocumentID,
				"recipient":   rcpt,
				"error":       err.Error(),
			})
			continue
		}
		f.sent.WithLabelValues("ok").Inc()
	}
	return nil
}

func (f *Fanout) resolveAudience(ctx context.Context, scope string) ([]string, error) {
	switch scope {
	case model.ScopePrivate, "":
		return nil, nil
	case model.ScopePublic:
		return f.users.ListAllEmails(ctx)
	default:
		return f.users.ListEmailsByDepartment(ctx, scope)
	}
}

func (f *Fanout) broadcast(ev RoutedEvent) {
	if f.hub == nil {
		return
	}
	f.hub.Broadcast(DocumentProcessedEvent, ev)
}
