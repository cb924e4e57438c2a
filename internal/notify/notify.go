package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

// Package notify implements the asynchronous fan-out of lifecycle events:
// best-effort email to the audience of a sharing scope plus an unconditional
// live event for connected clients. Fan-out is decoupled from the request
// path through a queue; a failure here can never roll back a lifecycle
// transition.

// RoutedEvent is published after a document reaches PROCESSED. It carries
// everything the fan-out worker needs so it never reads the registry.
type RoutedEvent struct {
	DocumentID     string    `json:"document_id"`
	Filename       string    `json:"filename"`
	Classification string    `json:"classification"`
	Scope          string    `json:"scope"`
	StorageKey     string    `json:"storage_key"`
	OwnerEmail     string    `json:"owner_email"`
	ProcessedAt    time.Time `json:"processed_at"`
}

// Publisher submits routed-document events for asynchronous, best-effort
// delivery. Events carry no state of record and may be lost.
type Publisher interface {
	PublishDocumentRouted(ctx context.Context, ev RoutedEvent) error
}

// Mailer is the outbound email transport. Delivery is best-effort; callers
// log failures and never surface them to the triggering request.
type Mailer interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

func logJSON(data map[string]any) {
	data["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		data["level"] = "info"
	}
	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal notify log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
