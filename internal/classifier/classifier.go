package classifier

import (
	"context"
	"errors"
)

// Package classifier holds the outbound contract with the external
// classifier/OCR worker. The worker is an opaque actor: this service POSTs a
// read capability and the worker eventually calls back over HTTP with a
// classification result.

// ErrNotConfigured is returned when no webhook URL is configured. Dispatch
// failures are non-fatal to upload completion, so callers log and move on.
var ErrNotConfigured = errors.New("classifier webhook is not configured")

// DispatchRequest is the payload sent to the worker. ReadURL is a
// time-limited capability granting read access to exactly one object.
type DispatchRequest struct {
	DocumentID string `json:"document_id"`
	ReadURL    string `json:"temp_read_url"`
	FileType   string `json:"filetype"`
}

// CallbackPayload is the inbound result posted by the worker.
type CallbackPayload struct {
	DocumentID     string           `json:"document_id"`
	Classification string           `json:"classification,omitempty"`
	PrivacyReport  *PrivacyAnalysis `json:"gdpr_analysis,omitempty"`
	Success        bool             `json:"success"`
	ErrorReason    string           `json:"error_reason,omitempty"`
}

// PrivacyAnalysis flags content that contains personally identifiable
// information and must therefore be routed to restricted storage.
type PrivacyAnalysis struct {
	HasPII bool `json:"has_pii"`
}

// Dispatcher sends work to the classifier worker.
type Dispatcher interface {
	Dispatch(ctx context.Context, req DispatchRequest) error
}
