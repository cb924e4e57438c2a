package model

import "time"

// Lifecycle states of a document. Transitions are monotonic:
// UPLOADING -> PENDING -> PROCESSING -> PROCESSED | ERROR.
// UPLOADING rows with no follow-up event are abandoned intents and are
// garbage-collected out of band.
const (
	StatusUploading  = "UPLOADING"
	StatusPending    = "PENDING"
	StatusProcessing = "PROCESSING"
	StatusProcessed  = "PROCESSED"
	StatusError      = "ERROR"
)

// Sharing scope sentinel values. Any other value is a department name.
const (
	ScopePrivate = "NONE"
	ScopePublic  = "PUBLIC"
)

// Document represents a registered file and its routing metadata.
// This is a pure domain model with no database-specific dependencies or tags.
// StorageKey is authoritative: it must always name the object actually present
// in the object store for this document.
type Document struct {
	ID             string     `json:"id"`
	Filename       string     `json:"filename"`
	StorageKey     string     `json:"storage_key"`
	FileType       string     `json:"filetype"`
	Status         string     `json:"status"`
	OwnerEmail     string     `json:"uploaded_by_email,omitempty"`
	SharedScope    string     `json:"shared_department"`
	Classification *string    `json:"classification,omitempty"`
	HasPII         *bool      `json:"has_pii,omitempty"`
	ErrorReason    *string    `json:"error_reason,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	ProcessedAt    *time.Time `json:"processed_at,omitempty"`
}

// IsTerminal reports whether the document reached a terminal processing state.
func (d *Document) IsTerminal() bool {
	return d.Status == StatusProcessed || d.Status == StatusError
}
