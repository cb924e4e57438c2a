package model

// Department is a routing catalog entry. AllowedDocumentTypes holds free-text
// classification labels matched by case-insensitive substring in the rule
// engine. The catalog is administered outside this service and read-only here.
type Department struct {
	ID                   int      `json:"id"`
	Name                 string   `json:"name"`
	Description          string   `json:"description,omitempty"`
	AllowedDocumentTypes []string `json:"allowed_document_types"`
}
