package storage

import (
	"context"
	"net/url"
	"time"
)

// Package storage contains object storage abstractions for S3-compatible
// stores, plus the migrator that relocates objects when a routing decision
// changes a document's target folder. Object content never flows through the
// service: clients and the classifier worker read and write through presigned
// URLs, so the interface exposes capability minting and server-side
// operations only.

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is a reusable, S3-compatible object storage client interface.
type Storage interface {
	// Stat returns object info without fetching content. Missing objects are
	// reported with an error satisfying IsNotExist.
	Stat(ctx context.Context, key string) (ObjectInfo, error)
	// Copy duplicates the object at srcKey under dstKey within the bucket.
	Copy(ctx context.Context, srcKey, dstKey string) error
	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time-limited URL that can be used to download the
	// object without credentials. respHeaders, when non-nil, carries
	// response-header overrides (e.g. response-content-disposition).
	PresignGet(ctx context.Context, key string, expiry time.Duration, respHeaders url.Values) (string, error)
	// PresignPut returns a time-limited URL granting a single-key upload
	// capability without credentials.
	PresignPut(ctx context.Context, key string, contentType string, expiry time.Duration) (string, error)
}
