package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"path"
	"strings"
	"time"
)

// ErrMigrationFailed signals that an object could not be relocated. The
// source object is left intact; callers must not commit the new key.
var ErrMigrationFailed = errors.New("storage migration failed")

// Migrator relocates an object to the folder chosen by a routing decision.
// A migration is copy -> delete-old; the copy is the commit point. A failed
// delete-after-copy leaves an orphan object behind, which is logged and
// reported as success with the new key authoritative.
type Migrator struct {
	store   Storage
	timeout time.Duration
}

// NewMigrator constructs a Migrator. timeout bounds a single copy+delete
// cycle so a stalled store connection surfaces as ErrMigrationFailed instead
// of hanging the caller's critical section.
func NewMigrator(store Storage, timeout time.Duration) *Migrator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Migrator{store: store, timeout: timeout}
}

// Migrate moves the object at oldKey into targetFolder, keeping its basename.
// It is idempotent: when the object already lives under targetFolder the call
// is a no-op and no store operation is issued, which makes duplicate callback
// delivery safe.
func (m *Migrator) Migrate(ctx context.Context, oldKey, targetFolder string) (string, error) {
	if oldKey == "" || targetFolder == "" {
		return "", fmt.Errorf("%w: old key and target folder are required", ErrMigrationFailed)
	}

	newKey := targetFolder + path.Base(oldKey)
	if newKey == oldKey || strings.HasPrefix(oldKey, targetFolder) {
		return oldKey, nil
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if err := m.store.Copy(ctx, oldKey, newKey); err != nil {
		return "", fmt.Errorf("%w: copy %s to %s: %v", ErrMigrationFailed, oldKey, newKey, err)
	}

	if err := m.store.Delete(ctx, oldKey); err != nil {
		// Copy already succeeded, so newKey is authoritative. The stale
		// source object is an orphan, not data loss.
		logJSON(map[string]any{
			"component": "storage",
			"event":     "migrate_orphan_object",
			"level":     "warn",
			"old_key":   oldKey,
			"new_key":   newKey,
			"error":     err.Error(),
		})
	}

	return newKey, nil
}

func logJSON(data map[string]any) {
	data["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		data["level"] = "info"
	}
	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal storage log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
