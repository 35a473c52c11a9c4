// Package storage abstracts binary persistence for artwork images.
// Two implementations exist: LocalStore writes to a directory served as
// static files, MinioStore targets any S3-compatible object store.
package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ErrEmptyPayload is returned when an upload carries no bytes.
var ErrEmptyPayload = errors.New("empty payload")

// Locator is the stable reference returned by a BlobStore. Key identifies
// the object inside the backend (filename or object key); URL is the
// browser-accessible address resolved at store time.
type Locator struct {
	Key string
	URL string
}

// BlobStore is the interface the upload pipeline is written against.
type BlobStore interface {
	// Upload persists the content read from r under a backend-generated key.
	// size must be the exact byte count; originalName is used to preserve
	// the file extension.
	Upload(ctx context.Context, r io.Reader, size int64, originalName, contentType string) (Locator, error)
	// Delete removes the object identified by key. Callers treat failures
	// as warnings, never as operation failures.
	Delete(ctx context.Context, key string) error
	// URL constructs the browser-accessible URL for a given key.
	URL(key string) string
}

// uniqueName builds a collision-resistant object name from the current time
// and a random suffix, preserving the original extension. Concurrent uploads
// must never race on the same name; uniqueness here is a correctness
// requirement, not an optimization.
func uniqueName(originalName string) string {
	ext := filepath.Ext(originalName)
	return time.Now().UTC().Format("20060102150405") + "-" + uuid.NewString()[:8] + ext
}
