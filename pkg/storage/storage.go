package storage

import (
	"context"
	"io"
)

// Storage is an object store used to archive original uploads. Archival is
// best-effort; the pipeline never depends on it.
type Storage interface {
	// Store writes the object and returns its key.
	Store(ctx context.Context, reader io.Reader, key string) (string, error)
	// Get retrieves an object by key.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error
}
