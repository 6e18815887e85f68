// Package blob defines the blob-store collaborator used for document bytes.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Get for unknown keys.
var ErrNotFound = errors.New("blob not found")

// Store persists raw file bytes under opaque keys. Implementations must be
// safe for concurrent use; operations may stream for an unbounded time and
// must not be called while holding entity-level locks.
type Store interface {
	// Put stores the content and returns the generated storage key.
	Put(ctx context.Context, r io.Reader, size int64, contentType string) (string, error)
	// Get returns a reader over the stored content. The caller closes it.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the content. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// NewStorageKey returns a date-prefixed random object key.
func NewStorageKey() string {
	d := time.Now()
	return fmt.Sprintf("documents/%d/%02d/%02d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}
