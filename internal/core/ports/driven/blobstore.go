package driven

import (
	"context"
	"time"
)

// BlobStore is a flat object store holding dataset snapshots.
// Each backend (Azure, GCS, S3, local directory) implements this interface.
type BlobStore interface {
	// Upload copies the file at localPath into the store under name.
	// An empty name uses the base name of localPath.
	// Existing objects are overwritten.
	Upload(ctx context.Context, localPath, name string) error

	// List returns the names of all objects starting with prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// LastModified returns when the named object was last written.
	// Returns domain.ErrNotFound if the object does not exist.
	LastModified(ctx context.Context, name string) (time.Time, error)

	// Download returns the full content of the named object.
	// Returns domain.ErrNotFound if the object does not exist.
	Download(ctx context.Context, name string) ([]byte, error)

	// Close releases resources.
	Close() error
}
