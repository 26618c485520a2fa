// Package gcs provides a Google Cloud Storage backed snapshot store.
package gcs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	storage "google.golang.org/api/storage/v1"

	"github.com/custodia-labs/grantsync/internal/core/domain"
	"github.com/custodia-labs/grantsync/internal/core/ports/driven"
)

// Config holds configuration for the GCS snapshot store.
type Config struct {
	// Bucket is the GCS bucket name.
	Bucket string

	// CredentialsFile is a service account key file. When empty,
	// application default credentials are used.
	CredentialsFile string

	// Endpoint overrides the JSON API base path, e.g. for an emulator.
	// Requests to a custom endpoint are sent unauthenticated.
	Endpoint string
}

// Store is a GCS-backed implementation of driven.BlobStore.
type Store struct {
	svc    *storage.Service
	bucket string
	closed bool
	mu     sync.RWMutex
}

// New creates a store around an existing storage service.
func New(svc *storage.Service, config Config) *Store {
	return &Store{
		svc:    svc,
		bucket: config.Bucket,
	}
}

// NewFromConfig creates a storage service from config.
func NewFromConfig(ctx context.Context, config Config) (*Store, error) {
	if config.Bucket == "" {
		return nil, fmt.Errorf("%w: gcs bucket is required", domain.ErrInvalidInput)
	}

	opts := []option.ClientOption{option.WithScopes(storage.DevstorageReadWriteScope)}
	switch {
	case config.Endpoint != "":
		opts = append(opts, option.WithEndpoint(config.Endpoint), option.WithoutAuthentication())
	case config.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(config.CredentialsFile)) //nolint:staticcheck // key files are the documented setup
	}

	svc, err := storage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs service: %w", err)
	}

	return New(svc, config), nil
}

func (s *Store) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.ErrStoreClosed
	}
	return nil
}

// Upload inserts the local file at localPath under name.
func (s *Store) Upload(ctx context.Context, localPath, name string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if name == "" {
		name = filepath.Base(localPath)
	}

	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	obj := &storage.Object{Name: name, ContentType: "text/csv"}
	_, err = s.svc.Objects.Insert(s.bucket, obj).
		Media(f, googleapi.ContentType("text/csv")).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("gcs insert %s: %w", name, WrapError(err))
	}

	return nil
}

// List returns the object names beginning with prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	var names []string
	call := s.svc.Objects.List(s.bucket).Prefix(prefix).Fields("nextPageToken", "items(name)")
	err := call.Pages(ctx, func(page *storage.Objects) error {
		for _, obj := range page.Items {
			names = append(names, obj.Name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("gcs list objects: %w", WrapError(err))
	}

	return names, nil
}

// LastModified returns the object's last update time.
func (s *Store) LastModified(ctx context.Context, name string) (time.Time, error) {
	if err := s.checkOpen(); err != nil {
		return time.Time{}, err
	}

	obj, err := s.svc.Objects.Get(s.bucket, name).Fields("name", "updated").Context(ctx).Do()
	if err != nil {
		return time.Time{}, fmt.Errorf("gcs get %s: %w", name, WrapError(err))
	}
	if obj.Updated == "" {
		return time.Time{}, fmt.Errorf("gcs get %s: %w", name, domain.ErrLastModifiedUnknown)
	}

	updated, err := time.Parse(time.RFC3339, obj.Updated)
	if err != nil {
		return time.Time{}, fmt.Errorf("gcs get %s: parse updated %q: %w", name, obj.Updated, err)
	}
	return updated.UTC(), nil
}

// Download reads the whole object.
func (s *Store) Download(ctx context.Context, name string) ([]byte, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	resp, err := s.svc.Objects.Get(s.bucket, name).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("gcs download %s: %w", name, WrapError(err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read gcs object body: %w", err)
	}
	return data, nil
}

// Close marks the store as closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

// Ensure Store implements driven.BlobStore.
var _ driven.BlobStore = (*Store)(nil)
