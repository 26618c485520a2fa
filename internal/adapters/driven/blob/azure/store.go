// Package azure provides an Azure Blob Storage backed snapshot store.
package azure

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"github.com/custodia-labs/grantsync/internal/core/domain"
	"github.com/custodia-labs/grantsync/internal/core/ports/driven"
)

// Config holds configuration for the Azure snapshot store.
type Config struct {
	// ConnectionString is the storage account connection string.
	ConnectionString string

	// Container is the blob container holding snapshots.
	Container string
}

// Store is an Azure Blob Storage implementation of driven.BlobStore.
type Store struct {
	client    *azblob.Client
	container string
	closed    bool
	mu        sync.RWMutex
}

// New creates a store around an existing client.
func New(client *azblob.Client, config Config) *Store {
	return &Store{
		client:    client,
		container: config.Container,
	}
}

// NewFromConfig creates a client from the connection string.
func NewFromConfig(config Config) (*Store, error) {
	if config.ConnectionString == "" {
		return nil, fmt.Errorf("%w: azure connection string is required", domain.ErrInvalidInput)
	}
	if config.Container == "" {
		return nil, fmt.Errorf("%w: azure container is required", domain.ErrInvalidInput)
	}

	client, err := azblob.NewClientFromConnectionString(config.ConnectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("create azure client: %w", err)
	}

	return New(client, config), nil
}

func (s *Store) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.ErrStoreClosed
	}
	return nil
}

// Upload writes the local file at localPath to blob name, overwriting it.
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

	contentType := "text/csv"
	_, err = s.client.UploadFile(ctx, s.container, name, f, &azblob.UploadFileOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return fmt.Errorf("azure upload %s: %w", name, wrapError(err))
	}

	return nil
}

// List returns the blob names beginning with prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	var names []string
	pager := s.client.NewListBlobsFlatPager(s.container, &azblob.ListBlobsFlatOptions{
		Prefix: &prefix,
	})

	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("azure list blobs: %w", wrapError(err))
		}

		for _, item := range page.Segment.BlobItems {
			if item.Name != nil {
				names = append(names, *item.Name)
			}
		}
	}

	return names, nil
}

// LastModified returns the blob's last-modified time.
func (s *Store) LastModified(ctx context.Context, name string) (time.Time, error) {
	if err := s.checkOpen(); err != nil {
		return time.Time{}, err
	}

	blobClient := s.client.ServiceClient().NewContainerClient(s.container).NewBlobClient(name)
	props, err := blobClient.GetProperties(ctx, nil)
	if err != nil {
		return time.Time{}, fmt.Errorf("azure properties %s: %w", name, wrapError(err))
	}
	if props.LastModified == nil {
		return time.Time{}, fmt.Errorf("azure properties %s: %w", name, domain.ErrLastModifiedUnknown)
	}

	return props.LastModified.UTC(), nil
}

// Download reads the whole blob.
func (s *Store) Download(ctx context.Context, name string) ([]byte, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	resp, err := s.client.DownloadStream(ctx, s.container, name, nil)
	if err != nil {
		return nil, fmt.Errorf("azure download %s: %w", name, wrapError(err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read azure blob body: %w", err)
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

// wrapError maps missing blobs and containers to domain.ErrNotFound.
func wrapError(err error) error {
	if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound, bloberror.ResourceNotFound) {
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	}
	return err
}

// Ensure Store implements driven.BlobStore.
var _ driven.BlobStore = (*Store)(nil)
