package blob

import (
	"context"
	"fmt"

	"github.com/custodia-labs/grantsync/internal/adapters/driven/blob/azure"
	"github.com/custodia-labs/grantsync/internal/adapters/driven/blob/gcs"
	"github.com/custodia-labs/grantsync/internal/adapters/driven/blob/local"
	"github.com/custodia-labs/grantsync/internal/adapters/driven/blob/s3"
	"github.com/custodia-labs/grantsync/internal/core/domain"
	"github.com/custodia-labs/grantsync/internal/core/ports/driven"
)

// New creates the snapshot store named by cfg.Backend.
func New(ctx context.Context, cfg domain.BlobSettings) (driven.BlobStore, error) {
	switch cfg.Backend {
	case domain.BlobBackendAzure:
		return createAzureStore(cfg)
	case domain.BlobBackendGCS:
		return createGCSStore(ctx, cfg)
	case domain.BlobBackendS3:
		return createS3Store(ctx, cfg)
	case domain.BlobBackendLocal:
		return createLocalStore(cfg)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedBackend, cfg.Backend)
	}
}

// createAzureStore creates an Azure Blob Storage store.
func createAzureStore(cfg domain.BlobSettings) (driven.BlobStore, error) {
	store, err := azure.NewFromConfig(azure.Config{
		ConnectionString: cfg.ConnectionString,
		Container:        cfg.Container,
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// createGCSStore creates a Google Cloud Storage store.
func createGCSStore(ctx context.Context, cfg domain.BlobSettings) (driven.BlobStore, error) {
	store, err := gcs.NewFromConfig(ctx, gcs.Config{
		Bucket:          cfg.Container,
		CredentialsFile: cfg.CredentialsFile,
		Endpoint:        cfg.Endpoint,
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// createS3Store creates an S3-backed store.
func createS3Store(ctx context.Context, cfg domain.BlobSettings) (driven.BlobStore, error) {
	store, err := s3.NewFromConfig(ctx, s3.Config{
		Bucket:          cfg.Container,
		Region:          cfg.Region,
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		ForcePathStyle:  cfg.ForcePathStyle,
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// createLocalStore creates a directory-backed store; Container is the directory.
func createLocalStore(cfg domain.BlobSettings) (driven.BlobStore, error) {
	store, err := local.New(cfg.Container)
	if err != nil {
		return nil, err
	}
	return store, nil
}
