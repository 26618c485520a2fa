package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// BlobBackend identifies the object store that holds snapshots.
type BlobBackend string

// Available blob backends.
const (
	// BlobBackendAzure stores snapshots in an Azure Blob Storage container.
	BlobBackendAzure BlobBackend = "azure"

	// BlobBackendGCS stores snapshots in a Google Cloud Storage bucket.
	BlobBackendGCS BlobBackend = "gcs"

	// BlobBackendS3 stores snapshots in an S3 (or S3-compatible) bucket.
	BlobBackendS3 BlobBackend = "s3"

	// BlobBackendLocal stores snapshots in a local directory.
	BlobBackendLocal BlobBackend = "local"
)

// IsValid returns true if the backend is recognised.
func (b BlobBackend) IsValid() bool {
	switch b {
	case BlobBackendAzure, BlobBackendGCS, BlobBackendS3, BlobBackendLocal:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b BlobBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b BlobBackend) Description() string {
	switch b {
	case BlobBackendAzure:
		return "Azure Blob Storage"
	case BlobBackendGCS:
		return "Google Cloud Storage"
	case BlobBackendS3:
		return "Amazon S3"
	case BlobBackendLocal:
		return "Local directory"
	default:
		return unknownDescription
	}
}

// AllBlobBackends returns all available blob backends.
func AllBlobBackends() []BlobBackend {
	return []BlobBackend{
		BlobBackendAzure,
		BlobBackendGCS,
		BlobBackendS3,
		BlobBackendLocal,
	}
}

// DatasetSettings configures the upstream open-data dataset.
type DatasetSettings struct {
	// ID is the upstream dataset identifier.
	ID string

	// Domain is the open-data portal host, e.g. data.delaware.gov.
	Domain string

	// Limit bounds the number of records fetched in one refresh.
	// It must be large enough to cover the whole upstream dataset.
	Limit int

	// AppToken is the optional portal application token.
	AppToken string

	// AccessToken is an optional OAuth bearer token for the portal.
	AccessToken string

	// RequestsPerSecond paces calls to the portal.
	RequestsPerSecond float64

	// Timeout bounds each HTTP request.
	Timeout time.Duration
}

// BlobSettings configures the snapshot container.
type BlobSettings struct {
	// Backend selects the object store.
	Backend BlobBackend

	// Container is the container, bucket or directory holding snapshots.
	Container string

	// Prefix is the snapshot name prefix.
	Prefix string

	// ConnectionString authenticates Azure Blob Storage.
	ConnectionString string

	// Region is the S3 region.
	Region string

	// Endpoint overrides the service endpoint (S3-compatible stores, GCS emulators).
	Endpoint string

	// AccessKeyID and SecretAccessKey are optional static S3 credentials.
	AccessKeyID     string
	SecretAccessKey string

	// ForcePathStyle forces path-style S3 addressing (MinIO, Localstack).
	ForcePathStyle bool

	// CredentialsFile is a GCS service account key file.
	CredentialsFile string
}

// OutputSettings configures where published snapshots are written locally.
type OutputSettings struct {
	// Dir is the directory that receives the local copy of each snapshot.
	Dir string
}

// SyncSettings configures refresh behaviour.
type SyncSettings struct {
	// Bootstrap publishes a first snapshot when the container has none.
	Bootstrap bool

	// History records every run in the run store.
	History bool
}

// Settings contains all application settings.
type Settings struct {
	Dataset DatasetSettings
	Blob    BlobSettings
	Output  OutputSettings
	Sync    SyncSettings
}

// Validate checks that the settings are complete enough to run a refresh.
func (s *Settings) Validate() error {
	if s.Dataset.ID == "" {
		return fmt.Errorf("%w: dataset id is required", ErrInvalidInput)
	}
	if s.Dataset.Domain == "" {
		return fmt.Errorf("%w: dataset domain is required", ErrInvalidInput)
	}
	if s.Dataset.Limit <= 0 {
		return fmt.Errorf("%w: dataset limit must be positive", ErrInvalidInput)
	}
	if !s.Blob.Backend.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnsupportedBackend, s.Blob.Backend)
	}
	if s.Blob.Container == "" {
		return fmt.Errorf("%w: blob container is required", ErrInvalidInput)
	}
	if s.Blob.Backend == BlobBackendAzure && s.Blob.ConnectionString == "" {
		return fmt.Errorf("%w: azure connection string is required", ErrInvalidInput)
	}
	return nil
}

// DefaultSettings returns the default application settings.
func DefaultSettings() Settings {
	return Settings{
		Dataset: DatasetSettings{
			Domain:            "data.delaware.gov",
			Limit:             100000,
			RequestsPerSecond: 2.0,
			Timeout:           60 * time.Second,
		},
		Blob: BlobSettings{
			Backend: BlobBackendAzure,
			Prefix:  DefaultSnapshotPrefix,
		},
		Output: OutputSettings{
			Dir: ".",
		},
		Sync: SyncSettings{
			Bootstrap: false,
			History:   true,
		},
	}
}
