package driven

import (
	"context"

	"github.com/custodia-labs/grantsync/internal/core/domain"
)

// DatasetAPI fetches datasets from an upstream open-data portal.
type DatasetAPI interface {
	// Metadata returns the dataset descriptor, including when its rows
	// were last updated.
	Metadata(ctx context.Context, datasetID string) (*domain.DatasetMetadata, error)

	// Records fetches up to limit records in a single bounded request.
	// No pagination is performed; limit must cover the whole dataset.
	Records(ctx context.Context, datasetID string, limit int) (*domain.Dataset, error)
}
