package driving

import (
	"context"

	"github.com/custodia-labs/grantsync/internal/core/domain"
)

// SyncService refreshes the cached dataset snapshot from upstream.
type SyncService interface {
	// Refresh runs one staleness check and, when stale, fetches the delta,
	// merges it with the cached snapshot and publishes the result.
	Refresh(ctx context.Context, req RefreshRequest) (*RefreshResult, error)

	// History returns recorded runs for a dataset, newest first.
	History(ctx context.Context, datasetID string, limit int) ([]domain.SyncRun, error)

	// LatestSnapshot returns the most recent snapshot in the container.
	LatestSnapshot(ctx context.Context) (*domain.Snapshot, error)

	// LastSuccess returns the most recent successful run for a dataset.
	// Returns domain.ErrNotFound when none is recorded.
	LastSuccess(ctx context.Context, datasetID string) (*domain.SyncRun, error)

	// Run returns a recorded run by ID.
	Run(ctx context.Context, id string) (*domain.SyncRun, error)
}

// RefreshRequest holds the parameters of a refresh.
type RefreshRequest struct {
	// DatasetID is the upstream dataset identifier.
	DatasetID string

	// Limit bounds the number of records fetched from upstream.
	Limit int

	// DryRun computes the result without writing or uploading a snapshot.
	DryRun bool
}

// RefreshResult is the outcome of a successful refresh.
type RefreshResult struct {
	// Run describes what happened.
	Run domain.SyncRun

	// Dataset is the current dataset: the cached snapshot when up to date,
	// the merged dataset otherwise.
	Dataset *domain.Dataset

	// LocalPath is where the published snapshot was written. Empty when
	// nothing was published.
	LocalPath string
}
