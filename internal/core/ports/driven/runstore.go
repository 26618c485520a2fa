package driven

import (
	"context"

	"github.com/custodia-labs/grantsync/internal/core/domain"
)

// RunStore persists refresh history.
type RunStore interface {
	// Save stores or updates a run.
	Save(ctx context.Context, run domain.SyncRun) error

	// Get retrieves a run by ID.
	// Returns domain.ErrNotFound if no such run exists.
	Get(ctx context.Context, id string) (*domain.SyncRun, error)

	// List returns runs for a dataset, newest first.
	// An empty datasetID lists runs for every dataset. A limit <= 0 means no limit.
	List(ctx context.Context, datasetID string, limit int) ([]domain.SyncRun, error)

	// Latest returns the most recent successful run for a dataset.
	// Returns domain.ErrNotFound if there is none.
	Latest(ctx context.Context, datasetID string) (*domain.SyncRun, error)
}
