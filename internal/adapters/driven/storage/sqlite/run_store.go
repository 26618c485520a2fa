package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/grantsync/internal/core/domain"
	"github.com/custodia-labs/grantsync/internal/core/ports/driven"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const runColumns = `id, dataset_id, decision, source_snapshot, published_snapshot,
	cached_rows, delta_rows, merged_rows, upstream_updated_at, started_at, finished_at, error`

// runStore implements driven.RunStore.
type runStore struct {
	store *Store
}

var _ driven.RunStore = (*runStore)(nil)

// Save creates or updates a run based on ID.
func (s *runStore) Save(ctx context.Context, run domain.SyncRun) error {
	if run.ID == "" {
		return fmt.Errorf("%w: run id is required", domain.ErrInvalidInput)
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO sync_runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			dataset_id = excluded.dataset_id,
			decision = excluded.decision,
			source_snapshot = excluded.source_snapshot,
			published_snapshot = excluded.published_snapshot,
			cached_rows = excluded.cached_rows,
			delta_rows = excluded.delta_rows,
			merged_rows = excluded.merged_rows,
			upstream_updated_at = excluded.upstream_updated_at,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at,
			error = excluded.error
	`, run.ID, run.DatasetID, string(run.Decision),
		nullString(run.SourceSnapshot), nullString(run.PublishedSnapshot),
		run.CachedRows, run.DeltaRows, run.MergedRows,
		formatNullableTime(run.UpstreamUpdatedAt),
		run.StartedAt.UTC().Format(timeLayout),
		formatNullableTime(run.FinishedAt),
		nullString(run.Error))

	if err != nil {
		return fmt.Errorf("saving sync run: %w", err)
	}
	return nil
}

// Get retrieves a run by ID.
func (s *runStore) Get(ctx context.Context, id string) (*domain.SyncRun, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM sync_runs WHERE id = ?`, id)
	return scanRun(row)
}

// List returns runs newest first. An empty datasetID matches every dataset;
// limit <= 0 returns all runs.
func (s *runStore) List(ctx context.Context, datasetID string, limit int) ([]domain.SyncRun, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+runColumns+` FROM sync_runs
		WHERE (? = '' OR dataset_id = ?)
		ORDER BY started_at DESC
		LIMIT ?
	`, datasetID, datasetID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sync runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.SyncRun //nolint:prealloc // size unknown from query
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sync runs: %w", err)
	}
	return runs, nil
}

// Latest returns the most recent successful run for a dataset.
func (s *runStore) Latest(ctx context.Context, datasetID string) (*domain.SyncRun, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT `+runColumns+` FROM sync_runs
		WHERE dataset_id = ? AND decision != ? AND error IS NULL
		ORDER BY started_at DESC
		LIMIT 1
	`, datasetID, string(domain.DecisionFailed))
	return scanRun(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*domain.SyncRun, error) {
	var run domain.SyncRun
	var decision, startedAt string
	var sourceSnap, publishedSnap, upstream, finishedAt, runErr sql.NullString

	if err := row.Scan(&run.ID, &run.DatasetID, &decision, &sourceSnap, &publishedSnap,
		&run.CachedRows, &run.DeltaRows, &run.MergedRows,
		&upstream, &startedAt, &finishedAt, &runErr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning sync run: %w", err)
	}

	started, err := time.Parse(timeLayout, startedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing started_at for run %s: %w", run.ID, err)
	}

	run.Decision = domain.Decision(decision)
	run.SourceSnapshot = sourceSnap.String
	run.PublishedSnapshot = publishedSnap.String
	run.UpstreamUpdatedAt = parseNullableTime(upstream)
	run.StartedAt = started
	run.FinishedAt = parseNullableTime(finishedAt)
	run.Error = runErr.String
	return &run, nil
}

// formatNullableTime formats a time for storage, or nil if zero.
func formatNullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(timeLayout)
}

// parseNullableTime parses a stored timestamp.
// Returns zero time if the string is empty or invalid.
func parseNullableTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

// nullString returns nil for empty strings, otherwise the string.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
