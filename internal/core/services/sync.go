package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/grantsync/internal/core/domain"
	"github.com/custodia-labs/grantsync/internal/core/ports/driven"
	"github.com/custodia-labs/grantsync/internal/core/ports/driving"
	"github.com/custodia-labs/grantsync/internal/logger"
)

// Ensure GrantSync implements the interface.
var _ driving.SyncService = (*GrantSync)(nil)

// SyncOptions configures a GrantSync.
type SyncOptions struct {
	// Prefix is the snapshot name prefix.
	Prefix string

	// OutputDir receives the local copy of each published snapshot.
	OutputDir string

	// Bootstrap publishes a first snapshot when the container has none.
	Bootstrap bool

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// GrantSync coordinates a refresh of the cached grants snapshot.
type GrantSync struct {
	blobs    driven.BlobStore
	api      driven.DatasetAPI
	codec    driven.DatasetCodec
	runStore driven.RunStore
	opts     SyncOptions
}

// NewGrantSync creates a new sync service.
// runStore is optional - if nil, runs are logged but not recorded.
func NewGrantSync(
	blobs driven.BlobStore,
	api driven.DatasetAPI,
	codec driven.DatasetCodec,
	runStore driven.RunStore,
	opts SyncOptions,
) *GrantSync {
	if opts.Prefix == "" {
		opts.Prefix = domain.DefaultSnapshotPrefix
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &GrantSync{
		blobs:    blobs,
		api:      api,
		codec:    codec,
		runStore: runStore,
		opts:     opts,
	}
}

// Refresh runs one staleness check and merge.
func (s *GrantSync) Refresh(ctx context.Context, req driving.RefreshRequest) (*driving.RefreshResult, error) {
	if req.DatasetID == "" {
		return nil, fmt.Errorf("%w: dataset id is required", domain.ErrInvalidInput)
	}
	if req.Limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", domain.ErrInvalidInput)
	}

	run := domain.SyncRun{
		ID:        uuid.New().String(),
		DatasetID: req.DatasetID,
		StartedAt: s.opts.Now().UTC(),
	}

	logger.Section("Refresh " + req.DatasetID)
	result, err := s.refresh(ctx, req, &run)
	run.FinishedAt = s.opts.Now().UTC()

	if err != nil {
		run.Decision = domain.DecisionFailed
		run.Error = err.Error()
		logger.Error("refresh %s failed: %v", req.DatasetID, err)
	}
	s.record(ctx, run)

	if err != nil {
		return nil, err
	}

	result.Run = run
	logger.Info("Refresh complete: %s (%d rows)", run.Decision, result.Dataset.Len())
	return result, nil
}

// refresh performs the pipeline steps, filling in run as it goes.
//
//nolint:gocyclo // Orchestration function with necessary sequential steps
func (s *GrantSync) refresh(
	ctx context.Context,
	req driving.RefreshRequest,
	run *domain.SyncRun,
) (*driving.RefreshResult, error) {
	// 1. Upstream last update
	meta, err := s.api.Metadata(ctx, req.DatasetID)
	if err != nil {
		return nil, fmt.Errorf("fetch metadata: %w", err)
	}
	run.UpstreamUpdatedAt = meta.RowsUpdatedAt
	logger.Info("Upstream last updated %s", meta.UpdatedDay().Format(time.DateOnly))

	// 2. Most recent cached snapshot
	snap, err := s.latestSnapshot(ctx)
	if errors.Is(err, domain.ErrNoSnapshot) && s.opts.Bootstrap {
		return s.bootstrap(ctx, req, run)
	}
	if err != nil {
		return nil, err
	}
	run.SourceSnapshot = snap.Name

	modified, err := s.blobs.LastModified(ctx, snap.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrLastModifiedUnknown, snap.Name, err)
	}
	snap.LastModified = modified
	logger.Info("Cached snapshot %s last modified %s", snap.Name, domain.Day(modified).Format(time.DateOnly))

	cached, err := s.download(ctx, snap.Name)
	if err != nil {
		return nil, err
	}
	run.CachedRows = cached.Len()

	// 3. Staleness decision
	decision, err := domain.Decide(snap.LastModified, meta.RowsUpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("decide %s: %w", snap.Name, err)
	}
	if decision == domain.DecisionUpToDate {
		logger.Info("No new updates upstream, returning cached snapshot %s", snap.Name)
		run.Decision = decision
		run.MergedRows = cached.Len()
		return &driving.RefreshResult{Dataset: cached}, nil
	}

	// 4. Delta fetch
	logger.Info("Found new updates upstream, fetching up to %d records", req.Limit)
	delta, err := s.api.Records(ctx, req.DatasetID, req.Limit)
	if err != nil {
		return nil, fmt.Errorf("fetch records: %w", err)
	}
	run.DeltaRows = delta.Len()
	if delta.Len() == 0 {
		logger.Warn("Upstream returned no records, keeping cached snapshot %s", snap.Name)
		run.Decision = domain.DecisionEmptyDelta
		run.MergedRows = cached.Len()
		return &driving.RefreshResult{Dataset: cached}, nil
	}
	if delta.Len() >= req.Limit {
		logger.Warn("Fetched %d records, the full limit; upstream may hold more", delta.Len())
	}

	// 5. Merge
	merged, err := domain.Merge(cached, delta)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	run.Decision = domain.DecisionStale
	run.MergedRows = merged.Len()
	logger.Debug("Merged %d cached + %d delta records into %d", cached.Len(), delta.Len(), merged.Len())

	// 6. Publish
	name, path, err := s.publish(ctx, merged, req.DryRun)
	if err != nil {
		return nil, err
	}
	run.PublishedSnapshot = name

	return &driving.RefreshResult{Dataset: merged, LocalPath: path}, nil
}

// bootstrap publishes the full upstream dataset as the first snapshot.
func (s *GrantSync) bootstrap(
	ctx context.Context,
	req driving.RefreshRequest,
	run *domain.SyncRun,
) (*driving.RefreshResult, error) {
	logger.Info("No cached snapshot, bootstrapping from upstream")

	records, err := s.api.Records(ctx, req.DatasetID, req.Limit)
	if err != nil {
		return nil, fmt.Errorf("fetch records: %w", err)
	}
	run.DeltaRows = records.Len()
	if records.Len() == 0 {
		return nil, fmt.Errorf("bootstrap: %w: upstream returned no records", domain.ErrNoSnapshot)
	}

	sorted, err := domain.SortByDate(records, domain.SubmissionDateColumn)
	if err != nil {
		return nil, fmt.Errorf("sort records: %w", err)
	}
	run.Decision = domain.DecisionBootstrap
	run.MergedRows = sorted.Len()

	name, path, err := s.publish(ctx, sorted, req.DryRun)
	if err != nil {
		return nil, err
	}
	run.PublishedSnapshot = name

	return &driving.RefreshResult{Dataset: sorted, LocalPath: path}, nil
}

// History returns recorded runs for a dataset.
func (s *GrantSync) History(ctx context.Context, datasetID string, limit int) ([]domain.SyncRun, error) {
	if s.runStore == nil {
		return nil, nil
	}
	runs, err := s.runStore.List(ctx, datasetID, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// LatestSnapshot returns the most recent snapshot with its last-modified time.
func (s *GrantSync) LatestSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	snap, err := s.latestSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	modified, err := s.blobs.LastModified(ctx, snap.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrLastModifiedUnknown, snap.Name, err)
	}
	snap.LastModified = modified
	return snap, nil
}

// LastSuccess returns the most recent successful run for a dataset.
func (s *GrantSync) LastSuccess(ctx context.Context, datasetID string) (*domain.SyncRun, error) {
	if s.runStore == nil {
		return nil, domain.ErrNotFound
	}
	run, err := s.runStore.Latest(ctx, datasetID)
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	return run, nil
}

// Run returns a recorded run by ID.
func (s *GrantSync) Run(ctx context.Context, id string) (*domain.SyncRun, error) {
	if s.runStore == nil {
		return nil, domain.ErrNotFound
	}
	run, err := s.runStore.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

func (s *GrantSync) latestSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	names, err := s.blobs.List(ctx, s.opts.Prefix)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	logger.Debug("Found %d objects under %q", len(names), s.opts.Prefix)

	snap, err := domain.MostRecentFile(domain.SnapshotCandidates(names, s.opts.Prefix))
	if err != nil {
		return nil, fmt.Errorf("select snapshot: %w", err)
	}
	return snap, nil
}

func (s *GrantSync) download(ctx context.Context, name string) (*domain.Dataset, error) {
	data, err := s.blobs.Download(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", name, err)
	}
	ds, err := s.codec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	logger.Info("Downloaded %s (%d records)", name, ds.Len())
	return ds, nil
}

// publish writes the dataset under today's snapshot name and uploads it.
// Dry runs only compute the name.
func (s *GrantSync) publish(ctx context.Context, ds *domain.Dataset, dryRun bool) (string, string, error) {
	name := domain.SnapshotName(s.opts.Prefix, s.opts.Now())
	if dryRun {
		logger.Info("Dry run: would publish %s", name)
		return name, "", nil
	}

	if err := os.MkdirAll(s.opts.OutputDir, 0755); err != nil {
		return "", "", fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(s.opts.OutputDir, name)

	if err := s.writeLocal(path, ds); err != nil {
		return "", "", err
	}
	if err := s.blobs.Upload(ctx, path, name); err != nil {
		return "", "", fmt.Errorf("upload %s: %w", name, err)
	}

	logger.Info("Published %s", name)
	return name, path, nil
}

func (s *GrantSync) writeLocal(path string, ds *domain.Dataset) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	if err := s.codec.Encode(f, ds, true); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}

// record saves the run, logging rather than failing on store errors.
func (s *GrantSync) record(ctx context.Context, run domain.SyncRun) {
	if s.runStore == nil {
		return
	}
	if err := s.runStore.Save(ctx, run); err != nil {
		logger.Warn("Failed to record run %s: %v", run.ID, err)
	}
}
