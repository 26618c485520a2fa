package domain

import "time"

// DatasetMetadata describes an upstream dataset.
type DatasetMetadata struct {
	// ID is the upstream dataset identifier (e.g. "abcd-1234").
	ID string

	// Name is the human-readable dataset name.
	Name string

	// RowsUpdatedAt is when upstream rows last changed, in UTC.
	RowsUpdatedAt time.Time
}

// UpdatedDay returns the calendar day of the last upstream update.
func (m *DatasetMetadata) UpdatedDay() time.Time {
	return Day(m.RowsUpdatedAt)
}

// SyncRun records the outcome of one refresh invocation.
type SyncRun struct {
	// ID is the unique identifier for the run.
	ID string

	// DatasetID is the upstream dataset that was refreshed.
	DatasetID string

	// Decision is what the run concluded.
	Decision Decision

	// SourceSnapshot is the cached snapshot the run started from.
	// Empty for bootstrap runs and runs that failed before selection.
	SourceSnapshot string

	// PublishedSnapshot is the snapshot uploaded by the run, if any.
	PublishedSnapshot string

	// CachedRows is the number of records in the cached snapshot.
	CachedRows int

	// DeltaRows is the number of records fetched from upstream.
	DeltaRows int

	// MergedRows is the number of records in the result.
	MergedRows int

	// UpstreamUpdatedAt is the upstream last-updated time seen by the run.
	UpstreamUpdatedAt time.Time

	// StartedAt is when the run began.
	StartedAt time.Time

	// FinishedAt is when the run ended.
	FinishedAt time.Time

	// Error holds the failure message for failed runs.
	Error string
}

// Succeeded reports whether the run completed without error.
func (r *SyncRun) Succeeded() bool {
	return r.Error == "" && r.Decision != DecisionFailed
}

// Duration returns how long the run took.
func (r *SyncRun) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
