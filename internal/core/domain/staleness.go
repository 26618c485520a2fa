package domain

import "time"

// Decision is the outcome of comparing a cached snapshot with upstream.
type Decision string

// Refresh decisions.
const (
	// DecisionUpToDate means the cached snapshot is at least as new as upstream.
	DecisionUpToDate Decision = "up_to_date"

	// DecisionStale means upstream changed after the snapshot was written.
	DecisionStale Decision = "stale"

	// DecisionEmptyDelta means upstream was newer but returned no records.
	DecisionEmptyDelta Decision = "empty_delta"

	// DecisionBootstrap means no snapshot existed and one was created from upstream.
	DecisionBootstrap Decision = "bootstrap"

	// DecisionFailed means the refresh stopped on an error.
	DecisionFailed Decision = "failed"
)

// String returns the string representation.
func (d Decision) String() string {
	return string(d)
}

// Publishes reports whether a run with this decision uploads a new snapshot.
func (d Decision) Publishes() bool {
	return d == DecisionStale || d == DecisionBootstrap
}

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Decide compares the cached snapshot's last-modified time with the
// upstream last-updated time at calendar-day granularity.
//
// A zero cachedModified means the blob store could not report it and
// yields ErrLastModifiedUnknown.
func Decide(cachedModified, upstreamUpdated time.Time) (Decision, error) {
	if cachedModified.IsZero() {
		return DecisionFailed, ErrLastModifiedUnknown
	}
	if Day(cachedModified).Before(Day(upstreamUpdated)) {
		return DecisionStale, nil
	}
	return DecisionUpToDate, nil
}
