package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedBackend indicates an unknown blob store backend.
	ErrUnsupportedBackend = errors.New("unsupported blob backend")

	// ErrStoreClosed indicates an operation on a closed blob store.
	ErrStoreClosed = errors.New("blob store closed")

	// Snapshot Errors.

	// ErrNoSnapshot indicates the container holds no cached snapshot.
	ErrNoSnapshot = errors.New("no snapshot found")

	// ErrMalformedSnapshotName indicates a snapshot name lacks the _YYYY-MM-DD.csv suffix.
	ErrMalformedSnapshotName = errors.New("malformed snapshot name")

	// ErrLastModifiedUnknown indicates the blob store could not report when
	// the cached snapshot was last modified. No staleness decision is possible.
	ErrLastModifiedUnknown = errors.New("last modified time unknown")

	// Dataset Errors.

	// ErrInvalidDate indicates a record's submission date could not be parsed.
	ErrInvalidDate = errors.New("invalid submission date")

	// ErrMissingColumn indicates a dataset lacks a required column.
	ErrMissingColumn = errors.New("missing column")

	// Upstream Errors.

	// ErrRateLimited indicates the upstream API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)
