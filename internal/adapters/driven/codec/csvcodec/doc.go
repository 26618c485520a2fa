// Package csvcodec implements driven.DatasetCodec for CSV snapshots.
//
// Snapshots carry a leading unnamed index column (0..n-1) ahead of the data
// columns. Decode drops that column when present so both indexed and plain
// files load to the same dataset.
package csvcodec
