// Package domain defines the core business entities for grantsync.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types and
// the pure decision logic of a refresh:
//
//   - Dataset: Ordered grant records with named columns
//   - Snapshot: A dated CSV blob in the container
//   - DatasetMetadata: Upstream dataset descriptor with its last update
//   - SyncRun: The outcome of one refresh invocation
//   - Decide, Merge, MostRecentFile: staleness check, delta merge and
//     snapshot selection
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
