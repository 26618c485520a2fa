// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for a refresh to run:
//
//   - BlobStore: Snapshot container (Azure, GCS, S3 or a local directory)
//   - DatasetAPI: Upstream open-data portal
//   - DatasetCodec: Snapshot serialisation (CSV)
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - RunStore: Refresh history. Without it, runs are only logged.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
