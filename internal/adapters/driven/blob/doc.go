// Package blob selects a snapshot store implementation from settings.
//
// Backends:
//   - azure: Azure Blob Storage container (connection string auth)
//   - gcs: Google Cloud Storage bucket
//   - s3: Amazon S3 or an S3-compatible bucket
//   - local: a directory on disk
package blob
