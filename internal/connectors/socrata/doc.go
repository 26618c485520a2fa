// Package socrata provides a client for Socrata open data portals.
//
// The client implements driven.DatasetAPI against the two endpoints the
// sync needs:
//
//   - GET /api/views/{id}.json for dataset metadata (rowsUpdatedAt)
//   - GET /resource/{id}.json?$limit=N for records
//
// Requests are paced with a token bucket. Each call makes a single attempt;
// a 429 surfaces as a RateLimitError and pauses later requests for the
// Retry-After window. An application token is sent as X-App-Token when configured;
// an OAuth access token, when configured, is sent as a bearer token.
package socrata
