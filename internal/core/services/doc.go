// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// GrantSync runs the refresh pipeline: staleness check, delta fetch,
// merge and publish. SettingsService reads and validates configuration.
package services
