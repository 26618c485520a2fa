package driving

import "github.com/custodia-labs/grantsync/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current settings, filling unset values with defaults.
	Get() (*domain.Settings, error)

	// Set updates a single setting by key, validating the value.
	Set(key, value string) error

	// Unset removes a stored setting so its default applies again.
	Unset(key string) error

	// Keys returns the recognised setting keys.
	Keys() []string

	// IsSecret reports whether a key holds a credential that should be masked.
	IsSecret(key string) bool
}
