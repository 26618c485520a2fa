package services

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/custodia-labs/grantsync/internal/core/domain"
	"github.com/custodia-labs/grantsync/internal/core/ports/driven"
	"github.com/custodia-labs/grantsync/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyDatasetID          = "dataset.id"
	keyDatasetDomain      = "dataset.domain"
	keyDatasetLimit       = "dataset.limit"
	keyDatasetAppToken    = "dataset.app_token"
	keyDatasetAccessToken = "dataset.access_token"
	keyDatasetRate        = "dataset.requests_per_second"
	keyDatasetTimeout     = "dataset.timeout"
	keyBlobBackend        = "blob.backend"
	keyBlobContainer      = "blob.container"
	keyBlobPrefix         = "blob.prefix"
	keyBlobConnString     = "blob.connection_string"
	keyBlobRegion         = "blob.region"
	keyBlobEndpoint       = "blob.endpoint"
	keyBlobAccessKeyID    = "blob.access_key_id"
	keyBlobSecretKey      = "blob.secret_access_key"
	keyBlobPathStyle      = "blob.force_path_style"
	keyBlobCredsFile      = "blob.credentials_file"
	keyOutputDir          = "output.dir"
	keySyncBootstrap      = "sync.bootstrap"
	keySyncHistory        = "sync.history"
)

type settingKind int

const (
	kindString settingKind = iota
	kindInt
	kindFloat
	kindBool
	kindDuration
	kindBackend
)

type settingKey struct {
	kind   settingKind
	secret bool
}

var settingKeys = map[string]settingKey{
	keyDatasetID:          {kind: kindString},
	keyDatasetDomain:      {kind: kindString},
	keyDatasetLimit:       {kind: kindInt},
	keyDatasetAppToken:    {kind: kindString, secret: true},
	keyDatasetAccessToken: {kind: kindString, secret: true},
	keyDatasetRate:        {kind: kindFloat},
	keyDatasetTimeout:     {kind: kindDuration},
	keyBlobBackend:        {kind: kindBackend},
	keyBlobContainer:      {kind: kindString},
	keyBlobPrefix:         {kind: kindString},
	keyBlobConnString:     {kind: kindString, secret: true},
	keyBlobRegion:         {kind: kindString},
	keyBlobEndpoint:       {kind: kindString},
	keyBlobAccessKeyID:    {kind: kindString},
	keyBlobSecretKey:      {kind: kindString, secret: true},
	keyBlobPathStyle:      {kind: kindBool},
	keyBlobCredsFile:      {kind: kindString},
	keyOutputDir:          {kind: kindString},
	keySyncBootstrap:      {kind: kindBool},
	keySyncHistory:        {kind: kindBool},
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.Settings, error) {
	defaults := domain.DefaultSettings()

	settings := &domain.Settings{
		Dataset: domain.DatasetSettings{
			ID:                s.configStore.GetString(keyDatasetID),
			Domain:            s.getString(keyDatasetDomain, defaults.Dataset.Domain),
			Limit:             s.getInt(keyDatasetLimit, defaults.Dataset.Limit),
			AppToken:          s.configStore.GetString(keyDatasetAppToken),
			AccessToken:       s.configStore.GetString(keyDatasetAccessToken),
			RequestsPerSecond: s.getFloat(keyDatasetRate, defaults.Dataset.RequestsPerSecond),
			Timeout:           s.getDuration(keyDatasetTimeout, defaults.Dataset.Timeout),
		},
		Blob: domain.BlobSettings{
			Backend:          domain.BlobBackend(s.getString(keyBlobBackend, defaults.Blob.Backend.String())),
			Container:        s.configStore.GetString(keyBlobContainer),
			Prefix:           s.getString(keyBlobPrefix, defaults.Blob.Prefix),
			ConnectionString: s.configStore.GetString(keyBlobConnString),
			Region:           s.configStore.GetString(keyBlobRegion),
			Endpoint:         s.configStore.GetString(keyBlobEndpoint),
			AccessKeyID:      s.configStore.GetString(keyBlobAccessKeyID),
			SecretAccessKey:  s.configStore.GetString(keyBlobSecretKey),
			ForcePathStyle:   s.getBool(keyBlobPathStyle, defaults.Blob.ForcePathStyle),
			CredentialsFile:  s.configStore.GetString(keyBlobCredsFile),
		},
		Output: domain.OutputSettings{
			Dir: s.getString(keyOutputDir, defaults.Output.Dir),
		},
		Sync: domain.SyncSettings{
			Bootstrap: s.getBool(keySyncBootstrap, defaults.Sync.Bootstrap),
			History:   s.getBool(keySyncHistory, defaults.Sync.History),
		},
	}

	return settings, nil
}

// Set updates a single setting from its string form.
func (s *SettingsService) Set(key, value string) error {
	def, ok := settingKeys[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	var parsed any
	switch def.kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: %s must be a positive integer", domain.ErrInvalidInput, key)
		}
		parsed = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("%w: %s must be a positive number", domain.ErrInvalidInput, key)
		}
		parsed = f
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be true or false", domain.ErrInvalidInput, key)
		}
		parsed = b
	case kindDuration:
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: %s must be a positive duration", domain.ErrInvalidInput, key)
		}
		parsed = d.String()
	case kindBackend:
		if !domain.BlobBackend(value).IsValid() {
			return fmt.Errorf("%w: %q", domain.ErrUnsupportedBackend, value)
		}
		parsed = value
	default:
		parsed = value
	}

	return s.configStore.Set(key, parsed)
}

// Unset removes a stored setting so its default applies again.
func (s *SettingsService) Unset(key string) error {
	if _, ok := settingKeys[key]; !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	return s.configStore.Delete(key)
}

// Keys returns the recognised setting keys in sorted order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKeys))
	for k := range settingKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsSecret reports whether a key holds a credential.
func (s *SettingsService) IsSecret(key string) bool {
	return settingKeys[key].secret
}

// Helper methods

func (s *SettingsService) getString(key, defaultVal string) string {
	if val := s.configStore.GetString(key); val != "" {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if val := s.configStore.GetInt(key); val != 0 {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if val := s.configStore.GetFloat(key); val != 0 {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, ok := s.configStore.Get(key); ok {
		return s.configStore.GetBool(key)
	}
	return defaultVal
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	if d, err := time.ParseDuration(s.configStore.GetString(key)); err == nil && d > 0 {
		return d
	}
	return defaultVal
}
