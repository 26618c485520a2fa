package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/grantsync/internal/core/domain"
	"github.com/custodia-labs/grantsync/internal/core/ports/driving"
	"github.com/custodia-labs/grantsync/internal/logger"
)

// SettingsFactory opens the settings service for a config directory.
// An empty directory selects the default.
type SettingsFactory func(configDir string) (driving.SettingsService, error)

// SyncFactory builds the sync service from validated settings.
// The returned close function releases stores opened for the service.
type SyncFactory func(settings *domain.Settings, history bool) (driving.SyncService, func() error, error)

// Config holds the factories commands use to reach the core.
type Config struct {
	Version     string
	NewSettings SettingsFactory
	NewSync     SyncFactory
}

var (
	version   = "dev"
	verbose   bool
	configDir string

	newSettingsService SettingsFactory
	newSyncService     SyncFactory

	// Services are built lazily; tests assign them directly.
	settingsService driving.SettingsService
	syncService     driving.SyncService
	closers         []func() error
)

var rootCmd = &cobra.Command{
	Use:   "grantsync",
	Short: "Keep a cached grants snapshot in step with its upstream dataset",
	Long: `grantsync compares the most recent snapshot in a blob container with
the upstream open data dataset. When upstream has changed on a later
calendar day it fetches recent records, merges them into the cached
snapshot and publishes a new dated snapshot.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print debug and progress output")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Configuration directory (default ~/.grantsync)")
}

// SetConfig installs the service factories.
func SetConfig(cfg Config) {
	if cfg.Version != "" {
		version = cfg.Version
	}
	newSettingsService = cfg.NewSettings
	newSyncService = cfg.NewSync
}

// Execute runs the root command and releases any opened stores.
func Execute() error {
	defer closeServices()
	return rootCmd.Execute()
}

func getSettingsService() (driving.SettingsService, error) {
	if settingsService != nil {
		return settingsService, nil
	}
	if newSettingsService == nil {
		return nil, errors.New("settings service not configured")
	}
	svc, err := newSettingsService(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings: %w", err)
	}
	settingsService = svc
	return svc, nil
}

func loadSettings() (*domain.Settings, error) {
	svc, err := getSettingsService()
	if err != nil {
		return nil, err
	}
	settings, err := svc.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return settings, nil
}

// getSyncService returns the sync service, building it from settings
// on first use.
func getSyncService(settings *domain.Settings, history bool) (driving.SyncService, error) {
	if syncService != nil {
		return syncService, nil
	}
	if newSyncService == nil {
		return nil, errors.New("sync service not configured")
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w\nRun 'grantsync config set <key> <value>' to fix it", err)
	}
	svc, closeFn, err := newSyncService(settings, history)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise sync: %w", err)
	}
	if closeFn != nil {
		closers = append(closers, closeFn)
	}
	syncService = svc
	return svc, nil
}

func closeServices() {
	for _, c := range closers {
		if err := c(); err != nil {
			logger.Warn("close: %v", err)
		}
	}
	closers = nil
}
