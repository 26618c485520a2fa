// Command grantsync keeps a cached grants snapshot in step with its
// upstream open data dataset.
package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/custodia-labs/grantsync/internal/adapters/driven/blob"
	"github.com/custodia-labs/grantsync/internal/adapters/driven/codec/csvcodec"
	"github.com/custodia-labs/grantsync/internal/adapters/driven/config/file"
	"github.com/custodia-labs/grantsync/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/grantsync/internal/adapters/driving/cli"
	"github.com/custodia-labs/grantsync/internal/connectors/socrata"
	"github.com/custodia-labs/grantsync/internal/core/domain"
	"github.com/custodia-labs/grantsync/internal/core/ports/driven"
	"github.com/custodia-labs/grantsync/internal/core/ports/driving"
	"github.com/custodia-labs/grantsync/internal/core/services"
	"github.com/custodia-labs/grantsync/internal/logger"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	var configDir string

	cli.SetConfig(cli.Config{
		Version: version,
		NewSettings: func(dir string) (driving.SettingsService, error) {
			store, err := file.NewConfigStore(dir)
			if err != nil {
				return nil, err
			}
			configDir = filepath.Dir(store.Path())
			return services.NewSettingsService(store), nil
		},
		NewSync: func(settings *domain.Settings, history bool) (driving.SyncService, func() error, error) {
			return newSync(configDir, settings, history)
		},
	})

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

// newSync wires the blob store, upstream client, codec and run history
// into a sync service.
func newSync(configDir string, settings *domain.Settings, history bool) (driving.SyncService, func() error, error) {
	ctx := context.Background()

	blobs, err := blob.New(ctx, settings.Blob)
	if err != nil {
		return nil, nil, err
	}

	api, err := socrata.NewClient(ctx, socrata.Config{
		Domain:            settings.Dataset.Domain,
		AppToken:          settings.Dataset.AppToken,
		AccessToken:       settings.Dataset.AccessToken,
		RequestsPerSecond: settings.Dataset.RequestsPerSecond,
		Timeout:           settings.Dataset.Timeout,
	})
	if err != nil {
		_ = blobs.Close()
		return nil, nil, err
	}

	var runStore driven.RunStore
	closeFns := []func() error{blobs.Close}
	if history {
		store, err := sqlite.NewStore(dataDir(configDir))
		if err != nil {
			// History is best effort; the refresh itself can still run.
			logger.Warn("Run history unavailable: %v", err)
		} else {
			runStore = store.RunStore()
			closeFns = append(closeFns, store.Close)
		}
	}

	svc := services.NewGrantSync(blobs, api, csvcodec.New(), runStore, services.SyncOptions{
		Prefix:    settings.Blob.Prefix,
		OutputDir: settings.Output.Dir,
		Bootstrap: settings.Sync.Bootstrap,
	})

	closeAll := func() error {
		var errs []error
		for _, fn := range closeFns {
			errs = append(errs, fn())
		}
		return errors.Join(errs...)
	}
	return svc, closeAll, nil
}

func dataDir(configDir string) string {
	if configDir == "" {
		return ""
	}
	return filepath.Join(configDir, "data")
}
