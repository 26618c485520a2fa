package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/grantsync/internal/core/domain"
	"github.com/custodia-labs/grantsync/internal/core/ports/driving"
)

var (
	syncDatasetID string
	syncLimit     int
	syncDryRun    bool
	syncNoHistory bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Refresh the cached snapshot from upstream",
	Long: `Compares the most recent cached snapshot with the upstream dataset.
If upstream changed on a later calendar day, recent records are fetched,
merged into the cached snapshot and published as today's snapshot.
Otherwise the cached snapshot is left as it is.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVar(&syncDatasetID, "dataset", "", "Upstream dataset ID (default from config)")
	syncCmd.Flags().IntVar(&syncLimit, "limit", 0, "Maximum records to fetch (default from config)")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Compute the result without writing or uploading")
	syncCmd.Flags().BoolVar(&syncNoHistory, "no-history", false, "Do not record this run")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if syncDatasetID != "" {
		settings.Dataset.ID = syncDatasetID
	}
	if syncLimit > 0 {
		settings.Dataset.Limit = syncLimit
	}

	svc, err := getSyncService(settings, settings.Sync.History && !syncNoHistory)
	if err != nil {
		return err
	}

	cmd.Printf("Refreshing dataset %s...\n", settings.Dataset.ID)
	result, err := svc.Refresh(context.Background(), driving.RefreshRequest{
		DatasetID: settings.Dataset.ID,
		Limit:     settings.Dataset.Limit,
		DryRun:    syncDryRun,
	})
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	printResult(cmd, result, syncDryRun)
	return nil
}

func printResult(cmd *cobra.Command, result *driving.RefreshResult, dryRun bool) {
	run := result.Run
	switch {
	case run.Decision.Publishes() && dryRun:
		cmd.Printf("Dry run: would publish %s.\n", run.PublishedSnapshot)
	case run.Decision.Publishes():
		cmd.Printf("Published %s.\n", run.PublishedSnapshot)
	case run.Decision == domain.DecisionEmptyDelta:
		cmd.Printf("Upstream returned no records; kept %s.\n", run.SourceSnapshot)
	default:
		cmd.Printf("Snapshot %s is up to date.\n", run.SourceSnapshot)
	}

	cmd.Printf("  Decision: %s\n", run.Decision)
	if !run.UpstreamUpdatedAt.IsZero() {
		cmd.Printf("  Upstream updated: %s\n", domain.Day(run.UpstreamUpdatedAt).Format("2006-01-02"))
	}
	cmd.Printf("  Records: %d cached, %d fetched, %d total\n", run.CachedRows, run.DeltaRows, result.Dataset.Len())
	if result.LocalPath != "" {
		cmd.Printf("  Written to: %s\n", result.LocalPath)
	}
}
