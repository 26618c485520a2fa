package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/grantsync/internal/core/domain"
)

var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Show the most recent cached snapshot",
	Args:  cobra.NoArgs,
	RunE:  runLatest,
}

func init() {
	rootCmd.AddCommand(latestCmd)
}

func runLatest(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	svc, err := getSyncService(settings, settings.Sync.History)
	if err != nil {
		return err
	}

	ctx := context.Background()
	snap, err := svc.LatestSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to find snapshot: %w", err)
	}

	cmd.Println(snap.Name)
	cmd.Printf("  Date: %s\n", snap.Date.Format(time.DateOnly))
	cmd.Printf("  Last modified: %s\n", snap.LastModified.UTC().Format(time.RFC3339))

	run, err := svc.LastSuccess(ctx, settings.Dataset.ID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("failed to read run history: %w", err)
	}
	cmd.Printf("  Last refresh: %s (%s)\n", run.StartedAt.UTC().Format(time.RFC3339), run.Decision)
	return nil
}
