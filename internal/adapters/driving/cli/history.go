package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/grantsync/internal/core/domain"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List recorded sync runs, or show one run in detail",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum runs to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	svc, err := getSyncService(settings, true)
	if err != nil {
		return err
	}

	if len(args) == 1 {
		run, err := svc.Run(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("failed to get run: %w", err)
		}
		printRun(cmd, run)
		return nil
	}

	runs, err := svc.History(context.Background(), settings.Dataset.ID, historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		cmd.Println("No runs recorded.")
		return nil
	}

	for _, run := range runs {
		cmd.Printf("%s  %-11s  %s\n", run.StartedAt.UTC().Format(time.DateTime), run.Decision, runSummary(run.PublishedSnapshot, run.SourceSnapshot))
		if run.Error != "" {
			cmd.Printf("    error: %s\n", run.Error)
		}
	}
	return nil
}

func printRun(cmd *cobra.Command, run *domain.SyncRun) {
	cmd.Printf("Run %s\n", run.ID)
	cmd.Printf("  Dataset: %s\n", run.DatasetID)
	cmd.Printf("  Decision: %s\n", run.Decision)
	cmd.Printf("  Started: %s\n", run.StartedAt.UTC().Format(time.RFC3339))
	if !run.FinishedAt.IsZero() {
		cmd.Printf("  Finished: %s\n", run.FinishedAt.UTC().Format(time.RFC3339))
	}
	cmd.Printf("  Source: %s\n", valueOrUnset(run.SourceSnapshot))
	if run.PublishedSnapshot != "" {
		cmd.Printf("  Published: %s\n", run.PublishedSnapshot)
	}
	if !run.UpstreamUpdatedAt.IsZero() {
		cmd.Printf("  Upstream updated: %s\n", run.UpstreamUpdatedAt.UTC().Format(time.RFC3339))
	}
	cmd.Printf("  Rows: %d cached, %d delta, %d merged\n", run.CachedRows, run.DeltaRows, run.MergedRows)
	if run.Error != "" {
		cmd.Printf("  Error: %s\n", run.Error)
	}
}

func runSummary(published, source string) string {
	switch {
	case published != "":
		return "-> " + published
	case source != "":
		return source
	default:
		return "-"
	}
}
