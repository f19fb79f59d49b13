package app

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"
)

var processPendingCmd = &cobra.Command{
	Use:   "process-pending",
	Short: "Promote approved pending registrations",
	Long: `Promote approved, unprocessed library registrations into active libraries
and run their first synchronization. After a batch with promotions the sync
cadence is re-spaced across the day.`,
	RunE: runProcessPending,
}

var rotateDlstatsCmd = &cobra.Command{
	Use:   "rotate-dlstats",
	Short: "Rotate download statistics",
	Long: `Purge download log entries older than the retention window and recompute
the day/week/month download counters.`,
	RunE: runRotateDlstats,
}

var cleanupVersionsCmd = &cobra.Command{
	Use:   "cleanup-versions",
	Short: "Remove stale library versions",
	Long: `Drop all but the most recent versions of every library, removing their
source archives. The latest version is never dropped.`,
	RunE: runCleanupVersions,
}

var deleteLibCmd = &cobra.Command{
	Use:   "delete-lib <id>",
	Short: "Delete a library",
	Long: `Delete a library and everything attached to it: catalog rows, version
archives and published examples.`,
	Args: cobra.ExactArgs(1),
	RunE: runDeleteLib,
}

func init() {
	registryFlags(processPendingCmd)
	registryFlags(rotateDlstatsCmd)
	registryFlags(cleanupVersionsCmd)
	registryFlags(deleteLibCmd)
	deleteLibCmd.Flags().BoolP("yes", "y", false, "Answer yes to all questions")
}

func runProcessPending(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	rt, err := newRuntime(ctx, cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	return rt.scheduler.ProcessPending(ctx)
}

func runRotateDlstats(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	rt, err := newRuntime(ctx, cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	return rt.scheduler.RotateDlstats(ctx)
}

func runCleanupVersions(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	rt, err := newRuntime(ctx, cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	return rt.scheduler.CleanupVersions(ctx)
}

func runDeleteLib(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid library id %q: %w", args[0], err)
	}

	yes, err := cmd.Flags().GetBool("yes")
	if err != nil {
		return fmt.Errorf("failed to get yes flag: %w", err)
	}
	if !yes {
		fmt.Printf("About to permanently delete library %d and its archives.\n", id)
		fmt.Print("Continue? (yes/no): ")
		var response string
		if _, err := fmt.Scanln(&response); err != nil {
			return fmt.Errorf("failed to read user input: %w", err)
		}
		if response != "yes" && response != "y" {
			slog.Info("Deletion cancelled by user")
			return nil
		}
	}

	ctx := context.Background()
	rt, err := newRuntime(ctx, cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	return rt.scheduler.DeleteLibrary(ctx, id)
}
