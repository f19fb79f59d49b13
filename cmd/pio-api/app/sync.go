package app

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize all libraries that are due",
	Long: `Synchronize every active library whose backoff-adjusted sync interval has
elapsed. Each library's pipeline runs in its own transaction; a failure is
recorded against that library and does not abort the batch.`,
	RunE: runSync,
}

var syncLibCmd = &cobra.Command{
	Use:   "sync-lib <id>",
	Short: "Synchronize one library immediately",
	Long:  `Synchronize a single library by id, regardless of its schedule.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSyncLib,
}

func init() {
	registryFlags(syncCmd)
	registryFlags(syncLibCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	rt, err := newRuntime(ctx, cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	return rt.scheduler.SyncDue(ctx)
}

func runSyncLib(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid library id %q: %w", args[0], err)
	}

	ctx := context.Background()
	rt, err := newRuntime(ctx, cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	return rt.scheduler.SyncLibByID(ctx, id)
}
