package app

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"
)

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back database migrations",
	Long: `Roll back database migrations. By default every migration is reverted;
use --num-steps to roll back a fixed number of versions.`,
	RunE: runMigrateDown,
}

func runMigrateDown(cmd *cobra.Command, _ []string) error {
	m, cfg, err := newMigrator(cmd)
	if err != nil {
		return err
	}

	numSteps, err := cmd.Flags().GetUint("num-steps")
	if err != nil {
		return fmt.Errorf("failed to get num-steps flag: %w", err)
	}

	what := "ALL migrations"
	if numSteps > 0 {
		what = fmt.Sprintf("%d migration step(s)", numSteps)
	}
	ok, err := confirmMigration(cmd, fmt.Sprintf(
		"About to roll back %s on database: %s@%s:%d/%s. This may destroy data.",
		what, cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database))
	if err != nil || !ok {
		return err
	}

	slog.Info("Rolling back database migrations")
	if numSteps > 0 {
		err = m.Steps(-int(numSteps))
	} else {
		err = m.Down()
	}
	if errors.Is(err, migrate.ErrNoChange) {
		slog.Info("No migrations to roll back")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to roll back migrations: %w", err)
	}

	slog.Info("Migrations rolled back successfully")
	return nil
}
