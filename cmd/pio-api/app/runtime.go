package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/platformio/platformio-api/internal/cache"
	"github.com/platformio/platformio-api/internal/config"
	"github.com/platformio/platformio-api/internal/db"
	"github.com/platformio/platformio-api/internal/httpclient"
	"github.com/platformio/platformio-api/internal/sync"
)

// registryFlags adds the flags every catalog-touching command needs.
func registryFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")
	if err := cmd.MarkFlagRequired("config"); err != nil {
		panic(err)
	}
}

// runtime bundles the wired-up service dependencies for one command
// invocation.
type runtime struct {
	cfg         *config.Config
	conn        *db.Connection
	invalidator cache.Invalidator
	scheduler   *sync.Scheduler
}

func newRuntime(ctx context.Context, cmd *cobra.Command) (*runtime, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}

	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Database == nil {
		return nil, fmt.Errorf("database configuration is required")
	}
	if err := os.MkdirAll(cfg.StorageDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	var timeout time.Duration
	if cfg.Download.Timeout != "" {
		timeout, err = time.ParseDuration(cfg.Download.Timeout)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("invalid download timeout %q: %w", cfg.Download.Timeout, err)
		}
	}
	var clientOpts []httpclient.Option
	if cfg.Download.MaxManifestSize > 0 {
		clientOpts = append(clientOpts, httpclient.WithMaxFetchSize(cfg.Download.MaxManifestSize))
	}
	if cfg.Download.MaxArchiveSize > 0 {
		clientOpts = append(clientOpts, httpclient.WithMaxDownloadSize(cfg.Download.MaxArchiveSize))
	}
	client := httpclient.NewDefaultClient(timeout, clientOpts...)

	var invalidator cache.Invalidator = cache.NoopInvalidator{}
	if cfg.Cache != nil {
		invalidator = cache.NewRedisInvalidator(cfg.Cache)
		slog.Info("Cache invalidation enabled", "addr", cfg.Cache.Addr)
	}

	syncer := sync.NewSyncer(client, cfg.StorageDir)
	scheduler := sync.NewScheduler(
		sync.NewSQLStore(conn),
		syncer,
		invalidator,
		cfg.StorageDir,
		sync.WithMaxSyncFailures(cfg.Sync.MaxSyncFailures),
		sync.WithKeepVersions(cfg.Sync.KeepVersions),
	)

	return &runtime{
		cfg:         cfg,
		conn:        conn,
		invalidator: invalidator,
		scheduler:   scheduler,
	}, nil
}

func (r *runtime) Close() {
	if closer, ok := r.invalidator.(*cache.RedisInvalidator); ok {
		if err := closer.Close(); err != nil {
			slog.Error("Error closing cache client", "error", err)
		}
	}
	r.conn.Close()
}
