package sync

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/platformio/platformio-api/internal/archive"
	"github.com/platformio/platformio-api/internal/cache"
	"github.com/platformio/platformio-api/internal/db/sqlc"
)

const (
	// defaultMaxSyncFailures deactivates a library once its consecutive
	// failure count reaches this value.
	defaultMaxSyncFailures = 50

	// defaultKeepVersions is how many recent versions cleanup retains.
	defaultKeepVersions = 10

	// dllogRetention is how long raw download log entries are kept.
	dllogRetention = 30 * 24 * time.Hour
)

// Scheduler decides which libraries are due, promotes approved pending
// registrations and runs the maintenance operations.
type Scheduler struct {
	store       Store
	syncer      *Syncer
	invalidator cache.Invalidator
	storageDir  string

	maxSyncFailures int32
	keepVersions    int64
	now             func() time.Time
}

// SchedulerOption adjusts scheduler policy.
type SchedulerOption func(*Scheduler)

func WithMaxSyncFailures(n int32) SchedulerOption {
	return func(s *Scheduler) {
		if n > 0 {
			s.maxSyncFailures = n
		}
	}
}

func WithKeepVersions(n int) SchedulerOption {
	return func(s *Scheduler) {
		if n > 0 {
			s.keepVersions = int64(n)
		}
	}
}

func NewScheduler(
	store Store, syncer *Syncer, invalidator cache.Invalidator, storageDir string, opts ...SchedulerOption,
) *Scheduler {
	s := &Scheduler{
		store:           store,
		syncer:          syncer,
		invalidator:     invalidator,
		storageDir:      storageDir,
		maxSyncFailures: defaultMaxSyncFailures,
		keepVersions:    defaultKeepVersions,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProcessPending promotes approved, unprocessed registrations into active
// libraries. Each item is marked processed whether its first sync succeeds
// or fails, so it is never retried as a pending item. After a batch with
// promotions the sync cadence is re-spaced.
func (s *Scheduler) ProcessPending(ctx context.Context) error {
	c := s.store.Catalog()
	pending, err := c.ListApprovedUnprocessedPendingLibs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list pending registrations: %w", err)
	}

	promoted := 0
	for _, item := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		// One bad registration never halts the batch; the item stays
		// unprocessed and is retried on the next run.
		ok, err := s.promotePending(ctx, item)
		if err != nil {
			slog.Error("Failed to promote pending registration",
				"pending", item.ID, "conf_url", item.ConfURL, "error", err)
			continue
		}
		if ok {
			promoted++
		}
	}

	if promoted > 0 {
		if err := s.smoothCadence(ctx); err != nil {
			return err
		}
		if err := s.invalidator.Invalidate(ctx, "pending-processed"); err != nil {
			slog.Warn("Cache invalidation failed", "error", err)
		}
	}
	return nil
}

// promotePending assigns the smallest unused library id, creates the
// library and its dlstats row, and attempts an immediate first sync.
// Reports whether a new library was created.
func (s *Scheduler) promotePending(ctx context.Context, item sqlc.PendingLib) (bool, error) {
	c := s.store.Catalog()

	exists, err := c.ExistsLibWithConfURL(ctx, item.ConfURL)
	if err != nil {
		return false, fmt.Errorf("failed to check conf_url %s: %w", item.ConfURL, err)
	}
	if exists {
		slog.Info("Skipping pending registration, library already exists", "conf_url", item.ConfURL)
		return false, c.MarkPendingLibProcessed(ctx, item.ID)
	}

	var lib sqlc.Lib
	err = s.store.InTx(ctx, func(tc Catalog) error {
		id, err := tc.SmallestUnusedLibID(ctx)
		if err != nil {
			return fmt.Errorf("failed to allocate library id: %w", err)
		}
		lib, err = tc.InsertLib(ctx, sqlc.InsertLibParams{
			ID:      id,
			ConfURL: item.ConfURL,
			Synced:  s.now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("failed to create library: %w", err)
		}
		if err := tc.InsertLibDlstat(ctx, id); err != nil {
			return fmt.Errorf("failed to create dlstats row: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	slog.Info("Promoted pending registration", "lib", lib.ID, "conf_url", item.ConfURL)
	// First sync failures leave the library in place with its failure
	// counter started; the pending item is finished either way.
	s.syncOne(ctx, lib)
	return true, c.MarkPendingLibProcessed(ctx, item.ID)
}

// SyncDue synchronizes every active library whose backoff-adjusted interval
// has elapsed. A failure aborts only that library's unit of work.
func (s *Scheduler) SyncDue(ctx context.Context) error {
	due, err := s.store.Catalog().ListLibsDueForSync(ctx, s.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to list due libraries: %w", err)
	}
	slog.Info("Synchronizing due libraries", "count", len(due))
	for _, lib := range due {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.syncOne(ctx, lib)
	}
	return nil
}

// SyncLibByID synchronizes one library immediately, regardless of schedule.
func (s *Scheduler) SyncLibByID(ctx context.Context, id int64) error {
	lib, err := s.store.Catalog().GetLib(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load library %d: %w", id, err)
	}
	if !s.syncOne(ctx, lib) {
		return fmt.Errorf("synchronization of library %d failed", id)
	}
	return nil
}

// syncOne runs one library's pipeline in a transaction. On failure the
// transaction is rolled back and the failure counter is bumped outside it;
// crossing the failure ceiling deactivates the library.
func (s *Scheduler) syncOne(ctx context.Context, lib sqlc.Lib) bool {
	err := s.store.InTx(ctx, func(tc Catalog) error {
		return s.syncer.SyncLib(ctx, tc, lib)
	})
	if err == nil {
		return true
	}

	slog.Error("Library synchronization failed", "lib", lib.ID, "conf_url", lib.ConfURL, "error", err)
	c := s.store.Catalog()
	failures, ferr := c.IncrementLibSyncFailures(ctx, sqlc.IncrementLibSyncFailuresParams{
		ID:     lib.ID,
		Synced: s.now().UTC(),
	})
	if ferr != nil {
		slog.Error("Failed to record sync failure", "lib", lib.ID, "error", ferr)
		return false
	}
	if failures >= s.maxSyncFailures {
		if derr := c.DeactivateLib(ctx, lib.ID); derr != nil {
			slog.Error("Failed to deactivate library", "lib", lib.ID, "error", derr)
			return false
		}
		slog.Warn("Library deactivated after repeated failures", "lib", lib.ID, "failures", failures)
	}
	return false
}

// smoothCadence re-spaces every library's synced timestamp evenly across
// the preceding 24 hours so re-sync load is spread rather than bursty.
func (s *Scheduler) smoothCadence(ctx context.Context) error {
	c := s.store.Catalog()
	count, err := c.CountLibs(ctx)
	if err != nil {
		return fmt.Errorf("failed to count libraries: %w", err)
	}
	if count == 0 {
		return nil
	}
	interval := int64(86400) / count
	if int64(86400)%count != 0 {
		interval++
	}
	return c.SmoothLibSyncTimes(ctx, sqlc.SmoothLibSyncTimesParams{
		Now:             s.now().UTC(),
		IntervalSeconds: interval,
	})
}

// RotateDlstats purges stale download log entries and recomputes the
// day/week/month counters.
func (s *Scheduler) RotateDlstats(ctx context.Context) error {
	now := s.now().UTC()
	err := s.store.InTx(ctx, func(tc Catalog) error {
		if err := tc.DeleteOldDllogEntries(ctx, now.Add(-dllogRetention)); err != nil {
			return fmt.Errorf("failed to purge download log: %w", err)
		}
		if err := tc.RecalculateLibDlstats(ctx, now); err != nil {
			return fmt.Errorf("failed to recalculate download stats: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := s.invalidator.Invalidate(ctx, "dlstats-rotated"); err != nil {
		slog.Warn("Cache invalidation failed", "error", err)
	}
	return nil
}

// DeleteLibrary removes a library's archives, published examples and
// catalog rows.
func (s *Scheduler) DeleteLibrary(ctx context.Context, id int64) error {
	c := s.store.Catalog()
	versions, err := c.ListLibVersions(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to list versions of library %d: %w", id, err)
	}

	if err := c.DeleteLib(ctx, id); err != nil {
		return fmt.Errorf("failed to delete library %d: %w", id, err)
	}

	for _, version := range versions {
		s.removeVersionArchive(id, version.ID)
	}
	if err := os.RemoveAll(archive.LibraryExamplesDir(s.storageDir, id)); err != nil {
		slog.Warn("Failed to remove examples directory", "lib", id, "error", err)
	}

	slog.Info("Library deleted", "lib", id, "versions", len(versions))
	if err := s.invalidator.Invalidate(ctx, "library-deleted"); err != nil {
		slog.Warn("Cache invalidation failed", "error", err)
	}
	return nil
}

// CleanupVersions drops all but the most recent versions of every library,
// removing their archives. The latest version is never dropped.
func (s *Scheduler) CleanupVersions(ctx context.Context) error {
	c := s.store.Catalog()
	ids, err := c.ListLibIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list libraries: %w", err)
	}

	removed := 0
	for _, libID := range ids {
		lib, err := c.GetLib(ctx, libID)
		if err != nil {
			return fmt.Errorf("failed to load library %d: %w", libID, err)
		}
		stale, err := c.ListStaleLibVersions(ctx, sqlc.ListStaleLibVersionsParams{
			LibID: libID,
			Keep:  s.keepVersions,
		})
		if err != nil {
			return fmt.Errorf("failed to list stale versions of library %d: %w", libID, err)
		}
		for _, version := range stale {
			if lib.LatestVersionID.Valid && lib.LatestVersionID.Int64 == version.ID {
				continue
			}
			if err := c.DeleteLibVersion(ctx, version.ID); err != nil {
				return fmt.Errorf("failed to delete version %d: %w", version.ID, err)
			}
			s.removeVersionArchive(libID, version.ID)
			removed++
		}
	}

	slog.Info("Stale versions cleaned up", "removed", removed)
	if removed > 0 {
		if err := s.invalidator.Invalidate(ctx, "versions-cleaned"); err != nil {
			slog.Warn("Cache invalidation failed", "error", err)
		}
	}
	return nil
}

func (s *Scheduler) removeVersionArchive(libID, versionID int64) {
	path := archive.LibraryArchivePath(s.storageDir, libID, versionID)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to remove version archive", "path", path, "error", err)
	}
}
