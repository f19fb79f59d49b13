// Package sync drives the library synchronization pipeline: manifest
// resolution, source export, archival and catalog reconciliation, plus the
// scheduler that decides which libraries are due.
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/platformio/platformio-api/internal/archive"
	"github.com/platformio/platformio-api/internal/db/sqlc"
	"github.com/platformio/platformio-api/internal/export"
	"github.com/platformio/platformio-api/internal/httpclient"
	"github.com/platformio/platformio-api/internal/manifest"
	"github.com/platformio/platformio-api/internal/vcs"
)

// shaVersionLength is how many commit SHA characters form a synthesized
// version name.
const shaVersionLength = 10

// maxVersionLength matches the lib_versions.name column width.
const maxVersionLength = 100

// originalManifestName is the provenance copy of the author-supplied
// manifest stored next to the normalized library.json in each archive.
const originalManifestName = ".library.orig"

var versionRe = regexp.MustCompile(`(?i)^[a-z0-9.\-+]+$`)

// InvalidVersionError indicates a resolved version string that fails the
// strict version pattern.
type InvalidVersionError struct {
	Version string
}

func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("invalid version %q", e.Version)
}

// Resolver fetches and normalizes manifest documents.
type Resolver interface {
	Resolve(ctx context.Context, confURL string) (*manifest.Resolved, error)
}

// VCSFactory builds a provider client for a repository declaration.
type VCSFactory func(repoType, repoURL string, opts vcs.Options) (vcs.Client, error)

// Syncer synchronizes a single library: resolve manifest, detect changes,
// export and archive the source tree, reconcile catalog metadata.
type Syncer struct {
	resolver     Resolver
	client       httpclient.Client
	exporter     *export.Exporter
	storageDir   string
	newVCSClient VCSFactory
	now          func() time.Time
}

func NewSyncer(client httpclient.Client, storageDir string) *Syncer {
	return &Syncer{
		resolver:     manifest.NewResolver(client),
		client:       client,
		exporter:     export.NewExporter(client),
		storageDir:   storageDir,
		newVCSClient: vcs.NewClient,
		now:          time.Now,
	}
}

// SyncLib runs the full pipeline for one library inside the caller's
// transaction. An unchanged manifest hash only refreshes the synced
// timestamp; no new version row, no re-archival.
func (s *Syncer) SyncLib(ctx context.Context, c Catalog, lib sqlc.Lib) error {
	res, err := s.resolver.Resolve(ctx, lib.ConfURL)
	if err != nil {
		return err
	}
	cfg := res.Config

	repo, err := s.repoClient(cfg)
	if err != nil {
		return err
	}

	versionName, released, err := s.resolveVersion(ctx, cfg, repo, lib.ConfURL)
	if err != nil {
		return err
	}
	cfg.Version = versionName

	now := s.now().UTC()
	hash := cfg.Hash()
	if hash == lib.ConfSha1 {
		slog.Debug("Library manifest unchanged", "lib", lib.ID, "sha1", hash)
		return c.TouchLibSynced(ctx, sqlc.TouchLibSyncedParams{ID: lib.ID, Synced: now})
	}

	version, err := c.GetLibVersionByName(ctx, sqlc.GetLibVersionByNameParams{
		LibID: lib.ID,
		Name:  versionName,
	})
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		version, err = c.InsertLibVersion(ctx, sqlc.InsertLibVersionParams{
			LibID:    lib.ID,
			Name:     versionName,
			Released: released,
		})
		if err != nil {
			return fmt.Errorf("failed to create version %q: %w", versionName, err)
		}
	case err != nil:
		return fmt.Errorf("failed to look up version %q: %w", versionName, err)
	}

	exportDir, cleanup, err := s.stageExport(ctx, cfg, repo, res.Original, versionName)
	if err != nil {
		return err
	}
	defer cleanup()

	archivePath := archive.LibraryArchivePath(s.storageDir, lib.ID, version.ID)
	if err := archive.Create(archivePath, exportDir); err != nil {
		return fmt.Errorf("failed to archive version %q: %w", versionName, err)
	}

	exampleFiles := discoverExamples(exportDir, cfg.ExampleGlobs)
	if err := s.publishExamples(lib.ID, exampleFiles); err != nil {
		return err
	}

	authors := cfg.Authors
	if len(authors) == 0 {
		authors = ownerFallback(ctx, repo)
	}

	if err := s.syncAuthors(ctx, c, lib.ID, authors); err != nil {
		return err
	}
	if err := s.syncKeywords(ctx, c, lib.ID, cfg.Keywords); err != nil {
		return err
	}
	if err := s.syncFrameworksAndPlatforms(ctx, c, lib.ID, cfg); err != nil {
		return err
	}
	if err := s.syncAttributes(ctx, c, lib.ID, cfg); err != nil {
		return err
	}
	headerCount, err := s.syncHeaders(ctx, c, lib.ID, exportDir)
	if err != nil {
		return err
	}
	exampleCount, err := s.syncExamples(ctx, c, lib.ID, exampleFiles)
	if err != nil {
		return err
	}

	if err := c.UpdateLibAfterSync(ctx, sqlc.UpdateLibAfterSyncParams{
		ID:              lib.ID,
		ConfSha1:        hash,
		LatestVersionID: pgtype.Int8{Int64: version.ID, Valid: true},
		ExampleNums:     exampleCount,
		HeaderNums:      headerCount,
		Synced:          now,
		Updated:         now,
	}); err != nil {
		return fmt.Errorf("failed to update library %d: %w", lib.ID, err)
	}

	slog.Info("Library synchronized",
		"lib", lib.ID, "name", cfg.Name, "version", versionName, "examples", exampleCount, "headers", headerCount)
	return nil
}

// repoClient builds the provider client for the manifest's repository.
// An unsupported provider is tolerated only when a download URL offers an
// alternative source.
func (s *Syncer) repoClient(cfg *manifest.Config) (vcs.Client, error) {
	if cfg.Repository == nil {
		return nil, nil
	}
	repo, err := s.newVCSClient(cfg.Repository.Type, cfg.Repository.URL, vcs.Options{
		HTTPClient: s.client,
		Branch:     cfg.Repository.Branch,
	})
	if err != nil {
		if cfg.DownloadURL != "" {
			slog.Warn("No provider client for repository, falling back to download URL",
				"url", cfg.Repository.URL, "error", err)
			return nil, nil
		}
		return nil, err
	}
	return repo, nil
}

// resolveVersion returns the version name and release time: the manifest's
// declared version, or one synthesized from the last commit when the
// manifest omits it.
func (s *Syncer) resolveVersion(
	ctx context.Context, cfg *manifest.Config, repo vcs.Client, confURL string,
) (string, time.Time, error) {
	if cfg.Version != "" {
		if len(cfg.Version) > maxVersionLength || !versionRe.MatchString(cfg.Version) {
			return "", time.Time{}, &InvalidVersionError{Version: cfg.Version}
		}
		return cfg.Version, s.now().UTC(), nil
	}

	if repo == nil {
		return "", time.Time{}, fmt.Errorf("manifest declares no version and no repository to derive one from")
	}
	commit, err := repo.LastCommit(ctx, manifest.RepoPath(confURL))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to derive version from last commit: %w", err)
	}
	name := commit.SHA
	if len(name) > shaVersionLength {
		name = name[:shaVersionLength]
	}
	if !versionRe.MatchString(name) {
		return "", time.Time{}, &InvalidVersionError{Version: name}
	}
	return name, commit.Date, nil
}

// stageExport materializes the filtered source tree and writes the manifest
// artifacts into it. The returned cleanup removes the staging directory.
func (s *Syncer) stageExport(
	ctx context.Context, cfg *manifest.Config, repo vcs.Client, original []byte, version string,
) (string, func(), error) {
	stagingDir, err := os.MkdirTemp("", "libsync-")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	cleanup := func() {
		_ = os.RemoveAll(stagingDir)
	}

	exportDir := filepath.Join(stagingDir, "export")
	err = s.exporter.Export(ctx,
		export.Source{Repo: repo, DownloadURL: cfg.DownloadURL, Version: version},
		export.FilterRules{Include: cfg.Include, IncludeMount: cfg.IncludeMount, Exclude: cfg.Exclude},
		exportDir)
	if err != nil {
		cleanup()
		return "", nil, err
	}

	if err := writeManifestArtifacts(exportDir, cfg, original); err != nil {
		cleanup()
		return "", nil, err
	}
	return exportDir, cleanup, nil
}

// writeManifestArtifacts stores the normalized configuration for
// programmatic consumers and the verbatim original document for provenance.
func writeManifestArtifacts(exportDir string, cfg *manifest.Config, original []byte) error {
	normalized, err := json.MarshalIndent(normalizedManifest(cfg), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode normalized manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(exportDir, "library.json"), normalized, 0o644); err != nil {
		return fmt.Errorf("failed to write normalized manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(exportDir, originalManifestName), original, 0o644); err != nil {
		return fmt.Errorf("failed to write original manifest: %w", err)
	}
	return nil
}

func normalizedManifest(cfg *manifest.Config) map[string]any {
	doc := map[string]any{
		"name":        cfg.Name,
		"version":     cfg.Version,
		"description": cfg.Description,
		"keywords":    cleanKeywords(cfg.Keywords),
	}
	if len(cfg.Frameworks) > 0 {
		doc["frameworks"] = cfg.Frameworks
	}
	if len(cfg.Platforms) > 0 {
		doc["platforms"] = cfg.Platforms
	}
	if len(cfg.Authors) > 0 {
		authors := make([]map[string]any, 0, len(cfg.Authors))
		for _, author := range cfg.Authors {
			authors = append(authors, map[string]any{
				"name":       author.Name,
				"email":      author.Email,
				"url":        author.URL,
				"maintainer": author.Maintainer,
			})
		}
		doc["authors"] = authors
	}
	if cfg.Repository != nil {
		doc["repository"] = map[string]any{
			"type": cfg.Repository.Type,
			"url":  cfg.Repository.URL,
		}
	}
	if cfg.Homepage != "" {
		doc["homepage"] = cfg.Homepage
	}
	if cfg.License != "" {
		doc["license"] = cfg.License
	}
	if cfg.DownloadURL != "" {
		doc["downloadUrl"] = cfg.DownloadURL
	}
	if len(cfg.Dependencies) > 0 {
		deps := make([]map[string]string, 0, len(cfg.Dependencies))
		for _, dep := range cfg.Dependencies {
			entry := map[string]string{"name": dep.Name}
			if dep.Version != "" {
				entry["version"] = dep.Version
			}
			deps = append(deps, entry)
		}
		doc["dependencies"] = deps
	}
	return doc
}

// publishExamples copies discovered example files into the library's
// bucketed examples directory, replacing the previous set.
func (s *Syncer) publishExamples(libID int64, files []string) error {
	examplesDir := archive.LibraryExamplesDir(s.storageDir, libID)
	if err := os.RemoveAll(examplesDir); err != nil {
		return fmt.Errorf("failed to clear examples directory: %w", err)
	}
	if len(files) == 0 {
		return nil
	}
	if err := os.MkdirAll(examplesDir, 0o755); err != nil {
		return fmt.Errorf("failed to create examples directory: %w", err)
	}
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read example %s: %w", file, err)
		}
		target := filepath.Join(examplesDir, filepath.Base(file))
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return fmt.Errorf("failed to publish example %s: %w", file, err)
		}
	}
	return nil
}

func ownerFallback(ctx context.Context, repo vcs.Client) []manifest.Author {
	lookup, ok := repo.(vcs.OwnerLookup)
	if !ok {
		return nil
	}
	owner, err := lookup.Owner(ctx)
	if err != nil || owner.Name == "" {
		return nil
	}
	return []manifest.Author{{
		Name:       owner.Name,
		Email:      owner.Email,
		URL:        owner.URL,
		Maintainer: true,
	}}
}
