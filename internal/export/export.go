// Package export materializes a library version's source tree: it obtains a
// working copy from a VCS provider or a plain archive download and applies
// the manifest's include/exclude filtering rules.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/platformio/platformio-api/internal/httpclient"
	"github.com/platformio/platformio-api/internal/vcs"
)

// ErrCannotArchive means no viable source exists: the manifest declares no
// supported repository and no download URL.
var ErrCannotArchive = errors.New("cannot archive library source: no repository client and no download URL")

// Source describes where a library version's tree comes from.
type Source struct {
	// Repo exports trees from the library's repository; nil when the
	// manifest declares no supported repository.
	Repo vcs.Client

	// DownloadURL points at a self-hosted source archive, used when Repo is
	// nil.
	DownloadURL string

	// Version is the resolved version string; it seeds the tag candidates
	// tried before the branch head.
	Version string
}

// Exporter obtains and filters library source trees.
type Exporter struct {
	client httpclient.Client
}

func NewExporter(client httpclient.Client) *Exporter {
	return &Exporter{client: client}
}

// Export materializes the source tree into destDir and applies the rules'
// exclusion and inclusion filters. destDir must not exist or be empty.
func (e *Exporter) Export(ctx context.Context, src Source, rules FilterRules, destDir string) error {
	rawDir, err := os.MkdirTemp("", "libexport-")
	if err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	defer func() {
		_ = os.RemoveAll(rawDir)
	}()

	if err := e.fetchTree(ctx, src, rawDir); err != nil {
		return err
	}
	return Filter(rawDir, destDir, rules)
}

func (e *Exporter) fetchTree(ctx context.Context, src Source, rawDir string) error {
	switch {
	case src.Repo != nil:
		return exportRepository(ctx, src.Repo, rawDir, src.Version)
	case src.DownloadURL != "":
		if err := vcs.DownloadAndUnpack(ctx, e.client, src.DownloadURL, rawDir); err != nil {
			return fmt.Errorf("failed to fetch source archive: %w", err)
		}
		return nil
	default:
		return ErrCannotArchive
	}
}

// exportRepository tries each revision candidate in order and short-circuits
// on the first success. Failed attempts are retained in the returned
// ExportError.
func exportRepository(ctx context.Context, repo vcs.Client, destDir, version string) error {
	var attempts []vcs.ExportAttempt
	for _, revision := range revisionCandidates(ctx, repo, version) {
		if err := resetDir(destDir); err != nil {
			return err
		}
		err := repo.Export(ctx, destDir, revision)
		if err == nil {
			return nil
		}
		attempts = append(attempts, vcs.ExportAttempt{Revision: revision, Err: err})
	}
	return &vcs.ExportError{Attempts: attempts}
}

// revisionCandidates orders the revisions to try. Providers with a tag
// listing API resolve the version to a tag up front, so only the resolved
// tag (or only the branch head, when no tag matches) is attempted; the rest
// probe both tag-naming conventions before the branch head.
func revisionCandidates(ctx context.Context, repo vcs.Client, version string) []string {
	if version == "" {
		return []string{""}
	}
	if resolver, ok := repo.(vcs.TagResolver); ok {
		tag, err := resolver.ResolveTag(ctx, version)
		if err != nil {
			return []string{""}
		}
		return []string{tag, ""}
	}
	return []string{"v" + version, version, ""}
}

func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to reset export directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	return nil
}
