package vcs

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/platformio/platformio-api/internal/archive"
	"github.com/platformio/platformio-api/internal/httpclient"
)

// DownloadAndUnpack fetches an archive into a temp file, extracts it into
// destDir and collapses the provider's single wrapping directory.
func DownloadAndUnpack(ctx context.Context, client httpclient.Client, archiveURL, destDir string) error {
	// Extraction dispatches on the file suffix, so the temp file has to
	// keep the URL's archive format.
	tmp, err := os.CreateTemp("", "vcs-archive-*"+archiveSuffix(archiveURL))
	if err != nil {
		return fmt.Errorf("failed to create temporary archive file: %w", err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if err := client.Download(ctx, archiveURL, tmpPath); err != nil {
		return fmt.Errorf("failed to download %s: %w", archiveURL, err)
	}
	if err := archive.Extract(tmpPath, destDir); err != nil {
		return fmt.Errorf("failed to unpack %s: %w", archiveURL, err)
	}
	return archive.FlattenSingleDir(destDir)
}

func archiveSuffix(archiveURL string) string {
	archivePath := archiveURL
	if u, err := url.Parse(archiveURL); err == nil && u.Path != "" {
		archivePath = u.Path
	}
	switch {
	case strings.HasSuffix(archivePath, ".zip"):
		return ".zip"
	case strings.HasSuffix(archivePath, ".tgz"):
		return ".tgz"
	default:
		return ".tar.gz"
	}
}
