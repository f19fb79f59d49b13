package archive

import (
	"fmt"
	"path/filepath"
)

// Bucket returns the directory bucket for a library id. Archive and example
// paths are bucketed by floor(id/100) to bound directory fan-out.
func Bucket(libID int64) int64 {
	return libID / 100
}

// LibraryArchiveRelPath returns the archive location relative to the storage
// root for a (library, version) pair.
func LibraryArchiveRelPath(libID, versionID int64) string {
	return filepath.Join(
		"libraries", "archives",
		fmt.Sprintf("%d", Bucket(libID)),
		fmt.Sprintf("%d.tar.gz", versionID),
	)
}

// LibraryArchivePath returns the absolute archive location under storageDir.
func LibraryArchivePath(storageDir string, libID, versionID int64) string {
	return filepath.Join(storageDir, LibraryArchiveRelPath(libID, versionID))
}

// LibraryExamplesDir returns the per-library examples directory under
// storageDir.
func LibraryExamplesDir(storageDir string, libID int64) string {
	return filepath.Join(
		storageDir, "libraries", "examples",
		fmt.Sprintf("%d", Bucket(libID)),
		fmt.Sprintf("%d", libID),
	)
}
