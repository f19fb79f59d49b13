package export

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/gobwas/glob"
)

// FilterRules carries the manifest's export filtering declarations.
type FilterRules struct {
	// Include lists glob patterns; only matched paths (and their subtrees)
	// are copied. Empty means everything.
	Include []string

	// IncludeMount names a single path whose contents become the new root.
	// Mutually exclusive with Include.
	IncludeMount string

	// Exclude lists glob patterns removed before inclusion applies.
	Exclude []string
}

// Filter copies srcDir into destDir applying exclusion first, then
// inclusion. Symlinks are preserved. Patterns match slash-separated paths
// relative to srcDir.
func Filter(srcDir, destDir string, rules FilterRules) error {
	excludeGlobs, err := compileGlobs(rules.Exclude)
	if err != nil {
		return fmt.Errorf("invalid exclude pattern: %w", err)
	}

	if rules.IncludeMount != "" {
		return copyMountPoint(srcDir, destDir, rules.IncludeMount, excludeGlobs)
	}

	includeGlobs, err := compileGlobs(rules.Include)
	if err != nil {
		return fmt.Errorf("invalid include pattern: %w", err)
	}
	return copyFiltered(srcDir, destDir, srcDir, includeGlobs, excludeGlobs)
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		compiled, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("%q: %w", pattern, err)
		}
		globs = append(globs, compiled)
	}
	return globs, nil
}

// matchesWithAncestors reports whether rel or any of its parent directories
// matches one of the globs, so that a matched directory covers its subtree.
func matchesWithAncestors(rel string, globs []glob.Glob) bool {
	for current := rel; current != "" && current != "."; current = parentPath(current) {
		for _, g := range globs {
			if g.Match(current) {
				return true
			}
		}
	}
	return false
}

func parentPath(rel string) string {
	parent := path.Dir(rel)
	if parent == "." {
		return ""
	}
	return parent
}

// copyMountPoint treats mount as the new tree root: a directory's contents
// are copied up one level, a single file is copied by name.
func copyMountPoint(srcDir, destDir, mount string, excludeGlobs []glob.Glob) error {
	mountPath := filepath.Join(srcDir, filepath.FromSlash(mount))
	info, err := os.Lstat(mountPath)
	if err != nil {
		return fmt.Errorf("include path %q not found in source tree: %w", mount, err)
	}

	if !info.IsDir() {
		if matchesWithAncestors(mount, excludeGlobs) {
			return os.MkdirAll(destDir, 0o755)
		}
		if err := os.MkdirAll(destDir, 0o755); err != nil {
			return err
		}
		return copyEntry(mountPath, filepath.Join(destDir, info.Name()), info)
	}
	return copyFiltered(mountPath, destDir, srcDir, nil, excludeGlobs)
}

// copyFiltered walks walkRoot and copies surviving entries into destDir.
// Exclusion patterns are evaluated against paths relative to matchRoot so
// mount-point copies still honor manifest-root-relative excludes.
func copyFiltered(walkRoot, destDir, matchRoot string, includeGlobs, excludeGlobs []glob.Glob) error {
	return filepath.Walk(walkRoot, func(fsPath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(walkRoot, fsPath)
		if err != nil {
			return err
		}
		if rel == "." {
			return os.MkdirAll(destDir, 0o755)
		}

		matchRel, err := filepath.Rel(matchRoot, fsPath)
		if err != nil {
			return err
		}
		if matchesWithAncestors(filepath.ToSlash(matchRel), excludeGlobs) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if len(includeGlobs) > 0 && !info.IsDir() &&
			!matchesWithAncestors(filepath.ToSlash(rel), includeGlobs) {
			return nil
		}

		target := filepath.Join(destDir, rel)
		if info.IsDir() {
			// Directories are created lazily by copyEntry so an include
			// filter does not leave empty scaffolding behind.
			return nil
		}
		return copyEntry(fsPath, target, info)
	})
}

func copyEntry(src, dst string, info os.FileInfo) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		link, err := os.Readlink(src)
		if err != nil {
			return err
		}
		return os.Symlink(link, dst)
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = in.Close()
	}()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	_, err = io.Copy(out, in)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	return err
}
