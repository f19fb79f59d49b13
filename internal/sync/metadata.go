package sync

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/platformio/platformio-api/internal/db/sqlc"
	"github.com/platformio/platformio-api/internal/manifest"
)

// keywordSplitThreshold forces oversized keyword tokens to be re-split on
// whitespace; a guard against keyword blobs, not linguistic tokenization.
const keywordSplitThreshold = 20

// examplesSearchDepth bounds example discovery under the examples/ folder.
const examplesSearchDepth = 3

var headerExtensions = map[string]struct{}{
	".h":   {},
	".hpp": {},
}

var exampleExtensions = []string{"ino", "pde", "c", "cpp"}

// cleanKeywords normalizes a manifest keyword list: lower-case, comma
// handled upstream, de-duplicated, oversized tokens split into sub-tokens.
func cleanKeywords(keywords []string) []string {
	var result []string
	seen := make(map[string]struct{})
	add := func(word string) {
		word = strings.TrimSpace(strings.ToLower(word))
		if word == "" {
			return
		}
		if _, ok := seen[word]; ok {
			return
		}
		seen[word] = struct{}{}
		result = append(result, word)
	}

	for _, keyword := range keywords {
		for _, token := range strings.Split(keyword, ",") {
			token = strings.TrimSpace(token)
			if len(token) > keywordSplitThreshold {
				for _, sub := range strings.Fields(token) {
					add(sub)
				}
				continue
			}
			add(token)
		}
	}
	return result
}

func (s *Syncer) syncAuthors(ctx context.Context, c Catalog, libID int64, authors []manifest.Author) error {
	if err := c.DeleteLibAuthors(ctx, libID); err != nil {
		return fmt.Errorf("failed to clear library authors: %w", err)
	}
	linked := make(map[int64]struct{})
	for _, author := range authors {
		if author.Name == "" {
			continue
		}
		row, err := c.UpsertAuthor(ctx, sqlc.UpsertAuthorParams{
			Name:  author.Name,
			Email: author.Email,
			Url:   author.URL,
		})
		if err != nil {
			return fmt.Errorf("failed to upsert author %q: %w", author.Name, err)
		}
		if _, ok := linked[row.ID]; ok {
			continue
		}
		linked[row.ID] = struct{}{}
		if err := c.InsertLibAuthor(ctx, sqlc.InsertLibAuthorParams{
			LibID:      libID,
			AuthorID:   row.ID,
			Maintainer: author.Maintainer,
		}); err != nil {
			return fmt.Errorf("failed to link author %q: %w", author.Name, err)
		}
	}
	return nil
}

func (s *Syncer) syncKeywords(ctx context.Context, c Catalog, libID int64, keywords []string) error {
	if err := c.DeleteLibKeywords(ctx, libID); err != nil {
		return fmt.Errorf("failed to clear library keywords: %w", err)
	}
	for _, keyword := range cleanKeywords(keywords) {
		row, err := c.UpsertKeyword(ctx, keyword)
		if err != nil {
			return fmt.Errorf("failed to upsert keyword %q: %w", keyword, err)
		}
		if err := c.InsertLibKeyword(ctx, sqlc.InsertLibKeywordParams{
			LibID:     libID,
			KeywordID: row.ID,
		}); err != nil {
			return fmt.Errorf("failed to link keyword %q: %w", keyword, err)
		}
	}
	return nil
}

// syncFrameworksAndPlatforms rebuilds both associations. Frameworks and
// platforms are a closed vocabulary: unknown names are skipped with a log
// entry, never auto-created. The "*" sentinel expands to the full
// vocabulary; when both lists are wildcarded the frameworks are restricted
// to those compatible with the selected platforms.
func (s *Syncer) syncFrameworksAndPlatforms(ctx context.Context, c Catalog, libID int64, cfg *manifest.Config) error {
	allPlatforms, err := c.ListPlatforms(ctx)
	if err != nil {
		return fmt.Errorf("failed to list platforms: %w", err)
	}

	platforms := selectPlatforms(cfg.Platforms, allPlatforms)
	bothWildcarded := isWildcard(cfg.Platforms) && isWildcard(cfg.Frameworks)

	var frameworks []sqlc.Framework
	if bothWildcarded {
		ids := make([]int64, 0, len(platforms))
		for _, p := range platforms {
			ids = append(ids, p.ID)
		}
		frameworks, err = c.ListFrameworksForPlatforms(ctx, ids)
		if err != nil {
			return fmt.Errorf("failed to list compatible frameworks: %w", err)
		}
	} else {
		allFrameworks, err := c.ListFrameworks(ctx)
		if err != nil {
			return fmt.Errorf("failed to list frameworks: %w", err)
		}
		frameworks = selectFrameworks(cfg.Frameworks, allFrameworks)
	}

	if err := c.DeleteLibFrameworks(ctx, libID); err != nil {
		return fmt.Errorf("failed to clear library frameworks: %w", err)
	}
	for _, framework := range frameworks {
		if err := c.InsertLibFramework(ctx, sqlc.InsertLibFrameworkParams{
			LibID:       libID,
			FrameworkID: framework.ID,
		}); err != nil {
			return fmt.Errorf("failed to link framework %q: %w", framework.Name, err)
		}
	}

	if err := c.DeleteLibPlatforms(ctx, libID); err != nil {
		return fmt.Errorf("failed to clear library platforms: %w", err)
	}
	for _, platform := range platforms {
		if err := c.InsertLibPlatform(ctx, sqlc.InsertLibPlatformParams{
			LibID:      libID,
			PlatformID: platform.ID,
		}); err != nil {
			return fmt.Errorf("failed to link platform %q: %w", platform.Name, err)
		}
	}
	return nil
}

func isWildcard(names []string) bool {
	for _, name := range names {
		if name == manifest.Wildcard {
			return true
		}
	}
	return false
}

func selectPlatforms(names []string, vocabulary []sqlc.Platform) []sqlc.Platform {
	if isWildcard(names) {
		return vocabulary
	}
	byName := make(map[string]sqlc.Platform, len(vocabulary))
	for _, p := range vocabulary {
		byName[p.Name] = p
	}
	var selected []sqlc.Platform
	for _, name := range names {
		if p, ok := byName[strings.ToLower(name)]; ok {
			selected = append(selected, p)
		}
	}
	return selected
}

func selectFrameworks(names []string, vocabulary []sqlc.Framework) []sqlc.Framework {
	if isWildcard(names) {
		return vocabulary
	}
	byName := make(map[string]sqlc.Framework, len(vocabulary))
	for _, f := range vocabulary {
		byName[f.Name] = f
	}
	var selected []sqlc.Framework
	for _, name := range names {
		if f, ok := byName[strings.ToLower(name)]; ok {
			selected = append(selected, f)
		}
	}
	return selected
}

// syncAttributes flattens the manifest tree into dotted key paths and
// persists those matching the global whitelist.
func (s *Syncer) syncAttributes(ctx context.Context, c Catalog, libID int64, cfg *manifest.Config) error {
	whitelist, err := c.ListAttributes(ctx)
	if err != nil {
		return fmt.Errorf("failed to list attributes: %w", err)
	}
	flat := manifest.FlattenTree(cfg.Raw)

	if err := c.DeleteLibAttributes(ctx, libID); err != nil {
		return fmt.Errorf("failed to clear library attributes: %w", err)
	}
	for _, attribute := range whitelist {
		value, ok := flat[attribute.Name]
		if !ok || value == "" {
			continue
		}
		if err := c.InsertLibAttribute(ctx, sqlc.InsertLibAttributeParams{
			LibID:       libID,
			AttributeID: attribute.ID,
			Value:       value,
		}); err != nil {
			return fmt.Errorf("failed to set attribute %q: %w", attribute.Name, err)
		}
	}
	return nil
}

// syncHeaders replaces the library's header set with the headers discovered
// in the exported tree, keeping existing rows for names that persist.
func (s *Syncer) syncHeaders(ctx context.Context, c Catalog, libID int64, exportDir string) (int32, error) {
	names := discoverHeaders(exportDir)
	return reconcileFileSet(ctx, names,
		func() (map[string]int64, error) {
			rows, err := c.ListLibHeaders(ctx, libID)
			if err != nil {
				return nil, err
			}
			existing := make(map[string]int64, len(rows))
			for _, row := range rows {
				existing[row.Name] = row.ID
			}
			return existing, nil
		},
		func(name string) error {
			_, err := c.InsertLibHeader(ctx, sqlc.InsertLibHeaderParams{LibID: libID, Name: name})
			return err
		},
		func(id int64) error { return c.DeleteLibHeader(ctx, id) },
	)
}

func (s *Syncer) syncExamples(ctx context.Context, c Catalog, libID int64, files []string) (int32, error) {
	names := make([]string, 0, len(files))
	for _, file := range files {
		names = append(names, filepath.Base(file))
	}
	return reconcileFileSet(ctx, dedupeCaseInsensitive(names),
		func() (map[string]int64, error) {
			rows, err := c.ListLibExamples(ctx, libID)
			if err != nil {
				return nil, err
			}
			existing := make(map[string]int64, len(rows))
			for _, row := range rows {
				existing[row.Name] = row.ID
			}
			return existing, nil
		},
		func(name string) error {
			_, err := c.InsertLibExample(ctx, sqlc.InsertLibExampleParams{LibID: libID, Name: name})
			return err
		},
		func(id int64) error { return c.DeleteLibExample(ctx, id) },
	)
}

// reconcileFileSet replaces a name set while preserving row identity for
// names that survive the sync.
func reconcileFileSet(
	_ context.Context,
	names []string,
	list func() (map[string]int64, error),
	insert func(string) error,
	remove func(int64) error,
) (int32, error) {
	existing, err := list()
	if err != nil {
		return 0, fmt.Errorf("failed to list existing rows: %w", err)
	}

	wanted := make(map[string]struct{}, len(names))
	for _, name := range names {
		wanted[name] = struct{}{}
		if _, ok := existing[name]; ok {
			continue
		}
		if err := insert(name); err != nil {
			return 0, fmt.Errorf("failed to insert %q: %w", name, err)
		}
	}
	for name, id := range existing {
		if _, ok := wanted[name]; ok {
			continue
		}
		if err := remove(id); err != nil {
			return 0, fmt.Errorf("failed to remove %q: %w", name, err)
		}
	}
	return int32(len(wanted)), nil
}

// discoverHeaders walks the exported tree collecting header file names,
// de-duplicated case-insensitively.
func discoverHeaders(exportDir string) []string {
	var names []string
	_ = filepath.WalkDir(exportDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil //nolint:nilerr // unreadable entries are skipped
		}
		if _, ok := headerExtensions[strings.ToLower(filepath.Ext(path))]; ok {
			names = append(names, d.Name())
		}
		return nil
	})
	return dedupeCaseInsensitive(names)
}

// discoverExamples returns example file paths: explicit manifest globs when
// given, otherwise a depth-limited search under the examples/ folder.
func discoverExamples(exportDir string, exampleGlobs []string) []string {
	var patterns []string
	if len(exampleGlobs) > 0 {
		patterns = exampleGlobs
	} else {
		for depth := 1; depth <= examplesSearchDepth; depth++ {
			prefix := "examples" + strings.Repeat("/*", depth-1)
			for _, ext := range exampleExtensions {
				patterns = append(patterns, fmt.Sprintf("%s/*.%s", prefix, ext))
			}
		}
	}

	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(exportDir, filepath.FromSlash(pattern)))
		if err != nil {
			continue
		}
		files = append(files, matches...)
	}
	return dedupeExamplePaths(files)
}

func dedupeCaseInsensitive(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	var result []string
	for _, name := range names {
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, name)
	}
	return result
}

// dedupeExamplePaths de-duplicates by case-insensitive base name so two
// sketches differing only in case produce one example row.
func dedupeExamplePaths(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	var result []string
	for _, path := range paths {
		key := strings.ToLower(filepath.Base(path))
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, path)
	}
	return result
}
