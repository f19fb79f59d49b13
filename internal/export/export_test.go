package export

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformio/platformio-api/internal/archive"
	"github.com/platformio/platformio-api/internal/httpclient"
	"github.com/platformio/platformio-api/internal/vcs"
)

type stubRepo struct {
	exportOK  map[string]bool
	exported  []string
	treeFiles map[string]string
}

func (*stubRepo) Type() string { return vcs.TypeGit }

func (*stubRepo) LastCommit(context.Context, string) (*vcs.Commit, error) {
	return nil, errors.New("not implemented")
}

func (s *stubRepo) Export(_ context.Context, destDir, revision string) error {
	s.exported = append(s.exported, revision)
	if !s.exportOK[revision] {
		return fmt.Errorf("revision %q not found", revision)
	}
	for name, content := range s.treeFiles {
		target := filepath.Join(destDir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		target := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755))
		require.NoError(t, os.WriteFile(target, []byte(content), 0o644))
	}
}

func listTree(t *testing.T, root string) []string {
	t.Helper()
	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	require.NoError(t, err)
	return files
}

// taggedRepo is a stubRepo whose provider API can list tags.
type taggedRepo struct {
	stubRepo
	tags map[string]string
}

func (r *taggedRepo) ResolveTag(_ context.Context, version string) (string, error) {
	if tag, ok := r.tags[version]; ok {
		return tag, nil
	}
	return "", fmt.Errorf("tag %q not found", version)
}

func TestRevisionCandidates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := &stubRepo{}

	assert.Equal(t, []string{"v1.2.3", "1.2.3", ""}, revisionCandidates(ctx, repo, "1.2.3"))
	assert.Equal(t, []string{""}, revisionCandidates(ctx, repo, ""))

	// Providers with a tag listing API resolve the tag up front instead of
	// probing both naming conventions.
	tagged := &taggedRepo{tags: map[string]string{"1.2.3": "v1.2.3"}}
	assert.Equal(t, []string{"v1.2.3", ""}, revisionCandidates(ctx, tagged, "1.2.3"))
	assert.Equal(t, []string{""}, revisionCandidates(ctx, tagged, "9.9.9"))
}

func TestExportRepositoryCandidateOrder(t *testing.T) {
	t.Parallel()

	t.Run("falls through to branch head", func(t *testing.T) {
		t.Parallel()

		repo := &stubRepo{
			exportOK:  map[string]bool{"": true},
			treeFiles: map[string]string{"library.json": "{}"},
		}
		destDir := filepath.Join(t.TempDir(), "out")
		require.NoError(t, exportRepository(context.Background(), repo, destDir, "1.2.3"))
		assert.Equal(t, []string{"v1.2.3", "1.2.3", ""}, repo.exported)
		assert.FileExists(t, filepath.Join(destDir, "library.json"))
	})

	t.Run("stops at first success", func(t *testing.T) {
		t.Parallel()

		repo := &stubRepo{
			exportOK:  map[string]bool{"v1.2.3": true},
			treeFiles: map[string]string{"library.json": "{}"},
		}
		destDir := filepath.Join(t.TempDir(), "out")
		require.NoError(t, exportRepository(context.Background(), repo, destDir, "1.2.3"))
		assert.Equal(t, []string{"v1.2.3"}, repo.exported)
	})

	t.Run("retains every failed attempt", func(t *testing.T) {
		t.Parallel()

		repo := &stubRepo{}
		destDir := filepath.Join(t.TempDir(), "out")
		err := exportRepository(context.Background(), repo, destDir, "1.2.3")
		require.Error(t, err)

		var exportErr *vcs.ExportError
		require.ErrorAs(t, err, &exportErr)
		require.Len(t, exportErr.Attempts, 3)
		assert.Equal(t, "v1.2.3", exportErr.Attempts[0].Revision)
		assert.Equal(t, "", exportErr.Attempts[2].Revision)
	})

	t.Run("exports the resolved tag without probing", func(t *testing.T) {
		t.Parallel()

		repo := &taggedRepo{
			stubRepo: stubRepo{
				exportOK:  map[string]bool{"v1.2.3": true},
				treeFiles: map[string]string{"library.json": "{}"},
			},
			tags: map[string]string{"1.2.3": "v1.2.3"},
		}
		destDir := filepath.Join(t.TempDir(), "out")
		require.NoError(t, exportRepository(context.Background(), repo, destDir, "1.2.3"))
		assert.Equal(t, []string{"v1.2.3"}, repo.exported)
	})

	t.Run("falls back to branch head when no tag matches", func(t *testing.T) {
		t.Parallel()

		repo := &taggedRepo{
			stubRepo: stubRepo{
				exportOK:  map[string]bool{"": true},
				treeFiles: map[string]string{"library.json": "{}"},
			},
		}
		destDir := filepath.Join(t.TempDir(), "out")
		require.NoError(t, exportRepository(context.Background(), repo, destDir, "1.2.3"))
		assert.Equal(t, []string{""}, repo.exported)
	})
}

func TestExporterNoSource(t *testing.T) {
	t.Parallel()

	exporter := NewExporter(httpclient.NewDefaultClient(5 * time.Second))
	err := exporter.Export(context.Background(), Source{}, FilterRules{}, t.TempDir())
	require.ErrorIs(t, err, ErrCannotArchive)
}

func TestExporterDownloadURL(t *testing.T) {
	t.Parallel()

	srcDir := t.TempDir()
	writeTree(t, srcDir, map[string]string{
		"foo-1.0/library.json": "{}",
		"foo-1.0/src/foo.cpp":  "// foo",
	})
	archivePath := filepath.Join(t.TempDir(), "foo.tar.gz")
	require.NoError(t, archive.Create(archivePath, srcDir))
	data, err := os.ReadFile(archivePath)
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(data)
	}))
	server.Client().Transport.(*http.Transport).DisableKeepAlives = true
	t.Cleanup(server.Close)

	destDir := filepath.Join(t.TempDir(), "out")
	exporter := NewExporter(httpclient.NewDefaultClient(5 * time.Second))
	err = exporter.Export(context.Background(),
		Source{DownloadURL: server.URL + "/foo.tar.gz"}, FilterRules{}, destDir)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"library.json", "src/foo.cpp"}, listTree(t, destDir))
}

func TestFilter(t *testing.T) {
	t.Parallel()

	sourceFiles := map[string]string{
		"library.json":          "{}",
		"src/foo.cpp":           "// foo",
		"src/foo.h":             "// foo",
		"examples/blink/a.ino":  "// a",
		"tests/test_foo.cpp":    "// test",
		"docs/manual.md":        "manual",
		"extras/bench/bench.py": "bench",
	}

	tests := []struct {
		name  string
		rules FilterRules
		want  []string
	}{
		{
			name: "no rules keeps everything",
			want: []string{
				"library.json", "src/foo.cpp", "src/foo.h",
				"examples/blink/a.ino", "tests/test_foo.cpp",
				"docs/manual.md", "extras/bench/bench.py",
			},
		},
		{
			name:  "exclude directory glob",
			rules: FilterRules{Exclude: []string{"tests", "extras/*"}},
			want: []string{
				"library.json", "src/foo.cpp", "src/foo.h",
				"examples/blink/a.ino", "docs/manual.md",
			},
		},
		{
			name:  "include list of globs",
			rules: FilterRules{Include: []string{"src", "library.json"}},
			want:  []string{"library.json", "src/foo.cpp", "src/foo.h"},
		},
		{
			name:  "include mount point lifts subtree to root",
			rules: FilterRules{IncludeMount: "src"},
			want:  []string{"foo.cpp", "foo.h"},
		},
		{
			name: "exclude applies before include mount",
			rules: FilterRules{
				IncludeMount: "src",
				Exclude:      []string{"src/foo.h"},
			},
			want: []string{"foo.cpp"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srcDir := t.TempDir()
			writeTree(t, srcDir, sourceFiles)

			destDir := filepath.Join(t.TempDir(), "out")
			require.NoError(t, Filter(srcDir, destDir, tt.rules))
			assert.ElementsMatch(t, tt.want, listTree(t, destDir))
		})
	}
}

func TestFilterSingleFileMount(t *testing.T) {
	t.Parallel()

	srcDir := t.TempDir()
	writeTree(t, srcDir, map[string]string{"firmware/Foo.h": "// foo"})

	destDir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, Filter(srcDir, destDir, FilterRules{IncludeMount: "firmware/Foo.h"}))
	assert.Equal(t, []string{"Foo.h"}, listTree(t, destDir))
}

func TestFilterPreservesSymlinks(t *testing.T) {
	t.Parallel()

	srcDir := t.TempDir()
	writeTree(t, srcDir, map[string]string{"src/foo.h": "// foo"})
	require.NoError(t, os.Symlink("src/foo.h", filepath.Join(srcDir, "Foo.h")))

	destDir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, Filter(srcDir, destDir, FilterRules{}))

	link, err := os.Readlink(filepath.Join(destDir, "Foo.h"))
	require.NoError(t, err)
	assert.Equal(t, "src/foo.h", link)
}
