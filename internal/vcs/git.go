package vcs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// gitClient is the generic git fallback. It performs a shallow,
// single-branch clone; tag checkouts need history and disable the shallow
// optimization.
type gitClient struct {
	url    string
	branch string
}

func newGitClient(repoURL string, opts Options) *gitClient {
	return &gitClient{
		url:    repoURL,
		branch: opts.Branch,
	}
}

func (*gitClient) Type() string {
	return TypeGit
}

func (c *gitClient) cloneOptions(shallow bool) *git.CloneOptions {
	cloneOptions := &git.CloneOptions{
		URL:          c.url,
		SingleBranch: true,
	}
	if shallow {
		cloneOptions.Depth = 1
	}
	if c.branch != "" {
		cloneOptions.ReferenceName = plumbing.NewBranchReferenceName(c.branch)
	}
	return cloneOptions
}

// LastCommit returns the head commit of the configured branch. Path-scoped
// lookup is not supported by the generic git client.
func (c *gitClient) LastCommit(ctx context.Context, path string) (*Commit, error) {
	if path != "" {
		return nil, fmt.Errorf("path-scoped commit lookup is not supported by the generic git client")
	}

	dir, err := os.MkdirTemp("", "gitclient-")
	if err != nil {
		return nil, fmt.Errorf("failed to create clone directory: %w", err)
	}
	defer func() {
		_ = os.RemoveAll(dir)
	}()

	repo, err := git.PlainCloneContext(ctx, dir, false, c.cloneOptions(true))
	if err != nil {
		return nil, fmt.Errorf("failed to clone %s: %w", c.url, err)
	}

	return headCommit(repo)
}

// Export clones the repository and copies the worktree at the requested
// revision into destDir. An empty revision exports the branch head.
func (c *gitClient) Export(ctx context.Context, destDir, revision string) error {
	dir, err := os.MkdirTemp("", "gitclient-")
	if err != nil {
		return fmt.Errorf("failed to create clone directory: %w", err)
	}
	defer func() {
		_ = os.RemoveAll(dir)
	}()

	repo, err := git.PlainCloneContext(ctx, dir, false, c.cloneOptions(revision == ""))
	if err != nil {
		return fmt.Errorf("failed to clone %s: %w", c.url, err)
	}

	if revision != "" {
		hash, err := repo.ResolveRevision(plumbing.Revision(revision))
		if err != nil {
			return fmt.Errorf("failed to resolve revision %q: %w", revision, err)
		}
		worktree, err := repo.Worktree()
		if err != nil {
			return fmt.Errorf("failed to get worktree: %w", err)
		}
		if err := worktree.Checkout(&git.CheckoutOptions{Hash: *hash}); err != nil {
			return fmt.Errorf("failed to checkout %q: %w", revision, err)
		}
		slog.Debug("Checked out revision", "repository", c.url, "revision", revision)
	}

	return copyTree(dir, destDir, ".git")
}

func headCommit(repo *git.Repository) (*Commit, error) {
	ref, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD reference: %w", err)
	}
	commit, err := repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to get commit object: %w", err)
	}
	return &Commit{
		SHA:  commit.Hash.String(),
		Date: commit.Committer.When.UTC(),
	}, nil
}

// copyTree copies src into dst preserving symlinks, skipping top-level
// entries named in skip.
func copyTree(src, dst string, skip ...string) error {
	skipSet := make(map[string]struct{}, len(skip))
	for _, name := range skip {
		skipSet[name] = struct{}{}
	}

	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return os.MkdirAll(dst, 0o755)
		}
		if _, skipped := skipSet[firstPathElement(rel)]; skipped {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		target := filepath.Join(dst, rel)
		switch {
		case info.IsDir():
			return os.MkdirAll(target, info.Mode().Perm())
		case info.Mode()&os.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		default:
			return copyFile(path, target, info.Mode().Perm())
		}
	})
}

func firstPathElement(rel string) string {
	for i, r := range rel {
		if os.IsPathSeparator(uint8(r)) {
			return rel[:i]
		}
	}
	return rel
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = in.Close()
	}()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	_, err = io.Copy(out, in)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	return err
}
