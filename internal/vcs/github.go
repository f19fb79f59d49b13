package vcs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/platformio/platformio-api/internal/httpclient"
)

const (
	githubAPIBase = "https://api.github.com"

	// githubFolderDepth bounds the parent-directory walk used when no commit
	// touches the exact manifest path (manifests nested in subdirectories).
	githubFolderDepth = 20
)

// githubClient talks to the GitHub REST API and exports trees via the
// codeload tarball endpoint.
type githubClient struct {
	client       httpclient.Client
	owner        string
	repo         string
	branch       string
	apiBase      string
	codeloadBase string

	defaultBranch string
}

func newGithubClient(repoURL string, opts Options) (*githubClient, error) {
	owner, repo, err := parseGithubSlug(repoURL)
	if err != nil {
		return nil, err
	}
	return &githubClient{
		client:       opts.httpClient(),
		owner:        owner,
		repo:         repo,
		branch:       opts.Branch,
		apiBase:      githubAPIBase,
		codeloadBase: "https://codeload.github.com",
	}, nil
}

func parseGithubSlug(repoURL string) (owner, repo string, err error) {
	u, err := url.Parse(repoURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid GitHub URL %q: %w", repoURL, err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GitHub URL %q: missing owner/repo", repoURL)
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}

func (*githubClient) Type() string {
	return TypeGithub
}

func (c *githubClient) apiGet(ctx context.Context, apiPath string, query url.Values, out any) error {
	endpoint := c.apiBase + apiPath
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	body, err := c.client.Get(ctx, endpoint)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode GitHub response for %s: %w", apiPath, err)
	}
	return nil
}

type githubRepoInfo struct {
	FullName      string `json:"full_name"`
	DefaultBranch string `json:"default_branch"`
	Owner         struct {
		Login   string `json:"login"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		HTMLURL string `json:"html_url"`
	} `json:"owner"`
}

func (c *githubClient) repoInfo(ctx context.Context) (*githubRepoInfo, error) {
	var info githubRepoInfo
	err := c.apiGet(ctx, fmt.Sprintf("/repos/%s/%s", c.owner, c.repo), nil, &info)
	if err != nil {
		return nil, fmt.Errorf("failed to look up repository %s/%s: %w", c.owner, c.repo, err)
	}
	return &info, nil
}

// DefaultBranch resolves the repository's default branch, cached per client.
func (c *githubClient) DefaultBranch(ctx context.Context) (string, error) {
	if c.defaultBranch != "" {
		return c.defaultBranch, nil
	}
	info, err := c.repoInfo(ctx)
	if err != nil {
		return "", err
	}
	c.defaultBranch = info.DefaultBranch
	return c.defaultBranch, nil
}

func (c *githubClient) baseRevision(ctx context.Context) (string, error) {
	if c.branch != "" {
		return c.branch, nil
	}
	return c.DefaultBranch(ctx)
}

type githubCommit struct {
	SHA    string `json:"sha"`
	Commit struct {
		Author struct {
			Date time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
}

// LastCommit returns the newest commit on the configured branch. When a path
// is given and no commit touches it, the lookup walks parent directories up
// to githubFolderDepth before giving up.
func (c *githubClient) LastCommit(ctx context.Context, commitPath string) (*Commit, error) {
	revision, err := c.baseRevision(ctx)
	if err != nil {
		return nil, err
	}

	for depth := githubFolderDepth; depth > 0; depth-- {
		query := url.Values{"sha": {revision}, "per_page": {"1"}}
		if commitPath != "" {
			query.Set("path", commitPath)
		}

		var commits []githubCommit
		if err := c.apiGet(ctx,
			fmt.Sprintf("/repos/%s/%s/commits", c.owner, c.repo), query, &commits); err != nil {
			return nil, err
		}
		if len(commits) > 0 {
			return &Commit{
				SHA:  commits[0].SHA,
				Date: commits[0].Commit.Author.Date.UTC(),
			}, nil
		}

		if commitPath == "" || commitPath == "/" || commitPath == "." {
			break
		}
		commitPath = path.Dir(commitPath)
		if commitPath == "." {
			commitPath = ""
		}
	}

	return nil, fmt.Errorf("%w in %s/%s@%s", ErrNoCommitFound, c.owner, c.repo, revision)
}

type githubTag struct {
	Name string `json:"name"`
}

// ResolveTag returns the repository tag matching the version string,
// accepting either the literal form or a "v"-prefixed form.
func (c *githubClient) ResolveTag(ctx context.Context, version string) (string, error) {
	var tags []githubTag
	err := c.apiGet(ctx, fmt.Sprintf("/repos/%s/%s/tags", c.owner, c.repo), nil, &tags)
	if err != nil {
		return "", err
	}
	for _, tag := range tags {
		if tag.Name == version || tag.Name == "v"+version {
			return tag.Name, nil
		}
	}
	return "", fmt.Errorf("tag %q not found in %s/%s", version, c.owner, c.repo)
}

// Owner returns the repository owner for author fallback.
func (c *githubClient) Owner(ctx context.Context) (*Owner, error) {
	info, err := c.repoInfo(ctx)
	if err != nil {
		return nil, err
	}
	name := info.Owner.Name
	if name == "" {
		name = info.Owner.Login
	}
	return &Owner{
		Name:  name,
		Email: info.Owner.Email,
		URL:   info.Owner.HTMLURL,
	}, nil
}

// Export downloads the legacy tarball for the revision from codeload and
// unpacks it into destDir.
func (c *githubClient) Export(ctx context.Context, destDir, revision string) error {
	if revision == "" {
		var err error
		if revision, err = c.baseRevision(ctx); err != nil {
			return err
		}
	}
	tarballURL := fmt.Sprintf("%s/%s/%s/legacy.tar.gz/%s",
		c.codeloadBase, c.owner, c.repo, revision)
	return DownloadAndUnpack(ctx, c.client, tarballURL, destDir)
}
