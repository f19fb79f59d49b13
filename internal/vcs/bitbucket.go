package vcs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/platformio/platformio-api/internal/httpclient"
)

// bitbucketClient resolves commits and tags through the Bitbucket REST API
// (v1 for main-branch, v2 for commits and tags) and exports trees via the
// get/<rev>.tar.gz archive endpoint.
type bitbucketClient struct {
	client   httpclient.Client
	owner    string
	slug     string
	branch   string
	apiBase  string
	siteBase string

	mainBranch string
}

func newBitbucketClient(repoURL string, opts Options) (*bitbucketClient, error) {
	u, err := url.Parse(repoURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Bitbucket URL %q: %w", repoURL, err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("invalid Bitbucket URL %q: missing owner/slug", repoURL)
	}
	return &bitbucketClient{
		client:   opts.httpClient(),
		owner:    strings.ToLower(parts[0]),
		slug:     strings.ToLower(strings.TrimSuffix(parts[1], ".git")),
		branch:   opts.Branch,
		apiBase:  "https://api.bitbucket.org",
		siteBase: "https://bitbucket.org",
	}, nil
}

func (*bitbucketClient) Type() string {
	return TypeBitbucket
}

func (c *bitbucketClient) getJSON(ctx context.Context, endpoint string, out any) error {
	body, err := c.client.Get(ctx, endpoint)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode Bitbucket response: %w", err)
	}
	return nil
}

// MainBranch resolves the repository's main branch via the 1.0 API when no
// explicit branch is configured.
func (c *bitbucketClient) MainBranch(ctx context.Context) (string, error) {
	if c.mainBranch != "" {
		return c.mainBranch, nil
	}
	var resp struct {
		Name string `json:"name"`
	}
	endpoint := fmt.Sprintf("%s/1.0/repositories/%s/%s/main-branch",
		c.apiBase, c.owner, c.slug)
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return "", fmt.Errorf("failed to resolve main branch of %s/%s: %w", c.owner, c.slug, err)
	}
	c.mainBranch = resp.Name
	return c.mainBranch, nil
}

func (c *bitbucketClient) baseRevision(ctx context.Context) (string, error) {
	if c.branch != "" {
		return c.branch, nil
	}
	return c.MainBranch(ctx)
}

// LastCommit returns the newest commit on the configured or main branch.
// Path-scoped lookup is not offered by the commits endpoint shape used here.
func (c *bitbucketClient) LastCommit(ctx context.Context, path string) (*Commit, error) {
	if path != "" {
		return nil, fmt.Errorf("path-scoped commit lookup is not supported by the Bitbucket client")
	}

	revision, err := c.baseRevision(ctx)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Values []struct {
			Hash string `json:"hash"`
			Date time.Time `json:"date"`
		} `json:"values"`
	}
	endpoint := fmt.Sprintf("%s/2.0/repositories/%s/%s/commits/%s",
		c.apiBase, c.owner, c.slug, url.PathEscape(revision))
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	if len(resp.Values) == 0 {
		return nil, fmt.Errorf("%w in %s/%s@%s", ErrNoCommitFound, c.owner, c.slug, revision)
	}

	return &Commit{
		SHA:  resp.Values[0].Hash,
		Date: resp.Values[0].Date.UTC(),
	}, nil
}

// ResolveTag returns the repository tag matching the version string,
// accepting either the literal form or a "v"-prefixed form.
func (c *bitbucketClient) ResolveTag(ctx context.Context, version string) (string, error) {
	var resp struct {
		Values []struct {
			Type string `json:"type"`
			Name string `json:"name"`
		} `json:"values"`
	}
	endpoint := fmt.Sprintf("%s/2.0/repositories/%s/%s/refs/tags",
		c.apiBase, c.owner, c.slug)
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return "", err
	}
	for _, value := range resp.Values {
		if value.Type != "tag" {
			continue
		}
		if value.Name == version || value.Name == "v"+version {
			return value.Name, nil
		}
	}
	return "", fmt.Errorf("tag %q not found in %s/%s", version, c.owner, c.slug)
}

// Export downloads the archive tarball for the revision and unpacks it into
// destDir.
func (c *bitbucketClient) Export(ctx context.Context, destDir, revision string) error {
	if revision == "" {
		var err error
		if revision, err = c.baseRevision(ctx); err != nil {
			return err
		}
	}
	archiveURL := fmt.Sprintf("%s/%s/%s/get/%s.tar.gz",
		c.siteBase, c.owner, c.slug, url.PathEscape(revision))
	return DownloadAndUnpack(ctx, c.client, archiveURL, destDir)
}
