package vcs

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/platformio/platformio-api/internal/httpclient"
)

var (
	mbedRevPageRe     = regexp.MustCompile(`(?i)Revision \d+:([a-f\d]{12}),`)
	mbedRevPageDateRe = regexp.MustCompile(`(?i)([a-z]{3} [a-z]{3} \d{2} [\d:]{8} \d{4})`)
	mbedHomeRevRe     = regexp.MustCompile(`(?i)Files at revision \d+:([a-f\d]{12})`)
	mbedHomeDateRe    = regexp.MustCompile(`="([\d\-]{10}T[\d:]{8})\+00:00"`)
)

// mbedClient handles Mercurial repositories hosted on the mbed code site.
// The site exposes no JSON API, so revision discovery scrapes the HTML
// revision listing with a fallback to the repository home page.
type mbedClient struct {
	client httpclient.Client
	url    string
}

func newMbedClient(repoURL string, opts Options) (*mbedClient, error) {
	if !strings.HasSuffix(repoURL, "/") {
		repoURL += "/"
	}
	return &mbedClient{
		client: opts.httpClient(),
		url:    repoURL,
	}, nil
}

func (*mbedClient) Type() string {
	return TypeMbed
}

// LastCommit scrapes the latest revision from the rev/ listing page, falling
// back to the repository home page when the listing yields nothing.
func (c *mbedClient) LastCommit(ctx context.Context, path string) (*Commit, error) {
	if path != "" {
		return nil, fmt.Errorf("path-scoped commit lookup is not supported by the mbed client")
	}

	body, err := c.client.Get(ctx, c.url+"rev/")
	if err == nil {
		if commit, ok := parseMbedRevPage(string(body)); ok {
			return commit, nil
		}
	}

	body, err = c.client.Get(ctx, c.url)
	if err != nil {
		return nil, err
	}
	if commit, ok := parseMbedHomePage(string(body)); ok {
		return commit, nil
	}

	return nil, fmt.Errorf("%w at %s", ErrNoCommitFound, c.url)
}

func parseMbedRevPage(body string) (*Commit, bool) {
	sha := mbedRevPageRe.FindStringSubmatch(body)
	if sha == nil {
		return nil, false
	}
	commit := &Commit{SHA: sha[1]}
	if match := mbedRevPageDateRe.FindStringSubmatch(body); match != nil {
		if date, err := time.Parse("Mon Jan 02 15:04:05 2006", match[1]); err == nil {
			commit.Date = date.UTC()
		}
	}
	if commit.Date.IsZero() {
		return nil, false
	}
	return commit, true
}

func parseMbedHomePage(body string) (*Commit, bool) {
	sha := mbedHomeRevRe.FindStringSubmatch(body)
	if sha == nil {
		return nil, false
	}
	commit := &Commit{SHA: sha[1]}
	if match := mbedHomeDateRe.FindStringSubmatch(body); match != nil {
		if date, err := time.Parse("2006-01-02T15:04:05", match[1]); err == nil {
			commit.Date = date.UTC()
		}
	}
	if commit.Date.IsZero() {
		return nil, false
	}
	return commit, true
}

// Export downloads the revision tarball published by the mbed site. When the
// tarball endpoint fails it falls back to a Mercurial clone, which requires
// the hg binary on PATH.
func (c *mbedClient) Export(ctx context.Context, destDir, revision string) error {
	rev := revision
	if rev == "" {
		rev = "tip"
	}
	archiveURL := fmt.Sprintf("%sarchive/%s.tar.gz", c.url, rev)
	tarballErr := DownloadAndUnpack(ctx, c.client, archiveURL, destDir)
	if tarballErr == nil {
		return nil
	}

	if err := c.hgClone(ctx, destDir, revision); err != nil {
		return fmt.Errorf("mbed export failed (tarball: %v): %w", tarballErr, err)
	}
	return nil
}

func (c *mbedClient) hgClone(ctx context.Context, destDir, revision string) error {
	args := []string{"clone"}
	if revision != "" {
		args = append(args, "--rev", revision)
	}
	args = append(args, c.url, destDir)

	cmd := exec.CommandContext(ctx, "hg", args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("hg clone of %s failed: %w: %s", c.url, err, strings.TrimSpace(string(output)))
	}
	return os.RemoveAll(filepath.Join(destDir, ".hg"))
}
