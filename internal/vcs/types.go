// Package vcs abstracts the version-control providers library sources are
// hosted on. A client exposes last-commit lookup and tree export at a
// revision; some providers additionally expose repository-owner lookup.
package vcs

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Provider type names
const (
	TypeGit       = "git"
	TypeGithub    = "github"
	TypeBitbucket = "bitbucket"
	TypeMbed      = "mbed"
)

// Commit identifies a revision and its timestamp.
type Commit struct {
	SHA  string
	Date time.Time
}

// Owner describes a repository owner (used as author fallback).
type Owner struct {
	Name  string
	Email string
	URL   string
}

// Client is the capability set common to all providers.
type Client interface {
	// Type returns the provider type name.
	Type() string

	// LastCommit returns the newest commit on the configured branch/tag,
	// optionally restricted to commits touching path.
	LastCommit(ctx context.Context, path string) (*Commit, error)

	// Export materializes the source tree at revision into destDir. An empty
	// revision means the head of the configured branch.
	Export(ctx context.Context, destDir, revision string) error
}

// OwnerLookup is implemented by providers that expose repository-owner
// metadata (currently GitHub only).
type OwnerLookup interface {
	Owner(ctx context.Context) (*Owner, error)
}

// TagResolver is implemented by providers whose API can map a version string
// to an existing tag name ahead of export, skipping the blind tag-form
// probing.
type TagResolver interface {
	ResolveTag(ctx context.Context, version string) (string, error)
}

// ErrNoCommitFound is returned when a provider has no commit matching the
// requested revision or path.
var ErrNoCommitFound = errors.New("no commit found")

// UnsupportedProviderError is returned for provider/type pairs the registry
// explicitly does not implement (raw svn, raw hg outside the mbed host).
type UnsupportedProviderError struct {
	RepoType string
	URL      string
}

func (e *UnsupportedProviderError) Error() string {
	return fmt.Sprintf("unsupported repository provider %q for %s", e.RepoType, e.URL)
}

// ExportAttempt records one failed revision candidate during export; the
// ordered attempts are kept for diagnostics instead of being swallowed by
// exception-style control flow.
type ExportAttempt struct {
	Revision string
	Err      error
}

// ExportError aggregates the failed attempts of a candidate-revision export.
type ExportError struct {
	Attempts []ExportAttempt
}

func (e *ExportError) Error() string {
	if len(e.Attempts) == 0 {
		return "export failed: no revision candidates"
	}
	msg := "export failed:"
	for _, attempt := range e.Attempts {
		rev := attempt.Revision
		if rev == "" {
			rev = "<branch head>"
		}
		msg += fmt.Sprintf(" [%s: %v]", rev, attempt.Err)
	}
	return msg
}
