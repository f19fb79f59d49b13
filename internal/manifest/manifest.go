// Package manifest fetches library manifest documents, detects their dialect
// (PlatformIO library.json, Arduino library.properties, Yotta module.json),
// and normalizes them into one canonical configuration record.
package manifest

import (
	"context"
	"fmt"
	"time"

	"github.com/platformio/platformio-api/internal/httpclient"
)

// Dialect identifies a supported manifest format.
type Dialect string

// Supported manifest dialects
const (
	DialectPlatformIO Dialect = "platformio"
	DialectArduino    Dialect = "arduino"
	DialectYotta      Dialect = "yotta"
)

// Wildcard is the sentinel value meaning "all known frameworks/platforms".
const Wildcard = "*"

// Author describes a library author entry.
type Author struct {
	Name       string
	Email      string
	URL        string
	Maintainer bool
}

// Repository describes the VCS location a manifest points at.
type Repository struct {
	Type   string
	URL    string
	Branch string
}

// Dependency is a single declared library dependency.
type Dependency struct {
	Name    string
	Version string
}

// Config is the canonical library configuration shared by all dialects.
type Config struct {
	Name        string
	Description string
	Version     string
	Keywords    []string
	Frameworks  []string
	Platforms   []string
	Authors     []Author
	Repository  *Repository
	DownloadURL string
	Homepage    string
	License     string

	// Include is the list of include globs; IncludeMount is set instead when
	// the manifest's include rule is a single path string (mount-point form).
	Include      []string
	IncludeMount string
	Exclude      []string

	// ExampleGlobs are explicit example patterns, overriding discovery.
	ExampleGlobs []string

	Dependencies []Dependency

	// Raw is the trimmed manifest tree, kept for attribute flattening and
	// provenance archiving.
	Raw map[string]any
}

// Resolved is the output of the resolver: the canonical configuration plus
// the verbatim manifest document for provenance archiving.
type Resolved struct {
	Config   *Config
	Dialect  Dialect
	Original []byte
}

// InvalidManifestError indicates a manifest that is missing required fields,
// is malformed for its dialect, or declares an unsupported repository shape.
type InvalidManifestError struct {
	URL    string
	Reason string
	Err    error
}

func (e *InvalidManifestError) Error() string {
	return fmt.Sprintf("invalid library manifest %s: %s", e.URL, e.Reason)
}

func (e *InvalidManifestError) Unwrap() error {
	return e.Err
}

func invalidManifest(url, reason string, err error) error {
	return &InvalidManifestError{URL: url, Reason: reason, Err: err}
}

// Resolver downloads and normalizes manifest documents.
type Resolver struct {
	client httpclient.Client
}

// NewResolver creates a resolver using the given HTTP client.
func NewResolver(client httpclient.Client) *Resolver {
	if client == nil {
		client = httpclient.NewDefaultClient(30 * time.Second)
	}
	return &Resolver{client: client}
}

// Resolve fetches the manifest at confURL, picks the dialect from the URL's
// file name, normalizes it and validates the result.
func (r *Resolver) Resolve(ctx context.Context, confURL string) (*Resolved, error) {
	data, err := r.client.Get(ctx, confURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch manifest %s: %w", confURL, err)
	}
	return Parse(confURL, data)
}

// Parse normalizes and validates an already-fetched manifest document.
func Parse(confURL string, data []byte) (*Resolved, error) {
	dialect := DetectDialect(confURL)

	raw, err := parseDialect(dialect, data)
	if err != nil {
		return nil, invalidManifest(confURL, fmt.Sprintf("malformed %s document", dialect), err)
	}

	cfg, err := normalize(raw, confURL, dialect)
	if err != nil {
		return nil, err
	}

	if err := validate(cfg, confURL); err != nil {
		return nil, err
	}

	return &Resolved{
		Config:   cfg,
		Dialect:  dialect,
		Original: data,
	}, nil
}
