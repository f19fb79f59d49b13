// Package httpclient provides size-limited HTTP fetch and download helpers
// used by the manifest resolver and the VCS provider clients.
package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const (
	// DefaultTimeout is the default timeout for HTTP requests
	DefaultTimeout = 30 * time.Second

	// DefaultMaxFetchSize is the maximum allowed response size for in-memory
	// fetches such as manifest documents and provider API responses (10MB)
	DefaultMaxFetchSize = 10 * 1024 * 1024

	// DefaultMaxDownloadSize is the maximum allowed size for streamed file
	// downloads such as repository tarballs (100MB)
	DefaultMaxDownloadSize = 100 * 1024 * 1024

	// UserAgent is the user agent string for HTTP requests
	UserAgent = "PlatformIOLibRegistry/2.0"
)

// Client is an interface for HTTP operations
type Client interface {
	// Get performs an HTTP GET request and returns the response body
	Get(ctx context.Context, url string) ([]byte, error)

	// Download streams a GET response to destPath, enforcing the download
	// size ceiling both on the Content-Length header and while writing.
	Download(ctx context.Context, url, destPath string) error
}

// DefaultClient is the default HTTP client implementation
type DefaultClient struct {
	client          *http.Client
	maxFetchSize    int64
	maxDownloadSize int64
}

// Option configures a DefaultClient
type Option func(*DefaultClient)

// WithMaxFetchSize overrides the in-memory fetch size ceiling
func WithMaxFetchSize(n int64) Option {
	return func(c *DefaultClient) {
		c.maxFetchSize = n
	}
}

// WithMaxDownloadSize overrides the streamed download size ceiling
func WithMaxDownloadSize(n int64) Option {
	return func(c *DefaultClient) {
		c.maxDownloadSize = n
	}
}

// NewDefaultClient creates a new default HTTP client with the specified timeout.
// If timeout is 0, uses DefaultTimeout.
func NewDefaultClient(timeout time.Duration, opts ...Option) *DefaultClient {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	c := &DefaultClient{
		client: &http.Client{
			Timeout: timeout,
		},
		maxFetchSize:    DefaultMaxFetchSize,
		maxDownloadSize: DefaultMaxDownloadSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *DefaultClient) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, NewHTTPError(resp.StatusCode, url, resp.Status)
	}
	return resp, nil
}

// Get performs an HTTP GET request and returns the body, bounded by the
// in-memory fetch ceiling.
func (c *DefaultClient) Get(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.ContentLength > c.maxFetchSize {
		return nil, NewSizeLimitError(url, c.maxFetchSize, resp.ContentLength)
	}

	// +1 to detect if the limit was exceeded
	limitedReader := io.LimitReader(resp.Body, c.maxFetchSize+1)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > c.maxFetchSize {
		return nil, NewSizeLimitError(url, c.maxFetchSize, int64(len(body)))
	}

	return body, nil
}

// Download streams a GET response to destPath. The Content-Length header is
// checked before any bytes are written; the ceiling is also enforced while
// streaming for servers that do not announce a length.
func (c *DefaultClient) Download(ctx context.Context, url, destPath string) error {
	resp, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.ContentLength > c.maxDownloadSize {
		return NewSizeLimitError(url, c.maxDownloadSize, resp.ContentLength)
	}

	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", destPath, err)
	}
	defer func() {
		_ = f.Close()
	}()

	written, err := io.Copy(f, io.LimitReader(resp.Body, c.maxDownloadSize+1))
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", destPath, err)
	}
	if written > c.maxDownloadSize {
		return NewSizeLimitError(url, c.maxDownloadSize, written)
	}
	return nil
}
