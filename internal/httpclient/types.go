package httpclient

import "fmt"

// HTTPError represents a non-2xx HTTP response.
type HTTPError struct {
	StatusCode int
	Message    string
	URL        string
}

// Error returns the error message
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for URL %s: %s", e.StatusCode, e.URL, e.Message)
}

// NewHTTPError creates a new HTTP error
func NewHTTPError(statusCode int, url, message string) error {
	return &HTTPError{
		StatusCode: statusCode,
		URL:        url,
		Message:    message,
	}
}

// SizeLimitError is returned when a fetch exceeds the configured byte ceiling,
// either up front via Content-Length or while streaming the body.
type SizeLimitError struct {
	Limit int64
	Got   int64
	URL   string
}

// Error returns the error message
func (e *SizeLimitError) Error() string {
	return fmt.Sprintf("download of %s exceeds maximum allowed size of %d bytes (got %d)",
		e.URL, e.Limit, e.Got)
}

// NewSizeLimitError creates a new size-limit error
func NewSizeLimitError(url string, limit, got int64) error {
	return &SizeLimitError{
		Limit: limit,
		Got:   got,
		URL:   url,
	}
}
