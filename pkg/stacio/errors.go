package stacio

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/robert-malhotra/go-stac-catalog/pkg/stac"
)

var (
	// ErrUnsupportedScheme is returned for hrefs whose scheme has no backend,
	// and for writes to read-only schemes such as http.
	ErrUnsupportedScheme = errors.New("stacio: unsupported scheme")
	// ErrNilHTTPClient indicates a nil HTTP client was provided.
	ErrNilHTTPClient = errors.New("stacio: http client cannot be nil")
	ErrNilS3Client   = errors.New("stacio: s3 client cannot be nil")
)

// StatusError is a non-2xx HTTP response. A 404 matches stac.ErrNotFound;
// every other status matches stac.ErrTransport.
type StatusError struct {
	Status int
	Href   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("stacio: %s returned %d %s", e.Href, e.Status, http.StatusText(e.Status))
}

func (e *StatusError) Is(target error) bool {
	switch target {
	case stac.ErrNotFound:
		return e.Status == http.StatusNotFound || e.Status == http.StatusGone
	case stac.ErrTransport:
		return e.Status != http.StatusNotFound && e.Status != http.StatusGone
	}
	return false
}

// Temporary reports whether the request may succeed if retried.
func (e *StatusError) Temporary() bool {
	return e.Status >= 500 && e.Status < 600 || e.Status == http.StatusTooManyRequests
}

func notFound(href string, err error) error {
	return fmt.Errorf("%w: %s: %w", stac.ErrNotFound, href, err)
}

func malformed(href string, err error) error {
	return fmt.Errorf("%w: %s: %w", stac.ErrMalformed, href, err)
}

func transport(href string, err error) error {
	return fmt.Errorf("%w: %s: %w", stac.ErrTransport, href, err)
}
