// Package stacio reads and writes STAC documents for pkg/stac. An IO
// dispatches on the href scheme: bare paths and file:// go to the local
// filesystem, http(s):// to an HTTP client with middleware and retries, and
// s3:// to Amazon S3. Errors are classified as stac.ErrNotFound,
// stac.ErrMalformed or stac.ErrTransport.
package stacio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/robert-malhotra/go-stac-catalog/pkg/stac"
)

// IO is a stac.ReadWriter over local files, HTTP(S) and S3.
type IO struct {
	httpClient  *http.Client
	headers     http.Header
	middleware  []Middleware
	retryPolicy RetryPolicy
	maxAttempts int
	logger      Logger

	s3Mu sync.Mutex
	s3   S3API

	cache    Cache
	cacheTTL time.Duration
}

var _ stac.ReadWriter = (*IO)(nil)

// New creates an IO. By default HTTP requests time out after 30 seconds and
// are retried with DefaultRetryPolicy up to three times.
func New(opts ...Option) (*IO, error) {
	o := &IO{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		headers:     make(http.Header),
		retryPolicy: DefaultRetryPolicy,
		maxAttempts: 3,
		logger:      nopLogger{},
		cache:       NullCache{},
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

type scheme int

const (
	schemeFile scheme = iota
	schemeHTTP
	schemeS3
	schemeUnknown
)

// location splits href into its backend and the backend-specific address: a
// local path, a URL string, or an S3 bucket and key.
type location struct {
	scheme scheme
	path   string
	bucket string
	key    string
}

func parseHref(href string) (location, error) {
	i := strings.Index(href, "://")
	if i < 0 {
		return location{scheme: schemeFile, path: href}, nil
	}
	u, err := url.Parse(href)
	if err != nil {
		return location{}, fmt.Errorf("parse %q: %w", href, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "file":
		return location{scheme: schemeFile, path: u.Path}, nil
	case "http", "https":
		return location{scheme: schemeHTTP, path: href}, nil
	case "s3":
		return location{scheme: schemeS3, bucket: u.Host, key: strings.TrimPrefix(u.Path, "/")}, nil
	default:
		return location{scheme: schemeUnknown}, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}

// Read loads the JSON object at href. Remote documents go through the
// document cache.
func (o *IO) Read(ctx context.Context, href string) (map[string]any, error) {
	data, err := o.ReadBytes(ctx, href)
	if err != nil {
		return nil, err
	}
	return decode(href, data)
}

// ReadBytes loads the raw bytes at href.
func (o *IO) ReadBytes(ctx context.Context, href string) ([]byte, error) {
	loc, err := parseHref(href)
	if err != nil {
		return nil, transport(href, err)
	}
	if loc.scheme == schemeFile {
		return readFile(loc.path)
	}

	if data, ok, err := o.cache.Get(ctx, href); err != nil {
		o.logger.Errorf("cache get %s: %v", href, err)
	} else if ok {
		o.logger.Debugf("cache hit %s", href)
		return data, nil
	}

	var data []byte
	switch loc.scheme {
	case schemeHTTP:
		data, err = o.getHTTP(ctx, href)
	case schemeS3:
		data, err = o.getS3(ctx, loc.bucket, loc.key, href)
	}
	if err != nil {
		o.logger.Errorf("read %s: %v", href, err)
		return nil, err
	}
	if err := o.cache.Set(ctx, href, data, o.cacheTTL); err != nil {
		o.logger.Errorf("cache set %s: %v", href, err)
	}
	return data, nil
}

// Write stores doc at href as indented JSON. HTTP hrefs are read-only.
func (o *IO) Write(ctx context.Context, href string, doc map[string]any) error {
	data, err := encode(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", href, err)
	}
	loc, err := parseHref(href)
	if err != nil {
		return transport(href, err)
	}
	switch loc.scheme {
	case schemeFile:
		err = writeFile(loc.path, data)
	case schemeS3:
		err = o.putS3(ctx, loc.bucket, loc.key, href, data)
	default:
		return fmt.Errorf("%w: cannot write %s", ErrUnsupportedScheme, href)
	}
	if err != nil {
		return err
	}
	o.logger.Debugf("wrote %s (%d bytes)", href, len(data))
	if err := o.cache.Delete(ctx, href); err != nil {
		o.logger.Errorf("cache delete %s: %v", href, err)
	}
	return nil
}

func decode(href string, data []byte) (map[string]any, error) {
	return decodeFrom(href, bytes.NewReader(data))
}

// decodeFrom reads one JSON object, keeping numbers as json.Number so large
// integers are written back unchanged.
func decodeFrom(href string, r io.Reader) (map[string]any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, malformed(href, err)
	}
	if doc == nil {
		return nil, malformed(href, fmt.Errorf("document is not a JSON object"))
	}
	return doc, nil
}

func encode(doc map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
