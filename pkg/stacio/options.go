package stacio

import (
	"net/http"
	"time"
)

// Logger represents the minimal logging interface used by IO.
type Logger interface {
	Debugf(format string, args ...any)
	Errorf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Errorf(string, ...any) {}

// Option configures an IO during construction.
type Option func(*IO) error

// WithHTTPClient injects a custom http.Client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *IO) error {
		if httpClient == nil {
			return ErrNilHTTPClient
		}
		o.httpClient = httpClient
		return nil
	}
}

// WithTimeout sets a per-request timeout on the underlying http.Client.
func WithTimeout(timeout time.Duration) Option {
	return func(o *IO) error {
		if timeout <= 0 {
			return nil
		}
		o.httpClient.Timeout = timeout
		return nil
	}
}

// WithMiddleware registers one or more request-middleware functions, run in
// order before every HTTP request.
func WithMiddleware(mw ...Middleware) Option {
	return func(o *IO) error {
		o.middleware = append(o.middleware, mw...)
		return nil
	}
}

// WithHeader registers a header applied to every HTTP request.
func WithHeader(key, value string) Option {
	return func(o *IO) error {
		if key == "" {
			return nil
		}
		o.headers.Add(key, value)
		return nil
	}
}

// WithRetryPolicy configures the retry behavior for HTTP requests. A nil
// policy disables retries.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(o *IO) error {
		o.retryPolicy = policy
		return nil
	}
}

// WithMaxAttempts bounds the number of attempts per HTTP request.
func WithMaxAttempts(n int) Option {
	return func(o *IO) error {
		if n > 0 {
			o.maxAttempts = n
		}
		return nil
	}
}

// WithLogger registers a logger used for request lifecycle events.
func WithLogger(logger Logger) Option {
	return func(o *IO) error {
		if logger == nil {
			logger = nopLogger{}
		}
		o.logger = logger
		return nil
	}
}

// WithS3Client sets the client used for s3:// hrefs. Without one, a client
// is built from the default AWS configuration on first use.
func WithS3Client(client S3API) Option {
	return func(o *IO) error {
		if client == nil {
			return ErrNilS3Client
		}
		o.s3 = client
		return nil
	}
}

// WithDocumentCache caches remote documents for ttl. A ttl of zero keeps
// entries until they are deleted.
func WithDocumentCache(cache Cache, ttl time.Duration) Option {
	return func(o *IO) error {
		if cache == nil {
			cache = NullCache{}
		}
		o.cache = cache
		o.cacheTTL = ttl
		return nil
	}
}
