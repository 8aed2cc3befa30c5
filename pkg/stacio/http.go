package stacio

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Middleware manipulates an outgoing *http.Request before it is executed.
// The context is provided for cancellation and to support auth implementations
// that may need to perform async operations (e.g., token refresh).
type Middleware func(context.Context, *http.Request) error

func (o *IO) getHTTP(ctx context.Context, href string) ([]byte, error) {
	resp, err := o.send(ctx, http.MethodGet, href, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transport(href, err)
	}
	return data, nil
}

// send performs a request with retries and turns non-2xx responses into a
// *StatusError. The caller closes the body of a successful response.
func (o *IO) send(ctx context.Context, method, href string, body []byte, contentType string) (*http.Response, error) {
	resp, err := o.retry(ctx, func() (*http.Response, error) {
		return o.doRequest(ctx, method, href, body, contentType)
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, transport(href, ctxErr)
		}
		return nil, transport(href, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, &StatusError{Status: resp.StatusCode, Href: href}
	}
	return resp, nil
}

// doRequest is the one place that builds a request, applies default headers
// and middleware, and executes it.
func (o *IO) doRequest(ctx context.Context, method, href string, body []byte, contentType string) (*http.Response, error) {
	var rdr io.Reader
	if body != nil {
		rdr = newBodyReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, href, rdr)
	if err != nil {
		return nil, fmt.Errorf("error creating request for %s: %w", href, err)
	}
	for key, values := range o.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json, application/geo+json")

	for _, mw := range o.middleware {
		if err := mw(ctx, req); err != nil {
			return nil, fmt.Errorf("error applying middleware for %s: %w", href, err)
		}
	}

	o.logger.Debugf("%s %s", method, href)
	return o.httpClient.Do(req)
}
