package stacio

import (
	"context"
	"net/http"
)

// BearerToken returns middleware that sets an "Authorization: Bearer" header.
func BearerToken(token string) Middleware {
	return func(_ context.Context, req *http.Request) error {
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		return nil
	}
}

// APIKey returns middleware that sets header to key. An empty header means
// "Authorization".
func APIKey(header, key string) Middleware {
	if header == "" {
		header = "Authorization"
	}
	return func(_ context.Context, req *http.Request) error {
		if key != "" {
			req.Header.Set(header, key)
		}
		return nil
	}
}

// BasicAuth returns middleware that sets HTTP basic credentials.
func BasicAuth(user, password string) Middleware {
	return func(_ context.Context, req *http.Request) error {
		if user != "" {
			req.SetBasicAuth(user, password)
		}
		return nil
	}
}
