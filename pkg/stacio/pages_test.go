package stacio

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feature(id string) map[string]any {
	return map[string]any{
		"type": "Feature", "stac_version": "1.0.0", "id": id,
		"geometry": nil, "properties": map[string]any{"datetime": "2021-01-01T00:00:00Z"},
		"links": []any{}, "assets": map[string]any{},
	}
}

func TestPagesFollowsNextLinks(t *testing.T) {
	ctx := context.Background()
	mux := http.NewServeMux()
	mux.HandleFunc("/items", func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		resp := map[string]any{"type": "FeatureCollection"}
		switch page {
		case "":
			resp["features"] = []any{feature("a"), feature("b")}
			resp["links"] = []any{map[string]any{"rel": "next", "href": "items?page=2"}}
		case "2":
			resp["features"] = []any{feature("c")}
			resp["links"] = []any{map[string]any{"rel": "next", "href": "/search", "method": "POST", "body": map[string]any{"token": "t3"}}}
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "t3", body["token"])
		_ = json.NewEncoder(w).Encode(map[string]any{
			"type":     "FeatureCollection",
			"features": []any{feature("d")},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	o := newTestIO(t)
	var ids []string
	var pages []string
	for page, err := range o.Pages(ctx, srv.URL+"/items") {
		require.NoError(t, err)
		pages = append(pages, page.Href)
		for _, item := range page.Items.Items {
			ids = append(ids, item.ID())
		}
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids)
	assert.Equal(t, []string{srv.URL + "/items", srv.URL + "/items?page=2", srv.URL + "/search"}, pages)
}

func TestPagesStopsOnRepeatedHref(t *testing.T) {
	ctx := context.Background()
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprintf(w, `{"type": "FeatureCollection", "features": [], "links": [{"rel": "next", "href": %q}]}`, "http://"+r.Host+r.URL.String())
	}))
	defer srv.Close()

	o := newTestIO(t)
	n := 0
	for _, err := range o.Pages(ctx, srv.URL+"/loop") {
		require.NoError(t, err)
		n++
	}
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, calls)
}

func TestFeaturesStopsEarly(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"type":     "FeatureCollection",
			"features": []any{feature("a"), feature("b"), feature("c")},
		})
	}))
	defer srv.Close()

	o := newTestIO(t)
	var ids []string
	for item, err := range o.Features(ctx, srv.URL) {
		require.NoError(t, err)
		ids = append(ids, item.ID())
		if len(ids) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"a", "b"}, ids)
}
