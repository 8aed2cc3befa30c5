package stac

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// memStore is an in-memory ReadWriter that counts reads per href.
type memStore struct {
	docs   map[string]map[string]any
	raw    map[string]string
	reads  map[string]int
	writes []string
}

func newMemStore() *memStore {
	return &memStore{
		docs:  make(map[string]map[string]any),
		raw:   make(map[string]string),
		reads: make(map[string]int),
	}
}

func (m *memStore) Read(_ context.Context, href string) (map[string]any, error) {
	m.reads[href]++
	if raw, ok := m.raw[href]; ok {
		var d map[string]any
		if err := json.Unmarshal([]byte(raw), &d); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, href, err)
		}
		return d, nil
	}
	d, ok := m.docs[href]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, href)
	}
	return deepCopyMap(d), nil
}

func (m *memStore) Write(_ context.Context, href string, doc map[string]any) error {
	m.docs[href] = deepCopyMap(doc)
	m.writes = append(m.writes, href)
	return nil
}

func (m *memStore) putJSON(t *testing.T, href, doc string) {
	t.Helper()
	var d map[string]any
	require.NoError(t, json.Unmarshal([]byte(doc), &d))
	m.docs[href] = d
}

func (m *memStore) totalReads() int {
	n := 0
	for _, c := range m.reads {
		n += c
	}
	return n
}

var testTime = time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)

func point(x, y float64) map[string]any {
	return map[string]any{"type": "Point", "coordinates": []any{x, y}}
}

func newTestItem(id string) *Item {
	return NewItem(id, point(1, 2), nil, testTime, nil)
}

func newTestCollection(id string) *Collection {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	return NewCollection(id, "collection "+id, NewExtent([]float64{-180, -90, 180, 90}, &start, nil), "CC-BY-4.0")
}

func dictFromJSON(t *testing.T, doc string) map[string]any {
	t.Helper()
	var d map[string]any
	require.NoError(t, json.Unmarshal([]byte(doc), &d))
	return d
}

func toJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func linkHrefs(t *testing.T, d map[string]any, rel string) []string {
	t.Helper()
	var out []string
	links, _ := d["links"].([]any)
	for _, raw := range links {
		l := raw.(map[string]any)
		if l["rel"] == rel {
			out = append(out, l["href"].(string))
		}
	}
	return out
}

// publishedTree is a small static catalog rooted at /data/catalog.json:
//
//	catalog.json
//	a/catalog.json          -> item ../shared/item.json
//	b/catalog.json          -> item ../shared/item.json
//	shared/item.json
func publishedTree(t *testing.T) *memStore {
	t.Helper()
	m := newMemStore()
	m.putJSON(t, "/data/catalog.json", `{
		"type": "Catalog", "stac_version": "1.0.0", "id": "root", "description": "root",
		"links": [
			{"rel": "root", "href": "./catalog.json", "type": "application/json"},
			{"rel": "child", "href": "./a/catalog.json"},
			{"rel": "child", "href": "./b/catalog.json"}
		]
	}`)
	for _, id := range []string{"a", "b"} {
		m.putJSON(t, "/data/"+id+"/catalog.json", `{
			"type": "Catalog", "stac_version": "1.0.0", "id": "`+id+`", "description": "sub",
			"links": [
				{"rel": "root", "href": "../catalog.json"},
				{"rel": "parent", "href": "../catalog.json"},
				{"rel": "item", "href": "../shared/item.json"}
			]
		}`)
	}
	m.putJSON(t, "/data/shared/item.json", `{
		"type": "Feature", "stac_version": "1.0.0", "id": "shared",
		"geometry": null,
		"properties": {"datetime": "2021-03-04T05:06:07Z"},
		"links": [{"rel": "root", "href": "../catalog.json"}],
		"assets": {"data": {"href": "./data.tif"}}
	}`)
	return m
}
