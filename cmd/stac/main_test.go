package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-stac-catalog/pkg/stac"
	"github.com/robert-malhotra/go-stac-catalog/pkg/stacio"
)

var plainStyles = treeStyles{
	kind:  lipgloss.NewStyle(),
	id:    lipgloss.NewStyle(),
	title: lipgloss.NewStyle(),
	dim:   lipgloss.NewStyle(),
}

// writeCatalog saves root -> col -> item-1, item-2 under dir and returns the
// root href. item-1 carries a local data.tif asset; item-2 carries two
// band assets that are both named data.tif.
func writeCatalog(t *testing.T, dir string) string {
	t.Helper()
	ctx := context.Background()

	root := stac.NewCatalog("root", "Root catalog")
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	col := stac.NewCollection("col", "A collection", stac.NewExtent([]float64{-180, -90, 180, 90}, &start, nil), "MIT")
	require.NoError(t, root.AddChild(col, ""))
	for _, id := range []string{"item-1", "item-2"} {
		item := stac.NewItem(id, nil, nil, start, map[string]any{})
		require.NoError(t, col.AddItem(item, ""))
	}

	base := filepath.ToSlash(dir)
	require.NoError(t, root.NormalizeHrefs(ctx, nil, base))

	item, err := col.GetItem(ctx, nil, "item-1")
	require.NoError(t, err)
	item.AddAsset("data", stac.NewAsset("./data.tif", "image/tiff", "data"))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "col", "item-1"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "col", "item-1", "data.tif"), []byte("pixels"), 0o644))

	item, err = col.GetItem(ctx, nil, "item-2")
	require.NoError(t, err)
	for _, band := range []string{"B01", "B02"} {
		item.AddAsset(band, stac.NewAsset("./"+band+"/data.tif", "image/tiff", "data"))
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "col", "item-2", band), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "col", "item-2", band, "data.tif"), []byte(band), 0o644))
	}

	o, err := stacio.New()
	require.NoError(t, err)
	require.NoError(t, root.Save(ctx, o, stac.SelfContained))
	return base + "/catalog.json"
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := newApp(&stdout, &stderr).Run(context.Background(), append([]string{"stac"}, args...))
	return stdout.String(), err
}

func readJSON(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var d map[string]any
	require.NoError(t, json.Unmarshal(data, &d))
	return d
}

func relHrefs(d map[string]any, rel string) []string {
	var out []string
	links, _ := d["links"].([]any)
	for _, raw := range links {
		l, _ := raw.(map[string]any)
		if l["rel"] == rel {
			out = append(out, fmt.Sprint(l["href"]))
		}
	}
	return out
}

func TestRenderTree(t *testing.T) {
	ctx := context.Background()
	href := writeCatalog(t, t.TempDir())

	o, err := stacio.New()
	require.NoError(t, err)
	root, err := stac.ReadContainer(ctx, o, href)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, renderTree(ctx, &buf, o, root, plainStyles))
	want := "Catalog root (1 children, 0 items)\n" +
		"└── Collection col (0 children, 2 items)\n" +
		"    ├── Item item-1\n" +
		"    └── Item item-2\n"
	assert.Equal(t, want, buf.String())
}

func TestDescribeCommand(t *testing.T) {
	href := writeCatalog(t, t.TempDir())
	out, err := run(t, "describe", href)
	require.NoError(t, err)
	assert.Contains(t, out, "root")
	assert.Contains(t, out, "item-2")

	_, err = run(t, "describe")
	assert.Error(t, err)
}

func TestItemsCommand(t *testing.T) {
	href := writeCatalog(t, t.TempDir())
	out, err := run(t, "items", href)
	require.NoError(t, err)

	var fc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &fc))
	assert.Equal(t, "FeatureCollection", fc["type"])
	features, ok := fc["features"].([]any)
	require.True(t, ok)
	require.Len(t, features, 2)
	assert.Equal(t, "item-1", features[0].(map[string]any)["id"])
}

func TestCopyCommand(t *testing.T) {
	src := writeCatalog(t, t.TempDir())
	dest := t.TempDir()

	_, err := run(t, "copy", "--catalog-type", "absolute-published", "--assets", src, dest)
	require.NoError(t, err)

	base := filepath.ToSlash(dest)
	root := readJSON(t, filepath.Join(dest, "catalog.json"))
	assert.Equal(t, []string{base + "/catalog.json"}, relHrefs(root, "self"))
	assert.Equal(t, []string{base + "/col/collection.json"}, relHrefs(root, "child"))

	item := readJSON(t, filepath.Join(dest, "col", "item-1", "item-1.json"))
	assert.Equal(t, []string{base + "/col/item-1/item-1.json"}, relHrefs(item, "self"))
	asset := item["assets"].(map[string]any)["data"].(map[string]any)
	assert.Equal(t, "./data.tif", asset["href"])

	data, err := os.ReadFile(filepath.Join(dest, "col", "item-1", "data.tif"))
	require.NoError(t, err)
	assert.Equal(t, "pixels", string(data))

	item = readJSON(t, filepath.Join(dest, "col", "item-2", "item-2.json"))
	assets := item["assets"].(map[string]any)
	assert.Equal(t, "./data.tif", assets["B01"].(map[string]any)["href"])
	assert.Equal(t, "./B02-data.tif", assets["B02"].(map[string]any)["href"])
	for name, want := range map[string]string{"data.tif": "B01", "B02-data.tif": "B02"} {
		data, err := os.ReadFile(filepath.Join(dest, "col", "item-2", name))
		require.NoError(t, err)
		assert.Equal(t, want, string(data))
	}

	// The source is untouched.
	srcRoot := readJSON(t, src)
	assert.Empty(t, relHrefs(srcRoot, "self"))
}

func TestCopyCommandSelfContained(t *testing.T) {
	src := writeCatalog(t, t.TempDir())
	dest := t.TempDir()

	_, err := run(t, "copy", src, dest)
	require.NoError(t, err)

	root := readJSON(t, filepath.Join(dest, "catalog.json"))
	assert.Empty(t, relHrefs(root, "self"))
	assert.Equal(t, []string{"./col/collection.json"}, relHrefs(root, "child"))

	item := readJSON(t, filepath.Join(dest, "col", "item-1", "item-1.json"))
	asset := item["assets"].(map[string]any)["data"].(map[string]any)
	assert.NotEqual(t, "./data.tif", asset["href"], "without --assets the asset keeps pointing at the source")

	_, err = run(t, "copy", "--catalog-type", "flat", src, dest)
	assert.Error(t, err)
}

func feature(id string) map[string]any {
	return map[string]any{
		"type": "Feature", "stac_version": "1.0.0", "id": id, "collection": "landsat",
		"geometry":   map[string]any{"type": "Point", "coordinates": []any{1.0, 2.0}},
		"bbox":       []any{1.0, 2.0, 1.0, 2.0},
		"properties": map[string]any{"datetime": "2021-03-04T00:00:00Z"},
		"links": []any{
			map[string]any{"rel": "self", "href": "http://api.example/collections/landsat/items/" + id},
			map[string]any{"rel": "collection", "href": "http://api.example/collections/landsat"},
		},
		"assets": map[string]any{
			"data": map[string]any{"href": "https://data.example/" + id + ".tif"},
		},
	}
}

func TestHarvestCommand(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/collections/landsat", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"type": "Collection", "stac_version": "1.0.0", "id": "landsat",
			"description": "Landsat scenes", "license": "proprietary",
			"extent": map[string]any{
				"spatial":  map[string]any{"bbox": []any{[]any{-180.0, -90.0, 180.0, 90.0}}},
				"temporal": map[string]any{"interval": []any{[]any{"2021-01-01T00:00:00Z", nil}}},
			},
			"links": []any{
				map[string]any{"rel": "self", "href": "http://" + r.Host + "/collections/landsat"},
				map[string]any{"rel": "root", "href": "http://" + r.Host + "/"},
				map[string]any{"rel": "items", "href": "http://" + r.Host + "/collections/landsat/items"},
				map[string]any{"rel": "license", "href": "https://example.com/license"},
			},
		})
	})
	mux.HandleFunc("/collections/landsat/items", func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{"type": "FeatureCollection"}
		if r.URL.Query().Get("page") == "" {
			resp["features"] = []any{feature("s1"), feature("s2")}
			resp["links"] = []any{map[string]any{"rel": "next", "href": "items?page=2"}}
		} else {
			resp["features"] = []any{feature("s2"), feature("s3"), feature("s4")}
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	dest := t.TempDir()
	_, err := run(t, "harvest", "--api", srv.URL, "--collection", "landsat", "--limit", "3", dest)
	require.NoError(t, err)

	root := readJSON(t, filepath.Join(dest, "catalog.json"))
	assert.Equal(t, "landsat-catalog", root["id"])
	assert.Equal(t, []string{"./landsat/collection.json"}, relHrefs(root, "child"))

	col := readJSON(t, filepath.Join(dest, "landsat", "collection.json"))
	assert.Empty(t, relHrefs(col, "self"))
	assert.Empty(t, relHrefs(col, "items"))
	assert.Equal(t, []string{"https://example.com/license"}, relHrefs(col, "license"))
	assert.Equal(t, []string{"./s1/s1.json", "./s2/s2.json", "./s3/s3.json"}, relHrefs(col, "item"))

	item := readJSON(t, filepath.Join(dest, "landsat", "s3", "s3.json"))
	assert.Equal(t, []string{"../collection.json"}, relHrefs(item, "collection"))
	asset := item["assets"].(map[string]any)["data"].(map[string]any)
	assert.Equal(t, "https://data.example/s3.tif", asset["href"])
	assert.NoFileExists(t, filepath.Join(dest, "landsat", "s4", "s4.json"))
}
