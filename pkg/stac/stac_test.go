package stac

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemForeignMembers(t *testing.T) {
	t.Run("unmarshal preserves foreign members", func(t *testing.T) {
		jsonData := `{
			"type": "Feature",
			"stac_version": "1.0.0",
			"id": "test-item",
			"geometry": {"type": "Point", "coordinates": [0, 0]},
			"bbox": [0, 0, 0, 0],
			"properties": {"datetime": "2023-01-01T00:00:00Z", "eo:cloud_cover": 12.5},
			"links": [],
			"assets": {},
			"custom_field": "custom_value",
			"another_field": 42
		}`

		var item Item
		err := json.Unmarshal([]byte(jsonData), &item)
		require.NoError(t, err)

		assert.Equal(t, "test-item", item.ID())
		assert.Equal(t, "1.0.0", item.Version)
		assert.Equal(t, "custom_value", item.AdditionalFields["custom_field"])
		assert.Equal(t, json.Number("42"), item.AdditionalFields["another_field"])
		assert.Equal(t, json.Number("12.5"), item.Properties["eo:cloud_cover"])
		assert.NotContains(t, item.Properties, "datetime")
		require.NotNil(t, item.Datetime)
		assert.Equal(t, 2023, item.Datetime.Year())
	})

	t.Run("marshal includes foreign members", func(t *testing.T) {
		item := newTestItem("test-item")
		item.AdditionalFields = map[string]any{
			"custom_field":  "custom_value",
			"another_field": 42,
		}

		data, err := json.Marshal(item)
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, "custom_value", decoded["custom_field"])
		assert.Equal(t, float64(42), decoded["another_field"])
		assert.Equal(t, "Feature", decoded["type"])
	})

	t.Run("round-trip preserves all fields", func(t *testing.T) {
		original := `{
			"type": "Feature",
			"stac_version": "1.0.0",
			"stac_extensions": [],
			"id": "test-item",
			"geometry": null,
			"properties": {"datetime": null, "start_datetime": "2021-01-01T00:00:00Z", "end_datetime": "2021-02-01T00:00:00Z"},
			"links": [{"rel": "license", "href": "https://example.com/license", "method": "GET"}],
			"assets": {"thumb": {"href": "./thumb.png", "type": "image/png", "roles": ["thumbnail"], "file:size": 1024}},
			"foreign_member": {"nested": "value"}
		}`

		var item Item
		require.NoError(t, json.Unmarshal([]byte(original), &item))

		output, err := json.Marshal(&item)
		require.NoError(t, err)
		assert.JSONEq(t, original, string(output))
	})

	t.Run("missing id is a structural error", func(t *testing.T) {
		var item Item
		err := json.Unmarshal([]byte(`{"type": "Feature", "properties": {"datetime": null}}`), &item)
		assert.ErrorIs(t, err, ErrStructural)
	})

	t.Run("missing datetime is a structural error", func(t *testing.T) {
		var item Item
		err := json.Unmarshal([]byte(`{"type": "Feature", "id": "x", "geometry": null, "properties": {"datetime": null}}`), &item)
		assert.ErrorIs(t, err, ErrStructural)
	})
}

func TestCollectionForeignMembers(t *testing.T) {
	original := `{
		"type": "Collection",
		"stac_version": "1.0.0",
		"id": "landsat",
		"title": "Landsat",
		"description": "Landsat scenes",
		"keywords": ["landsat", "usgs"],
		"license": "PDDL-1.0",
		"providers": [{"name": "USGS", "roles": ["producer"], "url": "https://usgs.gov", "x:internal": true}],
		"extent": {
			"spatial": {"bbox": [[-180, -90, 180, 90]]},
			"temporal": {"interval": [["2013-04-11T00:00:00Z", null]]}
		},
		"summaries": {
			"platform": ["landsat-8", "landsat-9"],
			"eo:cloud_cover": {"minimum": 0, "maximum": 100},
			"gsd": {"type": "number", "minimum": 15}
		},
		"links": [],
		"assets": {"license": {"href": "https://example.com/license.txt", "roles": ["metadata"]}},
		"sci:doi": "10.5066/xyz"
	}`

	var col Collection
	require.NoError(t, json.Unmarshal([]byte(original), &col))

	assert.Equal(t, "landsat", col.ID())
	assert.Equal(t, "Landsat", col.Title)
	assert.Equal(t, "PDDL-1.0", col.License)
	assert.Equal(t, "10.5066/xyz", col.AdditionalFields["sci:doi"])
	require.Len(t, col.Providers, 1)
	assert.Equal(t, true, col.Providers[0].AdditionalFields["x:internal"])
	require.NotNil(t, col.Extent)
	require.Len(t, col.Extent.Temporal.Intervals, 1)
	assert.Nil(t, col.Extent.Temporal.Intervals[0][1])

	require.Contains(t, col.Summaries, "eo:cloud_cover")
	require.NotNil(t, col.Summaries["eo:cloud_cover"].Range)
	assert.Equal(t, json.Number("100"), col.Summaries["eo:cloud_cover"].Range.Maximum)
	assert.Len(t, col.Summaries["platform"].Values, 2)
	assert.NotNil(t, col.Summaries["gsd"].Schema)

	output, err := json.Marshal(&col)
	require.NoError(t, err)
	assert.JSONEq(t, original, string(output))
}

func TestCatalogForeignMembers(t *testing.T) {
	original := `{
		"type": "Catalog",
		"stac_version": "1.0.0",
		"id": "root",
		"description": "root catalog",
		"links": [
			{"rel": "child", "href": "./a/catalog.json", "type": "application/json"},
			{"rel": "self", "href": "/data/catalog.json", "x:extra": "kept"},
			{"rel": "about", "href": "https://example.com", "title": "About"}
		],
		"conformsTo": ["https://api.stacspec.org/v1.0.0/core"]
	}`

	var cat Catalog
	require.NoError(t, json.Unmarshal([]byte(original), &cat))
	assert.Equal(t, "/data/catalog.json", cat.SelfHref())
	assert.Len(t, cat.Links(), 2, "the self link is not part of the link list")
	assert.Contains(t, cat.AdditionalFields, "conformsTo")

	output, err := json.Marshal(&cat)
	require.NoError(t, err)
	assert.JSONEq(t, original, string(output))
}

func TestAssetForeignMembers(t *testing.T) {
	var a Asset
	require.NoError(t, json.Unmarshal([]byte(`{
		"href": "s3://bucket/scene.tif",
		"type": "image/tiff; application=geotiff",
		"roles": ["data", "visual"],
		"eo:bands": [{"name": "red"}]
	}`), &a))

	assert.Equal(t, "image/tiff; application=geotiff", a.MediaType)
	assert.True(t, a.HasRole("visual"))
	assert.False(t, a.HasRole("thumbnail"))
	assert.Contains(t, a.AdditionalFields, "eo:bands")

	clone := a.Clone()
	clone.Roles[0] = "changed"
	clone.AdditionalFields["eo:bands"].([]any)[0].(map[string]any)["name"] = "green"
	assert.Equal(t, "data", a.Roles[0])
	assert.Equal(t, "red", a.AdditionalFields["eo:bands"].([]any)[0].(map[string]any)["name"])
}

func TestLinkForeignMembers(t *testing.T) {
	var l Link
	require.NoError(t, json.Unmarshal([]byte(`{
		"rel": "next",
		"href": "https://example.com/search",
		"type": "application/geo+json",
		"method": "POST",
		"body": {"token": "abc"},
		"merge": true
	}`), &l))

	assert.Equal(t, RelNext, l.Rel)
	assert.Equal(t, "https://example.com/search", l.Href())
	assert.Equal(t, "POST", l.AdditionalFields["method"])
	assert.False(t, l.IsResolved())

	data, err := json.Marshal(&l)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, map[string]any{"token": "abc"}, decoded["body"])
	assert.Equal(t, true, decoded["merge"])
}

func TestLargeIntegersRoundTrip(t *testing.T) {
	original := `{
		"type": "Feature",
		"stac_version": "1.0.0",
		"id": "big",
		"geometry": {"type": "Point", "coordinates": [12.5, -3]},
		"bbox": [12.5, -3, 12.5, -3],
		"properties": {"datetime": "2021-03-04T05:06:07Z", "x:count": 9007199254740993},
		"links": [],
		"assets": {"data": {"href": "./data.tif", "file:size": 9007199254740995}},
		"x:big": 9007199254740993
	}`

	var item Item
	require.NoError(t, json.Unmarshal([]byte(original), &item))
	assert.Equal(t, json.Number("9007199254740993"), item.AdditionalFields["x:big"])
	assert.Equal(t, []float64{12.5, -3, 12.5, -3}, item.Bbox)

	output, err := json.Marshal(&item)
	require.NoError(t, err)
	assert.Contains(t, string(output), `"x:big":9007199254740993`)
	assert.Contains(t, string(output), `"x:count":9007199254740993`)
	assert.Contains(t, string(output), `"file:size":9007199254740995`)
}

func TestDatetimeKeepsOffset(t *testing.T) {
	original := `{
		"type": "Feature",
		"stac_version": "1.0.0",
		"id": "offset",
		"geometry": null,
		"properties": {
			"datetime": "2021-03-04T07:06:07+02:00",
			"start_datetime": "2021-03-04T00:00:00-05:00",
			"end_datetime": "2021-03-04T23:59:59.5Z"
		},
		"links": [],
		"assets": {}
	}`

	var item Item
	require.NoError(t, json.Unmarshal([]byte(original), &item))
	require.NotNil(t, item.Datetime)
	assert.True(t, item.Datetime.Equal(testTime))

	output, err := json.Marshal(&item)
	require.NoError(t, err)
	assert.JSONEq(t, original, string(output))
}
