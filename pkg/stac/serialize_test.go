package stac

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildOutTree lays out root -> col -> item-1 under /out.
func buildOutTree(t *testing.T) (*Catalog, *Collection, *Item) {
	t.Helper()
	root := NewCatalog("root", "root")
	col := newTestCollection("col")
	item := newTestItem("item-1")
	require.NoError(t, col.AddItem(item, ""))
	require.NoError(t, root.AddChild(col, ""))
	require.NoError(t, root.NormalizeHrefs(context.Background(), nil, "/out"))
	return root, col, item
}

func TestSerializeSelfContained(t *testing.T) {
	root, col, item := buildOutTree(t)
	root.SetCatalogType(SelfContained)

	d, err := root.ToDict()
	require.NoError(t, err)
	assert.Equal(t, []string{"./col/collection.json"}, linkHrefs(t, d, RelChild))
	assert.Equal(t, []string{"./catalog.json"}, linkHrefs(t, d, RelRoot))
	assert.Empty(t, linkHrefs(t, d, RelSelf))

	d, err = col.ToDict()
	require.NoError(t, err)
	assert.Equal(t, []string{"../catalog.json"}, linkHrefs(t, d, RelParent))
	assert.Equal(t, []string{"./item-1/item-1.json"}, linkHrefs(t, d, RelItem))
	assert.Empty(t, linkHrefs(t, d, RelSelf))

	d, err = item.ToDict()
	require.NoError(t, err)
	assert.Equal(t, []string{"../../catalog.json"}, linkHrefs(t, d, RelRoot))
	assert.Equal(t, []string{"../collection.json"}, linkHrefs(t, d, RelParent))
	assert.Equal(t, []string{"../collection.json"}, linkHrefs(t, d, RelCollection))
	assert.Empty(t, linkHrefs(t, d, RelSelf))
	assert.Equal(t, "col", d["collection"])
}

func TestSerializeRelativePublished(t *testing.T) {
	root, col, _ := buildOutTree(t)
	root.SetCatalogType(RelativePublished)

	d, err := root.ToDict()
	require.NoError(t, err)
	assert.Equal(t, []string{"/out/catalog.json"}, linkHrefs(t, d, RelSelf))
	assert.Equal(t, []string{"./col/collection.json"}, linkHrefs(t, d, RelChild))

	d, err = col.ToDict()
	require.NoError(t, err)
	assert.Empty(t, linkHrefs(t, d, RelSelf), "only the root carries a self link")
	assert.Equal(t, []string{"../catalog.json"}, linkHrefs(t, d, RelRoot))
}

func TestSerializeAbsolutePublished(t *testing.T) {
	root, col, item := buildOutTree(t)
	root.SetCatalogType(AbsolutePublished)

	d, err := col.ToDict()
	require.NoError(t, err)
	assert.Equal(t, []string{"/out/col/collection.json"}, linkHrefs(t, d, RelSelf))
	assert.Equal(t, []string{"/out/catalog.json"}, linkHrefs(t, d, RelRoot))
	assert.Equal(t, []string{"/out/col/item-1/item-1.json"}, linkHrefs(t, d, RelItem))

	d, err = item.ToDict()
	require.NoError(t, err)
	assert.Equal(t, []string{"/out/col/item-1/item-1.json"}, linkHrefs(t, d, RelSelf))
	assert.Equal(t, []string{"/out/col/collection.json"}, linkHrefs(t, d, RelCollection))

	d, err = root.ToDict(WithSelfLink(false))
	require.NoError(t, err)
	assert.Empty(t, linkHrefs(t, d, RelSelf))
}

func TestSerializeNonHierarchicalLinks(t *testing.T) {
	root, _, item := buildOutTree(t)
	root.SetCatalogType(SelfContained)
	item.AddLink(NewLink(RelLicense, "https://example.com/license"))
	item.AddLink(NewLink(RelAlternate, "./item-1.html"))

	d, err := item.ToDict()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/license"}, linkHrefs(t, d, RelLicense))
	assert.Equal(t, []string{"./item-1.html"}, linkHrefs(t, d, RelAlternate))
}

func TestSerializeNoCommonRoot(t *testing.T) {
	root := NewCatalog("root", "root")
	root.SetSelfHref("/out/catalog.json")
	root.SetCatalogType(SelfContained)
	root.AddLink(NewLink(RelChild, "https://example.com/remote/catalog.json"))

	_, err := root.ToDict()
	assert.ErrorIs(t, err, ErrNoCommonRoot)

	d, err := root.ToDict(WithoutHrefTransform())
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/remote/catalog.json"}, linkHrefs(t, d, RelChild))
}

func TestSerializeMissingTargetHref(t *testing.T) {
	root := NewCatalog("root", "root")
	root.SetSelfHref("/out/catalog.json")
	require.NoError(t, root.AddChild(NewCatalog("sub", "sub"), ""))

	d, err := root.ToDict()
	require.NoError(t, err)
	assert.Empty(t, linkHrefs(t, d, RelChild))
	assert.Equal(t, []string{"/out/catalog.json"}, linkHrefs(t, d, RelRoot))

	err = WriteObject(context.Background(), newMemStore(), root)
	assert.ErrorIs(t, err, ErrMissingSelfHref)
}

func TestToDictInMemoryTree(t *testing.T) {
	root := NewCatalog("root", "root")
	col := newTestCollection("col")
	item := newTestItem("item-1")
	item.Properties["platform"] = "sentinel-2a"
	require.NoError(t, root.AddChild(col, "Collection"))
	require.NoError(t, col.AddItem(item, ""))

	for _, obj := range []Object{root, col, item} {
		t.Run(obj.ID(), func(t *testing.T) {
			for _, opts := range [][]DictOption{nil, {WithoutHrefTransform()}} {
				d, err := obj.ToDict(opts...)
				require.NoError(t, err)
				assert.Empty(t, d["links"])

				back, err := ObjectFromDict(d, "")
				require.NoError(t, err)
				assert.Equal(t, obj.ID(), back.ID())
				assert.Equal(t, obj.Type(), back.Type())
			}
			_, err := json.Marshal(obj)
			require.NoError(t, err)
		})
	}

	d, err := item.ToDict()
	require.NoError(t, err)
	back, err := ItemFromDict(d, "")
	require.NoError(t, err)
	assert.Equal(t, "col", back.CollectionID)
	assert.Equal(t, "sentinel-2a", back.Properties["platform"])
	assert.True(t, back.Datetime.Equal(testTime))
}

func TestSerializeIsDeterministic(t *testing.T) {
	root, col, _ := buildOutTree(t)
	root.SetCatalogType(SelfContained)

	first, err := col.ToDict()
	require.NoError(t, err)
	second, err := col.ToDict()
	require.NoError(t, err)
	assert.JSONEq(t, toJSON(t, first), toJSON(t, second))
}

func TestObjectFromDict(t *testing.T) {
	t.Run("type field selects the variant", func(t *testing.T) {
		obj, err := ObjectFromDict(dictFromJSON(t, `{"type": "Catalog", "id": "c", "description": "d", "links": []}`), "/x/catalog.json")
		require.NoError(t, err)
		assert.IsType(t, &Catalog{}, obj)
		assert.Equal(t, "/x/catalog.json", obj.SelfHref())
	})

	t.Run("collection inferred from extent and license", func(t *testing.T) {
		obj, err := ObjectFromDict(dictFromJSON(t, `{
			"id": "c", "description": "d", "license": "MIT", "links": [],
			"extent": {"spatial": {"bbox": [[0, 0, 1, 1]]}, "temporal": {"interval": [[null, null]]}}
		}`), "")
		require.NoError(t, err)
		assert.IsType(t, &Collection{}, obj)
	})

	t.Run("item inferred from properties", func(t *testing.T) {
		obj, err := ObjectFromDict(dictFromJSON(t, `{"id": "i", "geometry": null, "properties": {"datetime": "2020-01-01T00:00:00Z"}, "links": []}`), "")
		require.NoError(t, err)
		assert.IsType(t, &Item{}, obj)
	})

	t.Run("unknown type is structural", func(t *testing.T) {
		_, err := ObjectFromDict(dictFromJSON(t, `{"type": "FeatureCollection", "id": "x"}`), "")
		assert.ErrorIs(t, err, ErrStructural)
	})

	t.Run("explicit type mismatch", func(t *testing.T) {
		_, err := CatalogFromDict(dictFromJSON(t, `{"type": "Feature", "id": "x"}`), "")
		assert.ErrorIs(t, err, ErrTypeMismatch)
	})

	t.Run("collection without extent is structural", func(t *testing.T) {
		_, err := ObjectFromDict(dictFromJSON(t, `{"type": "Collection", "id": "c", "description": "d", "license": "MIT", "links": []}`), "")
		assert.ErrorIs(t, err, ErrStructural)
	})

	t.Run("item geometry requires bbox", func(t *testing.T) {
		_, err := ObjectFromDict(dictFromJSON(t, `{
			"type": "Feature", "id": "i", "links": [],
			"geometry": {"type": "Point", "coordinates": [1, 2]},
			"properties": {"datetime": "2020-01-01T00:00:00Z"}
		}`), "")
		assert.ErrorIs(t, err, ErrStructural)
	})

	t.Run("link without href is structural", func(t *testing.T) {
		_, err := ObjectFromDict(dictFromJSON(t, `{"type": "Catalog", "id": "c", "description": "d", "links": [{"rel": "child"}]}`), "")
		assert.ErrorIs(t, err, ErrStructural)
	})
}

func TestNewItemComputesBbox(t *testing.T) {
	item := NewItem("poly", map[string]any{
		"type": "Polygon",
		"coordinates": []any{[]any{
			[]any{0.0, 0.0}, []any{4.0, 0.0}, []any{4.0, 3.0}, []any{0.0, 0.0},
		}},
	}, nil, testTime, nil)
	assert.Equal(t, []float64{0, 0, 4, 3}, item.Bbox)

	d, err := item.ToDict()
	require.NoError(t, err)
	props := d["properties"].(map[string]any)
	assert.Equal(t, "2021-03-04T05:06:07Z", props["datetime"])
	assert.Equal(t, map[string]any{}, d["assets"])
}

func TestItemWithRange(t *testing.T) {
	end := testTime.AddDate(0, 1, 0)
	item := NewItemWithRange("r", nil, nil, testTime, end, map[string]any{"platform": "sentinel-2a"})
	assert.Nil(t, item.Bbox)
	assert.Nil(t, item.Datetime)

	d, err := item.ToDict()
	require.NoError(t, err)
	props := d["properties"].(map[string]any)
	assert.Nil(t, props["datetime"])
	assert.Contains(t, props, "datetime")
	assert.Equal(t, "2021-04-04T05:06:07Z", props["end_datetime"])
	assert.Equal(t, "sentinel-2a", props["platform"])
	assert.Nil(t, d["geometry"])
	assert.NotContains(t, d, "bbox")
}
