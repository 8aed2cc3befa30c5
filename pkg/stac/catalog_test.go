package stac

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCatalogIsRoot(t *testing.T) {
	c := NewCatalog("root", "a root catalog")
	assert.True(t, c.IsRoot())
	assert.Same(t, c, c.Root())
	require.NotNil(t, c.ResolvedObjects())
	assert.Same(t, c, c.ResolvedObjects().Get("root"))
	assert.Equal(t, AbsolutePublished, c.CatalogType())

	col := newTestCollection("col")
	assert.True(t, col.IsRoot())
	assert.Equal(t, TypeCollection, col.Type())
}

func TestAddChildAndItem(t *testing.T) {
	ctx := context.Background()
	root := NewCatalog("root", "root")
	col := newTestCollection("col")
	item := newTestItem("item-1")

	require.NoError(t, col.AddItem(item, "first"))
	require.NoError(t, root.AddChild(col, "Collection"))

	assert.False(t, col.IsRoot())
	assert.Same(t, root, col.Root())
	assert.Same(t, root, item.Root(), "items follow their container into the new scope")

	cache := root.ResolvedObjects()
	assert.Same(t, col, cache.Get("col"))
	assert.Same(t, item, cache.Get("item-1"))
	assert.Equal(t, 3, cache.Len())

	parent, err := item.GetParent(ctx, nil)
	require.NoError(t, err)
	assert.Same(t, col, parent)

	got, err := item.GetCollection(ctx, nil)
	require.NoError(t, err)
	assert.Same(t, col, got)
	assert.Equal(t, "col", item.CollectionID)

	children, err := root.GetChildren(ctx, nil)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "Collection", root.GetLink(RelChild).Title)
	assert.Equal(t, "first", col.GetLink(RelItem).Title)
}

func TestAddRejectsDuplicateIDs(t *testing.T) {
	root := NewCatalog("root", "root")
	sub := NewCatalog("sub", "sub")
	require.NoError(t, root.AddChild(sub, ""))
	require.NoError(t, root.AddItem(newTestItem("item-1"), ""))

	err := sub.AddItem(newTestItem("item-1"), "")
	var dup *DuplicateIDError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "item-1", dup.ID)
	assert.Empty(t, sub.GetLinks(RelItem), "a rejected item leaves no link behind")

	err = root.AddChild(NewCatalog("sub", "another"), "")
	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.Len(t, root.GetLinks(RelChild), 1)
}

func TestAddChildIsIdempotent(t *testing.T) {
	root := NewCatalog("root", "root")
	sub := NewCatalog("sub", "sub")
	require.NoError(t, root.AddChild(sub, ""))
	require.NoError(t, root.AddChild(sub, ""))
	assert.Len(t, root.GetLinks(RelChild), 1)
}

func TestAddChildRejectsCycles(t *testing.T) {
	root := NewCatalog("root", "root")
	sub := NewCatalog("sub", "sub")
	require.NoError(t, root.AddChild(sub, ""))

	assert.ErrorIs(t, sub.AddChild(root, ""), ErrStructural)
	assert.ErrorIs(t, root.AddChild(root, ""), ErrStructural)
}

func TestRemoveChild(t *testing.T) {
	ctx := context.Background()
	root := NewCatalog("root", "root")
	sub := NewCatalog("sub", "sub")
	item := newTestItem("item-1")
	require.NoError(t, sub.AddItem(item, ""))
	require.NoError(t, root.AddChild(sub, ""))

	removed, err := root.RemoveChild(ctx, nil, "sub")
	require.NoError(t, err)
	assert.Same(t, sub, removed)
	assert.Empty(t, root.GetLinks(RelChild))
	assert.Nil(t, sub.GetLink(RelParent))

	assert.True(t, sub.IsRoot(), "a detached container roots its own scope")
	assert.Same(t, sub, item.Root())
	assert.Nil(t, root.ResolvedObjects().Get("item-1"))
	assert.Same(t, item, sub.ResolvedObjects().Get("item-1"))

	_, err = root.RemoveChild(ctx, nil, "sub")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestRemoveItem(t *testing.T) {
	ctx := context.Background()
	col := newTestCollection("col")
	item := newTestItem("item-1")
	require.NoError(t, col.AddItem(item, ""))

	removed, err := col.RemoveItem(ctx, nil, "item-1")
	require.NoError(t, err)
	assert.Same(t, item, removed)
	assert.Nil(t, item.Root())
	assert.Nil(t, item.GetLink(RelParent))
	assert.Nil(t, col.ResolvedObjects().Get("item-1"))

	_, err = col.RemoveItem(ctx, nil, "item-1")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestClearItems(t *testing.T) {
	root := NewCatalog("root", "root")
	require.NoError(t, root.AddItems(newTestItem("a"), newTestItem("b")))
	root.ClearItems()
	assert.Empty(t, root.GetLinks(RelItem))
	assert.Equal(t, 1, root.ResolvedObjects().Len())
}

func TestWalkAndAllItems(t *testing.T) {
	ctx := context.Background()
	store := publishedTree(t)
	root, err := ReadContainer(ctx, store, "/data/catalog.json")
	require.NoError(t, err)

	var visited []string
	err = root.Walk(ctx, store, func(c Container, children []Container, items []*Item) error {
		visited = append(visited, c.ID())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"root", "a", "b"}, visited)

	var ids []string
	for item, err := range root.AllItems(ctx, store) {
		require.NoError(t, err)
		ids = append(ids, item.ID())
	}
	assert.Equal(t, []string{"shared", "shared"}, ids, "a shared item is reached once per parent")
	assert.Equal(t, 1, store.reads["/data/shared/item.json"])
}

func TestWalkSkipChildren(t *testing.T) {
	ctx := context.Background()
	store := publishedTree(t)
	root, err := ReadContainer(ctx, store, "/data/catalog.json")
	require.NoError(t, err)

	var visited []string
	err = root.Walk(ctx, store, func(c Container, _ []Container, _ []*Item) error {
		visited = append(visited, c.ID())
		return SkipChildren
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"root"}, visited)
}

func TestAllItemsStopsEarly(t *testing.T) {
	ctx := context.Background()
	root := NewCatalog("root", "root")
	require.NoError(t, root.AddItems(newTestItem("a"), newTestItem("b"), newTestItem("c")))

	var ids []string
	for item, err := range root.AllItems(ctx, nil) {
		require.NoError(t, err)
		ids = append(ids, item.ID())
		if len(ids) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestAllItemsReportsResolutionErrors(t *testing.T) {
	ctx := context.Background()
	store := publishedTree(t)
	delete(store.docs, "/data/shared/item.json")
	root, err := ReadContainer(ctx, store, "/data/catalog.json")
	require.NoError(t, err)

	var gotErr error
	for _, err := range root.AllItems(ctx, store) {
		if err != nil {
			gotErr = err
		}
	}
	assert.ErrorIs(t, gotErr, ErrNotFound)
	assert.ErrorIs(t, gotErr, ErrUnresolvableLink)
}

func TestReadObjectRoots(t *testing.T) {
	ctx := context.Background()
	store := publishedTree(t)

	root, err := ReadContainer(ctx, store, "/data/catalog.json")
	require.NoError(t, err)
	assert.True(t, root.IsRoot())
	assert.Equal(t, SelfContained, root.CatalogType())

	sub, err := ReadContainer(ctx, store, "/data/a/catalog.json")
	require.NoError(t, err)
	assert.False(t, sub.IsRoot(), "a sub-catalog keeps its unresolved root link")
	assert.Nil(t, sub.ResolvedObjects())

	_, err = ReadContainer(ctx, store, "/data/shared/item.json")
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = ReadObject(ctx, store, "/data/nope.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDetermineCatalogType(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want CatalogType
	}{
		{
			name: "no self link",
			doc:  `{"links": [{"rel": "child", "href": "./a/catalog.json"}]}`,
			want: SelfContained,
		},
		{
			name: "self link with relative children",
			doc:  `{"links": [{"rel": "self", "href": "https://x.org/catalog.json"}, {"rel": "child", "href": "./a/catalog.json"}]}`,
			want: RelativePublished,
		},
		{
			name: "self link with absolute children",
			doc:  `{"links": [{"rel": "self", "href": "https://x.org/catalog.json"}, {"rel": "child", "href": "https://x.org/a/catalog.json"}]}`,
			want: AbsolutePublished,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetermineCatalogType(dictFromJSON(t, tt.doc)))
		})
	}
}

func TestParseCatalogType(t *testing.T) {
	for in, want := range map[string]CatalogType{
		"SELF_CONTAINED":     SelfContained,
		"self-contained":     SelfContained,
		"relative_published": RelativePublished,
		"Absolute-Published": AbsolutePublished,
	} {
		got, err := ParseCatalogType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseCatalogType("published")
	assert.Error(t, err)
}

func TestSaveWritesResolvedTree(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	root := NewCatalog("root", "root")
	col := newTestCollection("col")
	require.NoError(t, col.AddItem(newTestItem("item-1"), ""))
	require.NoError(t, root.AddChild(col, ""))
	require.NoError(t, root.NormalizeHrefs(ctx, nil, "/out"))

	require.NoError(t, root.Save(ctx, store, SelfContained))
	assert.Equal(t, []string{
		"/out/catalog.json",
		"/out/col/collection.json",
		"/out/col/item-1/item-1.json",
	}, store.writes)
	assert.Equal(t, SelfContained, root.CatalogType())
}

func TestSaveRequiresSelfHref(t *testing.T) {
	root := NewCatalog("root", "root")
	err := root.Save(context.Background(), newMemStore(), "")
	assert.ErrorIs(t, err, ErrMissingSelfHref)
}

func TestCatalogClone(t *testing.T) {
	root := NewCatalog("root", "root")
	root.Title = "Root"
	sub := NewCatalog("sub", "sub")
	require.NoError(t, root.AddChild(sub, ""))

	clone := root.Clone().(*Catalog)
	assert.NotSame(t, root, clone)
	assert.True(t, clone.IsRoot(), "a cloned root roots its own scope")
	assert.NotSame(t, root.ResolvedObjects(), clone.ResolvedObjects())
	assert.Equal(t, "Root", clone.Title)

	clone.Title = "changed"
	assert.Equal(t, "Root", root.Title)

	l := clone.GetLink(RelChild)
	require.NotNil(t, l)
	assert.Same(t, sub, l.Target(), "clones share link targets")
	assert.Same(t, Object(clone), l.Owner())
}

func TestMapItems(t *testing.T) {
	ctx := context.Background()
	root := NewCatalog("root", "root")
	col := newTestCollection("col")
	require.NoError(t, col.AddItems(newTestItem("a"), newTestItem("b")))
	require.NoError(t, root.AddChild(col, ""))

	mapped, err := root.MapItems(ctx, nil, func(item *Item) ([]*Item, error) {
		left := item.Clone().(*Item)
		require.NoError(t, left.SetID(item.ID()+"-left"))
		right := item.Clone().(*Item)
		require.NoError(t, right.SetID(item.ID()+"-right"))
		return []*Item{left, right}, nil
	})
	require.NoError(t, err)

	var ids []string
	for item, err := range mapped.AllItems(ctx, nil) {
		require.NoError(t, err)
		ids = append(ids, item.ID())
		assert.Same(t, mapped, item.Root())
	}
	assert.Equal(t, []string{"a-left", "a-right", "b-left", "b-right"}, ids)

	original, err := col.GetItems(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, original, 2, "the source tree is untouched")
}

func TestMapAssets(t *testing.T) {
	ctx := context.Background()
	root := NewCatalog("root", "root")
	item := newTestItem("item-1")
	item.AddAsset("data", NewAsset("./data.tif", "image/tiff"))
	require.NoError(t, root.AddItem(item, ""))

	mapped, err := root.MapAssets(ctx, nil, func(key string, a *Asset) (map[string]*Asset, error) {
		c := a.Clone()
		c.Title = "mapped"
		return map[string]*Asset{key + "-copy": c}, nil
	})
	require.NoError(t, err)

	items, err := mapped.GetItems(ctx, nil)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Contains(t, items[0].Assets, "data-copy")
	assert.Equal(t, "mapped", items[0].Assets["data-copy"].Title)
	assert.Contains(t, item.Assets, "data")
	assert.NotContains(t, item.Assets, "data-copy")
}
