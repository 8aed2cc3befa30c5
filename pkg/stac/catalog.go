package stac

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
)

// CatalogType controls how links are written when a catalog is serialized.
type CatalogType string

const (
	// SelfContained catalogs use relative links and no self links, so the
	// whole tree can be moved or copied as a unit.
	SelfContained CatalogType = "SELF_CONTAINED"
	// RelativePublished catalogs use relative links plus an absolute self
	// link on the root.
	RelativePublished CatalogType = "RELATIVE_PUBLISHED"
	// AbsolutePublished catalogs use absolute links and a self link on
	// every object.
	AbsolutePublished CatalogType = "ABSOLUTE_PUBLISHED"
)

// ParseCatalogType parses one of the CatalogType names, case-insensitively
// and with dashes or underscores.
func ParseCatalogType(s string) (CatalogType, error) {
	normalized := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == '-':
			ch = '_'
		case ch >= 'a' && ch <= 'z':
			ch -= 'a' - 'A'
		}
		normalized = append(normalized, ch)
	}
	switch t := CatalogType(normalized); t {
	case SelfContained, RelativePublished, AbsolutePublished:
		return t, nil
	}
	return "", fmt.Errorf("stac: unknown catalog type %q", s)
}

// DetermineCatalogType infers the catalog type of a root document from its
// links: without a self link it is self-contained, with a self link and
// relative hierarchical links it is relative-published, and otherwise it is
// absolute-published.
func DetermineCatalogType(doc map[string]any) CatalogType {
	links, _ := doc["links"].([]any)
	hasSelf, relative := false, false
	for _, raw := range links {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		rel, _ := m["rel"].(string)
		href, _ := m["href"].(string)
		switch rel {
		case RelSelf:
			hasSelf = true
		case RelRoot, RelParent, RelChild, RelItem, RelCollection:
			if href != "" && !IsAbsoluteHref(href) {
				relative = true
			}
		}
	}
	switch {
	case !hasSelf:
		return SelfContained
	case relative:
		return RelativePublished
	default:
		return AbsolutePublished
	}
}

// SkipChildren is returned by a WalkFunc to skip the descendants of the
// container being visited.
var SkipChildren = errors.New("skip children")

var errStopWalk = errors.New("stop walk")

// WalkFunc is called for every container in pre-order with its resolved
// children and items.
type WalkFunc func(c Container, children []Container, items []*Item) error

// Container is implemented by *Catalog and *Collection.
type Container interface {
	Object

	CatalogType() CatalogType
	SetCatalogType(t CatalogType)
	IsRoot() bool
	// ResolvedObjects returns the identity cache of the container's root
	// scope, or nil when the root is unresolved.
	ResolvedObjects() *ResolvedObjectCache

	AddChild(child Container, title string) error
	AddChildren(children ...Container) error
	AddItem(item *Item, title string) error
	AddItems(items ...*Item) error
	RemoveChild(ctx context.Context, r Reader, id string) (Container, error)
	RemoveItem(ctx context.Context, r Reader, id string) (*Item, error)
	ClearChildren()
	ClearItems()

	Children(ctx context.Context, r Reader) iter.Seq2[Container, error]
	Items(ctx context.Context, r Reader) iter.Seq2[*Item, error]
	AllItems(ctx context.Context, r Reader) iter.Seq2[*Item, error]
	GetChildren(ctx context.Context, r Reader) ([]Container, error)
	GetItems(ctx context.Context, r Reader) ([]*Item, error)
	GetChild(ctx context.Context, r Reader, id string) (Container, error)
	GetItem(ctx context.Context, r Reader, id string) (*Item, error)
	Walk(ctx context.Context, r Reader, fn WalkFunc) error

	NormalizeHrefs(ctx context.Context, r Reader, rootHref string, opts ...NormalizeOption) error
	MakeAllAssetHrefsRelative(ctx context.Context, r Reader) error
	MakeAllAssetHrefsAbsolute(ctx context.Context, r Reader) error
	Save(ctx context.Context, w Writer, catalogType CatalogType) error

	FullCopy(ctx context.Context, r Reader) (Container, error)
	MapItems(ctx context.Context, r Reader, fn func(*Item) ([]*Item, error)) (Container, error)
	MapAssets(ctx context.Context, r Reader, fn AssetMapper) (Container, error)

	catalog() *Catalog
}

// Catalog is a STAC Catalog: a node grouping child catalogs, collections and
// items.
type Catalog struct {
	object

	Title       string
	Description string

	catalogType CatalogType
	cache       *ResolvedObjectCache
}

var knownCatalogFields = map[string]bool{
	"type": true, "stac_version": true, "stac_extensions": true,
	"id": true, "title": true, "description": true, "links": true,
}

// NewCatalog creates a catalog that is the root of its own scope.
func NewCatalog(id, description string) *Catalog {
	c := &Catalog{Description: description, catalogType: AbsolutePublished}
	c.object = newObject(c, id)
	c.selfRoot()
	return c
}

func (c *Catalog) catalog() *Catalog { return c }

func (c *Catalog) Type() ObjectType { return TypeCatalog }

func (c *Catalog) CatalogType() CatalogType { return c.catalogType }

func (c *Catalog) SetCatalogType(t CatalogType) { c.catalogType = t }

// IsRoot reports whether the container's root link points at itself.
func (c *Catalog) IsRoot() bool {
	root := c.self.Root()
	return root != nil && root == c.self
}

func (c *Catalog) ResolvedObjects() *ResolvedObjectCache {
	return scopeCache(c.self)
}

func (c *Catalog) container() Container { return c.self.(Container) }

// selfRoot makes the container the root of a new, empty scope.
func (c *Catalog) selfRoot() {
	c.cache = NewResolvedObjectCache()
	c.setRootTarget(c.container())
	_ = c.cache.Add(c.self)
}

// makeRoot makes the container the root of a new scope holding its resolved
// subtree.
func (c *Catalog) makeRoot() {
	c.selfRoot()
	root := c.container()
	for _, m := range resolvedSubtree(c.self)[1:] {
		m.base().setRootTarget(root)
		_ = c.cache.Add(m)
	}
}

// resolvedSubtree lists obj and every object reachable from it through
// resolved child and item links, in pre-order.
func resolvedSubtree(obj Object) []Object {
	var out []Object
	seen := make(map[Object]bool)
	var visit func(o Object)
	visit = func(o Object) {
		if seen[o] {
			return
		}
		seen[o] = true
		out = append(out, o)
		for _, l := range o.base().links {
			if (l.Rel == RelChild || l.Rel == RelItem) && l.IsResolved() {
				visit(l.target)
			}
		}
	}
	visit(obj)
	return out
}

// adopt moves obj and its resolved subtree into the container's root scope.
// Duplicate ids are checked before anything changes.
func (c *Catalog) adopt(obj Object) error {
	members := resolvedSubtree(obj)
	newRoot := c.self.Root()

	var newCache *ResolvedObjectCache
	if newRoot != nil {
		newCache = newRoot.catalog().cache
	}
	if newCache != nil {
		for _, m := range members {
			if err := newCache.checkID(m, m.ID()); err != nil {
				return err
			}
		}
	}

	var oldRootCat *Catalog
	if oldRoot := obj.Root(); oldRoot != nil && oldRoot == obj {
		oldRootCat = oldRoot.catalog()
	}

	for _, m := range members {
		if oc := scopeCache(m); oc != nil && oc != newCache {
			oc.Remove(m)
		}
		switch {
		case newRoot != nil:
			m.base().setRootTarget(newRoot)
		default:
			m.base().setRootHref(c.GetLink(RelRoot))
		}
		if newCache != nil {
			_ = newCache.Add(m)
		}
	}
	if oldRootCat != nil {
		oldRootCat.cache = nil
	}
	return nil
}

// setRootHref copies an unresolved root link, or removes the root link when
// src is nil.
func (o *object) setRootHref(src *Link) {
	o.RemoveLinks(RelRoot)
	if src == nil {
		return
	}
	l := NewLink(RelRoot, src.AbsoluteHref())
	l.MediaType = src.MediaType
	l.Title = src.Title
	l.owner = o.self
	o.links = slices.Insert(o.links, 0, l)
}

func (c *Catalog) hasDescendant(obj Object) bool {
	return slices.Contains(resolvedSubtree(obj), c.self)
}

// AddChild attaches child under the container. The child and its resolved
// subtree join the container's root scope; a child whose id is already
// taken in that scope is rejected with a *DuplicateIDError and nothing
// changes.
func (c *Catalog) AddChild(child Container, title string) error {
	if child == nil {
		return errors.New("stac: nil child")
	}
	if child == c.self || c.hasDescendant(child) {
		return structural("adding %q under %q would create a cycle", child.ID(), c.id)
	}
	for _, l := range c.links {
		if l.Rel != RelChild || !l.IsResolved() {
			continue
		}
		if l.target == child {
			return nil
		}
		if l.target.ID() == child.ID() {
			return &DuplicateIDError{ID: child.ID()}
		}
	}

	if err := c.adopt(child); err != nil {
		return err
	}
	child.base().setParentTarget(c.container())

	l := NewObjectLink(RelChild, child)
	l.MediaType = MediaTypeJSON
	l.Title = title
	c.AddLink(l)
	return nil
}

func (c *Catalog) AddChildren(children ...Container) error {
	for _, child := range children {
		if err := c.AddChild(child, ""); err != nil {
			return err
		}
	}
	return nil
}

// AddItem attaches item under the container. Adding to a Collection also sets
// the item's collection link.
func (c *Catalog) AddItem(item *Item, title string) error {
	if item == nil {
		return errors.New("stac: nil item")
	}
	for _, l := range c.links {
		if l.Rel != RelItem || !l.IsResolved() {
			continue
		}
		if l.target == Object(item) {
			return nil
		}
		if l.target.ID() == item.ID() {
			return &DuplicateIDError{ID: item.ID()}
		}
	}

	if err := c.adopt(item); err != nil {
		return err
	}
	item.setParentTarget(c.container())
	if col, ok := c.self.(*Collection); ok {
		item.SetCollection(col)
	}

	l := NewObjectLink(RelItem, item)
	l.MediaType = MediaTypeGeoJSON
	l.Title = title
	c.AddLink(l)
	return nil
}

func (c *Catalog) AddItems(items ...*Item) error {
	for _, item := range items {
		if err := c.AddItem(item, ""); err != nil {
			return err
		}
	}
	return nil
}

// RemoveChild detaches the child with the given id, resolving child links as
// needed. The detached child becomes the root of a new scope holding its
// resolved subtree.
func (c *Catalog) RemoveChild(ctx context.Context, r Reader, id string) (Container, error) {
	for _, l := range c.GetLinks(RelChild) {
		obj, err := l.Resolve(ctx, r)
		if err != nil {
			return nil, err
		}
		if obj.ID() != id {
			continue
		}
		c.removeLink(l)
		child := obj.(Container)
		detachContainer(child)
		return child, nil
	}
	return nil, fmt.Errorf("%w: child %q of %q", ErrObjectNotFound, id, c.id)
}

// RemoveItem detaches the item with the given id and strips its parent and
// root links.
func (c *Catalog) RemoveItem(ctx context.Context, r Reader, id string) (*Item, error) {
	for _, l := range c.GetLinks(RelItem) {
		obj, err := l.Resolve(ctx, r)
		if err != nil {
			return nil, err
		}
		if obj.ID() != id {
			continue
		}
		c.removeLink(l)
		item := obj.(*Item)
		detachItem(item)
		return item, nil
	}
	return nil, fmt.Errorf("%w: item %q of %q", ErrObjectNotFound, id, c.id)
}

// ClearChildren removes every child link. Resolved children are detached as
// in RemoveChild.
func (c *Catalog) ClearChildren() {
	for _, l := range c.GetLinks(RelChild) {
		c.removeLink(l)
		if child, ok := l.Target().(Container); ok {
			detachContainer(child)
		}
	}
}

// ClearItems removes every item link. Resolved items are detached as in
// RemoveItem.
func (c *Catalog) ClearItems() {
	for _, l := range c.GetLinks(RelItem) {
		c.removeLink(l)
		if item, ok := l.Target().(*Item); ok {
			detachItem(item)
		}
	}
}

func detachContainer(child Container) {
	if cache := scopeCache(child); cache != nil {
		for _, m := range resolvedSubtree(child) {
			cache.Remove(m)
		}
	}
	child.base().setParentTarget(nil)
	child.catalog().makeRoot()
}

func detachItem(item *Item) {
	if cache := scopeCache(item); cache != nil {
		cache.Remove(item)
	}
	item.setParentTarget(nil)
	item.setRootTarget(nil)
}

// Children resolves child links in order.
func (c *Catalog) Children(ctx context.Context, r Reader) iter.Seq2[Container, error] {
	return func(yield func(Container, error) bool) {
		for _, l := range c.GetLinks(RelChild) {
			obj, err := l.Resolve(ctx, r)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(obj.(Container), nil) {
				return
			}
		}
	}
}

// Items resolves item links in order.
func (c *Catalog) Items(ctx context.Context, r Reader) iter.Seq2[*Item, error] {
	return func(yield func(*Item, error) bool) {
		for _, l := range c.GetLinks(RelItem) {
			obj, err := l.Resolve(ctx, r)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(obj.(*Item), nil) {
				return
			}
		}
	}
}

// AllItems yields the items of the container and all of its descendants.
func (c *Catalog) AllItems(ctx context.Context, r Reader) iter.Seq2[*Item, error] {
	return func(yield func(*Item, error) bool) {
		err := c.Walk(ctx, r, func(_ Container, _ []Container, items []*Item) error {
			for _, item := range items {
				if !yield(item, nil) {
					return errStopWalk
				}
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStopWalk) {
			yield(nil, err)
		}
	}
}

func (c *Catalog) GetChildren(ctx context.Context, r Reader) ([]Container, error) {
	var out []Container
	for child, err := range c.Children(ctx, r) {
		if err != nil {
			return nil, err
		}
		out = append(out, child)
	}
	return out, nil
}

func (c *Catalog) GetItems(ctx context.Context, r Reader) ([]*Item, error) {
	var out []*Item
	for item, err := range c.Items(ctx, r) {
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// GetChild returns the direct child with the given id.
func (c *Catalog) GetChild(ctx context.Context, r Reader, id string) (Container, error) {
	for child, err := range c.Children(ctx, r) {
		if err != nil {
			return nil, err
		}
		if child.ID() == id {
			return child, nil
		}
	}
	return nil, fmt.Errorf("%w: child %q of %q", ErrObjectNotFound, id, c.id)
}

// GetItem returns the direct item with the given id.
func (c *Catalog) GetItem(ctx context.Context, r Reader, id string) (*Item, error) {
	for item, err := range c.Items(ctx, r) {
		if err != nil {
			return nil, err
		}
		if item.ID() == id {
			return item, nil
		}
	}
	return nil, fmt.Errorf("%w: item %q of %q", ErrObjectNotFound, id, c.id)
}

// Walk visits the container and its descendants in pre-order, children before
// items, following stored link order. Each container is visited once.
func (c *Catalog) Walk(ctx context.Context, r Reader, fn WalkFunc) error {
	return walk(ctx, r, c.container(), fn, make(map[Object]bool))
}

func walk(ctx context.Context, r Reader, c Container, fn WalkFunc, visited map[Object]bool) error {
	if visited[c] {
		return nil
	}
	visited[c] = true
	if err := ctx.Err(); err != nil {
		return err
	}

	children, err := c.GetChildren(ctx, r)
	if err != nil {
		return err
	}
	items, err := c.GetItems(ctx, r)
	if err != nil {
		return err
	}
	if err := fn(c, children, items); err != nil {
		if errors.Is(err, SkipChildren) {
			return nil
		}
		return err
	}
	for _, child := range children {
		if err := walk(ctx, r, child, fn, visited); err != nil {
			return err
		}
	}
	return nil
}

// MakeAllAssetHrefsRelative makes the asset hrefs of every item and
// collection in the tree relative to their owners where possible.
func (c *Catalog) MakeAllAssetHrefsRelative(ctx context.Context, r Reader) error {
	return c.Walk(ctx, r, func(cont Container, _ []Container, items []*Item) error {
		if col, ok := cont.(*Collection); ok {
			if err := col.MakeAssetHrefsRelative(); err != nil {
				return err
			}
		}
		for _, item := range items {
			if err := item.MakeAssetHrefsRelative(); err != nil {
				return err
			}
		}
		return nil
	})
}

// MakeAllAssetHrefsAbsolute makes the asset hrefs of every item and
// collection in the tree absolute.
func (c *Catalog) MakeAllAssetHrefsAbsolute(ctx context.Context, r Reader) error {
	return c.Walk(ctx, r, func(cont Container, _ []Container, items []*Item) error {
		if col, ok := cont.(*Collection); ok {
			if err := col.MakeAssetHrefsAbsolute(); err != nil {
				return err
			}
		}
		for _, item := range items {
			if err := item.MakeAssetHrefsAbsolute(); err != nil {
				return err
			}
		}
		return nil
	})
}

// Save writes the container and every resolved descendant to its self href.
// A non-empty catalogType is set on the root first. Unresolved links are not
// followed.
func (c *Catalog) Save(ctx context.Context, w Writer, catalogType CatalogType) error {
	if catalogType != "" {
		root := c.self.Root()
		if root == nil {
			root = c.container()
		}
		root.SetCatalogType(catalogType)
	}
	return save(ctx, w, c.self, make(map[Object]bool))
}

func save(ctx context.Context, w Writer, obj Object, seen map[Object]bool) error {
	if seen[obj] {
		return nil
	}
	seen[obj] = true
	if err := WriteObject(ctx, w, obj); err != nil {
		return err
	}
	if _, ok := obj.(Container); !ok {
		return nil
	}
	for _, rel := range []string{RelChild, RelItem} {
		for _, l := range obj.GetLinks(rel) {
			if !l.IsResolved() {
				continue
			}
			if err := save(ctx, w, l.target, seen); err != nil {
				return err
			}
		}
	}
	return nil
}

// FullCopy deep copies the container's subtree. See FullCopy.
func (c *Catalog) FullCopy(ctx context.Context, r Reader) (Container, error) {
	obj, err := FullCopy(ctx, r, c.self)
	if err != nil {
		return nil, err
	}
	return obj.(Container), nil
}

// MapItems returns a full copy of the tree in which every item is replaced by
// the items fn returns for it, in order.
func (c *Catalog) MapItems(ctx context.Context, r Reader, fn func(*Item) ([]*Item, error)) (Container, error) {
	cp, err := c.FullCopy(ctx, r)
	if err != nil {
		return nil, err
	}
	err = cp.Walk(ctx, r, func(cont Container, _ []Container, items []*Item) error {
		var mapped []*Item
		for _, item := range items {
			out, err := fn(item)
			if err != nil {
				return fmt.Errorf("map item %q: %w", item.ID(), err)
			}
			mapped = append(mapped, out...)
		}
		cont.ClearItems()
		return cont.AddItems(mapped...)
	})
	if err != nil {
		return nil, err
	}
	return cp, nil
}

// AssetMapper maps one asset to zero or more assets keyed by their new keys.
type AssetMapper func(key string, a *Asset) (map[string]*Asset, error)

// MapAssets returns a full copy of the tree with the assets of every item
// and collection replaced by the output of fn.
func (c *Catalog) MapAssets(ctx context.Context, r Reader, fn AssetMapper) (Container, error) {
	cp, err := c.FullCopy(ctx, r)
	if err != nil {
		return nil, err
	}
	err = cp.Walk(ctx, r, func(cont Container, _ []Container, items []*Item) error {
		if col, ok := cont.(*Collection); ok {
			assets, err := mapAssets(col.Assets, fn)
			if err != nil {
				return fmt.Errorf("map assets of %q: %w", col.ID(), err)
			}
			col.Assets = assets
		}
		for _, item := range items {
			assets, err := mapAssets(item.Assets, fn)
			if err != nil {
				return fmt.Errorf("map assets of %q: %w", item.ID(), err)
			}
			item.Assets = assets
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cp, nil
}

func mapAssets(assets map[string]*Asset, fn AssetMapper) (map[string]*Asset, error) {
	if assets == nil {
		return nil, nil
	}
	out := make(map[string]*Asset, len(assets))
	for _, key := range sortedKeys(assets) {
		mapped, err := fn(key, assets[key])
		if err != nil {
			return nil, err
		}
		for k, a := range mapped {
			out[k] = a
		}
	}
	return out, nil
}

// Clone copies the catalog. A catalog that is its own root yields a clone
// that is the root of its own, new scope.
func (c *Catalog) Clone() Object {
	clone := &Catalog{}
	clone.self = clone
	c.cloneCatalogInto(clone)
	return clone
}

func (c *Catalog) cloneCatalogInto(dst *Catalog) {
	c.object.cloneInto(&dst.object)
	dst.Title = c.Title
	dst.Description = c.Description
	dst.catalogType = c.catalogType
	if c.IsRoot() {
		dst.selfRoot()
	}
}

// ToDict encodes the catalog, applying the link policy of its root.
func (c *Catalog) ToDict(opts ...DictOption) (map[string]any, error) {
	cfg := newDictConfig(opts)
	d := make(map[string]any)
	if err := c.encodeCommon(d, TypeCatalog, cfg); err != nil {
		return nil, err
	}
	c.encodeCatalogFields(d)
	mergeExtras(d, c.AdditionalFields)
	return d, nil
}

func (c *Catalog) encodeCatalogFields(d map[string]any) {
	if c.Title != "" {
		d["title"] = c.Title
	}
	d["description"] = c.Description
}

// CatalogFromDict decodes a Catalog document. Links stay unresolved; href,
// when given, becomes the catalog's self href.
func CatalogFromDict(d map[string]any, href string) (*Catalog, error) {
	if err := expectType(d, TypeCatalog); err != nil {
		return nil, err
	}
	c := &Catalog{catalogType: AbsolutePublished}
	c.object = newObject(c, "")
	if err := c.decodeCatalog(d, href); err != nil {
		return nil, err
	}
	c.AdditionalFields = withoutKeys(d, knownCatalogFields)
	return c, nil
}

func (c *Catalog) decodeCatalog(d map[string]any, href string) error {
	if err := c.decodeCommon(d, href); err != nil {
		return err
	}
	title, err := optionalString(d, "title")
	if err != nil {
		return err
	}
	description, err := requiredString(d, "description")
	if err != nil {
		return err
	}
	c.Title = title
	c.Description = description
	return nil
}

// UnmarshalJSON decodes a Catalog document into c.
func (c *Catalog) UnmarshalJSON(data []byte) error {
	d, err := decodeDocument(data)
	if err != nil {
		return err
	}
	decoded, err := CatalogFromDict(d, "")
	if err != nil {
		return err
	}
	*c = *decoded
	c.rebindSelf(c)
	return nil
}

var _ Container = (*Catalog)(nil)
