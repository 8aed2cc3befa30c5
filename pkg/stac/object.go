package stac

import (
	"context"
	"encoding/json"
	"slices"
)

// Version is the STAC version written on new objects.
const Version = "1.0.0"

// ObjectType is the value of a document's "type" field.
type ObjectType string

const (
	TypeCatalog    ObjectType = "Catalog"
	TypeCollection ObjectType = "Collection"
	TypeItem       ObjectType = "Feature"
)

// Object is implemented by *Catalog, *Collection and *Item.
type Object interface {
	ID() string
	// SetID renames the object. It fails when the id is taken within the
	// object's root scope.
	SetID(id string) error
	Type() ObjectType

	// Links returns the object's links in order. The self link is not part
	// of the list; see SelfHref.
	Links() []*Link
	GetLink(rel string) *Link
	GetLinks(rel string) []*Link
	AddLink(l *Link)
	RemoveLinks(rel string)

	SelfHref() string
	// SetSelfHref moves the object. Unresolved relative links, and relative
	// asset hrefs, are rewritten so they keep pointing at the same targets.
	SetSelfHref(href string)

	// Root returns the resolved target of the root link without any I/O.
	Root() Container
	GetRoot(ctx context.Context, r Reader) (Container, error)
	GetParent(ctx context.Context, r Reader) (Container, error)

	// Clone copies the object's data and links. Link targets are shared
	// with the original.
	Clone() Object
	// ToDict encodes the object. Links to objects that have no href yet are
	// left out.
	ToDict(opts ...DictOption) (map[string]any, error)

	base() *object
}

// object holds the state shared by every STAC object. Methods that need the
// concrete object (for identity or dispatch) go through self.
type object struct {
	self Object

	id         string
	Version    string
	Extensions []string

	// AdditionalFields holds foreign members not modeled as typed fields.
	AdditionalFields map[string]any

	links    []*Link
	selfHref string
	// selfLink keeps the position and foreign members of a decoded self link.
	selfLink    *Link
	selfLinkPos int
}

func newObject(self Object, id string) object {
	return object{self: self, id: id, Version: Version, selfLinkPos: -1}
}

func (o *object) base() *object { return o }

func (o *object) rebindSelf(self Object) {
	o.self = self
	for _, l := range o.links {
		l.owner = self
	}
}

func (o *object) ID() string { return o.id }

func (o *object) SetID(id string) error {
	if id == o.id {
		return nil
	}
	cache := scopeCache(o.self)
	if cache != nil {
		if err := cache.checkID(o.self, id); err != nil {
			return err
		}
	}
	old := o.id
	o.id = id
	if cache != nil {
		if err := cache.Rehome(o.self); err != nil {
			o.id = old
			return err
		}
	}
	return nil
}

func (o *object) Links() []*Link {
	return slices.Clone(o.links)
}

// GetLink returns the first link with the specified rel type, or nil if not found.
func (o *object) GetLink(rel string) *Link {
	for _, link := range o.links {
		if link.Rel == rel {
			return link
		}
	}
	return nil
}

// GetLinks returns all links with the specified rel type.
func (o *object) GetLinks(rel string) []*Link {
	var result []*Link
	for _, link := range o.links {
		if link.Rel == rel {
			result = append(result, link)
		}
	}
	return result
}

// AddLink appends l. A self link sets the object's self href instead.
func (o *object) AddLink(l *Link) {
	if l.Rel == RelSelf {
		o.self.SetSelfHref(l.Href())
		return
	}
	l.owner = o.self
	o.links = append(o.links, l)
}

func (o *object) RemoveLinks(rel string) {
	if rel == RelSelf {
		o.self.SetSelfHref("")
		return
	}
	o.links = slices.DeleteFunc(o.links, func(l *Link) bool { return l.Rel == rel })
}

func (o *object) removeLink(target *Link) {
	o.links = slices.DeleteFunc(o.links, func(l *Link) bool { return l == target })
}

func (o *object) SelfHref() string { return o.selfHref }

func (o *object) SetSelfHref(href string) {
	old := o.selfHref
	if old == href {
		return
	}
	if old != "" {
		for _, l := range o.links {
			if l.state != LinkResolved && l.href != "" && !IsAbsoluteHref(l.href) {
				l.href = AbsoluteHref(l.href, old)
			}
		}
	}
	if h, ok := o.self.(interface{ assetMap() map[string]*Asset }); ok {
		rebaseAssets(h.assetMap(), old, href)
	}
	o.selfHref = href
	if cache := scopeCache(o.self); cache != nil {
		// Href keys never collide.
		_ = cache.Rehome(o.self)
	}
}

func (o *object) Root() Container {
	l := o.GetLink(RelRoot)
	if l == nil || !l.IsResolved() {
		return nil
	}
	c, _ := l.target.(Container)
	return c
}

func (o *object) GetRoot(ctx context.Context, r Reader) (Container, error) {
	return o.resolveContainer(ctx, r, RelRoot)
}

func (o *object) GetParent(ctx context.Context, r Reader) (Container, error) {
	return o.resolveContainer(ctx, r, RelParent)
}

func (o *object) resolveContainer(ctx context.Context, r Reader, rel string) (Container, error) {
	l := o.GetLink(rel)
	if l == nil {
		return nil, nil
	}
	obj, err := l.Resolve(ctx, r)
	if err != nil {
		return nil, err
	}
	return obj.(Container), nil
}

// setRootTarget replaces the root link with one resolved to root. A nil root
// removes the link.
func (o *object) setRootTarget(root Container) {
	o.setHierarchyTarget(RelRoot, root, MediaTypeJSON)
}

func (o *object) setParentTarget(parent Container) {
	o.setHierarchyTarget(RelParent, parent, MediaTypeJSON)
}

func (o *object) setHierarchyTarget(rel string, target Object, mediaType string) {
	if target == nil {
		o.RemoveLinks(rel)
		return
	}
	if existing := o.GetLink(rel); existing != nil {
		existing.bind(target)
		if existing.MediaType == "" {
			existing.MediaType = mediaType
		}
		return
	}
	l := NewObjectLink(rel, target)
	l.MediaType = mediaType
	l.owner = o.self
	if rel == RelRoot {
		o.links = slices.Insert(o.links, 0, l)
		return
	}
	o.links = append(o.links, l)
}

// SetParent points the parent link at parent, or removes it when nil. It
// does not move the object between scopes; use AddChild or AddItem for that.
func (o *object) SetParent(parent Container) {
	o.setParentTarget(parent)
}

// SetRoot points the root link at root, or removes it when nil. The object
// leaves the cache of its previous root scope and joins the new one.
func (o *object) SetRoot(root Container) error {
	if cur := o.Root(); cur == root {
		return nil
	}
	if root != nil {
		if cache := root.catalog().cache; cache != nil {
			if err := cache.checkID(o.self, o.id); err != nil {
				return err
			}
		}
	}
	if cache := scopeCache(o.self); cache != nil {
		cache.Remove(o.self)
	}
	o.setRootTarget(root)
	if root != nil {
		if cache := root.catalog().cache; cache != nil {
			return cache.Add(o.self)
		}
	}
	return nil
}

// scopeCache returns the cache of obj's root scope, or nil when obj has no
// resolved root.
func scopeCache(obj Object) *ResolvedObjectCache {
	root := obj.Root()
	if root == nil {
		return nil
	}
	return root.catalog().cache
}

func (o *object) cloneInto(dst *object) {
	dst.id = o.id
	dst.Version = o.Version
	dst.Extensions = slices.Clone(o.Extensions)
	dst.AdditionalFields = deepCopyMap(o.AdditionalFields)
	dst.selfHref = o.selfHref
	dst.selfLinkPos = o.selfLinkPos
	if o.selfLink != nil {
		dst.selfLink = o.selfLink.Clone()
	}
	dst.links = make([]*Link, 0, len(o.links))
	for _, l := range o.links {
		c := l.Clone()
		c.owner = dst.self
		dst.links = append(dst.links, c)
	}
}

var knownObjectFields = map[string]bool{
	"type": true, "stac_version": true, "stac_extensions": true, "id": true, "links": true,
}

func (o *object) decodeCommon(d map[string]any, href string) error {
	id, err := requiredString(d, "id")
	if err != nil {
		return err
	}
	o.id = id

	version, err := optionalString(d, "stac_version")
	if err != nil {
		return err
	}
	o.Version = version

	if v, ok := d["stac_extensions"]; ok {
		exts, err := stringSlice(v)
		if err != nil {
			return structural("stac_extensions: %v", err)
		}
		if exts == nil {
			exts = []string{}
		}
		o.Extensions = exts
	}

	rawLinks, ok := d["links"]
	if !ok || rawLinks == nil {
		rawLinks = []any{}
	}
	list, ok := rawLinks.([]any)
	if !ok {
		return structural("links must be an array, got %T", rawLinks)
	}

	selfHref := ""
	for i, raw := range list {
		l, err := linkFromDict(raw)
		if err != nil {
			return err
		}
		if l.Rel == RelSelf {
			if o.selfLink == nil {
				o.selfLink = l
				o.selfLinkPos = i
				selfHref = l.href
			}
			continue
		}
		l.owner = o.self
		o.links = append(o.links, l)
	}

	if href == "" {
		href = selfHref
	}
	o.selfHref = href
	return nil
}

func (o *object) encodeCommon(d map[string]any, typ ObjectType, cfg dictConfig) error {
	d["type"] = string(typ)
	d["stac_version"] = o.Version
	if o.Extensions != nil {
		d["stac_extensions"] = slices.Clone(o.Extensions)
	}
	d["id"] = o.id

	links, err := o.linksToDict(cfg)
	if err != nil {
		return err
	}
	d["links"] = links
	return nil
}

// MarshalJSON encodes the object with the serialization policy of its root.
func (o *object) MarshalJSON() ([]byte, error) {
	d, err := o.self.ToDict()
	if err != nil {
		return nil, err
	}
	return json.Marshal(d)
}
