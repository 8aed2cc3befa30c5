package stac

import (
	"context"
	"encoding/json"
	"fmt"
)

// Relation types used by the object graph.
const (
	RelRoot        = "root"
	RelParent      = "parent"
	RelChild       = "child"
	RelItem        = "item"
	RelSelf        = "self"
	RelCollection  = "collection"
	RelDerivedFrom = "derived_from"
	RelLicense     = "license"
	RelAlternate   = "alternate"
	RelVia         = "via"
	RelNext        = "next"
	RelPrev        = "prev"
)

// Media types written on links created by this package.
const (
	MediaTypeJSON    = "application/json"
	MediaTypeGeoJSON = "application/geo+json"
)

// LinkState is the resolution state of a Link.
type LinkState int

const (
	LinkUnresolved LinkState = iota
	LinkResolving
	LinkResolved
)

func (s LinkState) String() string {
	switch s {
	case LinkUnresolved:
		return "unresolved"
	case LinkResolving:
		return "resolving"
	case LinkResolved:
		return "resolved"
	default:
		return fmt.Sprintf("LinkState(%d)", int(s))
	}
}

// Link is a typed edge from its owner to another document. The target is
// either an unresolved href or, once resolved, an in-memory Object.
type Link struct {
	Rel       string
	MediaType string
	Title     string

	// AdditionalFields holds foreign members (e.g., "method", "body" for POST links).
	AdditionalFields map[string]any

	href   string
	target Object
	state  LinkState
	owner  Object
}

var knownLinkFields = map[string]bool{
	"href": true, "rel": true, "type": true, "title": true,
}

// NewLink creates an unresolved link to href.
func NewLink(rel, href string) *Link {
	return &Link{Rel: rel, href: href}
}

// NewObjectLink creates a link already resolved to target.
func NewObjectLink(rel string, target Object) *Link {
	l := &Link{Rel: rel}
	l.bind(target)
	return l
}

// Href returns the link's href: the target's self href when resolved, and
// the stored href otherwise.
func (l *Link) Href() string {
	if l.state == LinkResolved && l.target != nil {
		if h := l.target.SelfHref(); h != "" {
			return h
		}
	}
	return l.href
}

// SetHref points the link at href, dropping any resolved target.
func (l *Link) SetHref(href string) {
	l.href = href
	l.target = nil
	l.state = LinkUnresolved
}

// Target returns the resolved target, or nil.
func (l *Link) Target() Object {
	if l.state != LinkResolved {
		return nil
	}
	return l.target
}

// SetTarget binds the link to obj.
func (l *Link) SetTarget(obj Object) {
	l.bind(obj)
}

func (l *Link) State() LinkState { return l.state }

func (l *Link) IsResolved() bool { return l.state == LinkResolved }

// Owner returns the object holding the link.
func (l *Link) Owner() Object { return l.owner }

// IsHierarchical reports whether the link's rel structures the catalog tree.
func (l *Link) IsHierarchical() bool {
	switch l.Rel {
	case RelRoot, RelParent, RelChild, RelItem, RelCollection:
		return true
	}
	return false
}

// Unresolve drops the resolved target and falls back to its href.
func (l *Link) Unresolve() {
	if l.state == LinkResolved && l.target != nil {
		if h := l.target.SelfHref(); h != "" {
			l.href = h
		}
	}
	l.target = nil
	l.state = LinkUnresolved
}

// AbsoluteHref returns the link href made absolute against the owner's self
// href. It returns the stored href when no base is known.
func (l *Link) AbsoluteHref() string {
	if l.state == LinkResolved && l.target != nil {
		if h := l.target.SelfHref(); h != "" {
			return h
		}
	}
	base := ""
	if l.owner != nil {
		base = l.owner.SelfHref()
	}
	return AbsoluteHref(l.href, base)
}

// Clone copies the link. The copy shares the original's target and has no
// owner until it is added to an object.
func (l *Link) Clone() *Link {
	c := &Link{
		Rel:              l.Rel,
		MediaType:        l.MediaType,
		Title:            l.Title,
		AdditionalFields: deepCopyMap(l.AdditionalFields),
		href:             l.href,
		target:           l.target,
		state:            l.state,
	}
	if c.state == LinkResolving {
		c.state = LinkUnresolved
		c.target = nil
	}
	return c
}

func (l *Link) bind(obj Object) {
	if obj == nil {
		l.target = nil
		l.state = LinkUnresolved
		return
	}
	if h := obj.SelfHref(); h != "" {
		l.href = h
	}
	l.target = obj
	l.state = LinkResolved
}

// Resolve returns the link target, reading it through r when the link is not
// yet resolved and the owner's root scope does not already hold it.
//
// Objects reached through child and item links are attached to the owner's
// root scope. Every failure is reported as an *UnresolvableLinkError and
// leaves the link unresolved.
func (l *Link) Resolve(ctx context.Context, r Reader) (Object, error) {
	if l.Rel == RelSelf {
		return nil, l.fail(l.href, ErrSelfLinkResolution)
	}
	switch l.state {
	case LinkResolved:
		return l.target, nil
	case LinkResolving:
		return nil, l.fail(l.href, ErrResolutionCycle)
	}

	href := l.href
	if !IsAbsoluteHref(href) {
		base := ""
		if l.owner != nil {
			base = l.owner.SelfHref()
		}
		if base == "" {
			return nil, l.fail(href, ErrNoBaseHref)
		}
		href = AbsoluteHref(href, base)
	}

	var cache *ResolvedObjectCache
	if l.owner != nil {
		cache = scopeCache(l.owner)
	}
	if cache != nil {
		if obj := cache.GetByHref(href); obj != nil {
			if err := checkRelType(l.Rel, obj); err != nil {
				return nil, l.fail(href, err)
			}
			l.bind(obj)
			return obj, nil
		}
	}
	if r == nil {
		return nil, l.fail(href, ErrNoReader)
	}

	l.state = LinkResolving
	obj, err := l.read(ctx, r, href)
	if err != nil {
		l.state = LinkUnresolved
		return nil, l.fail(href, err)
	}

	fresh := true
	if cache != nil {
		cached := cache.GetOrCache(obj)
		if cached != obj {
			if err := checkRelType(l.Rel, cached); err != nil {
				l.state = LinkUnresolved
				return nil, l.fail(href, err)
			}
			obj, fresh = cached, false
		}
	}
	if fresh {
		l.attach(obj)
	}
	l.bind(obj)
	return obj, nil
}

func (l *Link) read(ctx context.Context, r Reader, href string) (Object, error) {
	doc, err := r.Read(ctx, href)
	if err != nil {
		return nil, err
	}
	obj, err := ObjectFromDict(doc, href)
	if err != nil {
		return nil, err
	}
	if err := checkRelType(l.Rel, obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// attach wires a freshly read target into the owner's graph.
func (l *Link) attach(obj Object) {
	var root Container
	if l.owner != nil {
		root = l.owner.Root()
	}

	switch l.Rel {
	case RelChild, RelItem, RelCollection:
		if root != nil {
			obj.base().setRootTarget(root)
		} else {
			selfRootIfOwnHref(obj)
		}
		if l.Rel == RelCollection {
			return
		}
		if owner, ok := l.owner.(Container); ok {
			obj.base().setParentTarget(owner)
		}
	default:
		selfRootIfOwnHref(obj)
	}
}

// selfRootIfOwnHref makes a container whose root link names its own href the
// root of a new scope.
func selfRootIfOwnHref(obj Object) {
	c, ok := obj.(Container)
	if !ok {
		return
	}
	rl := c.GetLink(RelRoot)
	if rl == nil || rl.IsResolved() {
		return
	}
	if self := c.SelfHref(); self != "" && rl.AbsoluteHref() == self {
		c.catalog().selfRoot()
	}
}

func checkRelType(rel string, obj Object) error {
	switch rel {
	case RelChild, RelRoot, RelParent:
		if _, ok := obj.(Container); !ok {
			return fmt.Errorf("%w: %s link target is a %s", ErrTypeMismatch, rel, obj.Type())
		}
	case RelItem:
		if _, ok := obj.(*Item); !ok {
			return fmt.Errorf("%w: item link target is a %s", ErrTypeMismatch, obj.Type())
		}
	case RelCollection:
		if _, ok := obj.(*Collection); !ok {
			return fmt.Errorf("%w: collection link target is a %s", ErrTypeMismatch, obj.Type())
		}
	}
	return nil
}

func (l *Link) fail(href string, err error) error {
	return &UnresolvableLinkError{Rel: l.Rel, Href: href, Err: err}
}

func linkFromDict(v any) (*Link, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, structural("link must be an object, got %T", v)
	}
	rel, err := requiredString(m, "rel")
	if err != nil {
		return nil, err
	}
	href, err := requiredString(m, "href")
	if err != nil {
		return nil, err
	}
	mediaType, err := optionalString(m, "type")
	if err != nil {
		return nil, err
	}
	title, err := optionalString(m, "title")
	if err != nil {
		return nil, err
	}
	return &Link{
		Rel:              rel,
		MediaType:        mediaType,
		Title:            title,
		AdditionalFields: withoutKeys(m, knownLinkFields),
		href:             href,
	}, nil
}

func (l *Link) toDict(href string) map[string]any {
	d := map[string]any{"rel": l.Rel, "href": href}
	if l.MediaType != "" {
		d["type"] = l.MediaType
	}
	if l.Title != "" {
		d["title"] = l.Title
	}
	mergeExtras(d, l.AdditionalFields)
	return d
}

type linkAlias struct {
	Href      string `json:"href"`
	Rel       string `json:"rel"`
	MediaType string `json:"type,omitempty"`
	Title     string `json:"title,omitempty"`
}

// UnmarshalJSON decodes an unresolved link, capturing foreign members.
func (l *Link) UnmarshalJSON(data []byte) error {
	var aux linkAlias
	extras, err := unmarshalWithExtras(data, &aux, knownLinkFields)
	if err != nil {
		return err
	}
	*l = Link{
		Rel:              aux.Rel,
		MediaType:        aux.MediaType,
		Title:            aux.Title,
		AdditionalFields: extras,
		href:             aux.Href,
	}
	return nil
}

// MarshalJSON writes the link with its current href and foreign members.
func (l *Link) MarshalJSON() ([]byte, error) {
	aux := linkAlias{Href: l.Href(), Rel: l.Rel, MediaType: l.MediaType, Title: l.Title}
	return marshalWithExtras(aux, l.AdditionalFields)
}

var (
	_ json.Marshaler   = (*Link)(nil)
	_ json.Unmarshaler = (*Link)(nil)
)
