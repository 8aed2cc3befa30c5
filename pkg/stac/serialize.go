package stac

import (
	"fmt"
	"slices"
)

// DictOption configures ToDict.
type DictOption func(*dictConfig)

type dictConfig struct {
	noTransform  bool
	selfLink     *bool
	requireHrefs bool
}

func newDictConfig(opts []DictOption) dictConfig {
	var cfg dictConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithoutHrefTransform writes link hrefs as stored, ignoring the root's
// catalog type.
func WithoutHrefTransform() DictOption {
	return func(c *dictConfig) { c.noTransform = true }
}

// WithSelfLink forces the self link in or out of the output. Objects without
// a self href never get one.
func WithSelfLink(include bool) DictOption {
	return func(c *dictConfig) { c.selfLink = &include }
}

// requireTargetHrefs fails encoding on a resolved link whose target has no
// self href. WriteObject uses it so nothing is written with a dangling link.
func requireTargetHrefs() DictOption {
	return func(c *dictConfig) { c.requireHrefs = true }
}

type linkPolicy int

const (
	policyAsStored linkPolicy = iota
	policyRelative
	policyAbsolute
)

func (o *object) policy(cfg dictConfig) (linkPolicy, bool) {
	root := o.self.Root()
	if cfg.noTransform || root == nil {
		return policyAsStored, o.selfHref != ""
	}
	switch root.CatalogType() {
	case SelfContained:
		return policyRelative, false
	case RelativePublished:
		return policyRelative, root == o.self && o.selfHref != ""
	default:
		return policyAbsolute, o.selfHref != ""
	}
}

func (o *object) linksToDict(cfg dictConfig) ([]any, error) {
	policy, emitSelf := o.policy(cfg)
	if cfg.selfLink != nil {
		emitSelf = *cfg.selfLink && o.selfHref != ""
	}

	out := make([]any, 0, len(o.links)+1)
	for _, l := range o.links {
		href, ok, err := o.linkHref(l, policy, cfg.requireHrefs)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out = append(out, l.toDict(href))
	}

	if emitSelf {
		var self map[string]any
		if o.selfLink != nil {
			self = o.selfLink.toDict(o.selfHref)
		} else {
			self = map[string]any{"rel": RelSelf, "href": o.selfHref, "type": selfMediaType(o.self)}
		}
		pos := o.selfLinkPos
		if pos < 0 || pos > len(out) {
			pos = len(out)
		}
		out = slices.Insert(out, pos, any(self))
	}
	return out, nil
}

// linkHref returns the href to write for l. The boolean is false for a
// resolved link whose target has neither a self href nor a stored href;
// such links are left out unless required is set, which makes them an error.
func (o *object) linkHref(l *Link, policy linkPolicy, required bool) (string, bool, error) {
	href := l.href
	resolved := l.state == LinkResolved && l.target != nil
	if resolved {
		if h := l.target.SelfHref(); h != "" {
			href = h
		} else if required {
			return "", false, fmt.Errorf("%w: %s link from %q to %q", ErrMissingSelfHref, l.Rel, o.id, l.target.ID())
		} else if href == "" {
			return "", false, nil
		}
	}

	own := o.selfHref
	switch policy {
	case policyAbsolute:
		if own != "" {
			return AbsoluteHref(href, own), true, nil
		}
		return href, true, nil
	case policyRelative:
		if own == "" || !(l.IsHierarchical() || resolved) {
			return href, true, nil
		}
		abs := AbsoluteHref(href, own)
		rel, ok := RelativeHref(abs, own)
		if !ok {
			if l.IsHierarchical() {
				return "", false, fmt.Errorf("%w: %s link %q from %q", ErrNoCommonRoot, l.Rel, abs, own)
			}
			return abs, true, nil
		}
		return rel, true, nil
	default:
		return href, true, nil
	}
}

func selfMediaType(obj Object) string {
	if obj.Type() == TypeItem {
		return MediaTypeGeoJSON
	}
	return MediaTypeJSON
}

// ObjectFromDict decodes a Catalog, Collection or Item document. The "type"
// field selects the variant; without one, a document with extent and license
// is a Collection, one with geometry or properties is an Item, and anything
// else is a Catalog. Links stay unresolved and href, when given, becomes the
// self href.
func ObjectFromDict(d map[string]any, href string) (Object, error) {
	if d == nil {
		return nil, structural("empty document")
	}
	switch typ := documentType(d); typ {
	case TypeCatalog:
		return CatalogFromDict(d, href)
	case TypeCollection:
		return CollectionFromDict(d, href)
	case TypeItem:
		return ItemFromDict(d, href)
	default:
		return nil, structural("unknown object type %q", typ)
	}
}

func documentType(d map[string]any) ObjectType {
	if v, ok := d["type"]; ok {
		s, _ := v.(string)
		return ObjectType(s)
	}
	_, hasExtent := d["extent"]
	_, hasLicense := d["license"]
	if hasExtent && hasLicense {
		return TypeCollection
	}
	_, hasGeometry := d["geometry"]
	_, hasProperties := d["properties"]
	if hasGeometry || hasProperties {
		return TypeItem
	}
	return TypeCatalog
}

func expectType(d map[string]any, want ObjectType) error {
	v, ok := d["type"]
	if !ok {
		return nil
	}
	if got, _ := v.(string); ObjectType(got) != want {
		return fmt.Errorf("%w: document type is %v, want %s", ErrTypeMismatch, v, want)
	}
	return nil
}

// decodeDocument parses a JSON object. Numbers are kept as json.Number.
func decodeDocument(data []byte) (map[string]any, error) {
	var d map[string]any
	if err := unmarshalNumbers(data, &d); err != nil {
		return nil, err
	}
	if d == nil {
		return nil, structural("document is not an object")
	}
	return d, nil
}
