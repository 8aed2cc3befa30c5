package stac

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Collection is a Catalog with extent, license and descriptive metadata
// shared by its items.
type Collection struct {
	Catalog

	License   string
	Extent    *Extent
	Keywords  []string
	Providers []*Provider
	Summaries map[string]*Summary
	Assets    map[string]*Asset
}

var knownCollectionFields = map[string]bool{
	"type": true, "stac_version": true, "stac_extensions": true,
	"id": true, "title": true, "description": true, "keywords": true,
	"license": true, "providers": true, "extent": true, "summaries": true,
	"links": true, "assets": true,
}

// NewCollection creates a collection that is the root of its own scope.
func NewCollection(id, description string, extent *Extent, license string) *Collection {
	col := &Collection{License: license, Extent: extent}
	col.Catalog = Catalog{Description: description, catalogType: AbsolutePublished}
	col.object = newObject(col, id)
	col.selfRoot()
	return col
}

func (col *Collection) Type() ObjectType { return TypeCollection }

func (col *Collection) assetMap() map[string]*Asset { return col.Assets }

// AddAsset sets the asset under key.
func (col *Collection) AddAsset(key string, a *Asset) {
	if col.Assets == nil {
		col.Assets = make(map[string]*Asset)
	}
	col.Assets[key] = a
}

// MakeAssetHrefsRelative rewrites absolute asset hrefs relative to the
// collection's self href where they share a root.
func (col *Collection) MakeAssetHrefsRelative() error {
	if col.selfHref == "" {
		return fmt.Errorf("%w: collection %q", ErrMissingSelfHref, col.id)
	}
	makeAssetHrefsRelative(col.Assets, col.selfHref)
	return nil
}

func (col *Collection) MakeAssetHrefsAbsolute() error {
	if col.selfHref == "" {
		return fmt.Errorf("%w: collection %q", ErrMissingSelfHref, col.id)
	}
	makeAssetHrefsAbsolute(col.Assets, col.selfHref)
	return nil
}

// Clone copies the collection. See Catalog.Clone.
func (col *Collection) Clone() Object {
	clone := &Collection{
		License:  col.License,
		Extent:   col.Extent.Clone(),
		Keywords: slices.Clone(col.Keywords),
		Assets:   cloneAssets(col.Assets),
	}
	clone.self = clone
	col.cloneCatalogInto(&clone.Catalog)
	if col.Providers != nil {
		clone.Providers = make([]*Provider, len(col.Providers))
		for i, p := range col.Providers {
			clone.Providers[i] = p.Clone()
		}
	}
	if col.Summaries != nil {
		clone.Summaries = make(map[string]*Summary, len(col.Summaries))
		for k, s := range col.Summaries {
			clone.Summaries[k] = s.Clone()
		}
	}
	return clone
}

func (col *Collection) ToDict(opts ...DictOption) (map[string]any, error) {
	cfg := newDictConfig(opts)
	d := make(map[string]any)
	if err := col.encodeCommon(d, TypeCollection, cfg); err != nil {
		return nil, err
	}
	col.encodeCatalogFields(d)
	d["license"] = col.License

	extent, err := encodeValue(col.Extent)
	if err != nil {
		return nil, fmt.Errorf("encode extent: %w", err)
	}
	d["extent"] = extent

	if col.Keywords != nil {
		d["keywords"] = slices.Clone(col.Keywords)
	}
	if col.Providers != nil {
		v, err := encodeValue(col.Providers)
		if err != nil {
			return nil, fmt.Errorf("encode providers: %w", err)
		}
		d["providers"] = v
	}
	if col.Summaries != nil {
		v, err := encodeValue(col.Summaries)
		if err != nil {
			return nil, fmt.Errorf("encode summaries: %w", err)
		}
		d["summaries"] = v
	}
	if col.Assets != nil {
		v, err := assetsToDict(col.Assets)
		if err != nil {
			return nil, fmt.Errorf("encode assets: %w", err)
		}
		d["assets"] = v
	}
	mergeExtras(d, col.AdditionalFields)
	return d, nil
}

// CollectionFromDict decodes a Collection document. Links stay unresolved.
func CollectionFromDict(d map[string]any, href string) (*Collection, error) {
	if err := expectType(d, TypeCollection); err != nil {
		return nil, err
	}
	col := &Collection{}
	col.Catalog = Catalog{catalogType: AbsolutePublished}
	col.object = newObject(col, "")
	if err := col.decodeCatalog(d, href); err != nil {
		return nil, err
	}

	license, err := requiredString(d, "license")
	if err != nil {
		return nil, err
	}
	col.License = license

	rawExtent, ok := d["extent"]
	if !ok || rawExtent == nil {
		return nil, structural("collection %q has no extent", col.id)
	}
	var extent Extent
	if err := decodeValue(rawExtent, &extent); err != nil {
		return nil, structural("collection %q extent: %v", col.id, err)
	}
	col.Extent = &extent

	if v, ok := d["keywords"]; ok {
		keywords, err := stringSlice(v)
		if err != nil {
			return nil, structural("keywords: %v", err)
		}
		col.Keywords = keywords
	}
	if v, ok := d["providers"]; ok && v != nil {
		if err := decodeValue(v, &col.Providers); err != nil {
			return nil, structural("providers: %v", err)
		}
	}
	if v, ok := d["summaries"]; ok && v != nil {
		if err := decodeValue(v, &col.Summaries); err != nil {
			return nil, structural("summaries: %v", err)
		}
	}
	assets, err := assetsFromDict(d["assets"])
	if err != nil {
		return nil, err
	}
	col.Assets = assets

	col.AdditionalFields = withoutKeys(d, knownCollectionFields)
	return col, nil
}

// UnmarshalJSON decodes a Collection document into col.
func (col *Collection) UnmarshalJSON(data []byte) error {
	d, err := decodeDocument(data)
	if err != nil {
		return err
	}
	decoded, err := CollectionFromDict(d, "")
	if err != nil {
		return err
	}
	*col = *decoded
	col.rebindSelf(col)
	return nil
}

// Summary describes the values a property takes across a collection's items:
// a range, a set of values, or a JSON schema.
type Summary struct {
	Range  *Range
	Values []any
	Schema map[string]any
}

// Range is an inclusive range summary.
type Range struct {
	Minimum any `json:"minimum"`
	Maximum any `json:"maximum"`
}

func (s *Summary) Clone() *Summary {
	if s == nil {
		return nil
	}
	c := &Summary{Schema: deepCopyMap(s.Schema)}
	if s.Range != nil {
		r := *s.Range
		c.Range = &r
	}
	if s.Values != nil {
		c.Values = deepCopyValue(s.Values).([]any)
	}
	return c
}

func (s Summary) MarshalJSON() ([]byte, error) {
	switch {
	case s.Values != nil:
		return json.Marshal(s.Values)
	case s.Range != nil:
		return json.Marshal(s.Range)
	default:
		return json.Marshal(s.Schema)
	}
}

func (s *Summary) UnmarshalJSON(data []byte) error {
	var v any
	if err := unmarshalNumbers(data, &v); err != nil {
		return err
	}
	*s = Summary{}
	switch t := v.(type) {
	case []any:
		s.Values = t
	case map[string]any:
		if isRange(t) {
			s.Range = &Range{Minimum: t["minimum"], Maximum: t["maximum"]}
		} else {
			s.Schema = t
		}
	default:
		return fmt.Errorf("summary must be an array or object, got %T", v)
	}
	return nil
}

func isRange(m map[string]any) bool {
	if len(m) != 2 {
		return false
	}
	_, hasMin := m["minimum"]
	_, hasMax := m["maximum"]
	return hasMin && hasMax
}

var _ Container = (*Collection)(nil)
