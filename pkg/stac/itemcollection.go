package stac

import (
	"encoding/json"
	"fmt"
)

// ItemCollection is a GeoJSON FeatureCollection of Items, as returned by
// STAC API item endpoints. Its items do not belong to any root scope.
type ItemCollection struct {
	Items []*Item
	Links []*Link

	// AdditionalFields holds foreign members such as "numberMatched" or
	// "context".
	AdditionalFields map[string]any
}

var knownItemCollectionFields = map[string]bool{
	"type": true, "features": true, "links": true,
}

// NewItemCollection wraps items.
func NewItemCollection(items ...*Item) *ItemCollection {
	return &ItemCollection{Items: items}
}

// ItemCollectionFromDict decodes a FeatureCollection document.
func ItemCollectionFromDict(d map[string]any) (*ItemCollection, error) {
	if t, ok := d["type"]; ok && t != "FeatureCollection" {
		return nil, fmt.Errorf("%w: document type is %v, want FeatureCollection", ErrTypeMismatch, t)
	}
	ic := &ItemCollection{AdditionalFields: withoutKeys(d, knownItemCollectionFields)}

	features, ok := d["features"].([]any)
	if !ok && d["features"] != nil {
		return nil, structural("features must be an array, got %T", d["features"])
	}
	for i, f := range features {
		fd, ok := f.(map[string]any)
		if !ok {
			return nil, structural("feature %d must be an object, got %T", i, f)
		}
		item, err := ItemFromDict(fd, "")
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		ic.Items = append(ic.Items, item)
	}

	if raw, ok := d["links"].([]any); ok {
		for _, v := range raw {
			l, err := linkFromDict(v)
			if err != nil {
				return nil, err
			}
			ic.Links = append(ic.Links, l)
		}
	}
	return ic, nil
}

// ToDict encodes the collection. Items are written with their links as
// stored.
func (ic *ItemCollection) ToDict() (map[string]any, error) {
	features := make([]any, 0, len(ic.Items))
	for _, item := range ic.Items {
		d, err := item.ToDict(WithoutHrefTransform())
		if err != nil {
			return nil, fmt.Errorf("item %q: %w", item.ID(), err)
		}
		features = append(features, d)
	}
	d := map[string]any{
		"type":     "FeatureCollection",
		"features": features,
	}
	if ic.Links != nil {
		links := make([]any, 0, len(ic.Links))
		for _, l := range ic.Links {
			links = append(links, l.toDict(l.Href()))
		}
		d["links"] = links
	}
	mergeExtras(d, ic.AdditionalFields)
	return d, nil
}

// GetLink returns the first link with the specified rel type, or nil if not found.
func (ic *ItemCollection) GetLink(rel string) *Link {
	for _, l := range ic.Links {
		if l.Rel == rel {
			return l
		}
	}
	return nil
}

func (ic *ItemCollection) UnmarshalJSON(data []byte) error {
	d, err := decodeDocument(data)
	if err != nil {
		return err
	}
	decoded, err := ItemCollectionFromDict(d)
	if err != nil {
		return err
	}
	*ic = *decoded
	return nil
}

func (ic *ItemCollection) MarshalJSON() ([]byte, error) {
	d, err := ic.ToDict()
	if err != nil {
		return nil, err
	}
	return json.Marshal(d)
}
