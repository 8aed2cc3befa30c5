package stac

import (
	"encoding/json"
	"fmt"

	gostac "github.com/planetlabs/go-stac"
)

// Conversions to and from github.com/planetlabs/go-stac, whose flat structs
// are what STAC API clients in Go usually decode into. Conversions go through
// JSON so foreign members and extension fields survive.

// ItemFromGoSTAC converts a go-stac item. The result is detached from any
// root scope and its links are unresolved.
func ItemFromGoSTAC(src *gostac.Item) (*Item, error) {
	d, err := toDocument(src)
	if err != nil {
		return nil, fmt.Errorf("convert go-stac item: %w", err)
	}
	return ItemFromDict(d, "")
}

// ItemToGoSTAC converts item with its links written as stored.
func ItemToGoSTAC(item *Item) (*gostac.Item, error) {
	d, err := item.ToDict(WithoutHrefTransform())
	if err != nil {
		return nil, err
	}
	var out gostac.Item
	if err := fromDocument(d, &out); err != nil {
		return nil, fmt.Errorf("convert item %q: %w", item.ID(), err)
	}
	return &out, nil
}

// CollectionFromGoSTAC converts a go-stac collection. Like a decoded
// document, the result has unresolved links and no root scope.
func CollectionFromGoSTAC(src *gostac.Collection) (*Collection, error) {
	d, err := toDocument(src)
	if err != nil {
		return nil, fmt.Errorf("convert go-stac collection: %w", err)
	}
	return CollectionFromDict(d, "")
}

// CollectionToGoSTAC converts col with its links written as stored.
func CollectionToGoSTAC(col *Collection) (*gostac.Collection, error) {
	d, err := col.ToDict(WithoutHrefTransform())
	if err != nil {
		return nil, err
	}
	var out gostac.Collection
	if err := fromDocument(d, &out); err != nil {
		return nil, fmt.Errorf("convert collection %q: %w", col.ID(), err)
	}
	return &out, nil
}

func toDocument(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return decodeDocument(data)
}

func fromDocument(d map[string]any, dst any) error {
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}
