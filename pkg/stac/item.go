package stac

import (
	"context"
	"fmt"
	"slices"
	"time"
)

// Item is a STAC Item: a GeoJSON Feature describing assets captured at a
// place and time.
type Item struct {
	object

	// Geometry is a GeoJSON geometry object; nil encodes as null.
	Geometry map[string]any
	// Bbox is required whenever Geometry is set.
	Bbox []float64

	// Datetime, or the StartDatetime/EndDatetime interval, must be set.
	Datetime      *time.Time
	StartDatetime *time.Time
	EndDatetime   *time.Time

	// Properties holds every property other than the datetime fields.
	Properties map[string]any
	Assets     map[string]*Asset

	CollectionID string
}

var knownItemFields = map[string]bool{
	"type": true, "stac_version": true, "stac_extensions": true,
	"id": true, "geometry": true, "bbox": true, "properties": true,
	"links": true, "assets": true, "collection": true,
}

var temporalProperties = map[string]bool{
	"datetime": true, "start_datetime": true, "end_datetime": true,
}

// NewItem creates an item captured at datetime. A nil bbox is computed from
// the geometry's coordinates.
func NewItem(id string, geometry map[string]any, bbox []float64, datetime time.Time, properties map[string]any) *Item {
	item := newItem(id, geometry, bbox, properties)
	item.Datetime = &datetime
	return item
}

// NewItemWithRange creates an item covering the interval [start, end].
func NewItemWithRange(id string, geometry map[string]any, bbox []float64, start, end time.Time, properties map[string]any) *Item {
	item := newItem(id, geometry, bbox, properties)
	item.StartDatetime = &start
	item.EndDatetime = &end
	return item
}

func newItem(id string, geometry map[string]any, bbox []float64, properties map[string]any) *Item {
	if bbox == nil && geometry != nil {
		bbox = geometryBbox(geometry)
	}
	if properties == nil {
		properties = make(map[string]any)
	}
	item := &Item{
		Geometry:   geometry,
		Bbox:       bbox,
		Properties: properties,
		Assets:     make(map[string]*Asset),
	}
	item.object = newObject(item, id)
	return item
}

func (item *Item) Type() ObjectType { return TypeItem }

func (item *Item) assetMap() map[string]*Asset { return item.Assets }

// AddAsset sets the asset under key.
func (item *Item) AddAsset(key string, a *Asset) {
	if item.Assets == nil {
		item.Assets = make(map[string]*Asset)
	}
	item.Assets[key] = a
}

// SetCollection points the item's collection link at col and records its id.
// A nil col removes both.
func (item *Item) SetCollection(col *Collection) {
	if col == nil {
		item.RemoveLinks(RelCollection)
		item.CollectionID = ""
		return
	}
	item.setHierarchyTarget(RelCollection, col, MediaTypeJSON)
	item.CollectionID = col.ID()
}

// GetCollection resolves the item's collection link. It returns nil when the
// item has none.
func (item *Item) GetCollection(ctx context.Context, r Reader) (*Collection, error) {
	l := item.GetLink(RelCollection)
	if l == nil {
		return nil, nil
	}
	obj, err := l.Resolve(ctx, r)
	if err != nil {
		return nil, err
	}
	return obj.(*Collection), nil
}

// MakeAssetHrefsRelative rewrites absolute asset hrefs relative to the item's
// self href. Hrefs with no common root stay absolute.
func (item *Item) MakeAssetHrefsRelative() error {
	if item.selfHref == "" {
		return fmt.Errorf("%w: item %q", ErrMissingSelfHref, item.id)
	}
	makeAssetHrefsRelative(item.Assets, item.selfHref)
	return nil
}

func (item *Item) MakeAssetHrefsAbsolute() error {
	if item.selfHref == "" {
		return fmt.Errorf("%w: item %q", ErrMissingSelfHref, item.id)
	}
	makeAssetHrefsAbsolute(item.Assets, item.selfHref)
	return nil
}

// Clone copies the item. Link targets, including root and parent, are shared
// with the original.
func (item *Item) Clone() Object {
	clone := &Item{
		Geometry:      deepCopyMap(item.Geometry),
		Bbox:          slices.Clone(item.Bbox),
		Datetime:      copyTime(item.Datetime),
		StartDatetime: copyTime(item.StartDatetime),
		EndDatetime:   copyTime(item.EndDatetime),
		Properties:    deepCopyMap(item.Properties),
		Assets:        cloneAssets(item.Assets),
		CollectionID:  item.CollectionID,
	}
	clone.self = clone
	item.object.cloneInto(&clone.object)
	return clone
}

func (item *Item) ToDict(opts ...DictOption) (map[string]any, error) {
	cfg := newDictConfig(opts)
	d := make(map[string]any)
	if err := item.encodeCommon(d, TypeItem, cfg); err != nil {
		return nil, err
	}

	if item.Geometry != nil {
		d["geometry"] = deepCopyMap(item.Geometry)
	} else {
		d["geometry"] = nil
	}
	if item.Bbox != nil {
		d["bbox"] = slices.Clone(item.Bbox)
	}

	props := deepCopyMap(item.Properties)
	if props == nil {
		props = make(map[string]any)
	}
	props["datetime"] = formatTime(item.Datetime)
	if item.StartDatetime != nil {
		props["start_datetime"] = formatTime(item.StartDatetime)
	}
	if item.EndDatetime != nil {
		props["end_datetime"] = formatTime(item.EndDatetime)
	}
	d["properties"] = props

	assets, err := assetsToDict(item.Assets)
	if err != nil {
		return nil, fmt.Errorf("encode assets: %w", err)
	}
	d["assets"] = assets
	if item.CollectionID != "" {
		d["collection"] = item.CollectionID
	}
	mergeExtras(d, item.AdditionalFields)
	return d, nil
}

// ItemFromDict decodes a Feature document. Links stay unresolved.
func ItemFromDict(d map[string]any, href string) (*Item, error) {
	if err := expectType(d, TypeItem); err != nil {
		return nil, err
	}
	item := &Item{}
	item.object = newObject(item, "")
	if err := item.decodeCommon(d, href); err != nil {
		return nil, err
	}

	if g := d["geometry"]; g != nil {
		geometry, ok := g.(map[string]any)
		if !ok {
			return nil, structural("item %q geometry must be an object, got %T", item.id, g)
		}
		item.Geometry = geometry
	}
	bbox, err := floatSlice(d["bbox"])
	if err != nil {
		return nil, structural("item %q bbox: %v", item.id, err)
	}
	if item.Geometry != nil && bbox == nil {
		return nil, structural("item %q has a geometry but no bbox", item.id)
	}
	item.Bbox = bbox

	props, ok := d["properties"].(map[string]any)
	if !ok {
		return nil, structural("item %q properties must be an object", item.id)
	}
	if item.Datetime, err = parseTime(props["datetime"]); err != nil {
		return nil, structural("item %q datetime: %v", item.id, err)
	}
	if item.StartDatetime, err = parseTime(props["start_datetime"]); err != nil {
		return nil, structural("item %q start_datetime: %v", item.id, err)
	}
	if item.EndDatetime, err = parseTime(props["end_datetime"]); err != nil {
		return nil, structural("item %q end_datetime: %v", item.id, err)
	}
	if item.Datetime == nil && (item.StartDatetime == nil || item.EndDatetime == nil) {
		return nil, structural("item %q needs datetime or start_datetime and end_datetime", item.id)
	}
	item.Properties = withoutKeys(props, temporalProperties)
	if item.Properties == nil {
		item.Properties = make(map[string]any)
	}

	if item.Assets, err = assetsFromDict(d["assets"]); err != nil {
		return nil, err
	}
	if item.CollectionID, err = optionalString(d, "collection"); err != nil {
		return nil, err
	}

	item.AdditionalFields = withoutKeys(d, knownItemFields)
	return item, nil
}

// UnmarshalJSON decodes a Feature document into item.
func (item *Item) UnmarshalJSON(data []byte) error {
	d, err := decodeDocument(data)
	if err != nil {
		return err
	}
	decoded, err := ItemFromDict(d, "")
	if err != nil {
		return err
	}
	*item = *decoded
	item.rebindSelf(item)
	return nil
}
