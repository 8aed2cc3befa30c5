package stac

import (
	"fmt"
	"time"
)

// Extent is the spatial and temporal extent of a Collection.
type Extent struct {
	Spatial  SpatialExtent  `json:"spatial"`
	Temporal TemporalExtent `json:"temporal"`

	AdditionalFields map[string]any `json:"-"`
}

// SpatialExtent holds one or more bounding boxes. The first box covers all
// the others.
type SpatialExtent struct {
	Bboxes [][]float64 `json:"bbox"`

	AdditionalFields map[string]any `json:"-"`
}

// TemporalExtent holds one or more intervals. A nil bound is open.
type TemporalExtent struct {
	Intervals [][2]*time.Time `json:"interval"`

	AdditionalFields map[string]any `json:"-"`
}

// NewExtent builds an extent with a single bbox and interval.
func NewExtent(bbox []float64, start, end *time.Time) *Extent {
	return &Extent{
		Spatial:  SpatialExtent{Bboxes: [][]float64{bbox}},
		Temporal: TemporalExtent{Intervals: [][2]*time.Time{{start, end}}},
	}
}

func (e *Extent) Clone() *Extent {
	if e == nil {
		return nil
	}
	c := &Extent{AdditionalFields: deepCopyMap(e.AdditionalFields)}
	c.Spatial.AdditionalFields = deepCopyMap(e.Spatial.AdditionalFields)
	for _, b := range e.Spatial.Bboxes {
		c.Spatial.Bboxes = append(c.Spatial.Bboxes, append([]float64(nil), b...))
	}
	c.Temporal.AdditionalFields = deepCopyMap(e.Temporal.AdditionalFields)
	for _, iv := range e.Temporal.Intervals {
		c.Temporal.Intervals = append(c.Temporal.Intervals, [2]*time.Time{copyTime(iv[0]), copyTime(iv[1])})
	}
	return c
}

var knownExtentFields = map[string]bool{"spatial": true, "temporal": true}

func (e *Extent) UnmarshalJSON(data []byte) error {
	type extentAlias Extent
	var aux extentAlias
	extras, err := unmarshalWithExtras(data, &aux, knownExtentFields)
	if err != nil {
		return err
	}
	*e = Extent(aux)
	e.AdditionalFields = extras
	return nil
}

func (e Extent) MarshalJSON() ([]byte, error) {
	type extentAlias Extent
	return marshalWithExtras(extentAlias(e), e.AdditionalFields)
}

var knownSpatialFields = map[string]bool{"bbox": true}

func (s *SpatialExtent) UnmarshalJSON(data []byte) error {
	type spatialAlias SpatialExtent
	var aux spatialAlias
	extras, err := unmarshalWithExtras(data, &aux, knownSpatialFields)
	if err != nil {
		return err
	}
	*s = SpatialExtent(aux)
	s.AdditionalFields = extras
	return nil
}

func (s SpatialExtent) MarshalJSON() ([]byte, error) {
	type spatialAlias SpatialExtent
	return marshalWithExtras(spatialAlias(s), s.AdditionalFields)
}

var knownTemporalFields = map[string]bool{"interval": true}

type temporalJSON struct {
	Intervals [][]*string `json:"interval"`
}

func (t *TemporalExtent) UnmarshalJSON(data []byte) error {
	var aux temporalJSON
	extras, err := unmarshalWithExtras(data, &aux, knownTemporalFields)
	if err != nil {
		return err
	}
	*t = TemporalExtent{AdditionalFields: extras}
	for _, iv := range aux.Intervals {
		if len(iv) != 2 {
			return fmt.Errorf("temporal interval must have two bounds, got %d", len(iv))
		}
		var bounds [2]*time.Time
		for i, s := range iv {
			if s == nil {
				continue
			}
			parsed, err := time.Parse(time.RFC3339Nano, *s)
			if err != nil {
				return fmt.Errorf("temporal interval: %w", err)
			}
			bounds[i] = &parsed
		}
		t.Intervals = append(t.Intervals, bounds)
	}
	return nil
}

func (t TemporalExtent) MarshalJSON() ([]byte, error) {
	intervals := make([][]any, 0, len(t.Intervals))
	for _, iv := range t.Intervals {
		intervals = append(intervals, []any{formatTime(iv[0]), formatTime(iv[1])})
	}
	return marshalWithExtras(map[string]any{"interval": intervals}, t.AdditionalFields)
}
