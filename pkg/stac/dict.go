package stac

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
	"time"
)

// unmarshalNumbers decodes data into v keeping numbers as json.Number, so
// integers beyond float64 precision survive a round trip.
func unmarshalNumbers(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("unexpected data after top-level value")
	}
	return nil
}

// unmarshalWithExtras decodes data into v through an alias type (passed in by
// the caller) and collects every key not listed in known into extras.
func unmarshalWithExtras(data []byte, v any, known map[string]bool) (map[string]any, error) {
	if err := json.Unmarshal(data, v); err != nil {
		return nil, err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	var extras map[string]any
	for key, val := range raw {
		if known[key] {
			continue
		}
		var decoded any
		if err := unmarshalNumbers(val, &decoded); err != nil {
			continue
		}
		if extras == nil {
			extras = make(map[string]any)
		}
		extras[key] = decoded
	}
	return extras, nil
}

// marshalWithExtras encodes v (an alias type) and merges extras into the
// resulting object. Typed fields win over extras with the same key.
func marshalWithExtras(v any, extras map[string]any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(extras) == 0 {
		return data, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	for key, val := range extras {
		if _, ok := obj[key]; ok {
			continue
		}
		encoded, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}
		obj[key] = encoded
	}
	return json.Marshal(obj)
}

// decodeValue converts a generic JSON value into dst.
func decodeValue(v any, dst any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return unmarshalNumbers(data, dst)
}

// encodeValue converts v into its generic JSON form (maps, slices,
// json.Number).
func encodeValue(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := unmarshalNumbers(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopyValue(e)
		}
		return out
	case []string:
		return slices.Clone(t)
	case []float64:
		return slices.Clone(t)
	default:
		return v
	}
}

func withoutKeys(d map[string]any, known map[string]bool) map[string]any {
	var out map[string]any
	for k, v := range d {
		if known[k] {
			continue
		}
		if out == nil {
			out = make(map[string]any)
		}
		out[k] = deepCopyValue(v)
	}
	return out
}

func mergeExtras(dst, extras map[string]any) {
	for k, v := range extras {
		if _, ok := dst[k]; !ok {
			dst[k] = deepCopyValue(v)
		}
	}
}

func requiredString(d map[string]any, key string) (string, error) {
	v, ok := d[key]
	if !ok {
		return "", structural("missing %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", structural("%q must be a string, got %T", key, v)
	}
	return s, nil
}

func optionalString(d map[string]any, key string) (string, error) {
	v, ok := d[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", structural("%q must be a string, got %T", key, v)
	}
	return s, nil
}

func stringSlice(v any) ([]string, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []string:
		return slices.Clone(t), nil
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("expected string, got %T", e)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected array, got %T", v)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func floatSlice(v any) ([]float64, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []float64:
		return slices.Clone(t), nil
	case []any:
		out := make([]float64, 0, len(t))
		for _, e := range t {
			f, ok := toFloat(e)
			if !ok {
				return nil, fmt.Errorf("expected number, got %T", e)
			}
			out = append(out, f)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected array, got %T", v)
	}
}

func parseTime(v any) (*time.Time, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return nil, err
		}
		return &parsed, nil
	case time.Time:
		return &t, nil
	default:
		return nil, fmt.Errorf("expected RFC 3339 string, got %T", v)
	}
}

// formatTime writes t in RFC 3339 with the offset it was parsed with.
func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339Nano)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// geometryBbox computes the bounding box of a GeoJSON geometry's coordinates.
// It returns nil when the geometry has none.
func geometryBbox(geometry map[string]any) []float64 {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	found := false

	var visit func(v any)
	visit = func(v any) {
		arr, ok := v.([]any)
		if !ok {
			if fs, ok := v.([]float64); ok && len(fs) >= 2 {
				arr = []any{fs[0], fs[1]}
			} else {
				return
			}
		}
		if len(arr) >= 2 {
			x, okX := toFloat(arr[0])
			y, okY := toFloat(arr[1])
			if okX && okY {
				minX, maxX = math.Min(minX, x), math.Max(maxX, x)
				minY, maxY = math.Min(minY, y), math.Max(maxY, y)
				found = true
				return
			}
		}
		for _, e := range arr {
			visit(e)
		}
	}

	if geoms, ok := geometry["geometries"].([]any); ok {
		for _, g := range geoms {
			if gm, ok := g.(map[string]any); ok {
				visit(gm["coordinates"])
			}
		}
	} else {
		visit(geometry["coordinates"])
	}

	if !found {
		return nil
	}
	return []float64{minX, minY, maxX, maxY}
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
