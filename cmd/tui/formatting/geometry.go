package formatting

import (
	"encoding/json"
	"fmt"
	"strings"
)

const coordinateWidth = 70

// FormatGeometry summarizes a GeoJSON geometry as its type followed by its
// coordinates, wrapped to a readable width.
func FormatGeometry(geometry map[string]any) string {
	if geometry == nil {
		return ""
	}
	var sections []string
	typ, _ := geometry["type"].(string)
	if typ != "" {
		sections = append(sections, typ)
	}
	if typ == "GeometryCollection" {
		geoms, _ := geometry["geometries"].([]any)
		var parts []string
		for _, g := range geoms {
			if m, ok := g.(map[string]any); ok {
				if s := FormatGeometry(m); s != "" {
					parts = append(parts, strings.ReplaceAll(s, "\n", " "))
				}
			}
		}
		if len(parts) > 0 {
			sections = append(sections, strings.Join(parts, " | "))
		}
	}
	if coords, ok := geometry["coordinates"]; ok {
		sections = append(sections, wrapCoordinates(formatCoordinates(coords, 0), coordinateWidth))
	}
	return strings.Join(sections, "\n")
}

// formatCoordinates prints positions with spaces and outer arrays with commas.
func formatCoordinates(value any, depth int) string {
	switch v := value.(type) {
	case []any:
		parts := make([]string, len(v))
		for i, elem := range v {
			parts[i] = formatCoordinates(elem, depth+1)
		}
		sep := ", "
		if depth >= 2 {
			sep = " "
		}
		return "[" + strings.Join(parts, sep) + "]"
	case float64:
		return formatFloat(v, 5)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return formatFloat(f, 5)
		}
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// wrapCoordinates breaks s at separators once a line reaches width.
func wrapCoordinates(s string, width int) string {
	if width <= 0 || len(s) <= width {
		return s
	}
	var out strings.Builder
	lineLen := 0
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if lineLen >= width && (ch == ',' || ch == ' ') {
			if ch == ',' {
				out.WriteByte(ch)
				if i+1 < len(s) && s[i+1] == ' ' {
					i++
				}
			}
			out.WriteByte('\n')
			lineLen = 0
			continue
		}
		out.WriteByte(ch)
		lineLen++
	}
	return out.String()
}
