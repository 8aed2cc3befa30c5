package formatting

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/robert-malhotra/go-stac-catalog/pkg/stac"
)

// FormatDetails renders obj for the detail pane.
func FormatDetails(obj stac.Object) string {
	switch o := obj.(type) {
	case *stac.Collection:
		return FormatCollectionDetails(o)
	case *stac.Catalog:
		return FormatCatalogDetails(o)
	case *stac.Item:
		return FormatItemDetails(o)
	}
	return ""
}

type detailWriter struct {
	strings.Builder
}

func (b *detailWriter) field(label, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	if strings.Contains(value, "\n") {
		fmt.Fprintf(b, "[yellow]%s:[white]\n", label)
		writeIndentedLines(&b.Builder, value, "  ")
		return
	}
	fmt.Fprintf(b, "[yellow]%s: [white]%s\n", label, value)
}

func (b *detailWriter) heading(label string) {
	fmt.Fprintf(b, "[yellow]%s:[white]\n", label)
}

func (b *detailWriter) text() string {
	return strings.TrimRight(b.String(), "\n")
}

func FormatCatalogDetails(c *stac.Catalog) string {
	var b detailWriter
	b.field("Title", c.Title)
	b.field("ID", c.ID())
	b.field("Description", c.Description)
	b.field("Self", c.SelfHref())
	writeLinks(&b, c.Links())
	return b.text()
}

func FormatCollectionDetails(col *stac.Collection) string {
	var b detailWriter
	b.field("Title", col.Title)
	b.field("ID", col.ID())
	b.field("Description", col.Description)
	b.field("License", col.License)
	b.field("Self", col.SelfHref())
	if len(col.Keywords) > 0 {
		b.field("Keywords", strings.Join(col.Keywords, ", "))
	}

	if len(col.Providers) > 0 {
		b.heading("Providers")
		for _, p := range col.Providers {
			if p == nil {
				continue
			}
			fmt.Fprintf(&b, "  - Name: %s\n", p.Name)
			if p.Description != "" {
				fmt.Fprintf(&b, "    Description: %s\n", p.Description)
			}
			if len(p.Roles) > 0 {
				fmt.Fprintf(&b, "    Roles: %s\n", strings.Join(p.Roles, ", "))
			}
			if p.URL != "" {
				fmt.Fprintf(&b, "    URL: %s\n", p.URL)
			}
		}
	}

	if col.Extent != nil {
		b.heading("Extent")
		bboxes := col.Extent.Spatial.Bboxes
		for i, bbox := range bboxes {
			label := "  Spatial bbox"
			if len(bboxes) > 1 {
				label = fmt.Sprintf("%s %d", label, i+1)
			}
			fmt.Fprintf(&b, "%s: %s\n", label, formatFloatSlice(bbox))
		}
		intervals := col.Extent.Temporal.Intervals
		for i, iv := range intervals {
			label := "  Temporal interval"
			if len(intervals) > 1 {
				label = fmt.Sprintf("%s %d", label, i+1)
			}
			fmt.Fprintf(&b, "%s: %s / %s\n", label, formatBound(iv[0]), formatBound(iv[1]))
		}
	}

	if len(col.Summaries) > 0 {
		b.heading("Summaries")
		for _, key := range sortedKeys(col.Summaries) {
			data, err := json.Marshal(col.Summaries[key])
			if err != nil {
				continue
			}
			fmt.Fprintf(&b, "  %s: %s\n", key, data)
		}
	}

	writeAssets(&b, col.Assets)
	writeLinks(&b, col.Links())
	return b.text()
}

func FormatItemDetails(item *stac.Item) string {
	var b detailWriter
	b.field("ID", item.ID())
	b.field("Collection", item.CollectionID)
	switch {
	case item.Datetime != nil:
		b.field("Datetime", item.Datetime.Format(time.RFC3339))
	case item.StartDatetime != nil || item.EndDatetime != nil:
		b.field("Interval", formatBound(item.StartDatetime)+" / "+formatBound(item.EndDatetime))
	}
	for _, key := range []string{"platform", "constellation", "gsd"} {
		if v, ok := item.Properties[key]; ok {
			b.field(strings.ToUpper(key[:1])+key[1:], fmt.Sprint(v))
		}
	}
	b.field("Self", item.SelfHref())
	if len(item.Bbox) > 0 {
		b.field("Bbox", formatFloatSlice(item.Bbox))
	}
	b.field("Geometry", FormatGeometry(item.Geometry))
	if len(item.Properties) > 0 {
		b.heading("Properties")
		b.WriteString(FormatProperties(item.Properties, 1))
	}
	writeAssets(&b, item.Assets)
	writeLinks(&b, item.Links())
	return b.text()
}

// FormatProperties writes one line per property in key order, values as JSON.
func FormatProperties(properties map[string]any, indent int) string {
	var b strings.Builder
	for _, key := range sortedKeys(properties) {
		indentedKey := fmt.Sprintf("%s%s:", strings.Repeat("  ", indent), key)
		data, err := json.Marshal(properties[key])
		if err != nil {
			fmt.Fprintf(&b, "[yellow]%-30s[white] (unprintable)\n", indentedKey)
			continue
		}
		fmt.Fprintf(&b, "[yellow]%-30s[white] %s\n", indentedKey, data)
	}
	return b.String()
}

// FormatAssetDetailBlock renders a single asset.
func FormatAssetDetailBlock(key string, asset *stac.Asset) string {
	if asset == nil {
		return "No asset details available."
	}
	var b detailWriter
	b.field("Key", key)
	b.field("Title", asset.Title)
	b.field("Description", asset.Description)
	b.field("Type", asset.MediaType)
	if len(asset.Roles) > 0 {
		b.field("Roles", strings.Join(asset.Roles, ", "))
	}
	b.field("Href", asset.Href)
	if text := b.text(); text != "" {
		return text
	}
	return "No asset details available."
}

func writeAssets(b *detailWriter, assets map[string]*stac.Asset) {
	if len(assets) == 0 {
		return
	}
	b.heading("Assets")
	for _, key := range sortedKeys(assets) {
		a := assets[key]
		if a == nil {
			continue
		}
		fmt.Fprintf(b, "  - %s\n", key)
		if a.Title != "" {
			fmt.Fprintf(b, "    Title: %s\n", a.Title)
		}
		if a.MediaType != "" {
			fmt.Fprintf(b, "    Type: %s\n", a.MediaType)
		}
		if len(a.Roles) > 0 {
			fmt.Fprintf(b, "    Roles: %s\n", strings.Join(a.Roles, ", "))
		}
		fmt.Fprintf(b, "    Href: %s\n", a.Href)
	}
}

func writeLinks(b *detailWriter, links []*stac.Link) {
	if len(links) == 0 {
		return
	}
	b.heading("Links")
	for _, l := range links {
		state := ""
		if !l.IsResolved() {
			state = " [gray](unresolved)[white]"
		}
		fmt.Fprintf(b, "  - %s -> %s%s\n", l.Rel, l.Href(), state)
		if l.Title != "" {
			fmt.Fprintf(b, "    Title: %s\n", l.Title)
		}
	}
}

func formatBound(t *time.Time) string {
	if t == nil {
		return ".."
	}
	return t.Format(time.RFC3339)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
