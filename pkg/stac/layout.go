package stac

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// LayoutStrategy maps an object and the directory of its parent's self href
// to the object's new self href. Strategies must not touch the graph.
type LayoutStrategy interface {
	CatalogHref(c *Catalog, parentDir string, isRoot bool) (string, error)
	CollectionHref(c *Collection, parentDir string, isRoot bool) (string, error)
	ItemHref(item *Item, parentDir string) (string, error)
}

func containerHref(s LayoutStrategy, c Container, parentDir string, isRoot bool) (string, error) {
	if col, ok := c.(*Collection); ok {
		return s.CollectionHref(col, parentDir, isRoot)
	}
	return s.CatalogHref(c.catalog(), parentDir, isRoot)
}

const (
	catalogFileName    = "catalog.json"
	collectionFileName = "collection.json"
)

// BestPracticesLayout lays catalogs out as recommended by the STAC best
// practices:
//
//	root:        {dir}/catalog.json or {dir}/collection.json
//	catalogs:    {dir}/{id}/catalog.json
//	collections: {dir}/{id}/collection.json
//	items:       {dir}/{id}/{id}.json
type BestPracticesLayout struct{}

func (BestPracticesLayout) CatalogHref(c *Catalog, parentDir string, isRoot bool) (string, error) {
	if isRoot {
		return joinHref(parentDir, catalogFileName), nil
	}
	return joinHref(parentDir, c.ID(), catalogFileName), nil
}

func (BestPracticesLayout) CollectionHref(c *Collection, parentDir string, isRoot bool) (string, error) {
	if isRoot {
		return joinHref(parentDir, collectionFileName), nil
	}
	return joinHref(parentDir, c.ID(), collectionFileName), nil
}

func (BestPracticesLayout) ItemHref(item *Item, parentDir string) (string, error) {
	return joinHref(parentDir, item.ID(), item.ID()+".json"), nil
}

// TemplateLayout builds paths from templates such as
// "${collection}/${year}/${month}". Available variables are id, year, month,
// day, date, collection, title and license, plus any property or additional
// field, with dots reaching into nested objects ("${proj:epsg}",
// "${settings.region}"). A template ending in ".json" names the file;
// otherwise it names a directory that receives the default file name.
// Empty templates, and root containers, defer to Fallback.
type TemplateLayout struct {
	CatalogTemplate    string
	CollectionTemplate string
	ItemTemplate       string

	// Fallback defaults to BestPracticesLayout.
	Fallback LayoutStrategy
}

func (t TemplateLayout) fallback() LayoutStrategy {
	if t.Fallback != nil {
		return t.Fallback
	}
	return BestPracticesLayout{}
}

func (t TemplateLayout) CatalogHref(c *Catalog, parentDir string, isRoot bool) (string, error) {
	if isRoot || t.CatalogTemplate == "" {
		return t.fallback().CatalogHref(c, parentDir, isRoot)
	}
	p, err := substitute(t.CatalogTemplate, c)
	if err != nil {
		return "", err
	}
	return templateHref(parentDir, p, catalogFileName), nil
}

func (t TemplateLayout) CollectionHref(c *Collection, parentDir string, isRoot bool) (string, error) {
	if isRoot || t.CollectionTemplate == "" {
		return t.fallback().CollectionHref(c, parentDir, isRoot)
	}
	p, err := substitute(t.CollectionTemplate, c)
	if err != nil {
		return "", err
	}
	return templateHref(parentDir, p, collectionFileName), nil
}

func (t TemplateLayout) ItemHref(item *Item, parentDir string) (string, error) {
	if t.ItemTemplate == "" {
		return t.fallback().ItemHref(item, parentDir)
	}
	p, err := substitute(t.ItemTemplate, item)
	if err != nil {
		return "", err
	}
	return templateHref(parentDir, p, item.ID()+".json"), nil
}

func templateHref(parentDir, p, fileName string) string {
	if strings.HasSuffix(p, ".json") {
		return joinHref(parentDir, p)
	}
	return joinHref(parentDir, p, fileName)
}

// substitute expands every ${var} in tmpl from obj.
func substitute(tmpl string, obj Object) (string, error) {
	var b strings.Builder
	rest := tmpl
	for {
		start := strings.Index(rest, "${")
		if start < 0 {
			b.WriteString(rest)
			return b.String(), nil
		}
		end := strings.IndexByte(rest[start:], '}')
		if end < 0 {
			return "", &TemplateError{Template: tmpl, Reason: "unterminated ${"}
		}
		name := rest[start+2 : start+end]
		val, ok := templateValue(obj, name)
		if !ok {
			return "", &TemplateError{Template: tmpl, Variable: name}
		}
		b.WriteString(rest[:start])
		b.WriteString(val)
		rest = rest[start+end+1:]
	}
}

func templateValue(obj Object, name string) (string, bool) {
	item, _ := obj.(*Item)

	switch name {
	case "id":
		return obj.ID(), true
	case "year", "month", "day", "date":
		if item == nil {
			break
		}
		t := item.Datetime
		if t == nil {
			t = item.StartDatetime
		}
		if t == nil {
			return "", false
		}
		u := t.UTC()
		switch name {
		case "year":
			return strconv.Itoa(u.Year()), true
		case "month":
			return fmt.Sprintf("%02d", int(u.Month())), true
		case "day":
			return fmt.Sprintf("%02d", u.Day()), true
		default:
			return u.Format("2006-01-02"), true
		}
	case "collection":
		switch o := obj.(type) {
		case *Item:
			if o.CollectionID != "" {
				return o.CollectionID, true
			}
			return "", false
		case *Collection:
			return o.ID(), true
		}
	case "title":
		if c, ok := obj.(Container); ok && c.catalog().Title != "" {
			return c.catalog().Title, true
		}
	case "license":
		if c, ok := obj.(*Collection); ok && c.License != "" {
			return c.License, true
		}
	}

	if item != nil {
		if v, ok := lookupPath(item.Properties, name); ok {
			return formatTemplateValue(v)
		}
	}
	if v, ok := lookupPath(obj.base().AdditionalFields, name); ok {
		return formatTemplateValue(v)
	}
	return "", false
}

// lookupPath resolves a dotted path into nested maps. A key containing dots
// is matched whole before being split.
func lookupPath(m map[string]any, p string) (any, bool) {
	if m == nil {
		return nil, false
	}
	if v, ok := m[p]; ok {
		return v, true
	}
	head, tail, found := strings.Cut(p, ".")
	if !found {
		return nil, false
	}
	next, ok := m[head].(map[string]any)
	if !ok {
		return nil, false
	}
	return lookupPath(next, tail)
}

func formatTemplateValue(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return fmt.Sprint(t), true
	}
}

// LayoutFunc computes a self href for obj under parentDir.
type LayoutFunc func(obj Object, parentDir string, isRoot bool) (string, error)

// CustomLayout delegates to user functions. A nil function defers to
// Fallback, which defaults to BestPracticesLayout.
type CustomLayout struct {
	CatalogFunc    LayoutFunc
	CollectionFunc LayoutFunc
	ItemFunc       LayoutFunc
	Fallback       LayoutStrategy
}

func (l CustomLayout) fallback() LayoutStrategy {
	if l.Fallback != nil {
		return l.Fallback
	}
	return BestPracticesLayout{}
}

func (l CustomLayout) CatalogHref(c *Catalog, parentDir string, isRoot bool) (string, error) {
	if l.CatalogFunc == nil {
		return l.fallback().CatalogHref(c, parentDir, isRoot)
	}
	return l.CatalogFunc(c.self, parentDir, isRoot)
}

func (l CustomLayout) CollectionHref(c *Collection, parentDir string, isRoot bool) (string, error) {
	if l.CollectionFunc == nil {
		return l.fallback().CollectionHref(c, parentDir, isRoot)
	}
	return l.CollectionFunc(c, parentDir, isRoot)
}

func (l CustomLayout) ItemHref(item *Item, parentDir string) (string, error) {
	if l.ItemFunc == nil {
		return l.fallback().ItemHref(item, parentDir)
	}
	return l.ItemFunc(item, parentDir, false)
}

// AsIsLayout keeps every object's current self href.
type AsIsLayout struct{}

func (AsIsLayout) CatalogHref(c *Catalog, _ string, _ bool) (string, error) {
	return currentHref(c.self)
}

func (AsIsLayout) CollectionHref(c *Collection, _ string, _ bool) (string, error) {
	return currentHref(c)
}

func (AsIsLayout) ItemHref(item *Item, _ string) (string, error) {
	return currentHref(item)
}

func currentHref(obj Object) (string, error) {
	if h := obj.SelfHref(); h != "" {
		return h, nil
	}
	return "", fmt.Errorf("%w: %q", ErrMissingSelfHref, obj.ID())
}
