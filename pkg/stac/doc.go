// Package stac models SpatioTemporal Asset Catalog (STAC) metadata graphs:
// Catalogs, Collections and Items joined by typed links.
//
// Documents decode with their links unresolved. A link is resolved on demand
// through a Reader; the root of each graph owns a ResolvedObjectCache so that
// every logical object has a single in-memory instance, however many links
// reach it.
//
//	root, err := stac.ReadContainer(ctx, reader, "https://example.com/catalog.json")
//	for item, err := range root.AllItems(ctx, reader) {
//	    ...
//	}
//
// Before saving, NormalizeHrefs assigns every object a self href following a
// LayoutStrategy, and the root's CatalogType decides whether links are
// written relative or absolute:
//
//	_ = root.NormalizeHrefs(ctx, reader, "/data/out")
//	_ = root.Save(ctx, writer, stac.SelfContained)
//
// Unmodeled fields of objects, links, assets and providers round-trip through
// their AdditionalFields maps.
package stac
