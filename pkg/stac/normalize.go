package stac

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
)

// NormalizeOption configures NormalizeHrefs.
type NormalizeOption func(*normalizeConfig)

type normalizeConfig struct {
	layout         LayoutStrategy
	skipUnresolved bool
}

// WithLayout sets the layout strategy. The default is BestPracticesLayout.
func WithLayout(s LayoutStrategy) NormalizeOption {
	return func(c *normalizeConfig) {
		if s != nil {
			c.layout = s
		}
	}
}

// WithSkipUnresolved leaves unresolved child and item links alone instead of
// resolving them. Their hrefs are made absolute when their owner moves.
func WithSkipUnresolved() NormalizeOption {
	return func(c *normalizeConfig) { c.skipUnresolved = true }
}

// NormalizeHrefs assigns self hrefs to the container and its descendants
// under rootHref using the layout strategy. A relative rootHref is taken
// against the working directory. Objects reachable twice keep the href of
// their first visit. The first object the layout fails on aborts the run
// with a *LayoutError.
func (c *Catalog) NormalizeHrefs(ctx context.Context, r Reader, rootHref string, opts ...NormalizeOption) error {
	cfg := normalizeConfig{layout: BestPracticesLayout{}}
	for _, opt := range opts {
		opt(&cfg)
	}

	if !IsAbsoluteHref(rootHref) {
		abs, err := filepath.Abs(rootHref)
		if err != nil {
			return &LayoutError{ObjectID: c.id, Err: err}
		}
		rootHref = filepath.ToSlash(abs)
	}
	rootHref = strings.TrimSuffix(rootHref, "/")

	root := c.container()
	if !cfg.skipUnresolved {
		if err := resolveTree(ctx, r, c.self, make(map[Object]bool)); err != nil {
			return err
		}
	}
	href, err := containerHref(cfg.layout, root, rootHref, true)
	if err != nil {
		return &LayoutError{ObjectID: c.id, Err: err}
	}
	root.SetSelfHref(href)

	visited := map[Object]bool{c.self: true}
	return normalizeTree(ctx, r, root, cfg, visited)
}

// resolveTree resolves the tree before anything moves, so links between its
// members bind to cached instances by their current hrefs.
func resolveTree(ctx context.Context, r Reader, obj Object, seen map[Object]bool) error {
	if seen[obj] {
		return nil
	}
	seen[obj] = true
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, l := range obj.Links() {
		switch l.Rel {
		case RelChild, RelItem:
			target, err := l.Resolve(ctx, r)
			if err != nil {
				return err
			}
			if err := resolveTree(ctx, r, target, seen); err != nil {
				return err
			}
		case RelRoot, RelParent, RelCollection:
			// These may point outside the tree being moved, so a target that
			// is missing or cannot be read without a reader is left alone.
			if _, err := l.Resolve(ctx, r); err != nil && !outsideTree(err) {
				return err
			}
		}
	}
	return nil
}

func outsideTree(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrNoReader) || errors.Is(err, ErrNoBaseHref)
}

func normalizeTree(ctx context.Context, r Reader, parent Container, cfg normalizeConfig, visited map[Object]bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := hrefDir(parent.SelfHref())

	for _, l := range parent.GetLinks(RelChild) {
		child, ok, err := normalizeTarget(ctx, r, l, cfg)
		if err != nil {
			return err
		}
		if !ok || visited[child] {
			continue
		}
		visited[child] = true

		cont := child.(Container)
		href, err := containerHref(cfg.layout, cont, dir, false)
		if err != nil {
			return &LayoutError{ObjectID: child.ID(), Err: err}
		}
		cont.SetSelfHref(href)
		if err := normalizeTree(ctx, r, cont, cfg, visited); err != nil {
			return err
		}
	}

	for _, l := range parent.GetLinks(RelItem) {
		obj, ok, err := normalizeTarget(ctx, r, l, cfg)
		if err != nil {
			return err
		}
		if !ok || visited[obj] {
			continue
		}
		visited[obj] = true

		item := obj.(*Item)
		href, err := cfg.layout.ItemHref(item, dir)
		if err != nil {
			return &LayoutError{ObjectID: item.ID(), Err: err}
		}
		item.SetSelfHref(href)
	}
	return nil
}

func normalizeTarget(ctx context.Context, r Reader, l *Link, cfg normalizeConfig) (Object, bool, error) {
	if l.IsResolved() {
		return l.target, true, nil
	}
	if cfg.skipUnresolved {
		return nil, false, nil
	}
	obj, err := l.Resolve(ctx, r)
	if err != nil {
		return nil, false, err
	}
	return obj, true, nil
}
