package main

import (
	"context"
	"fmt"
	"maps"
	"net/url"
	"path"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/robert-malhotra/go-stac-catalog/pkg/stac"
)

const (
	catalogTypeFlag    = "catalog-type"
	skipUnresolvedFlag = "skip-unresolved"
	assetsFlag         = "assets"
)

func (a *app) newCopyCommand() *cli.Command {
	return &cli.Command{
		Name:      "copy",
		Usage:     "Copy a catalog to a new location",
		ArgsUsage: "<src-href> <dest-dir>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  catalogTypeFlag,
				Usage: "SELF_CONTAINED, RELATIVE_PUBLISHED or ABSOLUTE_PUBLISHED (default from config)",
			},
			&cli.BoolFlag{
				Name:  skipUnresolvedFlag,
				Usage: "do not read child and item links that are not loaded yet",
			},
			&cli.BoolFlag{
				Name:  assetsFlag,
				Usage: "download item assets next to the copied items",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 2 {
				return fmt.Errorf("expected 2 arguments: source href and destination directory")
			}
			catalogType, err := a.catalogType(cmd)
			if err != nil {
				return err
			}
			return a.copyCatalog(ctx, cmd.Args().Get(0), cmd.Args().Get(1), copyOptions{
				catalogType:    catalogType,
				skipUnresolved: cmd.Bool(skipUnresolvedFlag),
				assets:         cmd.Bool(assetsFlag),
			})
		},
	}
}

type copyOptions struct {
	catalogType    stac.CatalogType
	skipUnresolved bool
	assets         bool
}

func (a *app) copyCatalog(ctx context.Context, src, dest string, opts copyOptions) error {
	logger := loggerFromContext(ctx)
	p := newProgress(logger)

	root, err := a.readRoot(ctx, src)
	if err != nil {
		return err
	}
	dest, err = absHref(dest)
	if err != nil {
		return err
	}

	var out stac.Container
	if opts.skipUnresolved {
		out = root
	} else {
		if out, err = root.FullCopy(ctx, a.io); err != nil {
			return err
		}
	}

	normalizeOpts := []stac.NormalizeOption{stac.WithLayout(a.cfg.LayoutStrategy())}
	if opts.skipUnresolved {
		normalizeOpts = append(normalizeOpts, stac.WithSkipUnresolved())
	}
	if err := out.NormalizeHrefs(ctx, a.io, dest, normalizeOpts...); err != nil {
		return err
	}

	if opts.assets {
		if strings.Contains(dest, "://") {
			return fmt.Errorf("assets can only be downloaded to a local directory, got %s", dest)
		}
		if err := a.downloadAssets(ctx, out); err != nil {
			return err
		}
	}

	if err := out.Save(ctx, a.io, opts.catalogType); err != nil {
		return err
	}
	p.done(fmt.Sprintf("Copied %s to %s", root.SelfHref(), out.SelfHref()))
	return nil
}

// downloadAssets fetches the assets of every loaded item into the item's
// directory and points the asset at the local file.
func (a *app) downloadAssets(ctx context.Context, root stac.Container) error {
	logger := loggerFromContext(ctx)
	items, err := collect(root.AllItems(ctx, a.io))
	if err != nil {
		return err
	}
	used := make(map[string]map[string]bool)
	for _, item := range items {
		dir := path.Dir(item.SelfHref())
		if used[dir] == nil {
			used[dir] = make(map[string]bool)
		}
		for _, key := range slices.Sorted(maps.Keys(item.Assets)) {
			asset := item.Assets[key]
			src := asset.AbsoluteHref(item.SelfHref())
			name := assetFileName(src)
			if name == "" {
				logger.Warn("skipping asset without a file name", "item", item.ID(), "asset", key)
				continue
			}
			name = uniqueName(used[dir], key, name)
			logger.Debug("downloading asset", "item", item.ID(), "asset", key, "src", src)
			if err := a.io.Download(ctx, src, path.Join(dir, name), nil); err != nil {
				return fmt.Errorf("asset %q of item %q: %w", key, item.ID(), err)
			}
			asset.Href = "./" + name
		}
	}
	return nil
}

// uniqueName returns name, or name prefixed with the asset key when another
// asset in the same directory already took it.
func uniqueName(used map[string]bool, key, name string) string {
	candidate := name
	for i := 1; used[candidate]; i++ {
		if i == 1 {
			candidate = key + "-" + name
		} else {
			candidate = fmt.Sprintf("%s-%d-%s", key, i, name)
		}
	}
	used[candidate] = true
	return candidate
}

// assetFileName returns the last path element of href, without any query.
func assetFileName(href string) string {
	p := href
	if strings.Contains(href, "://") {
		u, err := url.Parse(href)
		if err != nil {
			return ""
		}
		p = u.Path
	}
	name := path.Base(p)
	if name == "." || name == "/" {
		return ""
	}
	return name
}
