package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/robert-malhotra/go-stac-catalog/pkg/stac"
)

const (
	apiFlag        = "api"
	collectionFlag = "collection"
	limitFlag      = "limit"
)

// apiLinkRels are the link relations of API responses that have no meaning
// in a static catalog.
var apiLinkRels = []string{
	stac.RelSelf, stac.RelRoot, stac.RelParent, stac.RelChild, stac.RelItem,
	stac.RelCollection, "items", "queryables", "aggregate", "aggregations",
}

func (a *app) newHarvestCommand() *cli.Command {
	return &cli.Command{
		Name:      "harvest",
		Usage:     "Build a static catalog from a STAC API collection",
		ArgsUsage: "<dest-dir>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     apiFlag,
				Aliases:  []string{"u"},
				Usage:    "STAC API base URL",
				Required: true,
			},
			&cli.StringFlag{
				Name:     collectionFlag,
				Usage:    "id of the collection to harvest",
				Required: true,
			},
			&cli.IntFlag{
				Name:  limitFlag,
				Usage: "maximum number of items to harvest (0 for all)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("expected 1 argument: destination directory")
			}
			dest, err := absHref(cmd.Args().First())
			if err != nil {
				return err
			}
			return a.harvest(ctx, cmd.String(apiFlag), cmd.String(collectionFlag), dest, cmd.Int(limitFlag))
		},
	}
}

func (a *app) harvest(ctx context.Context, api, collectionID, dest string, limit int) error {
	logger := loggerFromContext(ctx)
	p := newProgress(logger)

	colHref := strings.TrimRight(api, "/") + "/collections/" + url.PathEscape(collectionID)
	doc, err := a.io.Read(ctx, colHref)
	if err != nil {
		return err
	}
	col, err := stac.CollectionFromDict(doc, colHref)
	if err != nil {
		return err
	}
	detachFromAPI(col)

	root := stac.NewCatalog(collectionID+"-catalog", fmt.Sprintf("Static copy of %s", colHref))
	if err := root.AddChild(col, col.Title); err != nil {
		return err
	}

	count := 0
	for item, err := range a.io.Features(ctx, colHref+"/items") {
		if err != nil {
			return err
		}
		detachFromAPI(item)
		if err := col.AddItem(item, ""); err != nil {
			if errors.Is(err, stac.ErrDuplicateID) {
				logger.Warn("skipping duplicate item", "id", item.ID())
				continue
			}
			return err
		}
		count++
		if limit > 0 && count >= limit {
			break
		}
	}

	if err := root.NormalizeHrefs(ctx, nil, dest, stac.WithLayout(a.cfg.LayoutStrategy())); err != nil {
		return err
	}
	if err := root.Save(ctx, a.io, stac.SelfContained); err != nil {
		return err
	}
	p.done(fmt.Sprintf("Harvested %d items of %s into %s", count, collectionID, root.SelfHref()))
	return nil
}

// detachFromAPI drops API links. Clearing the self href first turns relative
// links and asset hrefs absolute.
func detachFromAPI(obj stac.Object) {
	for _, rel := range apiLinkRels {
		obj.RemoveLinks(rel)
	}
}
