package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/robert-malhotra/go-stac-catalog/pkg/stac"
)

func (a *app) newItemsCommand() *cli.Command {
	return &cli.Command{
		Name:      "items",
		Usage:     "Print every item of a catalog as one FeatureCollection",
		ArgsUsage: "<href>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("expected 1 argument: catalog href")
			}
			root, err := a.readRoot(ctx, cmd.Args().First())
			if err != nil {
				return err
			}
			ic, err := collectItems(ctx, a.io, root)
			if err != nil {
				return err
			}
			d, err := ic.ToDict()
			if err != nil {
				return err
			}
			return printJSON(a.stdout, d)
		},
	}
}

// collectItems gathers the distinct items below root in traversal order.
func collectItems(ctx context.Context, r stac.Reader, root stac.Container) (*stac.ItemCollection, error) {
	items, err := collect(root.AllItems(ctx, r))
	if err != nil {
		return nil, err
	}
	return stac.NewItemCollection(items...), nil
}
