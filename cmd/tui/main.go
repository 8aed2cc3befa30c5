package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/robert-malhotra/go-stac-catalog/internal/config"
	"github.com/robert-malhotra/go-stac-catalog/pkg/stac"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := &cli.Command{
		Name:      "stac-tui",
		Usage:     "Browse a STAC catalog",
		ArgsUsage: "<href>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a .toml or .yaml config file",
				Sources: cli.EnvVars("STAC_CONFIG"),
			},
		},
		Action: run,
	}
	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("expected 1 argument: catalog href")
	}
	href := cmd.Args().First()
	if !stac.IsAbsoluteHref(href) {
		abs, err := filepath.Abs(href)
		if err != nil {
			return err
		}
		href = filepath.ToSlash(abs)
	}

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}
	// The terminal belongs to tview, so the IO stays silent.
	o, closeCache, err := cfg.NewIO(ctx, nil)
	if err != nil {
		return err
	}
	defer closeCache()

	tui := NewTUI(ctx, o, href)
	go func() {
		<-ctx.Done()
		tui.Stop()
	}()
	return tui.Run()
}
