package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/robert-malhotra/go-stac-catalog/internal/config"
	"github.com/robert-malhotra/go-stac-catalog/pkg/stac"
	"github.com/robert-malhotra/go-stac-catalog/pkg/stacio"
)

const (
	configFlag  = "config"
	verboseFlag = "verbose"
	timeoutFlag = "timeout"
	tokenFlag   = "token"
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    configFlag,
			Aliases: []string{"c"},
			Usage:   "path to a .toml or .yaml config file",
			Sources: cli.EnvVars("STAC_CONFIG"),
		},
		&cli.BoolFlag{
			Name:    verboseFlag,
			Aliases: []string{"v"},
			Usage:   "enable debug logging",
		},
		&cli.DurationFlag{
			Name:    timeoutFlag,
			Aliases: []string{"t"},
			Usage:   "HTTP client timeout (e.g. 30s, 1m)",
			Value:   30 * time.Second,
		},
		&cli.StringFlag{
			Name:    tokenFlag,
			Usage:   "bearer token sent with HTTP requests",
			Sources: cli.EnvVars("STAC_TOKEN"),
		},
	}
}

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds what the commands share once the global flags are parsed.
type app struct {
	stdout io.Writer
	stderr io.Writer

	cfg        config.Config
	io         *stacio.IO
	closeCache func() error
}

func newApp(stdout, stderr io.Writer) *cli.Command {
	a := &app{stdout: stdout, stderr: stderr}
	return &cli.Command{
		Name:      "stac",
		Usage:     "Read, copy and publish static STAC catalogs",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags:     globalFlags(),
		Before:    a.setup,
		After:     a.teardown,
		Commands: []*cli.Command{
			a.newDescribeCommand(),
			a.newItemsCommand(),
			a.newCopyCommand(),
			a.newHarvestCommand(),
		},
	}
}

func (a *app) setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, err := config.Load(cmd.String(configFlag))
	if err != nil {
		return ctx, err
	}
	if cmd.IsSet(timeoutFlag) {
		cfg.HTTP.Timeout = config.Duration(cmd.Duration(timeoutFlag))
	}
	if token := cmd.String(tokenFlag); token != "" {
		cfg.HTTP.Token = token
	}

	level := log.InfoLevel
	if cfg.LogLevel != "" {
		if parsed, err := log.ParseLevel(cfg.LogLevel); err == nil {
			level = parsed
		}
	}
	if cmd.Bool(verboseFlag) {
		level = log.DebugLevel
	}
	logger := newLogger(a.stderr, level)

	o, closeCache, err := cfg.NewIO(ctx, logger)
	if err != nil {
		return ctx, err
	}
	a.cfg, a.io, a.closeCache = cfg, o, closeCache
	return withLogger(ctx, logger), nil
}

func (a *app) teardown(context.Context, *cli.Command) error {
	if a.closeCache == nil {
		return nil
	}
	return a.closeCache()
}

// catalogType returns the type named by the command's --catalog-type flag,
// or the configured one.
func (a *app) catalogType(cmd *cli.Command) (stac.CatalogType, error) {
	if name := cmd.String(catalogTypeFlag); name != "" {
		return stac.ParseCatalogType(name)
	}
	return a.cfg.StacCatalogType()
}

// absHref makes local paths absolute so they can serve as self hrefs.
func absHref(href string) (string, error) {
	if stac.IsAbsoluteHref(href) {
		return href, nil
	}
	abs, err := filepath.Abs(href)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(abs), nil
}

func (a *app) readRoot(ctx context.Context, href string) (stac.Container, error) {
	href, err := absHref(href)
	if err != nil {
		return nil, err
	}
	loggerFromContext(ctx).Debug("reading catalog", "href", href)
	return stac.ReadContainer(ctx, a.io, href)
}
