package main

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v3"

	"github.com/robert-malhotra/go-stac-catalog/pkg/stac"
)

var (
	colorCyan  = lipgloss.Color("36")
	colorWhite = lipgloss.Color("255")
	colorGray  = lipgloss.Color("245")
	colorDim   = lipgloss.Color("240")
)

type treeStyles struct {
	kind  lipgloss.Style
	id    lipgloss.Style
	title lipgloss.Style
	dim   lipgloss.Style
}

var defaultTreeStyles = treeStyles{
	kind:  lipgloss.NewStyle().Bold(true).Foreground(colorCyan),
	id:    lipgloss.NewStyle().Foreground(colorWhite),
	title: lipgloss.NewStyle().Foreground(colorGray),
	dim:   lipgloss.NewStyle().Foreground(colorDim),
}

func (a *app) newDescribeCommand() *cli.Command {
	return &cli.Command{
		Name:      "describe",
		Usage:     "Print the catalog tree",
		ArgsUsage: "<href>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("expected 1 argument: catalog href")
			}
			root, err := a.readRoot(ctx, cmd.Args().First())
			if err != nil {
				return err
			}
			return renderTree(ctx, a.stdout, a.io, root, defaultTreeStyles)
		},
	}
}

// renderTree writes one line per container and item below root, resolving
// links through r. Objects reached a second time are marked and not expanded.
func renderTree(ctx context.Context, w io.Writer, r stac.Reader, root stac.Container, st treeStyles) error {
	tr := &treeRenderer{w: w, r: r, st: st, seen: make(map[stac.Object]bool)}
	if err := tr.line("", root); err != nil {
		return err
	}
	return tr.children(ctx, "", root)
}

type treeRenderer struct {
	w    io.Writer
	r    stac.Reader
	st   treeStyles
	seen map[stac.Object]bool
}

func (tr *treeRenderer) children(ctx context.Context, prefix string, c stac.Container) error {
	children, err := c.GetChildren(ctx, tr.r)
	if err != nil {
		return err
	}
	items, err := c.GetItems(ctx, tr.r)
	if err != nil {
		return err
	}

	total := len(children) + len(items)
	n := 0
	for _, child := range children {
		n++
		branch, indent := connectors(n == total)
		expand := !tr.seen[child]
		if err := tr.line(prefix+branch, child); err != nil {
			return err
		}
		if expand {
			if err := tr.children(ctx, prefix+indent, child); err != nil {
				return err
			}
		}
	}
	for _, item := range items {
		n++
		branch, _ := connectors(n == total)
		if err := tr.line(prefix+branch, item); err != nil {
			return err
		}
	}
	return nil
}

func (tr *treeRenderer) line(prefix string, obj stac.Object) error {
	text := prefix + tr.st.kind.Render(kindName(obj)) + " " + tr.st.id.Render(obj.ID())
	if title := objectTitle(obj); title != "" {
		text += " " + tr.st.title.Render(fmt.Sprintf("%q", title))
	}
	switch {
	case tr.seen[obj]:
		text += " " + tr.st.dim.Render("(seen)")
	case isContainer(obj):
		c := obj.(stac.Container)
		text += " " + tr.st.dim.Render(fmt.Sprintf("(%d children, %d items)",
			len(c.GetLinks(stac.RelChild)), len(c.GetLinks(stac.RelItem))))
	}
	tr.seen[obj] = true
	_, err := fmt.Fprintln(tr.w, text)
	return err
}

func connectors(last bool) (branch, indent string) {
	if last {
		return "└── ", "    "
	}
	return "├── ", "│   "
}

func kindName(obj stac.Object) string {
	if obj.Type() == stac.TypeItem {
		return "Item"
	}
	return string(obj.Type())
}

func isContainer(obj stac.Object) bool {
	_, ok := obj.(stac.Container)
	return ok
}

func objectTitle(obj stac.Object) string {
	switch o := obj.(type) {
	case *stac.Catalog:
		return o.Title
	case *stac.Collection:
		return o.Title
	case *stac.Item:
		title, _ := o.Properties["title"].(string)
		return title
	}
	return ""
}
