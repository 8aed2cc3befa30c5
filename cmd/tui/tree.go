package main

import (
	"fmt"
	"path"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/robert-malhotra/go-stac-catalog/cmd/tui/formatting"
	"github.com/robert-malhotra/go-stac-catalog/pkg/stac"
)

// nodeRef is the reference stored on each tree node. obj stays nil until the
// link the node stands for is resolved.
type nodeRef struct {
	obj     stac.Object
	link    *stac.Link
	loaded  bool
	loading bool
}

func (t *TUI) loadRoot() {
	node := t.tree.GetRoot()
	ref := &nodeRef{loading: true}
	node.SetReference(ref)
	t.status.SetText("Loading " + t.href)

	t.graphMu.Lock()
	go func() {
		root, err := stac.ReadContainer(t.baseCtx, t.io, t.href)
		if err != nil {
			t.graphMu.Unlock()
			t.showError(fmt.Sprintf("Failed to load %s: %v", t.href, err))
			t.setStatus("")
			return
		}
		t.app.QueueUpdateDraw(func() {
			defer t.graphMu.Unlock()
			ref.obj, ref.loading = root, false
			node.SetText(nodeTitle(root))
			t.expand(node, ref)
			t.detail.SetText(formatting.FormatDetails(root)).ScrollToBeginning()
			t.status.SetText("")
		})
	}()
}

func (t *TUI) currentRef() *nodeRef {
	node := t.tree.GetCurrentNode()
	if node == nil {
		return nil
	}
	ref, _ := node.GetReference().(*nodeRef)
	return ref
}

func (t *TUI) onChanged(node *tview.TreeNode) {
	ref, _ := node.GetReference().(*nodeRef)
	if ref == nil {
		return
	}
	if !t.graphMu.TryLock() {
		t.detail.SetText("Loading...")
		return
	}
	defer t.graphMu.Unlock()
	switch {
	case ref.obj != nil:
		t.detail.SetText(formatting.FormatDetails(ref.obj))
	case ref.link != nil:
		t.detail.SetText(fmt.Sprintf("[yellow]%s link[white]\n%s\n\nPress Enter to load.", ref.link.Rel, ref.link.Href()))
	}
	t.detail.ScrollToBeginning()
}

// onSelect resolves the node's link on first selection and toggles expansion
// afterwards.
func (t *TUI) onSelect(node *tview.TreeNode) {
	ref, _ := node.GetReference().(*nodeRef)
	if ref == nil || ref.loading {
		return
	}
	if ref.loaded {
		node.SetExpanded(!node.IsExpanded())
		return
	}
	if !t.graphMu.TryLock() {
		t.status.SetText("[yellow]Still loading...")
		return
	}
	if ref.obj != nil {
		t.expand(node, ref)
		t.graphMu.Unlock()
		return
	}

	ref.loading = true
	node.SetText(linkLabel(ref.link) + " (loading...)")
	link := ref.link
	go func() {
		obj, err := link.Resolve(t.baseCtx, t.io)
		t.app.QueueUpdateDraw(func() {
			ref.loading = false
			t.status.SetText("")
			if err != nil {
				t.graphMu.Unlock()
				node.SetText(linkLabel(link)).SetColor(tcell.ColorRed)
				t.detail.SetText(fmt.Sprintf("[red]%v", err))
				return
			}
			ref.obj = obj
			node.SetText(nodeTitle(obj))
			t.expand(node, ref)
			t.graphMu.Unlock()
			if t.tree.GetCurrentNode() == node {
				t.onChanged(node)
			}
		})
	}()
}

// expand adds one node per child and item link of a container.
func (t *TUI) expand(node *tview.TreeNode, ref *nodeRef) {
	ref.loaded = true
	c, ok := ref.obj.(stac.Container)
	if !ok {
		return
	}
	node.ClearChildren()
	for _, l := range hierarchyLinks(c) {
		child := tview.NewTreeNode(linkLabel(l)).
			SetReference(&nodeRef{obj: l.Target(), link: l}).
			SetSelectable(true)
		if target := l.Target(); target != nil {
			child.SetText(nodeTitle(target))
		}
		if l.Rel == stac.RelChild {
			child.SetColor(tcell.ColorGreen)
		}
		node.AddChild(child)
	}
	node.SetExpanded(true)
}

// hierarchyLinks returns the child links of c followed by its item links.
func hierarchyLinks(c stac.Container) []*stac.Link {
	return append(c.GetLinks(stac.RelChild), c.GetLinks(stac.RelItem)...)
}

// linkLabel names an unresolved link by its title, or the last path element
// of its href.
func linkLabel(l *stac.Link) string {
	if l.Title != "" {
		return l.Title
	}
	href := l.Href()
	if base := path.Base(href); base != "." && base != "/" {
		if dir := path.Base(path.Dir(href)); dir != "." && dir != "/" {
			return dir + "/" + base
		}
		return base
	}
	return href
}

func nodeTitle(obj stac.Object) string {
	kind := string(obj.Type())
	if obj.Type() == stac.TypeItem {
		kind = "Item"
	}
	title := ""
	switch o := obj.(type) {
	case *stac.Catalog:
		title = o.Title
	case *stac.Collection:
		title = o.Title
	}
	if title != "" && title != obj.ID() {
		return fmt.Sprintf("%s %s (%s)", kind, title, obj.ID())
	}
	return kind + " " + obj.ID()
}
