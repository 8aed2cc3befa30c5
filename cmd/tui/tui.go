package main

import (
	"context"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/robert-malhotra/go-stac-catalog/cmd/tui/formatting"
	"github.com/robert-malhotra/go-stac-catalog/pkg/stac"
	"github.com/robert-malhotra/go-stac-catalog/pkg/stacio"
)

const (
	pageMain     = "main"
	pageDownload = "download"
	pageError    = "error"
	pageInfo     = "info"
)

// TUI browses a catalog as a tree whose nodes are resolved when first
// selected.
type TUI struct {
	app    *tview.Application
	pages  *tview.Pages
	tree   *tview.TreeView
	detail *tview.TextView
	status *tview.TextView

	io   *stacio.IO
	href string

	// graphMu is held while a link resolves, from selection until the tree
	// shows the result. Readers on the event loop only TryLock it.
	graphMu sync.Mutex

	baseCtx    context.Context
	baseCancel context.CancelFunc
	stopOnce   sync.Once

	downloadMu     sync.Mutex
	activeDownload *downloadSession

	jsonViewer *jsonViewer
}

// configureStyles sets the tview global styles for the TUI.
// Note: This modifies global state in tview.Styles.
func configureStyles() {
	tview.Styles.PrimitiveBackgroundColor = tcell.ColorBlack
	tview.Styles.ContrastBackgroundColor = tcell.ColorDarkSlateGray
	tview.Styles.MoreContrastBackgroundColor = tcell.ColorGreen
	tview.Styles.BorderColor = tcell.ColorWhite
	tview.Styles.TitleColor = tcell.ColorWhite
	tview.Styles.GraphicsColor = tcell.ColorWhite
	tview.Styles.PrimaryTextColor = tcell.ColorWhite
	tview.Styles.SecondaryTextColor = tcell.ColorYellow
	tview.Styles.TertiaryTextColor = tcell.ColorGreen
	tview.Styles.InverseTextColor = tcell.ColorBlue
	tview.Styles.ContrastSecondaryTextColor = tcell.ColorNavy
}

// NewTUI creates the browser for the catalog at href. The provided context
// controls the lifetime of background reads and downloads.
func NewTUI(ctx context.Context, o *stacio.IO, href string) *TUI {
	if ctx == nil {
		ctx = context.Background()
	}
	baseCtx, baseCancel := context.WithCancel(ctx)

	configureStyles()

	t := &TUI{
		app:        tview.NewApplication(),
		pages:      tview.NewPages(),
		io:         o,
		href:       href,
		baseCtx:    baseCtx,
		baseCancel: baseCancel,
	}
	t.setupLayout()
	t.jsonViewer = newJSONViewer(t)
	t.app.SetInputCapture(t.onInputCapture)
	return t
}

func (t *TUI) setupLayout() {
	rootNode := tview.NewTreeNode(t.href).SetColor(tcell.ColorYellow)
	t.tree = tview.NewTreeView().SetRoot(rootNode).SetCurrentNode(rootNode)
	t.tree.SetBorder(true).SetTitle("Catalog")
	t.tree.SetSelectedFunc(t.onSelect)
	t.tree.SetChangedFunc(t.onChanged)

	t.detail = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(true)
	t.detail.SetBorder(true).SetTitle("Details")

	t.status = tview.NewTextView().SetDynamicColors(true)

	help := formatting.MakeHelpText("[yellow]Enter[white] expand  |  [yellow]Tab[white] switch pane  |  [yellow]j[white] JSON  |  [yellow]d[white] download assets  |  [yellow]q/Esc[white] quit")
	body := tview.NewFlex().
		AddItem(t.tree, 0, 1, true).
		AddItem(t.detail, 0, 2, false)
	layout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(body, 0, 1, true).
		AddItem(t.status, 1, 0, false).
		AddItem(help, 3, 0, false)

	t.pages.AddPage(pageMain, layout, true, true)
}

// Run loads the root and starts the event loop. It blocks until the
// application exits.
func (t *TUI) Run() error {
	t.loadRoot()
	return t.app.SetRoot(t.pages, true).SetFocus(t.tree).Run()
}

func (t *TUI) Stop() {
	t.stopOnce.Do(func() {
		if t.baseCancel != nil {
			t.baseCancel()
		}
		t.cancelActiveDownload()
		t.app.Stop()
	})
}

func (t *TUI) onInputCapture(event *tcell.EventKey) *tcell.EventKey {
	if event.Key() == tcell.KeyCtrlC {
		t.Stop()
		return nil
	}
	if front, _ := t.pages.GetFrontPage(); front != pageMain {
		return event
	}

	switch event.Key() {
	case tcell.KeyEscape:
		t.Stop()
		return nil
	case tcell.KeyTab:
		if t.tree.HasFocus() {
			t.app.SetFocus(t.detail)
		} else {
			t.app.SetFocus(t.tree)
		}
		return nil
	case tcell.KeyRune:
		switch event.Rune() {
		case 'q', 'Q':
			t.Stop()
			return nil
		case 'j', 'J':
			t.withCurrentObject(func(obj stac.Object) {
				t.jsonViewer.Show(nodeTitle(obj), obj)
			})
			return nil
		case 'd', 'D':
			t.withCurrentObject(t.downloadAssets)
			return nil
		}
	}
	return event
}

// withCurrentObject calls fn with the selected node's object unless a link is
// still resolving.
func (t *TUI) withCurrentObject(fn func(stac.Object)) {
	ref := t.currentRef()
	if ref == nil || ref.obj == nil {
		return
	}
	if !t.graphMu.TryLock() {
		t.status.SetText("[yellow]Still loading...")
		return
	}
	defer t.graphMu.Unlock()
	fn(ref.obj)
}

func (t *TUI) setStatus(text string) {
	t.app.QueueUpdateDraw(func() { t.status.SetText(text) })
}

func (t *TUI) showInfo(message string) {
	t.showModal(pageInfo, message)
}

func (t *TUI) showError(message string) {
	t.showModal(pageError, "[red]"+message)
}

func (t *TUI) showModal(page, message string) {
	t.app.QueueUpdateDraw(func() {
		modal := tview.NewModal().
			SetText(message).
			AddButtons([]string{"OK"}).
			SetDoneFunc(func(int, string) {
				t.pages.HidePage(page)
				t.pages.RemovePage(page)
				t.app.SetFocus(t.tree)
			})
		t.pages.RemovePage(page)
		t.pages.AddPage(page, modal, false, true)
		t.app.SetFocus(modal)
	})
}
