package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/robert-malhotra/go-stac-catalog/cmd/tui/formatting"
	"github.com/robert-malhotra/go-stac-catalog/pkg/stac"
)

const jsonPageID = "jsonView"

// jsonViewer owns the transient page used to display an object's document.
type jsonViewer struct {
	tui       *TUI
	mu        sync.Mutex
	prevFocus tview.Primitive

	snapshotTitle string
	snapshotData  []byte
}

func newJSONViewer(t *TUI) *jsonViewer {
	return &jsonViewer{tui: t}
}

// objectJSON encodes obj the way it would be written to its self href.
func objectJSON(obj stac.Object) ([]byte, error) {
	d, err := obj.ToDict(stac.WithoutHrefTransform())
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(d, "", "  ")
}

// Show must be called from the event loop.
func (v *jsonViewer) Show(title string, obj stac.Object) {
	encoded, err := objectJSON(obj)
	if err != nil {
		v.tui.showError(fmt.Sprintf("Failed to render JSON: %v", err))
		return
	}

	v.mu.Lock()
	v.prevFocus = v.tui.app.GetFocus()
	v.snapshotTitle = title
	v.snapshotData = encoded
	v.mu.Unlock()

	textView := tview.NewTextView().
		SetScrollable(true).
		SetWordWrap(false).
		SetText(string(encoded))
	textView.SetBorder(true).SetTitle(title)
	textView.SetInputCapture(v.handleInput)

	instructions := formatting.MakeHelpText("[yellow]Esc[white] close  |  [yellow]s[white] save JSON  |  [yellow]Ctrl+C[white] quit")
	layout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(textView, 0, 1, true).
		AddItem(instructions, 3, 0, false)

	v.tui.pages.RemovePage(jsonPageID)
	v.tui.pages.AddPage(jsonPageID, layout, true, true)
	v.tui.app.SetFocus(textView)
}

func (v *jsonViewer) Close() {
	v.mu.Lock()
	prevFocus := v.prevFocus
	v.prevFocus = nil
	v.snapshotTitle = ""
	v.snapshotData = nil
	v.mu.Unlock()

	v.tui.pages.RemovePage(jsonPageID)
	v.tui.pages.SwitchToPage(pageMain)
	if prevFocus != nil {
		v.tui.app.SetFocus(prevFocus)
	}
}

func (v *jsonViewer) Save() {
	v.mu.Lock()
	data := append([]byte(nil), v.snapshotData...)
	title := v.snapshotTitle
	v.mu.Unlock()

	if len(data) == 0 {
		return
	}
	filename := formatting.GenerateJSONFilename(title, time.Now())
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		v.tui.showError(fmt.Sprintf("Failed to save JSON: %v", err))
		return
	}
	v.tui.showInfo(fmt.Sprintf("JSON saved to %s", filename))
}

func (v *jsonViewer) handleInput(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyCtrlC:
		v.tui.Stop()
		return nil
	case tcell.KeyEscape:
		v.Close()
		return nil
	case tcell.KeyRune:
		if r := event.Rune(); r == 's' || r == 'S' {
			go v.Save()
			return nil
		}
	}
	return event
}
