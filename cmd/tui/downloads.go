package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/rivo/tview"

	"github.com/robert-malhotra/go-stac-catalog/cmd/tui/formatting"
	"github.com/robert-malhotra/go-stac-catalog/pkg/stac"
)

type downloadSession struct {
	cancel func()
}

func (t *TUI) setActiveDownload(session *downloadSession) {
	t.downloadMu.Lock()
	t.activeDownload = session
	t.downloadMu.Unlock()
}

func (t *TUI) clearActiveDownload(session *downloadSession) {
	t.downloadMu.Lock()
	if t.activeDownload == session {
		t.activeDownload = nil
	}
	t.downloadMu.Unlock()
}

func (t *TUI) cancelActiveDownload() {
	t.downloadMu.Lock()
	session := t.activeDownload
	t.activeDownload = nil
	t.downloadMu.Unlock()

	if session != nil && session.cancel != nil {
		session.cancel()
	}
}

type assetDownload struct {
	key  string
	src  string
	dest string
}

// plannedDownloads lists the assets of obj with the local file each one is
// saved to, under a directory named after the object id.
func plannedDownloads(obj stac.Object) []assetDownload {
	var assets map[string]*stac.Asset
	switch o := obj.(type) {
	case *stac.Item:
		assets = o.Assets
	case *stac.Collection:
		assets = o.Assets
	}
	keys := make([]string, 0, len(assets))
	for k := range assets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []assetDownload
	for _, key := range keys {
		a := assets[key]
		if a == nil {
			continue
		}
		src := a.AbsoluteHref(obj.SelfHref())
		name := formatting.AssetFileName(src)
		if name == "" {
			continue
		}
		out = append(out, assetDownload{key: key, src: src, dest: filepath.Join(formatting.Slugify(obj.ID()), name)})
	}
	return out
}

// downloadAssets fetches every asset of obj into the working directory,
// showing progress in a modal that can cancel the run. It must be called
// from the event loop.
func (t *TUI) downloadAssets(obj stac.Object) {
	if err := t.baseCtx.Err(); err != nil {
		return
	}
	plan := plannedDownloads(obj)
	if len(plan) == 0 {
		t.showInfo(fmt.Sprintf("%s has no downloadable assets", obj.ID()))
		return
	}

	ctx, cancel := context.WithCancel(t.baseCtx)
	modal := tview.NewModal().
		SetText(fmt.Sprintf("Preparing download of %d assets...", len(plan))).
		AddButtons([]string{"Cancel"})

	var (
		cancelOnce    sync.Once
		closePageOnce sync.Once
		userCancelled atomic.Bool
	)
	closeDownloadPage := func() {
		closePageOnce.Do(func() {
			go t.app.QueueUpdateDraw(func() {
				t.pages.RemovePage(pageDownload)
				t.app.SetFocus(t.tree)
			})
		})
	}
	session := &downloadSession{
		cancel: func() {
			cancelOnce.Do(func() {
				userCancelled.Store(true)
				cancel()
				closeDownloadPage()
			})
		},
	}
	t.setActiveDownload(session)
	modal.SetDoneFunc(func(int, string) { session.cancel() })

	t.pages.RemovePage(pageDownload)
	t.pages.AddPage(pageDownload, modal, true, true)
	t.app.SetFocus(modal)

	go func() {
		defer cancel()
		defer t.clearActiveDownload(session)

		for i, d := range plan {
			label := fmt.Sprintf("(%d/%d) %s", i+1, len(plan), d.key)
			err := t.io.Download(ctx, d.src, d.dest, func(downloaded, total int64) {
				t.app.QueueUpdateDraw(func() {
					if !userCancelled.Load() {
						modal.SetText(fmt.Sprintf("Downloading %s\n%s", label, formatting.RenderDownloadProgress(downloaded, total)))
					}
				})
			})
			if userCancelled.Load() || errors.Is(err, context.Canceled) {
				return
			}
			if err != nil {
				closeDownloadPage()
				t.showError(fmt.Sprintf("Download of %s failed: %v", d.key, err))
				return
			}
		}

		t.app.QueueUpdateDraw(func() {
			if userCancelled.Load() {
				return
			}
			modal.SetText(fmt.Sprintf("%d assets downloaded to %s", len(plan), filepath.Dir(plan[0].dest)))
			modal.ClearButtons()
			modal.AddButtons([]string{"Close"})
			modal.SetDoneFunc(func(int, string) { closeDownloadPage() })
			t.app.SetFocus(modal)
		})
	}()
}
