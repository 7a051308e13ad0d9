//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"sketchpad/internal/config"
	"sketchpad/internal/crash"
	"sketchpad/internal/drawing"
	applog "sketchpad/internal/log"
	"sketchpad/internal/permission"
	"sketchpad/internal/session"
	"sketchpad/internal/storage"
	"sketchpad/internal/telemetry"
	"sketchpad/internal/version"
)

// Run opens the drawing window. docPath, if set, is loaded on start and
// written back when the window closes.
func Run(docPath string) error {
	cfg, _, err := config.Load()
	if err != nil {
		return err
	}
	applog.Init(config.LogOptions(cfg))
	telemetry.NewDefault(config.TelemetryOptions(cfg))
	defer telemetry.Flush(context.Background())
	l := applog.WithComponent("ui")
	l.Info("starting UI", slog.String("version", version.String()))

	sess, closeCatalog, err := session.Wire(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeCatalog() }()
	defer crash.Recover(sess)

	if docPath != "" {
		if doc, err := storage.LoadDocument(docPath); err == nil {
			if err := sess.LoadDocument(doc); err != nil {
				l.Error("load document failed", slog.Any("err", err))
			}
		} else {
			l.Warn("open document failed", slog.String("path", docPath), slog.Any("err", err))
		}
	}

	fyneApp := app.NewWithID("sketchpad")
	w := fyneApp.NewWindow("Sketchpad")
	prefs := fyneApp.Preferences()
	w.Resize(fyne.NewSize(float32(prefs.IntWithFallback("window.width", 540)), float32(prefs.IntWithFallback("window.height", 960))))

	status := widget.NewLabel("Ready")
	sess.SetPost(fyne.Do)
	sess.SetNotify(func(msg string) {
		status.SetText(msg)
		fyneApp.SendNotification(fyne.NewNotification("Sketchpad", msg))
	})
	view := NewDrawingView(sess)

	palette, err := drawing.ParsePalette(cfg.Brush.Palette)
	if err != nil {
		l.Warn("bad palette in config, using defaults", slog.Any("err", err))
		palette, _ = drawing.ParsePalette(config.DefaultPalette)
	}
	swatches := container.NewHBox()
	for _, c := range palette {
		c := c
		swatches.Add(newSwatch(c, func() {
			if err := sess.SetColor(c.Hex()); err != nil {
				dialog.ShowError(err, w)
			}
		}))
	}

	showBrushDialog := func() {
		var d dialog.Dialog
		row := container.NewHBox()
		for _, b := range drawing.BrushSizes {
			b := b
			row.Add(widget.NewButton(label(b), func() {
				sess.SetBrushSize(b)
				d.Hide()
			}))
		}
		d = dialog.NewCustom("Brush size", "Cancel", row, w)
		d.Show()
	}

	openGallery := func() {
		dir := cfg.Storage.GalleryDir
		res := permission.NewChecker(false).EnsureStorageAccess(dir)
		if res != permission.Granted {
			status.SetText(res.Message())
			if res == permission.Deferred {
				dialog.ShowInformation("Gallery", permission.MsgRationale, w)
			}
			return
		}
		fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if rc == nil {
				return
			}
			path := rc.URI().Path()
			_ = rc.Close()
			if err := sess.ImportBackground(path); err != nil {
				dialog.ShowError(err, w)
			}
		}, w)
		fd.SetFilter(fstorage.NewExtensionFileFilter([]string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp"}))
		if lister, err := fstorage.ListerForURI(fstorage.NewFileURI(dir)); err == nil {
			fd.SetLocation(lister)
		}
		fd.Show()
	}

	save := func() {
		progress := dialog.NewCustomWithoutButtons("Saving…", widget.NewProgressBarInfinite(), w)
		progress.Show()
		sess.Save(context.Background(), func(res session.Result) {
			progress.Hide()
			if !res.OK() {
				dialog.ShowInformation("Save", res.Message, w)
			}
		})
	}

	toolbar := widget.NewToolbar(
		widget.NewToolbarAction(theme.FolderOpenIcon(), openGallery),
		widget.NewToolbarAction(theme.ColorPaletteIcon(), showBrushDialog),
		widget.NewToolbarAction(theme.ContentUndoIcon(), func() { sess.Undo() }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), save),
		widget.NewToolbarSpacer(),
		widget.NewToolbarAction(theme.InfoIcon(), func() {
			exe, _ := os.Executable()
			info := fmt.Sprintf("Sketchpad\nVersion: %s\nOS: %s\nArch: %s\nGo: %s\nExecutable: %s",
				version.String(), runtime.GOOS, runtime.GOARCH, runtime.Version(), exe)
			dialog.ShowInformation("About", info, w)
		}),
	)

	bottom := container.NewVBox(container.NewHScroll(swatches), toolbar, status)
	w.SetContent(container.NewBorder(nil, bottom, nil, nil, view))

	w.SetCloseIntercept(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		if docPath != "" {
			if err := storage.SaveDocument(docPath, sess.Document()); err != nil {
				l.Error("save document failed", slog.Any("err", err))
			}
		}
		w.Close()
	})

	w.ShowAndRun()
	return nil
}

// newSwatch is a colored square that selects c when tapped.
func newSwatch(c drawing.Color, onTap func()) fyne.CanvasObject {
	rect := canvas.NewRectangle(color.Color(c))
	rect.SetMinSize(fyne.NewSize(32, 32))
	rect.StrokeColor = color.Gray{Y: 128}
	rect.StrokeWidth = 1
	btn := widget.NewButton("", onTap)
	btn.Importance = widget.LowImportance
	return container.NewStack(rect, btn)
}

func label(b drawing.BrushSize) string {
	s := b.String()
	return strings.ToUpper(s[:1]) + s[1:]
}
