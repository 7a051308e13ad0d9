/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package session ties the stroke recorder, the renderer and the storage,
// share and permission collaborators together behind the operations a
// drawing screen offers. It is toolkit-agnostic; the Fyne view and the CLI
// both drive it.
//
// A Session is owned by one goroutine (the UI loop). Only Save hands work to
// another goroutine, and only the saved path comes back.
package session

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"log/slog"
	"os"
	"path/filepath"

	"sketchpad/internal/config"
	"sketchpad/internal/domain"
	"sketchpad/internal/drawing"
	applog "sketchpad/internal/log"
	"sketchpad/internal/permission"
	"sketchpad/internal/render"
	"sketchpad/internal/share"
	"sketchpad/internal/storage"
)

// User-facing messages.
const (
	MsgSaved      = "File saved successfully:"
	MsgSaveFailed = "Something went wrong while saving the file."
)

var (
	ErrPermissionDenied   = errors.New("storage permission denied")
	ErrPermissionDeferred = errors.New("storage permission not granted yet")
)

// Options configures a Session. Zero values get defaults in New.
type Options struct {
	Width, Height int
	Density       float64
	Fill          drawing.Color
	Tool          drawing.ToolState
	OutputDir     string

	Store      storage.Store
	Sharer     share.Service
	Permission permission.Service

	// Notify shows a short message to the user (a toast).
	Notify func(msg string)
	// Invalidate asks the view to redraw.
	Invalidate func()
	// Post runs fn on the UI loop. Nil runs fn on the calling goroutine.
	Post func(fn func())
}

// OptionsFromConfig maps the user configuration onto Options. Collaborators
// are left for the caller to fill in.
func OptionsFromConfig(cfg config.AppConfig) (Options, error) {
	fill, err := drawing.ParseColor(cfg.Canvas.Background)
	if err != nil {
		return Options{}, fmt.Errorf("canvas background: %w", err)
	}
	c, err := drawing.ParseColor(cfg.Brush.Color)
	if err != nil {
		return Options{}, fmt.Errorf("brush color: %w", err)
	}
	tool, err := drawing.NewToolState(c, drawing.BrushSize(cfg.Brush.SizeDp).ToPixels(cfg.Canvas.Density))
	if err != nil {
		return Options{}, err
	}
	return Options{
		Width:     cfg.Canvas.Width,
		Height:    cfg.Canvas.Height,
		Density:   cfg.Canvas.Density,
		Fill:      fill,
		Tool:      tool,
		OutputDir: cfg.Storage.OutputDir,
	}, nil
}

// Session is one open drawing.
type Session struct {
	rec      *drawing.Recorder
	renderer *render.Renderer
	tool     drawing.ToolState
	density  float64
	bgPath   string

	outputDir  string
	store      storage.Store
	sharer     share.Service
	permission permission.Service
	notify     func(string)
	invalidate func()
	post       func(func())

	log *slog.Logger
}

// New builds a session with an empty history.
func New(opts Options) *Session {
	if opts.Width <= 0 || opts.Height <= 0 {
		def := config.Defaults().Canvas
		opts.Width, opts.Height = def.Width, def.Height
	}
	if opts.Density <= 0 {
		opts.Density = 1
	}
	if opts.Fill == (drawing.Color{}) {
		opts.Fill = drawing.White
	}
	if !(opts.Tool.Thickness > 0) {
		opts.Tool = drawing.ToolState{Color: drawing.Black, Thickness: drawing.Small.ToPixels(opts.Density)}
	}
	if opts.Sharer == nil {
		opts.Sharer = share.NopSharer{}
	}
	if opts.Permission == nil {
		opts.Permission = permission.NewChecker(false)
	}
	if opts.Post == nil {
		opts.Post = func(fn func()) { fn() }
	}
	s := &Session{
		renderer:   render.New(opts.Width, opts.Height, opts.Fill),
		tool:       opts.Tool,
		density:    opts.Density,
		outputDir:  opts.OutputDir,
		store:      opts.Store,
		sharer:     opts.Sharer,
		permission: opts.Permission,
		notify:     opts.Notify,
		invalidate: opts.Invalidate,
		post:       opts.Post,
		log:        applog.WithComponent("session"),
	}
	s.rec = drawing.NewRecorder(drawing.WithInvalidate(s.redraw))
	return s
}

func (s *Session) redraw() {
	if s.invalidate != nil {
		s.invalidate()
	}
}

func (s *Session) say(msg string) {
	s.log.Info("notice", slog.String("msg", msg))
	if s.notify != nil {
		s.notify(msg)
	}
}

// SetInvalidate replaces the redraw hook; views install it once they exist.
func (s *Session) SetInvalidate(fn func()) { s.invalidate = fn }

// SetNotify replaces the notice hook.
func (s *Session) SetNotify(fn func(string)) { s.notify = fn }

// SetPost replaces the UI-loop marshaller.
func (s *Session) SetPost(fn func(func())) {
	if fn == nil {
		fn = func(f func()) { f() }
	}
	s.post = fn
}

// Tool returns the brush the next stroke will be begun with.
func (s *Session) Tool() drawing.ToolState { return s.tool }

// SetColor parses c and makes it the current brush color.
func (s *Session) SetColor(c string) error {
	col, err := drawing.ParseColor(c)
	if err != nil {
		return err
	}
	s.tool = s.tool.WithColor(col)
	s.log.Debug("brush color", slog.String("color", col.Hex()))
	return nil
}

// SetBrushSize picks one of the preset sizes.
func (s *Session) SetBrushSize(b drawing.BrushSize) {
	s.tool = s.tool.WithThickness(b.ToPixels(s.density))
	s.log.Debug("brush size", slog.String("size", b.String()), slog.Float64("px", float64(s.tool.Thickness)))
}

// Pointer feeds one pointer sample. Down samples are begun with the current tool.
func (s *Session) Pointer(ev drawing.Event) bool {
	if ev.Action == drawing.ActionDown {
		ev.Tool = s.tool
	}
	return s.rec.HandlePointer(ev)
}

// Undo removes the most recent stroke.
func (s *Session) Undo() bool {
	ok := s.rec.Undo()
	s.log.Debug("undo", slog.Bool("removed", ok), slog.Int("strokes", s.rec.Len()))
	return ok
}

func (s *Session) Recorder() *drawing.Recorder { return s.rec }

func (s *Session) Renderer() *render.Renderer { return s.renderer }

// Size returns the canvas size in pixels.
func (s *Session) Size() image.Point { return s.renderer.Size() }

// Resize changes the canvas size; strokes keep their coordinates.
func (s *Session) Resize(width, height int) {
	s.renderer.Resize(width, height)
	s.redraw()
}

// Render paints the current scene into dst.
func (s *Session) Render(dst draw.Image) { s.renderer.Render(dst, s.rec.Scene()) }

// Snapshot renders the whole canvas the way Save would.
func (s *Session) Snapshot() *image.RGBA {
	return s.renderer.ExportBitmap(image.Rectangle{Max: s.renderer.Size()}, s.rec.Scene())
}

// OutputDir is where pictures (and crash autosaves) go.
func (s *Session) OutputDir() string { return s.outputDir }

// ImportBackground loads a picture from the gallery as the canvas background
// after checking that its directory may be read.
func (s *Session) ImportBackground(path string) error {
	l := applog.WithOperation(s.log, "import").With(slog.String("path", path))
	switch res := s.permission.EnsureStorageAccess(filepath.Dir(path)); res {
	case permission.Granted:
	case permission.Deferred:
		s.say(res.Message())
		return ErrPermissionDeferred
	default:
		s.say(res.Message())
		return ErrPermissionDenied
	}
	f, err := os.Open(path)
	if err != nil {
		l.Error("open picture failed", slog.Any("err", err))
		return fmt.Errorf("open picture: %w", err)
	}
	defer f.Close()
	img, format, err := render.LoadBackground(f, s.renderer.Size())
	if err != nil {
		l.Error("decode picture failed", slog.Any("err", err))
		return err
	}
	s.renderer.SetBackground(img)
	s.bgPath = path
	l.Info("background imported", slog.String("format", format))
	s.redraw()
	return nil
}

// ClearBackground drops an imported picture.
func (s *Session) ClearBackground() {
	s.renderer.SetBackground(nil)
	s.bgPath = ""
	s.redraw()
}

// Document returns the committed drawing in its persisted form.
func (s *Session) Document() domain.Document {
	sz := s.renderer.Size()
	doc := drawing.ToDocument(s.rec.History(), sz.X, sz.Y, s.renderer.Fill())
	doc.Background = s.bgPath
	return doc
}

// LoadDocument replaces the drawing with doc. A background picture that can
// no longer be opened is logged and skipped.
func (s *Session) LoadDocument(doc domain.Document) error {
	strokes, fill, err := drawing.FromDocument(doc)
	if err != nil {
		return err
	}
	if doc.Canvas.Width > 0 && doc.Canvas.Height > 0 {
		s.renderer.Resize(doc.Canvas.Width, doc.Canvas.Height)
	}
	s.renderer.SetFill(fill)
	s.renderer.SetBackground(nil)
	s.bgPath = ""
	s.rec.Reset(strokes)
	if doc.Background != "" {
		if err := s.ImportBackground(doc.Background); err != nil {
			s.log.Warn("document background skipped", slog.String("path", doc.Background), slog.Any("err", err))
		}
	}
	return nil
}
