/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package render composes the drawing for display and export: a cached
// background layer (fill color plus an optional imported picture), then every
// committed stroke in paint order, then the stroke in progress.
package render

import (
	"image"
	"image/draw"
	"log/slog"

	"sketchpad/internal/drawing"
	applog "sketchpad/internal/log"
	"sketchpad/internal/vector"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/fixed"
)

// Renderer owns the background layer for a canvas of a fixed size.
// Like the recorder it belongs to the UI loop and is not safe for concurrent use.
type Renderer struct {
	size    image.Point
	fill    drawing.Color
	picture image.Image // imported background as supplied; rescaled on rebuild
	cache   *image.RGBA
	log     *slog.Logger
}

// New returns a renderer for a width x height canvas filled with bg.
func New(width, height int, bg drawing.Color) *Renderer {
	return &Renderer{
		size: image.Pt(max(width, 1), max(height, 1)),
		fill: bg,
		log:  applog.WithComponent("render"),
	}
}

func (r *Renderer) Size() image.Point { return r.size }

func (r *Renderer) Fill() drawing.Color { return r.fill }

// Resize changes the canvas size and drops the cached background.
func (r *Renderer) Resize(width, height int) {
	sz := image.Pt(max(width, 1), max(height, 1))
	if sz == r.size {
		return
	}
	r.size = sz
	r.cache = nil
}

// SetFill changes the background color.
func (r *Renderer) SetFill(c drawing.Color) {
	r.fill = c
	r.cache = nil
}

// SetBackground bakes img into the background layer, scaled to cover the canvas.
// A nil image removes the picture.
func (r *Renderer) SetBackground(img image.Image) {
	r.picture = img
	r.cache = nil
}

func (r *Renderer) HasBackground() bool { return r.picture != nil }

// Background returns the cached background layer, building it on first use.
// Callers must not modify the returned image.
func (r *Renderer) Background() *image.RGBA {
	if r.cache == nil {
		r.cache = r.buildBackground()
	}
	return r.cache
}

func (r *Renderer) buildBackground() *image.RGBA {
	bg := image.NewRGBA(image.Rectangle{Max: r.size})
	draw.Draw(bg, bg.Bounds(), image.NewUniform(r.fill), image.Point{}, draw.Src)
	if r.picture != nil {
		pic := ScaleCover(r.picture, r.size)
		draw.Draw(bg, bg.Bounds(), pic, image.Point{}, draw.Over)
	}
	r.log.Debug("background rebuilt", slog.Int("w", r.size.X), slog.Int("h", r.size.Y), slog.Bool("picture", r.picture != nil))
	return bg
}

// Render paints the background, the committed strokes in order and the active
// stroke onto dst. Output depends only on the scene and the background layer.
func (r *Renderer) Render(dst draw.Image, sc drawing.Scene) {
	b := dst.Bounds()
	draw.Draw(dst, b, r.Background(), image.Point{}, draw.Src)
	paintStrokes(dst, sc, vector.Identity)
}

// ExportBitmap renders the scene into a new image sized to view. Pixels not
// covered by the background layer are white.
func (r *Renderer) ExportBitmap(view image.Rectangle, sc drawing.Scene) *image.RGBA {
	if view.Empty() {
		view = image.Rectangle{Max: r.size}
	}
	out := image.NewRGBA(image.Rectangle{Max: view.Size()})
	draw.Draw(out, out.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), r.Background(), view.Min, draw.Over)
	paintStrokes(out, sc, vector.Translate(-float32(view.Min.X), -float32(view.Min.Y)))
	return out
}

// paintStrokes rasterizes the scene onto dst; m is a translation mapping
// canvas coordinates to coordinates relative to dst.Bounds().Min. Strokes
// entirely outside dst are skipped.
func paintStrokes(dst draw.Image, sc drawing.Scene, m vector.Affine2D) (painted int) {
	b := dst.Bounds()
	view := vector.Rect{X: -m.E, Y: -m.F, W: float32(b.Dx()), H: float32(b.Dy())}
	scanner := rasterx.NewScannerGV(b.Dx(), b.Dy(), dst, b)
	dasher := rasterx.NewDasher(b.Dx(), b.Dy(), scanner)
	for _, s := range sc.History {
		if strokeOnto(dasher, s, m, view) {
			painted++
		}
	}
	if !sc.Active.Empty() && strokeOnto(dasher, sc.Active, m, view) {
		painted++
	}
	return painted
}

// strokeOnto rasterizes one stroke and reports whether it was drawn. A
// stroke needs a line segment to paint anything: a lone move-to leaves no
// pixels.
func strokeOnto(d *rasterx.Dasher, s drawing.Stroke, m vector.Affine2D, view vector.Rect) bool {
	path := s.Path()
	if path.Segments() == 0 || s.Bounds().Intersect(view).Empty() {
		return false
	}
	st := s.Style()
	d.SetStroke(toFixed(st.Width), toFixed(st.MiterLim), capFunc(st.Cap), capFunc(st.Cap), rasterx.RoundGap, joinMode(st.Join), nil, 0)
	for _, c := range path.Transform(m).Cmds {
		switch c.Op {
		case vector.MoveTo:
			d.Start(toFixedPt(c.P))
		case vector.LineTo:
			d.Line(toFixedPt(c.P))
		}
	}
	d.Stop(false)
	d.SetColor(s.Color)
	d.Draw()
	d.Clear()
	return true
}

func capFunc(c vector.LineCap) rasterx.CapFunc {
	switch c {
	case vector.CapRound:
		return rasterx.RoundCap
	case vector.CapSquare:
		return rasterx.SquareCap
	default:
		return rasterx.ButtCap
	}
}

func joinMode(j vector.LineJoin) rasterx.JoinMode {
	switch j {
	case vector.JoinRound:
		return rasterx.Round
	case vector.JoinBevel:
		return rasterx.Bevel
	default:
		return rasterx.Miter
	}
}

func toFixed(v float32) fixed.Int26_6 { return fixed.Int26_6(v * 64) }

func toFixedPt(p vector.Pt) fixed.Point26_6 {
	return fixed.Point26_6{X: toFixed(p.X), Y: toFixed(p.Y)}
}
