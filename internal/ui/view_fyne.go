//go:build fyne

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"sketchpad/internal/drawing"
	"sketchpad/internal/session"
	"sketchpad/internal/vector"
)

// DrawingView shows a session's canvas and turns mouse presses and drags
// into pointer samples.
type DrawingView struct {
	widget.BaseWidget

	sess *session.Session
	buf  *image.RGBA
}

var (
	_ desktop.Mouseable = (*DrawingView)(nil)
	_ fyne.Draggable    = (*DrawingView)(nil)
)

func NewDrawingView(s *session.Session) *DrawingView {
	v := &DrawingView{sess: s}
	v.ExtendBaseWidget(v)
	s.SetInvalidate(v.Refresh)
	return v
}

func (v *DrawingView) CreateRenderer() fyne.WidgetRenderer {
	r := canvas.NewRaster(v.paint)
	r.ScaleMode = canvas.ImageScaleFastest
	return &drawingViewRenderer{view: v, raster: r}
}

// paint renders the canvas at its own pixel size; the raster stretches it.
func (v *DrawingView) paint(_, _ int) image.Image {
	sz := v.sess.Size()
	if v.buf == nil || v.buf.Bounds().Size() != sz {
		v.buf = image.NewRGBA(image.Rectangle{Max: sz})
	}
	v.sess.Render(v.buf)
	return v.buf
}

// toCanvas maps a widget position to canvas pixels.
func (v *DrawingView) toCanvas(pos fyne.Position) vector.Pt {
	sz := v.Size()
	c := v.sess.Size()
	if sz.Width <= 0 || sz.Height <= 0 {
		return vector.Pt{X: pos.X, Y: pos.Y}
	}
	return vector.Pt{X: pos.X * float32(c.X) / sz.Width, Y: pos.Y * float32(c.Y) / sz.Height}
}

func (v *DrawingView) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	v.sess.Pointer(drawing.Event{Action: drawing.ActionDown, Point: v.toCanvas(e.Position)})
}

func (v *DrawingView) MouseUp(e *desktop.MouseEvent) {
	if !v.sess.Recorder().Drawing() {
		return
	}
	v.sess.Pointer(drawing.Event{Action: drawing.ActionUp, Point: v.toCanvas(e.Position)})
}

func (v *DrawingView) Dragged(e *fyne.DragEvent) {
	if !v.sess.Recorder().Drawing() {
		// touch drivers may not deliver a press first
		start := e.Position.Subtract(e.Dragged)
		v.sess.Pointer(drawing.Event{Action: drawing.ActionDown, Point: v.toCanvas(start)})
	}
	v.sess.Pointer(drawing.Event{Action: drawing.ActionMove, Point: v.toCanvas(e.Position)})
}

func (v *DrawingView) DragEnd() {
	if v.sess.Recorder().Drawing() {
		v.sess.Pointer(drawing.Event{Action: drawing.ActionUp})
	}
}

type drawingViewRenderer struct {
	view   *DrawingView
	raster *canvas.Raster
}

func (r *drawingViewRenderer) Layout(size fyne.Size) {
	r.raster.Resize(size)
	r.raster.Move(fyne.NewPos(0, 0))
}

// MinSize keeps the canvas usable when the window shrinks.
func (r *drawingViewRenderer) MinSize() fyne.Size { return fyne.NewSize(200, 200) }

func (r *drawingViewRenderer) Refresh() { canvas.Refresh(r.raster) }

func (r *drawingViewRenderer) Objects() []fyne.CanvasObject { return []fyne.CanvasObject{r.raster} }

func (r *drawingViewRenderer) Destroy() {}
