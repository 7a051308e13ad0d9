/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package drawing

import (
	"log/slog"

	applog "sketchpad/internal/log"
	"sketchpad/internal/undo"
	"sketchpad/internal/vector"

	"github.com/google/uuid"
)

// hairline is the width used when a stroke is begun with a non-positive thickness.
const hairline = 1

// Recorder turns pointer samples into committed strokes and keeps the undo buffer.
//
// A Recorder is not safe for concurrent use; it belongs to the UI loop.
type Recorder struct {
	history    []Stroke
	undone     *undo.Stack[Stroke]
	active     Stroke
	drawing    bool
	invalidate func()
	newID      func() string
	log        *slog.Logger
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithInvalidate registers fn to be called whenever the visible scene changed.
func WithInvalidate(fn func()) Option { return func(r *Recorder) { r.invalidate = fn } }

// WithUndoDepth caps the undo buffer; 0 keeps every undone stroke.
func WithUndoDepth(n int) Option {
	return func(r *Recorder) { r.undone = undo.NewStack[Stroke](undo.Config{MaxDepth: n}) }
}

// WithIDs replaces the stroke ID generator (uuid by default).
func WithIDs(fn func() string) Option { return func(r *Recorder) { r.newID = fn } }

func NewRecorder(opts ...Option) *Recorder {
	r := &Recorder{
		undone: undo.NewStack[Stroke](undo.Config{}),
		newID:  uuid.NewString,
		log:    applog.WithComponent("recorder"),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// SetInvalidate replaces the redraw callback.
func (r *Recorder) SetInvalidate(fn func()) { r.invalidate = fn }

// Begin starts a new active stroke at p with the given tool, discarding any
// stroke that was still in progress.
func (r *Recorder) Begin(p vector.Pt, tool ToolState) {
	if r.drawing && !r.active.Empty() {
		r.log.Debug("discarding incomplete stroke", slog.String("id", r.active.ID), slog.Int("points", len(r.active.Points)))
	}
	if !(tool.Thickness > 0) {
		tool.Thickness = hairline
	}
	r.active = Stroke{ID: r.newID(), Color: tool.Color, Thickness: tool.Thickness, Points: []vector.Pt{p}}
	r.drawing = true
}

// Extend appends p to the active stroke. Without an active stroke it does nothing.
func (r *Recorder) Extend(p vector.Pt) {
	if !r.drawing {
		return
	}
	r.active.Points = append(r.active.Points, p)
}

// Commit moves the active stroke into history if it has at least one point and
// returns to idle with a fresh, empty stroke carrying the same tool. It reports
// whether a stroke was committed.
func (r *Recorder) Commit() bool {
	if !r.drawing {
		return false
	}
	committed := false
	if !r.active.Empty() {
		r.history = append(r.history, r.active.Clone())
		committed = true
		r.log.Debug("stroke committed", slog.String("id", r.active.ID), slog.Int("points", len(r.active.Points)), slog.Int("history", len(r.history)))
	}
	tool := r.active.Tool()
	r.active = Stroke{Color: tool.Color, Thickness: tool.Thickness}
	r.drawing = false
	return committed
}

// Undo moves the most recent committed stroke to the undo buffer and requests
// a redraw. The active stroke is left alone. It reports false when history is empty.
func (r *Recorder) Undo() bool {
	n := len(r.history)
	if n == 0 {
		return false
	}
	last := r.history[n-1]
	r.history[n-1] = Stroke{}
	r.history = r.history[:n-1]
	r.undone.Push(last)
	r.log.Debug("stroke undone", slog.String("id", last.ID), slog.Int("history", len(r.history)))
	r.notify()
	return true
}

// Drawing reports whether a stroke is in progress.
func (r *Recorder) Drawing() bool { return r.drawing }

// Len returns the number of committed strokes.
func (r *Recorder) Len() int { return len(r.history) }

// History returns copies of the committed strokes in paint order.
func (r *Recorder) History() []Stroke {
	out := make([]Stroke, len(r.history))
	for i, s := range r.history {
		out[i] = s.Clone()
	}
	return out
}

// Undone returns copies of the undo buffer, most recent last.
func (r *Recorder) Undone() []Stroke {
	items := r.undone.Items()
	for i := range items {
		items[i] = items[i].Clone()
	}
	return items
}

// Active returns a copy of the in-progress stroke (empty when idle).
func (r *Recorder) Active() Stroke { return r.active.Clone() }

// Scene snapshots history and the active stroke for rendering.
func (r *Recorder) Scene() Scene {
	return Scene{History: r.History(), Active: r.Active()}
}

// Reset replaces history (for example after loading a document), clears the
// undo buffer and drops any in-progress stroke.
func (r *Recorder) Reset(history []Stroke) {
	r.history = make([]Stroke, 0, len(history))
	for _, s := range history {
		r.history = append(r.history, s.Clone())
	}
	r.undone.Clear()
	r.active = Stroke{}
	r.drawing = false
	r.notify()
}

func (r *Recorder) notify() {
	if r.invalidate != nil {
		r.invalidate()
	}
}
