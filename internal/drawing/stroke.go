/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package drawing

import "sketchpad/internal/vector"

// Stroke is one freehand polyline painted with a fixed color and thickness.
// Strokes handed out by Recorder are copies; mutating them does not affect history.
type Stroke struct {
	ID        string
	Color     Color
	Thickness float32
	Points    []vector.Pt
}

// Clone returns a deep copy.
func (s Stroke) Clone() Stroke {
	s.Points = append([]vector.Pt(nil), s.Points...)
	return s
}

func (s Stroke) Empty() bool { return len(s.Points) == 0 }

// Tool returns the brush the stroke was painted with.
func (s Stroke) Tool() ToolState { return ToolState{Color: s.Color, Thickness: s.Thickness} }

// Path returns the stroke as a move-to followed by line-tos.
func (s Stroke) Path() vector.Path { return vector.PolylinePath(s.Points) }

// Style is the paint style of the stroke: its thickness with round caps and joins.
func (s Stroke) Style() vector.StrokeStyle { return vector.RoundStroke(s.Thickness) }

// Bounds is the area the painted stroke may touch.
func (s Stroke) Bounds() vector.Rect {
	p := s.Path()
	return p.StrokeBounds(s.Thickness)
}

// Scene is everything the renderer paints on top of the background: the
// committed strokes in paint order, then the in-progress stroke if it has points.
type Scene struct {
	History []Stroke
	Active  Stroke
}
