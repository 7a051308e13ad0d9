/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package drawing

import (
	"fmt"
	"testing"

	"sketchpad/internal/vector"
)

var (
	red  = ToolState{Color: Color{255, 0, 0, 255}, Thickness: 10}
	blue = ToolState{Color: Color{0, 0, 255, 255}, Thickness: 20}
)

func seqIDs() func() string {
	n := 0
	return func() string { n++; return fmt.Sprintf("s%d", n) }
}

func stroke(r *Recorder, tool ToolState, pts ...vector.Pt) {
	r.HandlePointer(Event{Action: ActionDown, Point: pts[0], Tool: tool})
	for _, p := range pts[1:] {
		r.HandlePointer(Event{Action: ActionMove, Point: p})
	}
	r.HandlePointer(Event{Action: ActionUp})
}

func TestNCyclesCommitNStrokes(t *testing.T) {
	r := NewRecorder(WithIDs(seqIDs()))
	for n := 1; n <= 5; n++ {
		pts := make([]vector.Pt, n)
		for i := range pts {
			pts[i] = vector.Pt{X: float32(i), Y: float32(n)}
		}
		stroke(r, red, pts...)
		if r.Len() != n {
			t.Fatalf("after %d cycles history has %d strokes", n, r.Len())
		}
	}
	if r.Drawing() {
		t.Fatalf("recorder should be idle after up")
	}
}

func TestDownUpCommitsOnePointStroke(t *testing.T) {
	r := NewRecorder()
	r.HandlePointer(Event{Action: ActionDown, Point: vector.Pt{X: 3, Y: 4}, Tool: red})
	r.HandlePointer(Event{Action: ActionUp})
	h := r.History()
	if len(h) != 1 || len(h[0].Points) != 1 || h[0].Points[0] != (vector.Pt{X: 3, Y: 4}) {
		t.Fatalf("history = %+v", h)
	}
}

func TestExtendAndCommitWhileIdleAreNoOps(t *testing.T) {
	r := NewRecorder()
	r.Extend(vector.Pt{X: 1, Y: 1})
	if r.Commit() {
		t.Fatalf("commit without begin should not commit")
	}
	if r.Len() != 0 || !r.Active().Empty() {
		t.Fatalf("idle recorder changed: len=%d active=%+v", r.Len(), r.Active())
	}
}

func TestBeginDiscardsIncompleteStroke(t *testing.T) {
	r := NewRecorder()
	r.Begin(vector.Pt{X: 0, Y: 0}, red)
	r.Extend(vector.Pt{X: 5, Y: 5})
	r.Begin(vector.Pt{X: 9, Y: 9}, blue)
	a := r.Active()
	if len(a.Points) != 1 || a.Color != blue.Color {
		t.Fatalf("active = %+v", a)
	}
	r.Commit()
	if h := r.History(); len(h) != 1 || h[0].Color != blue.Color {
		t.Fatalf("only the second stroke should be committed: %+v", h)
	}
}

func TestCommitKeepsToolOnFreshStroke(t *testing.T) {
	r := NewRecorder()
	r.Begin(vector.Pt{}, blue)
	r.Commit()
	if a := r.Active(); !a.Empty() || a.Tool() != blue {
		t.Fatalf("fresh active stroke = %+v", a)
	}
}

func TestUndoRedExample(t *testing.T) {
	invalidated := 0
	r := NewRecorder(WithInvalidate(func() { invalidated++ }))
	stroke(r, red, vector.Pt{X: 0, Y: 0}, vector.Pt{X: 10, Y: 10})
	stroke(r, blue, vector.Pt{X: 0, Y: 10}, vector.Pt{X: 10, Y: 0})

	before := invalidated
	if !r.Undo() {
		t.Fatalf("undo should succeed")
	}
	if invalidated != before+1 {
		t.Fatalf("undo should invalidate once")
	}
	h := r.History()
	if len(h) != 1 || h[0].Color != red.Color || h[0].Thickness != 10 {
		t.Fatalf("history after undo = %+v", h)
	}
	u := r.Undone()
	if len(u) != 1 || u[0].Color != blue.Color || u[0].Thickness != 20 {
		t.Fatalf("undo buffer = %+v", u)
	}
}

func TestUndoNeverTouchesActiveStroke(t *testing.T) {
	r := NewRecorder()
	stroke(r, red, vector.Pt{X: 1, Y: 1}, vector.Pt{X: 2, Y: 2})
	r.Begin(vector.Pt{X: 5, Y: 5}, blue)
	r.Extend(vector.Pt{X: 6, Y: 6})
	before := r.Active()

	r.Undo()
	if r.Undo() {
		t.Fatalf("undo on empty history should report false")
	}
	after := r.Active()
	if !r.Drawing() || len(after.Points) != len(before.Points) || after.ID != before.ID {
		t.Fatalf("active stroke changed by undo: %+v -> %+v", before, after)
	}
}

func TestUndoBufferSurvivesCommit(t *testing.T) {
	r := NewRecorder()
	stroke(r, red, vector.Pt{})
	r.Undo()
	stroke(r, blue, vector.Pt{})
	if len(r.Undone()) != 1 {
		t.Fatalf("commit should not clear the undo buffer")
	}
}

func TestToolChangeOnlyAffectsLaterStrokes(t *testing.T) {
	r := NewRecorder()
	tool := red
	stroke(r, tool, vector.Pt{}, vector.Pt{X: 1})
	tool = tool.WithColor(blue.Color).WithThickness(30)
	stroke(r, tool, vector.Pt{}, vector.Pt{X: 1})

	h := r.History()
	if h[0].Tool() != red {
		t.Fatalf("first stroke changed tool: %+v", h[0].Tool())
	}
	if h[1].Color != blue.Color || h[1].Thickness != 30 {
		t.Fatalf("second stroke tool = %+v", h[1].Tool())
	}
}

func TestHistoryReturnsCopies(t *testing.T) {
	r := NewRecorder()
	stroke(r, red, vector.Pt{X: 1, Y: 1}, vector.Pt{X: 2, Y: 2})
	h := r.History()
	h[0].Points[0] = vector.Pt{X: 99, Y: 99}
	if r.History()[0].Points[0] == (vector.Pt{X: 99, Y: 99}) {
		t.Fatalf("committed stroke was mutated through History()")
	}
}

func TestHandlePointerUnhandledActions(t *testing.T) {
	calls := 0
	r := NewRecorder(WithInvalidate(func() { calls++ }))
	if r.HandlePointer(Event{Action: ActionCancel}) || r.HandlePointer(Event{Action: ActionHover}) {
		t.Fatalf("cancel/hover should be unhandled")
	}
	if calls != 0 {
		t.Fatalf("unhandled events must not invalidate")
	}
	if !r.HandlePointer(Event{Action: ActionDown, Tool: red}) || calls != 1 {
		t.Fatalf("down should be handled and invalidate")
	}
}

func TestBeginWithZeroThicknessUsesHairline(t *testing.T) {
	r := NewRecorder()
	r.Begin(vector.Pt{}, ToolState{Color: Black})
	if r.Active().Thickness != hairline {
		t.Fatalf("thickness = %v", r.Active().Thickness)
	}
}

func TestResetReplacesHistory(t *testing.T) {
	r := NewRecorder()
	stroke(r, red, vector.Pt{})
	r.Undo()
	r.Reset([]Stroke{{ID: "a", Color: Black, Thickness: 2, Points: []vector.Pt{{X: 1, Y: 1}}}})
	if r.Len() != 1 || len(r.Undone()) != 0 || r.Drawing() {
		t.Fatalf("reset state: len=%d undone=%d drawing=%v", r.Len(), len(r.Undone()), r.Drawing())
	}
}

func TestUndoDepthCap(t *testing.T) {
	r := NewRecorder(WithUndoDepth(2))
	for i := 0; i < 4; i++ {
		stroke(r, red, vector.Pt{X: float32(i)})
	}
	for r.Undo() {
	}
	if u := r.Undone(); len(u) != 2 || u[1].Points[0].X != 0 {
		t.Fatalf("undo buffer = %+v", u)
	}
}
