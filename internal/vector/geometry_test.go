/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "testing"

func TestRectInset(t *testing.T) {
	r := Rect{X: 10, Y: 20, W: 100, H: 50}
	in := r.Inset(5, 5)
	if in.X != 15 || in.Y != 25 || in.W != 90 || in.H != 40 {
		t.Fatalf("unexpected inset: %+v", in)
	}
	if out := r.Inset(-2, -2); out != (Rect{X: 8, Y: 18, W: 104, H: 54}) {
		t.Fatalf("unexpected outset: %+v", out)
	}
}

func TestRectIntersect(t *testing.T) {
	a, b := Rect{W: 10, H: 10}, Rect{X: 5, Y: 5, W: 10, H: 10}
	if i := a.Intersect(b); i != (Rect{X: 5, Y: 5, W: 5, H: 5}) {
		t.Fatalf("intersect = %+v", i)
	}
	if i := a.Intersect(Rect{X: 20, Y: 20, W: 1, H: 1}); !i.Empty() {
		t.Fatalf("disjoint intersect should be empty: %+v", i)
	}
	if i := a.Intersect(Rect{X: 10, W: 5, H: 5}); !i.Empty() {
		t.Fatalf("touching edges should not intersect: %+v", i)
	}
}

func TestAffineBasic(t *testing.T) {
	m := Translate(10, 5).Mul(Scale(2, 3))
	p := m.Apply(Pt{1, 1})
	if p.X != 12 || p.Y != 8 { // (1*2+10, 1*3+5)
		t.Fatalf("unexpected transform result: %+v", p)
	}
}

func TestCoverTransformCentresOverflow(t *testing.T) {
	// 200x100 source onto 100x100: scale 1, 50px cropped each side.
	m := CoverTransform(Size{200, 100}, Size{100, 100})
	if p := m.Apply(Pt{0, 0}); p.X != -50 || p.Y != 0 {
		t.Fatalf("origin maps to %+v", p)
	}
	if p := m.Apply(Pt{200, 100}); p.X != 150 || p.Y != 100 {
		t.Fatalf("far corner maps to %+v", p)
	}
	if CoverTransform(Size{}, Size{10, 10}) != Identity {
		t.Fatalf("degenerate source should yield identity")
	}
}
