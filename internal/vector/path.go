/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// Polyline paths. Freehand strokes only ever move and draw straight segments,
// so curves are not modelled.

type PathOp uint8

const (
	MoveTo PathOp = iota
	LineTo
)

type PathCmd struct {
	Op PathOp
	P  Pt
}

type Path struct{ Cmds []PathCmd }

// PolylinePath builds a path that moves to pts[0] and draws lines through the rest.
func PolylinePath(pts []Pt) Path {
	p := Path{Cmds: make([]PathCmd, 0, len(pts))}
	for i, q := range pts {
		if i == 0 {
			p.MoveTo(q.X, q.Y)
			continue
		}
		p.LineTo(q.X, q.Y)
	}
	return p
}

func (p *Path) MoveTo(x, y float32) { p.Cmds = append(p.Cmds, PathCmd{Op: MoveTo, P: Pt{x, y}}) }
func (p *Path) LineTo(x, y float32) { p.Cmds = append(p.Cmds, PathCmd{Op: LineTo, P: Pt{x, y}}) }

// Segments reports how many LineTo commands the path draws. A path without
// segments paints nothing when stroked.
func (p *Path) Segments() int {
	n := 0
	for _, c := range p.Cmds {
		if c.Op == LineTo {
			n++
		}
	}
	return n
}

// Transform returns a copy of p with m applied to every point.
func (p *Path) Transform(m Affine2D) Path {
	out := Path{Cmds: make([]PathCmd, len(p.Cmds))}
	for i, c := range p.Cmds {
		c.P = m.Apply(c.P)
		out.Cmds[i] = c
	}
	return out
}

// Bounds returns the axis-aligned bounding box of the path's points.
func (p *Path) Bounds() Rect {
	minX, minY := float32(+1e9), float32(+1e9)
	maxX, maxY := float32(-1e9), float32(-1e9)
	for _, c := range p.Cmds {
		minX, minY = min(minX, c.P.X), min(minY, c.P.Y)
		maxX, maxY = max(maxX, c.P.X), max(maxY, c.P.Y)
	}
	if minX > maxX || minY > maxY {
		return Rect{}
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// StrokeBounds is Bounds grown by half the stroke width on every side, i.e.
// the area a round-capped stroke of that width can touch.
func (p *Path) StrokeBounds(width float32) Rect {
	if len(p.Cmds) == 0 {
		return Rect{}
	}
	return p.Bounds().Inset(-width/2, -width/2)
}
