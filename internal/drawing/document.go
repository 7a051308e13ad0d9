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
	"time"

	"sketchpad/internal/domain"
	"sketchpad/internal/vector"
)

// ToDocument converts committed strokes into the persisted document form.
func ToDocument(strokes []Stroke, width, height int, bg Color) domain.Document {
	doc := domain.Document{
		Version: domain.DocumentVersion,
		Canvas:  domain.Canvas{Width: width, Height: height, Background: bg.Hex()},
		Strokes: make([]domain.Stroke, 0, len(strokes)),
		Meta:    domain.Meta{App: "sketchpad", Created: time.Now().UTC().Format(time.RFC3339)},
	}
	for _, s := range strokes {
		pts := make([][2]float32, len(s.Points))
		for i, p := range s.Points {
			pts[i] = [2]float32{p.X, p.Y}
		}
		doc.Strokes = append(doc.Strokes, domain.Stroke{ID: s.ID, Color: s.Color.Hex(), Thickness: s.Thickness, Points: pts})
	}
	return doc
}

// FromDocument converts a persisted document back into strokes and the canvas background.
func FromDocument(doc domain.Document) ([]Stroke, Color, error) {
	bg := White
	if doc.Canvas.Background != "" {
		c, err := ParseColor(doc.Canvas.Background)
		if err != nil {
			return nil, Color{}, fmt.Errorf("canvas background: %w", err)
		}
		bg = c
	}
	out := make([]Stroke, 0, len(doc.Strokes))
	for i, ds := range doc.Strokes {
		c, err := ParseColor(ds.Color)
		if err != nil {
			return nil, Color{}, fmt.Errorf("stroke %d: %w", i, err)
		}
		if !(ds.Thickness > 0) {
			return nil, Color{}, fmt.Errorf("stroke %d: %w: %v", i, ErrBadThickness, ds.Thickness)
		}
		pts := make([]vector.Pt, len(ds.Points))
		for j, p := range ds.Points {
			pts[j] = vector.Pt{X: p[0], Y: p[1]}
		}
		out = append(out, Stroke{ID: ds.ID, Color: c, Thickness: ds.Thickness, Points: pts})
	}
	return out, bg, nil
}
