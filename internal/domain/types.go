/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany..
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the persisted drawing document. It is the human-readable
// JSON form of a canvas (*.sketch.json) used for autosave, crash recovery and
// the vector exporters; the live model lives in package drawing.

// DocumentVersion is written into every document; bump on incompatible changes.
const DocumentVersion = 1

// Document is a complete drawing: canvas geometry, background and the committed
// strokes in paint order.
type Document struct {
	Version    int      `json:"version"`
	Canvas     Canvas   `json:"canvas"`
	Strokes    []Stroke `json:"strokes"`
	Background string   `json:"backgroundImage,omitempty"` // path of an imported picture, if any
	Meta       Meta     `json:"meta,omitempty"`
}

// Canvas holds the pixel size of the drawing surface and its fill color.
type Canvas struct {
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Background string `json:"background"` // #RRGGBB or #AARRGGBB
}

// Stroke is one committed freehand path.
type Stroke struct {
	ID        string       `json:"id"`
	Color     string       `json:"color"` // #RRGGBB or #AARRGGBB
	Thickness float32      `json:"thickness"`
	Points    [][2]float32 `json:"points"`
}

// Meta contains optional descriptive metadata.
type Meta struct {
	Title   string `json:"title,omitempty"`
	Created string `json:"created,omitempty"` // RFC3339
	App     string `json:"app,omitempty"`
}

// StrokeCount returns the number of strokes, tolerating a nil receiver.
func (d *Document) StrokeCount() int {
	if d == nil {
		return 0
	}
	return len(d.Strokes)
}
