/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"sketchpad/internal/domain"
	"sketchpad/internal/drawing"
)

// WriteSVG writes doc as an SVG image: a background rect, the imported picture
// (if any) and one polyline per stroke in paint order. Strokes with fewer than
// two points are skipped, matching the raster renderer.
func WriteSVG(w io.Writer, doc domain.Document) error {
	strokes, bg, err := drawing.FromDocument(doc)
	if err != nil {
		return fmt.Errorf("svg export: %w", err)
	}
	cw, ch := doc.Canvas.Width, doc.Canvas.Height

	var buf bytes.Buffer
	var werr error
	wf := func(format string, args ...any) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(&buf, format, args...)
	}

	wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	wf("<svg xmlns=\"http://www.w3.org/2000/svg\" xmlns:xlink=\"http://www.w3.org/1999/xlink\" version=\"1.1\" width=\"%d\" height=\"%d\" viewBox=\"0 0 %d %d\">\n", cw, ch, cw, ch)
	// white under everything, like the bitmap export
	wf("  <rect x=\"0\" y=\"0\" width=\"%d\" height=\"%d\" fill=\"#ffffff\"/>\n", cw, ch)
	if bg != drawing.White {
		wf("  <rect x=\"0\" y=\"0\" width=\"%d\" height=\"%d\" fill=\"%s\"%s/>\n", cw, ch, svgColor(bg), svgOpacity("fill-opacity", bg))
	}
	if doc.Background != "" {
		wf("  <image x=\"0\" y=\"0\" width=\"%d\" height=\"%d\" preserveAspectRatio=\"xMidYMid slice\" xlink:href=\"%s\"/>\n", cw, ch, escAttr(doc.Background))
	}

	for _, s := range strokes {
		if len(s.Points) < 2 {
			continue
		}
		st := s.Style()
		var pts strings.Builder
		for i, p := range s.Points {
			if i > 0 {
				pts.WriteByte(' ')
			}
			fmt.Fprintf(&pts, "%g,%g", p.X, p.Y)
		}
		wf("  <polyline points=\"%s\" fill=\"none\" stroke=\"%s\"%s stroke-width=\"%g\" stroke-linecap=\"%s\" stroke-linejoin=\"%s\"/>\n",
			pts.String(), svgColor(s.Color), svgOpacity("stroke-opacity", s.Color), st.Width, st.Cap, st.Join)
	}
	wf("</svg>\n")
	if werr != nil {
		return fmt.Errorf("svg export: %w", werr)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("svg write: %w", err)
	}
	return nil
}

func svgColor(c drawing.Color) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func svgOpacity(attr string, c drawing.Color) string {
	if c.Opaque() {
		return ""
	}
	return fmt.Sprintf(" %s=\"%.3g\"", attr, float64(c.A)/255)
}

func escAttr(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\"", "&quot;", "'", "&apos;")
	return r.Replace(s)
}
