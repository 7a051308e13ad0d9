/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"sketchpad/internal/domain"
	"sketchpad/internal/drawing"

	"github.com/jung-kurt/gofpdf"
)

// WritePDF exports doc as a single-page PDF at path. The page is sized to the
// canvas with one pixel mapped to one point; strokes stay vector paths with
// round caps and joins.
func WritePDF(path string, doc domain.Document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	pdf, err := buildPDF(doc)
	if err != nil {
		return err
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// WritePDFTo is WritePDF for an arbitrary writer.
func WritePDFTo(w io.Writer, doc domain.Document) error {
	pdf, err := buildPDF(doc)
	if err != nil {
		return err
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func buildPDF(doc domain.Document) (*gofpdf.Fpdf, error) {
	strokes, bg, err := drawing.FromDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("pdf export: %w", err)
	}
	w, h := float64(doc.Canvas.Width), float64(doc.Canvas.Height)
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("pdf export: invalid canvas %dx%d", doc.Canvas.Width, doc.Canvas.Height)
	}

	// Use points for 1:1 mapping from canvas pixels to PDF
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: w, Ht: h},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	title := doc.Meta.Title
	if title == "" {
		title = "Drawing"
	}
	pdf.SetTitle(title, true)
	pdf.SetCreator("Sketchpad", false)
	pdf.AddPageFormat("", gofpdf.SizeType{Wd: w, Ht: h})

	// Background: white, then the canvas fill, then an imported picture if readable.
	pdf.SetFillColor(255, 255, 255)
	pdf.Rect(0, 0, w, h, "F")
	if bg != drawing.White {
		setAlpha(pdf, bg)
		setFillColor(pdf, bg)
		pdf.Rect(0, 0, w, h, "F")
		pdf.SetAlpha(1, "Normal")
	}
	if doc.Background != "" && pdfImageType(doc.Background) != "" {
		if _, err := os.Stat(doc.Background); err == nil {
			opt := gofpdf.ImageOptions{ImageType: pdfImageType(doc.Background)}
			pdf.ImageOptions(doc.Background, 0, 0, w, h, false, opt, 0, "")
		}
	}

	pdf.SetLineCapStyle("round")
	pdf.SetLineJoinStyle("round")
	for _, s := range strokes {
		if len(s.Points) < 2 {
			continue
		}
		setAlpha(pdf, s.Color)
		setDrawColor(pdf, s.Color)
		pdf.SetLineWidth(float64(s.Style().Width))
		for i, p := range s.Points {
			if i == 0 {
				pdf.MoveTo(float64(p.X), float64(p.Y))
				continue
			}
			pdf.LineTo(float64(p.X), float64(p.Y))
		}
		pdf.DrawPath("D")
	}
	pdf.SetAlpha(1, "Normal")

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("pdf export: %w", err)
	}
	return pdf, nil
}

func setDrawColor(pdf *gofpdf.Fpdf, c drawing.Color) {
	pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
}

func setFillColor(pdf *gofpdf.Fpdf, c drawing.Color) {
	pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
}

func setAlpha(pdf *gofpdf.Fpdf, c drawing.Color) {
	pdf.SetAlpha(float64(c.A)/255, "Normal")
}

// pdfImageType maps a file extension to a gofpdf image type; gofpdf reads only jpg, png and gif.
func pdfImageType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "JPG"
	case ".png":
		return "PNG"
	case ".gif":
		return "GIF"
	}
	return ""
}
