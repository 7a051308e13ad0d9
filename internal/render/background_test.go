/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

func TestLoadBackgroundCoversCanvas(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 20, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 20; x++ {
			c := color.RGBA{R: 255, A: 255}
			if x >= 10 {
				c = color.RGBA{B: 255, A: 255}
			}
			src.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatal(err)
	}

	img, format, err := LoadBackground(&buf, image.Pt(40, 40))
	if err != nil {
		t.Fatalf("LoadBackground: %v", err)
	}
	if format != "png" {
		t.Fatalf("format = %q", format)
	}
	if img.Bounds() != image.Rect(0, 0, 40, 40) {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	// 20x10 scaled x4 to 80x40, cropped 20px each side: left half red, right half blue.
	if c := img.RGBAAt(2, 20); c.R < 200 || c.A != 255 {
		t.Fatalf("left = %v, want red", c)
	}
	if c := img.RGBAAt(37, 20); c.B < 200 || c.A != 255 {
		t.Fatalf("right = %v, want blue", c)
	}
}

func TestLoadBackgroundRejectsGarbage(t *testing.T) {
	if _, _, err := LoadBackground(strings.NewReader("not an image"), image.Pt(10, 10)); err == nil {
		t.Fatalf("expected decode error")
	}
}
