/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"fmt"
	"image"
	"io"
	"math"

	"sketchpad/internal/vector"

	// decoders for imported pictures
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// LoadBackground decodes a picture (png, jpeg, gif, bmp or webp) and scales it
// to cover a canvas of the given size. It returns the decoded format name.
func LoadBackground(r io.Reader, size image.Point) (*image.RGBA, string, error) {
	src, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("decode background: %w", err)
	}
	return ScaleCover(src, size), format, nil
}

// ScaleCover resamples src so it covers a size.X x size.Y canvas, keeping the
// aspect ratio and cropping the overflow evenly.
func ScaleCover(src image.Image, size image.Point) *image.RGBA {
	dst := image.NewRGBA(image.Rectangle{Max: size})
	sb := src.Bounds()
	if sb.Empty() || size.X <= 0 || size.Y <= 0 {
		return dst
	}
	m := vector.CoverTransform(
		vector.Size{W: float32(sb.Dx()), H: float32(sb.Dy())},
		vector.Size{W: float32(size.X), H: float32(size.Y)},
	)
	lo := m.Apply(vector.Pt{})
	hi := m.Apply(vector.Pt{X: float32(sb.Dx()), Y: float32(sb.Dy())})
	target := image.Rect(
		int(math.Floor(float64(lo.X))), int(math.Floor(float64(lo.Y))),
		int(math.Ceil(float64(hi.X))), int(math.Ceil(float64(hi.Y))),
	)
	xdraw.CatmullRom.Scale(dst, target, src, sb, xdraw.Src, nil)
	return dst
}
