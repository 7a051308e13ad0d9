/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package drawing

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// ErrUnknownColor is returned by ParseColor for strings it cannot interpret.
var ErrUnknownColor = errors.New("unknown color")

// Color is a non-premultiplied RGBA value. It satisfies image/color.Color so it
// can be handed straight to rasterizers.
type Color struct{ R, G, B, A uint8 }

var (
	Black       = Color{0, 0, 0, 255}
	White       = Color{255, 255, 255, 255}
	Transparent = Color{}
)

// RGBA implements color.Color (alpha-premultiplied, 16 bits per channel).
func (c Color) RGBA() (r, g, b, a uint32) { return c.NRGBA().RGBA() }

func (c Color) NRGBA() color.NRGBA { return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A} }

// Opaque reports whether the color has full alpha.
func (c Color) Opaque() bool { return c.A == 0xff }

// Hex formats the color as #RRGGBB when opaque, #AARRGGBB otherwise.
func (c Color) Hex() string {
	if c.Opaque() {
		return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02X%02X%02X%02X", c.A, c.R, c.G, c.B)
}

func (c Color) String() string { return c.Hex() }

// named colors accepted by ParseColor; values match the Android platform table.
var named = map[string]Color{
	"black":     {0x00, 0x00, 0x00, 0xff},
	"darkgray":  {0x44, 0x44, 0x44, 0xff},
	"gray":      {0x88, 0x88, 0x88, 0xff},
	"lightgray": {0xcc, 0xcc, 0xcc, 0xff},
	"white":     {0xff, 0xff, 0xff, 0xff},
	"red":       {0xff, 0x00, 0x00, 0xff},
	"green":     {0x00, 0xff, 0x00, 0xff},
	"blue":      {0x00, 0x00, 0xff, 0xff},
	"yellow":    {0xff, 0xff, 0x00, 0xff},
	"cyan":      {0x00, 0xff, 0xff, 0xff},
	"magenta":   {0xff, 0x00, 0xff, 0xff},
	"aqua":      {0x00, 0xff, 0xff, 0xff},
	"fuchsia":   {0xff, 0x00, 0xff, 0xff},
	"darkgrey":  {0x44, 0x44, 0x44, 0xff},
	"grey":      {0x88, 0x88, 0x88, 0xff},
	"lightgrey": {0xcc, 0xcc, 0xcc, 0xff},
	"lime":      {0x00, 0xff, 0x00, 0xff},
	"maroon":    {0x80, 0x00, 0x00, 0xff},
	"navy":      {0x00, 0x00, 0x80, 0xff},
	"olive":     {0x80, 0x80, 0x00, 0xff},
	"purple":    {0x80, 0x00, 0x80, 0xff},
	"silver":    {0xc0, 0xc0, 0xc0, 0xff},
	"teal":      {0x00, 0x80, 0x80, 0xff},
}

// ParseColor accepts "#RRGGBB", "#AARRGGBB" or a color name (case-insensitive).
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		hex := s[1:]
		if len(hex) != 6 && len(hex) != 8 {
			return Color{}, fmt.Errorf("%w: %q", ErrUnknownColor, s)
		}
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return Color{}, fmt.Errorf("%w: %q", ErrUnknownColor, s)
		}
		if len(hex) == 6 {
			v |= 0xff000000
		}
		return Color{A: uint8(v >> 24), R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
	}
	if c, ok := named[strings.ToLower(s)]; ok {
		return c, nil
	}
	return Color{}, fmt.Errorf("%w: %q", ErrUnknownColor, s)
}

// ParsePalette parses every entry of hexes, failing on the first bad one.
func ParsePalette(hexes []string) ([]Color, error) {
	out := make([]Color, 0, len(hexes))
	for i, h := range hexes {
		c, err := ParseColor(h)
		if err != nil {
			return nil, fmt.Errorf("palette[%d]: %w", i, err)
		}
		out = append(out, c)
	}
	return out, nil
}
