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
	"strings"
)

// ErrBadThickness is returned when a tool would paint with a non-positive width.
var ErrBadThickness = errors.New("brush thickness must be positive")

// ToolState is the brush a stroke is begun with. It is a value: changing the
// current tool never reaches strokes that were already begun.
type ToolState struct {
	Color     Color
	Thickness float32 // pixels
}

// NewToolState validates thickness and returns the tool.
func NewToolState(c Color, thickness float32) (ToolState, error) {
	if !(thickness > 0) {
		return ToolState{}, fmt.Errorf("%w: %v", ErrBadThickness, thickness)
	}
	return ToolState{Color: c, Thickness: thickness}, nil
}

func (t ToolState) WithColor(c Color) ToolState { t.Color = c; return t }

func (t ToolState) WithThickness(px float32) ToolState { t.Thickness = px; return t }

// BrushSize is one of the preset brush widths offered by the size picker, in dp.
type BrushSize int

const (
	Small  BrushSize = 10
	Medium BrushSize = 20
	Large  BrushSize = 30
)

// BrushSizes lists the presets in picker order.
var BrushSizes = []BrushSize{Small, Medium, Large}

func (b BrushSize) Dp() float32 { return float32(b) }

// ToPixels converts the size to pixels for a display with the given density
// (pixels per dp). Non-positive densities are treated as 1.
func (b BrushSize) ToPixels(density float64) float32 {
	if density <= 0 {
		density = 1
	}
	return float32(float64(b) * density)
}

func (b BrushSize) String() string {
	switch b {
	case Small:
		return "small"
	case Medium:
		return "medium"
	case Large:
		return "large"
	default:
		return fmt.Sprintf("%ddp", int(b))
	}
}

// ParseBrushSize accepts the preset names.
func ParseBrushSize(s string) (BrushSize, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "small", "s":
		return Small, nil
	case "medium", "m":
		return Medium, nil
	case "large", "l":
		return Large, nil
	}
	return 0, fmt.Errorf("unknown brush size %q", s)
}
