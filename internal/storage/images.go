/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sketchpad/internal/export"
	applog "sketchpad/internal/log"
)

// MimePNG is the media type of every picture the store writes.
const MimePNG = "image/png"

// ErrNoPath is returned when a save could not produce a file path.
var ErrNoPath = errors.New("save produced no path")

// Store persists a rendered picture and returns where it went.
type Store interface {
	Save(ctx context.Context, img image.Image) (string, error)
}

var _ Store = (*ImageStore)(nil)

// ImageStore saves rendered drawings into a directory and records them in a catalog.
type ImageStore struct {
	Dir     string
	Prefix  string
	Catalog Catalog // optional

	now func() time.Time
	log *slog.Logger
}

func NewImageStore(dir, prefix string, cat Catalog) *ImageStore {
	return &ImageStore{
		Dir:     dir,
		Prefix:  prefix,
		Catalog: cat,
		now:     time.Now,
		log:     applog.WithComponent("storage"),
	}
}

// Save writes img as PNG and returns the file path.
func (s *ImageStore) Save(ctx context.Context, img image.Image) (string, error) {
	return s.SaveDrawing(ctx, img, 0)
}

// SaveDrawing is Save with the stroke count recorded in the catalog.
// The file is named <prefix><unix-seconds>.png; a numeric suffix is added when
// a file with that name already exists.
func (s *ImageStore) SaveDrawing(ctx context.Context, img image.Image, strokes int) (string, error) {
	l := applog.WithOperation(s.log, "save_image")
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if img == nil {
		return "", errors.New("nil image")
	}
	if strings.TrimSpace(s.Dir) == "" {
		return "", ErrNoPath
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	var buf bytes.Buffer
	if err := export.WritePNG(&buf, img); err != nil {
		return "", err
	}

	now := s.now()
	name := s.uniqueName(now)
	path := filepath.Join(s.Dir, name)
	if err := writeAtomic(path, buf.Bytes()); err != nil {
		l.Error("write image failed", slog.String("path", path), slog.Any("err", err))
		return "", fmt.Errorf("write image: %w", err)
	}
	l.Info("image saved", slog.String("path", path), slog.Int("bytes", buf.Len()))

	if s.Catalog != nil {
		b := img.Bounds()
		_, err := s.Catalog.Record(ctx, Entry{
			DisplayName: name,
			Path:        path,
			MimeType:    MimePNG,
			Width:       b.Dx(),
			Height:      b.Dy(),
			Strokes:     strokes,
			DateAdded:   now,
			DateTaken:   now,
		})
		if err != nil {
			// the file is on disk; a missing catalog row only hides it from the gallery listing
			l.Warn("catalog record failed", slog.String("path", path), slog.Any("err", err))
		}
	}
	return path, nil
}

func (s *ImageStore) uniqueName(t time.Time) string {
	base := fmt.Sprintf("%s%d", s.Prefix, t.Unix())
	name := base + ".png"
	for i := 1; ; i++ {
		if _, err := os.Stat(filepath.Join(s.Dir, name)); errors.Is(err, os.ErrNotExist) {
			return name
		}
		name = fmt.Sprintf("%s_%d.png", base, i)
	}
}
