/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	return img
}

func TestImageStoreSaveNamesAndRecords(t *testing.T) {
	dir := t.TempDir()
	cat, err := OpenCatalog(dir)
	if err != nil {
		t.Fatalf("OpenCatalog: %v", err)
	}
	defer cat.Close()

	s := NewImageStore(dir, "DrawingApp_", cat)
	fixed := time.Unix(1700000000, 0)
	s.now = func() time.Time { return fixed }

	path, err := s.SaveDrawing(context.Background(), testImage(), 3)
	if err != nil {
		t.Fatalf("SaveDrawing: %v", err)
	}
	if filepath.Base(path) != "DrawingApp_1700000000.png" {
		t.Fatalf("path = %s", path)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open saved: %v", err)
	}
	defer f.Close()
	got, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode saved: %v", err)
	}
	if got.Bounds().Dx() != 8 {
		t.Fatalf("saved bounds = %v", got.Bounds())
	}

	// same second: must not overwrite
	path2, err := s.Save(context.Background(), testImage())
	if err != nil {
		t.Fatalf("second Save: %v", err)
	}
	if path2 == path || !strings.HasSuffix(path2, "_1.png") {
		t.Fatalf("second path = %s", path2)
	}

	entries, err := cat.List(context.Background(), 0)
	if err != nil || len(entries) != 2 {
		t.Fatalf("catalog entries = %+v, %v", entries, err)
	}
	var found bool
	for _, e := range entries {
		if e.Path == path && e.Strokes == 3 && e.MimeType == MimePNG && e.Width == 8 && e.Height == 4 {
			found = true
		}
	}
	if !found {
		t.Fatalf("first save not recorded: %+v", entries)
	}

	// no temp files left behind
	ents, _ := os.ReadDir(dir)
	for _, e := range ents {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestImageStoreFailures(t *testing.T) {
	s := NewImageStore("", "x", nil)
	if _, err := s.Save(context.Background(), testImage()); !errors.Is(err, ErrNoPath) {
		t.Fatalf("blank dir err = %v", err)
	}
	s = NewImageStore(t.TempDir(), "x", nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Save(ctx, testImage()); !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled ctx err = %v", err)
	}
	if _, err := s.Save(context.Background(), nil); err == nil {
		t.Fatalf("nil image should fail")
	}
	// output dir blocked by a regular file
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	s = NewImageStore(filepath.Join(blocker, "sub"), "x", nil)
	if _, err := s.Save(context.Background(), testImage()); err == nil {
		t.Fatalf("expected mkdir failure")
	}
}
