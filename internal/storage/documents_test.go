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
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sketchpad/internal/domain"
)

func sampleDoc() domain.Document {
	return domain.Document{
		Version: domain.DocumentVersion,
		Canvas:  domain.Canvas{Width: 100, Height: 80, Background: "#FFFFFF"},
		Strokes: []domain.Stroke{
			{ID: "a", Color: "#FF0000", Thickness: 10, Points: [][2]float32{{1, 1}, {50, 50}}},
		},
	}
}

func TestSaveLoadDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pic"+DocumentExt)
	if err := SaveDocument(path, sampleDoc()); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}
	got, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if got.Canvas.Width != 100 || len(got.Strokes) != 1 || got.Strokes[0].Points[1] != [2]float32{50, 50} {
		t.Fatalf("loaded = %+v", got)
	}
}

func TestSaveDocumentKeepsBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pic"+DocumentExt)
	if err := SaveDocument(path, sampleDoc()); err != nil {
		t.Fatal(err)
	}
	doc := sampleDoc()
	doc.Strokes = append(doc.Strokes, domain.Stroke{ID: "b", Color: "blue", Thickness: 2, Points: [][2]float32{{0, 0}}})
	if err := SaveDocument(path, doc); err != nil {
		t.Fatal(err)
	}
	ents, err := os.ReadDir(backupsDir(path))
	if err != nil || len(ents) == 0 {
		t.Fatalf("expected a backup, got %v (%v)", ents, err)
	}

	// corrupt the current file: load falls back to the backup (one stroke)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument with backup: %v", err)
	}
	if len(got.Strokes) != 1 {
		t.Fatalf("backup strokes = %d", len(got.Strokes))
	}
}

func TestLoadDocumentRejectsSchemaViolations(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"zero-thickness": `{"version":1,"canvas":{"width":10,"height":10},"strokes":[{"color":"#000000","thickness":0,"points":[]}]}`,
		"bad-color":      `{"version":1,"canvas":{"width":10,"height":10},"strokes":[{"color":"#12","thickness":1,"points":[]}]}`,
		"no-canvas":      `{"version":1,"strokes":[]}`,
		"point-arity":    `{"version":1,"canvas":{"width":10,"height":10},"strokes":[{"color":"red","thickness":1,"points":[[1,2,3]]}]}`,
	}
	for name, body := range cases {
		path := filepath.Join(dir, name+DocumentExt)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadDocument(path); !errors.Is(err, ErrInvalidDocument) {
			t.Errorf("%s: err = %v, want ErrInvalidDocument", name, err)
		}
	}
}

func TestLoadDocumentMissing(t *testing.T) {
	if _, err := LoadDocument(filepath.Join(t.TempDir(), "nope"+DocumentExt)); err == nil {
		t.Fatalf("expected error for missing document")
	}
	if err := SaveDocument(" ", sampleDoc()); !errors.Is(err, ErrNoPath) {
		t.Fatalf("blank path err = %v", err)
	}
}

func TestAutosaveCrashSnapshot(t *testing.T) {
	dir := t.TempDir()
	doc := domain.Document{
		Version: domain.DocumentVersion,
		Canvas:  domain.Canvas{Width: 10, Height: 10, Background: "#FFFFFF"},
		Strokes: []domain.Stroke{{ID: "a", Color: "#FF0000", Thickness: 2, Points: [][2]float32{{1, 1}, {5, 5}}}},
	}
	path, err := AutosaveCrashSnapshot(dir, doc)
	if err != nil {
		t.Fatalf("AutosaveCrashSnapshot: %v", err)
	}
	if filepath.Dir(path) != CrashDir(dir) || !strings.HasSuffix(path, DocumentExt) {
		t.Fatalf("unexpected autosave path %s", path)
	}
	got, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument(autosave): %v", err)
	}
	if got.StrokeCount() != 1 || got.Strokes[0].Color != "#FF0000" {
		t.Fatalf("autosave lost strokes: %+v", got)
	}
}
