/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package crash

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sketchpad/internal/domain"
	"sketchpad/internal/storage"
)

type fakeSession struct {
	dir string
	doc domain.Document
}

func (f fakeSession) Document() domain.Document { return f.doc }
func (f fakeSession) OutputDir() string         { return f.dir }

type brokenSession struct{ dir string }

func (b brokenSession) Document() domain.Document { panic("session gone") }
func (b brokenSession) OutputDir() string         { return b.dir }

// silenceStderr swallows the user-facing crash notice.
func silenceStderr(t *testing.T) {
	t.Helper()
	old := os.Stderr
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stderr = w
	done := make(chan struct{})
	go func() { _, _ = io.Copy(io.Discard, r); close(done) }()
	t.Cleanup(func() {
		_ = w.Close()
		<-done
		os.Stderr = old
	})
}

func stubExit(t *testing.T) *int {
	t.Helper()
	code := -1
	old := exitFn
	exitFn = func(c int) { code = c }
	t.Cleanup(func() { exitFn = old })
	return &code
}

func findFile(t *testing.T, dir, prefix, suffix string) string {
	t.Helper()
	ents, _ := os.ReadDir(dir)
	for _, e := range ents {
		if strings.HasPrefix(e.Name(), prefix) && strings.HasSuffix(e.Name(), suffix) {
			return filepath.Join(dir, e.Name())
		}
	}
	return ""
}

func TestWriteReportWithoutDirUsesTemp(t *testing.T) {
	path, err := writeReport("", "boom", []byte("stacktrace"))
	if err != nil {
		t.Fatalf("writeReport error: %v", err)
	}
	t.Cleanup(func() { _ = os.Remove(path) })
	if filepath.Dir(path) != filepath.Clean(os.TempDir()) {
		t.Fatalf("expected report in temp dir, got %s", path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, "Sketchpad Crash Report") || !strings.Contains(s, "Panic: boom") {
		t.Fatalf("unexpected report: %s", s)
	}
}

func TestRecoverWritesReportAndAutosave(t *testing.T) {
	silenceStderr(t)
	code := stubExit(t)
	dir := t.TempDir()
	sess := fakeSession{dir: dir, doc: domain.Document{
		Version: domain.DocumentVersion,
		Canvas:  domain.Canvas{Width: 20, Height: 20, Background: "#FFFFFF"},
		Strokes: []domain.Stroke{{ID: "s1", Color: "#0000FF", Thickness: 20, Points: [][2]float32{{2, 2}, {18, 18}}}},
	}}

	func() {
		defer Recover(sess)
		panic("boom")
	}()

	if *code != 2 {
		t.Fatalf("expected exit code 2, got %d", *code)
	}
	cdir := storage.CrashDir(dir)
	report := findFile(t, cdir, "crash-", ".log")
	if report == "" {
		t.Fatalf("no crash report under %s", cdir)
	}
	b, _ := os.ReadFile(report)
	if !strings.Contains(string(b), "Panic: boom") {
		t.Fatalf("report does not contain panic: %s", b)
	}
	auto := findFile(t, cdir, "autosave-", storage.DocumentExt)
	if auto == "" {
		t.Fatalf("no autosave under %s", cdir)
	}
	doc, err := storage.LoadDocument(auto)
	if err != nil || doc.StrokeCount() != 1 {
		t.Fatalf("autosave unreadable: %+v %v", doc, err)
	}
}

func TestRecoverSurvivesBrokenSnapshot(t *testing.T) {
	silenceStderr(t)
	code := stubExit(t)
	dir := t.TempDir()

	func() {
		defer Recover(brokenSession{dir: dir})
		panic("first")
	}()

	if *code != 2 {
		t.Fatalf("expected exit code 2, got %d", *code)
	}
	if findFile(t, storage.CrashDir(dir), "crash-", ".log") == "" {
		t.Fatalf("crash report missing")
	}
}

func TestRecoverWithoutPanicIsNoop(t *testing.T) {
	code := stubExit(t)
	func() {
		defer Recover(nil)
	}()
	if *code != -1 {
		t.Fatalf("exit called without panic: %d", *code)
	}
}
