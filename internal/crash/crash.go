/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic into a report file and an autosave of the
// drawing in progress.
package crash

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	"sketchpad/internal/domain"
	applog "sketchpad/internal/log"
	"sketchpad/internal/storage"
	"sketchpad/internal/telemetry"
	"sketchpad/internal/version"
)

// exitFn is swapped out by tests.
var exitFn = os.Exit

// Snapshotter provides the drawing to rescue and the directory pictures are
// saved to. A session controller satisfies it.
type Snapshotter interface {
	Document() domain.Document
	OutputDir() string
}

// Recover captures a panic, logs it with the stack, writes a crash report and
// autosaves the current drawing (if s is non-nil), then exits with code 2.
//
// Usage: defer crash.Recover(sess)
func Recover(s Snapshotter) {
	r := recover()
	if r == nil {
		return
	}
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	dir := ""
	if s != nil {
		dir = s.OutputDir()
	}
	reportPath, err := writeReport(dir, r, stack)
	if err != nil {
		l.Error("write crash report failed", slog.Any("err", err))
	}
	if s != nil && dir != "" {
		doc := snapshot(s, l)
		if path, err := storage.AutosaveCrashSnapshot(dir, doc); err != nil {
			l.Error("autosave crash snapshot failed", slog.Any("err", err))
		} else {
			l.Info("autosave crash snapshot written", slog.String("path", path), slog.Int("strokes", doc.StrokeCount()))
		}
	}

	if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
		l.Error("failed to write crash message to stderr", slog.Any("err", err))
	}
	if _, err := fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH); err != nil {
		l.Error("failed to write version info to stderr", slog.Any("err", err))
	}
	exitFn(2)
}

// snapshot reads the document, tolerating a second panic from a broken session.
func snapshot(s Snapshotter, l *slog.Logger) (doc domain.Document) {
	defer func() {
		if r := recover(); r != nil {
			l.Error("snapshot panicked", slog.Any("panic", r))
			doc = domain.Document{}
		}
	}()
	return s.Document()
}

func writeReport(dir string, panicVal any, stack []byte) (string, error) {
	rdir := os.TempDir()
	if dir != "" {
		rdir = storage.CrashDir(dir)
		_ = os.MkdirAll(rdir, 0o755)
	}
	path := filepath.Join(rdir, fmt.Sprintf("crash-%s.log", time.Now().Format("20060102-150405")))

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "Sketchpad Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if dir != "" {
		_, _ = fmt.Fprintf(&buf, "OutputDir: %s\n", dir)
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return path, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			applog.WithComponent("crash").Error("failed to close crash report file", slog.Any("err", err), slog.String("path", path))
		}
	}()
	if _, err := f.Write(buf.Bytes()); err != nil {
		return path, err
	}
	_ = f.Sync()

	// opt-in via SKP_TELEMETRY_OPT_IN and SKP_CRASH_UPLOAD_URL
	telemetry.UploadCrash(buf.Bytes())
	return path, nil
}
