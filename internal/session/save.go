/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package session

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"runtime/debug"
	"time"

	applog "sketchpad/internal/log"
	"sketchpad/internal/storage"
	"sketchpad/internal/telemetry"
)

// Result is what a save reports back to the UI loop.
type Result struct {
	Path    string // empty on failure
	Message string // notice shown to the user
	Err     error
}

func (r Result) OK() bool { return r.Path != "" && r.Err == nil }

// strokeSaver is implemented by stores that catalog the stroke count.
type strokeSaver interface {
	SaveDrawing(ctx context.Context, img image.Image, strokes int) (string, error)
}

// Save renders the export bitmap on the calling goroutine and writes it on a
// worker. The result is posted back to the UI loop, where the user is
// notified, the file is shared on success and onDone (if non-nil) runs.
func (s *Session) Save(ctx context.Context, onDone func(Result)) {
	img := s.Snapshot()
	strokes := s.rec.Len()
	store := s.store
	l := applog.WithOperation(s.log, "save")

	go func() {
		res := saveWorker(ctx, store, img, strokes, l)
		b := img.Bounds()
		telemetry.DrawingSaved(b.Dx(), b.Dy(), strokes, res.OK())
		s.post(func() {
			s.say(res.Message)
			if res.OK() {
				s.sharer.Share(res.Path)
			}
			if onDone != nil {
				onDone(res)
			}
		})
	}()
}

// WaitShares blocks until shares started by Save have finished or timeout
// elapses, reporting whether they finished.
func (s *Session) WaitShares(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		s.sharer.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		s.log.Warn("pending shares still running", slog.Duration("timeout", timeout))
		return false
	}
}

// saveWorker never panics; an empty path and any error collapse into the
// generic failure message.
func saveWorker(ctx context.Context, store storage.Store, img image.Image, strokes int, l *slog.Logger) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			l.Error("save panicked", slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
			res = Result{Message: MsgSaveFailed, Err: fmt.Errorf("save panicked: %v", r)}
		}
	}()
	if store == nil {
		l.Error("no image store configured")
		return Result{Message: MsgSaveFailed, Err: storage.ErrNoPath}
	}
	var (
		path string
		err  error
	)
	if ss, ok := store.(strokeSaver); ok {
		path, err = ss.SaveDrawing(ctx, img, strokes)
	} else {
		path, err = store.Save(ctx, img)
	}
	if err == nil && path == "" {
		err = storage.ErrNoPath
	}
	if err != nil {
		l.Error("save failed", slog.Any("err", err))
		return Result{Message: MsgSaveFailed, Err: err}
	}
	l.Info("drawing saved", slog.String("path", path), slog.Int("strokes", strokes))
	return Result{Path: path, Message: MsgSaved + " " + path}
}
