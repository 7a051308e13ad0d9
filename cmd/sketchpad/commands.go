/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"sketchpad/internal/bundle"
	"sketchpad/internal/config"
	"sketchpad/internal/domain"
	"sketchpad/internal/drawing"
	"sketchpad/internal/export"
	"sketchpad/internal/session"
	"sketchpad/internal/storage"
	"sketchpad/internal/vector"
)

// openDocument loads docPath into a fresh session sized from cfg.
func openDocument(cfg config.AppConfig, ref *sessionRef, docPath string) (*session.Session, domain.Document, error) {
	doc, err := storage.LoadDocument(docPath)
	if err != nil {
		return nil, doc, err
	}
	opts, err := session.OptionsFromConfig(cfg)
	if err != nil {
		return nil, doc, err
	}
	sess := session.New(opts)
	ref.s = sess
	if err := sess.LoadDocument(doc); err != nil {
		return nil, doc, err
	}
	return sess, doc, nil
}

func renderPNG(cfg config.AppConfig, ref *sessionRef, docPath, out string) error {
	sess, _, err := openDocument(cfg, ref, docPath)
	if err != nil {
		return err
	}
	return export.WritePNGFile(out, sess.Snapshot())
}

func bundleDocument(cfg config.AppConfig, ref *sessionRef, docPath, out string) error {
	sess, doc, err := openDocument(cfg, ref, docPath)
	if err != nil {
		return err
	}
	return bundle.Export(doc, sess.Snapshot(), out)
}

func exportSVG(docPath, out string) error {
	doc, err := storage.LoadDocument(docPath)
	if err != nil {
		return err
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := export.WriteSVG(f, doc); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func exportPDF(docPath, out string) error {
	doc, err := storage.LoadDocument(docPath)
	if err != nil {
		return err
	}
	return export.WritePDF(out, doc)
}

// replayLine is one line of an events file. Pointer actions carry x/y; the
// other actions change the tool or undo.
//
//	{"action":"color","color":"red"}
//	{"action":"size","size":"large"}
//	{"action":"down","x":10,"y":10}
//	{"action":"move","x":50,"y":40}
//	{"action":"up"}
//	{"action":"undo"}
type replayLine struct {
	Action string  `json:"action"`
	X      float32 `json:"x"`
	Y      float32 `json:"y"`
	Color  string  `json:"color,omitempty"`
	Size   string  `json:"size,omitempty"`
}

func replay(cfg config.AppConfig, ref *sessionRef, eventsPath string) (session.Result, error) {
	f, err := os.Open(eventsPath)
	if err != nil {
		return session.Result{}, err
	}
	defer f.Close()

	ctx := context.Background()
	sess, closeCatalog, err := session.Wire(ctx, cfg)
	if err != nil {
		return session.Result{}, err
	}
	defer func() { _ = closeCatalog() }()
	ref.s = sess

	if err := applyEvents(sess, f); err != nil {
		return session.Result{}, fmt.Errorf("%s: %w", eventsPath, err)
	}

	done := make(chan session.Result, 1)
	sess.Save(ctx, func(r session.Result) { done <- r })
	var res session.Result
	select {
	case res = <-done:
	case <-time.After(time.Minute):
		return session.Result{}, errors.New("save timed out")
	}
	if res.OK() {
		sess.WaitShares(cfg.Share.Timeout() + time.Second)
	}
	return res, nil
}

func applyEvents(sess *session.Session, r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var ev replayLine
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
		switch ev.Action {
		case "undo":
			sess.Undo()
		case "color":
			if err := sess.SetColor(ev.Color); err != nil {
				return fmt.Errorf("line %d: %w", n, err)
			}
		case "size":
			b, err := drawing.ParseBrushSize(ev.Size)
			if err != nil {
				return fmt.Errorf("line %d: %w", n, err)
			}
			sess.SetBrushSize(b)
		default:
			var a drawing.Action
			if err := a.UnmarshalText([]byte(ev.Action)); err != nil {
				return fmt.Errorf("line %d: %w", n, err)
			}
			sess.Pointer(drawing.Event{Action: a, Point: vector.Pt{X: ev.X, Y: ev.Y}})
		}
	}
	return sc.Err()
}

func listGallery(cfg config.AppConfig, w io.Writer) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	cat, err := session.OpenCatalog(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = cat.Close() }()
	entries, err := cat.List(ctx, 0)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(w, "No saved pictures.")
		return nil
	}
	for _, e := range entries {
		_, _ = fmt.Fprintf(w, "%s\t%dx%d\t%d strokes\t%s\t%s\n",
			e.DateAdded.Format("2006-01-02 15:04:05"), e.Width, e.Height, e.Strokes, e.DisplayName, e.Path)
	}
	return nil
}

func shareToken(args []string) error {
	switch args[0] {
	case "set":
		if len(args) < 2 || strings.TrimSpace(args[1]) == "" {
			return errors.New("share-token set requires <token>")
		}
		return config.SetShareToken(strings.TrimSpace(args[1]))
	case "clear":
		return config.ClearShareToken()
	default:
		return fmt.Errorf("unknown share-token action %q", args[0])
	}
}
