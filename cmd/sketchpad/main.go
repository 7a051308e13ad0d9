/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"sketchpad/internal/bundle"
	"sketchpad/internal/config"
	"sketchpad/internal/crash"
	"sketchpad/internal/domain"
	applog "sketchpad/internal/log"
	"sketchpad/internal/session"
	"sketchpad/internal/telemetry"
	"sketchpad/internal/ui"
	"sketchpad/internal/version"
)

func usage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Sketchpad: freehand drawing")
	_, _ = fmt.Fprintf(w, "Version: %s\n", version.String())
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Usage:")
	_, _ = fmt.Fprintln(w, "  sketchpad version|-v|--version              Show version")
	_, _ = fmt.Fprintln(w, "  sketchpad render <doc.sketch.json> <out.png>   Render a drawing document to PNG")
	_, _ = fmt.Fprintln(w, "  sketchpad export-svg <doc> <out.svg>          Export a drawing document as SVG")
	_, _ = fmt.Fprintln(w, "  sketchpad export-pdf <doc> <out.pdf>          Export a drawing document as PDF")
	_, _ = fmt.Fprintln(w, "  sketchpad bundle <doc> <out.zip>              Pack a drawing with its background and a preview")
	_, _ = fmt.Fprintln(w, "  sketchpad unbundle <in.zip> <dir>             Unpack a drawing bundle into a folder")
	_, _ = fmt.Fprintln(w, "  sketchpad replay <events.jsonl> [outDir]      Replay pointer events and save the picture")
	_, _ = fmt.Fprintln(w, "  sketchpad gallery [dir]                       List saved pictures")
	_, _ = fmt.Fprintln(w, "  sketchpad share-token set <token>|clear        Manage the share token in the OS keyring")
	_, _ = fmt.Fprintln(w, "  sketchpad ui [<doc.sketch.json>]              Launch desktop UI (build with -tags fyne)")
}

// sessionRef lets crash.Recover reach whichever session a command opened.
type sessionRef struct{ s *session.Session }

func (r *sessionRef) Document() domain.Document {
	if r.s == nil {
		return domain.Document{}
	}
	return r.s.Document()
}

func (r *sessionRef) OutputDir() string {
	if r.s == nil {
		return ""
	}
	return r.s.OutputDir()
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, _, err := config.Load()
	applog.Init(config.LogOptions(cfg))
	l := applog.WithComponent("cli")
	telemetry.NewDefault(config.TelemetryOptions(cfg))
	defer telemetry.Flush(context.Background())
	if err != nil {
		l.Warn("config load failed, using defaults", slog.Any("err", err))
	}

	ref := &sessionRef{}
	defer crash.Recover(ref)

	l.Debug("start", slog.Int("args", len(args)))
	if len(args) == 0 {
		usage(stdout)
		return 0
	}
	need := func(n int, what string) bool {
		if len(args) < n+1 {
			_, _ = fmt.Fprintf(stderr, "%s requires %s\n", args[0], what)
			usage(stderr)
			return false
		}
		return true
	}
	fail := func(err error) int {
		l.Error("command failed", slog.String("cmd", args[0]), slog.Any("err", err))
		_, _ = fmt.Fprintln(stderr, "Error:", err)
		return 1
	}

	switch args[0] {
	case "version", "--version", "-v":
		_, _ = fmt.Fprintln(stdout, "Sketchpad")
		_, _ = fmt.Fprintln(stdout, version.String())
		return 0
	case "render":
		if !need(2, "<doc> and <out.png>") {
			return 2
		}
		if err := renderPNG(cfg, ref, args[1], args[2]); err != nil {
			return fail(err)
		}
		_, _ = fmt.Fprintln(stdout, "Rendered", args[2])
		return 0
	case "export-svg":
		if !need(2, "<doc> and <out.svg>") {
			return 2
		}
		if err := exportSVG(args[1], args[2]); err != nil {
			return fail(err)
		}
		_, _ = fmt.Fprintln(stdout, "Exported", args[2])
		return 0
	case "export-pdf":
		if !need(2, "<doc> and <out.pdf>") {
			return 2
		}
		if err := exportPDF(args[1], args[2]); err != nil {
			return fail(err)
		}
		_, _ = fmt.Fprintln(stdout, "Exported", args[2])
		return 0
	case "bundle":
		if !need(2, "<doc> and <out.zip>") {
			return 2
		}
		if err := bundleDocument(cfg, ref, args[1], args[2]); err != nil {
			return fail(err)
		}
		_, _ = fmt.Fprintln(stdout, "Bundled", args[2])
		return 0
	case "unbundle":
		if !need(2, "<in.zip> and <dir>") {
			return 2
		}
		docPath, err := bundle.Install(args[1], args[2])
		if err != nil {
			return fail(err)
		}
		_, _ = fmt.Fprintln(stdout, "Installed", docPath)
		return 0
	case "replay":
		if !need(1, "<events.jsonl>") {
			return 2
		}
		if len(args) > 2 {
			cfg.Storage.OutputDir = args[2]
		}
		res, err := replay(cfg, ref, args[1])
		if err != nil {
			return fail(err)
		}
		_, _ = fmt.Fprintln(stdout, res.Message)
		if !res.OK() {
			return 1
		}
		return 0
	case "gallery":
		if len(args) > 1 {
			cfg.Storage.OutputDir = args[1]
		}
		if err := listGallery(cfg, stdout); err != nil {
			return fail(err)
		}
		return 0
	case "share-token":
		if !need(1, "set <token> or clear") {
			return 2
		}
		if err := shareToken(args[1:]); err != nil {
			return fail(err)
		}
		_, _ = fmt.Fprintln(stdout, "Share token updated.")
		return 0
	case "ui":
		var doc string
		if len(args) > 1 {
			doc = args[1]
		}
		if err := ui.Run(doc); err != nil {
			return fail(err)
		}
		return 0
	}

	usage(stderr)
	return 2
}
