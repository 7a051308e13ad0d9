/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package bundle packs a drawing document together with its background
// picture and a rendered preview into one .zip, so a drawing can move
// between machines without its absolute picture path breaking.
package bundle

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"sketchpad/internal/domain"
	"sketchpad/internal/export"
	applog "sketchpad/internal/log"
	"sketchpad/internal/storage"
)

// Entry names inside a bundle.
const (
	ManifestName = "bundle.manifest.txt"
	DocumentName = "drawing" + storage.DocumentExt
	PreviewName  = "preview.png"
	bgBaseName   = "background"
)

// Export writes doc, its background picture (if the file exists) and preview
// (if non-nil) to destZip. The document inside the bundle refers to the
// picture by its name in the archive.
func Export(doc domain.Document, preview image.Image, destZip string) error {
	l := applog.WithOperation(applog.WithComponent("bundle"), "export").With(slog.String("zip", destZip))
	if strings.TrimSpace(destZip) == "" {
		return errors.New("destZip is required")
	}
	if err := os.MkdirAll(filepath.Dir(destZip), 0o755); err != nil {
		return fmt.Errorf("ensure zip dir: %w", err)
	}
	// On Windows, remove destination if present before create
	_ = os.Remove(destZip)

	zf, err := os.Create(destZip)
	if err != nil {
		return fmt.Errorf("create zip: %w", err)
	}
	defer func() { _ = zf.Close() }()
	zw := zip.NewWriter(zf)

	manifest := fmt.Sprintf("Sketchpad Drawing Bundle\nCreated: %s\nCanvas: %dx%d\nStrokes: %d\n",
		time.Now().Format(time.RFC3339), doc.Canvas.Width, doc.Canvas.Height, doc.StrokeCount())
	if err := addBytes(zw, ManifestName, []byte(manifest)); err != nil {
		return err
	}

	if doc.Background != "" {
		name := bgBaseName + strings.ToLower(filepath.Ext(doc.Background))
		if err := addFile(zw, name, doc.Background); err != nil {
			l.Warn("background picture not bundled", slog.String("path", doc.Background), slog.Any("err", err))
			doc.Background = ""
		} else {
			doc.Background = name
		}
	}

	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := addBytes(zw, DocumentName, b); err != nil {
		return err
	}

	if preview != nil {
		var buf bytes.Buffer
		if err := export.WritePNG(&buf, preview); err != nil {
			return err
		}
		if err := addBytes(zw, PreviewName, buf.Bytes()); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish zip: %w", err)
	}
	l.Info("bundle exported", slog.Int("strokes", doc.StrokeCount()))
	return zf.Close()
}

func addBytes(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("add %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func addFile(zw *zip.Writer, name, src string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}

// Install extracts bundle into destDir and returns the path of the installed
// document. Existing files are kept; the bundled copy is skipped. Entries that
// would land outside destDir are rejected.
func Install(bundlePath, destDir string) (string, error) {
	l := applog.WithOperation(applog.WithComponent("bundle"), "install").With(slog.String("dir", destDir))
	if strings.TrimSpace(destDir) == "" {
		return "", errors.New("destDir is required")
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("ensure dest dir: %w", err)
	}
	r, err := zip.OpenReader(bundlePath)
	if err != nil {
		return "", fmt.Errorf("open bundle: %w", err)
	}
	defer func() { _ = r.Close() }()

	var docData []byte
	installed := 0
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name, target, err := entryTarget(destDir, f.Name)
		if err != nil {
			return "", err
		}
		if name == ManifestName {
			continue
		}
		if name == DocumentName {
			if docData, err = readEntry(f); err != nil {
				return "", err
			}
			continue
		}
		if _, err := os.Stat(target); err == nil {
			l.Warn("skip existing file", slog.String("path", target))
			continue
		}
		if err := extract(f, target); err != nil {
			return "", err
		}
		installed++
	}
	if docData == nil {
		return "", fmt.Errorf("%w: bundle has no %s", storage.ErrInvalidDocument, DocumentName)
	}
	if err := storage.ValidateDocument(docData); err != nil {
		return "", err
	}
	var doc domain.Document
	if err := json.Unmarshal(docData, &doc); err != nil {
		return "", fmt.Errorf("%w: %v", storage.ErrInvalidDocument, err)
	}
	if doc.Background != "" && !filepath.IsAbs(doc.Background) {
		if _, target, err := entryTarget(destDir, doc.Background); err == nil {
			doc.Background = target
		} else {
			l.Warn("background outside bundle dropped", slog.String("background", doc.Background))
			doc.Background = ""
		}
	}
	docPath := filepath.Join(destDir, DocumentName)
	if err := storage.SaveDocument(docPath, doc); err != nil {
		return "", err
	}
	l.Info("bundle installed", slog.Int("files", installed+1), slog.String("doc", docPath))
	return docPath, nil
}

// entryTarget normalizes an archive entry name (either separator) and returns
// it with its path under destDir. Names that resolve outside destDir fail.
func entryTarget(destDir, entry string) (string, string, error) {
	name := path.Clean(strings.ReplaceAll(entry, `\`, "/"))
	if path.IsAbs(name) || name == ".." || strings.HasPrefix(name, "../") || filepath.VolumeName(name) != "" {
		return "", "", fmt.Errorf("bundle entry %q escapes destination", entry)
	}
	target := filepath.Join(destDir, filepath.FromSlash(name))
	rel, err := filepath.Rel(destDir, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", "", fmt.Errorf("bundle entry %q escapes destination", entry)
	}
	return name, target, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(io.LimitReader(rc, 64<<20))
}

func extract(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
