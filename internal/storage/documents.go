/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"sketchpad/internal/domain"

	"github.com/xeipuuv/gojsonschema"
)

const (
	// DocumentExt is the file suffix of drawing documents.
	DocumentExt    = ".sketch.json"
	BackupsDirName = "backups"
)

// ErrInvalidDocument is returned when a document does not match the schema.
var ErrInvalidDocument = errors.New("invalid drawing document")

//go:embed schema/sketch.schema.json
var documentSchema []byte

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(documentSchema))
	})
	return schema, schemaErr
}

// ValidateDocument checks raw JSON against the embedded document schema.
func ValidateDocument(data []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile document schema: %w", err)
	}
	result, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(msgs, "; "))
	}
	return nil
}

// SaveDocument writes doc to path with transactional semantics and keeps a
// timestamped backup of the previous version in <dir>/.sketchpad/backups.
func SaveDocument(path string, doc domain.Document) error {
	if strings.TrimSpace(path) == "" {
		return ErrNoPath
	}
	if doc.Version == 0 {
		doc.Version = domain.DocumentVersion
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	data = append(data, '\n')

	if _, statErr := os.Stat(path); statErr == nil {
		bpath := filepath.Join(backupsDir(path), fmt.Sprintf("%s.%s.bak", filepath.Base(path), time.Now().Format("20060102-150405")))
		if cerr := copyFile(path, bpath); cerr != nil {
			return fmt.Errorf("backup current document: %w", cerr)
		}
	}
	return writeAtomic(path, data)
}

// LoadDocument reads and validates a document. If the file is missing or not
// valid JSON, the latest backup is tried instead. A file that parses but fails
// the schema is reported as ErrInvalidDocument.
func LoadDocument(path string) (domain.Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		doc, berr := loadLatestBackup(path)
		if berr != nil {
			return domain.Document{}, fmt.Errorf("open document: %w; backup attempt: %v", err, berr)
		}
		return doc, nil
	}
	if !json.Valid(b) {
		doc, berr := loadLatestBackup(path)
		if berr != nil {
			return domain.Document{}, fmt.Errorf("%w: malformed JSON; backup attempt: %v", ErrInvalidDocument, berr)
		}
		return doc, nil
	}
	return decodeDocument(b)
}

func decodeDocument(b []byte) (domain.Document, error) {
	if err := ValidateDocument(b); err != nil {
		return domain.Document{}, err
	}
	var doc domain.Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return domain.Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return doc, nil
}

func backupsDir(docPath string) string {
	return filepath.Join(filepath.Dir(docPath), CatalogDirName, BackupsDirName)
}

// loadLatestBackup tries to open the latest timestamped backup of docPath.
func loadLatestBackup(docPath string) (domain.Document, error) {
	bdir := backupsDir(docPath)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return domain.Document{}, fmt.Errorf("read backups dir: %w", err)
	}
	prefix := filepath.Base(docPath) + "."
	var candidates []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".bak") {
			candidates = append(candidates, filepath.Join(bdir, name))
		}
	}
	if len(candidates) == 0 {
		return domain.Document{}, errors.New("no backups found")
	}
	sort.Strings(candidates) // timestamp in name yields lexicographic order
	b, err := os.ReadFile(candidates[len(candidates)-1])
	if err != nil {
		return domain.Document{}, fmt.Errorf("read latest backup: %w", err)
	}
	return decodeDocument(b)
}

// CrashDir returns the directory that receives crash reports and autosaves
// for pictures saved under dir.
func CrashDir(dir string) string {
	return filepath.Join(dir, CatalogDirName, BackupsDirName)
}

// AutosaveCrashSnapshot writes doc next to the backups of dir without
// touching any user document, returning the autosave path.
func AutosaveCrashSnapshot(dir string, doc domain.Document) (string, error) {
	bdir := CrashDir(dir)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return "", fmt.Errorf("create backups dir: %w", err)
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode autosave: %w", err)
	}
	path := filepath.Join(bdir, "autosave-"+time.Now().Format("20060102-150405")+DocumentExt)
	if err := writeAtomic(path, b); err != nil {
		return "", err
	}
	return path, nil
}
