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
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func TestCatalogRecordAndList(t *testing.T) {
	dir := t.TempDir()
	cat, err := OpenCatalog(dir)
	if err != nil {
		t.Fatalf("OpenCatalog: %v", err)
	}
	defer cat.Close()
	if cat.Path() != CatalogPath(dir) {
		t.Fatalf("Path = %s", cat.Path())
	}

	ctx := context.Background()
	base := time.Unix(1700000000, 0)
	for i := 0; i < 3; i++ {
		_, err := cat.Record(ctx, Entry{
			DisplayName: fmt.Sprintf("DrawingApp_%d.png", i),
			Path:        filepath.Join(dir, fmt.Sprintf("DrawingApp_%d.png", i)),
			MimeType:    MimePNG,
			Width:       10, Height: 20, Strokes: i,
			DateAdded: base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	all, err := cat.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 || all[0].DisplayName != "DrawingApp_2.png" || all[0].Strokes != 2 {
		t.Fatalf("newest-first listing wrong: %+v", all)
	}
	if !all[2].DateTaken.Equal(base) {
		t.Fatalf("date taken defaulted to %v, want %v", all[2].DateTaken, base)
	}
	two, _ := cat.List(ctx, 2)
	if len(two) != 2 {
		t.Fatalf("limit ignored: %d", len(two))
	}
}

// TestCatalogMigratesV1 ensures an older DB (schema=1) is migrated to schemaVersion and the date index exists.
func TestCatalogMigratesV1(t *testing.T) {
	dir := t.TempDir()
	path := CatalogPath(dir)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mk catalog dir: %v", err)
	}
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(2000)", filepath.ToSlash(path)))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	stmts := []string{
		`CREATE TABLE version (id INTEGER PRIMARY KEY CHECK(id=1), schema INTEGER NOT NULL, app TEXT, created_at TEXT NOT NULL, updated_at TEXT NOT NULL);`,
		`INSERT INTO version(id, schema, app, created_at, updated_at) VALUES(1, 1, 'test', '2020-01-01T00:00:00Z', '2020-01-01T00:00:00Z');`,
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			t.Fatalf("seed v1 schema: %v (q=%s)", err, q)
		}
	}
	db.Close()

	cat, err := OpenCatalog(dir)
	if err != nil {
		t.Fatalf("OpenCatalog: %v", err)
	}
	defer cat.Close()
	var schema int
	if err := cat.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&schema); err != nil {
		t.Fatalf("read schema: %v", err)
	}
	if schema != schemaVersion {
		t.Fatalf("schema = %d, want %d", schema, schemaVersion)
	}
	var cnt int
	if err := cat.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name='idx_images_date_added'`).Scan(&cnt); err != nil {
		t.Fatalf("query indexes: %v", err)
	}
	if cnt != 1 {
		t.Fatalf("expected date index after migration")
	}
}

func TestOpenCatalogRequiresDir(t *testing.T) {
	if _, err := OpenCatalog("  "); err == nil {
		t.Fatalf("expected error for blank dir")
	}
}
