/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "sketchpad/internal/log"
	"sketchpad/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// CatalogDirName holds the gallery database next to the saved pictures.
	CatalogDirName  = ".sketchpad"
	CatalogFileName = "gallery.sqlite"

	// schemaVersion tracks the local SQLite schema for the catalog.
	// Bump this when you perform breaking schema changes and add migrations.
	schemaVersion = 2
)

// Entry is one saved picture as recorded in a catalog.
type Entry struct {
	ID          int64
	DisplayName string
	Path        string
	MimeType    string
	Width       int
	Height      int
	Strokes     int
	DateAdded   time.Time
	DateTaken   time.Time
}

// Catalog records saved pictures, the desktop counterpart of a media store.
type Catalog interface {
	Record(ctx context.Context, e Entry) (int64, error)
	List(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

// CatalogPath returns the full path to the gallery database for dir.
func CatalogPath(dir string) string {
	return filepath.Join(dir, CatalogDirName, CatalogFileName)
}

// SQLiteCatalog is the embedded catalog.
type SQLiteCatalog struct {
	db   *sql.DB
	path string
}

// OpenCatalog ensures that the gallery database exists at .sketchpad/gallery.sqlite under dir,
// opens it, enables WAL mode and brings the schema up to date.
func OpenCatalog(dir string) (*SQLiteCatalog, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "catalog_open").With(
		slog.String("dir", dir),
	)
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("catalog dir is required")
	}
	if err := os.MkdirAll(filepath.Join(dir, CatalogDirName), 0o755); err != nil {
		l.Error("create catalog dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create %s dir: %w", CatalogDirName, err)
	}

	path := CatalogPath(dir)
	// Use a URI with shared cache and set busy timeout. Convert to forward slashes for SQLite URI.
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureCatalogSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure catalog schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}

	l.Debug("catalog ready", slog.String("path", path))
	return &SQLiteCatalog{db: db, path: path}, nil
}

func (c *SQLiteCatalog) Path() string { return c.path }

func (c *SQLiteCatalog) Close() error { return c.db.Close() }

// Record inserts e and returns its row id. DateAdded defaults to now.
func (c *SQLiteCatalog) Record(ctx context.Context, e Entry) (int64, error) {
	if e.DateAdded.IsZero() {
		e.DateAdded = time.Now()
	}
	if e.DateTaken.IsZero() {
		e.DateTaken = e.DateAdded
	}
	res, err := c.db.ExecContext(ctx,
		`INSERT INTO images (display_name, path, mime_type, width, height, stroke_count, date_added, date_taken)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.DisplayName, e.Path, e.MimeType, e.Width, e.Height, e.Strokes,
		e.DateAdded.Unix(), e.DateTaken.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("insert image: %w", err)
	}
	return res.LastInsertId()
}

// List returns the newest entries first; limit <= 0 returns all.
func (c *SQLiteCatalog) List(ctx context.Context, limit int) ([]Entry, error) {
	q := `SELECT id, display_name, path, mime_type, width, height, stroke_count, date_added, date_taken
	      FROM images ORDER BY date_added DESC, id DESC`
	var args []any
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		var added, taken int64
		if err := rows.Scan(&e.ID, &e.DisplayName, &e.Path, &e.MimeType, &e.Width, &e.Height, &e.Strokes, &added, &taken); err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		e.DateAdded = time.Unix(added, 0)
		e.DateTaken = time.UnixMilli(taken)
		out = append(out, e)
	}
	return out, rows.Err()
}

func ensureVersion(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS version (
		id          INTEGER PRIMARY KEY CHECK(id=1),
		schema      INTEGER NOT NULL,
		app         TEXT,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		// Update app and timestamp only; keep existing schema for migrations
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

func ensureCatalogSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS images (
			id           INTEGER PRIMARY KEY,
			display_name TEXT    NOT NULL,
			path         TEXT    NOT NULL,
			mime_type    TEXT    NOT NULL,
			width        INTEGER NOT NULL,
			height       INTEGER NOT NULL,
			stroke_count INTEGER NOT NULL DEFAULT 0,
			date_added   INTEGER NOT NULL,
			date_taken   INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_images_path ON images(path);`,
		`CREATE INDEX IF NOT EXISTS idx_images_date_added ON images(date_added);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure catalog schema: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			// newest-first listing
			stmts = []string{`CREATE INDEX IF NOT EXISTS idx_images_date_added ON images(date_added);`}
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}
