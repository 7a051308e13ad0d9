/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package backend holds the optional Postgres gallery catalog shared between
// machines. It satisfies storage.Catalog so the image store does not care
// which catalog it records into.
package backend

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	applog "sketchpad/internal/log"
	"sketchpad/internal/storage"

	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PGCatalog records saved pictures in Postgres.
type PGCatalog struct {
	db  *sql.DB
	log *slog.Logger
}

var _ storage.Catalog = (*PGCatalog)(nil)

// OpenPGCatalog connects to dsn, pings it and applies pending migrations.
func OpenPGCatalog(ctx context.Context, dsn string) (*PGCatalog, error) {
	l := applog.WithComponent("backend")
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("postgres dsn is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := applyMigrations(pctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	l.Debug("pg catalog ready")
	return &PGCatalog{db: db, log: l}, nil
}

func (c *PGCatalog) Close() error { return c.db.Close() }

// Record inserts e and returns its id. DateAdded defaults to now.
func (c *PGCatalog) Record(ctx context.Context, e storage.Entry) (int64, error) {
	if e.DateAdded.IsZero() {
		e.DateAdded = time.Now()
	}
	if e.DateTaken.IsZero() {
		e.DateTaken = e.DateAdded
	}
	var id int64
	err := c.db.QueryRowContext(ctx,
		`INSERT INTO images (display_name, path, mime_type, width, height, stroke_count, date_added, date_taken)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		e.DisplayName, e.Path, e.MimeType, e.Width, e.Height, e.Strokes, e.DateAdded.UTC(), e.DateTaken.UTC(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert image: %w", err)
	}
	c.log.Debug("image recorded", slog.Int64("id", id), slog.String("path", e.Path))
	return id, nil
}

// List returns the newest entries first; limit <= 0 returns all.
func (c *PGCatalog) List(ctx context.Context, limit int) ([]storage.Entry, error) {
	q := `SELECT id, display_name, path, mime_type, width, height, stroke_count, date_added, date_taken
	      FROM images ORDER BY date_added DESC, id DESC`
	var args []any
	if limit > 0 {
		q += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			c.log.Warn("rows close", slog.Any("err", err))
		}
	}()
	var out []storage.Entry
	for rows.Next() {
		var e storage.Entry
		if err := rows.Scan(&e.ID, &e.DisplayName, &e.Path, &e.MimeType, &e.Width, &e.Height, &e.Strokes, &e.DateAdded, &e.DateTaken); err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func migrationFiles() ([]string, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(strings.ToLower(name), ".sql") {
			files = append(files, name)
		}
	}
	sort.Strings(files)
	return files, nil
}

func applyMigrations(ctx context.Context, db *sql.DB) error {
	l := applog.WithOperation(applog.WithComponent("backend"), "migrate")
	files, err := migrationFiles()
	if err != nil {
		return err
	}

	// dialect=PostgreSQL
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	applied := map[int64]bool{}
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("select schema_migrations: %w", err)
	}
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			_ = rows.Close()
			return err
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	_ = rows.Close()

	for _, fname := range files {
		version, err := parseVersion(fname)
		if err != nil {
			return err
		}
		if applied[version] {
			continue
		}
		b, err := migrationsFS.ReadFile(path.Join("migrations", fname))
		if err != nil {
			return err
		}
		sqlText := string(b)
		if strings.TrimSpace(sqlText) == "" {
			continue
		}
		l.Info("applying migration", slog.String("file", fname))
		if _, err := db.ExecContext(ctx, sqlText); err != nil {
			return fmt.Errorf("apply %s: %w", fname, err)
		}
		if _, err := db.ExecContext(ctx, `INSERT INTO schema_migrations(version, name) VALUES($1, $2)`, version, fname); err != nil {
			return fmt.Errorf("record %s: %w", fname, err)
		}
	}
	return nil
}

func parseVersion(name string) (int64, error) {
	base := path.Base(name)
	parts := strings.SplitN(base, "_", 2)
	if len(parts) < 2 {
		return 0, errors.New("invalid migration filename: " + name)
	}
	v, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse version from %s: %w", name, err)
	}
	return v, nil
}
