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
	"log/slog"
	"strings"

	"sketchpad/internal/backend"
	"sketchpad/internal/config"
	applog "sketchpad/internal/log"
	"sketchpad/internal/permission"
	"sketchpad/internal/share"
	"sketchpad/internal/storage"
)

// OpenCatalog opens the Postgres catalog when a DSN is configured and the
// local SQLite one otherwise. A Postgres failure falls back to SQLite.
func OpenCatalog(ctx context.Context, cfg config.AppConfig) (storage.Catalog, error) {
	l := applog.WithComponent("session")
	if dsn := strings.TrimSpace(cfg.Catalog.PostgresDSN); dsn != "" {
		pg, err := backend.OpenPGCatalog(ctx, dsn)
		if err == nil {
			return pg, nil
		}
		l.Warn("postgres catalog unavailable, using local catalog", slog.Any("err", err))
	}
	return storage.OpenCatalog(cfg.Storage.OutputDir)
}

// Wire builds a session with the collaborators described by cfg. The returned
// close func releases the catalog.
func Wire(ctx context.Context, cfg config.AppConfig) (*Session, func() error, error) {
	opts, err := OptionsFromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	cat, err := OpenCatalog(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	opts.Store = storage.NewImageStore(cfg.Storage.OutputDir, cfg.Storage.FilePrefix, cat)
	opts.Sharer = share.FromConfig(cfg.Share)
	opts.Permission = permission.NewChecker(false)
	return New(opts), cat.Close, nil
}
