/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package permission decides whether the app may read (and optionally write)
// a storage directory before a gallery import or a save touches it.
package permission

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	applog "sketchpad/internal/log"
)

// User-facing notices.
const (
	MsgGranted   = "Permission granted, now you can read the storage files."
	MsgDenied    = "Oops! You just denied the permission."
	MsgRequest   = "Please grant permission to access external storage."
	MsgRationale = "Drawing App needs to Access your External Storage"
)

// Result of a storage access check.
type Result int

const (
	Denied Result = iota
	Granted
	// Deferred means the decision is pending, e.g. the directory does not
	// exist yet and the caller may create it or ask again.
	Deferred
)

func (r Result) String() string {
	switch r {
	case Granted:
		return "granted"
	case Deferred:
		return "deferred"
	default:
		return "denied"
	}
}

// Message returns the notice shown to the user for r.
func (r Result) Message() string {
	switch r {
	case Granted:
		return MsgGranted
	case Deferred:
		return MsgRequest
	default:
		return MsgDenied
	}
}

// Service is what the session consults before touching storage.
type Service interface {
	EnsureStorageAccess(dir string) Result
}

// Checker probes the file system.
type Checker struct {
	// Write additionally requires that a file can be created in dir.
	Write bool
	log   *slog.Logger
}

// NewChecker returns a read-only checker, or a read/write one if write is set.
func NewChecker(write bool) *Checker {
	return &Checker{Write: write, log: applog.WithComponent("permission")}
}

// EnsureStorageAccess reports whether dir can be used.
func (c *Checker) EnsureStorageAccess(dir string) Result {
	l := c.logger().With(slog.String("dir", dir))
	res, err := c.check(dir)
	if err != nil {
		l.Warn("storage access", slog.String("result", res.String()), slog.Any("err", err))
	} else {
		l.Debug("storage access", slog.String("result", res.String()))
	}
	return res
}

func (c *Checker) logger() *slog.Logger {
	if c.log == nil {
		c.log = applog.WithComponent("permission")
	}
	return c.log
}

func (c *Checker) check(dir string) (Result, error) {
	if strings.TrimSpace(dir) == "" {
		return Denied, errors.New("empty directory")
	}
	fi, err := os.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return Deferred, nil
	case err != nil:
		return Denied, err
	case !fi.IsDir():
		return Denied, errors.New("not a directory")
	}

	f, err := os.Open(dir)
	if err != nil {
		return Denied, err
	}
	_, err = f.Readdirnames(1)
	_ = f.Close()
	if err != nil && !errors.Is(err, io.EOF) {
		return Denied, err
	}

	if c.Write {
		probe, err := os.CreateTemp(dir, ".sketchpad-probe-*")
		if err != nil {
			return Denied, err
		}
		name := probe.Name()
		_ = probe.Close()
		_ = os.Remove(name)
	}
	return Granted, nil
}

// Static returns the same result for every directory; useful for UIs that
// already asked the user and for tests.
type Static Result

func (s Static) EnsureStorageAccess(string) Result { return Result(s) }
