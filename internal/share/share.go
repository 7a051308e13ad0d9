/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package share hands a saved picture to somebody else. Share is
// fire-and-forget: it returns immediately and the outcome is only logged.
package share

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"sketchpad/internal/config"
	applog "sketchpad/internal/log"
	"sketchpad/internal/telemetry"
)

// MimePNG is the content type of every shared picture.
const MimePNG = "image/png"

// Title labels the upload, like a share sheet title.
const Title = "Share Image"

// Service shares a saved file. Share returns at once; Wait blocks until
// every share started so far has finished, so short-lived callers can drain
// uploads before exiting.
type Service interface {
	Share(path string)
	Wait()
}

// NopSharer only logs.
type NopSharer struct{}

func (NopSharer) Share(path string) {
	applog.WithComponent("share").Info("share skipped, no endpoint configured", slog.String("path", path))
}

func (NopSharer) Wait() {}

// TokenSource returns the bearer token; "" sends no Authorization header.
type TokenSource func() (string, error)

// HTTPSharer uploads pictures as multipart/form-data to an endpoint.
type HTTPSharer struct {
	Endpoint string
	Token    TokenSource
	client   *http.Client
	log      *slog.Logger
	wg       sync.WaitGroup
}

// NewHTTPSharer builds a sharer for endpoint. The token is read from the OS
// keyring on every upload.
func NewHTTPSharer(endpoint string, timeout time.Duration) *HTTPSharer {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPSharer{
		Endpoint: strings.TrimSpace(endpoint),
		Token:    config.ShareToken,
		client:   &http.Client{Timeout: timeout},
		log:      applog.WithComponent("share"),
	}
}

// FromConfig returns an HTTPSharer when an endpoint is configured and a
// NopSharer otherwise.
func FromConfig(c config.ShareConfig) Service {
	if strings.TrimSpace(c.Endpoint) == "" {
		return NopSharer{}
	}
	return NewHTTPSharer(c.Endpoint, c.Timeout())
}

// Share uploads path in the background.
func (s *HTTPSharer) Share(path string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		l := applog.WithOperation(s.log, "share").With(slog.String("path", path))
		err := s.Upload(context.Background(), path)
		if err != nil {
			l.Error("share failed", slog.Any("err", err))
		} else {
			l.Info("picture shared", slog.String("endpoint", s.Endpoint))
		}
		telemetry.DrawingShared(err == nil)
	}()
}

// Wait blocks until all pending uploads finished.
func (s *HTTPSharer) Wait() { s.wg.Wait() }

// Upload sends path synchronously.
func (s *HTTPSharer) Upload(ctx context.Context, path string) error {
	if s.Endpoint == "" {
		return errors.New("share endpoint is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read picture: %w", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("title", Title); err != nil {
		return err
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(path)))
	h.Set("Content-Type", MimePNG)
	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if s.Token != nil {
		tok, err := s.Token()
		if err != nil {
			return fmt.Errorf("read share token: %w", err)
		}
		if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server %s %s: %s", req.Method, req.URL.Path, resp.Status)
	}
	return nil
}
