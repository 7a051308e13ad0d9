/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	applog "sketchpad/internal/log"
	"sketchpad/internal/telemetry"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.

type CanvasConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Density    float64 `yaml:"density"` // px per dp
	Background string  `yaml:"background"`
}

type BrushConfig struct {
	SizeDp  int      `yaml:"size_dp"`
	Color   string   `yaml:"color"`
	Palette []string `yaml:"palette"`
}

type StorageConfig struct {
	OutputDir  string `yaml:"output_dir"`
	FilePrefix string `yaml:"file_prefix"`
	GalleryDir string `yaml:"gallery_dir"`
}

type ShareConfig struct {
	Endpoint  string `yaml:"endpoint"`
	TimeoutMs int    `yaml:"timeout_ms"`
	// Token is not stored on disk; it lives in the OS keychain.
}

type CatalogConfig struct {
	PostgresDSN string `yaml:"postgres_dsn"`
}

type GeneralConfig struct {
	TelemetryOptIn bool `yaml:"telemetry_opt_in"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Canvas        CanvasConfig  `yaml:"canvas"`
	Brush         BrushConfig   `yaml:"brush"`
	Storage       StorageConfig `yaml:"storage"`
	Share         ShareConfig   `yaml:"share"`
	Catalog       CatalogConfig `yaml:"catalog"`
	Logging       LoggingConfig `yaml:"logging"`
}

// DefaultPalette mirrors the swatch row of the original color picker.
var DefaultPalette = []string{
	"#000000", "#FFFFFF", "#FF0000", "#FF9800", "#FFEB3B",
	"#4CAF50", "#2196F3", "#3F51B5", "#9C27B0", "#795548",
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	home, _ := os.UserHomeDir()
	pictures := filepath.Join(home, "Pictures", "Sketchpad")
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{TelemetryOptIn: false},
		Canvas:        CanvasConfig{Width: 1080, Height: 1920, Density: 1, Background: "#FFFFFF"},
		Brush:         BrushConfig{SizeDp: 20, Color: "#000000", Palette: append([]string(nil), DefaultPalette...)},
		Storage:       StorageConfig{OutputDir: pictures, FilePrefix: "DrawingApp_", GalleryDir: filepath.Join(home, "Pictures")},
		Share:         ShareConfig{Endpoint: "", TimeoutMs: 15000},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvCanvasWidth    = "SKP_CANVAS_WIDTH"
	EnvCanvasHeight   = "SKP_CANVAS_HEIGHT"
	EnvCanvasDensity  = "SKP_CANVAS_DENSITY"
	EnvOutputDir      = "SKP_OUTPUT_DIR"
	EnvGalleryDir     = "SKP_GALLERY_DIR"
	EnvShareEndpoint  = "SKP_SHARE_ENDPOINT"
	EnvShareTimeoutMs = "SKP_SHARE_TIMEOUT_MS"
	EnvCatalogDSN     = "SKP_CATALOG_DSN"
	EnvTelemetryOptIn = "SKP_TELEMETRY_OPT_IN"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "SKP_LOG_LEVEL"
	EnvLogFormat = "SKP_LOG_FORMAT"
	EnvLogSource = "SKP_LOG_SOURCE"
	EnvLogFile   = "SKP_LOG_FILE"
)

// Service/keys for OS keyring.
const (
	keyringService = "Sketchpad"
	keyringToken   = "share_token"
)

// tokenStore abstracts keyring, so we can stub in tests.
var tokenStore TokenStore = osKeyring{}

type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// osKeyring implements TokenStore using the OS keyring via github.com/zalando/go-keyring.
type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) { return keyring.Get(service, key) }
func (osKeyring) Set(service, key, value string) error    { return keyring.Set(service, key, value) }
func (osKeyring) Delete(service, key string) error        { return keyring.Delete(service, key) }

// ShareToken reads the share bearer token from the keyring. A missing entry is not an error.
func ShareToken() (string, error) {
	tok, err := tokenStore.Get(keyringService, keyringToken)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	return tok, err
}

// SetShareToken stores token in the keyring.
func SetShareToken(token string) error {
	if err := tokenStore.Set(keyringService, keyringToken, token); err != nil {
		return fmt.Errorf("store share token: %w", err)
	}
	return nil
}

// ClearShareToken removes the stored token, if any.
func ClearShareToken() error {
	err := tokenStore.Delete(keyringService, keyringToken)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "Sketchpad")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "Sketchpad")
	default: // linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = filepath.Join(xdg, "sketchpad")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "sketchpad")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads user config file (if present), applies defaults, and merges environment overrides.
// The share token is read from the keyring and returned separately.
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, "", fmt.Errorf("parse %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
	}
	applyEnvOverrides(&cfg)
	tok, _ := ShareToken()
	return cfg, tok, nil
}

// Save writes the user config YAML and persists the token into OS keyring (if non-empty).
func Save(cfg AppConfig, token string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if token != "" {
		return SetShareToken(token)
	}
	return nil
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn
	// canvas
	if src.Canvas.Width > 0 {
		dst.Canvas.Width = src.Canvas.Width
	}
	if src.Canvas.Height > 0 {
		dst.Canvas.Height = src.Canvas.Height
	}
	if src.Canvas.Density > 0 {
		dst.Canvas.Density = src.Canvas.Density
	}
	if s := strings.TrimSpace(src.Canvas.Background); s != "" {
		dst.Canvas.Background = s
	}
	// brush
	if src.Brush.SizeDp > 0 {
		dst.Brush.SizeDp = src.Brush.SizeDp
	}
	if s := strings.TrimSpace(src.Brush.Color); s != "" {
		dst.Brush.Color = s
	}
	if len(src.Brush.Palette) > 0 {
		dst.Brush.Palette = append([]string(nil), src.Brush.Palette...)
	}
	// storage
	if s := strings.TrimSpace(src.Storage.OutputDir); s != "" {
		dst.Storage.OutputDir = s
	}
	if s := strings.TrimSpace(src.Storage.FilePrefix); s != "" {
		dst.Storage.FilePrefix = s
	}
	if s := strings.TrimSpace(src.Storage.GalleryDir); s != "" {
		dst.Storage.GalleryDir = s
	}
	// share / catalog
	if s := strings.TrimSpace(src.Share.Endpoint); s != "" {
		dst.Share.Endpoint = s
	}
	if src.Share.TimeoutMs != 0 {
		dst.Share.TimeoutMs = src.Share.TimeoutMs
	}
	if s := strings.TrimSpace(src.Catalog.PostgresDSN); s != "" {
		dst.Catalog.PostgresDSN = s
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if n, ok := envInt(EnvCanvasWidth); ok && n > 0 {
		cfg.Canvas.Width = n
	}
	if n, ok := envInt(EnvCanvasHeight); ok && n > 0 {
		cfg.Canvas.Height = n
	}
	if v := strings.TrimSpace(os.Getenv(EnvCanvasDensity)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Canvas.Density = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvOutputDir)); v != "" {
		cfg.Storage.OutputDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvGalleryDir)); v != "" {
		cfg.Storage.GalleryDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvShareEndpoint)); v != "" {
		cfg.Share.Endpoint = v
	}
	if n, ok := envInt(EnvShareTimeoutMs); ok {
		cfg.Share.TimeoutMs = n
	}
	if v := strings.TrimSpace(os.Getenv(EnvCatalogDSN)); v != "" {
		cfg.Catalog.PostgresDSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryOptIn)); v != "" {
		cfg.General.TelemetryOptIn = truthy(v)
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

func envInt(name string) (int, bool) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	return n, err == nil
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

var overrideKeys = map[string]string{
	"canvas.width":             EnvCanvasWidth,
	"canvas.height":            EnvCanvasHeight,
	"canvas.density":           EnvCanvasDensity,
	"storage.output_dir":       EnvOutputDir,
	"storage.gallery_dir":      EnvGalleryDir,
	"share.endpoint":           EnvShareEndpoint,
	"share.timeout_ms":         EnvShareTimeoutMs,
	"catalog.postgres_dsn":     EnvCatalogDSN,
	"general.telemetry_opt_in": EnvTelemetryOptIn,
	"logging.level":            EnvLogLevel,
	"logging.format":           EnvLogFormat,
	"logging.source":           EnvLogSource,
	"logging.file":             EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	name, ok := overrideKeys[key]
	if !ok || os.Getenv(name) == "" {
		return "", false
	}
	return name, true
}

// Timeout returns the share upload timeout, falling back to the default for non-positive values.
func (s ShareConfig) Timeout() time.Duration {
	if s.TimeoutMs <= 0 {
		return time.Duration(Defaults().Share.TimeoutMs) * time.Millisecond
	}
	return time.Duration(s.TimeoutMs) * time.Millisecond
}

// LogOptions merges the logging section under the SKP_LOG_* variables; a set
// variable always wins.
func LogOptions(cfg AppConfig) applog.Options {
	opts := applog.FromEnv()
	if os.Getenv(EnvLogLevel) == "" && cfg.Logging.Level != "" {
		opts.Level = cfg.Logging.Level
	}
	if os.Getenv(EnvLogFormat) == "" && cfg.Logging.Format != "" {
		opts.Format = cfg.Logging.Format
	}
	if os.Getenv(EnvLogFile) == "" && cfg.Logging.File != "" {
		opts.File = cfg.Logging.File
	}
	if os.Getenv(EnvLogSource) == "" {
		opts.AddSource = cfg.Logging.Source
	}
	return opts
}

// TelemetryOptions is telemetry.FromEnv with the opt-in taken from cfg, which
// already reflects the env override.
func TelemetryOptions(cfg AppConfig) telemetry.Config {
	tc := telemetry.FromEnv()
	tc.OptIn = cfg.General.TelemetryOptIn
	return tc
}
