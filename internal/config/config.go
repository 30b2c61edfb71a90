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
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.

type CorpusConfig struct {
	ScriptsPath string `yaml:"scripts_path"` // all_scripts_raw.json
	IndexCSV    string `yaml:"index_csv"`    // episode_index_sorted.csv, optional
}

type ParseConfig struct {
	Workers int `yaml:"workers"`
}

type IndexConfig struct {
	Path string `yaml:"path"` // SQLite line index
}

type PostgresConfig struct {
	DSN       string `yaml:"dsn"`
	User      string `yaml:"user"`
	TimeoutMs int    `yaml:"timeout_ms"`
	// Password is not stored on disk; it lives in the OS keychain.
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int            `yaml:"config_version"`
	Corpus        CorpusConfig   `yaml:"corpus"`
	Parse         ParseConfig    `yaml:"parse"`
	Index         IndexConfig    `yaml:"index"`
	Postgres      PostgresConfig `yaml:"postgres"`
	Logging       LoggingConfig  `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Corpus:        CorpusConfig{ScriptsPath: "all_scripts_raw.json", IndexCSV: "episode_index_sorted.csv"},
		Parse:         ParseConfig{Workers: runtime.NumCPU()},
		Index:         IndexConfig{Path: "trekscript.db"},
		Postgres:      PostgresConfig{DSN: "", User: "", TimeoutMs: 10000},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvConfigPath  = "TREK_CONFIG"
	EnvScriptsPath = "TREK_SCRIPTS"
	EnvIndexCSV    = "TREK_INDEX_CSV"
	EnvWorkers     = "TREK_WORKERS"
	EnvIndexPath   = "TREK_DB"
	EnvPGDSN       = "TREK_PG_DSN"
	EnvPGUser      = "TREK_PG_USER"
	EnvPGTimeoutMs = "TREK_PG_TIMEOUT_MS"
	EnvPGPassword  = "TREK_PG_PASSWORD"
	EnvLogLevel    = "TREK_LOG_LEVEL"
	EnvLogFormat   = "TREK_LOG_FORMAT"
	EnvLogSource   = "TREK_LOG_SOURCE"
	EnvLogFile     = "TREK_LOG_FILE"
)

// Service/keys for OS keyring.
const (
	keyringService  = "trekscript"
	keyringPassword = "postgres_password"
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
func (osKeyring) Set(service, key, value string) error { return keyring.Set(service, key, value) }
func (osKeyring) Delete(service, key string) error { return keyring.Delete(service, key) }

// ConfigPath returns the per-user config file path, or the TREK_CONFIG override.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "trekscript")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "trekscript")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = filepath.Join(xdg, "trekscript")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "trekscript")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads user config file (if present), applies defaults, and merges environment overrides.
// The Postgres password comes from TREK_PG_PASSWORD or the keyring and is returned separately.
// A malformed config file is an error; a missing one is not.
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, "", fmt.Errorf("config %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
	case !errors.Is(err, os.ErrNotExist):
		return cfg, "", fmt.Errorf("read config: %w", err)
	}
	applyEnvOverrides(&cfg)
	if pw := os.Getenv(EnvPGPassword); pw != "" {
		return cfg, pw, nil
	}
	pw, _ := tokenStore.Get(keyringService, keyringPassword)
	return cfg, pw, nil
}

// Save writes the user config YAML and persists the password into OS keyring (if non-empty).
func Save(cfg AppConfig, password string) error {
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
	if password != "" {
		if err := tokenStore.Set(keyringService, keyringPassword, password); err != nil {
			return fmt.Errorf("store password: %w", err)
		}
	}
	return nil
}

// ForgetPassword removes the stored Postgres password. A missing entry is not an error.
func ForgetPassword() error {
	if err := tokenStore.Delete(keyringService, keyringPassword); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return nil
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if v := strings.TrimSpace(src.Corpus.ScriptsPath); v != "" {
		dst.Corpus.ScriptsPath = v
	}
	if v := strings.TrimSpace(src.Corpus.IndexCSV); v != "" {
		dst.Corpus.IndexCSV = v
	}
	if src.Parse.Workers > 0 {
		dst.Parse.Workers = src.Parse.Workers
	}
	if v := strings.TrimSpace(src.Index.Path); v != "" {
		dst.Index.Path = v
	}
	if v := strings.TrimSpace(src.Postgres.DSN); v != "" {
		dst.Postgres.DSN = v
	}
	if v := strings.TrimSpace(src.Postgres.User); v != "" {
		dst.Postgres.User = v
	}
	if src.Postgres.TimeoutMs != 0 {
		dst.Postgres.TimeoutMs = src.Postgres.TimeoutMs
	}
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

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvScriptsPath)); v != "" {
		cfg.Corpus.ScriptsPath = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvIndexCSV)); v != "" {
		cfg.Corpus.IndexCSV = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvWorkers)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Parse.Workers = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvIndexPath)); v != "" {
		cfg.Index.Path = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPGDSN)); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPGUser)); v != "" {
		cfg.Postgres.User = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPGTimeoutMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.TimeoutMs = n
		}
	}
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

var envByKey = map[string]string{
	"corpus.scripts_path": EnvScriptsPath,
	"corpus.index_csv":    EnvIndexCSV,
	"parse.workers":       EnvWorkers,
	"index.path":          EnvIndexPath,
	"postgres.dsn":        EnvPGDSN,
	"postgres.user":       EnvPGUser,
	"postgres.timeout_ms": EnvPGTimeoutMs,
	"logging.level":       EnvLogLevel,
	"logging.format":      EnvLogFormat,
	"logging.source":      EnvLogSource,
	"logging.file":        EnvLogFile,
}

// Keys lists the config keys that accept env overrides, sorted.
func Keys() []string {
	keys := make([]string, 0, len(envByKey))
	for k := range envByKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	name, ok := envByKey[key]
	if !ok || os.Getenv(name) == "" {
		return "", false
	}
	return name, true
}

// Timeout returns the connect timeout, falling back to the default when unset.
func (p PostgresConfig) Timeout() time.Duration {
	if p.TimeoutMs <= 0 {
		return time.Duration(Defaults().Postgres.TimeoutMs) * time.Millisecond
	}
	return time.Duration(p.TimeoutMs) * time.Millisecond
}
