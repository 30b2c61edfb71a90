/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package index keeps a searchable SQLite copy of the parsed corpus: one row
// per episode, one row per spoken line, and an FTS5 index over the lines.
// The index is derived data and can always be rebuilt from the transcripts.
package index

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

	applog "trekscript/internal/log"
	"trekscript/internal/script"
	"trekscript/internal/table"
	"trekscript/internal/version"

	"github.com/google/uuid"
	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

// schemaVersion tracks the local SQLite schema.
// Bump this when you perform breaking schema changes and add migrations.
const schemaVersion = 2

// Meta keys written by Rebuild.
const (
	MetaRunID   = "last_run_id"
	MetaBuiltAt = "last_built_at"
)

// Index is an open line index.
type Index struct {
	db   *sql.DB
	path string
}

// Stats summarizes index content.
type Stats struct {
	Episodes int
	Lines    int
	RunID    string
	BuiltAt  time.Time
	Schema   int
}

// Open creates or opens the index at path, enables WAL mode and brings the
// schema up to date.
func Open(ctx context.Context, path string) (*Index, error) {
	l := applog.WithOperation(applog.WithComponent("index"), "open").With(slog.String("path", path))
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("index path is required")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create index dir: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON;"); err != nil {
		l.Warn("enable foreign_keys failed", slog.Any("err", err))
	}
	for _, step := range []func(context.Context, *sql.DB) error{ensureMetaAndVersion, ensureSchema, runMigrations} {
		if err := step(ctx, db); err != nil {
			_ = db.Close()
			l.Error("prepare schema failed", slog.Any("err", err))
			return nil, err
		}
	}
	l.Debug("index ready")
	return &Index{db: db, path: path}, nil
}

// Close releases the database.
func (x *Index) Close() error { return x.db.Close() }

// Path is the database file.
func (x *Index) Path() string { return x.path }

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// a fresh DB starts at the base schema and runs every migration
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, 1, ?, ?, ?)`, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		// keep the stored schema so runMigrations can upgrade it
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// ensureSchema creates the base (schema 1) tables, FTS table and triggers.
func ensureSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS episodes (
			id        INTEGER PRIMARY KEY,
			series    TEXT    NOT NULL,
			number    INTEGER NOT NULL,
			title     TEXT    NOT NULL,
			stardate  TEXT    NOT NULL,
			airdate   TEXT    NOT NULL,
			scenes    INTEGER NOT NULL,
			UNIQUE(series, number)
		);`,
		`CREATE TABLE IF NOT EXISTS lines (
			id           INTEGER PRIMARY KEY,
			episode_id   INTEGER NOT NULL REFERENCES episodes(id) ON DELETE CASCADE,
			scene_number INTEGER NOT NULL,
			scene_loc    TEXT    NOT NULL,
			line_number  INTEGER NOT NULL,
			character    TEXT    NOT NULL,
			text         TEXT    NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_lines_episode ON lines(episode_id);`,

		// External-content FTS5 index over lines, fed by triggers.
		`CREATE VIRTUAL TABLE IF NOT EXISTS fts_lines USING fts5(
			character,
			text,
			content='lines',
			content_rowid='id',
			tokenize = 'unicode61'
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure index schema: %w", err)
		}
	}
	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS lines_ai AFTER INSERT ON lines BEGIN
			INSERT INTO fts_lines(rowid, character, text) VALUES (new.id, new.character, new.text);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS lines_ad AFTER DELETE ON lines BEGIN
			INSERT INTO fts_lines(fts_lines, rowid, character, text) VALUES ('delete', old.id, old.character, old.text);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS lines_au AFTER UPDATE ON lines BEGIN
			INSERT INTO fts_lines(fts_lines, rowid, character, text) VALUES ('delete', old.id, old.character, old.text);
			INSERT INTO fts_lines(rowid, character, text) VALUES (new.id, new.character, new.text);
		END;`,
	}
	for _, q := range triggers {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure fts triggers: %w", err)
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
	for ; cur < schemaVersion; cur++ {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			// filter columns used by Search
			stmts = []string{
				`CREATE INDEX IF NOT EXISTS idx_lines_character ON lines(character COLLATE NOCASE);`,
				`CREATE INDEX IF NOT EXISTS idx_episodes_series ON episodes(series, number);`,
			}
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
	}
	return nil
}

// Rebuild replaces the whole index content with the given episodes in one
// transaction and returns the run id stamped into meta.
func (x *Index) Rebuild(ctx context.Context, eps []*script.Episode) (string, error) {
	l := applog.WithOperation(applog.WithComponent("index"), "rebuild")
	runID := uuid.NewString()
	start := time.Now()

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range []string{"DELETE FROM lines;", "DELETE FROM episodes;"} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return "", fmt.Errorf("clear index: %w", err)
		}
	}
	insEp, err := tx.PrepareContext(ctx, `INSERT INTO episodes(series, number, title, stardate, airdate, scenes) VALUES(?,?,?,?,?,?)`)
	if err != nil {
		return "", fmt.Errorf("prepare episode insert: %w", err)
	}
	defer insEp.Close()
	insLine, err := tx.PrepareContext(ctx, `INSERT INTO lines(episode_id, scene_number, scene_loc, line_number, character, text) VALUES(?,?,?,?,?,?)`)
	if err != nil {
		return "", fmt.Errorf("prepare line insert: %w", err)
	}
	defer insLine.Close()

	var nLines int
	for _, ep := range eps {
		res, err := insEp.ExecContext(ctx, ep.Series, ep.Number, ep.Title, ep.Stardate, ep.Airdate, len(ep.Scenes))
		if err != nil {
			return "", fmt.Errorf("insert %s episode %d: %w", ep.Series, ep.Number, err)
		}
		epID, err := res.LastInsertId()
		if err != nil {
			return "", fmt.Errorf("episode id: %w", err)
		}
		for _, r := range table.Lines(ep) {
			if _, err := insLine.ExecContext(ctx, epID, r.SceneNumber, r.SceneLoc, r.LineNumber, r.Character, r.Line); err != nil {
				return "", fmt.Errorf("insert line: %w", err)
			}
			nLines++
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	for k, v := range map[string]string{MetaRunID: runID, MetaBuiltAt: now} {
		if _, err := tx.ExecContext(ctx, `INSERT INTO meta(key, value) VALUES(?, ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value`, k, v); err != nil {
			return "", fmt.Errorf("write meta: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	if _, err := x.db.ExecContext(ctx, `INSERT INTO fts_lines(fts_lines) VALUES('optimize')`); err != nil {
		l.Warn("fts optimize failed", slog.Any("err", err))
	}
	l.Info("index rebuilt",
		slog.String("run_id", runID),
		slog.Int("episodes", len(eps)),
		slog.Int("lines", nLines),
		slog.Duration("took", time.Since(start)))
	return runID, nil
}

// Stats reports row counts and the last rebuild.
func (x *Index) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	if err := x.db.QueryRowContext(ctx, `SELECT (SELECT COUNT(*) FROM episodes), (SELECT COUNT(*) FROM lines), (SELECT schema FROM version WHERE id=1)`).Scan(&s.Episodes, &s.Lines, &s.Schema); err != nil {
		return s, fmt.Errorf("count rows: %w", err)
	}
	rows, err := x.db.QueryContext(ctx, `SELECT key, value FROM meta WHERE key IN (?, ?)`, MetaRunID, MetaBuiltAt)
	if err != nil {
		return s, fmt.Errorf("read meta: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return s, fmt.Errorf("scan meta: %w", err)
		}
		switch k {
		case MetaRunID:
			s.RunID = v
		case MetaBuiltAt:
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				s.BuiltAt = t
			}
		}
	}
	return s, rows.Err()
}

// Check runs SQLite's quick_check and probes the core tables.
func (x *Index) Check(ctx context.Context) error {
	var chk string
	if err := x.db.QueryRowContext(ctx, `PRAGMA quick_check;`).Scan(&chk); err != nil {
		return fmt.Errorf("quick_check: %w", err)
	}
	if !strings.EqualFold(strings.TrimSpace(chk), "ok") {
		return fmt.Errorf("index corrupt: %s", chk)
	}
	if _, err := x.db.ExecContext(ctx, `SELECT 1 FROM lines LIMIT 1;`); err != nil {
		return fmt.Errorf("probe lines: %w", err)
	}
	return nil
}
