/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package backend pushes parsed episodes into PostgreSQL, for consumers that
// want the corpus in a shared database rather than the local SQLite index.
package backend

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	applog "trekscript/internal/log"
	"trekscript/internal/script"
	"trekscript/internal/table"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNoDSN is returned when no connection string is configured.
var ErrNoDSN = errors.New("postgres dsn is not configured")

const (
	upsertEpisodeSQL = `
		INSERT INTO episodes(series, number, title, stardate, airdate, scenes, run_id, pushed_at)
		VALUES($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (series, number) DO UPDATE SET
			title = EXCLUDED.title, stardate = EXCLUDED.stardate, airdate = EXCLUDED.airdate,
			scenes = EXCLUDED.scenes, run_id = EXCLUDED.run_id, pushed_at = EXCLUDED.pushed_at
		RETURNING id`
	clearLinesSQL      = `DELETE FROM lines WHERE episode_id = $1`
	recordMigrationSQL = `INSERT INTO schema_migrations(version, name) VALUES($1, $2)`
)

// ConnectOptions holds connection settings. User and Password, when set,
// override whatever the DSN carries.
type ConnectOptions struct {
	DSN      string
	User     string
	Password string
	Timeout  time.Duration
	// Attempts bounds connection attempts; 0 means 3.
	Attempts uint
}

// Sink is an open Postgres connection with an up-to-date schema.
type Sink struct {
	conn *pgx.Conn
}

// PushStats reports what a Push wrote.
type PushStats struct {
	RunID    string
	Episodes int
	Lines    int64
}

// Connect opens a connection and applies pending migrations.
func Connect(ctx context.Context, opts ConnectOptions) (*Sink, error) {
	if strings.TrimSpace(opts.DSN) == "" {
		return nil, ErrNoDSN
	}
	cfg, err := pgx.ParseConfig(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if opts.User != "" {
		cfg.User = opts.User
	}
	if opts.Password != "" {
		cfg.Password = opts.Password
	}
	if opts.Timeout > 0 {
		cfg.ConnectTimeout = opts.Timeout
	}
	attempts := opts.Attempts
	if attempts == 0 {
		attempts = 3
	}
	var conn *pgx.Conn
	err = retry.Do(
		func() error {
			c, err := pgx.ConnectConfig(ctx, cfg)
			if err != nil {
				return err
			}
			conn = c
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			applog.WithComponent("backend").Warn("postgres connect failed; retrying",
				slog.Uint64("attempt", uint64(n+1)), slog.Any("err", err))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := applyMigrations(ctx, conn); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Sink{conn: conn}, nil
}

// Close ends the connection.
func (s *Sink) Close(ctx context.Context) error { return s.conn.Close(ctx) }

// Push upserts the episodes and replaces their lines in one transaction.
// Episodes already in the database but not in eps are left untouched.
func (s *Sink) Push(ctx context.Context, eps []*script.Episode) (PushStats, error) {
	l := applog.WithOperation(applog.WithComponent("backend"), "push")
	runID := uuid.New()
	stats := PushStats{RunID: runID.String()}
	start := time.Now()

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return stats, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, ep := range eps {
		var epID int64
		err := tx.QueryRow(ctx, upsertEpisodeSQL,
			ep.Series, ep.Number, ep.Title, ep.Stardate, ep.Airdate, len(ep.Scenes), runID).Scan(&epID)
		if err != nil {
			return stats, fmt.Errorf("upsert %s episode %d: %w", ep.Series, ep.Number, err)
		}
		if _, err := tx.Exec(ctx, clearLinesSQL, epID); err != nil {
			return stats, fmt.Errorf("clear %s episode %d: %w", ep.Series, ep.Number, err)
		}
		rows := table.Lines(ep)
		n, err := tx.CopyFrom(ctx,
			pgx.Identifier{"lines"},
			[]string{"episode_id", "scene_number", "scene_loc", "line_number", "character", "text"},
			pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
				r := rows[i]
				return []any{epID, r.SceneNumber, r.SceneLoc, r.LineNumber, r.Character, r.Line}, nil
			}))
		if err != nil {
			return stats, fmt.Errorf("copy lines for %s episode %d: %w", ep.Series, ep.Number, err)
		}
		stats.Episodes++
		stats.Lines += n
	}
	if err := tx.Commit(ctx); err != nil {
		return stats, fmt.Errorf("commit: %w", err)
	}
	l.Info("pushed to postgres",
		slog.String("run_id", stats.RunID),
		slog.Int("episodes", stats.Episodes),
		slog.Int64("lines", stats.Lines),
		slog.Duration("took", time.Since(start)))
	return stats, nil
}

// Push connects, migrates, pushes and disconnects.
func Push(ctx context.Context, opts ConnectOptions, eps []*script.Episode) (PushStats, error) {
	s, err := Connect(ctx, opts)
	if err != nil {
		return PushStats{}, err
	}
	defer func() { _ = s.Close(context.WithoutCancel(ctx)) }()
	return s.Push(ctx, eps)
}

// migrationFiles lists the embedded migrations in filename order.
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
		if name := e.Name(); strings.HasSuffix(strings.ToLower(name), ".sql") {
			files = append(files, name)
		}
	}
	sort.Strings(files)
	return files, nil
}

// applyMigrations applies embedded SQL migrations in filename order, each in
// its own transaction together with its schema_migrations row.
func applyMigrations(ctx context.Context, conn *pgx.Conn) error {
	l := applog.WithOperation(applog.WithComponent("backend"), "migrate")
	files, err := migrationFiles()
	if err != nil {
		return err
	}
	if _, err := conn.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	applied := map[int64]bool{}
	rows, err := conn.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("select schema_migrations: %w", err)
	}
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return err
		}
		applied[v] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

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
		l.Info("applying migration", slog.String("file", fname))
		err = pgx.BeginFunc(ctx, conn, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, string(b)); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, recordMigrationSQL, version, fname)
			return err
		})
		if err != nil {
			return fmt.Errorf("apply %s: %w", fname, err)
		}
	}
	return nil
}

func parseVersion(name string) (int64, error) {
	base := path.Base(name)
	prefix, _, ok := strings.Cut(base, "_")
	if !ok {
		return 0, errors.New("invalid migration filename: " + name)
	}
	v, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse version from %s: %w", name, err)
	}
	return v, nil
}
