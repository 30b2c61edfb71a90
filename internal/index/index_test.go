/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package index

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"trekscript/internal/script"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var transcripts = []struct {
	series string
	number int
	text   string
}{
	{"TNG", 3, "Star Trek The Naked Now The Naked Now Stardate: 41209.2\n\n" +
		"[Bridge]\nPICARD: Report, Number One.\nRIKER [OC]: The ship is drifting.\n\n" +
		"[Engineering]\nLAFORGE: The warp core is stable.\nPICARD: Make it so.\n"},
	{"TOS", 0, "Star Trek The Cage The Cage\n\n" +
		"[Bridge]\nPIKE: Warp factor seven.\nSPOCK: The signal is a distress call.\n"},
}

func parsed(t *testing.T) []*script.Episode {
	t.Helper()
	var eps []*script.Episode
	for _, tr := range transcripts {
		ep, err := script.Parse(tr.series, tr.number, tr.text, nil)
		if err != nil {
			t.Fatalf("parse %s %d: %v", tr.series, tr.number, err)
		}
		eps = append(eps, ep)
	}
	return eps
}

func openTest(t *testing.T) *Index {
	t.Helper()
	x, err := Open(context.Background(), filepath.Join(t.TempDir(), "sub", "trek.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = x.Close() })
	return x
}

func TestRebuildAndStats(t *testing.T) {
	ctx := context.Background()
	x := openTest(t)
	runID, err := x.Rebuild(ctx, parsed(t))
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if _, err := uuid.Parse(runID); err != nil {
		t.Fatalf("run id is not a uuid: %q", runID)
	}
	st, err := x.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Episodes != 2 || st.Lines != 6 || st.RunID != runID || st.Schema != schemaVersion {
		t.Fatalf("unexpected stats %+v", st)
	}
	if time.Since(st.BuiltAt) > time.Minute {
		t.Fatalf("unexpected build time %v", st.BuiltAt)
	}
	if err := x.Check(ctx); err != nil {
		t.Fatalf("Check: %v", err)
	}

	// A second rebuild replaces content instead of appending.
	second, err := x.Rebuild(ctx, parsed(t)[:1])
	if err != nil {
		t.Fatalf("second Rebuild: %v", err)
	}
	st, _ = x.Stats(ctx)
	if st.Episodes != 1 || st.Lines != 4 || st.RunID != second || second == runID {
		t.Fatalf("rebuild did not replace content: %+v", st)
	}
	hits, err := x.Search(ctx, Query{Text: "signal"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("stale FTS rows survived rebuild: %+v", hits)
	}
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	x := openTest(t)
	if _, err := x.Rebuild(ctx, parsed(t)); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	hits, err := x.Search(ctx, Query{Text: "warp"})
	if err != nil {
		t.Fatalf("search text: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 warp hits, got %+v", hits)
	}
	for _, h := range hits {
		if !strings.Contains(h.Snippet, "[warp]") && !strings.Contains(h.Snippet, "[Warp]") {
			t.Fatalf("snippet lacks highlight: %q", h.Snippet)
		}
	}

	hits, err = x.Search(ctx, Query{Text: "warp", Series: "TOS"})
	if err != nil {
		t.Fatalf("search series: %v", err)
	}
	if len(hits) != 1 || hits[0].Character != "PIKE" || hits[0].EpisodeTitle != "The Cage" || hits[0].Episode != 0 {
		t.Fatalf("unexpected TOS hits %+v", hits)
	}

	hits, err = x.Search(ctx, Query{Character: "picard"})
	if err != nil {
		t.Fatalf("search character: %v", err)
	}
	if len(hits) != 2 || hits[0].Text != "Report, Number One." || hits[1].SceneLoc != "Engineering" {
		t.Fatalf("unexpected PICARD hits %+v", hits)
	}
	if hits[1].SceneNumber != 2 || hits[1].LineNumber != 1 {
		t.Fatalf("unexpected positions %+v", hits[1])
	}

	hits, err = x.Search(ctx, Query{Character: "RIKER"})
	if err != nil || len(hits) != 1 {
		t.Fatalf("qualifier should be stripped in the index: %+v, %v", hits, err)
	}

	zero := 0
	hits, err = x.Search(ctx, Query{Episode: &zero})
	if err != nil || len(hits) != 2 || hits[0].Series != "TOS" {
		t.Fatalf("episode 0 filter: %+v, %v", hits, err)
	}

	hits, err = x.Search(ctx, Query{Scene: "engine"})
	if err != nil || len(hits) != 2 {
		t.Fatalf("scene filter: %+v, %v", hits, err)
	}
	hits, err = x.Search(ctx, Query{Scene: "%"})
	if err != nil || len(hits) != 0 {
		t.Fatalf("LIKE wildcards must be literal: %+v, %v", hits, err)
	}
}

func TestSearchPagination(t *testing.T) {
	ctx := context.Background()
	x := openTest(t)
	if _, err := x.Rebuild(ctx, parsed(t)); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	var all []string
	for off := 0; ; off += 4 {
		page, err := x.Search(ctx, Query{Limit: 4, Offset: off})
		if err != nil {
			t.Fatalf("page at %d: %v", off, err)
		}
		if len(page) == 0 {
			break
		}
		for _, h := range page {
			all = append(all, fmt.Sprintf("%s/%d/%d/%d", h.Series, h.Episode, h.SceneNumber, h.LineNumber))
		}
	}
	want := "TNG/3/1/0 TNG/3/1/1 TNG/3/2/0 TNG/3/2/1 TOS/0/1/0 TOS/0/1/1"
	if got := strings.Join(all, " "); got != want {
		t.Fatalf("pages in wrong order:\n got %s\nwant %s", got, want)
	}
}

func TestSearchBadFTSSyntax(t *testing.T) {
	x := openTest(t)
	if _, err := x.Search(context.Background(), Query{Text: "\"unterminated"}); err == nil {
		t.Fatalf("expected error for malformed FTS query")
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(context.Background(), "  "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

// TestMigrations_UpgradeV1ToV2 ensures that an older DB (schema=1) is migrated and new indexes exist.
func TestMigrations_UpgradeV1ToV2(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(2000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`CREATE TABLE meta (key TEXT PRIMARY KEY, value TEXT NOT NULL);`,
		`CREATE TABLE version (id INTEGER PRIMARY KEY CHECK(id=1), schema INTEGER NOT NULL, app TEXT, created_at TEXT NOT NULL, updated_at TEXT NOT NULL);`,
		`INSERT INTO version(id, schema, app, created_at, updated_at) VALUES(1, 1, 'test', '2020-01-01T00:00:00Z', '2020-01-01T00:00:00Z');`,
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			t.Fatalf("seed v1 schema: %v (q=%s)", err, q)
		}
	}
	_ = db.Close()

	x, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer x.Close()
	st, err := x.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Schema != schemaVersion {
		t.Fatalf("expected schema %d after migration, got %d", schemaVersion, st.Schema)
	}
	var cnt int
	if err := x.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name IN ('idx_lines_character','idx_episodes_series')`).Scan(&cnt); err != nil {
		t.Fatalf("query indexes: %v", err)
	}
	if cnt != 2 {
		t.Fatalf("expected migration indexes, got %d", cnt)
	}
}
