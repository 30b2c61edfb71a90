/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"errors"
	"os"
	"regexp"
	"strconv"
	"testing"
	"time"

	"trekscript/internal/index"
	"trekscript/internal/script"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	v, err := parseVersion("migrations/0002_lines_character.sql")
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	_, err = parseVersion("init.sql")
	assert.Error(t, err)
	_, err = parseVersion("abc_init.sql")
	assert.Error(t, err)
}

func TestMigrationFilesOrderedAndUnique(t *testing.T) {
	files, err := migrationFiles()
	require.NoError(t, err)
	require.NotEmpty(t, files)
	assert.Equal(t, "0001_init.sql", files[0])

	seen := map[int64]bool{}
	var prev int64
	for _, f := range files {
		v, err := parseVersion(f)
		require.NoError(t, err, f)
		assert.False(t, seen[v], "duplicate version %d", v)
		assert.Greater(t, v, prev)
		seen[v] = true
		prev = v
	}
}

var placeholderRe = regexp.MustCompile(`\$(\d+)`)

// placeholders returns the highest $N in query and fails unless $1..$N all occur.
func placeholders(t *testing.T, query string) int {
	t.Helper()
	seen := map[int]bool{}
	highest := 0
	for _, m := range placeholderRe.FindAllStringSubmatch(query, -1) {
		n, err := strconv.Atoi(m[1])
		require.NoError(t, err)
		seen[n] = true
		highest = max(highest, n)
	}
	for i := 1; i <= highest; i++ {
		require.True(t, seen[i], "missing $%d in %q", i, query)
	}
	return highest
}

func TestStatementPlaceholdersMatchArgs(t *testing.T) {
	cases := []struct {
		name  string
		query string
		args  int
	}{
		{"upsert episode", upsertEpisodeSQL, 7},
		{"clear lines", clearLinesSQL, 1},
		{"record migration", recordMigrationSQL, 2},
	}
	for _, c := range cases {
		assert.Equal(t, c.args, placeholders(t, c.query), c.name)
	}
}

func TestSearchSQLPlaceholdersMatchArgs(t *testing.T) {
	ep := 3
	queries := []index.Query{
		{},
		{Text: "warp"},
		{Text: "warp", Series: "TNG", Episode: &ep, Character: "picard", Scene: "bridge", Limit: 5, Offset: 10},
		{Series: "TOS", Scene: "100%"},
	}
	for _, q := range queries {
		query, args := searchSQL(q)
		assert.Equal(t, len(args), placeholders(t, query), "%+v", q)
	}

	query, args := searchSQL(queries[2])
	assert.Contains(t, query, "plainto_tsquery('simple', $1)")
	assert.Equal(t, "warp", args[0])
	assert.Equal(t, []any{5, 10}, args[len(args)-2:])
}

func TestConnectRequiresDSN(t *testing.T) {
	_, err := Connect(context.Background(), ConnectOptions{DSN: "  "})
	assert.True(t, errors.Is(err, ErrNoDSN))

	_, err = Connect(context.Background(), ConnectOptions{DSN: "postgres://%zz"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse dsn")
}

func TestLikeContainsEscapes(t *testing.T) {
	assert.Equal(t, `%100\%\_done\\x%`, likeContains(`100%_done\x`))
}

// openPGForTest connects to the database named by TREK_PG_DSN or
// DATABASE_URL and skips when neither is set or reachable.
func openPGForTest(t *testing.T) *Sink {
	t.Helper()
	dsn := os.Getenv("TREK_PG_DSN")
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		t.Skip("no postgres configured; set TREK_PG_DSN to run")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s, err := Connect(ctx, ConnectOptions{DSN: dsn, Timeout: 5 * time.Second, Attempts: 1})
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestPushReplacesLinesAndSearches(t *testing.T) {
	s := openPGForTest(t)
	ctx := context.Background()
	// 9999 keeps the fixture clear of real episode numbers.
	text := "Star Trek The Naked Now The Naked Now Stardate: 41209.2\n\n" +
		"[Bridge]\nPICARD: Report, Number One.\nRIKER [OC]: The ship is drifting.\n\n" +
		"[Engineering]\nLAFORGE: The warp core is stable.\n"
	ep, err := script.Parse("ZZZ", 9999, text, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = s.conn.Exec(context.Background(), `DELETE FROM episodes WHERE series = 'ZZZ'`)
	})

	first, err := s.Push(ctx, []*script.Episode{ep})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Episodes)
	assert.Equal(t, int64(3), first.Lines)

	second, err := s.Push(ctx, []*script.Episode{ep})
	require.NoError(t, err)
	assert.NotEqual(t, first.RunID, second.RunID)

	var n int
	require.NoError(t, s.conn.QueryRow(ctx,
		`SELECT count(*) FROM lines l JOIN episodes e ON e.id = l.episode_id WHERE e.series = 'ZZZ'`).Scan(&n))
	assert.Equal(t, 3, n)

	var applied int
	require.NoError(t, s.conn.QueryRow(ctx, `SELECT count(*) FROM schema_migrations`).Scan(&applied))
	files, _ := migrationFiles()
	assert.Equal(t, len(files), applied)

	hits, err := s.Search(ctx, index.Query{Text: "warp", Series: "ZZZ"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "LAFORGE", hits[0].Character)
	assert.Equal(t, "Engineering", hits[0].SceneLoc)
	assert.Contains(t, hits[0].Snippet, "[warp]")

	hits, err = s.Search(ctx, index.Query{Series: "ZZZ", Character: "riker"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 1, hits[0].LineNumber)

	hits, err = s.Search(ctx, index.Query{Series: "ZZZ", Limit: 1, Offset: 2})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "The warp core is stable.", hits[0].Text)
}

func TestConnectFailureIsWrapped(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, err := Connect(ctx, ConnectOptions{
		DSN:      "postgres://nobody@127.0.0.1:1/none?sslmode=disable",
		Timeout:  time.Second,
		Attempts: 1,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect postgres")
}
