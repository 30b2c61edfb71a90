/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */
package backend

import (
	"context"
	"fmt"
	"strings"

	"trekscript/internal/index"
)

// Search runs a line search against Postgres using the same Query and Hit
// types as the local index, so results can be compared side by side.
// Text is interpreted by plainto_tsquery('simple', ...), not FTS5 syntax.
func (s *Sink) Search(ctx context.Context, q index.Query) ([]index.Hit, error) {
	query, args := searchSQL(q)
	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search pg query: %w", err)
	}
	defer rows.Close()
	var out []index.Hit
	for rows.Next() {
		var h index.Hit
		if err := rows.Scan(&h.Series, &h.Episode, &h.EpisodeTitle, &h.SceneNumber, &h.SceneLoc, &h.LineNumber, &h.Character, &h.Text, &h.Snippet); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// searchSQL builds the search statement and its positional arguments.
func searchSQL(q index.Query) (string, []any) {
	var (
		args []any
		b    strings.Builder
	)
	place := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	useFTS := strings.TrimSpace(q.Text) != ""
	b.WriteString("SELECT e.series, e.number, e.title, l.scene_number, l.scene_loc, l.line_number, l.character, l.text, ")
	if useFTS {
		tq := place(q.Text)
		b.WriteString("COALESCE(ts_headline('simple', l.text, plainto_tsquery('simple', " + tq + "), 'StartSel=[, StopSel=], MaxFragments=1, MaxWords=12'), '') ")
		b.WriteString("FROM lines l JOIN episodes e ON e.id = l.episode_id ")
		b.WriteString("WHERE l.search_vector @@ plainto_tsquery('simple', " + tq + ") ")
	} else {
		b.WriteString("'' FROM lines l JOIN episodes e ON e.id = l.episode_id WHERE TRUE ")
	}
	if v := strings.TrimSpace(q.Series); v != "" {
		b.WriteString(" AND e.series = " + place(v) + " ")
	}
	if q.Episode != nil {
		b.WriteString(" AND e.number = " + place(*q.Episode) + " ")
	}
	if v := strings.TrimSpace(q.Character); v != "" {
		b.WriteString(" AND lower(l.character) = " + place(strings.ToLower(v)) + " ")
	}
	if v := strings.TrimSpace(q.Scene); v != "" {
		b.WriteString(" AND lower(l.scene_loc) LIKE " + place(likeContains(strings.ToLower(v))) + " ")
	}

	limit := q.Limit
	if limit <= 0 {
		limit = index.DefaultLimit
	}
	offset := max(q.Offset, 0)
	if useFTS {
		b.WriteString(" ORDER BY ts_rank(l.search_vector, plainto_tsquery('simple', $1)) DESC, l.id ")
	} else {
		b.WriteString(" ORDER BY l.id ")
	}
	b.WriteString(" LIMIT " + place(limit) + " OFFSET " + place(offset))
	return b.String(), args
}

// likeContains wraps s for a LIKE contains match; backslash is the default
// escape character in Postgres.
func likeContains(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return "%" + r.Replace(s) + "%"
}
