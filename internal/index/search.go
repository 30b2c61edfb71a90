/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */
package index

import (
	"context"
	"fmt"
	"strings"
)

// Query describes a line search.
// Text uses SQLite FTS5 syntax (simple terms, phrases in quotes, AND/OR/NOT,
// column filters such as character:picard). Filters are optional.
// Series is matched exactly, Character case-insensitively, Scene as a
// case-insensitive substring of the scene location.
// Episode restricts to one episode number when non-nil.
// Limit/Offset implement pagination; reasonable defaults applied if zero.
type Query struct {
	Text      string
	Series    string
	Character string
	Scene     string
	Episode   *int
	Limit     int
	Offset    int
}

// Hit is a single matching line.
// Snippet is a highlighted excerpt using [ ] markers when Text is used.
type Hit struct {
	Series       string
	Episode      int
	EpisodeTitle string
	SceneNumber  int
	SceneLoc     string
	LineNumber   int
	Character    string
	Text         string
	Snippet      string
}

// DefaultLimit caps results when Query.Limit is zero.
const DefaultLimit = 100

// Search performs full-text search with optional filters. When q.Text is
// empty it scans lines with the filters applied, in corpus order; with text,
// results are ranked by relevance.
func (x *Index) Search(ctx context.Context, q Query) ([]Hit, error) {
	var args []any
	var sb strings.Builder
	useFTS := strings.TrimSpace(q.Text) != ""
	sb.WriteString("SELECT e.series, e.number, e.title, l.scene_number, l.scene_loc, l.line_number, l.character, l.text, ")
	if useFTS {
		sb.WriteString("snippet(fts_lines, 1, '[', ']', '...', 12)\n")
		sb.WriteString("FROM fts_lines JOIN lines l ON fts_lines.rowid = l.id JOIN episodes e ON e.id = l.episode_id\n")
		sb.WriteString("WHERE fts_lines MATCH ?\n")
		args = append(args, q.Text)
	} else {
		sb.WriteString("''\n")
		sb.WriteString("FROM lines l JOIN episodes e ON e.id = l.episode_id\nWHERE 1=1\n")
	}
	if s := strings.TrimSpace(q.Series); s != "" {
		sb.WriteString(" AND e.series = ?\n")
		args = append(args, s)
	}
	if q.Episode != nil {
		sb.WriteString(" AND e.number = ?\n")
		args = append(args, *q.Episode)
	}
	if s := strings.TrimSpace(q.Character); s != "" {
		sb.WriteString(" AND l.character = ? COLLATE NOCASE\n")
		args = append(args, s)
	}
	if s := strings.TrimSpace(q.Scene); s != "" {
		sb.WriteString(" AND lower(l.scene_loc) LIKE ? ESCAPE '\\'\n")
		args = append(args, likeContains(strings.ToLower(s)))
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	offset := max(q.Offset, 0)
	if useFTS {
		sb.WriteString("ORDER BY fts_lines.rank, l.id\n")
	} else {
		sb.WriteString("ORDER BY l.id\n")
	}
	sb.WriteString("LIMIT ? OFFSET ?")
	args = append(args, limit, offset)

	rows, err := x.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()
	var out []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.Series, &h.Episode, &h.EpisodeTitle, &h.SceneNumber, &h.SceneLoc, &h.LineNumber, &h.Character, &h.Text, &h.Snippet); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// likeContains wraps s for a LIKE ... ESCAPE '\' contains match.
func likeContains(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return "%" + r.Replace(s) + "%"
}
