/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package episodes loads the curated episode list (series, episode, title)
// used to resolve titles ahead of the transcript heuristic.
package episodes

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Entry is one row of the episode list.
type Entry struct {
	Series string
	Number int
	Title  string
}

type key struct {
	series string
	number int
}

// Index maps (series, episode number) to a title. The zero value is empty
// and usable. It satisfies script.TitleIndex.
type Index struct {
	entries map[key]Entry
	order   []key
}

// Title returns the indexed title for the episode, if any.
func (x *Index) Title(series string, number int) (string, bool) {
	if x == nil {
		return "", false
	}
	e, ok := x.entries[key{series, number}]
	if !ok {
		return "", false
	}
	return e.Title, true
}

// Len is the number of indexed episodes.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return len(x.order)
}

// Entries returns the rows in file order.
func (x *Index) Entries() []Entry {
	if x == nil {
		return nil
	}
	out := make([]Entry, 0, len(x.order))
	for _, k := range x.order {
		out = append(out, x.entries[k])
	}
	return out
}

// Add inserts or replaces an entry.
func (x *Index) Add(e Entry) {
	if x.entries == nil {
		x.entries = make(map[key]Entry)
	}
	k := key{e.Series, e.Number}
	if _, ok := x.entries[k]; !ok {
		x.order = append(x.order, k)
	}
	x.entries[k] = e
}

// Load reads an episode list CSV from path.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open episode list: %w", err)
	}
	defer func() { _ = f.Close() }()
	idx, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return idx, nil
}

// Read parses an episode list. The header row must name the series, episode
// and title columns; other columns are ignored.
func Read(r io.Reader) (*Index, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("episode list is empty")
	}
	if err != nil {
		return nil, err
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, name := range []string{"series", "episode", "title"} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("episode list header lacks %q column", name)
		}
	}
	width := max(col["series"], col["episode"], col["title"]) + 1

	idx := &Index{}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) < width {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("line %d: expected at least %d fields, got %d", line, width, len(rec))
		}
		n, err := strconv.Atoi(strings.TrimSpace(rec[col["episode"]]))
		if err != nil {
			line, _ := cr.FieldPos(col["episode"])
			return nil, fmt.Errorf("line %d: episode number: %w", line, err)
		}
		idx.Add(Entry{
			Series: strings.TrimSpace(rec[col["series"]]),
			Number: n,
			Title:  strings.TrimSpace(rec[col["title"]]),
		})
	}
	return idx, nil
}
