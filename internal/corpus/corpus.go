/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package corpus loads the raw transcript collection and parses it in bulk.
package corpus

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
)

// SeriesOrder is the canonical broadcast order; other series sort after it.
var SeriesOrder = []string{"TOS", "TAS", "DS9", "TNG", "VOY", "ENT"}

// ErrEpisodeNotFound is returned when a series/episode pair is not in the corpus.
var ErrEpisodeNotFound = errors.New("episode not found")

// Entry is one raw transcript.
type Entry struct {
	Series string
	Number int
	Text   string
}

// Corpus holds transcripts ordered by series (SeriesOrder) then episode number.
type Corpus struct {
	Entries []Entry
}

// ParseEpisodeKey extracts the number from a key such as "episode 12".
func ParseEpisodeKey(k string) (int, error) {
	i := strings.IndexByte(k, ' ')
	if i < 0 {
		return 0, fmt.Errorf("episode key %q: missing number", k)
	}
	n, err := strconv.Atoi(strings.TrimSpace(k[i:]))
	if err != nil {
		return 0, fmt.Errorf("episode key %q: %w", k, err)
	}
	return n, nil
}

// Load reads a JSON document shaped {"TOS": {"episode 0": "<text>", ...}, ...}.
func Load(path string) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer func() { _ = f.Close() }()
	c, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Read decodes a corpus document from r.
func Read(r io.Reader) (*Corpus, error) {
	var doc map[string]map[string]string
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode corpus: %w", err)
	}
	c := &Corpus{}
	for series, eps := range doc {
		seen := make(map[int]string, len(eps))
		for k, text := range eps {
			n, err := ParseEpisodeKey(k)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", series, err)
			}
			if prev, dup := seen[n]; dup {
				return nil, fmt.Errorf("%s: keys %q and %q both name episode %d", series, prev, k, n)
			}
			seen[n] = k
			c.Entries = append(c.Entries, Entry{Series: series, Number: n, Text: text})
		}
	}
	slices.SortFunc(c.Entries, compareEntries)
	return c, nil
}

func seriesRank(s string) int {
	if i := slices.Index(SeriesOrder, s); i >= 0 {
		return i
	}
	return len(SeriesOrder)
}

func compareEntries(a, b Entry) int {
	if ra, rb := seriesRank(a.Series), seriesRank(b.Series); ra != rb {
		return ra - rb
	}
	if a.Series != b.Series {
		return strings.Compare(a.Series, b.Series)
	}
	return a.Number - b.Number
}

// Series lists the series present, in corpus order.
func (c *Corpus) Series() []string {
	var out []string
	for _, e := range c.Entries {
		if len(out) == 0 || out[len(out)-1] != e.Series {
			out = append(out, e.Series)
		}
	}
	return out
}

// Select returns the entries of one series, or all entries when series is empty.
func (c *Corpus) Select(series string) []Entry {
	if series == "" {
		return c.Entries
	}
	var out []Entry
	for _, e := range c.Entries {
		if e.Series == series {
			out = append(out, e)
		}
	}
	return out
}

// Episode looks up a single transcript.
func (c *Corpus) Episode(series string, number int) (Entry, error) {
	for _, e := range c.Entries {
		if e.Series == series && e.Number == number {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("%s episode %d: %w", series, number, ErrEpisodeNotFound)
}
