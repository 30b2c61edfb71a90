/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"regexp"
	"slices"
	"strings"
)

// headerWords is how many leading words the metadata extractors look at.
const headerWords = 100

var reYear = regexp.MustCompile(`[0-9]{4}`)

// TitleIndex resolves an episode title from an external episode list.
type TitleIndex interface {
	Title(series string, number int) (string, bool)
}

// Words splits text into whitespace-separated words, with every colon
// followed by a space so that "Stardate:41153.7" yields two words.
func Words(text string) []string {
	return strings.Fields(strings.ReplaceAll(text, ":", ": "))
}

// ResolveTitle prefers the index entry and falls back to FindRepeat over the
// first words of the transcript, which usually repeat the title back-to-back.
func ResolveTitle(idx TitleIndex, series string, number int, words []string) string {
	if idx != nil {
		if t, ok := idx.Title(series, number); ok && strings.TrimSpace(t) != "" {
			return t
		}
	}
	rep := FindRepeat(head(words))
	if rep == nil {
		return TitleError
	}
	return strings.Join(rep, " ")
}

// FindRepeat returns the first run of words that is immediately repeated.
// Positions are tried left to right, shorter runs first; nil means no repeat.
func FindRepeat(words []string) []string {
	n := len(words)
	for i := 0; i < n; i++ {
		for j := 1; j < min(i, n-i); j++ {
			if slices.Equal(words[i-j:i], words[i:i+j]) {
				return words[i : i+j]
			}
		}
	}
	return nil
}

// Stardate extracts the stardate from the transcript header.
func Stardate(words []string) string {
	seg := head(words)
	if i := slices.Index(seg, "Stardate:"); i >= 0 {
		if i+1 < len(words) {
			return words[i+1]
		}
		return NotGiven
	}
	m, o := slices.Index(seg, "Mission"), slices.Index(seg, "Original")
	if m >= 0 && o >= 0 {
		// "Mission date: 41153.7 Original airdate: ..." - skip the label word.
		if m+2 >= o {
			return ""
		}
		return strings.Join(seg[m+2:o], " ")
	}
	return NotGiven
}

// Airdate extracts the words following the first "Airdate" label up to and
// including the first word carrying a four-digit year. The scan starts at the
// label itself, so a label with the year fused to it yields an empty date.
func Airdate(words []string) string {
	seg := head(words)
	for i, w := range seg {
		if !strings.Contains(w, "Airdate") {
			continue
		}
		for j := i; j < len(seg); j++ {
			if reYear.MatchString(seg[j]) {
				return strings.Join(seg[i+1:j+1], " ")
			}
		}
		return NotGiven
	}
	return NotGiven
}

func head(words []string) []string {
	if len(words) > headerWords {
		return words[:headerWords]
	}
	return words
}
