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
	"strings"
)

// reCue matches a character cue: a line start, an upper-case name that may
// wrap across lines, an optional bracketed qualifier and the colon.
var reCue = regexp.MustCompile(`(?:\A|\n)([-A-Z0-9\n ']+(?:\[[-A-Za-z0-9\n ']+\])?):`)

// offCamera is the qualifier suffix dropped by CharacterName.
const offCamera = " [OC]"

// SplitDialogue segments a scene body into cue/dialogue pairs in order.
// Text before the first cue (stage directions) is not part of any line.
func SplitDialogue(body string) []Line {
	locs := reCue.FindAllStringSubmatchIndex(body, -1)
	if len(locs) == 0 {
		return nil
	}
	lines := make([]Line, 0, len(locs))
	for i, m := range locs {
		textEnd := len(body)
		if i+1 < len(locs) {
			textEnd = locs[i+1][0]
		}
		raw := body[m[1]:textEnd]
		lines = append(lines, Line{
			Speaker: Clean(body[m[2]:m[3]]),
			Text:    Clean(raw),
			Raw:     raw,
		})
	}
	return lines
}

// Lines segments every scene of the episode; the result is indexed like Scenes.
func (e *Episode) Lines() [][]Line {
	out := make([][]Line, len(e.Scenes))
	for i, sc := range e.Scenes {
		out[i] = SplitDialogue(sc.Body)
	}
	return out
}

// CharacterName returns the speaker without a trailing off-camera marker.
// Only the exact, upper-case " [OC]" suffix is removed.
func CharacterName(speaker string) string {
	return strings.TrimSuffix(speaker, offCamera)
}

// StripQualifier removes the first bracketed qualifier wherever it appears in
// the speaker label, e.g. "PICARD [on viewscreen]" -> "PICARD".
func StripQualifier(speaker string) string {
	open := strings.IndexByte(speaker, '[')
	if open < 0 {
		return speaker
	}
	close := strings.IndexByte(speaker[open:], ']')
	if close < 0 {
		return speaker
	}
	return Clean(speaker[:open] + speaker[open+close+1:])
}

// Clean collapses every whitespace run to a single space and trims the ends.
func Clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
