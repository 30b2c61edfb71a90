/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"strings"
	"unicode/utf8"
)

// recapLeadIns open a "previously on" segment at the very start of a transcript.
var recapLeadIns = []string{
	"Previously on",
	"previously on",
	"Previously, on",
	"previously, on",
	"Last time on",
}

// recapWindow is the number of leading characters searched for a recap lead-in.
const recapWindow = 200

// SplitScenes splits normalized text into scenes.
//
// A scene opener is a "[" at the start of a line whose first following "]"
// is itself followed by a line break. Line-start brackets that fail this test
// are inline asides and stay in the surrounding scene body; they are counted
// in Scene.Asides so callers can flag them.
func SplitScenes(text string) ([]Scene, error) {
	text = InsertRecapBreaks(text)

	// asides before the first opener are discarded with the preamble
	start, end, _, ok := nextOpener(text, 0)
	if !ok {
		return nil, ErrNoScenes
	}

	var scenes []Scene
	for {
		bodyStart := end + 1
		nStart, nEnd, nSkipped, more := nextOpener(text, bodyStart)
		bodyEnd := len(text)
		if more {
			bodyEnd = nStart
		}
		scenes = append(scenes, Scene{
			Heading:   strings.ReplaceAll(text[start+2:end], "\n", " "),
			Delimiter: text[start:bodyStart],
			Body:      text[bodyStart:bodyEnd],
			Offset:    start,
			Asides:    nSkipped,
		})
		if !more {
			return scenes, nil
		}
		start, end = nStart, nEnd
	}
}

// InsertRecapBreaks closes a synthetic scene heading right after any recap
// lead-in found near the start of the text, so the recap becomes its own scene.
// The break goes one character past the phrase, normally the following space.
func InsertRecapBreaks(text string) string {
	for _, phrase := range recapLeadIns {
		if !strings.Contains(leadingRunes(text, recapWindow), phrase) {
			continue
		}
		at := strings.Index(text, phrase) + len(phrase)
		if at < len(text) {
			_, size := utf8.DecodeRuneInString(text[at:])
			at += size
		}
		text = text[:at] + "]\n" + text[at:]
	}
	return text
}

// nextOpener finds the first genuine scene opener at or after from.
// start is the index of the "\n" preceding "[", end the index of the closing "]".
// skipped counts the line-start candidates rejected on the way.
func nextOpener(text string, from int) (start, end, skipped int, ok bool) {
	for from < len(text) {
		i := strings.Index(text[from:], "\n[")
		if i < 0 {
			return 0, 0, skipped, false
		}
		start = from + i
		j := strings.IndexByte(text[start:], ']')
		if j < 0 {
			return 0, 0, skipped, false
		}
		end = start + j
		if end+1 < len(text) && text[end+1] == '\n' {
			return start, end, skipped, true
		}
		skipped++
		from = end + 1
	}
	return 0, 0, skipped, false
}

func leadingRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
