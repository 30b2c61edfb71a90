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

// Malformed annotation spans. Each pattern matches the shortest span from an
// opener to the first stray closer with no proper closer in between.
var (
	reBraceOpenSquareClose = regexp.MustCompile(`\{[^)}]+?\]`)
	reSquareOpenBraceClose = regexp.MustCompile(`\[[^\]{]+?\}`)
	reSquareOpenParenClose = regexp.MustCompile(`\[[^\](]+?\)`)
)

// Normalize collapses line-wrap whitespace and repairs mismatched bracket
// pairs so that scene headings are delimited by [ and ] only.
func Normalize(text string) (string, error) {
	return RepairBrackets(CollapseWhitespace(text))
}

// CollapseWhitespace removes spaces that sit directly before or after a line
// break until none remain. Applying it twice is a no-op.
func CollapseWhitespace(text string) string {
	for strings.Contains(text, "\n ") || strings.Contains(text, " \n") {
		text = strings.ReplaceAll(text, "\n ", "\n")
		text = strings.ReplaceAll(text, " \n", "\n")
	}
	return text
}

// RepairBrackets runs the three bracket repair passes in order:
//   - {Bridge]  -> [Bridge]
//   - [Bridge}  -> [Bridge]
//   - [Bridge)  -> [Bridge]
func RepairBrackets(text string) (string, error) {
	var err error
	if text, err = repairPass(text, reBraceOpenSquareClose, true); err != nil {
		return "", err
	}
	if text, err = repairPass(text, reSquareOpenBraceClose, false); err != nil {
		return "", err
	}
	return repairPass(text, reSquareOpenParenClose, false)
}

// repairPass rewrites the leftmost malformed span until re no longer matches.
// fixOpener selects whether the opening character becomes '[' or the closing
// character becomes ']'. A rewrite never creates a new match to the left of
// the rewritten span, so the scan resumes just past the span's opener.
func repairPass(text string, re *regexp.Regexp, fixOpener bool) (string, error) {
	b := []byte(text)
	pos := 0
	for rounds := 0; rounds <= len(b); rounds++ {
		loc := re.FindIndex(b[pos:])
		if loc == nil {
			return string(b), nil
		}
		start, end := pos+loc[0], pos+loc[1]
		if fixOpener {
			b[start] = '['
		} else {
			b[end-1] = ']'
		}
		pos = start + 1
	}
	return "", ErrBracketsDiverged
}
