/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"errors"
	"fmt"
)

// Episode is the fully parsed form of one transcript.
// It is derived in full from the raw text on every Parse call.
type Episode struct {
	Series     string
	Number     int
	Title      string
	Stardate   string
	Airdate    string
	Normalized string
	Scenes     []Scene
}

// Scene is one bracket-delimited section of a transcript.
// Delimiter is the exact source text that opened the scene (e.g. "\n[Bridge]"),
// Body runs from just after the delimiter up to the next scene opener.
// Concatenating Delimiter+Body for all scenes reproduces the scanned text.
type Scene struct {
	Heading   string
	Delimiter string
	Body      string
	Offset    int // byte offset of Delimiter in the scanned text
	Asides    int // line-start brackets inside Body that were not scene openers
}

// Line is one character cue and the dialogue that follows it.
// Speaker is the whitespace-collapsed cue without the trailing colon; it keeps
// any bracketed qualifier such as "[OC]".
// Text is the whitespace-collapsed dialogue, Raw the exact source span.
type Line struct {
	Speaker string
	Text    string
	Raw     string
}

// Sentinels used by the metadata extractors.
const (
	NotGiven   = "Not given"
	TitleError = "Title error"
)

var (
	// ErrNoScenes is returned when a transcript has no scene opener at all.
	ErrNoScenes = errors.New("no scenes found")
	// ErrBracketsDiverged is returned when a bracket repair pass does not reach a fixed point.
	ErrBracketsDiverged = errors.New("bracket repair did not converge")
)

// ParseError names the episode that failed to parse.
type ParseError struct {
	Series string
	Number int
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s episode %d: %v", e.Series, e.Number, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
