/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package script turns raw episode transcripts into scenes and dialogue lines.
//
// Transcript conventions handled:
//   - Scene headings: "[Location]" on a line of its own.
//   - Dialogue: "NAME:" or "NAME [OC]:" at a line start, text until the next cue.
//   - Annotations typed with mismatched brackets ("{Bridge]", "[Bridge)") are repaired.
//   - Header metadata: "Stardate:", "Mission date:", "Original Airdate:".
//
// The package does no I/O and keeps no state between calls.
package script

// Parse normalizes one transcript and derives its scenes and header metadata.
// titles may be nil, in which case the title is guessed from the header text.
// Errors are wrapped in a *ParseError naming the episode.
func Parse(series string, number int, text string, titles TitleIndex) (*Episode, error) {
	wrap := func(err error) error { return &ParseError{Series: series, Number: number, Err: err} }

	norm, err := Normalize(text)
	if err != nil {
		return nil, wrap(err)
	}
	scenes, err := SplitScenes(norm)
	if err != nil {
		return nil, wrap(err)
	}
	words := Words(norm)
	return &Episode{
		Series:     series,
		Number:     number,
		Title:      ResolveTitle(titles, series, number, words),
		Stardate:   Stardate(words),
		Airdate:    Airdate(words),
		Normalized: norm,
		Scenes:     scenes,
	}, nil
}
