/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package table flattens parsed episodes into row-oriented tables.
package table

import (
	"strconv"

	"trekscript/internal/script"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// LineHeader names the LineRow columns in Record order.
var LineHeader = []string{"series", "ep_name", "ep_number", "scene_number", "scene_loc", "line_number", "character", "line"}

// EpisodeHeader names the EpisodeRow columns in Record order.
var EpisodeHeader = []string{"series", "episode", "title", "stardate", "airdate"}

// LineRow is one spoken line. SceneNumber counts from 1 within the episode,
// LineNumber from 0 within the scene.
type LineRow struct {
	Series        string `json:"series"`
	EpisodeTitle  string `json:"ep_name"`
	EpisodeNumber int    `json:"ep_number"`
	SceneNumber   int    `json:"scene_number"`
	SceneLoc      string `json:"scene_loc"`
	LineNumber    int    `json:"line_number"`
	Character     string `json:"character"`
	Line          string `json:"line"`
}

// Record renders the row for a CSV writer.
func (r LineRow) Record() []string {
	return []string{
		r.Series,
		r.EpisodeTitle,
		strconv.Itoa(r.EpisodeNumber),
		strconv.Itoa(r.SceneNumber),
		r.SceneLoc,
		strconv.Itoa(r.LineNumber),
		r.Character,
		r.Line,
	}
}

// EpisodeRow is the header metadata of one episode.
type EpisodeRow struct {
	Series   string `json:"series"`
	Number   int    `json:"episode"`
	Title    string `json:"title"`
	Stardate string `json:"stardate"`
	Airdate  string `json:"airdate"`
}

func (r EpisodeRow) Record() []string {
	return []string{r.Series, strconv.Itoa(r.Number), r.Title, r.Stardate, r.Airdate}
}

// SceneLocation turns a raw heading into the table form: whitespace
// collapsed and title-cased ("ENGINE  room" -> "Engine Room").
func SceneLocation(heading string) string {
	return cases.Title(language.English).String(script.Clean(heading))
}

// Lines flattens the episodes into line rows, in episode, scene and cue order.
// Speakers lose their bracketed qualifier.
func Lines(eps ...*script.Episode) []LineRow {
	caser := cases.Title(language.English)
	var rows []LineRow
	for _, ep := range eps {
		for si, lines := range ep.Lines() {
			loc := caser.String(script.Clean(ep.Scenes[si].Heading))
			for li, ln := range lines {
				rows = append(rows, LineRow{
					Series:        ep.Series,
					EpisodeTitle:  ep.Title,
					EpisodeNumber: ep.Number,
					SceneNumber:   si + 1,
					SceneLoc:      loc,
					LineNumber:    li,
					Character:     script.StripQualifier(ln.Speaker),
					Line:          ln.Text,
				})
			}
		}
	}
	return rows
}

// Episodes returns one metadata row per episode.
func Episodes(eps ...*script.Episode) []EpisodeRow {
	rows := make([]EpisodeRow, 0, len(eps))
	for _, ep := range eps {
		rows = append(rows, EpisodeRow{
			Series:   ep.Series,
			Number:   ep.Number,
			Title:    ep.Title,
			Stardate: ep.Stardate,
			Airdate:  ep.Airdate,
		})
	}
	return rows
}
