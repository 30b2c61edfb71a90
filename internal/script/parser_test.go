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
	"testing"
)

const sampleTranscript = "Star Trek The Naked Now The Naked Now Stardate: 41209.2 Original Airdate: 5 Oct, 1987\n\n\n" +
	"[Bridge] \nPICARD: Captain's log. \nRIKER: Sir, \nwe are receiving a signal.\n\n" +
	"[Engineering}\nLAFORGE [OC]: Engineering here.\n(The lights flicker)\nDATA: Fascinating.\n\n" +
	"[Ready room)\n"

func TestParseEpisode(t *testing.T) {
	ep, err := Parse("TNG", 3, sampleTranscript, nil)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if ep.Title != "The Naked Now" {
		t.Fatalf("unexpected title %q", ep.Title)
	}
	if ep.Stardate != "41209.2" || ep.Airdate != "5 Oct, 1987" {
		t.Fatalf("unexpected stardate/airdate %q / %q", ep.Stardate, ep.Airdate)
	}
	headings := []string{"Bridge", "Engineering", "Ready room"}
	if len(ep.Scenes) != len(headings) {
		t.Fatalf("expected %d scenes, got %d: %+v", len(headings), len(ep.Scenes), ep.Scenes)
	}
	for i, h := range headings {
		if ep.Scenes[i].Heading != h {
			t.Fatalf("scene %d heading = %q, want %q", i, ep.Scenes[i].Heading, h)
		}
	}

	lines := ep.Lines()
	if len(lines[0]) != 2 || lines[0][1].Text != "Sir, we are receiving a signal." {
		t.Fatalf("unexpected bridge lines %+v", lines[0])
	}
	if len(lines[1]) != 2 {
		t.Fatalf("unexpected engineering lines %+v", lines[1])
	}
	if got := CharacterName(lines[1][0].Speaker); got != "LAFORGE" {
		t.Fatalf("expected LAFORGE, got %q", got)
	}
	if lines[1][0].Text != "Engineering here. (The lights flicker)" {
		t.Fatalf("unexpected engineering text %q", lines[1][0].Text)
	}
	if len(lines[2]) != 0 {
		t.Fatalf("ready room should have no dialogue, got %+v", lines[2])
	}
}

func TestParseUsesTitleIndex(t *testing.T) {
	ep, err := Parse("TNG", 2, sampleTranscript, mapTitles{"TNG/2": "The Naked Now"})
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if ep.Title != "The Naked Now" || ep.Number != 2 || ep.Series != "TNG" {
		t.Fatalf("unexpected episode header %+v", ep)
	}
}

func TestParseNoScenesNamesEpisode(t *testing.T) {
	_, err := Parse("TOS", 12, "KIRK: There are no headings.\n", nil)
	if !errors.Is(err, ErrNoScenes) {
		t.Fatalf("expected ErrNoScenes, got %v", err)
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if pe.Series != "TOS" || pe.Number != 12 {
		t.Fatalf("unexpected episode in error: %+v", pe)
	}
	if pe.Error() != "parse TOS episode 12: no scenes found" {
		t.Fatalf("unexpected message %q", pe.Error())
	}
}
