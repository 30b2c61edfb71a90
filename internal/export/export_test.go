/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"trekscript/internal/script"
	"trekscript/internal/table"
)

const transcript = "Star Trek The Naked Now The Naked Now Stardate: 41209.2 Original Airdate: 5 Oct, 1987\n\n" +
	"[Bridge]\nPICARD: Report.\nRIKER [OC]: All quiet, \"sir\".\nPICARD: Engage.\n\n" +
	"[Ten Forward]\n(Music)\n"

func testEpisodes(t *testing.T) []*script.Episode {
	t.Helper()
	a, err := script.Parse("TNG", 3, transcript, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	b, err := script.Parse("TOS", 1, "Pilot\n[Bridge]\nKIRK: Café au lait, Mr Spock?\n", nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return []*script.Episode{a, b}
}

func TestWriteLinesCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteLinesCSV(&buf, table.Lines(testEpisodes(t)...)); err != nil {
		t.Fatalf("WriteLinesCSV: %v", err)
	}
	recs, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back csv: %v", err)
	}
	if len(recs) != 5 {
		t.Fatalf("expected header + 4 rows, got %d", len(recs))
	}
	if strings.Join(recs[0], ",") != strings.Join(table.LineHeader, ",") {
		t.Fatalf("unexpected header %v", recs[0])
	}
	if recs[2][6] != "RIKER" || recs[2][7] != "All quiet, \"sir\"." {
		t.Fatalf("unexpected quoted row %v", recs[2])
	}
}

func TestWriteEpisodesCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteEpisodesCSV(&buf, table.Episodes(testEpisodes(t)...)); err != nil {
		t.Fatalf("WriteEpisodesCSV: %v", err)
	}
	want := "series,episode,title,stardate,airdate\n" +
		"TNG,3,The Naked Now,41209.2,\"5 Oct, 1987\"\n" +
		"TOS,1,Title error,Not given,Not given\n"
	if buf.String() != want {
		t.Fatalf("unexpected csv:\n%s", buf.String())
	}
}

func TestBuildLinesGroupsByCharacter(t *testing.T) {
	doc := BuildLines(testEpisodes(t)...)
	ep := doc["TNG"]["episode 3"]
	if got := ep["PICARD"]; len(got) != 2 || got[0] != "Report." || got[1] != "Engage." {
		t.Fatalf("unexpected PICARD lines %q", got)
	}
	if _, ok := ep["RIKER [OC]"]; ok {
		t.Fatalf("qualifier should be stripped from character keys")
	}
	if len(doc["TOS"]["episode 1"]["KIRK"]) != 1 {
		t.Fatalf("missing TOS lines: %+v", doc["TOS"])
	}
}

func TestLinesJSONValidates(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteLinesJSON(&buf, BuildLines(testEpisodes(t)...)); err != nil {
		t.Fatalf("WriteLinesJSON: %v", err)
	}
	if err := ValidateLinesJSON(buf.Bytes()); err != nil {
		t.Fatalf("exported document should validate: %v", err)
	}
	var back LinesDocument
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back["TNG"]["episode 3"]["PICARD"][1] != "Engage." {
		t.Fatalf("unexpected round trip: %+v", back)
	}
}

func TestValidateLinesJSONRejectsBadShapes(t *testing.T) {
	bad := []string{
		`{"TOS": {"pilot": {}}}`,
		`{"TOS": {"episode 1": {"KIRK": "not a list"}}}`,
		`{"TOS": {"episode 1": {"KIRK": [1]}}}`,
		`[]`,
	}
	for _, doc := range bad {
		if err := ValidateLinesJSON([]byte(doc)); err == nil {
			t.Fatalf("expected validation error for %s", doc)
		}
	}
}

func TestWriteEpisodePDF(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteEpisodePDF(&buf, testEpisodes(t)[0], PDFOptions{}); err != nil {
		t.Fatalf("WriteEpisodePDF: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("output is not a PDF")
	}
	if err := WriteEpisodePDF(&buf, nil, PDFOptions{}); err == nil {
		t.Fatalf("expected error for nil episode")
	}
}

func TestBatchExport(t *testing.T) {
	out := t.TempDir()
	paths, err := BatchExport(testEpisodes(t), BatchOptions{Formats: []string{"csv", "JSON", "pdf"}, OutDir: out, PDF: PDFOptions{PageSize: "Letter"}})
	if err != nil {
		t.Fatalf("BatchExport: %v", err)
	}
	want := []string{
		filepath.Join(out, LinesCSVName),
		filepath.Join(out, EpisodesCSVName),
		filepath.Join(out, LinesJSONName),
		filepath.Join(out, "pdf", "TNG", "TNG-3.pdf"),
		filepath.Join(out, "pdf", "TOS", "TOS-1.pdf"),
	}
	if strings.Join(paths, "\n") != strings.Join(want, "\n") {
		t.Fatalf("unexpected outputs:\n%s", strings.Join(paths, "\n"))
	}
	for _, p := range paths {
		st, err := os.Stat(p)
		if err != nil || st.Size() == 0 {
			t.Fatalf("output %s missing or empty: %v", p, err)
		}
	}
}

func TestBatchExportErrors(t *testing.T) {
	if _, err := BatchExport(nil, BatchOptions{OutDir: t.TempDir()}); err == nil {
		t.Fatalf("expected error without episodes")
	}
	if _, err := BatchExport(testEpisodes(t), BatchOptions{Formats: []string{"png"}, OutDir: t.TempDir()}); err == nil {
		t.Fatalf("expected error for unknown format")
	}
	if got := presetDefaultFormats(PresetPrint); len(got) != 1 || got[0] != "pdf" {
		t.Fatalf("print preset formats = %v", got)
	}
}
