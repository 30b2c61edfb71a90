/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0
 */

package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"trekscript/internal/script"
	"trekscript/internal/table"
)

// PresetName represents a named export preset.
type PresetName string

const (
	PresetData  PresetName = "data"
	PresetPrint PresetName = "print"
)

// File names written by Batch into OutDir.
const (
	LinesCSVName    = "lines.csv"
	EpisodesCSVName = "episodes.csv"
	LinesJSONName   = "all_series_lines.json"
)

// BatchOptions controls batch export across formats.
//
// Path semantics:
//   - If OutDir is empty it defaults to "exports/<preset>".
//   - csv writes lines.csv and episodes.csv, json writes all_series_lines.json.
//   - pdf writes one file per episode under pdf/<series>/<series>-<n>.pdf.
type BatchOptions struct {
	Preset  PresetName
	Formats []string // allowed: csv, json, pdf; empty means preset defaults
	OutDir  string
	PDF     PDFOptions
}

// BatchExport writes every requested format for the given episodes and
// returns the paths it wrote.
func BatchExport(eps []*script.Episode, opt BatchOptions) ([]string, error) {
	if len(eps) == 0 {
		return nil, fmt.Errorf("no episodes to export")
	}
	formats := opt.Formats
	if len(formats) == 0 {
		formats = presetDefaultFormats(opt.Preset)
	}
	baseOut := opt.OutDir
	if baseOut == "" {
		preset := opt.Preset
		if preset == "" {
			preset = PresetData
		}
		baseOut = filepath.Join("exports", string(preset))
	}
	if err := os.MkdirAll(baseOut, 0o755); err != nil {
		return nil, fmt.Errorf("ensure out dir: %w", err)
	}

	var written []string
	for _, f := range formats {
		switch strings.ToLower(strings.TrimSpace(f)) {
		case "csv":
			var lines, episodes bytes.Buffer
			if err := WriteLinesCSV(&lines, table.Lines(eps...)); err != nil {
				return written, err
			}
			if err := WriteEpisodesCSV(&episodes, table.Episodes(eps...)); err != nil {
				return written, err
			}
			for _, out := range []struct {
				name string
				buf  *bytes.Buffer
			}{{LinesCSVName, &lines}, {EpisodesCSVName, &episodes}} {
				p := filepath.Join(baseOut, out.name)
				if err := os.WriteFile(p, out.buf.Bytes(), 0o644); err != nil {
					return written, fmt.Errorf("write %s: %w", out.name, err)
				}
				written = append(written, p)
			}
		case "json":
			var buf bytes.Buffer
			if err := WriteLinesJSON(&buf, BuildLines(eps...)); err != nil {
				return written, err
			}
			if err := ValidateLinesJSON(buf.Bytes()); err != nil {
				return written, err
			}
			p := filepath.Join(baseOut, LinesJSONName)
			if err := os.WriteFile(p, buf.Bytes(), 0o644); err != nil {
				return written, fmt.Errorf("write %s: %w", LinesJSONName, err)
			}
			written = append(written, p)
		case "pdf":
			for _, ep := range eps {
				p := filepath.Join(baseOut, "pdf", ep.Series, fmt.Sprintf("%s-%d.pdf", ep.Series, ep.Number))
				if err := WriteEpisodePDFFile(p, ep, opt.PDF); err != nil {
					return written, fmt.Errorf("pdf %s %d: %w", ep.Series, ep.Number, err)
				}
				written = append(written, p)
			}
		default:
			return written, fmt.Errorf("unknown format: %s", f)
		}
	}
	return written, nil
}

func presetDefaultFormats(p PresetName) []string {
	switch p {
	case PresetPrint:
		return []string{"pdf"}
	case PresetData:
		return []string{"csv", "json"}
	default:
		return []string{"csv", "json"}
	}
}
