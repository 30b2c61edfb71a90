/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"trekscript/internal/table"
)

// WriteLinesCSV writes the line table with a header row.
func WriteLinesCSV(w io.Writer, rows []table.LineRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(table.LineHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(r.Record()); err != nil {
			return fmt.Errorf("write line row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteEpisodesCSV writes the episode table with a header row.
func WriteEpisodesCSV(w io.Writer, rows []table.EpisodeRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(table.EpisodeHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(r.Record()); err != nil {
			return fmt.Errorf("write episode row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
