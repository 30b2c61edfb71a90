/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"trekscript/internal/script"
	"trekscript/internal/table"
)

// PDFOptions controls screenplay PDF export.
// Units are millimetres. Built-in Helvetica is used, so text outside
// Windows-1252 is replaced.
type PDFOptions struct {
	PageSize string  // "A4" (default) or "Letter"
	FontSize float64 // dialogue size in pt; 0 means 11
	Margin   float64 // page margin; 0 means 20
}

func (o PDFOptions) withDefaults() PDFOptions {
	if o.PageSize == "" {
		o.PageSize = "A4"
	}
	if o.FontSize <= 0 {
		o.FontSize = 11
	}
	if o.Margin <= 0 {
		o.Margin = 20
	}
	return o
}

// WriteEpisodePDF renders one episode as a screenplay: a title block, then
// every scene heading followed by its cues and dialogue.
func WriteEpisodePDF(w io.Writer, ep *script.Episode, opt PDFOptions) error {
	if ep == nil {
		return fmt.Errorf("episode is nil")
	}
	opt = opt.withDefaults()

	pdf := gofpdf.New("P", "mm", opt.PageSize, "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(opt.Margin, opt.Margin, opt.Margin)
	pdf.SetAutoPageBreak(true, opt.Margin)
	pdf.SetTitle(fmt.Sprintf("%s %d: %s", ep.Series, ep.Number, ep.Title), true)
	pdf.SetCreator("trekscript", false)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-opt.Margin / 2)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 5, fmt.Sprintf("%s %d  -  %d/{nb}", ep.Series, ep.Number, pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	lh := opt.FontSize * 0.5 // line height in mm
	pageW, _ := pdf.GetPageSize()
	textW := pageW - 2*opt.Margin

	pdf.SetFont("Helvetica", "B", opt.FontSize+7)
	pdf.MultiCell(0, lh*1.6, tr(ep.Title), "", "C", false)
	pdf.SetFont("Helvetica", "", opt.FontSize)
	pdf.CellFormat(0, lh, tr(fmt.Sprintf("%s episode %d", ep.Series, ep.Number)), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, lh, tr(fmt.Sprintf("Stardate: %s    Airdate: %s", ep.Stardate, ep.Airdate)), "", 1, "C", false, 0, "")
	pdf.Ln(lh)

	for i, lines := range ep.Lines() {
		pdf.Ln(lh / 2)
		pdf.SetFont("Helvetica", "B", opt.FontSize)
		heading := fmt.Sprintf("%d. %s", i+1, strings.ToUpper(table.SceneLocation(ep.Scenes[i].Heading)))
		pdf.MultiCell(0, lh, tr(heading), "B", "L", false)
		pdf.Ln(lh / 2)
		for _, ln := range lines {
			pdf.SetX(opt.Margin + textW*0.3)
			pdf.SetFont("Helvetica", "B", opt.FontSize)
			pdf.CellFormat(textW*0.7, lh, tr(ln.Speaker), "", 1, "L", false, 0, "")
			pdf.SetX(opt.Margin + textW*0.15)
			pdf.SetFont("Helvetica", "", opt.FontSize)
			pdf.MultiCell(textW*0.7, lh, tr(ln.Text), "", "L", false)
			pdf.Ln(lh / 3)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// WriteEpisodePDFFile renders the episode to outPath, creating parent directories.
func WriteEpisodePDFFile(outPath string, ep *script.Episode, opt PDFOptions) (err error) {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return WriteEpisodePDF(f, ep, opt)
}
