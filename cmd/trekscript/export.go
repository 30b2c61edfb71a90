/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"trekscript/internal/export"
	"trekscript/internal/script"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		outDir string
		preset string
		pdf    export.PDFOptions
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export parsed episodes as CSV, JSON or screenplay PDF",
	}
	cmd.PersistentFlags().StringVar(&outDir, "out", "", "output directory (default exports/<preset>)")
	cmd.PersistentFlags().StringVar(&preset, "preset", string(export.PresetData), "export preset: data or print")

	run := func(format string) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			res, err := a.parseSelected(cmd.Context())
			if err != nil {
				return err
			}
			printFailures(cmd, res.Failures)
			written, err := export.BatchExport(res.Episodes, export.BatchOptions{
				Preset:  export.PresetName(preset),
				Formats: []string{format},
				OutDir:  outDir,
				PDF:     pdf,
			})
			for _, p := range written {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "exported %s episodes to %s\n",
				humanize.Comma(int64(len(res.Episodes))), english.Plural(len(written), "file", "files"))
			return nil
		}
	}

	csvCmd := &cobra.Command{
		Use:   "csv",
		Short: "Write lines.csv and episodes.csv",
		Args:  cobra.NoArgs,
		RunE:  run("csv"),
	}
	jsonCmd := &cobra.Command{
		Use:   "json",
		Short: "Write all_series_lines.json ({series: {episode N: {character: [lines]}}})",
		Args:  cobra.NoArgs,
		RunE:  run("json"),
	}
	pdfCmd := &cobra.Command{
		Use:   "pdf [SERIES NUMBER]",
		Short: "Write screenplay PDFs, one per episode, or a single episode",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("pdf takes SERIES and NUMBER, or no arguments")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return run("pdf")(cmd, args)
			}
			number, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("episode number %q: %w", args[1], err)
			}
			ep, err := a.parseOne(args[0], number)
			if err != nil {
				return err
			}
			path := pdfName(outDir, ep)
			if err := export.WriteEpisodePDFFile(path, ep, pdf); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	pdfCmd.Flags().StringVar(&pdf.PageSize, "page", "A4", "page size: A4 or Letter")
	pdfCmd.Flags().Float64Var(&pdf.FontSize, "font-size", 11, "dialogue font size in pt")
	pdfCmd.Flags().Float64Var(&pdf.Margin, "margin", 20, "page margin in mm")

	validateCmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a lines JSON document against the export schema",
		Args:  cobra.ExactArgs(1),
		// Validation needs neither config nor corpus.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if err := export.ValidateLinesJSON(data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: valid\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(csvCmd, jsonCmd, pdfCmd, validateCmd)
	return cmd
}

func pdfName(outDir string, ep *script.Episode) string {
	if outDir == "" {
		outDir = "."
	}
	return filepath.Join(outDir, fmt.Sprintf("%s-%d.pdf", ep.Series, ep.Number))
}
