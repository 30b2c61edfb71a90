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

	"trekscript/internal/index"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newIndexCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build and inspect the SQLite line index",
	}
	cmd.PersistentFlags().StringVar(&a.dbPath, "db", "", "index database path (default from config)")

	build := &cobra.Command{
		Use:   "build",
		Short: "Parse the corpus and replace the index content",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.parseSelected(cmd.Context())
			if err != nil {
				return err
			}
			printFailures(cmd, res.Failures)
			x, err := index.Open(cmd.Context(), a.indexPath())
			if err != nil {
				return err
			}
			defer func() { _ = x.Close() }()
			runID, err := x.Rebuild(cmd.Context(), res.Episodes)
			if err != nil {
				return err
			}
			st, err := x.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %s episodes, %s lines into %s (run %s)\n",
				humanize.Comma(int64(st.Episodes)), humanize.Comma(int64(st.Lines)), x.Path(), runID)
			return nil
		},
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show what the index holds and when it was built",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := index.Open(cmd.Context(), a.indexPath())
			if err != nil {
				return err
			}
			defer func() { _ = x.Close() }()
			st, err := x.Stats(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Path:     %s\n", x.Path())
			fmt.Fprintf(out, "Schema:   %d\n", st.Schema)
			fmt.Fprintf(out, "Episodes: %s\n", humanize.Comma(int64(st.Episodes)))
			fmt.Fprintf(out, "Lines:    %s\n", humanize.Comma(int64(st.Lines)))
			if st.RunID != "" {
				fmt.Fprintf(out, "Run:      %s\n", st.RunID)
				fmt.Fprintf(out, "Built:    %s (%s)\n", st.BuiltAt.Format("2006-01-02 15:04:05"), humanize.Time(st.BuiltAt))
			}
			return nil
		},
	}

	check := &cobra.Command{
		Use:   "check",
		Short: "Run an integrity check on the index database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := index.Open(cmd.Context(), a.indexPath())
			if err != nil {
				return err
			}
			defer func() { _ = x.Close() }()
			if err := x.Check(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}

	cmd.AddCommand(build, stats, check)
	return cmd
}
