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
	"io"

	"trekscript/internal/backend"
	"trekscript/internal/index"

	"github.com/dustin/go-humanize/english"
	"github.com/spf13/cobra"
)

func newSearchCmd(a *app) *cobra.Command {
	var (
		q       index.Query
		episode int
		usePG   bool
	)
	cmd := &cobra.Command{
		Use:   "search [TEXT]",
		Short: "Search dialogue lines in the index",
		Long: `Search dialogue lines. TEXT uses SQLite FTS5 syntax against the local
index, e.g. "warp core", '"make it so"', 'character:picard AND engage'.
With --pg the query runs against PostgreSQL and TEXT is matched as plain
words. Without TEXT, lines matching the filters are listed in order.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				q.Text = args[0]
			}
			q.Series = a.series
			if cmd.Flags().Changed("episode") {
				q.Episode = &episode
			}

			var hits []index.Hit
			if usePG {
				s, err := backend.Connect(cmd.Context(), a.pgOptions())
				if err != nil {
					return err
				}
				defer func() { _ = s.Close(cmd.Context()) }()
				if hits, err = s.Search(cmd.Context(), q); err != nil {
					return err
				}
			} else {
				x, err := index.Open(cmd.Context(), a.indexPath())
				if err != nil {
					return err
				}
				defer func() { _ = x.Close() }()
				if hits, err = x.Search(cmd.Context(), q); err != nil {
					return err
				}
			}
			printHits(cmd.OutOrStdout(), hits)
			fmt.Fprintf(cmd.ErrOrStderr(), "%s\n", english.Plural(len(hits), "hit", "hits"))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&a.dbPath, "db", "", "index database path (default from config)")
	f.StringVar(&q.Character, "character", "", "only lines spoken by this character")
	f.StringVar(&q.Scene, "scene", "", "only scenes whose location contains this text")
	f.IntVar(&episode, "episode", 0, "only this episode number")
	f.IntVar(&q.Limit, "limit", index.DefaultLimit, "maximum hits")
	f.IntVar(&q.Offset, "offset", 0, "skip this many hits")
	f.BoolVar(&usePG, "pg", false, "search PostgreSQL instead of the local index")
	return cmd
}

func printHits(w io.Writer, hits []index.Hit) {
	for _, h := range hits {
		text := h.Text
		if h.Snippet != "" {
			text = h.Snippet
		}
		fmt.Fprintf(w, "%s %d %q  scene %d %s  #%d  %s: %s\n",
			h.Series, h.Episode, h.EpisodeTitle, h.SceneNumber, h.SceneLoc, h.LineNumber, h.Character, text)
	}
}
