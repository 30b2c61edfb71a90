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
	"strconv"

	"trekscript/internal/corpus"
	"trekscript/internal/script"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/spf13/cobra"
)

func newParseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "parse",
		Short: "Parse the corpus and print one summary line per episode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.parseSelected(cmd.Context())
			if err != nil && res == nil {
				return err
			}
			out := cmd.OutOrStdout()
			var lines int
			for _, ep := range res.Episodes {
				n := lineCount(ep)
				lines += n
				fmt.Fprintf(out, "%-4s %4d  %-40s  stardate %-10s  airdate %-16s  %s scenes, %s lines\n",
					ep.Series, ep.Number, ep.Title, ep.Stardate, ep.Airdate,
					humanize.Comma(int64(len(ep.Scenes))), humanize.Comma(int64(n)))
			}
			printFailures(cmd, res.Failures)
			fmt.Fprintf(out, "\n%s episodes, %s lines, %s failed, %s inline bracket runs\n",
				humanize.Comma(int64(len(res.Episodes))), humanize.Comma(int64(lines)),
				humanize.Comma(int64(len(res.Failures))), humanize.Comma(int64(res.Asides)))
			return err
		},
	}
}

func newScenesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "scenes SERIES NUMBER",
		Short: "Print the scenes and dialogue lines of one episode",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("episode number %q: %w", args[1], err)
			}
			ep, err := a.parseOne(args[0], number)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %d: %s\nStardate: %s\nAirdate: %s\n", ep.Series, ep.Number, ep.Title, ep.Stardate, ep.Airdate)
			for i, lines := range ep.Lines() {
				fmt.Fprintf(out, "\n[%d] %s (%s)\n", i+1, script.Clean(ep.Scenes[i].Heading), english.Plural(len(lines), "line", "lines"))
				for _, l := range lines {
					fmt.Fprintf(out, "  %s: %s\n", l.Speaker, l.Text)
				}
			}
			return nil
		},
	}
}

func lineCount(ep *script.Episode) int {
	n := 0
	for _, lines := range ep.Lines() {
		n += len(lines)
	}
	return n
}

func printFailures(cmd *cobra.Command, failures []corpus.Failure) {
	for _, f := range failures {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s %d: %v\n", f.Series, f.Number, f.Err)
	}
}
