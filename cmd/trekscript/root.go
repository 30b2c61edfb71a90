/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"trekscript/internal/config"
	"trekscript/internal/corpus"
	"trekscript/internal/episodes"
	applog "trekscript/internal/log"
	"trekscript/internal/script"
	"trekscript/internal/version"

	"github.com/spf13/cobra"
)

// app carries the effective configuration shared by all commands.
type app struct {
	cfg      config.AppConfig
	password string

	scripts  string
	indexCSV string
	series   string
	workers  int
	dbPath   string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "trekscript",
		Short: "Parse Star Trek transcripts into scenes and dialogue lines",
		Long: `trekscript reads the raw transcript corpus (all_scripts_raw.json), splits
every episode into scenes and speaker-attributed lines, and extracts the
title, stardate and airdate.

The parsed corpus can be:
  - summarized per episode (parse, scenes)
  - exported as CSV, JSON or screenplay PDF (export)
  - indexed for full-text search in SQLite (index, search)
  - pushed to PostgreSQL (push)`,
		Version:       version.String(),
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.scripts, "scripts", "", "transcript corpus JSON (default from config)")
	root.PersistentFlags().StringVar(&a.indexCSV, "index-csv", "", "episode title index CSV (default from config)")
	root.PersistentFlags().StringVar(&a.series, "series", "", "restrict to one series, e.g. TNG")
	root.PersistentFlags().IntVar(&a.workers, "workers", 0, "parse workers (default from config)")

	root.AddCommand(
		newParseCmd(a),
		newScenesCmd(a),
		newExportCmd(a),
		newIndexCmd(a),
		newSearchCmd(a),
		newPushCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup loads config, applies flag overrides and initializes logging.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, pw, err := config.Load()
	if err != nil {
		return err
	}
	if a.scripts != "" {
		cfg.Corpus.ScriptsPath = a.scripts
	}
	if a.indexCSV != "" {
		cfg.Corpus.IndexCSV = a.indexCSV
	}
	if a.workers > 0 {
		cfg.Parse.Workers = a.workers
	}
	a.cfg, a.password = cfg, pw

	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
		Console:   cmd.ErrOrStderr(),
	})
	applog.WithComponent("cli").Debug("start", slog.String("cmd", cmd.CommandPath()))
	return nil
}

// titles loads the episode title index. A missing index file is not fatal:
// titles then come from the transcript header.
func (a *app) titles() (script.TitleIndex, error) {
	if a.cfg.Corpus.IndexCSV == "" {
		return nil, nil
	}
	idx, err := episodes.Load(a.cfg.Corpus.IndexCSV)
	if errors.Is(err, os.ErrNotExist) {
		applog.WithComponent("cli").Warn("episode index not found; using transcript titles",
			slog.String("path", a.cfg.Corpus.IndexCSV))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return idx, nil
}

func (a *app) indexPath() string {
	if a.dbPath != "" {
		return a.dbPath
	}
	return a.cfg.Index.Path
}

func (a *app) loadCorpus() (*corpus.Corpus, error) {
	return corpus.Load(a.cfg.Corpus.ScriptsPath)
}

// parseSelected parses the corpus, or one series when --series is set.
func (a *app) parseSelected(ctx context.Context) (*corpus.Result, error) {
	c, err := a.loadCorpus()
	if err != nil {
		return nil, err
	}
	entries := c.Entries
	if a.series != "" {
		entries = c.Select(a.series)
		if len(entries) == 0 {
			return nil, fmt.Errorf("series %q not in corpus (have %v)", a.series, c.Series())
		}
	}
	titles, err := a.titles()
	if err != nil {
		return nil, err
	}
	return corpus.ParseAll(ctx, entries, titles, a.cfg.Parse.Workers)
}

// parseOne parses a single episode.
func (a *app) parseOne(series string, number int) (*script.Episode, error) {
	c, err := a.loadCorpus()
	if err != nil {
		return nil, err
	}
	e, err := c.Episode(series, number)
	if err != nil {
		return nil, err
	}
	titles, err := a.titles()
	if err != nil {
		return nil, err
	}
	return script.Parse(e.Series, e.Number, e.Text, titles)
}
