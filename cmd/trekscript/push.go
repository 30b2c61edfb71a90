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

	"trekscript/internal/backend"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newPushCmd(a *app) *cobra.Command {
	var dsn string
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Parse the corpus and load it into PostgreSQL",
		Long: `Parse the corpus and upsert every episode into PostgreSQL, replacing the
lines of each pushed episode. The schema is migrated on connect.
The password comes from TREK_PG_PASSWORD or the OS keyring.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dsn != "" {
				a.cfg.Postgres.DSN = dsn
			}
			res, err := a.parseSelected(cmd.Context())
			if err != nil {
				return err
			}
			printFailures(cmd, res.Failures)
			st, err := backend.Push(cmd.Context(), a.pgOptions(), res.Episodes)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pushed %s episodes, %s lines (run %s)\n",
				humanize.Comma(int64(st.Episodes)), humanize.Comma(st.Lines), st.RunID)
			return nil
		},
	}
	cmd.Flags().StringVar(&dsn, "dsn", "", "postgres connection string (default from config)")
	return cmd
}

func (a *app) pgOptions() backend.ConnectOptions {
	return backend.ConnectOptions{
		DSN:      a.cfg.Postgres.DSN,
		User:     a.cfg.Postgres.User,
		Password: a.password,
		Timeout:  a.cfg.Postgres.Timeout(),
	}
}
