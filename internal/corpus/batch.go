/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package corpus

import (
	"context"
	"log/slog"
	"sync"

	applog "trekscript/internal/log"
	"trekscript/internal/script"

	"golang.org/x/sync/errgroup"
)

// progressEvery is how often, in episodes per series, progress is logged.
const progressEvery = 10

// Failure records an episode that could not be parsed.
type Failure struct {
	Series string
	Number int
	Err    error
}

// Result is the outcome of a batch parse. Episodes keep the input order and
// skip failed entries.
type Result struct {
	Episodes []*script.Episode
	Failures []Failure
	Asides   int
}

// ParseAll parses entries on up to workers goroutines. A failing episode is
// recorded in Result.Failures and does not stop the batch. Cancelling ctx
// stops scheduling further episodes; the partial result is returned with
// ctx's error.
func ParseAll(ctx context.Context, entries []Entry, titles script.TitleIndex, workers int) (*Result, error) {
	l := applog.WithOperation(applog.WithComponent("corpus"), "parse_all")
	if workers < 1 {
		workers = 1
	}

	parsed := make([]*script.Episode, len(entries))
	errs := make([]error, len(entries))

	total := map[string]int{}
	for _, e := range entries {
		total[e.Series]++
	}
	var mu sync.Mutex
	done := map[string]int{}

	var g errgroup.Group
	g.SetLimit(workers)
	for i, e := range entries {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			ectx := applog.ContextWithEpisode(ctx, e.Series, e.Number)
			ep, err := script.Parse(e.Series, e.Number, e.Text, titles)
			if err != nil {
				l.WarnContext(ectx, "episode skipped", slog.Any("err", err))
				errs[i] = err
			} else {
				parsed[i] = ep
				if n := asides(ep); n > 0 {
					l.DebugContext(ectx, "inline bracket runs kept in scene bodies", slog.Int("asides", n))
				}
			}

			mu.Lock()
			done[e.Series]++
			n := done[e.Series]
			mu.Unlock()
			if n%progressEvery == 0 {
				l.InfoContext(ctx, "progress", slog.String("series", e.Series), slog.Int("episodes", n))
			}
			if n == total[e.Series] {
				l.InfoContext(ctx, "series complete", slog.String("series", e.Series), slog.Int("episodes", n))
			}
			return nil
		})
	}
	_ = g.Wait()

	res := &Result{}
	for i, e := range entries {
		switch {
		case parsed[i] != nil:
			res.Episodes = append(res.Episodes, parsed[i])
			res.Asides += asides(parsed[i])
		case errs[i] != nil:
			res.Failures = append(res.Failures, Failure{Series: e.Series, Number: e.Number, Err: errs[i]})
		}
	}
	l.Info("batch finished",
		slog.Int("parsed", len(res.Episodes)),
		slog.Int("failed", len(res.Failures)),
		slog.Int("asides", res.Asides))
	return res, ctx.Err()
}

func asides(ep *script.Episode) int {
	n := 0
	for _, sc := range ep.Scenes {
		n += sc.Asides
	}
	return n
}
