/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"trekscript/internal/script"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema/lines.schema.json
var linesSchema []byte

// LinesDocument groups spoken lines as series -> "episode N" -> character -> lines.
// Characters are keyed by speaker without qualifier; lines keep cue order.
type LinesDocument map[string]map[string]map[string][]string

// EpisodeKey renders the document key for an episode number.
func EpisodeKey(n int) string { return fmt.Sprintf("episode %d", n) }

// BuildLines assembles the nested lines document. Episodes without any
// dialogue still get an (empty) entry.
func BuildLines(eps ...*script.Episode) LinesDocument {
	doc := LinesDocument{}
	for _, ep := range eps {
		series, ok := doc[ep.Series]
		if !ok {
			series = map[string]map[string][]string{}
			doc[ep.Series] = series
		}
		chars := map[string][]string{}
		for _, lines := range ep.Lines() {
			for _, ln := range lines {
				name := script.StripQualifier(ln.Speaker)
				chars[name] = append(chars[name], ln.Text)
			}
		}
		series[EpisodeKey(ep.Number)] = chars
	}
	return doc
}

// WriteLinesJSON encodes the document, indented.
func WriteLinesJSON(w io.Writer, doc LinesDocument) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// ValidateLinesJSON checks a serialized lines document against the embedded schema.
func ValidateLinesJSON(data []byte) error {
	res, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(linesSchema), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("validate lines document: %w", err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return errors.New("lines document invalid: " + strings.Join(msgs, "; "))
}
