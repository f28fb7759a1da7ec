// Copyright 2026 Klartext Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import "strings"

// StripCodeFences removes markdown code fences some models wrap around
// JSON output despite JSON mode.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// RepairJSON fixes the malformation local models produce most often: an
// object key missing its opening quote, as in `{value": "x"}`. Anything it
// does not recognize passes through unchanged.
func RepairJSON(s string) string {
	var out strings.Builder
	out.Grow(len(s) + 16)

	runes := []rune(s)
	i := 0
	for i < len(runes) {
		ch := runes[i]
		out.WriteRune(ch)
		i++
		if ch != '{' && ch != ',' {
			continue
		}

		// Whitespace between the delimiter and a possible key.
		for i < len(runes) && (runes[i] == ' ' || runes[i] == '\n' || runes[i] == '\t') {
			out.WriteRune(runes[i])
			i++
		}
		if i >= len(runes) || runes[i] == '"' || !isIdentRune(runes[i]) {
			continue
		}

		// A bare identifier directly followed by `":` is a key that lost
		// its opening quote.
		j := i
		for j < len(runes) && isIdentRune(runes[j]) {
			j++
		}
		if j+1 < len(runes) && runes[j] == '"' && runes[j+1] == ':' {
			out.WriteRune('"')
		}
		for ; i < j; i++ {
			out.WriteRune(runes[i])
		}
	}

	return out.String()
}

func isIdentRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
}
