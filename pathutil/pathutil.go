// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package pathutil normalizes rpath/runpath strings the way a dynamic
// linker would: expanding $ORIGIN and collapsing duplicated slashes,
// without touching ".." segments. Grounded on the colon-delimited search
// path handling in other_examples' dynlib cache reader.
package pathutil

import "strings"

// Normalize expands every occurrence of "$ORIGIN" in path to origin and
// collapses every run of "/" into a single "/". It deliberately does not
// collapse ".." segments: "$ORIGIN/../lib" with origin "/pkg/bin" becomes
// "/pkg/bin/../lib", not "/pkg/lib".
func Normalize(raw, origin string) string {
	s := strings.ReplaceAll(raw, "$ORIGIN", origin)
	s = strings.ReplaceAll(s, "${ORIGIN}", origin)
	return collapseSlashes(s)
}

func collapseSlashes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevSlash := false
	for _, r := range s {
		if r == '/' {
			if prevSlash {
				continue
			}
			prevSlash = true
		} else {
			prevSlash = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Split splits a colon-delimited search path into its non-empty segments.
func Split(colonList string) []string {
	if colonList == "" {
		return nil
	}
	parts := strings.Split(colonList, ":")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
