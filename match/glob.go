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

// Package match implements the three predicate kinds used by the rules
// engine and the query interface (§4.G): exact, glob, and regex.
package match

import "strings"

// Glob reports whether name matches the POSIX-like glob pattern: "?"
// matches any one character, "*" matches zero or more, and "[set]"
// matches a single character in the set (or, with a leading "^", outside
// it). An unterminated "[" reverts to a literal "[". This is the
// spec-exact implementation (correctness-critical, see spec.md §8
// property 6); CompileFast in fast.go offers a gobwas/glob-backed fast
// path for the well-formed subset of patterns this function also
// handles, used where the same pattern is matched against many names.
func Glob(pattern, name string) bool {
	pat, s := pattern, name
	for {
		if pat == "" {
			return s == ""
		}
		switch pat[0] {
		case '*':
			i, mandatory := 0, 0
			for i < len(pat) && (pat[i] == '*' || pat[i] == '?') {
				if pat[i] == '?' {
					mandatory++
				}
				i++
			}
			rest := pat[i:]
			if len(s) < mandatory {
				return false
			}
			tail := s[mandatory:]

			// If a character class follows the star-run, parse it once and
			// reuse it at every candidate position instead of re-parsing on
			// each recursive call.
			if len(rest) > 0 && rest[0] == '[' {
				if setMatch, setLen, ok := parseSet(rest); ok {
					afterSet := rest[setLen:]
					for j := 0; j <= len(tail); j++ {
						if j < len(tail) && setMatch(tail[j]) {
							if Glob(afterSet, tail[j+1:]) {
								return true
							}
						}
					}
					return false
				}
			}

			for j := 0; j <= len(tail); j++ {
				if Glob(rest, tail[j:]) {
					return true
				}
			}
			return false
		case '?':
			if len(s) == 0 {
				return false
			}
			pat, s = pat[1:], s[1:]
		case '[':
			setMatch, setLen, ok := parseSet(pat)
			if !ok {
				// Unterminated "[": fall back to matching it literally.
				if len(s) == 0 || s[0] != '[' {
					return false
				}
				pat, s = pat[1:], s[1:]
				continue
			}
			if len(s) == 0 || !setMatch(s[0]) {
				return false
			}
			pat, s = pat[setLen:], s[1:]
		default:
			if len(s) == 0 || s[0] != pat[0] {
				return false
			}
			pat, s = pat[1:], s[1:]
		}
	}
}

// parseSet parses a "[set]" or "[^set]" character class starting at
// pat[0] == '['. It returns a matcher, the number of pattern bytes the
// class consumes (including the brackets), and whether the class was
// well-formed (a closing "]" was found).
func parseSet(pat string) (matcher func(byte) bool, length int, ok bool) {
	i := 1
	negate := false
	if i < len(pat) && pat[i] == '^' {
		negate = true
		i++
	}
	start := i
	rel := strings.IndexByte(pat[i:], ']')
	if rel < 0 {
		return nil, 0, false
	}
	closeIdx := i + rel
	set := pat[start:closeIdx]
	length = closeIdx + 1
	matcher = func(c byte) bool {
		m := matchSet(set, c)
		if negate {
			return !m
		}
		return m
	}
	return matcher, length, true
}

// matchSet tests c against a bracket-expression body, supporting "a-z"
// style ranges in addition to literal members.
func matchSet(set string, c byte) bool {
	for i := 0; i < len(set); i++ {
		if i+2 < len(set) && set[i+1] == '-' {
			if set[i] <= c && c <= set[i+2] {
				return true
			}
			i += 2
			continue
		}
		if set[i] == c {
			return true
		}
	}
	return false
}
