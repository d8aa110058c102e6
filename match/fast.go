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

package match

import "github.com/gobwas/glob"

// Glober is anything that can test a string against a compiled pattern.
type Glober interface {
	Match(s string) bool
}

// fastGlob wraps a compiled github.com/gobwas/glob.Glob.
type fastGlob struct{ g glob.Glob }

func (f fastGlob) Match(s string) bool { return f.g.Match(s) }

// literalGlob falls back to the spec-exact, always-correct Glob function
// for patterns gobwas/glob cannot represent (an unterminated "[", or a
// leading "^" negation inside a bracket expression, which gobwas spells
// "!").
type literalGlob struct{ pattern string }

func (l literalGlob) Match(s string) bool { return Glob(l.pattern, s) }

// CompileFast returns a Glober for repeated matching of pattern against
// many candidate strings, as query filters do for every object's every
// dependency name against one axis predicate. It tries to hand the
// pattern to github.com/gobwas/glob, translating this package's "[^...]"
// negation into gobwas's "[!...]" spelling; patterns gobwas rejects (most
// notably an unterminated "[", which this package's Glob treats as a
// literal character) fall back to Glob itself, so behavior is always
// correct even when the fast path can't be used.
func CompileFast(pattern string) Glober {
	translated, ok := translateForGobwas(pattern)
	if !ok {
		return literalGlob{pattern}
	}
	g, err := glob.Compile(translated)
	if err != nil {
		return literalGlob{pattern}
	}
	return fastGlob{g}
}

// translateForGobwas rewrites "[^" bracket negation to gobwas's "[!" and
// reports false if pattern contains a "[" with no matching "]" (gobwas
// errors on this; Glob instead matches it literally).
func translateForGobwas(pattern string) (string, bool) {
	out := make([]byte, 0, len(pattern))
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c != '[' {
			out = append(out, c)
			continue
		}
		_, length, ok := parseSet(pattern[i:])
		if !ok {
			return "", false
		}
		body := pattern[i:i+length]
		if len(body) > 1 && body[1] == '^' {
			body = "[!" + body[2:]
		}
		out = append(out, body...)
		i += length - 1
	}
	return string(out), true
}
