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

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind selects which of the three predicate families a Predicate uses.
type Kind int

// Predicate kinds. The --filter= DSL selects them with "=" (exact), ":"
// (glob) and "/.../" (regex); a filter with none of these is rejected.
const (
	KindExact Kind = iota
	KindGlob
	KindRegex
)

// Predicate is a single compiled match test: a kind, a pattern, and the
// case-folding and negation modifiers every axis in the query interface
// (§4.I) can carry.
type Predicate struct {
	Kind   Kind
	ICase  bool
	Negate bool

	pattern string
	re      *regexp.Regexp
	fast    Glober
}

// NewPredicate compiles pattern under kind. For KindRegex, a malformed
// pattern is reported immediately; for KindGlob it never fails to
// compile, since Glob itself has no invalid inputs (an unterminated "["
// degrades to a literal).
func NewPredicate(kind Kind, pattern string, icase, negate bool) (*Predicate, error) {
	p := &Predicate{Kind: kind, ICase: icase, Negate: negate, pattern: pattern}
	switch kind {
	case KindRegex:
		expr := pattern
		if icase {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("match: bad regex %q: %w", pattern, err)
		}
		p.re = re
	case KindGlob:
		if icase {
			p.fast = CompileFast(strings.ToLower(pattern))
		} else {
			p.fast = CompileFast(pattern)
		}
	case KindExact:
		// no compilation needed
	default:
		return nil, fmt.Errorf("match: unknown predicate kind %d", kind)
	}
	return p, nil
}

// Match applies the predicate to s, honoring ICase and Negate.
func (p *Predicate) Match(s string) bool {
	var result bool
	switch p.Kind {
	case KindExact:
		if p.ICase {
			result = strings.EqualFold(p.pattern, s)
		} else {
			result = p.pattern == s
		}
	case KindGlob:
		if p.ICase {
			result = p.fast.Match(strings.ToLower(s))
		} else {
			result = p.fast.Match(s)
		}
	case KindRegex:
		result = p.re.MatchString(s)
	}
	if p.Negate {
		return !result
	}
	return result
}

func (p *Predicate) String() string {
	return p.pattern
}
