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

package main

import (
	"fmt"
	"strings"

	"github.com/pkgdepdb/pkgdepdb/match"
	"github.com/pkgdepdb/pkgdepdb/query"
)

// errFilterMalformed is RuleMalformed for the --filter= DSL (spec.md §7:
// "invalid --rule=/--filter= syntax -- exits 1 before any DB mutation").
var errFilterMalformed = fmt.Errorf("malformed --filter")

var filterAxes = map[string]query.Axis{
	"name":          query.AxisName,
	"group":         query.AxisGroup,
	"depends":       query.AxisDepends,
	"optdepends":    query.AxisOptDepends,
	"makedepends":   query.AxisMakeDepends,
	"alldepends":    query.AxisAllDepends,
	"provides":      query.AxisProvides,
	"conflicts":     query.AxisConflicts,
	"replaces":      query.AxisReplaces,
	"contains":      query.AxisContains,
	"pkglibdepends": query.AxisPkgLibDepends,
	"pkglibrpath":   query.AxisPkgLibRPath,
	"pkglibrunpath": query.AxisPkgLibRunPath,
	"pkglibinterp":  query.AxisPkgLibInterp,
	"libname":       query.AxisLibName,
	"libdepends":    query.AxisLibDepends,
	"libpath":       query.AxisLibPath,
	"librpath":      query.AxisLibRPath,
	"librunpath":    query.AxisLibRunPath,
	"libinterp":     query.AxisLibInterp,
	"file":          query.AxisFile,
	"broken":        query.AxisBroken,
}

// parseFilter parses one --filter= argument: [!]<axis>(=|:|/.../)VALUE, or
// bare "[!]broken" for the intrinsic predicate that takes no value
// (spec.md §6).
func parseFilter(raw string) (query.Filter, error) {
	negate := false
	if strings.HasPrefix(raw, "!") {
		negate = true
		raw = raw[1:]
	}

	if raw == "broken" {
		return query.NewFilter(query.AxisBroken, nil, negate), nil
	}

	opIdx := strings.IndexAny(raw, "=:/")
	if opIdx < 0 {
		return query.Filter{}, fmt.Errorf("%w: %q: missing =, : or / operator", errFilterMalformed, raw)
	}
	axisName, rest := raw[:opIdx], raw[opIdx:]
	axis, ok := filterAxes[axisName]
	if !ok {
		return query.Filter{}, fmt.Errorf("%w: %q: unknown axis %q", errFilterMalformed, raw, axisName)
	}

	var kind match.Kind
	var value string
	switch rest[0] {
	case '=':
		kind, value = match.KindExact, rest[1:]
	case ':':
		kind, value = match.KindGlob, rest[1:]
	case '/':
		if len(rest) < 2 || rest[len(rest)-1] != '/' {
			return query.Filter{}, fmt.Errorf("%w: %q: unterminated regex", errFilterMalformed, raw)
		}
		kind, value = match.KindRegex, rest[1:len(rest)-1]
	}

	pred, err := match.NewPredicate(kind, value, false, false)
	if err != nil {
		return query.Filter{}, fmt.Errorf("%w: %v", errFilterMalformed, err)
	}
	return query.NewFilter(axis, pred, negate), nil
}

// parseFilters parses every --filter= argument, stopping at the first
// error per spec.md §7's "exits 1 before any DB mutation" policy.
func parseFilters(raws []string) ([]query.Filter, error) {
	out := make([]query.Filter, 0, len(raws))
	for _, raw := range raws {
		f, err := parseFilter(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}
