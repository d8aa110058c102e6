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

package query

import (
	"github.com/pkgdepdb/pkgdepdb/match"
	"github.com/pkgdepdb/pkgdepdb/pkgdb"
)

// Filter is the tagged variant {Axis, Predicate, negate} that spec.md §9
// recommends. The top-level negate (from the CLI's "--filter=!axis=...")
// is independent of any negation the predicate itself carries.
type Filter struct {
	Axis      Axis
	Predicate *match.Predicate
	Negate    bool
}

// NewFilter builds a Filter. axis determines whether it is later
// evaluated by MatchesPackage, MatchesObject, or MatchesString; passing
// it to the wrong one always reports false rather than panicking, since
// the CLI layer is responsible for only offering axis-appropriate
// iterators.
func NewFilter(axis Axis, pred *match.Predicate, negate bool) Filter {
	return Filter{Axis: axis, Predicate: pred, Negate: negate}
}

func (f Filter) apply(matched bool) bool {
	return matched != f.Negate
}

func anyMatch(pred *match.Predicate, values []string) bool {
	for _, v := range values {
		if pred.Match(v) {
			return true
		}
	}
	return false
}

func depNames(deps []pkgdb.Dep) []string {
	names := make([]string, len(deps))
	for i, d := range deps {
		names[i] = d.Name
	}
	return names
}

// MatchesPackage evaluates a package-axis filter against p. db supplies
// the visibility context pkglib* axes need (none currently; kept for
// symmetry with pkgdb.DB.visible and future axes).
func (f Filter) MatchesPackage(db *pkgdb.DB, p *pkgdb.Package) bool {
	_ = db
	var matched bool
	switch f.Axis {
	case AxisName:
		matched = f.Predicate.Match(p.Name)
	case AxisGroup:
		matched = anyMatch(f.Predicate, p.Groups)
	case AxisDepends:
		matched = anyMatch(f.Predicate, depNames(p.Depends))
	case AxisOptDepends:
		matched = anyMatch(f.Predicate, depNames(p.OptDepends))
	case AxisMakeDepends:
		matched = anyMatch(f.Predicate, depNames(p.MakeDepends))
	case AxisAllDepends:
		matched = anyMatch(f.Predicate, depNames(p.Depends)) ||
			anyMatch(f.Predicate, depNames(p.OptDepends)) ||
			anyMatch(f.Predicate, depNames(p.MakeDepends)) ||
			anyMatch(f.Predicate, depNames(p.CheckDepends))
	case AxisProvides:
		matched = anyMatch(f.Predicate, depNames(p.Provides))
	case AxisConflicts:
		matched = anyMatch(f.Predicate, depNames(p.Conflicts))
	case AxisReplaces:
		matched = anyMatch(f.Predicate, depNames(p.Replaces))
	case AxisContains:
		matched = anyMatch(f.Predicate, p.Filelist)
	case AxisPkgLibDepends:
		for _, o := range p.Objects {
			if anyMatch(f.Predicate, o.Needed) {
				matched = true
				break
			}
		}
	case AxisPkgLibRPath:
		matched = anyObjectOptStr(f.Predicate, p.Objects, func(o *pkgdb.Object) *string { return o.RPath })
	case AxisPkgLibRunPath:
		matched = anyObjectOptStr(f.Predicate, p.Objects, func(o *pkgdb.Object) *string { return o.RunPath })
	case AxisPkgLibInterp:
		matched = anyObjectOptStr(f.Predicate, p.Objects, func(o *pkgdb.Object) *string { return o.Interpreter })
	case AxisBroken:
		matched = packageBroken(db, p)
	default:
		return false
	}
	return f.apply(matched)
}

func anyObjectOptStr(pred *match.Predicate, objs []*pkgdb.Object, get func(*pkgdb.Object) *string) bool {
	for _, o := range objs {
		if s := get(o); s != nil && pred.Match(*s) {
			return true
		}
	}
	return false
}

// MatchesObject evaluates an object-axis filter against o.
func (f Filter) MatchesObject(db *pkgdb.DB, o *pkgdb.Object) bool {
	var matched bool
	switch f.Axis {
	case AxisLibName:
		matched = f.Predicate.Match(o.Basename)
	case AxisLibDepends:
		matched = anyMatch(f.Predicate, o.Needed)
	case AxisLibPath:
		matched = f.Predicate.Match(o.Dirname)
	case AxisLibRPath:
		matched = o.RPath != nil && f.Predicate.Match(*o.RPath)
	case AxisLibRunPath:
		matched = o.RunPath != nil && f.Predicate.Match(*o.RunPath)
	case AxisLibInterp:
		matched = o.Interpreter != nil && f.Predicate.Match(*o.Interpreter)
	case AxisBroken:
		matched = len(db.ReqMissing[o]) > 0
	default:
		return false
	}
	return f.apply(matched)
}

// MatchesString evaluates a string-axis filter (AxisFile, AxisContains)
// against a bare filelist entry.
func (f Filter) MatchesString(s string) bool {
	switch f.Axis {
	case AxisFile, AxisContains:
		return f.apply(f.Predicate.Match(s))
	default:
		return false
	}
}

// packageBroken reports whether any object owned by p has an
// unsatisfied (non-assume-found) dependency.
func packageBroken(db *pkgdb.DB, p *pkgdb.Package) bool {
	for _, o := range p.Objects {
		if len(db.ReqMissing[o]) > 0 {
			return true
		}
	}
	return false
}
