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

// Package query implements the read-only query interface over a
// pkgdb.DB (§4.I): filtered iterators over packages, objects, the
// req_found/req_missing indices and filelists, plus the intrinsic
// "broken" predicate and dependency-resolution integrity checks.
//
// Filters are the tagged variant spec.md §9 recommends ("express as a
// tagged variant {Axis, Predicate, negate: bool} rather than a
// polymorphic hierarchy"): this mirrors original_source/filter.h's
// PackageFilter/ObjectFilter/StringFilter class hierarchy, collapsed
// into one Go type per spec.md's own design note rather than a set of
// embedding structs, since Go has no virtual-dispatch idiom for it.
package query

// Axis selects which field of a Package or Object a Filter tests
// against. The names follow the CLI's --filter= axis vocabulary
// (spec.md §6).
type Axis int

// Package axes.
const (
	AxisName Axis = iota
	AxisGroup
	AxisDepends
	AxisOptDepends
	AxisMakeDepends
	AxisAllDepends
	AxisProvides
	AxisConflicts
	AxisReplaces
	AxisContains
	AxisPkgLibDepends
	AxisPkgLibRPath
	AxisPkgLibRunPath
	AxisPkgLibInterp

	// Object axes.
	AxisLibName
	AxisLibDepends
	AxisLibPath
	AxisLibRPath
	AxisLibRunPath
	AxisLibInterp

	// Filelist-entry axis.
	AxisFile

	// Intrinsic.
	AxisBroken
)

func (a Axis) String() string {
	switch a {
	case AxisName:
		return "name"
	case AxisGroup:
		return "group"
	case AxisDepends:
		return "depends"
	case AxisOptDepends:
		return "optdepends"
	case AxisMakeDepends:
		return "makedepends"
	case AxisAllDepends:
		return "alldepends"
	case AxisProvides:
		return "provides"
	case AxisConflicts:
		return "conflicts"
	case AxisReplaces:
		return "replaces"
	case AxisContains:
		return "contains"
	case AxisPkgLibDepends:
		return "pkglibdepends"
	case AxisPkgLibRPath:
		return "pkglibrpath"
	case AxisPkgLibRunPath:
		return "pkglibrunpath"
	case AxisPkgLibInterp:
		return "pkglibinterp"
	case AxisLibName:
		return "libname"
	case AxisLibDepends:
		return "libdepends"
	case AxisLibPath:
		return "libpath"
	case AxisLibRPath:
		return "librpath"
	case AxisLibRunPath:
		return "librunpath"
	case AxisLibInterp:
		return "libinterp"
	case AxisFile:
		return "file"
	case AxisBroken:
		return "broken"
	default:
		return "unknown"
	}
}
