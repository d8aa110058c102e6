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

// Rules engine typed setters (§4.F). The textual --rule=/--filter= DSL
// that drives these from the CLI lives outside the core (config/ and
// cmd/pkgdepdb/), per spec.md §4.F: "The core exposes typed setters; the
// DSL layer is external."
package pkgdb

import "github.com/pkgdepdb/pkgdepdb/match"

func stringIndex(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

func insertAt(list []string, idx int, s string) []string {
	if idx < 0 || idx > len(list) {
		idx = len(list)
	}
	list = append(list, "")
	copy(list[idx+1:], list[idx:])
	list[idx] = s
	return list
}

func removeAt(list []string, idx int) []string {
	return append(list[:idx], list[idx+1:]...)
}

// --- DB-wide trusted library path (LD_*) ---

// LDAppend adds dir to the end of DB.LibraryPath if not already present.
func (db *DB) LDAppend(dir string) bool {
	if stringIndex(db.LibraryPath, dir) >= 0 {
		return false
	}
	db.LibraryPath = append(db.LibraryPath, dir)
	return true
}

// LDPrepend adds dir to the front of DB.LibraryPath if not already present.
func (db *DB) LDPrepend(dir string) bool {
	if stringIndex(db.LibraryPath, dir) >= 0 {
		return false
	}
	db.LibraryPath = insertAt(db.LibraryPath, 0, dir)
	return true
}

// LDInsert inserts dir at position idx in DB.LibraryPath if not already present.
func (db *DB) LDInsert(idx int, dir string) bool {
	if stringIndex(db.LibraryPath, dir) >= 0 {
		return false
	}
	db.LibraryPath = insertAt(db.LibraryPath, idx, dir)
	return true
}

// LDDelete removes dir from DB.LibraryPath.
func (db *DB) LDDelete(dir string) bool {
	i := stringIndex(db.LibraryPath, dir)
	if i < 0 {
		return false
	}
	db.LibraryPath = removeAt(db.LibraryPath, i)
	return true
}

// LDDeleteID removes the library path at index id.
func (db *DB) LDDeleteID(id int) bool {
	if id < 0 || id >= len(db.LibraryPath) {
		return false
	}
	db.LibraryPath = removeAt(db.LibraryPath, id)
	return true
}

// LDClear empties DB.LibraryPath.
func (db *DB) LDClear() bool {
	if len(db.LibraryPath) == 0 {
		return false
	}
	db.LibraryPath = nil
	return true
}

// --- ignore-file rules ---

// IgnoreFileAdd adds a glob pattern to the ignore-file rule set.
func (db *DB) IgnoreFileAdd(pattern string) bool {
	if stringIndex(db.IgnoreFileRules, pattern) >= 0 {
		return false
	}
	db.IgnoreFileRules = append(db.IgnoreFileRules, pattern)
	return true
}

// IgnoreFileDelete removes a glob pattern from the ignore-file rule set.
func (db *DB) IgnoreFileDelete(pattern string) bool {
	i := stringIndex(db.IgnoreFileRules, pattern)
	if i < 0 {
		return false
	}
	db.IgnoreFileRules = removeAt(db.IgnoreFileRules, i)
	return true
}

// IgnoreFileDeleteID removes the ignore-file rule at index id.
func (db *DB) IgnoreFileDeleteID(id int) bool {
	if id < 0 || id >= len(db.IgnoreFileRules) {
		return false
	}
	db.IgnoreFileRules = removeAt(db.IgnoreFileRules, id)
	return true
}

// IsIgnored reports whether path matches any ignore-file glob rule.
func (db *DB) IsIgnored(path string) bool {
	for _, pat := range db.IgnoreFileRules {
		if match.Glob(pat, path) {
			return true
		}
	}
	return false
}

// --- assume-found rules ---

// AssumeFoundAdd adds basename to the assume-found rule set.
func (db *DB) AssumeFoundAdd(basename string) bool {
	if stringIndex(db.AssumeFoundRules, basename) >= 0 {
		return false
	}
	db.AssumeFoundRules = append(db.AssumeFoundRules, basename)
	return true
}

// AssumeFoundDelete removes basename from the assume-found rule set.
func (db *DB) AssumeFoundDelete(basename string) bool {
	i := stringIndex(db.AssumeFoundRules, basename)
	if i < 0 {
		return false
	}
	db.AssumeFoundRules = removeAt(db.AssumeFoundRules, i)
	return true
}

// AssumeFoundDeleteID removes the assume-found rule at index id.
func (db *DB) AssumeFoundDeleteID(id int) bool {
	if id < 0 || id >= len(db.AssumeFoundRules) {
		return false
	}
	db.AssumeFoundRules = removeAt(db.AssumeFoundRules, id)
	return true
}

func (db *DB) isAssumedFound(name string) bool {
	return stringIndex(db.AssumeFoundRules, name) >= 0
}

// --- base packages ---

// BasePackagesAdd marks name as a base package, whose per-package library
// path contributes to every other package's visibility scope.
func (db *DB) BasePackagesAdd(name string) bool {
	if stringIndex(db.BasePackages, name) >= 0 {
		return false
	}
	db.BasePackages = append(db.BasePackages, name)
	return true
}

// BasePackagesDelete unmarks name as a base package.
func (db *DB) BasePackagesDelete(name string) bool {
	i := stringIndex(db.BasePackages, name)
	if i < 0 {
		return false
	}
	db.BasePackages = removeAt(db.BasePackages, i)
	return true
}

// BasePackagesDeleteID unmarks the base package at index id.
func (db *DB) BasePackagesDeleteID(id int) bool {
	if id < 0 || id >= len(db.BasePackages) {
		return false
	}
	db.BasePackages = removeAt(db.BasePackages, id)
	return true
}

// --- per-package library path (PKG_LD_*) ---

// PkgLDAppend adds dir to the end of pkg's per-package library path.
func (db *DB) PkgLDAppend(pkg, dir string) bool {
	list := db.PackageLibraryPath[pkg]
	if stringIndex(list, dir) >= 0 {
		return false
	}
	db.PackageLibraryPath[pkg] = append(list, dir)
	return true
}

// PkgLDPrepend adds dir to the front of pkg's per-package library path.
func (db *DB) PkgLDPrepend(pkg, dir string) bool {
	list := db.PackageLibraryPath[pkg]
	if stringIndex(list, dir) >= 0 {
		return false
	}
	db.PackageLibraryPath[pkg] = insertAt(list, 0, dir)
	return true
}

// PkgLDInsert inserts dir at position idx in pkg's per-package library path.
func (db *DB) PkgLDInsert(pkg string, idx int, dir string) bool {
	list := db.PackageLibraryPath[pkg]
	if stringIndex(list, dir) >= 0 {
		return false
	}
	db.PackageLibraryPath[pkg] = insertAt(list, idx, dir)
	return true
}

// PkgLDDelete removes dir from pkg's per-package library path.
func (db *DB) PkgLDDelete(pkg, dir string) bool {
	list := db.PackageLibraryPath[pkg]
	i := stringIndex(list, dir)
	if i < 0 {
		return false
	}
	db.PackageLibraryPath[pkg] = removeAt(list, i)
	return true
}

// PkgLDDeleteID removes the library path at index id for pkg.
func (db *DB) PkgLDDeleteID(pkg string, id int) bool {
	list := db.PackageLibraryPath[pkg]
	if id < 0 || id >= len(list) {
		return false
	}
	db.PackageLibraryPath[pkg] = removeAt(list, id)
	return true
}

// PkgLDClear empties pkg's per-package library path.
func (db *DB) PkgLDClear(pkg string) bool {
	if len(db.PackageLibraryPath[pkg]) == 0 {
		return false
	}
	delete(db.PackageLibraryPath, pkg)
	return true
}

// SetStrictLinking sets the strict-linking bit, returning whether it changed.
func (db *DB) SetStrictLinking(strict bool) bool {
	if db.StrictLinking == strict {
		return false
	}
	db.StrictLinking = strict
	return true
}
