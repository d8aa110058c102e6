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

package pkgdb

import "github.com/pkgdepdb/pkgdepdb/elf"

// CanUse reports whether candidate o is ABI-compatible with subject s
// (§4.D item 2, authoritative table in spec.md §8 property 5).
//
// Classes must match exactly regardless of strict. With strict linking,
// osabi must match exactly too. Without it, none/linux are treated as
// interchangeable with the subject's own osabi.
func CanUse(s, o *Object, strict bool) bool {
	if o.Class != s.Class {
		return false
	}
	if o.OSABI == s.OSABI {
		return true
	}
	if strict {
		return false
	}
	return o.OSABI == elf.OSABINone || o.OSABI == elf.OSABILinux
}

// visible reports whether dirname is in s's search scope: its rpath, its
// runpath, or the DB's extras (trusted paths, the owning package's paths,
// and every base package's paths). LD_LIBRARY_PATH is intentionally never
// consulted.
func (db *DB) visible(s *Object, dirname string) bool {
	for _, d := range s.rpathDirs() {
		if d == dirname {
			return true
		}
	}
	for _, d := range s.runpathDirs() {
		if d == dirname {
			return true
		}
	}
	for _, d := range db.extras(s) {
		if d == dirname {
			return true
		}
	}
	return false
}

// extras is the union of DB.LibraryPath, the owning package's per-package
// path, and the per-package paths of every base package.
func (db *DB) extras(s *Object) []string {
	var out []string
	out = append(out, db.LibraryPath...)
	if s.Owner != nil {
		out = append(out, db.PackageLibraryPath[s.Owner.Name]...)
	}
	for _, bp := range db.BasePackages {
		out = append(out, db.PackageLibraryPath[bp]...)
	}
	return out
}

// satisfy finds the first installed object that satisfies s's need for
// library basename n, per §4.D. Tie-break is iteration order of
// DB.Objects. assumed reports that n was resolved by an assume_found rule
// (fiat satisfaction, no object-level edge recorded).
func (db *DB) satisfy(s *Object, n string) (o *Object, assumed bool) {
	if db.isAssumedFound(n) {
		return nil, true
	}
	for _, cand := range db.Objects {
		if cand.Basename != n {
			continue
		}
		if !CanUse(s, cand, db.StrictLinking) {
			continue
		}
		if !db.visible(s, cand.Dirname) {
			continue
		}
		return cand, false
	}
	return nil, false
}
