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

import (
	"context"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/pkgdepdb/pkgdepdb/log"
)

// MaxJobsCeiling is the hard cap RelinkAllThreaded clamps max_jobs to
// (§5: "max_jobs above 128 is clamped to 128").
const MaxJobsCeiling = 128

// DB is the persistent database of installed packages and ELF objects
// (§3). Construct one with New: the zero value's index and per-package
// path maps are nil, so installing into it panics.
type DB struct {
	Name string

	StrictLinking bool

	LibraryPath []string

	Packages []*Package
	Objects  []*Object

	IgnoreFileRules  []string
	AssumeFoundRules []string
	BasePackages     []string

	PackageLibraryPath map[string][]string

	ReqFound   map[*Object][]*Object
	ReqMissing map[*Object][]string
}

// New returns an empty, ready-to-use DB.
func New(name string) *DB {
	return &DB{
		Name:               name,
		PackageLibraryPath: map[string][]string{},
		ReqFound:           map[*Object][]*Object{},
		ReqMissing:         map[*Object][]string{},
	}
}

// PackageByName returns the installed package with the given name, or nil.
func (db *DB) PackageByName(name string) *Package {
	for _, p := range db.Packages {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// InstallPackage installs p, replacing any existing package of the same
// name atomically (§4.E). Returns false only on an internal invariant
// violation; replacing an existing package is not an error.
func (db *DB) InstallPackage(p *Package) bool {
	if p == nil {
		return false
	}
	if existing := db.PackageByName(p.Name); existing != nil {
		warnIfDuplicateInstall(p.Name)
		db.DeletePackage(p.Name)
	}

	p.adoptObjects()
	db.Packages = append(db.Packages, p)
	newObjects := make([]*Object, 0, len(p.Objects))
	for _, o := range p.Objects {
		db.Objects = append(db.Objects, o)
		newObjects = append(newObjects, o)
	}

	db.backSatisfy(newObjects)
	for _, o := range newObjects {
		db.forwardResolve(o)
	}
	return true
}

// backSatisfy re-examines every currently-broken object against the newly
// installed objects, moving satisfied basenames out of req_missing and
// into req_found (§4.E step 1).
func (db *DB) backSatisfy(newObjects []*Object) {
	if len(newObjects) == 0 {
		return
	}
	for m, missing := range db.ReqMissing {
		if len(missing) == 0 {
			continue
		}
		remaining := missing[:0:0]
		for _, name := range missing {
			satisfiedBy := (*Object)(nil)
			for _, o := range newObjects {
				if o.Basename != name {
					continue
				}
				if !CanUse(m, o, db.StrictLinking) {
					continue
				}
				if !db.visible(m, o.Dirname) {
					continue
				}
				satisfiedBy = o
				break
			}
			if satisfiedBy != nil {
				db.ReqFound[m] = append(db.ReqFound[m], satisfiedBy)
			} else {
				remaining = append(remaining, name)
			}
		}
		db.ReqMissing[m] = remaining
	}
}

// forwardResolve populates req_found/req_missing for a single object by
// running the linker over each of its needed entries (§4.E step 2).
func (db *DB) forwardResolve(o *Object) {
	seenMissing := map[string]bool{}
	var found []*Object
	var missing []string
	for _, n := range o.Needed {
		cand, assumed := db.satisfy(o, n)
		if assumed {
			continue
		}
		if cand != nil {
			found = append(found, cand)
			continue
		}
		if !seenMissing[n] {
			seenMissing[n] = true
			missing = append(missing, n)
		}
	}
	if len(found) > 0 {
		db.ReqFound[o] = found
	} else {
		delete(db.ReqFound, o)
	}
	if len(missing) > 0 {
		db.ReqMissing[o] = missing
	} else {
		delete(db.ReqMissing, o)
	}
}

// DeletePackage removes the named package and every object it owns. Per
// the spec's documented fix to the original's bug (DESIGN.md Open
// Question 1), dereferenced objects are removed from DB.Objects
// immediately, not deferred to the next RelinkAll. There is no destroy
// argument: the package's objects are always dropped, since ownership is
// exclusive. Returns false if no package has that name.
func (db *DB) DeletePackage(name string) bool {
	idx := -1
	for i, p := range db.Packages {
		if p.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	p := db.Packages[idx]
	db.Packages = append(db.Packages[:idx], db.Packages[idx+1:]...)

	owned := map[*Object]bool{}
	for _, o := range p.Objects {
		owned[o] = true
		delete(db.ReqFound, o)
		delete(db.ReqMissing, o)
	}
	kept := db.Objects[:0:0]
	for _, o := range db.Objects {
		if !owned[o] {
			kept = append(kept, o)
		}
	}
	db.Objects = kept
	return true
}

// RelinkAll rebuilds req_found/req_missing from scratch for every object
// (§4.E).
func (db *DB) RelinkAll() {
	db.ReqFound = map[*Object][]*Object{}
	db.ReqMissing = map[*Object][]string{}
	for _, o := range db.Objects {
		db.forwardResolve(o)
	}
}

// RelinkAllThreaded is the parallel form of RelinkAll: DB.Objects is
// partitioned into up to maxJobs contiguous slices, each resolved by its
// own goroutine with no cross-writes, then merged under a single
// goroutine once every worker has finished (§5). maxJobs above
// MaxJobsCeiling is clamped; maxJobs below 1 behaves like 1.
func (db *DB) RelinkAllThreaded(maxJobs int) error {
	if maxJobs < 1 {
		maxJobs = 1
	}
	if maxJobs > MaxJobsCeiling {
		maxJobs = MaxJobsCeiling
	}
	if maxJobs > len(db.Objects) && len(db.Objects) > 0 {
		maxJobs = len(db.Objects)
	}
	if len(db.Objects) == 0 {
		db.ReqFound = map[*Object][]*Object{}
		db.ReqMissing = map[*Object][]string{}
		return nil
	}

	type partial struct {
		found   map[*Object][]*Object
		missing map[*Object][]string
	}
	results := make([]partial, maxJobs)
	chunk := (len(db.Objects) + maxJobs - 1) / maxJobs

	g, _ := errgroup.WithContext(context.Background())
	for w := 0; w < maxJobs; w++ {
		w := w
		start := w * chunk
		end := start + chunk
		if start > len(db.Objects) {
			start = len(db.Objects)
		}
		if end > len(db.Objects) {
			end = len(db.Objects)
		}
		slice := db.Objects[start:end]
		g.Go(func() error {
			local := partial{found: map[*Object][]*Object{}, missing: map[*Object][]string{}}
			for _, o := range slice {
				found, missing := db.resolveOne(o)
				if len(found) > 0 {
					local.found[o] = found
				}
				if len(missing) > 0 {
					local.missing[o] = missing
				}
			}
			results[w] = local
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	merged := partial{found: map[*Object][]*Object{}, missing: map[*Object][]string{}}
	for _, r := range results {
		for k, v := range r.found {
			merged.found[k] = v
		}
		for k, v := range r.missing {
			merged.missing[k] = v
		}
	}
	db.ReqFound = merged.found
	db.ReqMissing = merged.missing
	return nil
}

// resolveOne is the read-only half of forwardResolve, used by
// RelinkAllThreaded so that workers never write db.ReqFound/db.ReqMissing
// directly.
func (db *DB) resolveOne(o *Object) (found []*Object, missing []string) {
	seenMissing := map[string]bool{}
	for _, n := range o.Needed {
		cand, assumed := db.satisfy(o, n)
		if assumed {
			continue
		}
		if cand != nil {
			found = append(found, cand)
			continue
		}
		if !seenMissing[n] {
			seenMissing[n] = true
			missing = append(missing, n)
		}
	}
	return found, missing
}

// DefaultJobs returns a reasonable max_jobs value for RelinkAllThreaded
// when the caller has no preference.
func DefaultJobs() int {
	n := runtime.NumCPU()
	if n < 1 {
		return 1
	}
	if n > MaxJobsCeiling {
		return MaxJobsCeiling
	}
	return n
}

// FixPaths re-normalizes every object's rpath/runpath (for DBs loaded from
// older formats that stored unnormalized paths) and then relinks
// everything (§4.E).
func (db *DB) FixPaths() {
	for _, o := range db.Objects {
		normalize(o.Elf)
	}
	db.RelinkAll()
}

// WipePackages removes every package and object, keeping rules intact.
func (db *DB) WipePackages() {
	db.Packages = nil
	db.Objects = nil
	db.ReqFound = map[*Object][]*Object{}
	db.ReqMissing = map[*Object][]string{}
}

// WipeFilelists clears every package's filelist, keeping objects and
// indices.
func (db *DB) WipeFilelists() {
	for _, p := range db.Packages {
		p.Filelist = nil
	}
}

// sortedPackageNames returns the installed package names in sorted order.
// It is not part of the core contract and nothing in this tree calls it.
func (db *DB) sortedPackageNames() []string {
	names := make([]string, len(db.Packages))
	for i, p := range db.Packages {
		names[i] = p.Name
	}
	sort.Strings(names)
	return names
}

func warnIfDuplicateInstall(name string) {
	log.Debugf("pkgdb: reinstalling package %q", name)
}
