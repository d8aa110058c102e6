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

import "github.com/pkgdepdb/pkgdepdb/pkgdb"

// Query is a read-only view over a pkgdb.DB.
type Query struct {
	DB *pkgdb.DB
}

// New wraps db for querying.
func New(db *pkgdb.DB) *Query {
	return &Query{DB: db}
}

// Packages returns every installed package for which every filter
// matches (filters compose with AND; a filter's own Negate inverts it
// individually).
func (q *Query) Packages(filters ...Filter) []*pkgdb.Package {
	var out []*pkgdb.Package
	for _, p := range q.DB.Packages {
		if packageMatchesAll(q.DB, p, filters) {
			out = append(out, p)
		}
	}
	return out
}

func packageMatchesAll(db *pkgdb.DB, p *pkgdb.Package, filters []Filter) bool {
	for _, f := range filters {
		if !f.MatchesPackage(db, p) {
			return false
		}
	}
	return true
}

// Objects returns every installed object for which every filter
// matches.
func (q *Query) Objects(filters ...Filter) []*pkgdb.Object {
	var out []*pkgdb.Object
	for _, o := range q.DB.Objects {
		if objectMatchesAll(q.DB, o, filters) {
			out = append(out, o)
		}
	}
	return out
}

func objectMatchesAll(db *pkgdb.DB, o *pkgdb.Object, filters []Filter) bool {
	for _, f := range filters {
		if !f.MatchesObject(db, o) {
			return false
		}
	}
	return true
}

// Filelist returns the filelist entries of p that match every filter
// (AxisFile/AxisContains filters apply here; a filter on any other axis
// matches no entry, so passing one yields an empty result).
func (q *Query) Filelist(p *pkgdb.Package, filters ...Filter) []string {
	var out []string
	for _, entry := range p.Filelist {
		ok := true
		for _, f := range filters {
			if !f.MatchesString(entry) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, entry)
		}
	}
	return out
}

// Found returns the objects that satisfy o's dependencies, i.e.
// DB.ReqFound[o].
func (q *Query) Found(o *pkgdb.Object) []*pkgdb.Object {
	return q.DB.ReqFound[o]
}

// Missing returns the unsatisfied basenames for o, i.e.
// DB.ReqMissing[o].
func (q *Query) Missing(o *pkgdb.Object) []string {
	return q.DB.ReqMissing[o]
}

// BrokenPackages returns every package with at least one broken object
// (§4.I: "a package is broken iff any of its objects has a non-empty
// req_missing after applying assume_found_rules").
func (q *Query) BrokenPackages() []*pkgdb.Package {
	var out []*pkgdb.Package
	for _, p := range q.DB.Packages {
		if packageBroken(q.DB, p) {
			out = append(out, p)
		}
	}
	return out
}

// BrokenObjects returns every object with a non-empty req_missing.
func (q *Query) BrokenObjects() []*pkgdb.Object {
	var out []*pkgdb.Object
	for _, o := range q.DB.Objects {
		if len(q.DB.ReqMissing[o]) > 0 {
			out = append(out, o)
		}
	}
	return out
}

// IntegrityIssue describes one package whose textual depends entry
// could not be resolved to an installed provider.
type IntegrityIssue struct {
	Package *pkgdb.Package
	Depend  pkgdb.Dep
}

// CheckIntegrity verifies that every package's depends either names a
// provider present in the DB (by package name or by any provides name)
// or is listed in a base package (§4.I).
func (q *Query) CheckIntegrity() []IntegrityIssue {
	providers := map[string]bool{}
	for _, p := range q.DB.Packages {
		providers[p.Name] = true
		for _, d := range p.Provides {
			providers[d.Name] = true
		}
	}
	basePackages := map[string]bool{}
	for _, bp := range q.DB.BasePackages {
		basePackages[bp] = true
	}

	var issues []IntegrityIssue
	for _, p := range q.DB.Packages {
		for _, d := range p.Depends {
			if providers[d.Name] || basePackages[d.Name] {
				continue
			}
			issues = append(issues, IntegrityIssue{Package: p, Depend: d})
		}
	}
	return issues
}
