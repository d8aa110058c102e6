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

// Package pkgdb implements the persistent database of installed packages
// and ELF objects: the object/package model (§4.C), the linker (§4.D), DB
// install/remove/relink (§4.E) and the rules engine (§4.F). Values are
// built with the New, NewPackage and NewObject constructors; identity
// (Name, Version, Dirname, Basename) is held in exported fields rather
// than accessor methods.
package pkgdb

import (
	"fmt"

	"github.com/pkgdepdb/pkgdepdb/elf"
	"github.com/pkgdepdb/pkgdepdb/pathutil"
)

// Dep is a single dependency-list entry: a package name and a free-form
// version constraint (e.g. ">=1.0"). constraint may be empty.
type Dep struct {
	Name       string
	Constraint string
}

// DependsAxis selects one of a Package's seven dependency lists, matching
// the C ABI's integer selector (spec.md §6).
type DependsAxis int

// Dependency-list selectors.
const (
	Depends DependsAxis = iota
	OptDepends
	MakeDepends
	Provides
	Conflicts
	Replaces
	CheckDepends
)

// Object wraps a parsed Elf with its package ownership and mutable
// link-state. Identity fields (inherited from *elf.Elf) are frozen once
// the object is installed; only Owner and the DB-level req_found/
// req_missing indices change afterwards.
type Object struct {
	*elf.Elf

	// Owner is a weak back-reference to the owning package, refreshed on
	// load and on install. It is never counted toward liveness.
	Owner *Package
}

// NewObject normalizes e's rpath/runpath in place (§4.B: $ORIGIN
// expansion, // collapsing) and wraps it as an Object ready for
// installation.
func NewObject(e *elf.Elf) *Object {
	normalize(e)
	return &Object{Elf: e}
}

func normalize(e *elf.Elf) {
	if e.RPath != nil {
		n := pathutil.Normalize(*e.RPath, e.Dirname)
		e.RPath = &n
	}
	if e.RunPath != nil {
		n := pathutil.Normalize(*e.RunPath, e.Dirname)
		e.RunPath = &n
	}
}

// rpathDirs and runpathDirs return the colon-split, normalized search
// directories carried by the object.
func (o *Object) rpathDirs() []string {
	if o.RPath == nil {
		return nil
	}
	return pathutil.Split(*o.RPath)
}

func (o *Object) runpathDirs() []string {
	if o.RunPath == nil {
		return nil
	}
	return pathutil.Split(*o.RunPath)
}

// Package is an installed unit: a name, version, grouping, filelist, and
// seven dependency lists, plus the ELF objects it exclusively owns.
type Package struct {
	Name    string
	Version string

	Groups []string // set semantics; insertion-order, deduplicated

	Filelist []string // ordered, duplicates allowed

	Depends      []Dep
	OptDepends   []Dep
	MakeDepends  []Dep
	CheckDepends []Dep
	Provides     []Dep
	Conflicts    []Dep
	Replaces     []Dep

	Objects []*Object
}

// DependList returns the dependency list selected by axis.
func (p *Package) DependList(axis DependsAxis) []Dep {
	switch axis {
	case Depends:
		return p.Depends
	case OptDepends:
		return p.OptDepends
	case MakeDepends:
		return p.MakeDepends
	case CheckDepends:
		return p.CheckDepends
	case Provides:
		return p.Provides
	case Conflicts:
		return p.Conflicts
	case Replaces:
		return p.Replaces
	default:
		return nil
	}
}

// AddGroup adds name to the package's group set if not already present.
func (p *Package) AddGroup(name string) {
	for _, g := range p.Groups {
		if g == name {
			return
		}
	}
	p.Groups = append(p.Groups, name)
}

// HasGroup reports whether the package belongs to the given group.
func (p *Package) HasGroup(name string) bool {
	for _, g := range p.Groups {
		if g == name {
			return true
		}
	}
	return false
}

// adoptObjects attaches p as the owner of every one of its objects. It is
// called on install; AddObject sets the owner as each object is added
// (§4.C: "owner... refreshed on package load and on install").
func (p *Package) adoptObjects() {
	for _, o := range p.Objects {
		o.Owner = p
	}
}

// NewPackage constructs an empty Package; objects added later through
// AddObject get it as their owner.
func NewPackage(name, version string) *Package {
	return &Package{Name: name, Version: version}
}

// AddObject appends o to the package's object list and sets ownership.
func (p *Package) AddObject(o *Object) {
	p.Objects = append(p.Objects, o)
	o.Owner = p
}

func (p *Package) String() string {
	return fmt.Sprintf("%s-%s", p.Name, p.Version)
}
