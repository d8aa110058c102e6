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

package serialize

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkgdepdb/pkgdepdb/elf"
	"github.com/pkgdepdb/pkgdepdb/pkgdb"
)

// encodeState assigns each Elf/Package the zero-based ordinal of its
// first occurrence in write order (§4.H "new reference encoding").
type encodeState struct {
	pkgOrd map[*pkgdb.Package]uint32
	objOrd map[*pkgdb.Object]uint32
}

func newEncodeState() *encodeState {
	return &encodeState{pkgOrd: map[*pkgdb.Package]uint32{}, objOrd: map[*pkgdb.Object]uint32{}}
}

// decodeState is the ordinal-indexed inverse, populated in the same
// traversal order the writer used so that ordinals line up without
// needing to be carried explicitly.
type decodeState struct {
	pkgs []*pkgdb.Package
	objs []*pkgdb.Object
}

func writeOptStr(w *writer, s *string) {
	if s == nil {
		w.u8(0)
		return
	}
	w.u8(1)
	w.str(*s)
}

func readOptStr(r *reader) *string {
	present := r.u8()
	if r.err != nil || present == 0 {
		return nil
	}
	s := r.str()
	if r.err != nil {
		return nil
	}
	return &s
}

func encodeElf(w *writer, st *encodeState, o *pkgdb.Object, version Version) {
	if ord, ok := st.objOrd[o]; ok {
		w.u8(TagObjRef)
		w.u32(ord)
		return
	}
	ord := uint32(len(st.objOrd))
	st.objOrd[o] = ord
	w.u8(TagObj)
	w.str(o.Dirname)
	w.str(o.Basename)
	w.u8(byte(o.Class))
	w.u8(byte(o.Data))
	w.u8(byte(o.OSABI))
	writeOptStr(w, o.RPath)
	writeOptStr(w, o.RunPath)
	if version >= VInterpreter {
		writeOptStr(w, o.Interpreter)
	}
	w.strList(o.Needed)
}

func decodeElf(r *reader, st *decodeState, version Version) *pkgdb.Object {
	tag := r.u8()
	if r.err != nil {
		return nil
	}
	if tag == TagObjRef {
		ord := r.u32()
		if r.err != nil || int(ord) >= len(st.objs) {
			r.err = fmt.Errorf("%w: dangling object reference %d", ErrCorrupt, ord)
			return nil
		}
		return st.objs[ord]
	}
	if tag != TagObj {
		r.err = fmt.Errorf("%w: unexpected object tag %d", ErrCorrupt, tag)
		return nil
	}
	dirname := r.str()
	basename := r.str()
	class := elf.Class(r.u8())
	data := elf.Data(r.u8())
	osabi := elf.OSABI(r.u8())
	rpath := readOptStr(r)
	runpath := readOptStr(r)
	var interp *string
	if version >= VInterpreter {
		interp = readOptStr(r)
	}
	needed := r.strList()
	if r.err != nil {
		return nil
	}
	e := &elf.Elf{
		Dirname: dirname, Basename: basename,
		Class: class, Data: data, OSABI: osabi,
		RPath: rpath, RunPath: runpath, Interpreter: interp,
		Needed: needed,
	}
	o := &pkgdb.Object{Elf: e}
	st.objs = append(st.objs, o)
	return o
}

// depAxes lists the six always-present dependency lists, in the order
// §4.H's per-package body specifies them. The version-12 checkdepends
// list is not among them; callers handle it separately.
func depAxes(p *pkgdb.Package) [][]pkgdb.Dep {
	return [][]pkgdb.Dep{p.Depends, p.OptDepends, p.MakeDepends, p.Provides, p.Conflicts, p.Replaces}
}

func writeDeps(w *writer, deps []pkgdb.Dep, version Version) {
	w.u32(uint32(len(deps)))
	for _, d := range deps {
		if version >= VSplitDeps {
			w.str(d.Name)
			w.str(d.Constraint)
			continue
		}
		glued := d.Name
		if d.Constraint != "" {
			glued = d.Name + " " + d.Constraint
		}
		w.str(glued)
	}
}

func readDeps(r *reader, version Version) []pkgdb.Dep {
	n := r.u32()
	if r.err != nil || n == 0 {
		return nil
	}
	out := make([]pkgdb.Dep, n)
	for i := range out {
		if version >= VSplitDeps {
			out[i].Name = r.str()
			out[i].Constraint = r.str()
			continue
		}
		s := r.str()
		if idx := strings.IndexByte(s, ' '); idx >= 0 {
			out[i] = pkgdb.Dep{Name: s[:idx], Constraint: s[idx+1:]}
		} else {
			out[i] = pkgdb.Dep{Name: s}
		}
	}
	if r.err != nil {
		return nil
	}
	return out
}

func encodePackage(w *writer, st *encodeState, p *pkgdb.Package, version Version, flags uint16) {
	if ord, ok := st.pkgOrd[p]; ok {
		w.u8(TagPkgRef)
		w.u32(ord)
		return
	}
	ord := uint32(len(st.pkgOrd))
	st.pkgOrd[p] = ord
	w.u8(TagPkg)
	w.str(p.Name)
	w.str(p.Version)

	w.u32(uint32(len(p.Objects)))
	for _, o := range p.Objects {
		encodeElf(w, st, o, version)
	}

	for _, axis := range depAxes(p) {
		writeDeps(w, axis, version)
	}
	if version >= VCheckDepends {
		writeDeps(w, p.CheckDepends, version)
	}

	w.strSeq(p.Groups)
	if flags&FlagFileLists != 0 {
		w.strList(p.Filelist)
	}
}

func decodePackage(r *reader, st *decodeState, version Version, flags uint16) *pkgdb.Package {
	tag := r.u8()
	if r.err != nil {
		return nil
	}
	if tag == TagPkgRef {
		ord := r.u32()
		if r.err != nil || int(ord) >= len(st.pkgs) {
			r.err = fmt.Errorf("%w: dangling package reference %d", ErrCorrupt, ord)
			return nil
		}
		return st.pkgs[ord]
	}
	if tag != TagPkg {
		r.err = fmt.Errorf("%w: unexpected package tag %d", ErrCorrupt, tag)
		return nil
	}
	name := r.str()
	ver := r.str()
	p := pkgdb.NewPackage(name, ver)
	st.pkgs = append(st.pkgs, p)

	objCount := r.u32()
	for i := uint32(0); i < objCount && r.err == nil; i++ {
		o := decodeElf(r, st, version)
		if o != nil {
			p.AddObject(o)
		}
	}

	p.Depends = readDeps(r, version)
	p.OptDepends = readDeps(r, version)
	p.MakeDepends = readDeps(r, version)
	p.Provides = readDeps(r, version)
	p.Conflicts = readDeps(r, version)
	p.Replaces = readDeps(r, version)
	if version >= VCheckDepends {
		p.CheckDepends = readDeps(r, version)
	}

	p.Groups = r.strSeq()
	if flags&FlagFileLists != 0 {
		p.Filelist = r.strList()
	}
	return p
}

// chooseVersion picks the lowest version (never below MinWriteVersion)
// that can express db without losing information.
func chooseVersion(db *pkgdb.DB) Version {
	version := MinWriteVersion
	for _, p := range db.Packages {
		if len(p.CheckDepends) > 0 && version < VCheckDepends {
			version = VCheckDepends
		}
		for _, axis := range depAxes(p) {
			for _, d := range axis {
				if d.Constraint != "" && version < VSplitDeps {
					version = VSplitDeps
				}
			}
		}
	}
	return version
}

func computeFlags(db *pkgdb.DB) uint16 {
	var flags uint16
	if len(db.IgnoreFileRules) > 0 {
		flags |= FlagIgnoreRules
	}
	if len(db.PackageLibraryPath) > 0 {
		flags |= FlagPackageLDPath
	}
	if len(db.BasePackages) > 0 {
		flags |= FlagBasePackages
	}
	if db.StrictLinking {
		flags |= FlagStrictLinking
	}
	if len(db.AssumeFoundRules) > 0 {
		flags |= FlagAssumeFound
	}
	for _, p := range db.Packages {
		if len(p.Filelist) > 0 {
			flags |= FlagFileLists
			break
		}
	}
	return flags
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// encodeBody writes everything after the HeaderSize-byte header.
func encodeBody(w *writer, db *pkgdb.DB, version Version, flags uint16) {
	st := newEncodeState()

	w.str(db.Name)
	w.strList(db.LibraryPath)

	w.u32(uint32(len(db.Packages)))
	for _, p := range db.Packages {
		encodePackage(w, st, p, version, flags)
	}

	w.u32(uint32(len(db.Objects)))
	for _, o := range db.Objects {
		encodeElf(w, st, o, version)
	}

	var withFound []*pkgdb.Object
	for _, o := range db.Objects {
		if len(db.ReqFound[o]) > 0 {
			withFound = append(withFound, o)
		}
	}
	w.u32(uint32(len(withFound)))
	for _, o := range withFound {
		encodeElf(w, st, o, version)
		found := db.ReqFound[o]
		w.u32(uint32(len(found)))
		for _, f := range found {
			encodeElf(w, st, f, version)
		}
	}

	var withMissing []*pkgdb.Object
	for _, o := range db.Objects {
		if len(db.ReqMissing[o]) > 0 {
			withMissing = append(withMissing, o)
		}
	}
	w.u32(uint32(len(withMissing)))
	for _, o := range withMissing {
		encodeElf(w, st, o, version)
		w.strList(db.ReqMissing[o])
	}

	if flags&FlagIgnoreRules != 0 {
		w.strSeq(db.IgnoreFileRules)
	}
	if flags&FlagAssumeFound != 0 {
		w.strSeq(db.AssumeFoundRules)
	}
	if flags&FlagPackageLDPath != 0 {
		keys := sortedKeys(db.PackageLibraryPath)
		w.u32(uint32(len(keys)))
		for _, k := range keys {
			w.str(k)
			w.strList(db.PackageLibraryPath[k])
		}
	}
	if flags&FlagBasePackages != 0 {
		w.strSeq(db.BasePackages)
	}
}

// decodeBody reads everything after the HeaderSize-byte header into a fresh DB.
func decodeBody(r *reader, version Version, flags uint16) *pkgdb.DB {
	db := pkgdb.New("")
	st := &decodeState{}

	db.Name = r.str()
	db.LibraryPath = r.strList()

	pkgCount := r.u32()
	for i := uint32(0); i < pkgCount && r.err == nil; i++ {
		p := decodePackage(r, st, version, flags)
		if p != nil {
			db.Packages = append(db.Packages, p)
		}
	}

	objCount := r.u32()
	db.Objects = make([]*pkgdb.Object, 0, objCount)
	for i := uint32(0); i < objCount && r.err == nil; i++ {
		db.Objects = append(db.Objects, decodeElf(r, st, version))
	}

	foundCount := r.u32()
	for i := uint32(0); i < foundCount && r.err == nil; i++ {
		o := decodeElf(r, st, version)
		n := r.u32()
		found := make([]*pkgdb.Object, n)
		for j := range found {
			found[j] = decodeElf(r, st, version)
		}
		if r.err == nil && o != nil {
			db.ReqFound[o] = found
		}
	}

	missingCount := r.u32()
	for i := uint32(0); i < missingCount && r.err == nil; i++ {
		o := decodeElf(r, st, version)
		missing := r.strList()
		if r.err == nil && o != nil {
			db.ReqMissing[o] = missing
		}
	}

	if flags&FlagIgnoreRules != 0 {
		db.IgnoreFileRules = r.strSeq()
	}
	if flags&FlagAssumeFound != 0 {
		db.AssumeFoundRules = r.strSeq()
	}
	if flags&FlagPackageLDPath != 0 {
		n := r.u32()
		db.PackageLibraryPath = make(map[string][]string, n)
		for i := uint32(0); i < n && r.err == nil; i++ {
			k := r.str()
			v := r.strList()
			db.PackageLibraryPath[k] = v
		}
	}
	if flags&FlagBasePackages != 0 {
		db.BasePackages = r.strSeq()
	}
	db.StrictLinking = flags&FlagStrictLinking != 0

	return db
}
