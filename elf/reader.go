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

package elf

import (
	"encoding/binary"
	"fmt"
	"path"

	"github.com/pkgdepdb/pkgdepdb/log"
)

// Dynamic tags used by the loader. Only the handful this package cares
// about are named; everything else is skipped during the dynamic-section
// walk.
const (
	dtNull    = 0
	dtNeeded  = 1
	dtStrtab  = 5
	dtRpath   = 15
	dtStrsz   = 10
	dtRunpath = 29
)

const (
	shtDynamic = 6
	shtStrtab  = 3
)

const ptInterp = 3

// Parse reads an in-memory ELF image and extracts its identity and
// dynamic-section contents. name is used only for error messages and to
// split the object's Dirname/Basename.
//
// A missing ELF magic or a missing SHT_DYNAMIC section returns ErrNotELF,
// a soft "skip this file" signal rather than a failure. Any other
// structural problem (truncated header, bad entsize, missing
// DT_STRTAB/DT_STRSZ, out-of-range or unterminated string) returns an
// error wrapping ErrMalformed.
func Parse(data []byte, name string) (*Elf, error) {
	if len(data) < 4 || string(data[0:4]) != "\x7fELF" {
		return nil, ErrNotELF
	}
	if len(data) < 16 {
		return nil, fmt.Errorf("%s: truncated e_ident: %w", name, ErrMalformed)
	}

	var class Class
	switch data[4] {
	case 1:
		class = Class32
	case 2:
		class = Class64
	default:
		return nil, fmt.Errorf("%s: invalid ei_class %d: %w", name, data[4], ErrMalformed)
	}

	var order binary.ByteOrder
	var dataEnc Data
	switch data[5] {
	case 1:
		order, dataEnc = binary.LittleEndian, DataLittle
	case 2:
		order, dataEnc = binary.BigEndian, DataBig
	default:
		return nil, fmt.Errorf("%s: invalid ei_data %d: %w", name, data[5], ErrMalformed)
	}

	if data[6] != 1 { // EV_CURRENT
		return nil, fmt.Errorf("%s: invalid ei_version %d: %w", name, data[6], ErrMalformed)
	}

	osabi := OSABI(data[7])
	switch osabi {
	case OSABINone, OSABILinux, OSABIFreeBSD:
		// silent, the common case
	default:
		log.Warnf("%s: unknown ei_osabi %d", name, osabi)
	}

	r := &reader{data: data, order: order, class: class, name: name}

	hdrSize := 52
	if class == Class64 {
		hdrSize = 64
	}
	if len(data) < hdrSize {
		return nil, fmt.Errorf("%s: truncated ELF header: %w", name, ErrMalformed)
	}

	dir, base := path.Split(name)
	if dir != "/" {
		dir = path.Clean(dir)
		if dir == "." {
			dir = ""
		}
	}
	e := &Elf{
		Dirname:  dir,
		Basename: base,
		Class:    class,
		Data:     dataEnc,
		OSABI:    osabi,
	}

	shoff, shentsize, shnum, err := r.sectionHeaderTable()
	if err != nil {
		return nil, err
	}

	dynOff, dynSize, found, err := r.findSection(shoff, shentsize, shnum, shtDynamic)
	if err != nil {
		return nil, err
	}
	if !found {
		// No dynamic requirements: not an error, just nothing to link.
		return nil, ErrNotELF
	}

	dynEntSize := 8
	if class == Class64 {
		dynEntSize = 16
	}
	if dynSize%int64(dynEntSize) != 0 {
		return nil, fmt.Errorf("%s: dynamic section size %d not a multiple of entry size %d: %w", name, dynSize, dynEntSize, ErrMalformed)
	}
	numDyn := int(dynSize / int64(dynEntSize))

	type dynEnt struct {
		tag int64
		val uint64
	}
	dyns := make([]dynEnt, 0, numDyn)
	var strtabAddr uint64
	var strtabSize uint64
	haveStrtab, haveStrsz := false, false
	for i := 0; i < numDyn; i++ {
		off := dynOff + int64(i*dynEntSize)
		tag, val, err := r.dynEntry(off)
		if err != nil {
			return nil, err
		}
		if tag == dtNull {
			break
		}
		dyns = append(dyns, dynEnt{tag, val})
		switch tag {
		case dtStrtab:
			strtabAddr, haveStrtab = val, true
		case dtStrsz:
			strtabSize, haveStrsz = val, true
		}
	}
	if !haveStrtab || !haveStrsz {
		return nil, fmt.Errorf("%s: dynamic section missing DT_STRTAB/DT_STRSZ: %w", name, ErrMalformed)
	}

	strtabOff, ok, err := r.strtabFileOffset(shoff, shentsize, shnum, strtabAddr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s: DT_STRTAB address %#x matches no SHT_STRTAB section: %w", name, strtabAddr, ErrMalformed)
	}

	getStr := func(strOff uint64) (string, error) {
		return r.cstring(strtabOff, strtabSize, strOff)
	}

	for _, d := range dyns {
		switch d.tag {
		case dtNeeded:
			s, err := getStr(d.val)
			if err != nil {
				return nil, fmt.Errorf("%s: DT_NEEDED: %w", name, err)
			}
			e.Needed = append(e.Needed, s)
		case dtRpath:
			s, err := getStr(d.val)
			if err != nil {
				return nil, fmt.Errorf("%s: DT_RPATH: %w", name, err)
			}
			e.RPath = &s
		case dtRunpath:
			s, err := getStr(d.val)
			if err != nil {
				return nil, fmt.Errorf("%s: DT_RUNPATH: %w", name, err)
			}
			e.RunPath = &s
		}
	}

	if interp, ok, err := r.interpreter(); err != nil {
		return nil, fmt.Errorf("%s: PT_INTERP: %w", name, err)
	} else if ok {
		e.Interpreter = &interp
	}

	return e, nil
}

// reader is a bounds-checked, endian-generic accessor over a raw ELF image.
type reader struct {
	data  []byte
	order binary.ByteOrder
	class Class
	name  string
}

func (r *reader) u16(off int64) (uint16, error) {
	if off < 0 || off+2 > int64(len(r.data)) {
		return 0, fmt.Errorf("%s: offset %#x out of range: %w", r.name, off, ErrMalformed)
	}
	return r.order.Uint16(r.data[off : off+2]), nil
}

func (r *reader) u32(off int64) (uint32, error) {
	if off < 0 || off+4 > int64(len(r.data)) {
		return 0, fmt.Errorf("%s: offset %#x out of range: %w", r.name, off, ErrMalformed)
	}
	return r.order.Uint32(r.data[off : off+4]), nil
}

func (r *reader) u64(off int64) (uint64, error) {
	if off < 0 || off+8 > int64(len(r.data)) {
		return 0, fmt.Errorf("%s: offset %#x out of range: %w", r.name, off, ErrMalformed)
	}
	return r.order.Uint64(r.data[off : off+8]), nil
}

// word reads an address/offset-sized field: 32 bits for ELF32, 64 for ELF64.
func (r *reader) word(off int64) (uint64, error) {
	if r.class == Class64 {
		return r.u64(off)
	}
	v, err := r.u32(off)
	return uint64(v), err
}

// sectionHeaderTable reads e_shoff/e_shentsize/e_shnum from the ELF header.
func (r *reader) sectionHeaderTable() (shoff int64, shentsize int, shnum int, err error) {
	var off, entsizeOff, numOff int64
	if r.class == Class64 {
		off, entsizeOff, numOff = 40, 58, 60
	} else {
		off, entsizeOff, numOff = 32, 46, 48
	}
	w, err := r.word(off)
	if err != nil {
		return 0, 0, 0, err
	}
	es, err := r.u16(entsizeOff)
	if err != nil {
		return 0, 0, 0, err
	}
	n, err := r.u16(numOff)
	if err != nil {
		return 0, 0, 0, err
	}
	minEnt := 40
	if r.class == Class64 {
		minEnt = 64
	}
	if int(es) < minEnt {
		return 0, 0, 0, fmt.Errorf("%s: section header entsize %d smaller than %d: %w", r.name, es, minEnt, ErrMalformed)
	}
	return int64(w), int(es), int(n), nil
}

// sectionHeader reads the sh_type/sh_addr/sh_offset/sh_size fields of the
// idx'th section header.
func (r *reader) sectionHeader(shoff int64, shentsize int, idx int) (shType uint32, shAddr, shOffset, shSize uint64, err error) {
	base := shoff + int64(idx)*int64(shentsize)
	shType32, err := r.u32(base + 4)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	if r.class == Class64 {
		addr, err := r.u64(base + 16)
		if err != nil {
			return 0, 0, 0, 0, err
		}
		offset, err := r.u64(base + 24)
		if err != nil {
			return 0, 0, 0, 0, err
		}
		size, err := r.u64(base + 32)
		if err != nil {
			return 0, 0, 0, 0, err
		}
		return shType32, addr, offset, size, nil
	}
	addr, err := r.u32(base + 12)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	offset, err := r.u32(base + 16)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	size, err := r.u32(base + 20)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	return shType32, uint64(addr), uint64(offset), uint64(size), nil
}

// findSection returns the file offset and size of the first section header
// of the given type.
func (r *reader) findSection(shoff int64, shentsize, shnum int, want uint32) (offset, size int64, found bool, err error) {
	for i := 0; i < shnum; i++ {
		t, _, off, sz, err := r.sectionHeader(shoff, shentsize, i)
		if err != nil {
			return 0, 0, false, err
		}
		if t == want {
			return int64(off), int64(sz), true, nil
		}
	}
	return 0, 0, false, nil
}

// strtabFileOffset finds the SHT_STRTAB section whose sh_addr matches addr
// and returns its file offset.
func (r *reader) strtabFileOffset(shoff int64, shentsize, shnum int, addr uint64) (int64, bool, error) {
	for i := 0; i < shnum; i++ {
		t, shAddr, off, _, err := r.sectionHeader(shoff, shentsize, i)
		if err != nil {
			return 0, false, err
		}
		if t == shtStrtab && shAddr == addr {
			return int64(off), true, nil
		}
	}
	return 0, false, nil
}

// dynEntry reads one Elf{32,64}_Dyn entry (d_tag, d_val).
func (r *reader) dynEntry(off int64) (tag int64, val uint64, err error) {
	if r.class == Class64 {
		t, err := r.u64(off)
		if err != nil {
			return 0, 0, err
		}
		v, err := r.u64(off + 8)
		if err != nil {
			return 0, 0, err
		}
		return int64(t), v, nil
	}
	t, err := r.u32(off)
	if err != nil {
		return 0, 0, err
	}
	v, err := r.u32(off + 4)
	if err != nil {
		return 0, 0, err
	}
	return int64(int32(t)), uint64(v), nil
}

// cstring extracts a bounds-checked, NUL-terminated string at strOff bytes
// into the string table [tabOff, tabOff+tabSize).
func (r *reader) cstring(tabOff int64, tabSize uint64, strOff uint64) (string, error) {
	if strOff >= tabSize {
		return "", fmt.Errorf("string offset %#x outside string table (size %#x): %w", strOff, tabSize, ErrMalformed)
	}
	start := tabOff + int64(strOff)
	end := tabOff + int64(tabSize)
	if start < 0 || end > int64(len(r.data)) || start > end {
		return "", fmt.Errorf("string table [%#x,%#x) out of file range: %w", start, end, ErrMalformed)
	}
	for i := start; i < end; i++ {
		if r.data[i] == 0 {
			return string(r.data[start:i]), nil
		}
	}
	return "", fmt.Errorf("unterminated string at offset %#x: %w", strOff, ErrMalformed)
}

// interpreter locates PT_INTERP and reads its raw, NUL-terminated content.
func (r *reader) interpreter() (string, bool, error) {
	var phoffOff, phentOff, phnumOff int64
	if r.class == Class64 {
		phoffOff, phentOff, phnumOff = 32, 54, 56
	} else {
		phoffOff, phentOff, phnumOff = 28, 42, 44
	}
	phoff, err := r.word(phoffOff)
	if err != nil {
		return "", false, err
	}
	phentsize, err := r.u16(phentOff)
	if err != nil {
		return "", false, err
	}
	phnum, err := r.u16(phnumOff)
	if err != nil {
		return "", false, err
	}
	if phoff == 0 || phnum == 0 {
		return "", false, nil
	}
	minPh := 32
	if r.class == Class64 {
		minPh = 56
	}
	if int(phentsize) < minPh {
		return "", false, fmt.Errorf("program header entsize %d smaller than %d: %w", phentsize, minPh, ErrMalformed)
	}

	for i := 0; i < int(phnum); i++ {
		base := int64(phoff) + int64(i)*int64(phentsize)
		typ, err := r.u32(base)
		if err != nil {
			return "", false, err
		}
		if typ != ptInterp {
			continue
		}
		var fileOff, fileSz uint64
		if r.class == Class64 {
			fileOff, err = r.u64(base + 8)
			if err != nil {
				return "", false, err
			}
			fileSz, err = r.u64(base + 32)
			if err != nil {
				return "", false, err
			}
		} else {
			v, err := r.u32(base + 4)
			if err != nil {
				return "", false, err
			}
			fileOff = uint64(v)
			v, err = r.u32(base + 16)
			if err != nil {
				return "", false, err
			}
			fileSz = uint64(v)
		}
		start := int64(fileOff)
		end := start + int64(fileSz)
		if start < 0 || end > int64(len(r.data)) || start > end {
			return "", false, fmt.Errorf("PT_INTERP [%#x,%#x) out of file range: %w", start, end, ErrMalformed)
		}
		for j := start; j < end; j++ {
			if r.data[j] == 0 {
				return string(r.data[start:j]), true, nil
			}
		}
		return string(r.data[start:end]), true, nil
	}
	return "", false, nil
}
