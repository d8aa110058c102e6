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
	"errors"
	"testing"
)

// elfBuilder assembles a minimal, well-formed 64-bit ELF image with a
// dynamic section and a PT_INTERP segment, byte for byte, the way a real
// linker would lay one out. Used to build scenario S1's fixture without
// depending on debug/elf.
type elfBuilder struct {
	data     string
	needed   []string
	rpath    string
	runpath  bool
	hasRpath bool
	interp   string
}

// elfLayout reports the byte offsets of the DT_STRSZ dynamic entry's
// value field, for tests that need to corrupt it directly.
type elfLayout struct {
	data        []byte
	strszValOff int64
}

func buildELF64LE(b elfBuilder) []byte {
	return buildELF64LEWithLayout(b).data
}

func buildELF64LEWithLayout(b elfBuilder) elfLayout {
	var strtab []byte
	strtab = append(strtab, 0) // offset 0 is the empty string

	internNeeded := make([]uint64, len(b.needed))
	for i, n := range b.needed {
		internNeeded[i] = uint64(len(strtab))
		strtab = append(strtab, append([]byte(n), 0)...)
	}
	var rpathOff, runpathOff uint64
	if b.hasRpath {
		rpathOff = uint64(len(strtab))
		strtab = append(strtab, append([]byte(b.rpath), 0)...)
	}
	if b.runpath {
		runpathOff = uint64(len(strtab))
		strtab = append(strtab, append([]byte(b.rpath), 0)...)
	}

	const ehsize = 64
	const phentsize = 56
	const shentsize = 64

	numPhdrs := 0
	if b.interp != "" {
		numPhdrs = 1
	}
	phoff := int64(ehsize)
	phTotal := int64(numPhdrs) * phentsize

	interpOff := phoff + phTotal
	interpBytes := append([]byte(b.interp), 0)
	if b.interp == "" {
		interpBytes = nil
	}

	dynOff := interpOff + int64(len(interpBytes))
	// dynamic entries: DT_NEEDED* , [DT_RPATH], [DT_RUNPATH], DT_STRTAB, DT_STRSZ, DT_NULL
	type dynEnt struct {
		tag int64
		val uint64
	}
	var dyns []dynEnt
	for _, off := range internNeeded {
		dyns = append(dyns, dynEnt{dtNeeded, off})
	}
	if b.hasRpath {
		dyns = append(dyns, dynEnt{dtRpath, rpathOff})
	}
	if b.runpath {
		dyns = append(dyns, dynEnt{dtRunpath, runpathOff})
	}
	// strtab address placed right after the dynamic section in our
	// synthetic layout; sh_addr == file offset keeps the fixture simple.
	strtabOff := dynOff + int64(len(dyns)+3)*16
	dyns = append(dyns, dynEnt{dtStrtab, uint64(strtabOff)})
	dyns = append(dyns, dynEnt{dtStrsz, uint64(len(strtab))})
	dyns = append(dyns, dynEnt{dtNull, 0})

	// DT_STRSZ is the second-to-last entry (before DT_NULL).
	strszIdx := len(dyns) - 2
	strszValOff := dynOff + int64(strszIdx)*16 + 8

	dynSize := int64(len(dyns)) * 16
	shoff := strtabOff + int64(len(strtab))

	buf := make([]byte, shoff+int64(2)*shentsize)
	copy(buf[0:4], "\x7fELF")
	buf[4] = 2 // ELFCLASS64
	buf[5] = 1 // ELFDATA2LSB
	buf[6] = 1 // EV_CURRENT
	buf[7] = 0 // ELFOSABI_NONE

	le := binary.LittleEndian
	le.PutUint64(buf[32:], uint64(phoff)) // e_phoff
	le.PutUint64(buf[40:], uint64(shoff)) // e_shoff
	le.PutUint16(buf[54:], phentsize)     // e_phentsize
	le.PutUint16(buf[56:], uint16(numPhdrs))
	le.PutUint16(buf[58:], shentsize) // e_shentsize
	le.PutUint16(buf[60:], 2)         // e_shnum: dynamic + strtab

	if numPhdrs == 1 {
		p := buf[phoff:]
		le.PutUint32(p[0:], ptInterp)
		le.PutUint64(p[8:], uint64(interpOff))  // p_offset
		le.PutUint64(p[32:], uint64(len(interpBytes))) // p_filesz
	}
	copy(buf[interpOff:], interpBytes)

	dp := buf[dynOff:]
	for i, d := range dyns {
		le.PutUint64(dp[i*16:], uint64(d.tag))
		le.PutUint64(dp[i*16+8:], d.val)
	}
	copy(buf[strtabOff:], strtab)

	// section 0: SHT_DYNAMIC
	s0 := buf[shoff:]
	le.PutUint32(s0[4:], shtDynamic)
	le.PutUint64(s0[24:], uint64(dynOff))
	le.PutUint64(s0[32:], uint64(dynSize))
	// section 1: SHT_STRTAB, sh_addr == strtabOff (matches DT_STRTAB)
	s1 := buf[shoff+shentsize:]
	le.PutUint32(s1[4:], shtStrtab)
	le.PutUint64(s1[16:], uint64(strtabOff)) // sh_addr
	le.PutUint64(s1[24:], uint64(strtabOff)) // sh_offset
	le.PutUint64(s1[32:], uint64(len(strtab)))

	return elfLayout{data: buf, strszValOff: strszValOff}
}

// TestParseS1 mirrors spec.md scenario S1: a 64-bit LE ELF with a single
// DT_NEEDED, a DT_RUNPATH, no rpath, and a PT_INTERP segment.
func TestParseS1(t *testing.T) {
	raw := buildELF64LE(elfBuilder{
		data:    "app",
		needed:  []string{"libc.so.6"},
		rpath:   "/usr/lib",
		runpath: true,
		interp:  "/lib64/ld-linux.so.2",
	})

	e, err := Parse(raw, "/usr/bin/app")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if e.Class != Class64 {
		t.Errorf("class = %v, want Class64", e.Class)
	}
	if e.Data != DataLittle {
		t.Errorf("data = %v, want DataLittle", e.Data)
	}
	if len(e.Needed) != 1 || e.Needed[0] != "libc.so.6" {
		t.Errorf("needed = %v, want [libc.so.6]", e.Needed)
	}
	if e.RunPath == nil || *e.RunPath != "/usr/lib" {
		t.Errorf("runpath = %v, want /usr/lib", e.RunPath)
	}
	if e.RPath != nil {
		t.Errorf("rpath = %v, want unset", *e.RPath)
	}
	if e.Interpreter == nil || *e.Interpreter != "/lib64/ld-linux.so.2" {
		t.Errorf("interpreter = %v, want /lib64/ld-linux.so.2", e.Interpreter)
	}
	if e.Dirname != "/usr/bin" || e.Basename != "app" {
		t.Errorf("dirname/basename = %q/%q, want /usr/bin/app", e.Dirname, e.Basename)
	}
}

func TestParseDuplicateNeededPreserved(t *testing.T) {
	raw := buildELF64LE(elfBuilder{needed: []string{"libc.so.6", "libc.so.6"}})
	e, err := Parse(raw, "app")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(e.Needed) != 2 {
		t.Errorf("needed = %v, want two duplicate entries preserved", e.Needed)
	}
}

func TestParseNotELF(t *testing.T) {
	_, err := Parse([]byte("not an elf file"), "x")
	if !errors.Is(err, ErrNotELF) {
		t.Errorf("err = %v, want ErrNotELF", err)
	}
}

func TestParseNoDynamicSectionIsSoftSkip(t *testing.T) {
	raw := buildELF64LE(elfBuilder{})
	// Drop the dynamic section by truncating shnum to 0 (strtab only would
	// also work, but simplest: zero out e_shnum).
	binary.LittleEndian.PutUint16(raw[60:], 0)
	_, err := Parse(raw, "nolink")
	if !errors.Is(err, ErrNotELF) {
		t.Errorf("err = %v, want ErrNotELF for missing SHT_DYNAMIC", err)
	}
}

func TestParseTruncatedIdent(t *testing.T) {
	_, err := Parse([]byte("\x7fELF\x02\x01"), "short")
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("err = %v, want ErrMalformed", err)
	}
}

func TestParseUnterminatedStringIsMalformed(t *testing.T) {
	layout := buildELF64LEWithLayout(elfBuilder{needed: []string{"libc.so.6"}})
	// Shrink DT_STRSZ so "libc.so.6" starts inside the string table the
	// reader is told to trust but its NUL terminator falls outside it.
	binary.LittleEndian.PutUint64(layout.data[layout.strszValOff:], 5)
	_, err := Parse(layout.data, "app")
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("err = %v, want ErrMalformed for truncated string table", err)
	}
}
