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
	"encoding/binary"
	"fmt"
	"io"
)

// writer accumulates the little-endian primitives §4.H describes: no
// padding, u32-length-prefixed strings, u32-count-prefixed sequences.
type writer struct {
	w   io.Writer
	err error
}

func newWriter(w io.Writer) *writer { return &writer{w: w} }

func (w *writer) write(p []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.Write(p)
}

func (w *writer) u8(v byte)   { w.write([]byte{v}) }
func (w *writer) u16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.write(b[:])
}
func (w *writer) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.write(b[:])
}
func (w *writer) u64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.write(b[:])
}

func (w *writer) str(s string) {
	w.u32(uint32(len(s)))
	w.write([]byte(s))
}

func (w *writer) strSeq(ss []string) {
	w.u32(uint32(len(ss)))
	for _, s := range ss {
		w.str(s)
	}
}

// reader is the read-side counterpart. Every method records the first
// error it hits and becomes a no-op thereafter, so call sites can chain
// reads and check r.err once at the end.
type reader struct {
	r   io.Reader
	err error
}

func newReader(r io.Reader) *reader { return &reader{r: r} }

func (r *reader) read(n int) []byte {
	if r.err != nil {
		return nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		r.err = fmt.Errorf("%w: %v", ErrCorrupt, err)
		return nil
	}
	return buf
}

func (r *reader) u8() byte {
	b := r.read(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) u16() uint16 {
	b := r.read(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *reader) u32() uint32 {
	b := r.read(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) u64() uint64 {
	b := r.read(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// maxStringLen guards against a corrupt length prefix causing an
// unbounded allocation.
const maxStringLen = 64 << 20

func (r *reader) str() string {
	n := r.u32()
	if r.err != nil {
		return ""
	}
	if n > maxStringLen {
		r.err = fmt.Errorf("%w: string length %d exceeds sanity limit", ErrCorrupt, n)
		return ""
	}
	b := r.read(int(n))
	if b == nil {
		return ""
	}
	return string(b)
}

func (r *reader) strSeq() []string {
	n := r.u32()
	if r.err != nil || n == 0 {
		return nil
	}
	out := make([]string, 0, n)
	seen := map[string]bool{}
	for i := uint32(0); i < n; i++ {
		s := r.str()
		if r.err != nil {
			return nil
		}
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// strList is like strSeq but preserves duplicates (filelists, DT_NEEDED
// lists — order- and multiplicity-sensitive, unlike rule sets).
func (r *reader) strList() []string {
	n := r.u32()
	if r.err != nil || n == 0 {
		return nil
	}
	out := make([]string, n)
	for i := range out {
		out[i] = r.str()
	}
	if r.err != nil {
		return nil
	}
	return out
}

func (w *writer) strList(ss []string) {
	w.u32(uint32(len(ss)))
	for _, s := range ss {
		w.str(s)
	}
}
