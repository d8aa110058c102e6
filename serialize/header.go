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
	"io"

	"github.com/pkgdepdb/pkgdepdb/pkgdb"
)

func writeHeader(w *writer, version Version, flags uint16) {
	w.write([]byte(Magic))
	w.u16(uint16(version))
	w.u16(flags)
	w.write(make([]byte, HeaderSize-len(Magic)-4))
}

func readHeader(r *reader) (Version, uint16, error) {
	magic := r.read(len(Magic))
	if r.err != nil {
		return 0, 0, r.err
	}
	if string(magic) != Magic {
		return 0, 0, ErrBadMagic
	}
	version := Version(r.u16())
	flags := r.u16()
	r.read(HeaderSize - len(Magic) - 4) // reserved, discarded
	if r.err != nil {
		return 0, 0, r.err
	}
	if version > CurrentVersion {
		return 0, 0, fmt.Errorf("%w: version %d", ErrVersionUnsupported, version)
	}
	return version, flags, nil
}

// EncodeDB writes db to w in the binary container format, choosing the
// minimum version that expresses everything present (§4.H).
func EncodeDB(w io.Writer, db *pkgdb.DB) error {
	version := chooseVersion(db)
	flags := computeFlags(db)
	ww := newWriter(w)
	writeHeader(ww, version, flags)
	encodeBody(ww, db, version, flags)
	return ww.err
}

// DecodeDB reads a DB previously written by EncodeDB (or a compatible
// writer using the same version ladder) from r.
func DecodeDB(r io.Reader) (*pkgdb.DB, error) {
	rr := newReader(r)
	version, flags, err := readHeader(rr)
	if err != nil {
		return nil, err
	}
	db := decodeBody(rr, version, flags)
	if rr.err != nil {
		return nil, rr.err
	}
	return db, nil
}
