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

// Package serialize implements the versioned binary container for
// pkgdb.DB (§4.H): a fixed header, a reference-sharing encoding for
// packages and objects, an optional gzip wrapper selected by a ".gz"
// suffix, and a POSIX advisory file lock taken around every read or
// write (github.com/gofrs/flock, shared for read and exclusive for
// write).
package serialize

import "errors"

// Magic is the fixed 16-byte header preamble.
const Magic = "ArchBSD\x00deps~DB~"

// HeaderSize is the total size, in bytes, of the fixed header: 16-byte
// magic, u16 version, u16 flags, 22 reserved bytes.
const HeaderSize = 16 + 2 + 2 + 22

// Version is the on-disk format version.
type Version uint16

// CurrentVersion is the newest version this package can write. The
// header check accepts every version up to and including this one, but
// the body decoder reads only the version-8-and-later layout (ordinal
// references, all six dependency lists always present); it does not
// decode the older reference encoding or the shorter package bodies of
// versions 1-7.
const CurrentVersion Version = 12

// Version ladder (§4.H): each step lists the feature that first required
// it. The writer always picks the minimum version that can express
// everything present in the DB, but never goes below MinWriteVersion.
const (
	VLegacy            Version = 1  // baseline
	VFlags             Version = 2  // any flag bit set
	VPackageDeps       Version = 3  // depends/optdepends
	VProvidesConflicts Version = 4  // + provides/conflicts/replaces
	VGroups            Version = 5  // + groups
	VAssumeFound       Version = 6  // + assume-found
	VFileLists         Version = 7  // + filelists
	VOrdinalRefs       Version = 8  // ordinal reference encoding
	VInterpreter       Version = 9  // + interpreter field on ELF
	VSplitDeps         Version = 10 // (name, constraint) pairs, not glued strings
	VReserved11        Version = 11 // reserved
	VCheckDepends      Version = 12 // + checkdepends
)

// MinWriteVersion is the lowest version the writer ever emits: spec.md
// §4.H says "the writer never emits below 8 even when older data would
// fit, and never below 9 since interpreter is standard."
const MinWriteVersion Version = VInterpreter

// Flag bits within the header's u16 flags field.
const (
	FlagIgnoreRules uint16 = 1 << iota
	FlagPackageLDPath
	FlagBasePackages
	FlagStrictLinking
	FlagAssumeFound
	FlagFileLists
)

// Reference tags: one byte preceding every package or object occurrence
// in the body.
const (
	TagPkg    byte = 0
	TagPkgRef byte = 1
	TagObj    byte = 2
	TagObjRef byte = 3
)

var (
	// ErrBadMagic is returned when a file's header preamble does not
	// match Magic (§7 DBCorrupt).
	ErrBadMagic = errors.New("serialize: bad magic, not a pkgdepdb database")
	// ErrVersionUnsupported is returned when the header version exceeds
	// CurrentVersion (§7 DBVersionUnsupported).
	ErrVersionUnsupported = errors.New("serialize: database version newer than supported")
	// ErrCorrupt wraps structural decode failures: truncated reads,
	// dangling references, bad entsize (§7 DBCorrupt).
	ErrCorrupt = errors.New("serialize: corrupt database")
)
