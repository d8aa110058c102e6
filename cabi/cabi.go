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

// Command cabi is pkgdepdb's C ABI mirror (spec.md §6), built with
// `go build -buildmode=c-shared` (or c-archive). It is a supplemented
// feature recovered from original_source/capi_*.cpp: opaque db/pkg/elf
// handles, an elf handle released by elf_unref, owned db/pkg handles
// (_delete), and a rotating last-error slot after capi_common.cpp's
// pkgdepdb_error/pkgdepdb_set_error pair. The slot is one process-wide
// value guarded by a mutex, not a per-thread one: an error set on one
// thread is returned by pkgdepdb_error on any thread.
//
// Go has no raw pointer-to-struct C ABI story as direct as C++'s
// reinterpret_cast, so handles are issued through runtime/cgo.Handle,
// the standard library's own mechanism for passing Go values across
// the cgo boundary opaquely -- the idiomatic replacement for
// capi_*.cpp's reinterpret_cast<T*> dance, not a third-party
// substitute for it.
//
// The CLI (cmd/pkgdepdb) talks to the Go API directly; this package
// exists purely for interop completeness with callers embedding
// pkgdepdb as a C library, per SPEC_FULL.md's "wired for documentation/
// interop completeness" note.
package main

// #include <stdlib.h>
import "C"

import (
	"context"
	"runtime/cgo"
	"sync"
	"unsafe"

	"github.com/google/uuid"

	"github.com/pkgdepdb/pkgdepdb/pkgdb"
	"github.com/pkgdepdb/pkgdepdb/serialize"
)

func main() {} // required for -buildmode=c-shared/c-archive; unused otherwise.

// sessionID is a diagnostic identifier returned by pkgdepdb_session_id,
// not part of the on-disk format (§4.H keeps the wire format exactly as
// specified). The CLI does not print it.
var sessionID = uuid.New().String()

var errMu sync.Mutex
var lastError *C.char
var previousError *C.char

func rotateError() {
	errMu.Lock()
	defer errMu.Unlock()
	if previousError != nil {
		C.free(unsafe.Pointer(previousError))
	}
	previousError = lastError
	lastError = nil
}

func setError(msg string) {
	errMu.Lock()
	if lastError != nil {
		C.free(unsafe.Pointer(lastError))
	}
	lastError = C.CString(msg)
	errMu.Unlock()
}

//export pkgdepdb_session_id
func pkgdepdb_session_id() *C.char {
	return C.CString(sessionID)
}

//export pkgdepdb_clear_error
func pkgdepdb_clear_error() {
	errMu.Lock()
	defer errMu.Unlock()
	if lastError != nil {
		C.free(unsafe.Pointer(lastError))
		lastError = nil
	}
	if previousError != nil {
		C.free(unsafe.Pointer(previousError))
		previousError = nil
	}
}

//export pkgdepdb_error
func pkgdepdb_error() *C.char {
	rotateError()
	return previousError
}

// --- db handles ---

//export pkgdepdb_db_new
func pkgdepdb_db_new(name *C.char) C.uintptr_t {
	db := pkgdb.New(C.GoString(name))
	return C.uintptr_t(cgo.NewHandle(db))
}

//export pkgdepdb_db_delete
func pkgdepdb_db_delete(h C.uintptr_t) {
	cgo.Handle(h).Delete()
}

func dbFromHandle(h C.uintptr_t) *pkgdb.DB {
	return cgo.Handle(h).Value().(*pkgdb.DB)
}

//export pkgdepdb_db_read
func pkgdepdb_db_read(h C.uintptr_t, filename *C.char) C.int {
	path := C.GoString(filename)
	loaded, err := serialize.Load(context.Background(), path)
	if err != nil {
		setError(err.Error())
		return 0
	}
	*dbFromHandle(h) = *loaded
	return 1
}

//export pkgdepdb_db_store
func pkgdepdb_db_store(h C.uintptr_t, filename *C.char) C.int {
	if err := serialize.Store(context.Background(), C.GoString(filename), dbFromHandle(h)); err != nil {
		setError(err.Error())
		return 0
	}
	return 1
}

//export pkgdepdb_db_name
func pkgdepdb_db_name(h C.uintptr_t) *C.char {
	return C.CString(dbFromHandle(h).Name)
}

//export pkgdepdb_db_strict_linking
func pkgdepdb_db_strict_linking(h C.uintptr_t) C.int {
	if dbFromHandle(h).StrictLinking {
		return 1
	}
	return 0
}

//export pkgdepdb_db_package_count
func pkgdepdb_db_package_count(h C.uintptr_t) C.size_t {
	return C.size_t(len(dbFromHandle(h).Packages))
}

//export pkgdepdb_db_object_count
func pkgdepdb_db_object_count(h C.uintptr_t) C.size_t {
	return C.size_t(len(dbFromHandle(h).Objects))
}

//export pkgdepdb_db_delete_package
func pkgdepdb_db_delete_package(h C.uintptr_t, name *C.char) C.int {
	if dbFromHandle(h).DeletePackage(C.GoString(name)) {
		return 1
	}
	return 0
}

//export pkgdepdb_db_library_path_add
func pkgdepdb_db_library_path_add(h C.uintptr_t, path *C.char) C.int {
	if dbFromHandle(h).LDAppend(C.GoString(path)) {
		return 1
	}
	return 0
}

//export pkgdepdb_db_library_path_del
func pkgdepdb_db_library_path_del(h C.uintptr_t, path *C.char) C.int {
	if dbFromHandle(h).LDDelete(C.GoString(path)) {
		return 1
	}
	return 0
}

//export pkgdepdb_db_relink
func pkgdepdb_db_relink(h C.uintptr_t) {
	dbFromHandle(h).RelinkAll()
}

// --- elf handles (cgo.Handle; unref deletes the handle) ---

//export pkgdepdb_elf_can_use
func pkgdepdb_elf_can_use(subject, object C.uintptr_t, strict C.int) C.int {
	s := cgo.Handle(subject).Value().(*pkgdb.Object)
	o := cgo.Handle(object).Value().(*pkgdb.Object)
	if pkgdb.CanUse(s, o, strict != 0) {
		return 1
	}
	return 0
}

//export pkgdepdb_elf_unref
func pkgdepdb_elf_unref(h C.uintptr_t) {
	cgo.Handle(h).Delete()
}

//export pkgdepdb_elf_basename
func pkgdepdb_elf_basename(h C.uintptr_t) *C.char {
	o := cgo.Handle(h).Value().(*pkgdb.Object)
	return C.CString(o.Basename)
}

//export pkgdepdb_elf_dirname
func pkgdepdb_elf_dirname(h C.uintptr_t) *C.char {
	o := cgo.Handle(h).Value().(*pkgdb.Object)
	return C.CString(o.Dirname)
}
