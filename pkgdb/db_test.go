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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkgdepdb/pkgdepdb/elf"
)

func libcObject() *Object {
	return NewObject(&elf.Elf{
		Dirname: "/usr/lib", Basename: "libc.so.6",
		Class: elf.Class64, Data: elf.DataLittle, OSABI: elf.OSABILinux,
	})
}

func appObject() *Object {
	return NewObject(&elf.Elf{
		Dirname: "/usr/bin", Basename: "app",
		Class: elf.Class64, Data: elf.DataLittle, OSABI: elf.OSABILinux,
		Needed: []string{"libc.so.6"},
	})
}

// TestS2Link mirrors spec.md scenario S2: trusted library_path satisfies a
// NEEDED entry with no rpath/runpath on the subject.
func TestS2Link(t *testing.T) {
	db := New("s2")
	db.LibraryPath = []string{"/usr/lib"}

	libcPkg := NewPackage("libc-pkg", "1.0")
	libcPkg.AddObject(libcObject())
	require.True(t, db.InstallPackage(libcPkg))

	appPkg := NewPackage("app-pkg", "1.0")
	app := appObject()
	appPkg.AddObject(app)
	require.True(t, db.InstallPackage(appPkg))

	require.Empty(t, db.ReqMissing[app])
	require.Len(t, db.ReqFound[app], 1)
	assert.Equal(t, "libc.so.6", db.ReqFound[app][0].Basename)
}

// TestS3BackSatisfaction mirrors scenario S3: app-pkg installed first is
// broken until libc-pkg is installed, at which point back-satisfaction
// clears req_missing without a RelinkAll.
func TestS3BackSatisfaction(t *testing.T) {
	db := New("s3")
	db.LibraryPath = []string{"/usr/lib"}

	appPkg := NewPackage("app-pkg", "1.0")
	app := appObject()
	appPkg.AddObject(app)
	db.InstallPackage(appPkg)

	require.Equal(t, []string{"libc.so.6"}, db.ReqMissing[app])

	libcPkg := NewPackage("libc-pkg", "1.0")
	libcPkg.AddObject(libcObject())
	db.InstallPackage(libcPkg)

	assert.Empty(t, db.ReqMissing[app])
	require.Len(t, db.ReqFound[app], 1)
}

// TestS4AssumeFound mirrors scenario S4: an assume_found rule satisfies a
// NEEDED entry by fiat, recording no object-level edge.
func TestS4AssumeFound(t *testing.T) {
	db := New("s4")
	db.AssumeFoundAdd("libc.so.6")

	appPkg := NewPackage("app-pkg", "1.0")
	app := appObject()
	appPkg.AddObject(app)
	db.InstallPackage(appPkg)

	assert.Empty(t, db.ReqMissing[app])
	assert.Empty(t, db.ReqFound[app])
}

// TestInstallIdempotence checks spec.md §8 property 3: installing the same
// package twice is equal to installing it once.
func TestInstallIdempotence(t *testing.T) {
	db := New("idem")
	db.LibraryPath = []string{"/usr/lib"}

	libcPkg := NewPackage("libc-pkg", "1.0")
	libcPkg.AddObject(libcObject())
	db.InstallPackage(libcPkg)
	db.InstallPackage(libcPkg)

	require.Len(t, db.Packages, 1)
	require.Len(t, db.Objects, 1)
}

// TestInstallReplacesExistingAtomically covers invariant 3: installing a
// package with an existing name replaces it, never leaving two same-named
// packages.
func TestInstallReplacesExistingAtomically(t *testing.T) {
	db := New("replace")
	first := NewPackage("app-pkg", "1.0")
	first.AddObject(appObject())
	db.InstallPackage(first)

	second := NewPackage("app-pkg", "2.0")
	second.AddObject(appObject())
	db.InstallPackage(second)

	require.Len(t, db.Packages, 1)
	assert.Equal(t, "2.0", db.PackageByName("app-pkg").Version)
}

// TestDeletePackageRemovesDereferencedObjects covers DESIGN.md Open
// Question 1: objects are removed from DB.Objects as soon as their last
// owner is deleted, not deferred to the next RelinkAll.
func TestDeletePackageRemovesDereferencedObjects(t *testing.T) {
	db := New("delete")
	libcPkg := NewPackage("libc-pkg", "1.0")
	libcPkg.AddObject(libcObject())
	db.InstallPackage(libcPkg)
	require.Len(t, db.Objects, 1)

	require.True(t, db.DeletePackage("libc-pkg"))
	assert.Empty(t, db.Objects)
	assert.Nil(t, db.PackageByName("libc-pkg"))
}

func TestRelinkAllMatchesIncremental(t *testing.T) {
	db := New("relink")
	db.LibraryPath = []string{"/usr/lib"}
	libcPkg := NewPackage("libc-pkg", "1.0")
	libcPkg.AddObject(libcObject())
	db.InstallPackage(libcPkg)

	appPkg := NewPackage("app-pkg", "1.0")
	app := appObject()
	appPkg.AddObject(app)
	db.InstallPackage(appPkg)

	incrementalFound := len(db.ReqFound[app])
	db.RelinkAll()
	assert.Equal(t, incrementalFound, len(db.ReqFound[app]))
	assert.Empty(t, db.ReqMissing[app])
}

func TestRelinkAllThreadedMatchesSerial(t *testing.T) {
	db := New("threaded")
	db.LibraryPath = []string{"/usr/lib"}
	libcPkg := NewPackage("libc-pkg", "1.0")
	libcPkg.AddObject(libcObject())
	db.InstallPackage(libcPkg)

	for i := 0; i < 10; i++ {
		p := NewPackage("app-pkg", "1.0")
		p.AddObject(appObject())
		db.InstallPackage(p)
		db.DeletePackage("app-pkg")
	}
	finalApp := NewPackage("app-pkg", "1.0")
	app := appObject()
	finalApp.AddObject(app)
	db.InstallPackage(finalApp)

	require.NoError(t, db.RelinkAllThreaded(4))
	assert.Empty(t, db.ReqMissing[app])
	assert.Len(t, db.ReqFound[app], 1)
}

func TestRelinkAllThreadedClampsMaxJobs(t *testing.T) {
	db := New("clamp")
	require.NoError(t, db.RelinkAllThreaded(1000))
}

func TestWipePackagesKeepsRules(t *testing.T) {
	db := New("wipe")
	db.LibraryPath = []string{"/usr/lib"}
	p := NewPackage("app-pkg", "1.0")
	p.AddObject(appObject())
	db.InstallPackage(p)

	db.WipePackages()
	assert.Empty(t, db.Packages)
	assert.Empty(t, db.Objects)
	assert.Equal(t, []string{"/usr/lib"}, db.LibraryPath)
}

func TestWipeFilelistsKeepsObjects(t *testing.T) {
	db := New("wipefl")
	p := NewPackage("app-pkg", "1.0")
	p.Filelist = []string{"/usr/bin/app"}
	p.AddObject(appObject())
	db.InstallPackage(p)

	db.WipeFilelists()
	assert.Empty(t, db.PackageByName("app-pkg").Filelist)
	assert.Len(t, db.Objects, 1)
}
