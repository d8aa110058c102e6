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
	"bytes"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkgdepdb/pkgdepdb/elf"
	"github.com/pkgdepdb/pkgdepdb/pkgdb"
)

func makeObject(dir, base string) *pkgdb.Object {
	return pkgdb.NewObject(&elf.Elf{
		Dirname: dir, Basename: base,
		Class: elf.Class64, Data: elf.DataLittle, OSABI: elf.OSABILinux,
		Needed: []string{"libc.so.6"},
	})
}

// buildRichDB mirrors scenario S5: two packages, six dependency axes,
// groups, filelists, strict linking, two ignore rules, one base package.
func buildRichDB() *pkgdb.DB {
	db := pkgdb.New("s5")
	db.StrictLinking = true
	db.LibraryPath = []string{"/usr/lib"}
	db.IgnoreFileRules = []string{"*.la", "*.a"}
	db.BasePackagesAdd("base")

	libc := pkgdb.NewPackage("libc-pkg", "1.0")
	libObj := makeObject("/usr/lib", "libc.so.6")
	libObj.Needed = nil
	libc.AddObject(libObj)
	libc.AddGroup("core")
	libc.Filelist = []string{"/usr/lib/libc.so.6"}

	app := pkgdb.NewPackage("app-pkg", "2.0")
	appObj := makeObject("/usr/bin", "app")
	app.AddObject(appObj)
	app.AddGroup("core")
	app.AddGroup("extra")
	app.Filelist = []string{"/usr/bin/app"}
	app.Depends = []pkgdb.Dep{{Name: "libc-pkg", Constraint: ">=1.0"}}
	app.OptDepends = []pkgdb.Dep{{Name: "docs"}}
	app.MakeDepends = []pkgdb.Dep{{Name: "gcc"}}
	app.Provides = []pkgdb.Dep{{Name: "app"}}
	app.Conflicts = []pkgdb.Dep{{Name: "old-app"}}
	app.Replaces = []pkgdb.Dep{{Name: "old-app"}}

	db.InstallPackage(libc)
	db.InstallPackage(app)
	return db
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	db := buildRichDB()

	var buf bytes.Buffer
	require.NoError(t, EncodeDB(&buf, db))

	got, err := DecodeDB(&buf)
	require.NoError(t, err)

	assert.Equal(t, db.Name, got.Name)
	assert.Equal(t, db.StrictLinking, got.StrictLinking)
	assert.ElementsMatch(t, db.LibraryPath, got.LibraryPath)
	assert.ElementsMatch(t, db.IgnoreFileRules, got.IgnoreFileRules)
	assert.ElementsMatch(t, db.BasePackages, got.BasePackages)
	require.Len(t, got.Packages, len(db.Packages))

	gotApp := got.PackageByName("app-pkg")
	require.NotNil(t, gotApp)
	assert.Equal(t, "2.0", gotApp.Version)
	assert.ElementsMatch(t, []string{"core", "extra"}, gotApp.Groups)
	assert.Equal(t, []pkgdb.Dep{{Name: "libc-pkg", Constraint: ">=1.0"}}, gotApp.Depends)
	assert.Equal(t, []string{"/usr/bin/app"}, gotApp.Filelist)
}

func TestDecodeObjectSharingIsPointerEqual(t *testing.T) {
	db := buildRichDB()

	var buf bytes.Buffer
	require.NoError(t, EncodeDB(&buf, db))

	got, err := DecodeDB(&buf)
	require.NoError(t, err)

	for _, p := range got.Packages {
		for _, o := range p.Objects {
			found := false
			for _, dbo := range got.Objects {
				if dbo == o { // pointer equality, property 2
					found = true
					break
				}
			}
			assert.True(t, found, "object %s/%s from package %s not shared with DB.Objects", o.Dirname, o.Basename, p.Name)
		}
	}
}

func TestEncodeGzipRoundTrip(t *testing.T) {
	db := buildRichDB()

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	require.NoError(t, EncodeDB(gw, db))
	require.NoError(t, gw.Close())

	gr, err := gzip.NewReader(bytes.NewReader(gz.Bytes()))
	require.NoError(t, err)
	defer gr.Close()

	got, err := DecodeDB(gr)
	require.NoError(t, err)
	assert.Equal(t, db.Name, got.Name)
	assert.Len(t, got.Packages, len(db.Packages))
}

// TestVersionFloor mirrors scenario S6: a DB with only a name and two
// library paths still emits version 9 with flags=0.
func TestVersionFloor(t *testing.T) {
	db := pkgdb.New("minimal")
	db.LibraryPath = []string{"/lib", "/usr/lib"}

	version := chooseVersion(db)
	flags := computeFlags(db)
	assert.Equal(t, VInterpreter, version)
	assert.Equal(t, uint16(0), flags)

	var buf bytes.Buffer
	require.NoError(t, EncodeDB(&buf, db))
	r := newReader(&buf)
	gotVersion, gotFlags, err := readHeader(r)
	require.NoError(t, err)
	assert.Equal(t, VInterpreter, gotVersion)
	assert.Equal(t, uint16(0), gotFlags)
}

func TestVersionBumpsForSplitDepsAndCheckDepends(t *testing.T) {
	db := pkgdb.New("versioned")
	p := pkgdb.NewPackage("pkg", "1.0")
	p.Depends = []pkgdb.Dep{{Name: "a", Constraint: ">=1"}}
	db.InstallPackage(p)
	assert.Equal(t, VSplitDeps, chooseVersion(db))

	p.CheckDepends = []pkgdb.Dep{{Name: "check-a"}}
	assert.Equal(t, VCheckDepends, chooseVersion(db))
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	buf := bytes.NewBufferString("not a pkgdepdb database at all, definitely not")
	_, err := DecodeDB(buf)
	require.Error(t, err)
}

func TestDecodeRejectsFutureVersion(t *testing.T) {
	var buf bytes.Buffer
	w := newWriter(&buf)
	writeHeader(w, CurrentVersion+1, 0)
	_, err := DecodeDB(&buf)
	require.ErrorIs(t, err, ErrVersionUnsupported)
}
