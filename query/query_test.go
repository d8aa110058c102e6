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

package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkgdepdb/pkgdepdb/elf"
	"github.com/pkgdepdb/pkgdepdb/match"
	"github.com/pkgdepdb/pkgdepdb/pkgdb"
)

func buildTestDB() *pkgdb.DB {
	db := pkgdb.New("q")
	db.LibraryPath = []string{"/usr/lib"}

	libc := pkgdb.NewPackage("libc-pkg", "1.0")
	libc.AddObject(pkgdb.NewObject(&elf.Elf{
		Dirname: "/usr/lib", Basename: "libc.so.6", Class: elf.Class64, OSABI: elf.OSABILinux,
	}))
	db.InstallPackage(libc)

	app := pkgdb.NewPackage("app-pkg", "1.0")
	app.Filelist = []string{"/usr/bin/app"}
	app.Depends = []pkgdb.Dep{{Name: "libc-pkg"}}
	app.AddObject(pkgdb.NewObject(&elf.Elf{
		Dirname: "/usr/bin", Basename: "app", Class: elf.Class64, OSABI: elf.OSABILinux,
		Needed: []string{"libc.so.6"},
	}))
	db.InstallPackage(app)

	broken := pkgdb.NewPackage("broken-pkg", "1.0")
	broken.Depends = []pkgdb.Dep{{Name: "nonexistent"}}
	broken.AddObject(pkgdb.NewObject(&elf.Elf{
		Dirname: "/usr/bin", Basename: "broken", Class: elf.Class64, OSABI: elf.OSABILinux,
		Needed: []string{"libmissing.so"},
	}))
	db.InstallPackage(broken)

	return db
}

func exactFilter(axis Axis, pattern string) Filter {
	p, _ := match.NewPredicate(match.KindExact, pattern, false, false)
	return NewFilter(axis, p, false)
}

func TestBrokenPackagesAndObjects(t *testing.T) {
	db := buildTestDB()
	q := New(db)

	broken := q.BrokenPackages()
	require.Len(t, broken, 1)
	assert.Equal(t, "broken-pkg", broken[0].Name)

	brokenObjs := q.BrokenObjects()
	require.Len(t, brokenObjs, 1)
	assert.Equal(t, "broken", brokenObjs[0].Basename)
}

func TestPackagesFilterByName(t *testing.T) {
	db := buildTestDB()
	q := New(db)

	got := q.Packages(exactFilter(AxisName, "app-pkg"))
	require.Len(t, got, 1)
	assert.Equal(t, "app-pkg", got[0].Name)
}

func TestFilterNegate(t *testing.T) {
	db := buildTestDB()
	q := New(db)

	p, _ := match.NewPredicate(match.KindExact, "app-pkg", false, false)
	f := NewFilter(AxisName, p, true) // top-level negate
	got := q.Packages(f)
	names := map[string]bool{}
	for _, p := range got {
		names[p.Name] = true
	}
	assert.False(t, names["app-pkg"])
	assert.True(t, names["libc-pkg"])
}

func TestFilelistFilter(t *testing.T) {
	db := buildTestDB()
	q := New(db)
	app := db.PackageByName("app-pkg")

	got := q.Filelist(app, exactFilter(AxisFile, "/usr/bin/app"))
	assert.Equal(t, []string{"/usr/bin/app"}, got)
}

func TestCheckIntegrityFlagsUnresolvedDepends(t *testing.T) {
	db := buildTestDB()
	q := New(db)

	issues := q.CheckIntegrity()
	require.Len(t, issues, 1)
	assert.Equal(t, "broken-pkg", issues[0].Package.Name)
	assert.Equal(t, "nonexistent", issues[0].Depend.Name)
}

func TestCheckIntegrityAllowsBasePackages(t *testing.T) {
	db := buildTestDB()
	db.BasePackagesAdd("nonexistent")
	q := New(db)

	issues := q.CheckIntegrity()
	assert.Empty(t, issues)
}

func TestCheckIntegrityAllowsProvides(t *testing.T) {
	db := pkgdb.New("provides")
	provider := pkgdb.NewPackage("provider-pkg", "1.0")
	provider.Provides = []pkgdb.Dep{{Name: "virtual-thing"}}
	db.InstallPackage(provider)

	consumer := pkgdb.NewPackage("consumer-pkg", "1.0")
	consumer.Depends = []pkgdb.Dep{{Name: "virtual-thing"}}
	db.InstallPackage(consumer)

	q := New(db)
	assert.Empty(t, q.CheckIntegrity())
}
