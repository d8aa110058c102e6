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

	"github.com/pkgdepdb/pkgdepdb/elf"
)

func objWith(class elf.Class, osabi elf.OSABI) *Object {
	return NewObject(&elf.Elf{Dirname: "/lib", Basename: "x.so", Class: class, OSABI: osabi})
}

// TestCanUseTable mirrors spec.md §8 property 5, the authoritative CanUse
// table (DESIGN.md Open Question 2).
func TestCanUseTable(t *testing.T) {
	cases := []struct {
		name       string
		subj, cand *Object
		strict     bool
		want       bool
	}{
		{"strict equal class+osabi", objWith(elf.Class64, elf.OSABILinux), objWith(elf.Class64, elf.OSABILinux), true, true},
		{"strict differing class", objWith(elf.Class64, elf.OSABILinux), objWith(elf.Class32, elf.OSABILinux), true, false},
		{"strict differing osabi", objWith(elf.Class64, elf.OSABILinux), objWith(elf.Class64, elf.OSABIFreeBSD), true, false},
		{"weak none satisfies linux subject", objWith(elf.Class64, elf.OSABILinux), objWith(elf.Class64, elf.OSABINone), false, true},
		{"weak linux satisfies linux subject", objWith(elf.Class64, elf.OSABILinux), objWith(elf.Class64, elf.OSABILinux), false, true},
		{"weak freebsd does not satisfy linux subject", objWith(elf.Class64, elf.OSABILinux), objWith(elf.Class64, elf.OSABIFreeBSD), false, false},
		{"weak differing class still fails", objWith(elf.Class64, elf.OSABILinux), objWith(elf.Class32, elf.OSABINone), false, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := CanUse(c.subj, c.cand, c.strict); got != c.want {
				t.Errorf("CanUse(%s) = %v, want %v", c.name, got, c.want)
			}
		})
	}
}

func TestVisibleViaRPathRunpathAndExtras(t *testing.T) {
	db := New("vis")
	rpath := "/opt/lib"
	s := NewObject(&elf.Elf{Dirname: "/usr/bin", Basename: "app", RPath: &rpath})

	if !db.visible(s, "/opt/lib") {
		t.Error("expected rpath directory to be visible")
	}
	if db.visible(s, "/not/there") {
		t.Error("unrelated directory should not be visible")
	}

	db.LibraryPath = []string{"/usr/lib"}
	if !db.visible(s, "/usr/lib") {
		t.Error("expected DB.LibraryPath directory to be visible via extras")
	}
}

func TestVisibleViaBasePackage(t *testing.T) {
	db := New("basepkg")
	owner := NewPackage("app-pkg", "1.0")
	s := NewObject(&elf.Elf{Dirname: "/usr/bin", Basename: "app"})
	owner.AddObject(s)

	db.BasePackagesAdd("base")
	db.PackageLibraryPath = map[string][]string{"base": {"/base/lib"}}

	if !db.visible(s, "/base/lib") {
		t.Error("expected base package's per-package path to be visible")
	}
}

func TestSatisfyTieBreakIsFirstInIterationOrder(t *testing.T) {
	db := New("tiebreak")
	db.LibraryPath = []string{"/usr/lib"}
	first := NewObject(&elf.Elf{Dirname: "/usr/lib", Basename: "libc.so.6", Class: elf.Class64, OSABI: elf.OSABILinux})
	second := NewObject(&elf.Elf{Dirname: "/usr/lib", Basename: "libc.so.6", Class: elf.Class64, OSABI: elf.OSABILinux})
	db.Objects = append(db.Objects, first, second)

	s := NewObject(&elf.Elf{Dirname: "/usr/bin", Basename: "app", Class: elf.Class64, OSABI: elf.OSABILinux, Needed: []string{"libc.so.6"}})
	cand, assumed := db.satisfy(s, "libc.so.6")
	if assumed {
		t.Fatal("expected a real object match, not an assume-found short-circuit")
	}
	if cand != first {
		t.Error("expected the first matching object in DB.Objects to win the tie")
	}
}
