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

package match

import "testing"

func TestGlobLiteralCases(t *testing.T) {
	cases := []struct {
		pattern, name string
		want          bool
	}{
		{"a[bc]d", "abd", true},
		{"a[^bc]d", "abd", false},
		{"*x*", "axb", true},
		{"a?c", "abc", true},
		{"[unterm", "[unterm", true},
	}
	for _, c := range cases {
		if got := Glob(c.pattern, c.name); got != c.want {
			t.Errorf("Glob(%q, %q) = %v, want %v", c.pattern, c.name, got, c.want)
		}
	}
}

func TestGlobMisc(t *testing.T) {
	cases := []struct {
		pattern, name string
		want          bool
	}{
		{"*.so", "libfoo.so", true},
		{"*.so", "libfoo.so.1", false},
		{"*.so*", "libfoo.so.1", true},
		{"lib?.so", "libc.so", true},
		{"lib?.so", "libcc.so", false},
		{"[a-c]at", "bat", true},
		{"[a-c]at", "zat", false},
		{"", "", true},
		{"", "x", false},
		{"a[", "a[", true},
	}
	for _, c := range cases {
		if got := Glob(c.pattern, c.name); got != c.want {
			t.Errorf("Glob(%q, %q) = %v, want %v", c.pattern, c.name, got, c.want)
		}
	}
}

func TestCompileFastMatchesGlob(t *testing.T) {
	patterns := []string{"*.so", "lib?.so", "a[bc]d", "a[^bc]d", "[unterm", "*.so*"}
	names := []string{"libfoo.so", "libc.so", "abd", "acd", "[unterm", "libfoo.so.1"}
	for _, p := range patterns {
		fg := CompileFast(p)
		for _, n := range names {
			if got, want := fg.Match(n), Glob(p, n); got != want {
				t.Errorf("CompileFast(%q).Match(%q) = %v, want %v (Glob)", p, n, got, want)
			}
		}
	}
}

func TestExact(t *testing.T) {
	if !Exact("foo", "foo", false) {
		t.Error("Exact(foo, foo) should match")
	}
	if Exact("foo", "FOO", false) {
		t.Error("Exact is case-sensitive by default")
	}
	if !Exact("foo", "FOO", true) {
		t.Error("Exact with icase should fold case")
	}
}

func TestRegex(t *testing.T) {
	ok, err := Regex("^lib.*\\.so$", false, "libfoo.so")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("expected regex match")
	}
	if _, err := Regex("(", false, "x"); err == nil {
		t.Error("expected compile error for malformed regex")
	}
}

func TestPredicateNegate(t *testing.T) {
	p, err := NewPredicate(KindGlob, "*.so", false, true)
	if err != nil {
		t.Fatal(err)
	}
	if p.Match("libfoo.so") {
		t.Error("negated predicate should invert the match")
	}
	if !p.Match("libfoo.a") {
		t.Error("negated predicate should match non-matching input")
	}
}
