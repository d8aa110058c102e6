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

import "strings"

// Exact reports whether pattern and s are identical, optionally folding
// case.
func Exact(pattern, s string, icase bool) bool {
	if icase {
		return strings.EqualFold(pattern, s)
	}
	return pattern == s
}

// Regex reports whether s matches the regular expression pattern,
// returning an error if pattern fails to compile.
func Regex(pattern string, icase bool, s string) (bool, error) {
	p, err := NewPredicate(KindRegex, pattern, icase, false)
	if err != nil {
		return false, err
	}
	return p.Match(s), nil
}
