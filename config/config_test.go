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

package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBasicAssignments(t *testing.T) {
	src := `# a comment
; also a comment
/ and this one too

database = ~/.local/share/pkgdepdb.db
verbosity = 2
quiet = yes
package_depends = on
jobs = 4
`
	t.Setenv("HOME", "/home/tester")
	c, err := Read(strings.NewReader(src), "test")
	require.NoError(t, err)
	assert.Equal(t, "/home/tester/.local/share/pkgdepdb.db", c.Database)
	assert.Equal(t, 2, c.Verbosity)
	assert.True(t, c.Quiet)
	assert.True(t, c.PackageDepends)
	assert.Equal(t, 4, c.MaxJobs)
}

func TestReadJSONBits(t *testing.T) {
	c, err := Read(strings.NewReader("json = all\n"), "test")
	require.NoError(t, err)
	assert.Equal(t, ^uint(0), c.JSON)

	c, err = Read(strings.NewReader("json = query\n"), "test")
	require.NoError(t, err)
	assert.Equal(t, JSONQuery, c.JSON)
}

func TestReadUnknownJSONBitFails(t *testing.T) {
	_, err := Read(strings.NewReader("json = bogus\n"), "test")
	require.Error(t, err)
}

func TestStr2Bool(t *testing.T) {
	assert.True(t, Str2Bool("yes"))
	assert.True(t, Str2Bool("1"))
	assert.False(t, Str2Bool("no"))
	assert.False(t, Str2Bool("nonsense"))
}

func TestSearchPathsOrder(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	paths := SearchPaths("/etc")
	assert.Equal(t, []string{
		"/home/tester/.config/pkgdepdb/config",
		"/home/tester/.pkgdepdb/config",
		"/etc/pkgdepdb.conf",
	}, paths)
}

func TestLoadMissingConfigIsNotAnError(t *testing.T) {
	t.Setenv("HOME", "/nonexistent-home-for-test")
	c, err := Load("/nonexistent-etc-for-test")
	require.NoError(t, err)
	assert.Equal(t, &Config{}, c)
}
