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

// Package config reads pkgdepdb's line-oriented configuration file
// (spec.md §6), grounded on original_source/config.cpp's ReadConfig: one
// "key = value" assignment per line, comments starting with "#", "/" or
// ";", leading "~/" expanded against $HOME on path-valued keys. No
// structured-config library in the example pack (TOML/YAML/INI readers)
// matches this grammar, so it is hand-written with bufio.Scanner; see
// DESIGN.md for the justification.
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkgdepdb/pkgdepdb/log"
)

// JSON output bits, matching Config::ParseJSONBit's JSONBits::Query/DB.
const (
	JSONQuery uint = 1 << iota
	JSONDB
)

// Config holds the settings read from a pkgdepdb config file, with the
// same field set original_source/config.cpp's Config class exposes.
type Config struct {
	Database        string
	Verbosity       int
	Quiet           bool
	PackageDepends  bool
	PackageFilelist bool
	JSON            uint
	MaxJobs         int
}

// ErrRuleMalformed is returned for an unparseable config line (spec.md §7:
// "RuleMalformed ... invalid --rule=/--filter= syntax", extended here to
// cover malformed config assignments, which the source treats the same
// way: log a warning and skip the line, only failing the whole read on an
// unknown json bit).
var ErrRuleMalformed = fmt.Errorf("config: malformed entry")

// Str2Bool mirrors Config::str2bool's accepted truthy spellings.
func Str2Bool(s string) bool {
	switch s {
	case "true", "TRUE", "True", "on", "On", "ON", "YES", "Yes", "yes", "1":
		return true
	default:
		return false
	}
}

func lineToBool(s string) bool {
	if i := strings.IndexAny(s, " \t\r\n"); i >= 0 {
		s = s[:i]
	}
	return Str2Bool(s)
}

func expandHome(path string) string {
	if len(path) < 2 || path[0] != '~' || path[1] != '/' {
		return path
	}
	home := os.Getenv("HOME")
	if home == "" {
		return path
	}
	return home + path[1:]
}

// ParseJSONBit applies one "+bit"/"-bit"/"bit" token to opt, matching
// Config::ParseJSONBit's all/none/query/db vocabulary.
func ParseJSONBit(bit string, opt uint) (uint, error) {
	if bit == "" {
		return opt, nil
	}
	mode := byte(0)
	if bit[0] == '+' || bit[0] == '-' {
		mode = bit[0]
		bit = bit[1:]
	}
	switch bit {
	case "a", "all":
		if mode == '-' {
			return 0, nil
		}
		return ^uint(0), nil
	case "off", "n", "no", "none":
		if mode == 0 {
			return 0, nil
		}
		return opt, nil
	case "on", "q", "query":
		switch mode {
		case '+':
			return opt | JSONQuery, nil
		case '-':
			return opt &^ JSONQuery, nil
		default:
			return JSONQuery, nil
		}
	case "db":
		switch mode {
		case '+':
			return opt | JSONDB, nil
		case '-':
			return opt &^ JSONDB, nil
		default:
			return JSONDB, nil
		}
	default:
		return opt, fmt.Errorf("%w: unknown json bit %q", ErrRuleMalformed, bit)
	}
}

type assignment struct {
	key   string
	apply func(*Config, string) error
}

func assignments() []assignment {
	return []assignment{
		{"database", func(c *Config, v string) error { c.Database = expandHome(v); return nil }},
		{"verbosity", func(c *Config, v string) error {
			n, _ := strconv.ParseInt(strings.TrimSpace(v), 0, 64)
			c.Verbosity = int(n)
			return nil
		}},
		{"quiet", func(c *Config, v string) error { c.Quiet = lineToBool(v); return nil }},
		{"package_depends", func(c *Config, v string) error { c.PackageDepends = lineToBool(v); return nil }},
		{"file_lists", func(c *Config, v string) error { c.PackageFilelist = lineToBool(v); return nil }},
		{"json", func(c *Config, v string) error {
			bit, err := ParseJSONBit(strings.TrimSpace(v), c.JSON)
			if err != nil {
				return err
			}
			c.JSON = bit
			return nil
		}},
		{"jobs", func(c *Config, v string) error {
			n, _ := strconv.ParseInt(strings.TrimSpace(v), 0, 64)
			c.MaxJobs = int(n)
			return nil
		}},
	}
}

// Read parses a config stream, logging a warning (and skipping the line)
// for syntax errors, and failing outright only for an unknown json bit --
// the same policy as original_source/config.cpp's ReadConfig.
func Read(r io.Reader, path string) (*Config, error) {
	c := &Config{}
	rules := assignments()
	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := scanner.Text()
		trimmed := strings.TrimLeft(line, " \t\r\n")
		if trimmed == "" {
			continue
		}
		switch trimmed[0] {
		case '#', '/', ';':
			continue
		}

		for _, rule := range rules {
			if !strings.HasPrefix(trimmed, rule.key) {
				continue
			}
			rest := trimmed[len(rule.key):]
			eq := strings.TrimLeft(rest, " \t\r\n")
			if eq == "" {
				log.Warnf("%s:%d: invalid config entry", path, lineno)
				break
			}
			if eq[0] != '=' {
				log.Warnf("%s:%d: missing '=' in config entry", path, lineno)
				break
			}
			value := strings.TrimLeft(eq[1:], " \t\r\n")
			if err := rule.apply(c, value); err != nil {
				return nil, err
			}
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return c, nil
}

// SearchPaths returns the config file locations searched in order, per
// spec.md §6: "$HOME/.config/pkgdepdb/config", "$HOME/.pkgdepdb/config",
// "<etcdir>/pkgdepdb.conf".
func SearchPaths(etcdir string) []string {
	home := os.Getenv("HOME")
	var paths []string
	if home != "" {
		paths = append(paths,
			home+"/.config/pkgdepdb/config",
			home+"/.pkgdepdb/config",
		)
	}
	if etcdir != "" {
		paths = append(paths, etcdir+"/pkgdepdb.conf")
	}
	return paths
}

// Load searches SearchPaths(etcdir) in order and reads the first file that
// exists. If none exist, it returns a zero Config and no error -- "no
// config found, that's okay" per config.cpp.
func Load(etcdir string) (*Config, error) {
	for _, p := range SearchPaths(etcdir) {
		f, err := os.Open(p)
		if err != nil {
			continue
		}
		defer f.Close()
		return Read(f, p)
	}
	return &Config{}, nil
}
