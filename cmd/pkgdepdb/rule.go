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

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pkgdepdb/pkgdepdb/config"
	"github.com/pkgdepdb/pkgdepdb/pkgdb"
)

// errRuleMalformed is RuleMalformed for the --rule= DSL (spec.md §7).
var errRuleMalformed = fmt.Errorf("malformed --rule")

var ruleFlags []string

var ruleCmd = &cobra.Command{
	Use:   "rule",
	Short: "Mutate the rules engine (ignore/assume-found/strict/pkg-ld/base rules)",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, path, err := loadDB()
		if err != nil {
			return err
		}
		for _, r := range ruleFlags {
			if err := applyRule(db, r); err != nil {
				return err
			}
		}
		return storeDB(db, path)
	},
}

func init() {
	ruleCmd.Flags().StringArrayVar(&ruleFlags, "rule", nil, "rule DSL command, repeatable")
}

// applyRule applies one --rule=CMD entry to db, where CMD follows
// spec.md §6's vocabulary: ignore:PATH, unignore:PATH, unignore-id:N,
// assume-found:NAME, unassume-found:NAME, unassume-found-id:N,
// strict:BOOL, pkg-ld-{clear,append,prepend,insert,delete,delete-id}:...,
// base-{add,remove,remove-id}:....
func applyRule(db *pkgdb.DB, cmd string) error {
	verb, arg, ok := strings.Cut(cmd, ":")
	if !ok {
		return fmt.Errorf("%w: %q: missing ':'", errRuleMalformed, cmd)
	}

	switch verb {
	case "ignore":
		db.IgnoreFileAdd(arg)
	case "unignore":
		db.IgnoreFileDelete(arg)
	case "unignore-id":
		id, err := parseRuleID(cmd, arg)
		if err != nil {
			return err
		}
		db.IgnoreFileDeleteID(id)
	case "assume-found":
		db.AssumeFoundAdd(arg)
	case "unassume-found":
		db.AssumeFoundDelete(arg)
	case "unassume-found-id":
		id, err := parseRuleID(cmd, arg)
		if err != nil {
			return err
		}
		db.AssumeFoundDeleteID(id)
	case "strict":
		db.SetStrictLinking(config.Str2Bool(arg))
	case "base-add":
		db.BasePackagesAdd(arg)
	case "base-remove":
		db.BasePackagesDelete(arg)
	case "base-remove-id":
		id, err := parseRuleID(cmd, arg)
		if err != nil {
			return err
		}
		db.BasePackagesDeleteID(id)
	case "pkg-ld-clear":
		db.PkgLDClear(arg)
	case "pkg-ld-append":
		pkg, dir, err := splitPkgArg(cmd, arg)
		if err != nil {
			return err
		}
		db.PkgLDAppend(pkg, dir)
	case "pkg-ld-prepend":
		pkg, dir, err := splitPkgArg(cmd, arg)
		if err != nil {
			return err
		}
		db.PkgLDPrepend(pkg, dir)
	case "pkg-ld-delete":
		pkg, dir, err := splitPkgArg(cmd, arg)
		if err != nil {
			return err
		}
		db.PkgLDDelete(pkg, dir)
	case "pkg-ld-insert":
		pkg, rest, err := splitPkgArg(cmd, arg)
		if err != nil {
			return err
		}
		idxStr, dir, ok := strings.Cut(rest, ":")
		if !ok {
			return fmt.Errorf("%w: %q: pkg-ld-insert needs pkg:idx:dir", errRuleMalformed, cmd)
		}
		idx, err := strconv.Atoi(idxStr)
		if err != nil {
			return fmt.Errorf("%w: %q: bad index: %v", errRuleMalformed, cmd, err)
		}
		db.PkgLDInsert(pkg, idx, dir)
	case "pkg-ld-delete-id":
		pkg, idxStr, err := splitPkgArg(cmd, arg)
		if err != nil {
			return err
		}
		id, err := parseRuleID(cmd, idxStr)
		if err != nil {
			return err
		}
		db.PkgLDDeleteID(pkg, id)
	default:
		return fmt.Errorf("%w: %q: unknown rule verb %q", errRuleMalformed, cmd, verb)
	}
	return nil
}

func parseRuleID(cmd, arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: bad id: %v", errRuleMalformed, cmd, err)
	}
	return id, nil
}

func splitPkgArg(cmd, arg string) (pkg, rest string, err error) {
	pkg, rest, ok := strings.Cut(arg, ":")
	if !ok {
		return "", "", fmt.Errorf("%w: %q: expected pkg:value", errRuleMalformed, cmd)
	}
	return pkg, rest, nil
}
