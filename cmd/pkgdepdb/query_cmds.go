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
	"os"

	"github.com/spf13/cobra"

	"github.com/pkgdepdb/pkgdepdb/jsonreport"
	"github.com/pkgdepdb/pkgdepdb/pkgdb"
	"github.com/pkgdepdb/pkgdepdb/query"
	"github.com/pkgdepdb/pkgdepdb/serialize"
)

var (
	filterArgs  []string
	brokenOnly  bool
	verboseList bool
)

func addQueryFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&filterArgs, "filter", nil, "[!]<axis>(=|:|/.../)VALUE, repeatable")
	cmd.Flags().BoolVar(&brokenOnly, "broken", false, "only entries with an unresolved dependency")
	cmd.Flags().BoolVar(&verboseList, "verbose", false, "include groups/depends in --list output")
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print database metadata: name, strict flag, and every rule list",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := loadDB()
		if err != nil {
			return err
		}
		jsonreport.WriteInfo(os.Stdout, db, int(serialize.CurrentVersion))
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed packages and their found/missing objects",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPackageQuery(brokenOnly)
	},
}

var pkgsCmd = &cobra.Command{
	Use:   "pkgs",
	Short: "Alias of list: print packages matching --filter",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPackageQuery(brokenOnly)
	},
}

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List installed objects flat, ignoring package grouping",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := loadDB()
		if err != nil {
			return err
		}
		filters, err := parseFilters(filterArgs)
		if err != nil {
			return err
		}
		q := query.New(db)
		jsonreport.WriteObjects(os.Stdout, q, jsonreport.Options{
			FilterBroken:  brokenOnly,
			ObjectFilters: filters,
		})
		return nil
	},
}

var missingCmd = &cobra.Command{
	Use:   "missing",
	Short: "List every broken package (objects with unresolved dependencies)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPackageQuery(true)
	},
}

var foundCmd = &cobra.Command{
	Use:   "found",
	Short: "List every object and what satisfies each of its dependencies",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := loadDB()
		if err != nil {
			return err
		}
		filters, err := parseFilters(filterArgs)
		if err != nil {
			return err
		}
		q := query.New(db)
		for _, o := range q.Objects(filters...) {
			fmt.Printf("%s/%s\n", o.Dirname, o.Basename)
			for _, f := range q.Found(o) {
				fmt.Printf("\t%s/%s\n", f.Dirname, f.Basename)
			}
		}
		return nil
	},
}

var integrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Verify that every package's depends names an installed provider or base package",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := loadDB()
		if err != nil {
			return err
		}
		q := query.New(db)
		issues := q.CheckIntegrity()
		for _, iss := range issues {
			fmt.Printf("%s: unresolved depend %s%s\n", iss.Package.String(), iss.Depend.Name, iss.Depend.Constraint)
		}
		if len(issues) > 0 {
			os.Exit(1)
		}
		return nil
	},
}

func runPackageQuery(broken bool) error {
	db, _, err := loadDB()
	if err != nil {
		return err
	}
	filters, err := parseFilters(filterArgs)
	if err != nil {
		return err
	}
	q := query.New(db)
	if flagJSON {
		jsonreport.WritePackages(os.Stdout, q, jsonreport.Options{
			FilterBroken:   broken,
			Verbose:        verboseList,
			PackageFilters: filters,
		})
		return nil
	}
	printPackagesText(q, filters, broken)
	return nil
}

func printPackagesText(q *query.Query, filters []query.Filter, broken bool) {
	for _, p := range q.Packages(filters...) {
		if broken && !packageHasMissing(q, p) {
			continue
		}
		fmt.Printf("%s\n", p.String())
		for _, o := range p.Objects {
			missing := q.Missing(o)
			if broken && len(missing) == 0 {
				continue
			}
			fmt.Printf("  %s/%s\n", o.Dirname, o.Basename)
			for _, m := range missing {
				fmt.Printf("    misses %s\n", m)
			}
		}
	}
}

func packageHasMissing(q *query.Query, p *pkgdb.Package) bool {
	for _, o := range p.Objects {
		if len(q.Missing(o)) > 0 {
			return true
		}
	}
	return false
}

func init() {
	for _, c := range []*cobra.Command{listCmd, pkgsCmd, lsCmd, missingCmd, foundCmd} {
		addQueryFlags(c)
	}
}
