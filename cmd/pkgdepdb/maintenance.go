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
	"github.com/spf13/cobra"
)

var fixpathsCmd = &cobra.Command{
	Use:   "fixpaths",
	Short: "Re-normalize every object's rpath/runpath and relink",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, path, err := loadDB()
		if err != nil {
			return err
		}
		db.FixPaths()
		return storeDB(db, path)
	},
}

var relinkCmd = &cobra.Command{
	Use:   "relink",
	Short: "Rebuild req_found/req_missing from scratch",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, path, err := loadDB()
		if err != nil {
			return err
		}
		jobs := jobsOrDefault()
		if jobs <= 1 {
			db.RelinkAll()
		} else if err := db.RelinkAllThreaded(jobs); err != nil {
			return err
		}
		return storeDB(db, path)
	},
}

// touchCmd forces a store even when nothing else changed -- the CLI
// equivalent of "load, then store unconditionally". The store writes the
// lowest version that can hold the DB's contents (never below
// MinWriteVersion), not necessarily CurrentVersion.
var touchCmd = &cobra.Command{
	Use:   "touch",
	Short: "Load and store the database unconditionally (upgrades its on-disk format version)",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, path, err := loadDB()
		if err != nil {
			return err
		}
		return storeDB(db, path)
	},
}
