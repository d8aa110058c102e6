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

	"github.com/pkgdepdb/pkgdepdb/log"
)

var installCmd = &cobra.Command{
	Use:   "install ARCHIVE...",
	Short: "Install one or more package archives into the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, path, err := loadDB()
		if err != nil {
			return err
		}
		// Per spec.md §7: "parse errors during bulk install are per-file
		// (log and continue)"; only DB load/store failures are terminal.
		for _, archivePath := range args {
			p, err := loadPackageArchive(archivePath)
			if err != nil {
				log.Errorf("install: %v", err)
				continue
			}
			db.InstallPackage(p)
		}
		return storeDB(db, path)
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove PACKAGE...",
	Short: "Remove one or more packages from the database by name",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, path, err := loadDB()
		if err != nil {
			return err
		}
		for _, name := range args {
			if !db.DeletePackage(name) {
				log.Warnf("remove: no such package %q", name)
			}
		}
		db.RelinkAll()
		return storeDB(db, path)
	},
}

var wipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Wipe packages or filelists from the database, keeping rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, path, err := loadDB()
		if err != nil {
			return err
		}
		if wipeFilelistsOnly {
			db.WipeFilelists()
		} else {
			db.WipePackages()
		}
		return storeDB(db, path)
	},
}

var wipeFilelistsOnly bool

func init() {
	wipeCmd.Flags().BoolVar(&wipeFilelistsOnly, "filelists", false, "wipe only filelists, keeping packages and objects")
}
