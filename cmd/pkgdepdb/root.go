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
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pkgdepdb/pkgdepdb/config"
	"github.com/pkgdepdb/pkgdepdb/log"
	"github.com/pkgdepdb/pkgdepdb/pkgdb"
	"github.com/pkgdepdb/pkgdepdb/serialize"
)

// pkgdepdbEtcDir is the compiled-in etc search directory, the Go
// equivalent of the original's PKGDEPDB_ETC build-time define.
const pkgdepdbEtcDir = "/etc"

var (
	flagDatabase string
	flagVerbose  bool
	flagDebug    bool
	flagQuiet    bool
	flagJSON     bool
	flagDry      bool
	flagJobs     int
	flagRename   string
)

var rootCmd = &cobra.Command{
	Use:           "pkgdepdb",
	Short:         "Maintain a database of installed packages and their ELF dependency graph",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func commandInit() {
	rootCmd.PersistentFlags().StringVarP(&flagDatabase, "database", "b", "", "path to the pkgdepdb database file")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "d", false, "enable debug output")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress warnings")
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "emit JSON output")
	rootCmd.PersistentFlags().BoolVar(&flagDry, "dry", false, "suppress the final store regardless of modifications")
	rootCmd.PersistentFlags().IntVar(&flagJobs, "jobs", 0, "max_jobs for relink (0: DefaultJobs)")
	rootCmd.PersistentFlags().StringVar(&flagRename, "rename", "", "rename the database before storing")

	rootCmd.AddCommand(installCmd, removeCmd, wipeCmd, infoCmd, listCmd, missingCmd,
		foundCmd, pkgsCmd, lsCmd, integrityCmd, fixpathsCmd, relinkCmd, touchCmd,
		ruleCmd, ldCmd)

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		log.SetLogger(&log.DefaultLogger{Verbose: flagVerbose || flagDebug})
	}
}

// resolvedDatabase returns the database path to operate on: the
// --database flag if given, else the config file's "database" key, per
// spec.md §6 precedence (CLI flags documented as taking priority over
// the config file they're read alongside).
func resolvedDatabase() (string, error) {
	if flagDatabase != "" {
		return flagDatabase, nil
	}
	cfg, err := config.Load(pkgdepdbEtcDir)
	if err != nil {
		return "", err
	}
	if cfg.Database == "" {
		return "", fmt.Errorf("no database path given (--database or config file's 'database' key)")
	}
	return cfg.Database, nil
}

func loadDB() (*pkgdb.DB, string, error) {
	path, err := resolvedDatabase()
	if err != nil {
		return nil, "", err
	}
	db, err := serialize.Load(context.Background(), path)
	if err != nil {
		return nil, "", err
	}
	return db, path, nil
}

// storeDB writes db back to path unless --dry was given, per spec.md §7:
// "--dry suppresses the final store regardless of modifications."
func storeDB(db *pkgdb.DB, path string) error {
	if flagRename != "" {
		db.Name = flagRename
	}
	if flagDry {
		log.Debugf("--dry given, not storing %s", path)
		return nil
	}
	return serialize.Store(context.Background(), path, db)
}

func jobsOrDefault() int {
	if flagJobs > 0 {
		return flagJobs
	}
	return pkgdb.DefaultJobs()
}
