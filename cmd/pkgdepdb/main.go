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

// Command pkgdepdb is the CLI front end over the core library (spec.md
// §6). It is a thin consumer: argument parsing, archive/config loading
// and JSON reporting live here; everything that decides whether an
// object is broken lives in pkgdb/query/serialize. Structured on
// direktiv-vorteil's cmd/vorteil cobra tree (root command + one
// subcommand per mode, PersistentFlags shared across subcommands).
package main

import (
	"os"

	"github.com/pkgdepdb/pkgdepdb/log"
)

func main() {
	commandInit()
	if err := rootCmd.Execute(); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}
