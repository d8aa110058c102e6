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

	"github.com/pkgdepdb/pkgdepdb/pkgdb"
)

var (
	ldAppend  []string
	ldPrepend []string
	ldInsert  []string
	ldDelete  []string
	ldClear   bool
)

var ldCmd = &cobra.Command{
	Use:   "ld",
	Short: "Edit the DB-wide trusted library search path",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, path, err := loadDB()
		if err != nil {
			return err
		}
		if ldClear {
			db.LDClear()
		}
		for _, dir := range ldAppend {
			db.LDAppend(dir)
		}
		for _, dir := range ldPrepend {
			db.LDPrepend(dir)
		}
		for _, spec := range ldInsert {
			idxStr, dir, ok := strings.Cut(spec, ":")
			if !ok {
				return fmt.Errorf("%w: --ld-insert=%q: expected idx:dir", errRuleMalformed, spec)
			}
			idx, err := strconv.Atoi(idxStr)
			if err != nil {
				return fmt.Errorf("%w: --ld-insert=%q: bad index: %v", errRuleMalformed, spec, err)
			}
			db.LDInsert(idx, dir)
		}
		for _, dir := range ldDelete {
			deleteLDEntry(db, dir)
		}
		return storeDB(db, path)
	},
}

// deleteLDEntry removes dir from the library path, or (if dir parses as
// an integer) the entry at that index -- matching --rule=*-id:N's
// index-addressing convention for the unnamed-entry case.
func deleteLDEntry(db *pkgdb.DB, dir string) {
	if id, err := strconv.Atoi(dir); err == nil {
		db.LDDeleteID(id)
		return
	}
	db.LDDelete(dir)
}

func init() {
	ldCmd.Flags().StringArrayVar(&ldAppend, "ld-append", nil, "append a trusted library directory")
	ldCmd.Flags().StringArrayVar(&ldPrepend, "ld-prepend", nil, "prepend a trusted library directory")
	ldCmd.Flags().StringArrayVar(&ldInsert, "ld-insert", nil, "insert idx:dir into the trusted library path")
	ldCmd.Flags().StringArrayVar(&ldDelete, "ld-delete", nil, "delete a trusted library directory (by value or index)")
	ldCmd.Flags().BoolVar(&ldClear, "ld-clear", false, "clear the trusted library path")
}
