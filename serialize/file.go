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

package serialize

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/klauspost/compress/gzip"

	"github.com/pkgdepdb/pkgdepdb/log"
	"github.com/pkgdepdb/pkgdepdb/pkgdb"
)

// lockRetryInterval is the delay between attempts while Load/Store poll
// for the advisory lock; they keep polling until the lock is taken or
// ctx is done. The DB is single-owner (spec.md §5) so contention is
// expected to be rare and brief.
const lockRetryInterval = 50 * time.Millisecond

// gzipped reports whether path's container should be gzip-wrapped, per
// its ".gz" suffix.
func gzipped(path string) bool {
	return strings.HasSuffix(path, ".gz")
}

// Load reads the DB stored at path under a shared advisory lock. A
// missing file is not an error: it returns an empty, ready-to-use DB
// (§4.H "Reads of a nonexistent file succeed with an empty DB").
func Load(ctx context.Context, path string) (*pkgdb.DB, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		log.Debugf("serialize: %s does not exist, starting with an empty database", path)
		return pkgdb.New(""), nil
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryRLockContext(ctx, lockRetryInterval)
	if err != nil {
		return nil, fmt.Errorf("serialize: lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("serialize: could not acquire read lock on %s", path)
	}
	defer lock.Unlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("serialize: open %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if gzipped(path) {
		gr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("serialize: gzip %s: %w", path, err)
		}
		defer gr.Close()
		r = gr
	}

	db, err := DecodeDB(r)
	if err != nil {
		return nil, fmt.Errorf("serialize: decode %s: %w", path, err)
	}
	return db, nil
}

// Store writes db to path under an exclusive advisory lock, through a
// temp-file-then-rename so a crash mid-write never corrupts the
// existing file.
func Store(ctx context.Context, path string, db *pkgdb.DB) error {
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLockContext(ctx, lockRetryInterval)
	if err != nil {
		return fmt.Errorf("serialize: lock %s: %w", path, err)
	}
	if !locked {
		return fmt.Errorf("serialize: could not acquire write lock on %s", path)
	}
	defer lock.Unlock()

	var buf bytes.Buffer
	var w io.Writer = &buf
	var gw *gzip.Writer
	if gzipped(path) {
		gw = gzip.NewWriter(&buf)
		w = gw
	}
	if err := EncodeDB(w, db); err != nil {
		return fmt.Errorf("serialize: encode %s: %w", path, err)
	}
	if gw != nil {
		if err := gw.Close(); err != nil {
			return fmt.Errorf("serialize: gzip close %s: %w", path, err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("serialize: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("serialize: rename %s: %w", tmp, err)
	}
	return nil
}
