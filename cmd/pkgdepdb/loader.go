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

// Package-archive loading is one of the "external collaborators" spec.md
// §1 names as deliberately out of the core's scope ("package-archive
// (tar) extraction ... described only where they touch the core's
// interface"). This file is that collaborator, grounded on
// original_source/package.cpp's Package(path): walk a tar archive,
// special-case ".PKGINFO" for name/version metadata, and feed every
// other regular file to the ELF parser, tolerating non-ELF members.
//
// archive/tar and compress/gzip are stdlib: no third-party tar/archive
// reader appears anywhere in the example pack (DESIGN.md notes this as
// one of the few justified stdlib exceptions).
package main

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkgdepdb/pkgdepdb/elf"
	"github.com/pkgdepdb/pkgdepdb/log"
	"github.com/pkgdepdb/pkgdepdb/pkgdb"
)

// loadPackageArchive reads a tar (optionally gzip-compressed) package
// archive at path and builds a *pkgdb.Package from it: the .PKGINFO
// member supplies name/version, every other regular file is added to
// the filelist and, if it parses as ELF, becomes an owned Object.
func loadPackageArchive(path string) (*pkgdb.Package, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: open %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if br := bufReader(f); isGzip(br) {
		gr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("loader: gzip %s: %w", path, err)
		}
		defer gr.Close()
		r = gr
	} else {
		r = br
	}

	tr := tar.NewReader(r)
	p := pkgdb.NewPackage("", "")

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("loader: %s: %w", path, err)
		}
		if hdr.Typeflag != tar.TypeReg || hdr.Size == 0 {
			continue
		}

		name := strings.TrimPrefix(hdr.Name, "./")
		if name == ".PKGINFO" {
			if err := readPkgInfo(tr, p); err != nil {
				return nil, fmt.Errorf("loader: %s: %w", path, err)
			}
			continue
		}

		p.Filelist = append(p.Filelist, name)

		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("loader: read %s: %w", name, err)
		}
		e, err := elf.Parse(data, name)
		if err == elf.ErrNotELF {
			log.Debugf("loader: %s: not an ELF, skipping", name)
			continue
		}
		if err != nil {
			log.Errorf("loader: %s: %v", name, err)
			continue
		}
		e.Dirname, e.Basename = filepath.Split(name)
		e.Dirname = strings.TrimSuffix(e.Dirname, "/")
		if e.Dirname == "" {
			e.Dirname = "/"
		}
		p.AddObject(pkgdb.NewObject(e))
	}

	if p.Name == "" {
		return nil, fmt.Errorf("loader: %s: missing pkgname entry in .PKGINFO", path)
	}
	return p, nil
}

// readPkgInfo extracts "pkgname = " and "pkgver = " assignments from a
// .PKGINFO member, matching Package::read_info's lenient line scan.
func readPkgInfo(r io.Reader, p *pkgdb.Package) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read .PKGINFO: %w", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		switch {
		case strings.HasPrefix(line, "pkgname = "):
			p.Name = strings.TrimSpace(strings.TrimPrefix(line, "pkgname = "))
		case strings.HasPrefix(line, "pkgver = "):
			p.Version = strings.TrimSpace(strings.TrimPrefix(line, "pkgver = "))
		case strings.HasPrefix(line, "group = "):
			p.AddGroup(strings.TrimSpace(strings.TrimPrefix(line, "group = ")))
		}
	}
	if p.Name == "" {
		return fmt.Errorf("missing pkgname entry in .PKGINFO")
	}
	return nil
}

type peekReader struct {
	head []byte
	rest io.Reader
}

func (p *peekReader) Read(b []byte) (int, error) {
	if len(p.head) > 0 {
		n := copy(b, p.head)
		p.head = p.head[n:]
		return n, nil
	}
	return p.rest.Read(b)
}

func bufReader(f *os.File) *peekReader {
	head := make([]byte, 2)
	n, _ := io.ReadFull(f, head)
	return &peekReader{head: head[:n], rest: f}
}

func isGzip(p *peekReader) bool {
	return bytes.HasPrefix(p.head, []byte{0x1f, 0x8b})
}
