// Copyright 2026 The aipcheck Authors
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

package container

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

// tarContainer is the backend for a package stored as a TAR archive, plain
// or gzip-compressed. TAR has no central directory, so every operation is a
// sequential scan of the member list.
type tarContainer struct {
	path    string
	gzipped bool
}

// open returns a tar reader over the archive plus the closers that release
// it, outermost last.
func (t *tarContainer) open() (*tar.Reader, []io.Closer, error) {
	f, err := os.Open(t.path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening tar %s: %w", t.path, err)
	}
	closers := []io.Closer{f}
	var r io.Reader = f
	if t.gzipped {
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, nil, fmt.Errorf("reading gzip stream of %s: %w", t.path, err)
		}
		closers = []io.Closer{zr, f}
		r = zr
	}
	return tar.NewReader(r), closers, nil
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		c.Close()
	}
}

// memberNames scans the whole archive once and returns the stored names of
// all regular file members in archive order.
func (t *tarContainer) memberNames() ([]string, error) {
	tr, closers, err := t.open()
	if err != nil {
		return nil, err
	}
	defer closeAll(closers)

	var names []string
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return names, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading tar %s: %w", t.path, err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		names = append(names, hdr.Name)
	}
}

func (t *tarContainer) Entries() ([]string, error) {
	names, err := t.memberNames()
	if err != nil {
		return nil, err
	}
	root := commonRoot(names)
	entries := make([]string, 0, len(names))
	for _, n := range names {
		if e := normalizeMember(n, root); e != "" {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func (t *tarContainer) Open(name string) (io.ReadCloser, error) {
	// The shared top-level prefix can only be known after seeing every
	// member name, so resolve it in a first scan and stream the member in
	// a second one.
	names, err := t.memberNames()
	if err != nil {
		return nil, err
	}
	root := commonRoot(names)

	tr, closers, err := t.open()
	if err != nil {
		return nil, err
	}
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			closeAll(closers)
			return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
		}
		if err != nil {
			closeAll(closers)
			return nil, fmt.Errorf("reading tar %s: %w", t.path, err)
		}
		if hdr.Typeflag != tar.TypeReg || normalizeMember(hdr.Name, root) != name {
			continue
		}
		return &multiCloser{Reader: tr, closers: closers}, nil
	}
}
