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

// Package container provides a uniform read-only view over the physical forms
// an Information Package can take: a directory tree, a ZIP archive, or a TAR
// archive (optionally gzip-compressed). The backend is selected by content
// sniffing, never by file extension.
package container

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/gzip"
)

var (
	// ErrNotAContainer is returned when a path is neither an existing
	// directory nor a file recognized as a ZIP or TAR archive.
	ErrNotAContainer = errors.New("not a directory or recognized archive")
	// ErrEntryNotFound is returned by Open for a name that is not an entry
	// of the container.
	ErrEntryNotFound = errors.New("entry not found in container")
)

// Container is a read-only view over the files of an Information Package.
//
// Entries returns the relative slash-separated paths of all regular files,
// rooted at the container root, in the backend's own enumeration order.
// Directories are never entries and the order is not sorted; it is however
// stable across calls on an unmodified container.
//
// Open returns the bytes of one entry, addressed by the exact relative path
// Entries reported for it. Implementations hold no file handles between
// calls: each operation opens what it needs and releases it on every exit
// path, so a large batch cannot exhaust file descriptors.
type Container interface {
	Entries() ([]string, error)
	Open(name string) (io.ReadCloser, error)
}

// New returns the backend for the container at path. The kind is decided by
// looking at the path's content: an existing directory becomes a directory
// backend, a file whose magic bytes identify it as ZIP, TAR or gzipped TAR
// becomes the matching archive backend. Anything else fails with
// ErrNotAContainer.
func New(path string) (Container, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotAContainer, path, err)
	}
	if info.IsDir() {
		return &dirContainer{root: path}, nil
	}
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("sniffing %s: %w", path, err)
	}
	switch {
	case mtype.Is("application/zip"):
		return &zipContainer{path: path}, nil
	case mtype.Is("application/x-tar"):
		return &tarContainer{path: path}, nil
	case mtype.Is("application/gzip"):
		// Only a gzip wrapper around a tar stream qualifies; a gzipped
		// text file is not a container.
		ok, err := gzippedTar(path)
		if err != nil {
			return nil, err
		}
		if ok {
			return &tarContainer{path: path, gzipped: true}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s has type %s", ErrNotAContainer, path, mtype.String())
}

// gzippedTar reports whether the gzip stream at path decompresses to a tar
// archive.
func gzippedTar(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	zr, err := gzip.NewReader(f)
	if err != nil {
		return false, fmt.Errorf("reading gzip stream of %s: %w", path, err)
	}
	defer zr.Close()
	mtype, err := mimetype.DetectReader(zr)
	if err != nil {
		return false, fmt.Errorf("sniffing gzip payload of %s: %w", path, err)
	}
	return mtype.Is("application/x-tar"), nil
}

// commonRoot returns the single top-level directory prefix (including the
// trailing slash) shared by every member name, or "" if the members do not
// all live under one folder. Archives are frequently created by zipping a
// folder rather than its contents; stripping the shared prefix makes their
// entry paths root-relative, consistent with the directory backend.
func commonRoot(names []string) string {
	root := ""
	for _, n := range names {
		i := strings.IndexByte(n, '/')
		if i < 0 {
			return ""
		}
		first := n[:i+1]
		if root == "" {
			root = first
		} else if first != root {
			return ""
		}
	}
	return root
}

// normalizeMember cleans an archive member name to a root-relative slash
// path: strips a leading "./" and the shared top-level prefix. Returns ""
// for names that normalize to nothing (e.g. the prefix directory itself).
func normalizeMember(name, root string) string {
	name = strings.TrimPrefix(name, "./")
	name = strings.TrimPrefix(name, root)
	return name
}

// multiCloser closes an entry reader together with the archive handles
// backing it, in order.
type multiCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiCloser) Close() error {
	var first error
	for _, c := range m.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
