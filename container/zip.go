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
	"archive/zip"
	"fmt"
	"io"
	"strings"
)

// zipContainer is the backend for a package stored as a ZIP archive. The
// archive is opened per operation and closed before the operation returns,
// except that a reader handed out by Open keeps the archive open until the
// caller closes it.
type zipContainer struct {
	path string
}

// zipMemberNames returns the stored names of all file members in central
// directory order, directories excluded.
func zipMemberNames(r *zip.ReadCloser) []string {
	var names []string
	for _, f := range r.File {
		if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
			continue
		}
		names = append(names, f.Name)
	}
	return names
}

func (z *zipContainer) Entries() ([]string, error) {
	r, err := zip.OpenReader(z.path)
	if err != nil {
		return nil, fmt.Errorf("opening zip %s: %w", z.path, err)
	}
	defer r.Close()

	names := zipMemberNames(r)
	root := commonRoot(names)
	entries := make([]string, 0, len(names))
	for _, n := range names {
		if e := normalizeMember(n, root); e != "" {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func (z *zipContainer) Open(name string) (io.ReadCloser, error) {
	r, err := zip.OpenReader(z.path)
	if err != nil {
		return nil, fmt.Errorf("opening zip %s: %w", z.path, err)
	}
	root := commonRoot(zipMemberNames(r))
	for _, f := range r.File {
		if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
			continue
		}
		if normalizeMember(f.Name, root) != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("opening zip member %s: %w", f.Name, err)
		}
		return &multiCloser{Reader: rc, closers: []io.Closer{rc, r}}, nil
	}
	r.Close()
	return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
}
