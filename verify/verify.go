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

// Package verify reconciles a container's contents against its manifest. It
// implements the three checks of the verification engine: completeness
// (every referenced file exists), fixity (every present, checksummed file
// matches its declared digest) and orphan detection (no file exists that the
// manifest does not declare).
package verify

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"sync"

	"github.com/aipcheck/aipcheck/checksum"
	"github.com/aipcheck/aipcheck/container"
	"github.com/aipcheck/aipcheck/log"
	"github.com/aipcheck/aipcheck/mets"
	"github.com/aipcheck/aipcheck/schema"
)

// Result holds the verdicts and diagnostics of one verified package. All
// checks except well-formedness are gated on WellFormed: an ill-formed
// manifest forces every other verdict to false with empty diagnostic lists.
//
// Unaltered is true only when both Altered and Unchecked are empty: a
// manifest whose declared checksums cannot be verified is reported as
// not-unaltered even though no mismatch was proven. The two lists never
// overlap, and neither ever contains a missing file.
type Result struct {
	WellFormed bool
	Valid      bool
	Complete   bool
	Missing    []string
	Unaltered  bool
	Altered    []string
	Unchecked  []string
	NoOrphans  bool
	Orphans    []string
}

// Package is one Information Package under verification: a container plus
// the manifest located inside it. It is constructed once, verified, and
// discarded; derived state (entry list, reference list) is memoized behind
// explicit accessors. Packages share no mutable state with each other, so a
// batch may verify many of them concurrently.
type Package struct {
	c            container.Container
	s            *schema.Schema
	manifestPath string
	manifestDir  string
	doc          *mets.Document // nil when the manifest is not well-formed

	entriesOnce sync.Once
	entries     []string
	entriesErr  error

	refsOnce sync.Once
	refs     []mets.Reference
}

// NewPackage opens the container at path, locates the manifest matching
// pattern and parses it. Construction fails with container.ErrNotAContainer
// or mets.ErrManifestNotFound; an ill-formed manifest is not an error and is
// instead reflected in the package's verdicts. s may be nil, in which case
// the process-wide schema is used.
func NewPackage(path string, pattern *regexp.Regexp, s *schema.Schema) (*Package, error) {
	c, err := container.New(path)
	if err != nil {
		return nil, err
	}
	if s == nil {
		s = schema.Default()
	}
	manifestPath, err := mets.Locate(c, pattern)
	if err != nil {
		return nil, err
	}
	p := &Package{
		c:            c,
		s:            s,
		manifestPath: manifestPath,
		manifestDir:  dirOf(manifestPath),
	}

	r, err := c.Open(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", manifestPath, err)
	}
	doc, parseErr := mets.Parse(r)
	r.Close()
	if parseErr != nil {
		// Not fatal: one malformed manifest in a batch of many packages
		// must not abort the batch.
		log.Debugf("manifest %s is not well-formed: %v", manifestPath, parseErr)
		return p, nil
	}
	p.doc = doc
	return p, nil
}

// ManifestPath returns the manifest entry's path relative to the container
// root.
func (p *Package) ManifestPath() string { return p.manifestPath }

// WellFormed reports whether the manifest parsed as XML.
func (p *Package) WellFormed() bool { return p.doc != nil }

// Valid reports whether the manifest conforms to the schema. Always false
// for an ill-formed manifest.
func (p *Package) Valid() bool {
	if !p.WellFormed() {
		return false
	}
	return p.s.Validate(p.doc)
}

// Entries returns the container's entry list, enumerated once and cached.
func (p *Package) Entries() ([]string, error) {
	p.entriesOnce.Do(func() {
		p.entries, p.entriesErr = p.c.Entries()
	})
	return p.entries, p.entriesErr
}

// References returns the manifest's declared file references, extracted once
// and cached. Empty for an ill-formed manifest.
func (p *Package) References() []mets.Reference {
	p.refsOnce.Do(func() {
		if p.doc != nil {
			p.refs = p.doc.References()
		}
	})
	return p.refs
}

// Completeness checks that every referenced file is present in the
// container. It returns true with an empty list when the reference list is
// empty or every reference resolves to an entry; otherwise it returns false
// and the missing references as declared, in manifest order.
func (p *Package) Completeness() (bool, []string, error) {
	if !p.WellFormed() {
		return false, nil, nil
	}
	entries, err := p.Entries()
	if err != nil {
		return false, nil, err
	}
	present := entrySet(entries)
	var missing []string
	for _, ref := range p.References() {
		if !present[resolve(p.manifestDir, ref.Href)] {
			missing = append(missing, ref.Href)
		}
	}
	return len(missing) == 0, missing, nil
}

// Fixity recomputes the digest of every present, checksummed reference and
// compares it to the declared value with exact string equality. References
// lacking a digest or algorithm, or declaring an algorithm outside the
// recognized set, are collected as unchecked rather than treated as altered.
// References absent from the container contribute to neither list; their
// absence is reported through completeness only. The boolean verdict is
// true only when both lists are empty.
func (p *Package) Fixity() (bool, []string, []string, error) {
	if !p.WellFormed() {
		return false, nil, nil, nil
	}
	entries, err := p.Entries()
	if err != nil {
		return false, nil, nil, err
	}
	present := entrySet(entries)
	var altered, unchecked []string
	for _, ref := range p.References() {
		resolved := resolve(p.manifestDir, ref.Href)
		if !present[resolved] {
			continue
		}
		if ref.Checksum == "" || ref.ChecksumType == "" {
			unchecked = append(unchecked, ref.Href)
			continue
		}
		alg, ok := checksum.Parse(ref.ChecksumType)
		if !ok {
			log.Debugf("%s declares unrecognized checksum algorithm %q", ref.Href, ref.ChecksumType)
			unchecked = append(unchecked, ref.Href)
			continue
		}
		digest, err := p.digestEntry(resolved, alg)
		if err != nil {
			// The entry was listed but could not be read back; its digest
			// is unverifiable, which is an unchecked condition, not a
			// proven alteration.
			log.Warnf("cannot digest %s: %v", resolved, err)
			unchecked = append(unchecked, ref.Href)
			continue
		}
		if digest != ref.Checksum {
			altered = append(altered, ref.Href)
		}
	}
	return len(altered) == 0 && len(unchecked) == 0, altered, unchecked, nil
}

// digestEntry streams one entry through the algorithm's hash, releasing the
// entry handle on every exit path.
func (p *Package) digestEntry(name string, alg checksum.Algorithm) (string, error) {
	r, err := p.c.Open(name)
	if err != nil {
		return "", err
	}
	defer r.Close()
	return alg.Sum(r)
}

// Orphans is the inverse reconciliation: every container entry other than
// the manifest itself must be declared by some reference. Entries are
// resolved relative to the manifest's containing directory and tested
// against the reference set as declared; anything not in the set is an
// orphan, listed in enumeration order.
func (p *Package) Orphans() (bool, []string, error) {
	if !p.WellFormed() {
		return false, nil, nil
	}
	entries, err := p.Entries()
	if err != nil {
		return false, nil, err
	}
	declared := make(map[string]bool, len(p.References()))
	for _, ref := range p.References() {
		declared[ref.Href] = true
	}
	var orphans []string
	for _, e := range entries {
		if e == p.manifestPath {
			continue
		}
		if !declared[relativeTo(p.manifestDir, e)] {
			orphans = append(orphans, relativeTo(p.manifestDir, e))
		}
	}
	return len(orphans) == 0, orphans, nil
}

// Verify runs all checks and assembles the package's Result. The checks are
// pure functions of the entry list, the reference list and the
// well-formedness flag; running them again on an unmodified package yields
// an identical Result.
func (p *Package) Verify() (*Result, error) {
	res := &Result{WellFormed: p.WellFormed()}
	if !res.WellFormed {
		return res, nil
	}
	res.Valid = p.Valid()

	var err error
	res.Complete, res.Missing, err = p.Completeness()
	if err != nil {
		return nil, err
	}
	res.Unaltered, res.Altered, res.Unchecked, err = p.Fixity()
	if err != nil {
		return nil, err
	}
	res.NoOrphans, res.Orphans, err = p.Orphans()
	if err != nil {
		return nil, err
	}
	return res, nil
}

func entrySet(entries []string) map[string]bool {
	set := make(map[string]bool, len(entries))
	for _, e := range entries {
		set[e] = true
	}
	return set
}

// dirOf returns the containing directory of a root-relative slash path, ""
// for an entry at the container root.
func dirOf(p string) string {
	if d := path.Dir(p); d != "." {
		return d
	}
	return ""
}

// resolve joins a declared manifest-relative path onto the manifest's
// containing directory, yielding a container-root-relative path. This is the
// single resolution routine shared by every check; backends already
// normalize their entries to the same root, so no per-backend prefix logic
// exists beyond this point.
func resolve(manifestDir, declared string) string {
	return path.Join(manifestDir, declared)
}

// relativeTo rewrites a container-root-relative entry path to be relative to
// the manifest's containing directory, the vocabulary the manifest declares
// its references in. Entries outside that directory keep a ../ form and can
// therefore never collide with a declared reference.
func relativeTo(manifestDir, entry string) string {
	if manifestDir == "" {
		return entry
	}
	if strings.HasPrefix(entry, manifestDir+"/") {
		return strings.TrimPrefix(entry, manifestDir+"/")
	}
	ups := strings.Count(manifestDir, "/") + 1
	return strings.Repeat("../", ups) + entry
}
