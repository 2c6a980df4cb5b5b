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

// Package mets locates and parses METS manifests inside a container and
// extracts the file references they declare.
package mets

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"

	"github.com/aipcheck/aipcheck/container"
)

// Namespaces used by METS manifests.
const (
	Namespace      = "http://www.loc.gov/METS/"
	XlinkNamespace = "http://www.w3.org/1999/xlink"
)

// ErrManifestNotFound is returned by Locate when no container entry matches
// the manifest pattern.
var ErrManifestNotFound = errors.New("no entry matches the manifest pattern")

// Element is one node of a parsed manifest: its qualified name, attributes
// and child elements in document order. Character data is not retained; the
// verification checks only consume element structure and attributes.
type Element struct {
	Name     xml.Name
	Attr     []xml.Attr
	Children []*Element
}

// attr returns the value of the named attribute and whether it is present.
// Unqualified attributes have an empty space; namespaced attributes may
// appear with either the resolved namespace URI or, when the prefix was
// never declared, the literal prefix.
func (e *Element) attr(space, prefix, local string) (string, bool) {
	for _, a := range e.Attr {
		if a.Name.Local != local {
			continue
		}
		if a.Name.Space == space || a.Name.Space == prefix {
			return a.Value, true
		}
	}
	return "", false
}

// Document is a well-formed, fully parsed manifest.
type Document struct {
	Root *Element
}

// Reference is one file declaration from the manifest's file section: the
// relative path as declared in the FLocat element, plus the digest and
// algorithm token from the enclosing file element when present. Empty
// strings mean the attribute was absent.
type Reference struct {
	Href         string
	Checksum     string
	ChecksumType string
}

// Locate finds the manifest entry in a container: the pattern is matched as
// a substring test against each entry's relative path, in the container's
// enumeration order, and the first match wins. Containers holding several
// matching names are ambiguous by design, not an error. Fails with
// ErrManifestNotFound when nothing matches.
func Locate(c container.Container, pattern *regexp.Regexp) (string, error) {
	entries, err := c.Entries()
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if pattern.MatchString(e) {
			return e, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrManifestNotFound, pattern)
}

// Parse reads r as XML and builds the manifest's element tree. A non-nil
// error means the manifest is not well-formed; callers treat that as a
// reportable condition of the package, never as a fatal failure.
func Parse(r io.Reader) (*Document, error) {
	dec := xml.NewDecoder(r)
	var root *Element
	var stack []*Element
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing manifest XML: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{Name: t.Name, Attr: t.Copy().Attr}
			if len(stack) == 0 {
				if root != nil {
					return nil, errors.New("parsing manifest XML: multiple root elements")
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		}
	}
	if root == nil {
		return nil, errors.New("parsing manifest XML: document has no root element")
	}
	return &Document{Root: root}, nil
}

// References walks the manifest's fileSec subtree in document order and
// returns one Reference per FLocat element carrying an xlink:href. The list
// is exactly as declared: no filtering, no deduplication, no sorting;
// references naming the same path repeatedly are all returned.
func (d *Document) References() []Reference {
	var refs []Reference
	if d.Root == nil || d.Root.Name != (xml.Name{Space: Namespace, Local: "mets"}) {
		return refs
	}
	for _, c := range d.Root.Children {
		if c.Name == (xml.Name{Space: Namespace, Local: "fileSec"}) {
			collectReferences(c, nil, &refs)
		}
	}
	return refs
}

// collectReferences appends a Reference for every FLocat element whose
// direct parent is a METS file element, recursing in child order so the
// result preserves document order through nested fileGrp and file elements.
func collectReferences(e, parent *Element, refs *[]Reference) {
	if e.Name == (xml.Name{Space: Namespace, Local: "FLocat"}) &&
		parent != nil && parent.Name == (xml.Name{Space: Namespace, Local: "file"}) {
		if href, ok := e.attr(XlinkNamespace, "xlink", "href"); ok {
			sum, _ := parent.attr("", "", "CHECKSUM")
			typ, _ := parent.attr("", "", "CHECKSUMTYPE")
			*refs = append(*refs, Reference{Href: href, Checksum: sum, ChecksumType: typ})
		}
	}
	for _, c := range e.Children {
		collectReferences(c, e, refs)
	}
}
