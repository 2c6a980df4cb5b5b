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

// Package schema validates parsed manifests against the structural rules of
// the METS schema. The rule set is compiled once, is immutable for the
// process lifetime, and is safe to share across concurrently verified
// packages.
package schema

import (
	"encoding/xml"
	"sync"

	"github.com/aipcheck/aipcheck/log"
	"github.com/aipcheck/aipcheck/mets"
)

// checksumTypes is the CHECKSUMTYPE enumeration from the METS schema
// definition. The verification engine computes only a subset of these, but
// any member is schema-valid.
var checksumTypes = map[string]bool{
	"Adler-32":  true,
	"CRC32":     true,
	"HAVAL":     true,
	"MD5":       true,
	"MNP":       true,
	"SHA-1":     true,
	"SHA-256":   true,
	"SHA-384":   true,
	"SHA-512":   true,
	"TIGER":     true,
	"WHIRLPOOL": true,
}

// A rule checks one structural constraint on a single element. Rules are
// keyed by the element's local METS name; elements without rules are
// unconstrained.
type rule struct {
	name  string
	check func(e *mets.Element) bool
}

// Schema is a compiled, read-only METS rule set.
type Schema struct {
	rules map[string][]rule
}

var defaultSchema = sync.OnceValue(func() *Schema { return Compile() })

// Default returns the process-wide shared schema. It is compiled on first
// use and never reloaded.
func Default() *Schema { return defaultSchema() }

// Compile builds the METS rule set.
func Compile() *Schema {
	s := &Schema{rules: map[string][]rule{}}
	add := func(local, name string, check func(e *mets.Element) bool) {
		s.rules[local] = append(s.rules[local], rule{name: name, check: check})
	}

	add("mets", "mets has a structMap", func(e *mets.Element) bool {
		return hasChild(e, "structMap")
	})
	add("fileSec", "fileSec has at least one fileGrp", func(e *mets.Element) bool {
		return hasChild(e, "fileGrp")
	})
	add("fileGrp", "fileGrp contains only fileGrp and file elements", func(e *mets.Element) bool {
		for _, c := range e.Children {
			if c.Name.Space != mets.Namespace {
				return false
			}
			if c.Name.Local != "fileGrp" && c.Name.Local != "file" {
				return false
			}
		}
		return true
	})
	add("file", "file has an ID", func(e *mets.Element) bool {
		return hasAttr(e, "ID")
	})
	add("file", "file CHECKSUMTYPE is in the schema enumeration", func(e *mets.Element) bool {
		for _, a := range e.Attr {
			if a.Name.Space == "" && a.Name.Local == "CHECKSUMTYPE" {
				return checksumTypes[a.Value]
			}
		}
		return true
	})
	add("FLocat", "FLocat has a LOCTYPE", func(e *mets.Element) bool {
		return hasAttr(e, "LOCTYPE")
	})
	return s
}

// Validate reports whether the document conforms to the rule set. The root
// element must be a METS mets element; every rule must hold on every element
// it is keyed to, anywhere in the tree.
func (s *Schema) Validate(doc *mets.Document) bool {
	if doc == nil || doc.Root == nil {
		return false
	}
	if doc.Root.Name != (xml.Name{Space: mets.Namespace, Local: "mets"}) {
		log.Debugf("schema: root element is %v, not METS mets", doc.Root.Name)
		return false
	}
	return s.validateElement(doc.Root)
}

func (s *Schema) validateElement(e *mets.Element) bool {
	if e.Name.Space == mets.Namespace {
		for _, r := range s.rules[e.Name.Local] {
			if !r.check(e) {
				log.Debugf("schema: rule failed: %s", r.name)
				return false
			}
		}
	}
	for _, c := range e.Children {
		if !s.validateElement(c) {
			return false
		}
	}
	return true
}

func hasChild(e *mets.Element, local string) bool {
	for _, c := range e.Children {
		if c.Name.Space == mets.Namespace && c.Name.Local == local {
			return true
		}
	}
	return false
}

func hasAttr(e *mets.Element, local string) bool {
	for _, a := range e.Attr {
		if a.Name.Space == "" && a.Name.Local == local {
			return true
		}
	}
	return false
}
