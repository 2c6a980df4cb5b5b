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

// Package checksum implements the closed set of digest algorithms a manifest
// may declare for its files and the streaming computation of those digests.
package checksum

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
)

// bufSize is the fixed read buffer used when digesting an entry, so peak
// memory per file stays constant regardless of file size.
const bufSize = 64 * 1024

// Algorithm identifies one of the digest algorithms a METS manifest may
// declare in a CHECKSUMTYPE attribute. The set is closed: any token outside
// it is unrecognized and the corresponding file is reported as unchecked
// rather than hashed with a guessed algorithm.
type Algorithm int

// The recognized algorithms. AlgorithmUnknown is the explicit "none of the
// above" value returned for tokens outside the closed set.
const (
	AlgorithmUnknown Algorithm = iota
	MD5
	SHA1
	SHA256
	SHA384
	SHA512
)

// tokens maps the manifest attribute values to algorithms. Matching is exact
// and case-sensitive: "sha-256" or "SHA256" are unrecognized, as in the METS
// CHECKSUMTYPE enumeration.
var tokens = map[string]Algorithm{
	"MD5":     MD5,
	"SHA-1":   SHA1,
	"SHA-256": SHA256,
	"SHA-384": SHA384,
	"SHA-512": SHA512,
}

// Parse maps a manifest CHECKSUMTYPE token to an Algorithm. The second return
// value reports whether the token is part of the recognized set.
func Parse(token string) (Algorithm, bool) {
	a, ok := tokens[token]
	return a, ok
}

// String returns the manifest token for the algorithm.
func (a Algorithm) String() string {
	switch a {
	case MD5:
		return "MD5"
	case SHA1:
		return "SHA-1"
	case SHA256:
		return "SHA-256"
	case SHA384:
		return "SHA-384"
	case SHA512:
		return "SHA-512"
	default:
		return "unknown"
	}
}

// newHash returns a fresh hash state for the algorithm.
func (a Algorithm) newHash() (hash.Hash, error) {
	switch a {
	case MD5:
		return md5.New(), nil
	case SHA1:
		return sha1.New(), nil
	case SHA256:
		return sha256.New(), nil
	case SHA384:
		return sha512.New384(), nil
	case SHA512:
		return sha512.New(), nil
	default:
		return nil, fmt.Errorf("no hash registered for algorithm %d", int(a))
	}
}

// Sum streams r through the algorithm's hash function in fixed-size chunks
// and returns the lowercase hex digest.
func (a Algorithm) Sum(r io.Reader) (string, error) {
	h, err := a.newHash()
	if err != nil {
		return "", err
	}
	buf := make([]byte, bufSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return "", fmt.Errorf("reading entry for %s digest: %w", a, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
