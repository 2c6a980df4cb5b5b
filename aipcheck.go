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

// Package aipcheck provides an interface for verifying the internal
// consistency of archival Information Packages: a directory tree, ZIP or TAR
// archive whose METS manifest declares the files it must contain and their
// expected checksums.
package aipcheck

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"runtime"

	"github.com/aipcheck/aipcheck/log"
	"github.com/aipcheck/aipcheck/schema"
	"github.com/aipcheck/aipcheck/verify"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

var errNoManifestPattern = errors.New("no manifest pattern specified")

// Config stores the settings of a verification run.
type Config struct {
	// ManifestPattern is matched as a substring test against each container
	// entry's relative path; the first matching entry is the manifest.
	ManifestPattern *regexp.Regexp
	// Schema to validate manifests against. If nil, the process-wide
	// default METS schema is used. The schema is read-only and shared by
	// all packages of the run.
	Schema *schema.Schema
	// Concurrency is the number of packages verified in parallel by
	// VerifyBatch. If 0, it defaults to the number of CPUs.
	Concurrency int
}

// Verifier is the main entry point of the verification engine.
type Verifier struct {
	cfg Config
}

// New creates a verifier for the given config.
func New(cfg Config) (*Verifier, error) {
	if cfg.ManifestPattern == nil {
		return nil, errNoManifestPattern
	}
	return &Verifier{cfg: cfg}, nil
}

// PackageStatus is the outcome of one package in a batch. Err is set when
// the package could not be evaluated at all (not a container, or no entry
// matched the manifest pattern); Result is set otherwise. Recoverable
// conditions such as an ill-formed manifest or failed checks live inside
// Result, never in Err.
type PackageStatus struct {
	Path   string
	Result *verify.Result
	Err    error
}

// Verify runs the full verification of a single package: backend selection,
// manifest location and parsing, schema validation and the three
// reconciliation checks.
func (v *Verifier) Verify(ctx context.Context, path string) (*verify.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log.Debugf("verifying package %s", path)
	p, err := verify.NewPackage(path, v.cfg.ManifestPattern, v.cfg.Schema)
	if err != nil {
		return nil, fmt.Errorf("package %s: %w", path, err)
	}
	return p.Verify()
}

// VerifyBatch verifies many packages concurrently. Packages share no mutable
// state, so the batch is embarrassingly parallel; only the read-only schema
// is shared. One package's fatal error never aborts the rest: it is recorded
// in that package's status and aggregated into the returned error. The
// returned statuses are in input order.
func (v *Verifier) VerifyBatch(ctx context.Context, paths []string) ([]PackageStatus, error) {
	limit := v.cfg.Concurrency
	if limit <= 0 {
		limit = runtime.NumCPU()
	}

	statuses := make([]PackageStatus, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, path := range paths {
		g.Go(func() error {
			res, err := v.Verify(ctx, path)
			if err != nil {
				log.Warnf("package %s could not be evaluated: %v", path, err)
			}
			statuses[i] = PackageStatus{Path: path, Result: res, Err: err}
			return nil
		})
	}
	// Workers never return errors; waiting only orders the writes.
	_ = g.Wait()

	var err error
	for _, s := range statuses {
		err = multierr.Append(err, s.Err)
	}
	return statuses, err
}
