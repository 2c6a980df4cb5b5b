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

// Package report renders the outcome of a verification run as CSV or as an
// aligned text table. It only consumes the engine's verdicts and diagnostic
// lists; it never touches the packages themselves.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/aipcheck/aipcheck"
	"github.com/google/uuid"
)

// header is the column layout shared by the CSV and table renderers.
var header = []string{
	"Package",
	"Well-formed",
	"Valid",
	"Complete",
	"Missing files",
	"Unaltered",
	"Altered files",
	"Unchecked files",
	"No orphans",
	"Orphan files",
}

// Report is one verification run's results, tagged with a run ID and
// generation time so exported CSVs can be told apart.
type Report struct {
	ID        uuid.UUID
	Generated time.Time
	Statuses  []aipcheck.PackageStatus
}

// New builds a report over a batch's statuses.
func New(statuses []aipcheck.PackageStatus) *Report {
	return &Report{
		ID:        uuid.New(),
		Generated: time.Now(),
		Statuses:  statuses,
	}
}

// row renders one package status. Packages that could not be evaluated get a
// single diagnostic cell instead of verdicts.
func row(s aipcheck.PackageStatus) []string {
	if s.Err != nil {
		return []string{s.Path, fmt.Sprintf("could not be evaluated: %v", s.Err),
			"", "", "", "", "", "", "", ""}
	}
	r := s.Result
	return []string{
		s.Path,
		strconv.FormatBool(r.WellFormed),
		strconv.FormatBool(r.Valid),
		strconv.FormatBool(r.Complete),
		strings.Join(r.Missing, "; "),
		strconv.FormatBool(r.Unaltered),
		strings.Join(r.Altered, "; "),
		strings.Join(r.Unchecked, "; "),
		strconv.FormatBool(r.NoOrphans),
		strings.Join(r.Orphans, "; "),
	}
}

// WriteCSV writes the report as CSV, preceded by two comment-style metadata
// records carrying the run ID and generation time.
func (r *Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"# run", r.ID.String()}); err != nil {
		return err
	}
	if err := cw.Write([]string{"# generated", r.Generated.Format(time.RFC3339)}); err != nil {
		return err
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, s := range r.Statuses {
		if err := cw.Write(row(s)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTable writes the report as an aligned text table for terminal output.
func (r *Report) WriteTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, s := range r.Statuses {
		fmt.Fprintln(tw, strings.Join(row(s), "\t"))
	}
	return tw.Flush()
}
