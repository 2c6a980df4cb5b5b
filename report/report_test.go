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

package report_test

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"github.com/aipcheck/aipcheck"
	"github.com/aipcheck/aipcheck/report"
	"github.com/aipcheck/aipcheck/verify"
	"github.com/google/go-cmp/cmp"
)

func sampleStatuses() []aipcheck.PackageStatus {
	return []aipcheck.PackageStatus{
		{
			Path: "packages/good",
			Result: &verify.Result{
				WellFormed: true,
				Valid:      true,
				Complete:   true,
				Unaltered:  true,
				NoOrphans:  true,
			},
		},
		{
			Path: "packages/damaged",
			Result: &verify.Result{
				WellFormed: true,
				Valid:      true,
				Complete:   false,
				Missing:    []string{"data/a.txt", "data/b.txt"},
				Unaltered:  false,
				Altered:    []string{"data/c.txt"},
				Unchecked:  []string{"data/d.txt"},
				NoOrphans:  false,
				Orphans:    []string{"data/extra.txt"},
			},
		},
		{
			Path: "packages/broken.zip",
			Err:  errors.New("no entry matches the manifest pattern"),
		},
	}
}

func TestWriteCSV(t *testing.T) {
	rep := report.New(sampleStatuses())

	var buf bytes.Buffer
	if err := rep.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV(): %v", err)
	}

	cr := csv.NewReader(&buf)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		t.Fatalf("reading back CSV: %v", err)
	}
	// Two metadata records, the header, one row per package.
	if len(records) != 3+len(rep.Statuses) {
		t.Fatalf("len(records) = %d, want %d", len(records), 3+len(rep.Statuses))
	}
	if records[0][0] != "# run" || records[0][1] != rep.ID.String() {
		t.Errorf("run metadata record = %v", records[0])
	}

	header := records[2]
	if header[0] != "Package" || header[len(header)-1] != "Orphan files" {
		t.Errorf("header = %v", header)
	}

	damaged := records[4]
	want := []string{
		"packages/damaged",
		"true", "true",
		"false", "data/a.txt; data/b.txt",
		"false", "data/c.txt", "data/d.txt",
		"false", "data/extra.txt",
	}
	if diff := cmp.Diff(want, damaged); diff != "" {
		t.Errorf("damaged row diff (-want +got):\n%s", diff)
	}

	broken := records[5]
	if broken[0] != "packages/broken.zip" || !strings.Contains(broken[1], "could not be evaluated") {
		t.Errorf("broken row = %v, want a could-not-be-evaluated diagnostic", broken)
	}
}

func TestWriteTable(t *testing.T) {
	rep := report.New(sampleStatuses())

	var buf bytes.Buffer
	if err := rep.WriteTable(&buf); err != nil {
		t.Fatalf("WriteTable(): %v", err)
	}
	out := buf.String()

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 1+len(rep.Statuses) {
		t.Fatalf("table has %d lines, want %d:\n%s", len(lines), 1+len(rep.Statuses), out)
	}
	for _, fragment := range []string{"Package", "packages/good", "data/extra.txt", "could not be evaluated"} {
		if !strings.Contains(out, fragment) {
			t.Errorf("table output missing %q:\n%s", fragment, out)
		}
	}
}
