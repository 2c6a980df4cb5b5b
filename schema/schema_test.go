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

package schema_test

import (
	"strings"
	"testing"

	"github.com/aipcheck/aipcheck/mets"
	"github.com/aipcheck/aipcheck/schema"
)

func parse(t *testing.T, input string) *mets.Document {
	t.Helper()
	doc, err := mets.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse(): %v", err)
	}
	return doc
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{
			name: "conforming manifest",
			input: `<mets xmlns="http://www.loc.gov/METS/" xmlns:xlink="http://www.w3.org/1999/xlink">
				<fileSec><fileGrp>
					<file ID="f1" CHECKSUM="abc" CHECKSUMTYPE="SHA-256">
						<FLocat LOCTYPE="URL" xlink:href="data/a.txt"/>
					</file>
				</fileGrp></fileSec>
				<structMap><div/></structMap>
			</mets>`,
			want: true,
		},
		{
			name: "schema-valid checksum type outside the engine's computable set",
			input: `<mets xmlns="http://www.loc.gov/METS/" xmlns:xlink="http://www.w3.org/1999/xlink">
				<fileSec><fileGrp>
					<file ID="f1" CHECKSUM="abc" CHECKSUMTYPE="CRC32">
						<FLocat LOCTYPE="URL" xlink:href="data/a.txt"/>
					</file>
				</fileGrp></fileSec>
				<structMap/>
			</mets>`,
			want: true,
		},
		{
			name: "no fileSec at all is still valid",
			input: `<mets xmlns="http://www.loc.gov/METS/">
				<structMap/>
			</mets>`,
			want: true,
		},
		{
			name: "missing structMap",
			input: `<mets xmlns="http://www.loc.gov/METS/">
				<fileSec><fileGrp/></fileSec>
			</mets>`,
			want: false,
		},
		{
			name: "root is not a METS mets element",
			input: `<manifest xmlns="http://example.com/">
				<structMap/>
			</manifest>`,
			want: false,
		},
		{
			name: "fileSec without fileGrp",
			input: `<mets xmlns="http://www.loc.gov/METS/">
				<fileSec/>
				<structMap/>
			</mets>`,
			want: false,
		},
		{
			name: "file without ID",
			input: `<mets xmlns="http://www.loc.gov/METS/" xmlns:xlink="http://www.w3.org/1999/xlink">
				<fileSec><fileGrp>
					<file><FLocat LOCTYPE="URL" xlink:href="a.txt"/></file>
				</fileGrp></fileSec>
				<structMap/>
			</mets>`,
			want: false,
		},
		{
			name: "unknown CHECKSUMTYPE value",
			input: `<mets xmlns="http://www.loc.gov/METS/" xmlns:xlink="http://www.w3.org/1999/xlink">
				<fileSec><fileGrp>
					<file ID="f1" CHECKSUM="abc" CHECKSUMTYPE="SHA3-512">
						<FLocat LOCTYPE="URL" xlink:href="a.txt"/>
					</file>
				</fileGrp></fileSec>
				<structMap/>
			</mets>`,
			want: false,
		},
		{
			name: "FLocat without LOCTYPE",
			input: `<mets xmlns="http://www.loc.gov/METS/" xmlns:xlink="http://www.w3.org/1999/xlink">
				<fileSec><fileGrp>
					<file ID="f1"><FLocat xlink:href="a.txt"/></file>
				</fileGrp></fileSec>
				<structMap/>
			</mets>`,
			want: false,
		},
		{
			name: "fileGrp with a stray element",
			input: `<mets xmlns="http://www.loc.gov/METS/">
				<fileSec><fileGrp><stray/></fileGrp></fileSec>
				<structMap/>
			</mets>`,
			want: false,
		},
	}
	s := schema.Default()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Validate(parse(t, tt.input)); got != tt.want {
				t.Errorf("Validate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidate_NilDocument(t *testing.T) {
	if schema.Default().Validate(nil) {
		t.Error("Validate(nil) = true, want false")
	}
}
