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

// Package main provides the aipcheck CLI: batch verification of Information
// Packages with a table or CSV report.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"regexp"

	"github.com/aipcheck/aipcheck"
	"github.com/aipcheck/aipcheck/log"
	"github.com/aipcheck/aipcheck/report"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// fileConfig is the optional YAML config file. Flags given on the command
// line win over file values.
type fileConfig struct {
	Pattern string `yaml:"pattern"`
	Jobs    int    `yaml:"jobs"`
	CSV     string `yaml:"csv"`
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("aipcheck", flag.ContinueOnError)
	var (
		pattern    = fs.String("pattern", `mets\.xml`, "regular expression located as a substring of entry paths to find the manifest")
		jobs       = fs.Int("jobs", 0, "packages verified in parallel (0 = number of CPUs)")
		csvPath    = fs.String("csv", "", "write the report as CSV to this file instead of printing a table")
		configPath = fs.String("config", "", "optional YAML config file with pattern/jobs/csv defaults")
		verbose    = fs.Bool("v", false, "enable debug logging")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: aipcheck [flags] package...")
		fs.PrintDefaults()
		return 2
	}

	zcfg := zap.NewProductionConfig()
	if *verbose {
		zcfg = zap.NewDevelopmentConfig()
	}
	zl, err := zcfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "setting up logging: %v\n", err)
		return 2
	}
	defer zl.Sync()
	log.SetLogger(zl.Sugar())

	if *configPath != "" {
		cfg, err := loadConfig(*configPath)
		if err != nil {
			log.Errorf("loading config: %v", err)
			return 2
		}
		if cfg.Pattern != "" && !flagSet(fs, "pattern") {
			*pattern = cfg.Pattern
		}
		if cfg.Jobs != 0 && !flagSet(fs, "jobs") {
			*jobs = cfg.Jobs
		}
		if cfg.CSV != "" && !flagSet(fs, "csv") {
			*csvPath = cfg.CSV
		}
	}

	re, err := regexp.Compile(*pattern)
	if err != nil {
		log.Errorf("invalid manifest pattern %q: %v", *pattern, err)
		return 2
	}
	v, err := aipcheck.New(aipcheck.Config{ManifestPattern: re, Concurrency: *jobs})
	if err != nil {
		log.Errorf("configuring verifier: %v", err)
		return 2
	}

	statuses, batchErr := v.VerifyBatch(context.Background(), fs.Args())
	if batchErr != nil {
		log.Warnf("some packages could not be evaluated: %v", batchErr)
	}

	rep := report.New(statuses)
	if *csvPath != "" {
		f, err := os.Create(*csvPath)
		if err != nil {
			log.Errorf("creating CSV report: %v", err)
			return 2
		}
		defer f.Close()
		if err := rep.WriteCSV(f); err != nil {
			log.Errorf("writing CSV report: %v", err)
			return 2
		}
	} else if err := rep.WriteTable(os.Stdout); err != nil {
		log.Errorf("writing report: %v", err)
		return 2
	}

	for _, s := range statuses {
		if s.Err != nil || !passed(s) {
			return 1
		}
	}
	return 0
}

// passed reports whether a package cleared every check.
func passed(s aipcheck.PackageStatus) bool {
	r := s.Result
	return r.WellFormed && r.Valid && r.Complete && r.Unaltered && r.NoOrphans
}

func loadConfig(path string) (*fileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &fileConfig{}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// flagSet reports whether a flag was given explicitly on the command line.
func flagSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
