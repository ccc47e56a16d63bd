// Copyright by Eric S. Raymond
// SPDX-License-Identifier: BSD-2-Clause

// Command scrubber strips internal-only information out of a source
// tree before publication: sensitive comments, known usernames,
// internal package and module names, and similar leakage, driven by a
// JSON rule configuration.
package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	shlex "github.com/anmitsu/go-shlex"

	"github.com/google/moe-scrubber/internal/scrub"
)

var doc = `scrubber - sanitize a codebase for external publication
general usage: scrubber [options] CODEBASE

CODEBASE is the root of the tree to scrub. The scrubbed tree, a record
of every modified file's original and scrubbed contents, and a unified
diff per modified file are written under --output_directory (default:
./scrubber-output). With --modify, the codebase is also rewritten in
place.

Options:
`

func main() {
	var (
		configFile     string
		configData     string
		outputDir      string
		outputTar      string
		modify         bool
		quiet          bool
		parallel       bool
		tempDir        string
		stopwatch      bool
		explicitInputs string
	)

	flag.StringVar(&configFile, "config_file", "", "path to a JSON scrubber configuration file")
	flag.StringVar(&configData, "config_data", "", "literal JSON scrubber configuration (mutually exclusive with --config_file)")
	flag.StringVar(&outputDir, "output_directory", "scrubber-output", "directory to write output/, originals/, modified/, and diffs/ under")
	flag.StringVar(&outputTar, "output_tar", "", "also pack the scrubbed tree into this tar file")
	flag.BoolVar(&modify, "modify", false, "rewrite the codebase in place, in addition to writing the output/originals/modified/diffs trees")
	flag.BoolVar(&quiet, "quiet", false, "suppress the progress baton")
	flag.BoolVar(&parallel, "parallel", false, "scrub independent files concurrently")
	flag.StringVar(&tempDir, "temp_dir", "", "scratch directory for rewritten file contents (default: a system temp dir)")
	flag.BoolVar(&stopwatch, "stopwatch", false, "report wall-clock time spent scanning")
	flag.StringVar(&explicitInputs, "explicit_inputfile_list", "", "a shell-quoted, space-separated list of files to scrub instead of walking CODEBASE")

	flag.Usage = func() {
		fmt.Fprint(os.Stderr, doc)
		flag.PrintDefaults()
	}
	flag.Parse()

	if configFile != "" && configData != "" {
		croak("--config_file and --config_data are mutually exclusive")
	}
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(3)
	}
	codebase := filepath.Clean(flag.Arg(0))

	var raw []byte
	var err error
	switch {
	case configFile != "":
		raw, err = ioutil.ReadFile(configFile)
		if err != nil {
			croak("reading %s: %v", configFile, err)
		}
	case configData != "":
		raw = []byte(configData)
	}

	opts, err := scrub.LoadConfigJSON(raw)
	if err != nil {
		croak("%v", err)
	}

	cfg, err := scrub.NewConfig(opts)
	if err != nil {
		croak("%v", err)
	}

	if tempDir == "" {
		tempDir, err = ioutil.TempDir("", "scrubber")
		if err != nil {
			croak("creating scratch directory: %v", err)
		}
		defer os.RemoveAll(tempDir)
	}

	inputFiles, err := resolveInputs(codebase, explicitInputs)
	if err != nil {
		croak("%v", err)
	}

	ctx := scrub.NewContext(cfg, codebase, inputFiles, tempDir, os.Stdout)
	ctx.Parallel = parallel
	ctx.Quiet = quiet

	var elapsed func() string
	if stopwatch {
		elapsed = startStopwatch()
	}

	scan(ctx)

	emitter := scrub.NewEmitter(ctx, outputDir, codebase, outputTar, modify)
	if err := emitter.Emit(); err != nil {
		croak("writing output: %v", err)
	}
	emitter.Report(os.Stderr)

	if elapsed != nil {
		fmt.Fprintln(os.Stderr, elapsed())
	}

	os.Exit(ctx.Status())
}

// scan runs ctx.Scan(), converting the fatal "io" exception a failed
// source-file read panics with (scrub.ScannedFile.load) into a clean
// diagnostic instead of a raw Go panic trace (spec.md §7).
func scan(ctx *scrub.Context) {
	defer func() {
		if r := recover(); r != nil {
			if msg, ok := scrub.CatchIOError(r); ok {
				croak("%s", msg)
			}
			panic(r)
		}
	}()
	ctx.Scan()
}

// resolveInputs walks codebase for every regular file, unless an
// explicit file list was given, in which case it is shlex-tokenized
// the way the teacher tokenizes command lines (spec.md §6).
func resolveInputs(codebase, explicitInputs string) ([]string, error) {
	if explicitInputs != "" {
		names, err := shlex.Split(explicitInputs, true)
		if err != nil {
			return nil, fmt.Errorf("--explicit_inputfile_list: %v", err)
		}
		var out []string
		for _, name := range names {
			out = append(out, filepath.Join(codebase, name))
		}
		return out, nil
	}

	var out []string
	err := filepath.Walk(codebase, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			out = append(out, path)
		}
		return nil
	})
	return out, err
}

// startStopwatch returns a closure reporting elapsed wall-clock time
// since it was created, for --stopwatch (spec.md §6).
func startStopwatch() func() string {
	start := time.Now()
	return func() string {
		return fmt.Sprintf("scrubber: scan took %s", time.Since(start))
	}
}

// croak reports a pre-run fatal error (bad flags, malformed config,
// an unreadable input file) and exits 3 — spec.md §6 reserves exit 1
// for "ran to completion and recorded a finding."
func croak(msg string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "scrubber: "+msg+"\n", args...)
	os.Exit(3)
}
