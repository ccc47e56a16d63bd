// Copyright by Eric S. Raymond
// SPDX-License-Identifier: BSD-2-Clause

package scrub

import (
	"archive/tar"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"

	difflib "github.com/ianbruene/go-difflib/difflib"
	shutil "github.com/termie/go-shutil"
)

// Emitter writes the artifacts of a completed Scan to disk: a scrubbed
// output/ tree, an originals/ and modified/ pair for every changed
// file, unified diffs under diffs/, and (optionally) an in-place
// rewrite of the input codebase or a tar archive of output/
// (spec.md §4.11, §6).
type Emitter struct {
	ctx        *Context
	outputDir  string
	codebase   string
	tarPath    string
	modifyOrig bool
}

// NewEmitter configures an Emitter. outputDir is the directory diffs/,
// originals/, modified/, and output/ are created under. If tarPath is
// non-empty, output/ is additionally packed into a tar archive there.
// If modifyOrig is true, modified files are additionally rewritten in
// place under codebase, on top of (not instead of) the temp trees
// (spec.md §6: "--modify: Apply changes in place ... in addition to
// writing temp trees").
func NewEmitter(ctx *Context, outputDir, codebase, tarPath string, modifyOrig bool) *Emitter {
	return &Emitter{
		ctx:        ctx,
		outputDir:  outputDir,
		codebase:   codebase,
		tarPath:    tarPath,
		modifyOrig: modifyOrig,
	}
}

// Emit writes every configured artifact. It is the sole write path
// into the output directory; individual ScannedFiles never touch disk
// except through it (or, for --modify, through rewriteInPlace).
func (e *Emitter) Emit() error {
	outputRoot := filepath.Join(e.outputDir, "output")
	originalsRoot := filepath.Join(e.outputDir, "originals")
	modifiedRoot := filepath.Join(e.outputDir, "modified")
	diffsRoot := filepath.Join(e.outputDir, "diffs")

	for _, f := range e.ctx.Files {
		if f.IsDeleted {
			continue
		}
		dest := filepath.Join(outputRoot, f.OutputRelativeFilename)
		if err := e.writeVerbatimOrScrubbed(f, dest); err != nil {
			return err
		}
	}

	for _, f := range e.ctx.ModifiedFiles() {
		origDest := filepath.Join(originalsRoot, f.RelativeFilename)
		if err := os.MkdirAll(filepath.Dir(origDest), 0755); err != nil {
			return err
		}
		if err := f.WriteTo(origDest, true); err != nil {
			return err
		}

		if !f.IsDeleted {
			modDest := filepath.Join(modifiedRoot, f.OutputRelativeFilename)
			if err := os.MkdirAll(filepath.Dir(modDest), 0755); err != nil {
				return err
			}
			if err := f.WriteTo(modDest, false); err != nil {
				return err
			}
		}

		diff, err := e.unifiedDiff(f)
		if err != nil {
			return err
		}
		if diff != "" {
			diffDest := filepath.Join(diffsRoot, f.RelativeFilename+".diff")
			if err := os.MkdirAll(filepath.Dir(diffDest), 0755); err != nil {
				return err
			}
			if err := ioutil.WriteFile(diffDest, []byte(diff), 0644); err != nil {
				return err
			}
		}
	}

	if e.tarPath != "" {
		if err := e.writeTar(outputRoot); err != nil {
			return err
		}
	}

	if e.modifyOrig {
		if err := e.rewriteInPlace(); err != nil {
			return err
		}
	}
	return nil
}

// writeVerbatimOrScrubbed copies f to dest. Binary files and files
// matched by do_not_scrub_files_re are copied byte-for-byte with
// go-shutil rather than routed through the in-memory ScannedFile path,
// mirroring the source's special-casing of those files.
func (e *Emitter) writeVerbatimOrScrubbed(f *ScannedFile, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	if !e.ctx.ShouldScrubFile(f) {
		if _, err := shutil.Copy(f.Filename, dest, false); err != nil {
			return err
		}
		return nil
	}
	return f.WriteTo(dest, false)
}

// rewriteInPlace overwrites modified files directly under codebase and
// removes deleted ones, the --modify behavior (spec.md §6).
func (e *Emitter) rewriteInPlace() error {
	for _, f := range e.ctx.Files {
		full := filepath.Join(e.codebase, f.RelativeFilename)
		if f.IsDeleted {
			if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
				return err
			}
			continue
		}
		if !f.IsModified {
			continue
		}
		tmp := full + ".scrubber-tmp"
		if err := f.WriteTo(tmp, false); err != nil {
			return err
		}
		if err := os.Rename(tmp, full); err != nil {
			return err
		}
	}
	return nil
}

// unifiedDiff produces the diffs/<relative> content for a modified
// file. A deleted file diffs its original content against /dev/null
// on the "to" side, per spec.md §4.11 and scenario S5.
func (e *Emitter) unifiedDiff(f *ScannedFile) (string, error) {
	origPath, err := filepath.Abs(f.Filename)
	if err != nil {
		return "", err
	}
	origBytes, err := readFile(origPath)
	if err != nil {
		return "", err
	}
	toFile := filepath.Join("b", f.OutputRelativeFilename)
	toText := f.Contents()
	if f.IsDeleted {
		toFile = "/dev/null"
		toText = ""
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(origBytes)),
		B:        difflib.SplitLines(toText),
		FromFile: filepath.Join("a", f.RelativeFilename),
		ToFile:   toFile,
		Context:  3,
	}
	return difflib.GetUnifiedDiffString(diff)
}

func (e *Emitter) writeTar(root string) error {
	out, err := os.Create(e.tarPath)
	if err != nil {
		return err
	}
	defer out.Close()

	tw := tar.NewWriter(out)
	defer tw.Close()

	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = rel
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close()
		_, err = io.Copy(tw, in)
		return err
	})
}

// Report writes a human-readable findings summary, in the teacher's
// croak/respond style: non-TODO findings print one ERROR[entry:...]
// line each; TODO findings are instead grouped by username with an
// occurrence count, mirroring scrubber.py's username_to_count_map /
// "Found unknown usernames N times" block (scrubber.py:438-457), then
// a summary of unscrubbed extensions and filenames if any were seen
// (spec.md §4.2, §4.10, §7).
func (e *Emitter) Report(w io.Writer) {
	var usernames []string
	counts := make(map[string]int)
	total := 0

	for _, f := range e.ctx.Findings() {
		if !f.IsTodo() {
			fmt.Fprintln(w, f.Report())
			continue
		}
		if counts[f.Username] == 0 {
			usernames = append(usernames, f.Username)
		}
		counts[f.Username]++
		total++
	}

	if total > 0 {
		fmt.Fprintf(w, "Found unknown usernames %d times\n", total)
		sort.Strings(usernames)
		for _, username := range usernames {
			fmt.Fprintf(w, "  %s %d\n", username, counts[username])
		}
	}

	if exts := e.ctx.UnknownExtensions(); len(exts) > 0 {
		fmt.Fprintf(w, "scrubber: %d unscrubbed extension(s): %v\n", len(exts), exts)
	}
	if names := e.ctx.UnknownFiles(); len(names) > 0 {
		fmt.Fprintf(w, "scrubber: %d unscrubbed filename(s): %v\n", len(names), names)
	}
}
