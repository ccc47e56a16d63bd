// Copyright by Eric S. Raymond
// SPDX-License-Identifier: BSD-2-Clause

package scrub

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ScannedFile is a file under the codebase as it travels through the
// scrubbing pipeline: a lazily loaded buffer, mutation tracking, and
// enough bookkeeping to write itself back out under a (possibly
// renamed) output path.
type ScannedFile struct {
	// Filename is the absolute path to the file on disk.
	Filename string
	// RelativeFilename is Filename relative to the codebase root.
	RelativeFilename string
	// OutputRelativeFilename is where this file lands under output/,
	// originals/, and modified/; it differs from RelativeFilename when
	// a rearranging_config directory rename applies.
	OutputRelativeFilename string

	IsModified bool
	IsDeleted  bool

	contents   string
	loaded     bool
	isUnicode  bool
	scratchDir string
}

// NewScannedFile constructs a ScannedFile ready for lazy loading.
func NewScannedFile(filename, relativeFilename, scratchDir, outputRelativeFilename string) *ScannedFile {
	return &ScannedFile{
		Filename:               filename,
		RelativeFilename:       relativeFilename,
		OutputRelativeFilename: outputRelativeFilename,
		scratchDir:             scratchDir,
	}
}

// readContents reads filename off disk and classifies it as UTF-8 text
// or opaque binary, matching the source's "try UTF-8 decode, else
// binary" heuristic (spec.md §4.1, §9 open question on docstrings
// aside).
func readContents(filename string) (string, bool, error) {
	raw, err := ioutil.ReadFile(filename)
	if err != nil {
		return "", false, err
	}
	if utf8.Valid(raw) {
		return string(raw), true, nil
	}
	return string(raw), false, nil
}

func (f *ScannedFile) load() {
	if f.loaded {
		return
	}
	contents, isUnicode, err := readContents(f.Filename)
	if err != nil {
		panic(throw("io", "can't read %s: %v", f.Filename, err))
	}
	f.contents = contents
	f.isUnicode = isUnicode
	f.loaded = true
}

// Contents returns the file's current text, loading it on first call.
func (f *ScannedFile) Contents() string {
	f.load()
	return f.contents
}

// IsBinaryFile forces a load and reports whether the file is not
// UTF-8-decodable text.
func (f *ScannedFile) IsBinaryFile() bool {
	f.load()
	return !f.isUnicode
}

// Rewrite performs a literal substring replacement over the full text,
// all occurrences, marking the file modified if anything changed.
func (f *ScannedFile) Rewrite(old, new string) {
	if old == "" || old == new {
		return
	}
	text := f.Contents()
	replaced := strings.ReplaceAll(text, old, new)
	if replaced != text {
		f.contents = replaced
		f.IsModified = true
	}
}

// WriteContents replaces the whole buffer, marking the file modified
// only if the text actually changed.
func (f *ScannedFile) WriteContents(newText string) {
	f.load()
	if f.contents == newText {
		return
	}
	f.contents = newText
	f.IsModified = true
}

// Delete marks the file deleted: its content becomes empty text and it
// is recorded as modified.
func (f *ScannedFile) Delete() {
	f.IsDeleted = true
	f.contents = ""
	f.loaded = true
	f.IsModified = true
}

// Mode returns the idealized POSIX mode for the file: user/group/other
// all get read+write, and all three get execute if the original file
// had any execute bit set (spec.md §3 invariant d).
func (f *ScannedFile) Mode() os.FileMode {
	perm := os.FileMode(6)
	info, err := os.Stat(f.Filename)
	if err == nil && info.Mode()&0111 != 0 {
		perm |= 1
	}
	combined := perm<<6 | perm<<3 | perm
	return combined
}

// WriteTo materializes the file's (possibly original) content at path,
// under the computed mode. If original is true, it re-reads the source
// file from disk rather than using the in-memory buffer, so that
// originals/ always reflects the file exactly as it was at run start
// even if rules have since mutated the in-memory copy.
func (f *ScannedFile) WriteTo(path string, original bool) error {
	var data []byte
	if original {
		raw, err := ioutil.ReadFile(f.Filename)
		if err != nil {
			return err
		}
		data = raw
	} else {
		f.load()
		data = []byte(f.contents)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0777); err != nil {
		return err
	}
	return ioutil.WriteFile(path, data, f.Mode())
}

// ContentsFilename returns the path to a file whose bytes equal the
// current contents: the original path if unmodified, else a fresh file
// materialized under the scratch directory.
func (f *ScannedFile) ContentsFilename() (string, error) {
	f.load()
	if !f.IsModified {
		return f.Filename, nil
	}
	path := filepath.Join(f.scratchDir, f.RelativeFilename)
	if err := f.WriteTo(path, false); err != nil {
		return "", err
	}
	return path, nil
}
