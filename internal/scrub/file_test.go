// Copyright by Eric S. Raymond
// SPDX-License-Identifier: BSD-2-Clause

package scrub

import (
	"io/ioutil"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := ioutil.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestScannedFileLazyLoadAndBinaryDetection(t *testing.T) {
	dir := t.TempDir()
	textPath := writeTemp(t, dir, "a.txt", "hello\n")
	binPath := writeTemp(t, dir, "a.bin", "\xff\xfe\x00\x01")

	text := NewScannedFile(textPath, "a.txt", dir, "a.txt")
	assertFalse(t, text.IsBinaryFile())
	assertEqual(t, text.Contents(), "hello\n")

	bin := NewScannedFile(binPath, "a.bin", dir, "a.bin")
	assertTrue(t, bin.IsBinaryFile())
}

func TestScannedFileRewriteTracksModification(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "a.txt", "foo bar foo\n")
	f := NewScannedFile(path, "a.txt", dir, "a.txt")
	f.Rewrite("foo", "baz")
	assertTrue(t, f.IsModified)
	assertEqual(t, f.Contents(), "baz bar baz\n")
}

func TestScannedFileRewriteNoOpWhenUnchanged(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "a.txt", "nothing to see\n")
	f := NewScannedFile(path, "a.txt", dir, "a.txt")
	f.Rewrite("absent", "whatever")
	assertFalse(t, f.IsModified)
}

func TestScannedFileDelete(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "a.txt", "content\n")
	f := NewScannedFile(path, "a.txt", dir, "a.txt")
	f.Delete()
	assertTrue(t, f.IsDeleted)
	assertTrue(t, f.IsModified)
	assertEqual(t, f.Contents(), "")
}

func TestScannedFileWriteToOriginalVsCurrent(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "a.txt", "original\n")
	f := NewScannedFile(path, "a.txt", dir, "a.txt")
	f.WriteContents("modified\n")

	origOut := filepath.Join(dir, "orig-out.txt")
	if err := f.WriteTo(origOut, true); err != nil {
		t.Fatal(err)
	}
	origBytes, _ := ioutil.ReadFile(origOut)
	assertEqual(t, string(origBytes), "original\n")

	curOut := filepath.Join(dir, "cur-out.txt")
	if err := f.WriteTo(curOut, false); err != nil {
		t.Fatal(err)
	}
	curBytes, _ := ioutil.ReadFile(curOut)
	assertEqual(t, string(curBytes), "modified\n")
}

func TestScannedFileContentsFilenameUnmodifiedReturnsSource(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "a.txt", "stable\n")
	f := NewScannedFile(path, "a.txt", dir, "a.txt")
	name, err := f.ContentsFilename()
	if err != nil {
		t.Fatal(err)
	}
	assertEqual(t, name, path)
}

func TestScannedFileContentsFilenameModifiedWritesScratchCopy(t *testing.T) {
	dir := t.TempDir()
	scratch := t.TempDir()
	path := writeTemp(t, dir, "a.txt", "stable\n")
	f := NewScannedFile(path, "a.txt", scratch, "a.txt")
	f.WriteContents("changed\n")
	name, err := f.ContentsFilename()
	if err != nil {
		t.Fatal(err)
	}
	if name == path {
		t.Errorf("expected a scratch copy, got the original path")
	}
	got, _ := ioutil.ReadFile(name)
	assertEqual(t, string(got), "changed\n")
}
