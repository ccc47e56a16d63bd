// Copyright by Eric S. Raymond
// SPDX-License-Identifier: BSD-2-Clause

package scrub

import "testing"

func assertBool(t *testing.T, see bool, expect bool) {
	t.Helper()
	if see != expect {
		t.Errorf("assertBool: expected %v saw %v", expect, see)
	}
}

func assertTrue(t *testing.T, see bool) {
	t.Helper()
	assertBool(t, see, true)
}

func assertFalse(t *testing.T, see bool) {
	t.Helper()
	assertBool(t, see, false)
}

func assertEqual(t *testing.T, a string, b string) {
	t.Helper()
	if a != b {
		t.Fatalf("assertEqual: expected %q == %q", a, b)
	}
}

func assertIntEqual(t *testing.T, a int, b int) {
	t.Helper()
	if a != b {
		t.Errorf("assertIntEqual: expected %d == %d", a, b)
	}
}

// newTestFile builds a ScannedFile backed by in-memory content rather
// than a real path on disk, for rule tests that don't need I/O.
func newTestFile(relativeFilename, contents string) *ScannedFile {
	f := &ScannedFile{
		RelativeFilename:       relativeFilename,
		OutputRelativeFilename: relativeFilename,
		contents:               contents,
		loaded:                 true,
		isUnicode:               true,
	}
	return f
}

func newTestContext() *Context {
	cfg := &Config{
		IgnoreFilesRe:     neverMatches,
		DoNotScrubFilesRe: neverMatches,
		KnownFilenames:    defaultKnownFilenames,
	}
	return &Context{Config: cfg}
}
