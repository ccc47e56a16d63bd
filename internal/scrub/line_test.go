// Copyright by Eric S. Raymond
// SPDX-License-Identifier: BSD-2-Clause

package scrub

import "testing"

func TestPythonModuleRenameImport(t *testing.T) {
	r := NewPythonModuleRename("google3.internal.foo", "foo", "")
	out, deleted := r.ScrubLine("import google3.internal.foo", nil, nil)
	assertFalse(t, deleted)
	assertEqual(t, out, "import foo")
}

func TestPythonModuleRenameImportWithAsName(t *testing.T) {
	r := NewPythonModuleRename("google3.internal.foo", "foo", "ifoo")
	out, _ := r.ScrubLine("import google3.internal.foo", nil, nil)
	assertEqual(t, out, "import foo as ifoo")
}

func TestPythonModuleRenameFromImport(t *testing.T) {
	r := NewPythonModuleRename("google3.internal.foo", "foo", "")
	out, _ := r.ScrubLine("from google3.internal.foo.bar import Baz", nil, nil)
	assertEqual(t, out, "from foo.bar import Baz")
}

func TestPythonModuleRemoveDeletesImportLine(t *testing.T) {
	r := NewPythonModuleRemove("google3.internal.secret")
	_, deleted := r.ScrubLine("import google3.internal.secret", nil, nil)
	assertTrue(t, deleted)
	_, deleted = r.ScrubLine("import other.module", nil, nil)
	assertFalse(t, deleted)
}

func TestJsDirectoryRenameReplacesSubstring(t *testing.T) {
	r := JsDirectoryRename{Internal: "internal/js", Public: "public/js"}
	out, deleted := r.ScrubLine(`<script src="internal/js/app.js">`, nil, nil)
	assertFalse(t, deleted)
	assertEqual(t, out, `<script src="public/js/app.js">`)
}

func TestPythonAuthorDeclarationScrubberDeletesScrubbableAuthor(t *testing.T) {
	usernames, _ := NewUsernameFilter("", nil, []string{"bob"}, false)
	r := PythonAuthorDeclarationScrubber{Usernames: usernames}
	_, deleted := r.ScrubLine(`__author__ = 'bob'`, nil, nil)
	assertTrue(t, deleted)
}

func TestLineScrubberAppliesChainAndTracksModification(t *testing.T) {
	ls := &LineScrubber{Rules: []LineRule{NewPythonModuleRemove("secret")}}
	f := newTestFile("x.py", "import secret\nprint('hi')\n")
	ls.ScrubFile(f, newTestContext())
	assertEqual(t, f.Contents(), "print('hi')\n")
	assertTrue(t, f.IsModified)
}

func TestLineScrubberLeavesUnmodifiedFileAlone(t *testing.T) {
	ls := &LineScrubber{Rules: []LineRule{NewPythonModuleRemove("secret")}}
	f := newTestFile("x.py", "print('hi')\n")
	ls.ScrubFile(f, newTestContext())
	assertFalse(t, f.IsModified)
}
