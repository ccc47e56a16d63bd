// Copyright by Eric S. Raymond
// SPDX-License-Identifier: BSD-2-Clause

package scrub

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

func writeCodebaseFile(t *testing.T, root, relative, contents string) string {
	t.Helper()
	full := filepath.Join(root, relative)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		t.Fatal(err)
	}
	if err := ioutil.WriteFile(full, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	return full
}

func TestScanTodoSensitiveAndPythonModuleRename(t *testing.T) {
	root := t.TempDir()
	goFile := writeCodebaseFile(t, root, "main.go", "package main\n\n// TODO(carol): wire up topsecret launch plan\nfunc main() {}\n")
	pyFile := writeCodebaseFile(t, root, "tool.py", "import google3.internal.widget\nprint('hi')\n")

	cfg, err := NewConfig(ConfigOptions{
		SensitiveWords: []string{"topsecret"},
		PythonModuleRenames: []ModuleRename{
			{Internal: "google3.internal.widget", Public: "widget", AsName: ""},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx := NewContext(cfg, root, []string{goFile, pyFile}, t.TempDir(), ioutil.Discard)
	ctx.Quiet = true
	ctx.Scan()

	var goScanned, pyScanned *ScannedFile
	for _, f := range ctx.Files {
		switch f.RelativeFilename {
		case "main.go":
			goScanned = f
		case "tool.py":
			pyScanned = f
		}
	}
	if goScanned == nil || pyScanned == nil {
		t.Fatal("expected both files to be scanned")
	}

	if containsLine(goScanned.Contents(), "topsecret") {
		t.Errorf("expected sensitive word scrubbed from main.go, got %q", goScanned.Contents())
	}
	assertEqual(t, pyScanned.Contents(), "import widget\nprint('hi')\n")

	findings := ctx.Findings()
	var sawTodo, sawSensitive bool
	for _, f := range findings {
		if f.Filter == "todo" && f.Username == "carol" {
			sawTodo = true
		}
		if f.Filter == "sensitive_word" {
			sawSensitive = true
		}
	}
	assertTrue(t, sawTodo)
	assertTrue(t, sawSensitive)
	assertIntEqual(t, ctx.Status(), 1)
}

func TestScanEmptyJavaFileDeleted(t *testing.T) {
	root := t.TempDir()
	javaFile := writeCodebaseFile(t, root, "Empty.java", "package com.example;\n// nothing else\n")

	cfg, err := NewConfig(ConfigOptions{EmptyJavaFileAction: "DELETE"})
	if err != nil {
		t.Fatal(err)
	}
	ctx := NewContext(cfg, root, []string{javaFile}, t.TempDir(), ioutil.Discard)
	ctx.Quiet = true
	ctx.Scan()

	assertIntEqual(t, len(ctx.Files), 1)
	assertTrue(t, ctx.Files[0].IsDeleted)
}

func TestScanBinaryFileUntouched(t *testing.T) {
	root := t.TempDir()
	binFile := writeCodebaseFile(t, root, "blob.bin", "\xff\xfe\x00secret\x00")

	cfg, err := NewConfig(ConfigOptions{SensitiveWords: []string{"secret"}})
	if err != nil {
		t.Fatal(err)
	}
	ctx := NewContext(cfg, root, []string{binFile}, t.TempDir(), ioutil.Discard)
	ctx.Quiet = true
	ctx.Scan()

	assertFalse(t, ctx.Files[0].IsModified)
	assertIntEqual(t, len(ctx.Findings()), 0)
}

func TestScanWhitelistSuppressesFinding(t *testing.T) {
	root := t.TempDir()
	goFile := writeCodebaseFile(t, root, "main.go", "// topsecret is fine here\npackage main\n")

	cfg, err := NewConfig(ConfigOptions{
		SensitiveWords: []string{"topsecret"},
		Whitelist:      []WhitelistEntry{{Filter: "sensitive_word", Trigger: "topsecret"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	ctx := NewContext(cfg, root, []string{goFile}, t.TempDir(), ioutil.Discard)
	ctx.Quiet = true
	ctx.Scan()

	assertIntEqual(t, len(ctx.Findings()), 0)
	assertTrue(t, containsLine(ctx.Files[0].Contents(), "topsecret"))
}

func TestScanUnknownExtensionIsRecorded(t *testing.T) {
	root := t.TempDir()
	writeCodebaseFile(t, root, "data.rs", "fn main() {}\n")

	cfg, err := NewConfig(ConfigOptions{})
	if err != nil {
		t.Fatal(err)
	}
	ctx := NewContext(cfg, root, []string{filepath.Join(root, "data.rs")}, t.TempDir(), ioutil.Discard)
	ctx.Quiet = true
	ctx.Scan()

	exts := ctx.UnknownExtensions()
	assertIntEqual(t, len(exts), 1)
	assertEqual(t, exts[0], ".rs")
}

func TestScanUnknownExtensionlessFileIsRecordedByName(t *testing.T) {
	root := t.TempDir()
	writeCodebaseFile(t, root, "BUILD", "go_binary(name = \"x\")\n")

	cfg, err := NewConfig(ConfigOptions{})
	if err != nil {
		t.Fatal(err)
	}
	ctx := NewContext(cfg, root, []string{filepath.Join(root, "BUILD")}, t.TempDir(), ioutil.Discard)
	ctx.Quiet = true
	ctx.Scan()

	assertIntEqual(t, len(ctx.UnknownExtensions()), 0)
	names := ctx.UnknownFiles()
	assertIntEqual(t, len(names), 1)
	assertEqual(t, names[0], "BUILD")
}

func TestScanDoNotScrubFileUntouchedByBatchRules(t *testing.T) {
	root := t.TempDir()
	javaFile := writeCodebaseFile(t, root, "vendor/Empty.java", "package com.example;\n// nothing else\n")
	cFile := writeCodebaseFile(t, root, "vendor/topsecret.c", "// topsecret plan\nint main() {}\n")

	cfg, err := NewConfig(ConfigOptions{
		DoNotScrubFilesRe:   `^vendor/`,
		SensitiveWords:      []string{"topsecret"},
		EmptyJavaFileAction: "DELETE",
	})
	if err != nil {
		t.Fatal(err)
	}
	ctx := NewContext(cfg, root, []string{javaFile, cFile}, t.TempDir(), ioutil.Discard)
	ctx.Quiet = true
	ctx.Scan()

	var javaScanned, cScanned *ScannedFile
	for _, f := range ctx.Files {
		switch f.RelativeFilename {
		case "vendor/Empty.java":
			javaScanned = f
		case "vendor/topsecret.c":
			cScanned = f
		}
	}
	if javaScanned == nil || cScanned == nil {
		t.Fatal("expected both files to be scanned")
	}

	assertFalse(t, javaScanned.IsDeleted)
	assertFalse(t, javaScanned.IsModified)
	assertFalse(t, cScanned.IsModified)
	assertTrue(t, containsLine(cScanned.Contents(), "topsecret"))
	assertIntEqual(t, len(ctx.Findings()), 0)
}

func TestScanParallelProducesSameFindingsAsSequential(t *testing.T) {
	root := t.TempDir()
	var files []string
	for i := 0; i < 8; i++ {
		name := fmt.Sprintf("f%d.go", i)
		files = append(files, writeCodebaseFile(t, root, name, "// topsecret\npackage main\n"))
	}

	cfg, err := NewConfig(ConfigOptions{SensitiveWords: []string{"topsecret"}})
	if err != nil {
		t.Fatal(err)
	}
	ctx := NewContext(cfg, root, files, t.TempDir(), ioutil.Discard)
	ctx.Parallel = true
	ctx.Quiet = true
	ctx.Scan()

	assertIntEqual(t, len(ctx.Findings()), 8)
}
