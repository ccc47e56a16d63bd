// Copyright by Eric S. Raymond
// SPDX-License-Identifier: BSD-2-Clause

package scrub

import (
	"regexp"
	"strings"
)

// LineRule rewrites or deletes a single physical line (without its
// line terminator). Returning deleted=true drops the line (and its
// terminator) entirely from the output.
type LineRule interface {
	ScrubLine(line string, f *ScannedFile, ctx *Context) (rewritten string, deleted bool)
}

// PythonModuleRename rewrites "import internal" to "import public [as
// as_name]" and "from internal[.X] import Y" to "from public[.X]
// import Y".
type PythonModuleRename struct {
	Internal string
	Public   string
	AsName   string

	importRe     *regexp.Regexp
	fromImportRe *regexp.Regexp
}

// NewPythonModuleRename compiles the two regexes this rule needs.
func NewPythonModuleRename(internal, public, asName string) *PythonModuleRename {
	quoted := regexp.QuoteMeta(internal)
	return &PythonModuleRename{
		Internal:     internal,
		Public:       public,
		AsName:       asName,
		importRe:     regexp.MustCompile(`^(\s*)import\s+` + quoted + `\s*$`),
		fromImportRe: regexp.MustCompile(`^(\s*)from\s+` + quoted + `(\.[\w.]+)?\s+import\s+(.+)$`),
	}
}

// ScrubLine implements LineRule.
func (r *PythonModuleRename) ScrubLine(line string, f *ScannedFile, ctx *Context) (string, bool) {
	if m := r.importRe.FindStringSubmatch(line); m != nil {
		if r.AsName != "" {
			return m[1] + "import " + r.Public + " as " + r.AsName, false
		}
		return m[1] + "import " + r.Public, false
	}
	if m := r.fromImportRe.FindStringSubmatch(line); m != nil {
		return m[1] + "from " + r.Public + m[2] + " import " + m[3], false
	}
	return line, false
}

// PythonModuleRemove deletes any import line importing Module.
type PythonModuleRemove struct {
	Module string
	re     *regexp.Regexp
}

// NewPythonModuleRemove compiles the regex matching an import of
// module, in either "import module" or "from module import X" form.
func NewPythonModuleRemove(module string) *PythonModuleRemove {
	quoted := regexp.QuoteMeta(module)
	return &PythonModuleRemove{
		Module: module,
		re:     regexp.MustCompile(`^\s*(import\s+` + quoted + `\b|from\s+` + quoted + `\b)`),
	}
}

// ScrubLine implements LineRule.
func (r *PythonModuleRemove) ScrubLine(line string, f *ScannedFile, ctx *Context) (string, bool) {
	if r.re.MatchString(line) {
		return "", true
	}
	return line, false
}

// JsDirectoryRename does a textual substring replacement of Internal
// with Public anywhere on a line; intended for paths embedded in
// source files and HTML.
type JsDirectoryRename struct {
	Internal string
	Public   string
}

// ScrubLine implements LineRule.
func (r JsDirectoryRename) ScrubLine(line string, f *ScannedFile, ctx *Context) (string, bool) {
	return strings.ReplaceAll(line, r.Internal, r.Public), false
}

var pythonAuthorDunderRe = regexp.MustCompile(`^\s*__author__\s*=\s*(['"])(.*)['"]\s*$`)

// PythonAuthorDeclarationScrubber deletes "__author__ = '…'" lines
// when the named identifier is scrubbable.
type PythonAuthorDeclarationScrubber struct {
	Usernames *UsernameFilter
}

// ScrubLine implements LineRule.
func (r PythonAuthorDeclarationScrubber) ScrubLine(line string, f *ScannedFile, ctx *Context) (string, bool) {
	m := pythonAuthorDunderRe.FindStringSubmatch(line)
	if m == nil {
		return line, false
	}
	name := extractIdentifier(m[2])
	if r.Usernames.ShouldScrub(name) {
		return "", true
	}
	return line, false
}

// LineScrubber is a PerFileRule that applies a fixed, ordered list of
// LineRules to every physical line of a file in a single pass.
type LineScrubber struct {
	Rules []LineRule
}

// ScrubFile implements PerFileRule.
func (ls *LineScrubber) ScrubFile(f *ScannedFile, ctx *Context) {
	if f.IsBinaryFile() || len(ls.Rules) == 0 {
		return
	}
	text := f.Contents()
	lines := splitKeepingTerminators(text)
	var out strings.Builder
	modified := false
	for _, line := range lines {
		body, term := splitTerminator(line)
		cur := body
		deleted := false
		for _, rule := range ls.Rules {
			var nextDeleted bool
			cur, nextDeleted = rule.ScrubLine(cur, f, ctx)
			if nextDeleted {
				deleted = true
				break
			}
		}
		if deleted {
			modified = true
			continue
		}
		if cur != body {
			modified = true
		}
		out.WriteString(cur)
		out.WriteString(term)
	}
	if modified {
		f.WriteContents(out.String())
	}
}

// splitKeepingTerminators splits text into lines, each one retaining
// its trailing "\n" (the last line may have none).
func splitKeepingTerminators(text string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lines = append(lines, text[start:i+1])
			start = i + 1
		}
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}

func splitTerminator(line string) (body, term string) {
	if strings.HasSuffix(line, "\n") {
		return line[:len(line)-1], "\n"
	}
	return line, ""
}
