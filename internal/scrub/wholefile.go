// Copyright by Eric S. Raymond
// SPDX-License-Identifier: BSD-2-Clause

package scrub

import (
	"regexp"
	"strings"
)

// PerFileRule is a rule that operates on one ScannedFile at a time: it
// may mutate the file and append findings to ctx (spec.md §3).
type PerFileRule interface {
	ScrubFile(f *ScannedFile, ctx *Context)
}

// StringReplacement is one (original, replacement) pair for Replacer.
type StringReplacement struct {
	Original    string
	Replacement string
}

// Replacer applies an ordered list of literal substitutions over the
// full file content; each substitution sees the text produced by the
// previous one (spec.md §9 open question on RewriteContent).
type Replacer struct {
	Replacements []StringReplacement
}

// ScrubFile implements PerFileRule.
func (r *Replacer) ScrubFile(f *ScannedFile, ctx *Context) {
	if f.IsBinaryFile() {
		return
	}
	for _, rep := range r.Replacements {
		f.Rewrite(rep.Original, rep.Replacement)
	}
}

// RegexReplacement is one (original, replacement) pair for
// RegexReplacer; replacement may use Go regexp backreferences ($1,
// ${1}, …).
type RegexReplacement struct {
	Original    *regexp.Regexp
	Replacement string
}

// RegexReplacer applies an ordered list of regex replacements over the
// full file content, each on the text produced by the previous one.
type RegexReplacer struct {
	Replacements []RegexReplacement
}

// ScrubFile implements PerFileRule.
func (r *RegexReplacer) ScrubFile(f *ScannedFile, ctx *Context) {
	if f.IsBinaryFile() {
		return
	}
	text := f.Contents()
	modified := false
	for _, rep := range r.Replacements {
		next := rep.Original.ReplaceAllString(text, rep.Replacement)
		if next != text {
			modified = true
			text = next
		}
	}
	if modified {
		f.WriteContents(text)
	}
}

// ShebangReplace replaces a first line starting with "#!" with a fixed
// configured line, verbatim.
type ShebangReplace struct {
	ShebangLine string
}

// ScrubFile implements PerFileRule.
func (r *ShebangReplace) ScrubFile(f *ScannedFile, ctx *Context) {
	if f.IsBinaryFile() {
		return
	}
	text := f.Contents()
	if !strings.HasPrefix(text, "#!") {
		return
	}
	end := strings.IndexByte(text, '\n')
	var rest string
	if end < 0 {
		rest = ""
	} else {
		rest = text[end:]
	}
	f.WriteContents(r.ShebangLine + rest)
}

// IncludeAction is what to do with a matched #include line.
type IncludeAction int

const (
	// IncludeDrop deletes the matched #include line.
	IncludeDrop IncludeAction = iota
	// IncludeKeep leaves the matched #include line untouched.
	IncludeKeep
	// IncludeRename replaces the included path with a fixed string.
	IncludeRename
)

// IncludeRule pairs a regex matching an include path with an action.
type IncludeRule struct {
	Pattern *regexp.Regexp
	Action  IncludeAction
	NewPath string
}

var includeLineRe = regexp.MustCompile(`^(\s*#\s*include\s*)(["<])([^">]+)([">])(.*)$`)

// IncludeScrubber drives C/C++ #include "…" and #include <…> lines
// through a configured list of (regex → action) rules.
type IncludeScrubber struct {
	Rules []IncludeRule
}

// ScrubFile implements PerFileRule.
func (s *IncludeScrubber) ScrubFile(f *ScannedFile, ctx *Context) {
	if f.IsBinaryFile() || len(s.Rules) == 0 {
		return
	}
	lines := splitKeepingTerminators(f.Contents())
	var out strings.Builder
	modified := false
	for _, line := range lines {
		body, term := splitTerminator(line)
		m := includeLineRe.FindStringSubmatch(body)
		if m == nil {
			out.WriteString(line)
			continue
		}
		path := m[3]
		acted := false
		for _, rule := range s.Rules {
			if !rule.Pattern.MatchString(path) {
				continue
			}
			acted = true
			switch rule.Action {
			case IncludeDrop:
				modified = true
			case IncludeKeep:
				out.WriteString(body)
				out.WriteString(term)
			case IncludeRename:
				out.WriteString(m[1] + m[2] + rule.NewPath + m[4] + m[5])
				out.WriteString(term)
				modified = true
			}
			break
		}
		if !acted {
			out.WriteString(line)
		}
	}
	if modified {
		f.WriteContents(out.String())
	}
}

var javaImportRe = regexp.MustCompile(`^import\s+(static\s+)?([\w.$]+)\s*;\s*$`)
var identifierRe = regexp.MustCompile(`\b\w+\b`)

// UnusedImportStrippingScrubber removes each top-of-file "import X.Y.Z;"
// (including "import static") whose last identifier does not appear as
// a token anywhere else in the file.
type UnusedImportStrippingScrubber struct{}

// ScrubFile implements PerFileRule.
func (UnusedImportStrippingScrubber) ScrubFile(f *ScannedFile, ctx *Context) {
	if f.IsBinaryFile() {
		return
	}
	lines := splitKeepingTerminators(f.Contents())

	type importLine struct {
		idx       int
		lastIdent string
	}
	var imports []importLine
	for i, line := range lines {
		body, _ := splitTerminator(line)
		m := javaImportRe.FindStringSubmatch(strings.TrimSpace(body))
		if m == nil {
			continue
		}
		path := m[2]
		last := path
		if dot := strings.LastIndexByte(path, '.'); dot >= 0 {
			last = path[dot+1:]
		}
		if last == "*" {
			continue // wildcard imports can't be proven unused
		}
		imports = append(imports, importLine{idx: i, lastIdent: last})
	}
	if len(imports) == 0 {
		return
	}

	importIdx := make(map[int]bool, len(imports))
	for _, im := range imports {
		importIdx[im.idx] = true
	}
	usageCount := make(map[string]int)
	for i, line := range lines {
		if importIdx[i] {
			continue
		}
		for _, tok := range identifierRe.FindAllString(line, -1) {
			usageCount[tok]++
		}
	}

	toDrop := make(map[int]bool)
	for _, im := range imports {
		if usageCount[im.lastIdent] == 0 {
			toDrop[im.idx] = true
		}
	}
	if len(toDrop) == 0 {
		return
	}

	var out strings.Builder
	for i, line := range lines {
		if toDrop[i] {
			continue
		}
		out.WriteString(line)
	}
	f.WriteContents(out.String())
}

// CoalesceBlankLinesScrubber collapses any run of more than Maximum
// consecutive blank lines down to exactly Maximum.
type CoalesceBlankLinesScrubber struct {
	Maximum int
}

// ScrubFile implements PerFileRule.
func (s *CoalesceBlankLinesScrubber) ScrubFile(f *ScannedFile, ctx *Context) {
	if f.IsBinaryFile() {
		return
	}
	lines := splitKeepingTerminators(f.Contents())
	var out strings.Builder
	run := 0
	modified := false
	for _, line := range lines {
		body, _ := splitTerminator(line)
		if strings.TrimSpace(body) == "" {
			run++
			if run > s.Maximum {
				modified = true
				continue
			}
		} else {
			run = 0
		}
		out.WriteString(line)
	}
	if modified {
		f.WriteContents(out.String())
	}
}

var testSizeAnnotationRe = regexp.MustCompile(`^\s*@(?:Small|Medium|Large|Enormous)Test(?:\s*,\s*@(?:Small|Medium|Large|Enormous)Test)*\s*$`)
var testSizeImportRe = regexp.MustCompile(`^\s*import\s+(?:static\s+)?[\w.$]*\.(Small|Medium|Large|Enormous)Test\s*;\s*$`)

// TestSizeAnnotationScrubber removes lines consisting solely of
// @SmallTest/@MediumTest/@LargeTest/@EnormousTest (and combinations),
// plus the matching import lines.
type TestSizeAnnotationScrubber struct{}

// ScrubFile implements PerFileRule.
func (TestSizeAnnotationScrubber) ScrubFile(f *ScannedFile, ctx *Context) {
	if f.IsBinaryFile() {
		return
	}
	lines := splitKeepingTerminators(f.Contents())
	var out strings.Builder
	modified := false
	for _, line := range lines {
		body, _ := splitTerminator(line)
		if testSizeAnnotationRe.MatchString(body) || testSizeImportRe.MatchString(body) {
			modified = true
			continue
		}
		out.WriteString(line)
	}
	if modified {
		f.WriteContents(out.String())
	}
}

var gwtInheritsRe = regexp.MustCompile(`(?m)^[ \t]*<inherits\s+name="([^"]+)"\s*/>[ \t]*\n?`)

// GwtXmlScrubber removes <inherits name="X"/> elements whose X is in a
// configured set.
type GwtXmlScrubber struct {
	Names map[string]bool
}

// ScrubFile implements PerFileRule.
func (s *GwtXmlScrubber) ScrubFile(f *ScannedFile, ctx *Context) {
	if f.IsBinaryFile() || len(s.Names) == 0 {
		return
	}
	text := f.Contents()
	result := gwtInheritsRe.ReplaceAllStringFunc(text, func(match string) string {
		m := gwtInheritsRe.FindStringSubmatch(match)
		if s.Names[m[1]] {
			return ""
		}
		return match
	})
	if result != text {
		f.WriteContents(result)
	}
}

// SensitiveStringScrubber runs a sensitive-string matcher over the
// whole file, rewrites every hit to empty, and records a finding for
// each one not covered by the whitelist (spec.md §4.10, "polyglot
// findings emitted outside comments use the regular whitelist").
type SensitiveStringScrubber struct {
	Matcher   Matcher
	Whitelist *Whitelist
}

// ScrubFile implements PerFileRule.
func (s *SensitiveStringScrubber) ScrubFile(f *ScannedFile, ctx *Context) {
	if f.IsBinaryFile() {
		return
	}
	text := f.Contents()
	matches := s.Matcher.FindAll(text)
	if len(matches) == 0 {
		return
	}
	var b strings.Builder
	last := 0
	changed := false
	for _, m := range matches {
		if m.Start < last {
			continue
		}
		finding := Finding{
			Filter:     s.Matcher.Name(),
			Trigger:    m.Trigger,
			Filename:   f.RelativeFilename,
			ReportText: "sensitive string in file content",
		}
		if s.Whitelist.Allows(finding) {
			continue
		}
		ctx.AddFinding(finding)
		b.WriteString(text[last:m.Start])
		last = m.End
		changed = true
	}
	b.WriteString(text[last:])
	if changed {
		f.WriteContents(b.String())
	}
}

// JavaRenameScrubber textually rewrites an internal Java package
// prefix to a public one wherever it appears as a dotted-name prefix
// (package/import declarations and fully-qualified names).
type JavaRenameScrubber struct {
	Internal string
	Public   string
	re       *regexp.Regexp
}

// NewJavaRenameScrubber compiles the prefix-boundary regex for
// internalPkg, matching it only when followed by '.', ';', or a word
// boundary so "com.internal.foo" doesn't clobber "com.internalfoobar".
func NewJavaRenameScrubber(internalPkg, publicPkg string) *JavaRenameScrubber {
	return &JavaRenameScrubber{
		Internal: internalPkg,
		Public:   publicPkg,
		re:       regexp.MustCompile(`\b` + regexp.QuoteMeta(internalPkg) + `\b`),
	}
}

// ScrubFile implements PerFileRule.
func (s *JavaRenameScrubber) ScrubFile(f *ScannedFile, ctx *Context) {
	if f.IsBinaryFile() {
		return
	}
	text := f.Contents()
	result := s.re.ReplaceAllString(text, s.Public)
	if result != text {
		f.WriteContents(result)
	}
}
