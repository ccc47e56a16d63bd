// Copyright by Eric S. Raymond
// SPDX-License-Identifier: BSD-2-Clause

package scrub

import "strings"

// BatchRule observes the full set of files sharing an extension,
// either before per-file rules run (pre-batch) or after (post-batch).
type BatchRule interface {
	BatchScrubFiles(files []*ScannedFile, ctx *Context)
}

// perFileBatchAdapter lets a PerFileRule (the comment stack) register
// itself as a pre-batch rule: spec.md §4.9 calls the comment stack
// "the canonical pre-batch rule... applied per file but declared as
// pre-batch so that later per-file rules observe the already-scrubbed
// text."
type perFileBatchAdapter struct {
	rule PerFileRule
}

// BatchScrubFiles implements BatchRule by running the wrapped
// per-file rule over each file in the batch independently.
func (a perFileBatchAdapter) BatchScrubFiles(files []*ScannedFile, ctx *Context) {
	for _, f := range files {
		if f.IsDeleted {
			continue
		}
		a.rule.ScrubFile(f, ctx)
	}
}

// AsBatchRule wraps a PerFileRule so it can be registered in a
// pre-batch or post-batch slot.
func AsBatchRule(rule PerFileRule) BatchRule {
	return perFileBatchAdapter{rule: rule}
}

// EmptyFileAction is the post-batch policy for a file found to be
// empty after stripping comments and whitespace.
type EmptyFileAction int

const (
	// ActionIgnore leaves an empty file alone.
	ActionIgnore EmptyFileAction = iota
	// ActionDelete marks an empty file deleted.
	ActionDelete
	// ActionError records a finding for an empty file.
	ActionError
)

// EmptyJavaFileScrubber is the canonical post-batch rule (spec.md
// §4.9): a Java file is "empty" if, after stripping comments and
// whitespace, only a package declaration and optionally imports
// remain.
type EmptyJavaFileScrubber struct {
	Action EmptyFileAction
}

// BatchScrubFiles implements BatchRule.
func (s *EmptyJavaFileScrubber) BatchScrubFiles(files []*ScannedFile, ctx *Context) {
	if s.Action == ActionIgnore {
		return
	}
	for _, f := range files {
		if f.IsDeleted || f.IsBinaryFile() {
			continue
		}
		if !isEmptyJavaFile(f.Contents()) {
			continue
		}
		switch s.Action {
		case ActionDelete:
			f.Delete()
		case ActionError:
			ctx.AddFinding(Finding{
				Filter:     "empty_java_file",
				Trigger:    "",
				Filename:   f.RelativeFilename,
				ReportText: "file is empty after comment/whitespace stripping",
			})
		}
	}
}

func isEmptyJavaFile(text string) bool {
	stripped := stripComments(text, CLikeCommentExtractor{})
	for _, line := range strings.Split(stripped, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "package ") || strings.HasPrefix(line, "import ") {
			continue
		}
		return false
	}
	return true
}

func stripComments(text string, extractor Extractor) string {
	spans := extractor.Extract(text)
	if len(spans) == 0 {
		return text
	}
	var b strings.Builder
	last := 0
	for _, span := range spans {
		b.WriteString(text[last:span.Start])
		last = span.End
	}
	b.WriteString(text[last:])
	return b.String()
}
