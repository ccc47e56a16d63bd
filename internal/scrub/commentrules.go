// Copyright by Eric S. Raymond
// SPDX-License-Identifier: BSD-2-Clause

package scrub

import (
	"regexp"
	"strings"
)

// CommentSpanRule transforms one comment span's text. Rules run in a
// chain, one span at a time: the output text of one rule is the input
// of the next (spec.md §4.6). A rule that only detects (TODO) and
// never rewrites simply returns text unchanged.
type CommentSpanRule interface {
	Apply(span Span, text string, f *ScannedFile, ctx *Context) string
}

// AllCommentsRule deletes every comment span outright.
type AllCommentsRule struct{}

// Apply implements CommentSpanRule.
func (AllCommentsRule) Apply(span Span, text string, f *ScannedFile, ctx *Context) string {
	return ""
}

// NonDocumentationCommentsRule deletes a span unless the extractor
// labelled it a documentation comment.
type NonDocumentationCommentsRule struct{}

// Apply implements CommentSpanRule.
func (NonDocumentationCommentsRule) Apply(span Span, text string, f *ScannedFile, ctx *Context) string {
	if span.Kind == KindDoc {
		return text
	}
	return ""
}

var todoRe = regexp.MustCompile(`TODO\(([^)]*)\)`)

// TodoRule finds TODO(name) or TODO(name1, name2); for each named
// user it asks the username filter, and emits a TODO finding for every
// name the filter can't classify as known. It never rewrites text.
type TodoRule struct {
	Usernames *UsernameFilter
}

// Apply implements CommentSpanRule.
func (r TodoRule) Apply(span Span, text string, f *ScannedFile, ctx *Context) string {
	for _, m := range todoRe.FindAllStringSubmatch(text, -1) {
		for _, name := range strings.Split(m[1], ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if r.Usernames.Classify(name) == Unknown {
				ctx.AddFinding(TodoFinding(f.RelativeFilename, m[0], name))
			}
		}
	}
	return text
}

var authorLineRe = regexp.MustCompile(`(?m)^([ \t]*(?:\*[ \t]*)?)(Author:|@author)[ \t]*(.+)$`)

// AuthorDeclarationRule removes "Author:"/"@author" lines naming a
// scrubbable (or unknown-with-scrub_unknown) identifier; publishable
// authors are retained verbatim.
type AuthorDeclarationRule struct {
	Usernames *UsernameFilter
}

// Apply implements CommentSpanRule.
func (r AuthorDeclarationRule) Apply(span Span, text string, f *ScannedFile, ctx *Context) string {
	return authorLineRe.ReplaceAllStringFunc(text, func(line string) string {
		m := authorLineRe.FindStringSubmatch(line)
		if m == nil {
			return line
		}
		name := extractIdentifier(m[3])
		if r.Usernames.ShouldScrub(name) {
			return ""
		}
		return line
	})
}

// extractIdentifier pulls a bare identifier out of an author
// declaration's free-form remainder, e.g. "Jane Doe <jane@example.com>"
// or "jane (Jane Doe)" both yield "jane". A "<…>" part with no '@'
// yields the trimmed text before the '<'; otherwise the first
// space-separated word is used, or the whole trimmed remainder when it
// has no space.
func extractIdentifier(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '<'); i >= 0 {
		email := s[i+1:]
		if j := strings.IndexByte(email, '>'); j >= 0 {
			email = email[:j]
		}
		if at := strings.IndexByte(email, '@'); at >= 0 {
			return email[:at]
		}
		return strings.TrimSpace(s[:i])
	}
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[:i]
	}
	return s
}

// SensitiveInCommentRule runs a sensitive-string matcher over a
// comment span and scrubs every hit to empty, recording a finding
// unless the whitelist allows it.
type SensitiveInCommentRule struct {
	Matcher   Matcher
	Whitelist *Whitelist
}

// Apply implements CommentSpanRule.
func (r SensitiveInCommentRule) Apply(span Span, text string, f *ScannedFile, ctx *Context) string {
	matches := r.Matcher.FindAll(text)
	if len(matches) == 0 {
		return text
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		if m.Start < last {
			// Overlaps a match already consumed; skip rather than emit
			// a finding for text that's already been scrubbed out.
			continue
		}
		finding := Finding{
			Filter:     r.Matcher.Name(),
			Trigger:    m.Trigger,
			Filename:   f.RelativeFilename,
			ReportText: "sensitive string in comment",
		}
		if r.Whitelist.Allows(finding) {
			continue
		}
		ctx.AddFinding(finding)
		b.WriteString(text[last:m.Start])
		last = m.End
	}
	b.WriteString(text[last:])
	return b.String()
}

// CommentScrubber is the canonical pre-batch rule (spec.md §4.9): it
// extracts comment spans from a file and runs the configured comment
// rule chain over each span, then reassembles the file from the
// original text outside spans plus the (possibly rewritten) span
// texts, in order.
type CommentScrubber struct {
	Extractor Extractor
	Rules     []CommentSpanRule
}

// ScrubFile implements PerFileRule.
func (c *CommentScrubber) ScrubFile(f *ScannedFile, ctx *Context) {
	if f.IsBinaryFile() {
		return
	}
	text := f.Contents()
	spans := c.Extractor.Extract(text)
	if len(spans) == 0 {
		return
	}
	var b strings.Builder
	last := 0
	for _, span := range spans {
		b.WriteString(text[last:span.Start])
		cur := span.Text
		for _, rule := range c.Rules {
			cur = rule.Apply(span, cur, f, ctx)
		}
		b.WriteString(cur)
		last = span.End
	}
	b.WriteString(text[last:])
	f.WriteContents(b.String())
}
