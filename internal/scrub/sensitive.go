// Copyright by Eric S. Raymond
// SPDX-License-Identifier: BSD-2-Clause

package scrub

import (
	"regexp"
	"sort"
)

// Match is a single hit from a sensitive-string matcher: the matched
// text and its byte span within whatever text the caller handed in
// (a whole file or a single comment span).
type Match struct {
	Trigger string
	Start   int
	End     int
}

// Matcher finds sensitive substrings in arbitrary text. Matchers are
// pure: they don't know whether they're looking at a whole file or a
// comment span, and they don't consult the whitelist themselves — that
// is the caller's job (comment rules and the polyglot whole-file pass
// both do it independently, spec.md §4.3).
type Matcher interface {
	Name() string
	FindAll(text string) []Match
}

// WordMatcher matches whole-word occurrences of a fixed word list.
type WordMatcher struct {
	name string
	res  []*regexp.Regexp
}

// NewWordMatcher compiles one word-boundary regexp per word.
func NewWordMatcher(name string, words []string) *WordMatcher {
	m := &WordMatcher{name: name}
	for _, w := range words {
		m.res = append(m.res, regexp.MustCompile(`\b`+regexp.QuoteMeta(w)+`\b`))
	}
	return m
}

// Name identifies this matcher for Finding.Filter.
func (m *WordMatcher) Name() string { return m.name }

// FindAll returns every whole-word hit of any configured word, ordered
// by position in text so callers can consume them with a single
// left-to-right pass.
func (m *WordMatcher) FindAll(text string) []Match {
	var out []Match
	for _, re := range m.res {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			out = append(out, Match{Trigger: text[loc[0]:loc[1]], Start: loc[0], End: loc[1]})
		}
	}
	sortMatchesByStart(out)
	return out
}

// RegexMatcher matches a fixed list of regular expressions, each
// applied independently.
type RegexMatcher struct {
	name string
	res  []*regexp.Regexp
}

// NewRegexMatcher compiles each pattern independently; a malformed
// pattern is a config-class fatal error (spec.md §7).
func NewRegexMatcher(name string, patterns []string) (*RegexMatcher, error) {
	m := &RegexMatcher{name: name}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		m.res = append(m.res, re)
	}
	return m, nil
}

// Name identifies this matcher for Finding.Filter.
func (m *RegexMatcher) Name() string { return m.name }

// FindAll returns every hit of any configured pattern, ordered by
// position in text.
func (m *RegexMatcher) FindAll(text string) []Match {
	var out []Match
	for _, re := range m.res {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			out = append(out, Match{Trigger: text[loc[0]:loc[1]], Start: loc[0], End: loc[1]})
		}
	}
	sortMatchesByStart(out)
	return out
}

// sortMatchesByStart orders matches left-to-right so a single
// left-to-right consuming pass (SensitiveStringScrubber,
// SensitiveInCommentRule) never sees a match whose Start precedes the
// previous match's End.
func sortMatchesByStart(matches []Match) {
	sort.Slice(matches, func(i, j int) bool { return matches[i].Start < matches[j].Start })
}
