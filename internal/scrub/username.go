// Copyright by Eric S. Raymond
// SPDX-License-Identifier: BSD-2-Clause

package scrub

import (
	"bufio"
	"os"
	"strings"
)

// Classification is one of the three username categories the filter
// sorts an identifier into (spec.md §4.4, GLOSSARY).
type Classification int

const (
	// Publishable identifiers are kept as-is.
	Publishable Classification = iota
	// Scrubbable identifiers must be removed wherever found.
	Scrubbable
	// Unknown identifiers are neither listed as publishable nor
	// scrubbable.
	Unknown
)

// UsernameFilter classifies an identifier as publishable, scrubbable,
// or unknown, optionally treating unknown identifiers as scrubbable
// for decision purposes (while still reporting them as "unknown" for
// the TODO-by-username report, spec.md §4.2).
type UsernameFilter struct {
	publishable  map[string]bool
	scrubbable   map[string]bool
	scrubUnknown bool
}

// NewUsernameFilter builds a filter from explicit publishable/scrubbable
// lists plus an optional newline-delimited usernames file (treated as
// additional scrubbable names, matching the source's single-file input).
func NewUsernameFilter(usernamesFile string, publishable, scrubbable []string, scrubUnknown bool) (*UsernameFilter, error) {
	f := &UsernameFilter{
		publishable:  toSet(publishable),
		scrubbable:   toSet(scrubbable),
		scrubUnknown: scrubUnknown,
	}
	if usernamesFile != "" {
		names, err := readUsernamesFile(usernamesFile)
		if err != nil {
			return nil, err
		}
		for _, n := range names {
			f.scrubbable[n] = true
		}
	}
	return f, nil
}

func toSet(names []string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

func readUsernamesFile(path string) ([]string, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	var names []string
	scanner := bufio.NewScanner(fh)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	return names, scanner.Err()
}

// Classify reports the raw classification of name: Publishable,
// Scrubbable, or Unknown. Callers that need the scrub_unknown_users
// decision should use ShouldScrub instead.
func (f *UsernameFilter) Classify(name string) Classification {
	if f == nil {
		return Unknown
	}
	if f.publishable[name] {
		return Publishable
	}
	if f.scrubbable[name] {
		return Scrubbable
	}
	return Unknown
}

// ShouldScrub reports whether an occurrence of name should be removed:
// true for Scrubbable, and also true for Unknown when scrub_unknown_users
// is set.
func (f *UsernameFilter) ShouldScrub(name string) bool {
	switch f.Classify(name) {
	case Scrubbable:
		return true
	case Unknown:
		return f != nil && f.scrubUnknown
	default:
		return false
	}
}
