// Copyright by Eric S. Raymond
// SPDX-License-Identifier: BSD-2-Clause

package scrub

import "testing"

func TestWordMatcherWholeWordOnly(t *testing.T) {
	m := NewWordMatcher("sensitive_word", []string{"secret"})
	hits := m.FindAll("the secret project, not secretary business")
	assertIntEqual(t, len(hits), 1)
	assertEqual(t, hits[0].Trigger, "secret")
}

func TestRegexMatcherBadPatternErrors(t *testing.T) {
	_, err := NewRegexMatcher("sensitive_re", []string{"("})
	assertTrue(t, err != nil)
}

func TestRegexMatcherFindsAllHits(t *testing.T) {
	m, err := NewRegexMatcher("sensitive_re", []string{`internal-[0-9]+`})
	if err != nil {
		t.Fatal(err)
	}
	hits := m.FindAll("see internal-42 and internal-7 tickets")
	assertIntEqual(t, len(hits), 2)
}

// TestWordMatcherOrdersHitsByPosition guards against a second word's
// earlier-in-text hit being reported after a first word's later hit,
// which would make a single left-to-right consuming pass (the comment
// and whole-file sensitive-string scrubbers) hand a negative-width
// slice to strings.Builder.
func TestWordMatcherOrdersHitsByPosition(t *testing.T) {
	m := NewWordMatcher("sensitive_word", []string{"bob", "alice"})
	hits := m.FindAll("alice and bob")
	assertIntEqual(t, len(hits), 2)
	assertTrue(t, hits[0].Start < hits[1].Start)
	assertEqual(t, hits[0].Trigger, "alice")
	assertEqual(t, hits[1].Trigger, "bob")
}
