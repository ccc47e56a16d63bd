// Copyright by Eric S. Raymond
// SPDX-License-Identifier: BSD-2-Clause

package scrub

import "testing"

func TestUsernameClassification(t *testing.T) {
	f, err := NewUsernameFilter("", []string{"alice"}, []string{"bob"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if f.Classify("alice") != Publishable {
		t.Errorf("expected alice publishable")
	}
	if f.Classify("bob") != Scrubbable {
		t.Errorf("expected bob scrubbable")
	}
	if f.Classify("carol") != Unknown {
		t.Errorf("expected carol unknown")
	}
}

func TestShouldScrubUnknownUsers(t *testing.T) {
	without, _ := NewUsernameFilter("", nil, nil, false)
	assertFalse(t, without.ShouldScrub("carol"))

	with, _ := NewUsernameFilter("", nil, nil, true)
	assertTrue(t, with.ShouldScrub("carol"))
}

func TestShouldScrubScrubbableAlwaysScrubbed(t *testing.T) {
	f, _ := NewUsernameFilter("", nil, []string{"bob"}, false)
	assertTrue(t, f.ShouldScrub("bob"))
}
