// Copyright by Eric S. Raymond
// SPDX-License-Identifier: BSD-2-Clause

package scrub

import "testing"

func TestTodoFindingReport(t *testing.T) {
	f := TodoFinding("foo.go", "TODO(jdoe)", "jdoe")
	assertEqual(t, f.Filter, "todo")
	assertEqual(t, f.Username, "jdoe")
	assertTrue(t, f.Report() != "")
}

func TestWhitelistEmptyFieldMatchesAnything(t *testing.T) {
	w := NewWhitelist([]WhitelistEntry{{Filter: "sensitive"}})
	assertTrue(t, w.Allows(Finding{Filter: "sensitive", Trigger: "x", Filename: "a.go"}))
	assertFalse(t, w.Allows(Finding{Filter: "other", Trigger: "x", Filename: "a.go"}))
}

func TestWhitelistAllFieldsMustMatch(t *testing.T) {
	w := NewWhitelist([]WhitelistEntry{{Filter: "sensitive", Trigger: "x", Filename: "a.go"}})
	assertTrue(t, w.Allows(Finding{Filter: "sensitive", Trigger: "x", Filename: "a.go"}))
	assertFalse(t, w.Allows(Finding{Filter: "sensitive", Trigger: "y", Filename: "a.go"}))
}

func TestNilWhitelistAllowsNothing(t *testing.T) {
	var w *Whitelist
	assertFalse(t, w.Allows(Finding{Filter: "sensitive"}))
}
