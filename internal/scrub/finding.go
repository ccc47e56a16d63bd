// Copyright by Eric S. Raymond
// SPDX-License-Identifier: BSD-2-Clause

package scrub

import "fmt"

// Finding is a single detection recorded during a scrub: a rule's
// identity, the matched text, and the file it was found in.
type Finding struct {
	Filter     string
	Trigger    string
	Filename   string
	ReportText string

	// Username is set only for TODO findings; it groups the
	// human-readable report by username (spec.md §4.2).
	Username string
	isTodo   bool
}

// TodoFinding builds a Finding carrying an unknown TODO username.
func TodoFinding(filename, trigger, username string) Finding {
	return Finding{
		Filter:     "todo",
		Trigger:    trigger,
		Filename:   filename,
		ReportText: fmt.Sprintf("unresolved TODO naming unknown user %q", username),
		Username:   username,
		isTodo:     true,
	}
}

// Report renders a Finding the way the source's plain-string findings
// print: "ERROR[entry:<filter:"…" trigger:"…" filename:"…">]: …".
func (f Finding) Report() string {
	return fmt.Sprintf("ERROR[entry:<filter:%q trigger:%q filename:%q>]: %s",
		f.Filter, f.Trigger, f.Filename, f.ReportText)
}

// IsTodo reports whether f was built by TodoFinding, i.e. whether it
// belongs in the report's grouped-by-username TODO section rather than
// among the plain ERROR[entry:...] lines (spec.md §4.2).
func (f Finding) IsTodo() bool {
	return f.isTodo
}

// WhitelistEntry matches a Finding field-by-field; an empty field
// matches anything.
type WhitelistEntry struct {
	Filter   string
	Trigger  string
	Filename string
}

func (e WhitelistEntry) allows(f Finding) bool {
	if e.Filter != "" && e.Filter != f.Filter {
		return false
	}
	if e.Trigger != "" && e.Trigger != f.Trigger {
		return false
	}
	if e.Filename != "" && e.Filename != f.Filename {
		return false
	}
	return true
}

// Whitelist is a set of (filter, trigger, filename) entries that
// suppress matching findings.
type Whitelist struct {
	entries []WhitelistEntry
}

// NewWhitelist builds a Whitelist from its entries.
func NewWhitelist(entries []WhitelistEntry) *Whitelist {
	return &Whitelist{entries: entries}
}

// Allows reports whether some whitelist entry matches every non-empty
// field of finding.
func (w *Whitelist) Allows(f Finding) bool {
	if w == nil {
		return false
	}
	for _, e := range w.entries {
		if e.allows(f) {
			return true
		}
	}
	return false
}
