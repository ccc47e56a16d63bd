// Copyright by Eric S. Raymond
// SPDX-License-Identifier: BSD-2-Clause

package scrub

import "strings"

// FileRenamer rewrites a codebase-relative path according to the
// rearranging_config directory-prefix mapping (spec.md §3, §6). The
// longest matching internal prefix wins.
type FileRenamer struct {
	prefixes []string
	mapping  map[string]string
}

// NewFileRenamer builds a renamer from an internal-prefix → new-prefix
// mapping.
func NewFileRenamer(mapping map[string]string) *FileRenamer {
	r := &FileRenamer{mapping: mapping}
	for prefix := range mapping {
		r.prefixes = append(r.prefixes, prefix)
	}
	// Longest prefix first so a nested rename wins over its parent.
	for i := 1; i < len(r.prefixes); i++ {
		for j := i; j > 0 && len(r.prefixes[j]) > len(r.prefixes[j-1]); j-- {
			r.prefixes[j], r.prefixes[j-1] = r.prefixes[j-1], r.prefixes[j]
		}
	}
	return r
}

// RenameFile rewrites relativeFilename's directory prefix if it
// matches a configured rename.
func (r *FileRenamer) RenameFile(relativeFilename string) string {
	if r == nil {
		return relativeFilename
	}
	for _, prefix := range r.prefixes {
		if relativeFilename == prefix {
			return r.mapping[prefix]
		}
		if strings.HasPrefix(relativeFilename, prefix+"/") {
			return r.mapping[prefix] + relativeFilename[len(prefix):]
		}
	}
	return relativeFilename
}
