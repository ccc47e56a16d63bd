// Copyright by Eric S. Raymond
// SPDX-License-Identifier: BSD-2-Clause

package scrub

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	orderedset "github.com/emirpasic/gods/sets/linkedhashset"
	cmap "github.com/orcaman/concurrent-map"
	terminal "golang.org/x/crypto/ssh/terminal"
)

// Context is the mutable per-run state of a scrub: the file list, the
// findings accumulated so far, and the sets of unknown extensions and
// unknown bare filenames the dispatcher couldn't resolve (spec.md §3).
//
// Context mutations are serialized through a mutex so that Scan may,
// at the caller's option, scrub independent files concurrently
// (spec.md §5) while still producing a deterministic report.
type Context struct {
	Config *Config
	Files  []*ScannedFile

	// Parallel enables concurrent per-file scrubbing across files that
	// don't share an extension-batch dependency. Disabled by default so
	// that callers who want strictly sequential, single-threaded
	// execution (spec.md §5's baseline model) get it.
	Parallel bool

	ScratchDir string
	Quiet      bool

	mu       sync.Mutex
	findings []Finding
	logfp    io.Writer

	unknownExtensions cmap.ConcurrentMap
	unknownFiles      cmap.ConcurrentMap
	seenExtOrder      *orderedset.Set
	seenFileOrder     *orderedset.Set
	seenOrderMu       sync.Mutex
}

// NewContext builds a Context for cfg over a fixed list of absolute
// input file paths, all beneath codebase.
func NewContext(cfg *Config, codebase string, inputFiles []string, scratchDir string, logfp io.Writer) *Context {
	ctx := &Context{
		Config:            cfg,
		ScratchDir:        scratchDir,
		logfp:             logfp,
		unknownExtensions: cmap.New(),
		unknownFiles:      cmap.New(),
		seenExtOrder:      orderedset.New(),
		seenFileOrder:     orderedset.New(),
	}
	ctx.Files = ctx.findFiles(codebase, inputFiles)
	return ctx
}

func (ctx *Context) findFiles(codebase string, inputFiles []string) []*ScannedFile {
	var renamer *FileRenamer
	if len(ctx.Config.RearrangingConfig) > 0 {
		renamer = NewFileRenamer(ctx.Config.RearrangingConfig)
	}
	var result []*ScannedFile
	for _, full := range inputFiles {
		rel := relativeFilename(codebase, full)
		if ctx.Config.IgnoreFilesRe.MatchString(rel) {
			continue
		}
		outputRel := rel
		if renamer != nil {
			outputRel = renamer.RenameFile(rel)
		}
		result = append(result, NewScannedFile(full, rel, ctx.ScratchDir, outputRel))
	}
	return result
}

func relativeFilename(codebase, full string) string {
	rel := strings.TrimPrefix(full, codebase)
	rel = strings.TrimPrefix(rel, string(filepath.Separator))
	return rel
}

// AddFinding appends finding to the context unless the whitelist
// suppresses it (spec.md §4.2). Safe for concurrent use.
func (ctx *Context) AddFinding(f Finding) {
	if ctx.Config.Whitelist.Allows(f) {
		return
	}
	ctx.mu.Lock()
	ctx.findings = append(ctx.findings, f)
	ctx.mu.Unlock()
}

// Findings returns every recorded finding, in a deterministic order
// (by filename, then filter, then trigger) regardless of whether Scan
// ran sequentially or in parallel (spec.md §5(b)).
func (ctx *Context) Findings() []Finding {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	out := append([]Finding{}, ctx.findings...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Filename != b.Filename {
			return a.Filename < b.Filename
		}
		if a.Filter != b.Filter {
			return a.Filter < b.Filter
		}
		return a.Trigger < b.Trigger
	})
	return out
}

// ShouldScrubFile reports whether f should run through its rule list
// at all: binary files and files matching do_not_scrub_files_re are
// left untouched (but still appear in the output tree, copied
// verbatim — spec.md §8 invariant 2).
func (ctx *Context) ShouldScrubFile(f *ScannedFile) bool {
	if f.IsBinaryFile() {
		return false
	}
	return !ctx.Config.DoNotScrubFilesRe.MatchString(f.RelativeFilename)
}

// rulesForFile resolves the per-file rule list for f, recording an
// unknown-extension or unknown-file note the way spec.md §4.10
// describes.
func (ctx *Context) rulesForFile(f *ScannedFile) []PerFileRule {
	ext := ctx.Config.Extension(f.RelativeFilename)
	if rules, ok := ctx.Config.rulesForExtension(ext); ok {
		return rules
	}
	basename := filepath.Base(f.Filename)
	if !ctx.Config.KnownFilenames[basename] {
		if ext == "" {
			ctx.noteUnknownFile(basename)
		} else {
			ctx.noteUnknownExtension(ext)
		}
	}
	return ctx.Config.defaultRules
}

func (ctx *Context) noteUnknownExtension(ext string) {
	ctx.unknownExtensions.Set(ext, true)
	ctx.seenOrderMu.Lock()
	ctx.seenExtOrder.Add(ext)
	ctx.seenOrderMu.Unlock()
}

// noteUnknownFile records a bare filename that has no extension, isn't
// a dotfile, and isn't in the known-filename allow-list (spec.md §3's
// "unknown files" set, distinct from the unknown-extension set since
// an empty extension string isn't itself informative in the report).
func (ctx *Context) noteUnknownFile(basename string) {
	ctx.unknownFiles.Set(basename, true)
	ctx.seenOrderMu.Lock()
	ctx.seenFileOrder.Add(basename)
	ctx.seenOrderMu.Unlock()
}

// Scan runs the full pipeline: pre-batch rules grouped by extension,
// then per-file rules in file-list order (or concurrently, if
// ctx.Parallel), then post-batch rules (spec.md §2, §4.10, §5).
//
// Binary files and files matched by do_not_scrub_files_re are excluded
// from all three phases up front — matching scrubber.py's
// files_to_scrub = [f for f in self.files if self.ShouldScrubFile(f)],
// computed once and handed to both the batch passes and the main loop
// (scrubber.py:656-662) — so such a file can never be mutated by a
// pre-batch comment scrub or deleted by a post-batch policy; it is
// left strictly untouched for Emit to copy byte-identical (spec.md §8
// invariant 2).
func (ctx *Context) Scan() {
	var toScrub []*ScannedFile
	for _, f := range ctx.Files {
		if ctx.ShouldScrubFile(f) {
			toScrub = append(toScrub, f)
		}
	}

	ctx.runBatch(ctx.Config.extToPreBatch, toScrub)

	interactive := terminal.IsTerminal(int(os.Stdout.Fd()))

	if ctx.Parallel {
		ctx.scanParallel(toScrub)
	} else {
		for _, f := range toScrub {
			ctx.scrubOne(f)
			if interactive && !ctx.Quiet {
				fmt.Fprint(ctx.logfp, ".")
			}
		}
	}
	if interactive && !ctx.Quiet {
		fmt.Fprintln(ctx.logfp)
	}

	ctx.runBatch(ctx.Config.extToPostBatch, toScrub)
}

func (ctx *Context) scrubOne(f *ScannedFile) {
	for _, rule := range ctx.rulesForFile(f) {
		if f.IsDeleted {
			break
		}
		rule.ScrubFile(f, ctx)
	}
}

// scanParallel runs the per-file rule lists concurrently over files,
// which the caller (Scan) has already filtered through ShouldScrubFile.
func (ctx *Context) scanParallel(files []*ScannedFile) {
	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for _, f := range files {
		f := f
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			ctx.scrubOne(f)
		}()
	}
	wg.Wait()
}

func (ctx *Context) runBatch(table map[string][]BatchRule, files []*ScannedFile) {
	byExt := make(map[string][]*ScannedFile)
	for _, f := range files {
		ext := ctx.Config.Extension(f.RelativeFilename)
		byExt[ext] = append(byExt[ext], f)
	}
	for ext, rules := range table {
		group, ok := byExt[ext]
		if !ok {
			continue
		}
		for _, rule := range rules {
			rule.BatchScrubFiles(group, ctx)
		}
	}
}

// ModifiedFiles returns every file Scan marked modified.
func (ctx *Context) ModifiedFiles() []*ScannedFile {
	var out []*ScannedFile
	for _, f := range ctx.Files {
		if f.IsModified {
			out = append(out, f)
		}
	}
	return out
}

// UnknownExtensions returns the set of extensions the dispatcher had
// no table entry for, in first-seen order.
func (ctx *Context) UnknownExtensions() []string {
	ctx.seenOrderMu.Lock()
	defer ctx.seenOrderMu.Unlock()
	var out []string
	it := ctx.seenExtOrder.Values()
	for _, v := range it {
		out = append(out, v.(string))
	}
	return out
}

// UnknownFiles returns the set of extensionless, not-known-by-name
// bare filenames the dispatcher fell back to default rules for, in
// first-seen order.
func (ctx *Context) UnknownFiles() []string {
	ctx.seenOrderMu.Lock()
	defer ctx.seenOrderMu.Unlock()
	var out []string
	it := ctx.seenFileOrder.Values()
	for _, v := range it {
		out = append(out, v.(string))
	}
	return out
}

// Status returns a process exit code suitable for the CLI: 1 if any
// finding was recorded, 0 otherwise (spec.md §6, §7).
func (ctx *Context) Status() int {
	if len(ctx.Findings()) > 0 {
		return 1
	}
	return 0
}
