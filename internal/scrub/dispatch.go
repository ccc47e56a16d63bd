// Copyright by Eric S. Raymond
// SPDX-License-Identifier: BSD-2-Clause

package scrub

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// extensionMapEntry is a compiled (regex → extension) override.
type extensionMapEntry struct {
	re  *regexp.Regexp
	ext string
}

// Config is the immutable configuration for a scrubbing run: the
// per-extension rule tables, the default rule list, the whitelist, the
// username filter, and the policy knobs of spec.md §6. It is built
// once by NewConfig and handed to Context by reference (spec.md §9
// design note: "avoid hidden mutable singletons").
type Config struct {
	IgnoreFilesRe     *regexp.Regexp
	DoNotScrubFilesRe *regexp.Regexp
	ExtensionMap      []extensionMapEntry
	Whitelist         *Whitelist
	Usernames         *UsernameFilter
	KnownFilenames    map[string]bool
	RearrangingConfig map[string]string

	Modify    bool
	OutputTar string

	extToRules     map[string][]PerFileRule
	extToPreBatch  map[string][]BatchRule
	extToPostBatch map[string][]BatchRule
	defaultRules   []PerFileRule
}

// defaultKnownFilenames is the bare-name allow-list consulted on an
// extension-table miss (spec.md §3, original_source/ feature #2).
var defaultKnownFilenames = map[string]bool{
	".gitignore":   true,
	"AUTHORS":      true,
	"CONTRIBUTORS": true,
	"COPYING":      true,
	"LICENSE":      true,
	"Makefile":     true,
	"README":       true,
}

// NewConfig builds a Config from ConfigOptions, compiling every regex
// and constructing the per-extension rule tables the way
// ScrubberConfig.ResetScrubbers / _Make*Scrubbers do in the source.
func NewConfig(opts ConfigOptions) (*Config, error) {
	cfg := &Config{
		IgnoreFilesRe:     neverMatches,
		DoNotScrubFilesRe: neverMatches,
		KnownFilenames:    defaultKnownFilenames,
		RearrangingConfig: opts.RearrangingConfig,
	}

	if opts.IgnoreFilesRe != "" {
		re, err := regexp.Compile(opts.IgnoreFilesRe)
		if err != nil {
			return nil, throw("config", "bad ignore_files_re: %v", err)
		}
		cfg.IgnoreFilesRe = re
	}
	if opts.DoNotScrubFilesRe != "" {
		re, err := regexp.Compile(opts.DoNotScrubFilesRe)
		if err != nil {
			return nil, throw("config", "bad do_not_scrub_files_re: %v", err)
		}
		cfg.DoNotScrubFilesRe = re
	}
	for _, pair := range opts.ExtensionMap {
		re, err := regexp.Compile(pair[0])
		if err != nil {
			return nil, throw("config", "bad extension_map entry %q: %v", pair[0], err)
		}
		cfg.ExtensionMap = append(cfg.ExtensionMap, extensionMapEntry{re: re, ext: pair[1]})
	}

	cfg.Whitelist = NewWhitelist(opts.Whitelist)

	usernames, err := NewUsernameFilter(opts.UsernamesFile, opts.UsernamesToPublish, opts.UsernamesToScrub, opts.ScrubUnknownUsers)
	if err != nil {
		return nil, throw("config", "can't load usernames_file: %v", err)
	}
	cfg.Usernames = usernames

	scrubAuthors := true
	if opts.ScrubAuthors != nil {
		scrubAuthors = *opts.ScrubAuthors
	}
	scrubSensitiveComments := true
	if opts.ScrubSensitiveComments != nil {
		scrubSensitiveComments = *opts.ScrubSensitiveComments
	}

	emptyJavaAction := ActionIgnore
	switch opts.EmptyJavaFileAction {
	case "", "IGNORE":
		emptyJavaAction = ActionIgnore
	case "DELETE":
		emptyJavaAction = ActionDelete
	case "ERROR":
		emptyJavaAction = ActionError
	default:
		return nil, throw("config", "unknown empty_java_file_action %q", opts.EmptyJavaFileAction)
	}

	sensitiveMatchers, err := buildSensitiveMatchers(opts)
	if err != nil {
		return nil, err
	}

	var includeRules []IncludeRule
	if opts.CIncludesConfigFile != "" {
		includeRules, err = loadIncludeRules(opts.CIncludesConfigFile)
		if err != nil {
			return nil, throw("config", "can't load c_includes_config_file: %v", err)
		}
	}

	var regexReplacements []RegexReplacement
	for _, r := range opts.RegexReplacements {
		re, err := regexp.Compile(r.Original)
		if err != nil {
			return nil, throw("config", "bad regex_replacement %q: %v", r.Original, err)
		}
		regexReplacements = append(regexReplacements, RegexReplacement{Original: re, Replacement: r.Replacement})
	}

	polyglot := func() []PerFileRule {
		var rules []PerFileRule
		if len(opts.StringReplacements) > 0 {
			rules = append(rules, &Replacer{Replacements: opts.StringReplacements})
		}
		if len(regexReplacements) > 0 {
			rules = append(rules, &RegexReplacer{Replacements: regexReplacements})
		}
		for _, m := range sensitiveMatchers {
			rules = append(rules, &SensitiveStringScrubber{Matcher: m, Whitelist: cfg.Whitelist})
		}
		return rules
	}

	commentRules := func() []CommentSpanRule {
		var rules []CommentSpanRule
		switch {
		case opts.ScrubAllComments:
			rules = append(rules, AllCommentsRule{})
		case opts.ScrubNonDocComments:
			rules = append(rules, NonDocumentationCommentsRule{})
		}
		rules = append(rules, TodoRule{Usernames: usernames})
		if scrubAuthors {
			rules = append(rules, AuthorDeclarationRule{Usernames: usernames})
		}
		if scrubSensitiveComments {
			for _, m := range sensitiveMatchers {
				rules = append(rules, SensitiveInCommentRule{Matcher: m, Whitelist: cfg.Whitelist})
			}
		}
		return rules
	}

	commentStack := func(extractor Extractor) PerFileRule {
		return &CommentScrubber{Extractor: extractor, Rules: commentRules()}
	}

	var jsDirectoryRenames []DirectoryRename
	if opts.JsDirectoryRename != nil {
		jsDirectoryRenames = append(jsDirectoryRenames, *opts.JsDirectoryRename)
	}
	jsDirectoryRenames = append(jsDirectoryRenames, opts.JsDirectoryRenames...)

	var javaRenameRules []PerFileRule
	for _, r := range opts.JavaRenames {
		javaRenameRules = append(javaRenameRules, NewJavaRenameScrubber(r.Internal, r.Public))
	}

	var gwtNames map[string]bool
	if len(opts.ScrubGwtInherits) > 0 {
		gwtNames = toSet(opts.ScrubGwtInherits)
	}

	goAndC := polyglot()
	if len(includeRules) > 0 {
		goAndC = append(append([]PerFileRule{}, goAndC...), &IncludeScrubber{Rules: includeRules})
	}

	var jsLineRules []LineRule
	for _, r := range jsDirectoryRenames {
		jsLineRules = append(jsLineRules, JsDirectoryRename{Internal: r.Internal, Public: r.Public})
	}
	jsRules := append([]PerFileRule{&LineScrubber{Rules: jsLineRules}}, polyglot()...)

	var htmlLineRules []LineRule
	for _, r := range jsDirectoryRenames {
		htmlLineRules = append(htmlLineRules, JsDirectoryRename{Internal: r.Internal, Public: r.Public})
	}
	htmlRules := append([]PerFileRule{&LineScrubber{Rules: htmlLineRules}}, polyglot()...)

	javaRules := append([]PerFileRule{}, javaRenameRules...)
	if opts.ScrubJavaTestsize {
		javaRules = append(javaRules, TestSizeAnnotationScrubber{})
	}
	javaRules = append(javaRules, UnusedImportStrippingScrubber{})
	if opts.MaximumBlankLines > 0 {
		javaRules = append(javaRules, &CoalesceBlankLinesScrubber{Maximum: opts.MaximumBlankLines})
	}
	javaRules = append(javaRules, polyglot()...)

	phpRules := polyglot()

	protoRules := polyglot()

	var pyLineRules []LineRule
	for _, r := range opts.PythonModuleRenames {
		pyLineRules = append(pyLineRules, NewPythonModuleRename(r.Internal, r.Public, r.AsName))
	}
	for _, m := range opts.PythonModuleRemoves {
		pyLineRules = append(pyLineRules, NewPythonModuleRemove(m))
	}
	if scrubAuthors {
		pyLineRules = append(pyLineRules, PythonAuthorDeclarationScrubber{Usernames: usernames})
	}
	pyRules := []PerFileRule{&LineScrubber{Rules: pyLineRules}}
	if opts.PythonShebangReplace != "" {
		pyRules = append(pyRules, &ShebangReplace{ShebangLine: opts.PythonShebangReplace})
	}
	pyRules = append(pyRules, polyglot()...)

	shellRules := polyglot()

	var xmlRules []PerFileRule
	if gwtNames != nil {
		xmlRules = append(xmlRules, &GwtXmlScrubber{Names: gwtNames})
	}

	cfg.extToRules = map[string][]PerFileRule{
		".go":         goAndC,
		".h":          goAndC,
		".c":          goAndC,
		".cc":         goAndC,
		".l":          goAndC,
		".swig":       goAndC,
		".hgignore":   shellRules,
		".gitignore":  shellRules,
		".html":       htmlRules,
		".java":       javaRules,
		".jj":         javaRules,
		".js":         jsRules,
		".jslib":      jsRules,
		".php":        phpRules,
		".php4":       phpRules,
		".php5":       phpRules,
		".proto":      protoRules,
		".protodevel": protoRules,
		".py":         pyRules,
		".css":        polyglot(),
		".yaml":       shellRules,
		".sh":         shellRules,
		".json":       polyglot(),
		".jar":        nil,
		".gif":        nil,
		".png":        nil,
		".jpg":        nil,
		".xml":        xmlRules,
	}

	cLikeExtractor := CLikeCommentExtractor{}
	cLikePreBatch := []BatchRule{AsBatchRule(commentStack(cLikeExtractor))}

	cfg.extToPreBatch = map[string][]BatchRule{
		".c":          cLikePreBatch,
		".cc":         cLikePreBatch,
		".go":         cLikePreBatch,
		".h":          cLikePreBatch,
		".l":          cLikePreBatch,
		".swig":       cLikePreBatch,
		".java":       cLikePreBatch,
		".jj":         cLikePreBatch,
		".js":         cLikePreBatch,
		".jslib":      cLikePreBatch,
		".php":        cLikePreBatch,
		".php4":       cLikePreBatch,
		".php5":       cLikePreBatch,
		".html":       []BatchRule{AsBatchRule(commentStack(HTMLCommentExtractor{}))},
		".py":         []BatchRule{AsBatchRule(commentStack(PythonCommentExtractor{}))},
		".hgignore":   []BatchRule{AsBatchRule(commentStack(ShellLikeCommentExtractor{}))},
		".gitignore":  []BatchRule{AsBatchRule(commentStack(ShellLikeCommentExtractor{}))},
		".yaml":       []BatchRule{AsBatchRule(commentStack(ShellLikeCommentExtractor{}))},
		".sh":         []BatchRule{AsBatchRule(commentStack(ShellLikeCommentExtractor{}))},
	}
	if opts.ScrubProtoComments {
		cfg.extToPreBatch[".proto"] = cLikePreBatch
		cfg.extToPreBatch[".protodevel"] = cLikePreBatch
	}

	var javaPostBatch []BatchRule
	if emptyJavaAction != ActionIgnore {
		javaPostBatch = []BatchRule{&EmptyJavaFileScrubber{Action: emptyJavaAction}}
	}
	cfg.extToPostBatch = map[string][]BatchRule{
		".java": javaPostBatch,
		".jj":   javaPostBatch,
	}

	cfg.defaultRules = polyglot()

	return cfg, nil
}

func buildSensitiveMatchers(opts ConfigOptions) ([]Matcher, error) {
	var matchers []Matcher
	if len(opts.SensitiveWords) > 0 {
		matchers = append(matchers, NewWordMatcher("sensitive_word", opts.SensitiveWords))
	}
	if len(opts.SensitiveRes) > 0 {
		m, err := NewRegexMatcher("sensitive_re", opts.SensitiveRes)
		if err != nil {
			return nil, throw("config", "bad sensitive_res entry: %v", err)
		}
		matchers = append(matchers, m)
	}
	return matchers, nil
}

type cIncludeConfigSchema struct {
	Rules []struct {
		Pattern string `json:"pattern"`
		Action  string `json:"action"`
		NewPath string `json:"new_path"`
	} `json:"rules"`
}

func loadIncludeRules(path string) ([]IncludeRule, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	var schema cIncludeConfigSchema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, err
	}
	var rules []IncludeRule
	for _, r := range schema.Rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("c_includes_config_file: bad pattern %q: %w", r.Pattern, err)
		}
		var action IncludeAction
		switch r.Action {
		case "drop":
			action = IncludeDrop
		case "keep":
			action = IncludeKeep
		case "rename":
			action = IncludeRename
		default:
			return nil, fmt.Errorf("c_includes_config_file: unknown action %q", r.Action)
		}
		rules = append(rules, IncludeRule{Pattern: re, Action: action, NewPath: r.NewPath})
	}
	return rules, nil
}

// Extension resolves the scrubber extension for a codebase-relative
// filename, in the order spec.md §4.10 specifies: (1) the first
// matching extension_map override, (2) the real file extension, (3)
// the whole basename if it's a dotfile with no extension, (4) empty
// string.
func (c *Config) Extension(relativeFilename string) string {
	for _, entry := range c.ExtensionMap {
		if entry.re.MatchString(relativeFilename) {
			return entry.ext
		}
	}
	basename := filepath.Base(relativeFilename)
	ext := filepath.Ext(basename)
	if ext == "" && strings.HasPrefix(basename, ".") {
		return basename
	}
	return ext
}

// rulesForExtension returns the per-file rule list for ext, reporting
// whether the extension was found in the table.
func (c *Config) rulesForExtension(ext string) ([]PerFileRule, bool) {
	rules, ok := c.extToRules[ext]
	return rules, ok
}
