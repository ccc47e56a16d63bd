// Copyright by Eric S. Raymond
// SPDX-License-Identifier: BSD-2-Clause

package scrub

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// neverMatches matches no realistic input; used as the default for the
// two "do nothing unless configured" regexes, mirroring the source's
// use of the regex '$a' (an unmatchable pattern in its own dialect)
// for the same purpose.
var neverMatches = regexp.MustCompile("\x00never-matches\x00")

// PackageRename is one {internal_package, public_package} entry.
type PackageRename struct {
	Internal string
	Public   string
}

// DirectoryRename is one {internal_directory, public_directory} entry.
type DirectoryRename struct {
	Internal string
	Public   string
}

// ModuleRename is one {internal_module, public_module, as_name} entry.
type ModuleRename struct {
	Internal string
	Public   string
	AsName   string
}

// ConfigOptions is the fully decoded, type-checked form of the JSON
// configuration schema in spec.md §6. It is the input to NewConfig;
// LoadConfigJSON produces it from raw JSON bytes.
type ConfigOptions struct {
	IgnoreFilesRe          string
	DoNotScrubFilesRe      string
	ExtensionMap           [][2]string
	SensitiveWords         []string
	SensitiveRes           []string
	SensitiveStringFile    string
	Whitelist              []WhitelistEntry
	ScrubSensitiveComments *bool
	ScrubNonDocComments    bool
	ScrubAllComments       bool
	ScrubProtoComments     bool
	ScrubAuthors           *bool
	ScrubUnknownUsers      bool
	ScrubJavaTestsize      bool
	MaximumBlankLines      int
	EmptyJavaFileAction    string
	RearrangingConfig      map[string]string
	StringReplacements     []StringReplacement
	RegexReplacements      []RawRegexReplacement
	UsernamesToScrub       []string
	UsernamesToPublish     []string
	UsernamesFile          string
	CIncludesConfigFile    string
	JavaRenames            []PackageRename
	JsDirectoryRename      *DirectoryRename
	JsDirectoryRenames     []DirectoryRename
	PythonModuleRenames    []ModuleRename
	PythonModuleRemoves    []string
	PythonShebangReplace   string
	ScrubGwtInherits       []string
}

// RawRegexReplacement is a regex replacement as decoded from JSON,
// before the pattern has been compiled.
type RawRegexReplacement struct {
	Original    string
	Replacement string
}

// sensitiveStringFileSchema is the shape of the file pointed to by
// sensitive_string_file (spec.md §6, and original_source/ feature #1
// in SPEC_FULL.md).
type sensitiveStringFileSchema struct {
	SensitiveWords []string `json:"sensitive_words"`
	SensitiveRes   []string `json:"sensitive_res"`
}

type jsonWhitelistEntry struct {
	Filter   string `json:"filter"`
	Trigger  string `json:"trigger"`
	Filename string `json:"filename"`
}

type jsonPackageRename struct {
	InternalPackage string `json:"internal_package"`
	PublicPackage   string `json:"public_package"`
}

type jsonDirectoryRename struct {
	InternalDirectory string `json:"internal_directory"`
	PublicDirectory   string `json:"public_directory"`
}

type jsonModuleRename struct {
	InternalModule string `json:"internal_module"`
	PublicModule   string `json:"public_module"`
	AsName         string `json:"as_name"`
}

type jsonModuleRemove struct {
	ImportModule string `json:"import_module"`
}

type jsonStringReplacement struct {
	Original    string `json:"original"`
	Replacement string `json:"replacement"`
}

type jsonConfig struct {
	IgnoreFilesRe              string                  `json:"ignore_files_re"`
	DoNotScrubFilesRe          string                  `json:"do_not_scrub_files_re"`
	ExtensionMap               [][2]string             `json:"extension_map"`
	SensitiveWords             []string                `json:"sensitive_words"`
	SensitiveRes               []string                `json:"sensitive_res"`
	SensitiveStringFile        string                  `json:"sensitive_string_file"`
	Whitelist                  []jsonWhitelistEntry    `json:"whitelist"`
	ScrubSensitiveComments     *bool                   `json:"scrub_sensitive_comments"`
	ScrubNonDocumentationComm  bool                    `json:"scrub_non_documentation_comments"`
	ScrubAllComments           bool                    `json:"scrub_all_comments"`
	ScrubProtoComments         bool                    `json:"scrub_proto_comments"`
	ScrubAuthors               *bool                   `json:"scrub_authors"`
	ScrubUnknownUsers          bool                    `json:"scrub_unknown_users"`
	ScrubJavaTestsizeAnnots    bool                    `json:"scrub_java_testsize_annotations"`
	MaximumBlankLines          int                     `json:"maximum_blank_lines"`
	EmptyJavaFileAction        string                  `json:"empty_java_file_action"`
	RearrangingConfig          map[string]string       `json:"rearranging_config"`
	StringReplacements         []jsonStringReplacement `json:"string_replacements"`
	RegexReplacements          []jsonStringReplacement `json:"regex_replacements"`
	UsernamesToScrub           []string                `json:"usernames_to_scrub"`
	UsernamesToPublish         []string                `json:"usernames_to_publish"`
	UsernamesFile              string                  `json:"usernames_file"`
	CIncludesConfigFile        string                  `json:"c_includes_config_file"`
	JavaRenames                []jsonPackageRename     `json:"java_renames"`
	JsDirectoryRename          *jsonDirectoryRename    `json:"js_directory_rename"`
	JsDirectoryRenames         []jsonDirectoryRename   `json:"js_directory_renames"`
	PythonModuleRenames        []jsonModuleRename      `json:"python_module_renames"`
	PythonModuleRemoves        []jsonModuleRemove      `json:"python_module_removes"`
	PythonShebangReplace       *struct {
		ShebangLine string `json:"shebang_line"`
	} `json:"python_shebang_replace"`
	ScrubGwtInherits []string `json:"scrub_gwt_inherits"`
}

// scrubberConfigKeys is the allow-list of top-level JSON keys; any
// other key is a config-class fatal error (spec.md §6, §7).
var scrubberConfigKeys = map[string]bool{
	"ignore_files_re": true, "do_not_scrub_files_re": true, "extension_map": true,
	"sensitive_string_file": true, "sensitive_words": true, "sensitive_res": true,
	"whitelist": true, "scrub_sensitive_comments": true, "rearranging_config": true,
	"string_replacements": true, "regex_replacements": true,
	"scrub_non_documentation_comments": true, "scrub_all_comments": true,
	"usernames_to_scrub": true, "usernames_to_publish": true, "usernames_file": true,
	"scrub_unknown_users": true, "scrub_authors": true,
	"c_includes_config_file": true,
	"empty_java_file_action": true, "maximum_blank_lines": true,
	"scrub_java_testsize_annotations": true, "java_renames": true,
	"js_directory_rename": true, "js_directory_renames": true,
	"python_module_renames": true, "python_module_removes": true,
	"python_shebang_replace": true,
	"scrub_gwt_inherits":     true,
	"scrub_proto_comments":   true,
}

// LoadConfigJSON decodes and validates raw JSON config bytes into
// ConfigOptions. Malformed JSON or an unknown top-level key is an
// error here; regexes and empty_java_file_action are not checked until
// NewConfig builds a Config from the result.
func LoadConfigJSON(data []byte) (ConfigOptions, error) {
	var raw map[string]json.RawMessage
	if len(data) > 0 {
		if err := json.Unmarshal(data, &raw); err != nil {
			return ConfigOptions{}, fmt.Errorf("scrubber config: %w", err)
		}
	}
	for key := range raw {
		if !scrubberConfigKeys[key] {
			return ConfigOptions{}, fmt.Errorf("scrubber config: unknown key %q", key)
		}
	}

	var jc jsonConfig
	if len(data) > 0 {
		if err := json.Unmarshal(data, &jc); err != nil {
			return ConfigOptions{}, fmt.Errorf("scrubber config: %w", err)
		}
	}

	opts := ConfigOptions{
		IgnoreFilesRe:        jc.IgnoreFilesRe,
		DoNotScrubFilesRe:    jc.DoNotScrubFilesRe,
		ExtensionMap:         jc.ExtensionMap,
		SensitiveWords:       append([]string{}, jc.SensitiveWords...),
		SensitiveRes:         append([]string{}, jc.SensitiveRes...),
		SensitiveStringFile:  jc.SensitiveStringFile,
		ScrubSensitiveComments: jc.ScrubSensitiveComments,
		ScrubNonDocComments:  jc.ScrubNonDocumentationComm,
		ScrubAllComments:     jc.ScrubAllComments,
		ScrubProtoComments:   jc.ScrubProtoComments,
		ScrubAuthors:         jc.ScrubAuthors,
		ScrubUnknownUsers:    jc.ScrubUnknownUsers,
		ScrubJavaTestsize:    jc.ScrubJavaTestsizeAnnots,
		MaximumBlankLines:    jc.MaximumBlankLines,
		EmptyJavaFileAction:  jc.EmptyJavaFileAction,
		RearrangingConfig:    jc.RearrangingConfig,
		UsernamesToScrub:     jc.UsernamesToScrub,
		UsernamesToPublish:   jc.UsernamesToPublish,
		UsernamesFile:        jc.UsernamesFile,
		CIncludesConfigFile:  jc.CIncludesConfigFile,
		PythonModuleRemoves:  make([]string, 0, len(jc.PythonModuleRemoves)),
		ScrubGwtInherits:     jc.ScrubGwtInherits,
	}

	for _, w := range jc.Whitelist {
		opts.Whitelist = append(opts.Whitelist, WhitelistEntry{Filter: w.Filter, Trigger: w.Trigger, Filename: w.Filename})
	}
	for _, r := range jc.StringReplacements {
		opts.StringReplacements = append(opts.StringReplacements, StringReplacement{Original: r.Original, Replacement: r.Replacement})
	}
	for _, r := range jc.RegexReplacements {
		opts.RegexReplacements = append(opts.RegexReplacements, RawRegexReplacement{Original: r.Original, Replacement: r.Replacement})
	}
	for _, r := range jc.JavaRenames {
		opts.JavaRenames = append(opts.JavaRenames, PackageRename{Internal: r.InternalPackage, Public: r.PublicPackage})
	}
	if jc.JsDirectoryRename != nil {
		opts.JsDirectoryRename = &DirectoryRename{Internal: jc.JsDirectoryRename.InternalDirectory, Public: jc.JsDirectoryRename.PublicDirectory}
	}
	for _, r := range jc.JsDirectoryRenames {
		opts.JsDirectoryRenames = append(opts.JsDirectoryRenames, DirectoryRename{Internal: r.InternalDirectory, Public: r.PublicDirectory})
	}
	for _, r := range jc.PythonModuleRenames {
		opts.PythonModuleRenames = append(opts.PythonModuleRenames, ModuleRename{Internal: r.InternalModule, Public: r.PublicModule, AsName: r.AsName})
	}
	for _, r := range jc.PythonModuleRemoves {
		opts.PythonModuleRemoves = append(opts.PythonModuleRemoves, r.ImportModule)
	}
	if jc.PythonShebangReplace != nil {
		opts.PythonShebangReplace = jc.PythonShebangReplace.ShebangLine
	}

	if jc.SensitiveStringFile != "" {
		raw, err := readSensitiveStringFile(jc.SensitiveStringFile)
		if err != nil {
			return ConfigOptions{}, err
		}
		opts.SensitiveWords = append(opts.SensitiveWords, raw.SensitiveWords...)
		opts.SensitiveRes = append(opts.SensitiveRes, raw.SensitiveRes...)
	}

	return opts, nil
}

func readSensitiveStringFile(path string) (sensitiveStringFileSchema, error) {
	data, err := readFile(path)
	if err != nil {
		return sensitiveStringFileSchema{}, err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return sensitiveStringFileSchema{}, fmt.Errorf("sensitive string config %s: %w", path, err)
	}
	for key := range raw {
		if key != "sensitive_words" && key != "sensitive_res" {
			return sensitiveStringFileSchema{}, fmt.Errorf("sensitive string config %s: unknown key %q", path, key)
		}
	}
	var schema sensitiveStringFileSchema
	if err := json.Unmarshal(data, &schema); err != nil {
		return sensitiveStringFileSchema{}, fmt.Errorf("sensitive string config %s: %w", path, err)
	}
	return schema, nil
}
