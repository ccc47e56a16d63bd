// Copyright by Eric S. Raymond
// SPDX-License-Identifier: BSD-2-Clause

package scrub

import "testing"

func TestLoadConfigJSONEmptyInput(t *testing.T) {
	opts, err := LoadConfigJSON(nil)
	if err != nil {
		t.Fatal(err)
	}
	assertIntEqual(t, len(opts.SensitiveWords), 0)
}

func TestLoadConfigJSONUnknownKeyIsFatal(t *testing.T) {
	_, err := LoadConfigJSON([]byte(`{"not_a_real_key": true}`))
	if err == nil {
		t.Fatal("expected an error for an unknown top-level key")
	}
}

func TestLoadConfigJSONDecodesKnownFields(t *testing.T) {
	data := []byte(`{
		"sensitive_words": ["secretproject"],
		"scrub_unknown_users": true,
		"empty_java_file_action": "DELETE",
		"java_renames": [{"internal_package": "com.internal", "public_package": "com.public"}]
	}`)
	opts, err := LoadConfigJSON(data)
	if err != nil {
		t.Fatal(err)
	}
	assertEqual(t, opts.SensitiveWords[0], "secretproject")
	assertTrue(t, opts.ScrubUnknownUsers)
	assertEqual(t, opts.EmptyJavaFileAction, "DELETE")
	assertIntEqual(t, len(opts.JavaRenames), 1)
	assertEqual(t, opts.JavaRenames[0].Internal, "com.internal")
}

func TestLoadConfigJSONMergesBothJsDirectoryRenameKeys(t *testing.T) {
	data := []byte(`{
		"js_directory_rename": {"internal_directory": "a", "public_directory": "b"},
		"js_directory_renames": [{"internal_directory": "c", "public_directory": "d"}]
	}`)
	opts, err := LoadConfigJSON(data)
	if err != nil {
		t.Fatal(err)
	}
	if opts.JsDirectoryRename == nil || opts.JsDirectoryRename.Internal != "a" {
		t.Errorf("expected singular js_directory_rename to decode, got %+v", opts.JsDirectoryRename)
	}
	assertIntEqual(t, len(opts.JsDirectoryRenames), 1)
}

func TestLoadConfigJSONMalformedJSON(t *testing.T) {
	_, err := LoadConfigJSON([]byte(`{not json`))
	if err == nil {
		t.Fatal("expected a decode error")
	}
}
