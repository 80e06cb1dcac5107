// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/taxassist-tui/internal/model"
)

var exportTime = time.Date(2025, time.April, 1, 12, 30, 0, 0, time.UTC)

func testTranscript(t *testing.T) Transcript {
	t.Helper()
	conv := model.NewConversation()
	conv.Add(model.NewUserMessage("Is <script> a deduction?"))
	ai := model.NewAIMessage()
	conv.Add(ai)
	if err := ai.AppendFragment("No. See **Pub 535**.\n\n```\nif a < b {}\n```"); err != nil {
		t.Fatal(err)
	}
	refs := []model.Reference{
		{Title: "IRS Pub 535", URI: "https://www.irs.gov/pub535"},
		{Title: "", URI: "https://dropped.example"},
	}
	if err := ai.Close(refs); err != nil {
		t.Fatal(err)
	}
	// An open turn is never exported.
	conv.Add(model.NewAIMessage())

	return FromConversation(conv, "Tax Research", "gemini-2.5-flash")
}

func testOptions() *Options {
	opts := DefaultOptions()
	opts.Now = func() time.Time { return exportTime }
	return opts
}

func TestFromConversation_SkipsOpenTurns(t *testing.T) {
	tr := testTranscript(t)
	if len(tr.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(tr.Messages))
	}
	if tr.Title != "Is <script> a deduction?" {
		t.Errorf("title = %q", tr.Title)
	}
}

func TestHTMLExporter(t *testing.T) {
	out, err := NewHTMLExporter(testOptions()).Export(testTranscript(t))
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	page := string(out)

	for _, want := range []string{
		"<title>Is &lt;script&gt; a deduction?</title>",
		"<p>Is &lt;script&gt; a deduction?</p>",
		"<strong>Pub 535</strong>",
		"<pre><code>if a &lt; b {}</code></pre>",
		`<a href="https://www.irs.gov/pub535"`,
		"<strong>Model:</strong> gemini-2.5-flash",
		"April 1, 2025",
		`class="dark-theme"`,
	} {
		if !strings.Contains(page, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
	if strings.Contains(page, "<script> a deduction") {
		t.Error("user text was not escaped")
	}
	if strings.Contains(page, "dropped.example") {
		t.Error("invalid reference was exported")
	}
}

func TestHTMLExporter_LightThemeNoMetadata(t *testing.T) {
	opts := testOptions()
	opts.Theme = "light"
	opts.IncludeMetadata = false
	out, err := NewHTMLExporter(opts).Export(testTranscript(t))
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !strings.Contains(string(out), `<body class="light-theme">`) {
		t.Error("light theme not applied")
	}
	if strings.Contains(string(out), `<header class="header">`) {
		t.Error("metadata header should be omitted")
	}
}

func TestMarkdownExporter(t *testing.T) {
	opts := testOptions()
	opts.IncludeTimestamps = false
	out, err := NewMarkdownExporter(opts).Export(testTranscript(t))
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	md := string(out)
	for _, want := range []string{
		"title: \"Is <script> a deduction?\"\n",
		"section: Tax Research\n",
		"### You\n\nIs <script> a deduction?",
		"### Assistant\n\nNo. See **Pub 535**.",
		"1. [IRS Pub 535](https://www.irs.gov/pub535)",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("Markdown missing %q", want)
		}
	}
}

func TestJSONExporter(t *testing.T) {
	out, err := NewJSONExporter(nil).Export(testTranscript(t))
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	var decoded Transcript
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(decoded.Messages) != 2 || decoded.Messages[1].Sender != model.SenderAI {
		t.Errorf("unexpected messages %+v", decoded.Messages)
	}
	if len(decoded.Messages[1].References) != 2 {
		t.Errorf("JSON keeps all references, got %d", len(decoded.Messages[1].References))
	}
}

func TestExport_EmptyTranscript(t *testing.T) {
	empty := FromConversation(model.NewConversation(), "", "")
	for _, f := range Formats() {
		exp, err := New(f, nil)
		if err != nil {
			t.Fatalf("New(%s): %v", f, err)
		}
		if _, err := exp.Export(empty); !errors.Is(err, ErrEmptyTranscript) {
			t.Errorf("%s: err = %v, want ErrEmptyTranscript", f, err)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"md":       FormatMarkdown,
		"Markdown": FormatMarkdown,
		".html":    FormatHTML,
		"htm":      FormatHTML,
		" JSON ":   FormatJSON,
	}
	for in, want := range tests {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("pdf"); err == nil {
		t.Error("ParseFormat(pdf) should fail")
	}
}

func TestToFile(t *testing.T) {
	dir := t.TempDir()
	opts := testOptions()
	opts.OutputDir = dir

	path, err := ToFile(testTranscript(t), FormatMarkdown, opts)
	if err != nil {
		t.Fatalf("ToFile: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("path %q not in %q", path, dir)
	}
	base := filepath.Base(path)
	if !strings.HasPrefix(base, "taxassist_Is_-script-_a_deduction-_20250401_123000") || !strings.HasSuffix(base, ".md") {
		t.Errorf("unexpected file name %q", base)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("file not written: %v", err)
	}

	opts.Path = filepath.Join(dir, "nested", "out.json")
	path, err = ToFile(testTranscript(t), FormatJSON, opts)
	if err != nil || path != opts.Path {
		t.Fatalf("ToFile with path = %q, %v", path, err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", "conversation"},
		{"a/b\\c:d", "a-b-c-d"},
		{"tab\there", "tab_here"},
		{"bell\x07", "bell-"},
		{strings.Repeat("x", 80), strings.Repeat("x", 50)},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEscapeYAML(t *testing.T) {
	if got := escapeYAML("plain"); got != "plain" {
		t.Errorf("plain = %q", got)
	}
	if got := escapeYAML("a: b\nc\\"); got != `"a: b\nc\\"` {
		t.Errorf("quoted = %q", got)
	}
}
