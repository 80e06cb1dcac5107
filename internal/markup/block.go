// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markup

import (
	"strings"
	"unicode"
)

// =============================================================================
// BLOCK TREE
// =============================================================================

// BlockKind identifies the kind of a top-level block.
type BlockKind int

const (
	BlockParagraph BlockKind = iota
	BlockUnorderedList
	BlockOrderedList
	BlockCode
)

// String returns the name of the block kind.
func (k BlockKind) String() string {
	switch k {
	case BlockParagraph:
		return "paragraph"
	case BlockUnorderedList:
		return "unordered-list"
	case BlockOrderedList:
		return "ordered-list"
	case BlockCode:
		return "code"
	}
	return "unknown"
}

// IsList reports whether the kind is one of the list containers.
func (k BlockKind) IsList() bool {
	return k == BlockUnorderedList || k == BlockOrderedList
}

// Block is one node of the document.
type Block struct {
	Kind BlockKind

	// Text holds the paragraph text (lines joined with "\n") or the code
	// block content. Unused for lists.
	Text string

	// Items holds list item texts in input order.
	Items []string

	// Language is the tag that followed the opening fence, if any.
	Language string

	// Unterminated is set on a code block whose closing fence never arrived.
	Unterminated bool
}

// Document is the parsed block tree.
type Document struct {
	Blocks []Block
}

// Empty reports whether the document has no blocks.
func (d Document) Empty() bool {
	return len(d.Blocks) == 0
}

// =============================================================================
// LINE STATE MACHINE
// =============================================================================

type lineState int

const (
	stateNormal lineState = iota
	stateUnorderedList
	stateOrderedList
	stateCodeFence
)

const fence = "```"

// parser carries the state of a single Parse call.
type parser struct {
	state lineState
	doc   Document

	para  []string // pending paragraph lines
	items []string // pending list items
	code  []string // pending fence lines
	lang  string
}

// Parse builds the block tree for text.
func Parse(text string) Document {
	p := &parser{}
	text = strings.ReplaceAll(text, "\r\n", "\n")

	for _, line := range strings.Split(text, "\n") {
		p.feed(line)
	}
	p.finish()
	return p.doc
}

func (p *parser) feed(line string) {
	trimmed := strings.TrimSpace(line)

	if p.state == stateCodeFence {
		if trimmed == fence {
			p.closeFence(false)
			return
		}
		p.code = append(p.code, line)
		return
	}

	if strings.HasPrefix(trimmed, fence) {
		p.flushParagraph()
		p.closeList()
		rest := trimmed[len(fence):]
		if end := strings.Index(rest, fence); end >= 0 {
			// Opened and closed on one line. Text after the closer stays
			// ordinary text.
			p.emit(Block{Kind: BlockCode, Text: strings.TrimSpace(rest[:end])})
			if after := strings.TrimSpace(rest[end+len(fence):]); after != "" {
				p.para = append(p.para, after)
			}
			return
		}
		lang, content := fenceOpener(rest)
		p.lang = lang
		if content != "" {
			p.code = append(p.code, content)
		}
		p.state = stateCodeFence
		return
	}

	if trimmed == "" {
		// Blank lines end paragraphs and list groups.
		p.flushParagraph()
		p.closeList()
		return
	}

	if item, ok := unorderedItem(line); ok {
		p.flushParagraph()
		p.listItem(stateUnorderedList, item)
		return
	}
	if item, ok := orderedItem(line); ok {
		p.flushParagraph()
		p.listItem(stateOrderedList, item)
		return
	}

	p.closeList()
	p.para = append(p.para, line)
}

func (p *parser) finish() {
	switch p.state {
	case stateCodeFence:
		p.closeFence(true)
	case stateUnorderedList, stateOrderedList:
		p.closeList()
	}
	p.flushParagraph()
}

// listItem appends to the open list of the given kind, opening a new one if
// a list of the other kind (or none) is open.
func (p *parser) listItem(kind lineState, item string) {
	if p.state != kind {
		p.closeList()
		p.state = kind
	}
	p.items = append(p.items, item)
}

func (p *parser) closeList() {
	if p.state != stateUnorderedList && p.state != stateOrderedList {
		return
	}
	kind := BlockUnorderedList
	if p.state == stateOrderedList {
		kind = BlockOrderedList
	}
	p.emit(Block{Kind: kind, Items: p.items})
	p.items = nil
	p.state = stateNormal
}

func (p *parser) flushParagraph() {
	if len(p.para) == 0 {
		return
	}
	text := strings.TrimSpace(strings.Join(p.para, "\n"))
	p.para = nil
	if text == "" {
		return
	}
	p.emit(Block{Kind: BlockParagraph, Text: text})
}

func (p *parser) closeFence(unterminated bool) {
	p.emit(Block{
		Kind:         BlockCode,
		Text:         trimBlankLines(strings.Join(p.code, "\n")),
		Language:     p.lang,
		Unterminated: unterminated,
	})
	p.code = nil
	p.lang = ""
	p.state = stateNormal
}

// emit appends b to the document. Consecutive item lines of one kind always
// land in the same pending list, so two lists of the same kind are only ever
// emitted with a blank line or another block between them.
func (p *parser) emit(b Block) {
	p.doc.Blocks = append(p.doc.Blocks, b)
}

// =============================================================================
// LINE CLASSIFIERS
// =============================================================================

// unorderedItem matches `^\s*[*+-]\s+(.*)$`.
func unorderedItem(line string) (string, bool) {
	s := strings.TrimLeft(line, " \t")
	if len(s) < 2 {
		return "", false
	}
	switch s[0] {
	case '*', '-', '+':
	default:
		return "", false
	}
	if s[1] != ' ' && s[1] != '\t' {
		return "", false
	}
	return strings.TrimSpace(s[2:]), true
}

// orderedItem matches `^\s*\d+\.\s+(.*)$`.
func orderedItem(line string) (string, bool) {
	s := strings.TrimLeft(line, " \t")
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 || i+1 >= len(s) || s[i] != '.' {
		return "", false
	}
	if s[i+1] != ' ' && s[i+1] != '\t' {
		return "", false
	}
	return strings.TrimSpace(s[i+2:]), true
}

// fenceOpener splits what follows an opening fence. A bare word is the
// language tag; anything else is the first line of code.
func fenceOpener(rest string) (lang, content string) {
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return "", ""
	}
	for _, r := range rest {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return "", rest
		}
	}
	return rest, ""
}

// trimBlankLines drops leading and trailing blank lines but keeps the
// indentation of the first content line.
func trimBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return strings.TrimRight(strings.Join(lines[start:end], "\n"), " \t")
}
