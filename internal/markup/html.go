// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markup

import (
	"strings"
)

// Renderer turns assistant text into display output.
type Renderer interface {
	Render(text string) string
}

// =============================================================================
// HTML RENDERER
// =============================================================================

// HTMLRenderer renders to an HTML fragment.
type HTMLRenderer struct{}

// Render implements Renderer.
func (HTMLRenderer) Render(text string) string {
	return RenderHTML(text)
}

// RenderHTML parses text and renders it as an HTML fragment. Empty or
// whitespace-only input yields "".
//
// Only code content is escaped. Text outside code blocks is emitted as is.
func RenderHTML(text string) string {
	return DocumentHTML(Parse(text))
}

// DocumentHTML renders an already parsed document.
func DocumentHTML(doc Document) string {
	parts := make([]string, 0, len(doc.Blocks))
	for _, b := range doc.Blocks {
		parts = append(parts, blockHTML(b))
	}
	return strings.Join(parts, "\n")
}

func blockHTML(b Block) string {
	var sb strings.Builder

	switch b.Kind {
	case BlockParagraph:
		sb.WriteString("<p>")
		sb.WriteString(strings.ReplaceAll(InlineHTML(b.Text), "\n", "<br/>"))
		sb.WriteString("</p>")

	case BlockUnorderedList, BlockOrderedList:
		tag := "ul"
		if b.Kind == BlockOrderedList {
			tag = "ol"
		}
		sb.WriteString("<" + tag + ">")
		for _, item := range b.Items {
			sb.WriteString("<li>")
			sb.WriteString(InlineHTML(item))
			sb.WriteString("</li>")
		}
		sb.WriteString("</" + tag + ">")

	case BlockCode:
		if b.Language != "" {
			sb.WriteString(`<pre><code class="language-` + EscapeCode(b.Language) + `">`)
		} else {
			sb.WriteString("<pre><code>")
		}
		sb.WriteString(EscapeCode(b.Text))
		sb.WriteString("</code></pre>")
	}

	return sb.String()
}

// InlineHTML renders the inline spans of text.
func InlineHTML(text string) string {
	var sb strings.Builder
	strong := false
	for _, s := range ParseInline(text) {
		inBold := s.Kind == SpanBold || s.Kind == SpanBoldItalic
		if inBold && !strong {
			sb.WriteString("<strong>")
		} else if !inBold && strong {
			sb.WriteString("</strong>")
		}
		strong = inBold

		switch s.Kind {
		case SpanItalic, SpanBoldItalic:
			sb.WriteString("<em>" + s.Text + "</em>")
		default:
			sb.WriteString(s.Text)
		}
	}
	if strong {
		sb.WriteString("</strong>")
	}
	return sb.String()
}

var codeEscaper = strings.NewReplacer("<", "&lt;", ">", "&gt;")

// EscapeCode escapes the angle brackets in code content.
func EscapeCode(s string) string {
	return codeEscaper.Replace(s)
}
