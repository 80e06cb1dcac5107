// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markup

import (
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// TERMINAL RENDERER
// =============================================================================

// TerminalStyles is the styling a TerminalRenderer applies. The ui/styles
// package builds one per theme mode.
type TerminalStyles struct {
	Paragraph lipgloss.Style
	Bold      lipgloss.Style
	Italic    lipgloss.Style
	Bullet    lipgloss.Style
	Number    lipgloss.Style
	CodeBlock lipgloss.Style
	CodeLang  lipgloss.Style
	// Pending marks a code block whose closing fence has not arrived yet.
	Pending lipgloss.Style

	// ChromaStyle names the chroma style for code, e.g. "monokai".
	ChromaStyle string
	// ChromaFormatter names the chroma formatter, e.g. "terminal256".
	// Empty disables highlighting.
	ChromaFormatter string
}

// PlainTerminalStyles returns unstyled output with no highlighting.
func PlainTerminalStyles() TerminalStyles {
	return TerminalStyles{
		Paragraph: lipgloss.NewStyle(),
		Bold:      lipgloss.NewStyle().Bold(true),
		Italic:    lipgloss.NewStyle().Italic(true),
		Bullet:    lipgloss.NewStyle(),
		Number:    lipgloss.NewStyle(),
		CodeBlock: lipgloss.NewStyle().PaddingLeft(2),
		CodeLang:  lipgloss.NewStyle(),
		Pending:   lipgloss.NewStyle(),
	}
}

// TerminalRenderer renders the block tree as styled terminal text.
type TerminalRenderer struct {
	Styles TerminalStyles
	// Width wraps paragraphs and list items. Zero disables wrapping.
	Width int
}

// NewTerminalRenderer creates a renderer with the given styles.
func NewTerminalRenderer(styles TerminalStyles, width int) *TerminalRenderer {
	return &TerminalRenderer{Styles: styles, Width: width}
}

// Render implements Renderer.
func (r *TerminalRenderer) Render(text string) string {
	return r.RenderDocument(Parse(text))
}

// RenderDocument renders an already parsed document. Blocks are separated
// by a blank line.
func (r *TerminalRenderer) RenderDocument(doc Document) string {
	parts := make([]string, 0, len(doc.Blocks))
	for _, b := range doc.Blocks {
		parts = append(parts, r.block(b))
	}
	return strings.Join(parts, "\n\n")
}

func (r *TerminalRenderer) block(b Block) string {
	switch b.Kind {
	case BlockParagraph:
		return r.wrap(r.Styles.Paragraph).Render(r.inline(b.Text))

	case BlockUnorderedList, BlockOrderedList:
		lines := make([]string, 0, len(b.Items))
		for i, item := range b.Items {
			var marker string
			if b.Kind == BlockOrderedList {
				marker = r.Styles.Number.Render(strconv.Itoa(i+1) + ".")
			} else {
				marker = r.Styles.Bullet.Render("•")
			}
			body := r.inline(item)
			if r.Width > 0 {
				body = lipgloss.NewStyle().Width(max(r.Width-lipgloss.Width(marker)-1, 10)).Render(body)
			}
			lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, marker+" ", body))
		}
		return strings.Join(lines, "\n")

	case BlockCode:
		return r.code(b)
	}
	return ""
}

func (r *TerminalRenderer) wrap(s lipgloss.Style) lipgloss.Style {
	if r.Width > 0 {
		return s.Width(r.Width)
	}
	return s
}

func (r *TerminalRenderer) inline(text string) string {
	var sb strings.Builder
	for _, span := range ParseInline(text) {
		switch span.Kind {
		case SpanBold:
			sb.WriteString(r.Styles.Bold.Render(span.Text))
		case SpanItalic:
			sb.WriteString(r.Styles.Italic.Render(span.Text))
		case SpanBoldItalic:
			sb.WriteString(r.Styles.Bold.Inherit(r.Styles.Italic).Render(span.Text))
		case SpanText:
			sb.WriteString(span.Text)
		}
	}
	return sb.String()
}

func (r *TerminalRenderer) code(b Block) string {
	body := Highlight(b.Text, b.Language, r.Styles.ChromaStyle, r.Styles.ChromaFormatter)

	var header string
	if b.Language != "" {
		header = r.Styles.CodeLang.Render(b.Language) + "\n"
	}
	if b.Unterminated {
		body += "\n" + r.Styles.Pending.Render("…")
	}
	style := r.Styles.CodeBlock
	if r.Width > 0 {
		style = style.MaxWidth(r.Width)
	}
	return style.Render(header + body)
}

// =============================================================================
// SYNTAX HIGHLIGHTING
// =============================================================================

// Highlight applies chroma highlighting to code. The lexer is chosen by
// language tag, then by content analysis, then the plain-text fallback.
// An empty formatter, or any chroma failure, returns the code unchanged.
func Highlight(code, language, style, formatter string) string {
	if formatter == "" {
		return code
	}

	var lexer chroma.Lexer
	if language != "" {
		lexer = lexers.Get(language)
	}
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	s := chromaStyles.Get(style)
	if s == nil {
		s = chromaStyles.Fallback
	}
	f := formatters.Get(formatter)
	if f == nil {
		f = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var buf strings.Builder
	if err := f.Format(&buf, s, iterator); err != nil {
		return code
	}
	return strings.TrimRight(buf.String(), "\n")
}

// DetectLanguage names the language chroma infers for code, or "".
func DetectLanguage(code string) string {
	if lexer := lexers.Analyse(code); lexer != nil {
		return lexer.Config().Name
	}
	return ""
}
