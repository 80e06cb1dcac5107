// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/samber/lo"

	"github.com/jeranaias/taxassist-tui/internal/markup"
	"github.com/jeranaias/taxassist-tui/internal/model"
)

// =============================================================================
// STREAMED OUTPUT
// =============================================================================

// deltaPrinter is a chatstream render callback that writes only the text
// of the streaming reply not yet printed.
type deltaPrinter struct {
	w    io.Writer
	conv *model.Conversation

	id      string
	printed int
}

func (d *deltaPrinter) render() {
	last := d.conv.Last()
	if last == nil {
		return
	}
	msg := last.Snapshot()
	if msg.Sender != model.SenderAI {
		return
	}
	if msg.ID != d.id {
		d.id = msg.ID
		d.printed = 0
	}
	if len(msg.Text) > d.printed {
		fmt.Fprint(d.w, msg.Text[d.printed:])
		d.printed = len(msg.Text)
	}
}

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// renderMarkdown renders content with glamour. The original text is
// returned if the renderer cannot be built.
func renderMarkdown(content string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}
	rendered, err := r.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// replyHTML renders model text as HTML with the text escaped first.
func replyHTML(text string) string {
	return markup.RenderHTML(html.EscapeString(text))
}

// =============================================================================
// REFERENCES
// =============================================================================

func validRefs(refs []model.Reference) []model.Reference {
	return lo.Filter(refs, func(r model.Reference, _ int) bool { return r.Valid() })
}

// withSources appends a markdown source list to text.
func withSources(text string, refs []model.Reference) string {
	refs = validRefs(refs)
	if len(refs) == 0 {
		return text
	}
	var sb strings.Builder
	sb.WriteString(text)
	sb.WriteString("\n\n**Sources:**\n\n")
	for i, r := range refs {
		fmt.Fprintf(&sb, "%d. [%s](%s)\n", i+1, r.Title, r.URI)
	}
	return sb.String()
}

func writePlainReferences(w io.Writer, refs []model.Reference) {
	refs = validRefs(refs)
	if len(refs) == 0 {
		return
	}
	p := newPainter(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, p.render(SectionStyle, "Sources:"))
	for i, r := range refs {
		title := r.Title
		fmt.Fprintf(w, "  %d. %s\n     %s\n", i+1, title, p.render(DimStyle, r.URI))
	}
}

func writeHTMLReferences(w io.Writer, refs []model.Reference) {
	refs = validRefs(refs)
	if len(refs) == 0 {
		return
	}
	fmt.Fprintln(w, `<ol class="sources">`)
	for _, r := range refs {
		fmt.Fprintf(w, "<li><a href=\"%s\" target=\"_blank\" rel=\"noopener noreferrer\">%s</a></li>\n",
			html.EscapeString(r.URI), html.EscapeString(r.Title))
	}
	fmt.Fprintln(w, "</ol>")
}
