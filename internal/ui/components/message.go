// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/taxassist-tui/internal/markup"
	"github.com/jeranaias/taxassist-tui/internal/model"
	"github.com/jeranaias/taxassist-tui/internal/ui/styles"
)

// =============================================================================
// MESSAGE BUBBLE
// =============================================================================

// MessageBubble renders one chat turn. AI text goes through the markup
// renderer; user text is shown as typed.
type MessageBubble struct {
	Message       model.ChatMessage
	Width         int
	ShowTimestamp bool
	theme         *styles.Theme
}

// NewMessageBubble creates a bubble for a message snapshot.
func NewMessageBubble(msg model.ChatMessage, theme *styles.Theme, width int) MessageBubble {
	return MessageBubble{
		Message:       msg,
		Width:         width,
		ShowTimestamp: true,
		theme:         theme,
	}
}

// contentWidth is the text width inside the bubble border and padding.
func (b MessageBubble) contentWidth() int {
	return max(b.Width-12, 20)
}

// View renders the bubble.
func (b MessageBubble) View() string {
	switch b.Message.Sender {
	case model.SenderUser:
		return b.renderUser()
	case model.SenderAI:
		return b.renderAI()
	}
	return b.Message.Text
}

func (b MessageBubble) header() string {
	parts := []string{b.Message.Sender.DisplayName()}
	if b.ShowTimestamp && !b.Message.Timestamp.IsZero() {
		parts = append(parts, b.Message.Timestamp.Format("15:04"))
	}
	return b.theme.MessageMeta.Render(strings.Join(parts, " · "))
}

func (b MessageBubble) renderUser() string {
	text := b.Message.Text
	if text == "" {
		text = "..."
	}
	body := lipgloss.NewStyle().Width(b.contentWidth()).Render(text)
	bubble := b.theme.UserBubble.Render(body)
	return lipgloss.JoinVertical(lipgloss.Right, b.header(), bubble)
}

func (b MessageBubble) renderAI() string {
	r := markup.NewTerminalRenderer(b.theme.Markup, b.contentWidth())
	body := r.Render(b.Message.Text)
	if body == "" {
		body = b.theme.ThinkingText.Render("...")
	}
	if b.Message.IsOpen() {
		body += b.theme.Spinner.Render(" ▌")
	}
	if refs := RenderReferences(b.theme, b.Message.References, b.contentWidth()); refs != "" {
		body += "\n\n" + refs
	}
	return lipgloss.JoinVertical(lipgloss.Left, b.header(), b.theme.AssistantBubble.Render(body))
}

// RenderReferences lists grounding sources as "1. Title" with the URI
// below. Entries missing a title or URI are skipped. Returns "" for no references.
func RenderReferences(theme *styles.Theme, refs []model.Reference, width int) string {
	var lines []string
	n := 0
	for _, ref := range refs {
		if !ref.Valid() {
			continue
		}
		n++
		lines = append(lines, strconv.Itoa(n)+". "+Truncate(ref.Title, width-4))
		lines = append(lines, "   "+theme.Reference.Render(Truncate(ref.URI, width-4)))
	}
	if n == 0 {
		return ""
	}
	return theme.ReferenceHeader.Render("Sources") + "\n" + strings.Join(lines, "\n")
}

// RenderConversation renders every message in order separated by blank lines.
func RenderConversation(theme *styles.Theme, msgs []model.ChatMessage, width int) string {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		parts = append(parts, NewMessageBubble(m, theme, width).View())
	}
	return strings.Join(parts, "\n\n")
}
