// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/taxassist-tui/internal/features"
	"github.com/jeranaias/taxassist-tui/internal/ui/styles"
)

// =============================================================================
// HEADER COMPONENT
// =============================================================================

// Header is the title bar: product name, company and the current section.
type Header struct {
	Title     string
	Subtitle  string
	Section   string
	ModelName string
	Width     int
}

// NewHeader creates a header with the product branding.
func NewHeader() Header {
	return Header{
		Title:    features.AppName,
		Subtitle: features.CompanyName,
		Width:    80,
	}
}

// View renders the header.
func (h Header) View(theme *styles.Theme) string {
	width := max(h.Width, 40)
	inner := width - 6

	title := theme.HeaderTitle.Render(Truncate(h.Title, inner))
	sub := h.Subtitle
	if h.Section != "" {
		sub = h.Section + " · " + sub
	}
	lines := []string{title, theme.HeaderSubtitle.Render(Truncate(sub, inner))}
	if h.ModelName != "" && theme.GetLayoutMode() != styles.LayoutNarrow {
		lines = append(lines, theme.MessageMeta.Render(Truncate("model: "+h.ModelName, inner)))
	}
	return theme.Header.Width(width - 2).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
