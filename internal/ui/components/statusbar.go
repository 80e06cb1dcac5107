// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/taxassist-tui/internal/ui/styles"
)

// Shortcut is one key hint in the status bar.
type Shortcut struct {
	Key  string
	Desc string
}

// StatusBar shows key hints on the left and a status note on the right.
type StatusBar struct {
	Shortcuts []Shortcut
	Status    string
	Width     int
}

// View renders the bar, dropping hints from the right when space runs out.
func (s StatusBar) View(theme *styles.Theme) string {
	width := max(s.Width, 20)
	right := s.Status
	if right != "" {
		right = Truncate(right, width/2)
	}
	budget := width - lipgloss.Width(right) - 3

	var hints []string
	used := 0
	for _, sc := range s.Shortcuts {
		hint := theme.ShortcutKey.Render(sc.Key) + " " + theme.ShortcutDesc.Render(sc.Desc)
		w := lipgloss.Width(hint) + 2
		if used+w > budget {
			break
		}
		hints = append(hints, hint)
		used += w
	}
	left := strings.Join(hints, "  ")
	gap := max(width-2-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return theme.StatusBar.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}
