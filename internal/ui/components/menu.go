// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/jeranaias/taxassist-tui/internal/features"
	"github.com/jeranaias/taxassist-tui/internal/ui/styles"
)

// =============================================================================
// FEATURE MENU
// =============================================================================

// FeatureMenu is the dashboard list of sections, grouped by heading.
// Sections that call the model are shown disabled when no API key is set,
// but can still be selected so the configuration banner is visible.
type FeatureMenu struct {
	items    []features.Feature
	cursor   int
	keyReady bool
	Width    int
}

// NewFeatureMenu creates a menu over features.All.
func NewFeatureMenu(keyReady bool) FeatureMenu {
	return FeatureMenu{items: features.All(), keyReady: keyReady, Width: 80}
}

// Selected returns the feature under the cursor.
func (m FeatureMenu) Selected() features.Feature {
	return m.items[m.cursor]
}

// Select moves the cursor to f.
func (m *FeatureMenu) Select(f features.Feature) {
	for i, item := range m.items {
		if item == f {
			m.cursor = i
			return
		}
	}
}

// Up moves the cursor up, wrapping at the top.
func (m *FeatureMenu) Up() {
	m.cursor = (m.cursor - 1 + len(m.items)) % len(m.items)
}

// Down moves the cursor down, wrapping at the bottom.
func (m *FeatureMenu) Down() {
	m.cursor = (m.cursor + 1) % len(m.items)
}

// Disabled reports whether f is shown as unavailable.
func (m FeatureMenu) Disabled(f features.Feature) bool {
	return f.UsesModel() && !m.keyReady
}

// View renders the grouped menu.
func (m FeatureMenu) View(theme *styles.Theme) string {
	selected := m.Selected()
	var sb strings.Builder
	for gi, group := range features.Groups() {
		if gi > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(theme.MenuGroup.Render(group.Title))
		for _, f := range group.Features {
			sb.WriteString("\n")
			title := f.Title()
			switch {
			case f == selected:
				sb.WriteString(theme.MenuItemSelected.Render("> " + title))
			case m.Disabled(f):
				sb.WriteString(theme.MenuItemDisabled.Render(title))
			default:
				sb.WriteString(theme.MenuItem.Render(title))
			}
			if theme.GetLayoutMode() != styles.LayoutNarrow {
				sb.WriteString("\n")
				sb.WriteString(theme.MenuDesc.Render(Truncate(f.Description(), max(m.Width-6, 10))))
			}
		}
	}
	return sb.String()
}
