// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the taxassist TUI.

# Color System (colors.go)

Every color is a ColorPair with a light and a dark variant. A pair is
resolved against an explicit ThemeMode, so the same terminal can show
either theme regardless of its background.

  - Teal, Gold - brand accents
  - Rose, Amber, Emerald - error, warning, success (and risk levels)
  - Surface, Overlay, Text* - layered surfaces and text hierarchy

# Theme System (theme.go)

NewTheme(mode) builds every lipgloss style from the mode. The theme is
passed to views explicitly; toggling produces a new Theme via Toggled and
the caller persists the mode through config.ThemeStore.

	theme := styles.NewTheme(config.ThemeDark)
	fmt.Println(theme.HeaderTitle.Render("Tax Compliance Automation Assistant"))

theme.Markup carries the styles handed to markup.TerminalRenderer,
including the chroma style and formatter picked from the color profile.

# Animations (animations.go)

Spinner frame sets and a fixed-width ASCII progress bar used by the
checklist section.

# Accessibility

Status messages carry ASCII shape indicators ([OK], [X], [!]) in addition
to color.
*/
package styles
