// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// ColorPair holds the light and dark variants of one color token. Unlike
// lipgloss.AdaptiveColor it is resolved against an explicit ThemeMode, not
// the terminal background.
type ColorPair struct {
	Light string
	Dark  string
}

// Resolve returns the variant for mode.
func (c ColorPair) Resolve(mode ThemeMode) lipgloss.Color {
	if mode.IsDark() {
		return lipgloss.Color(c.Dark)
	}
	return lipgloss.Color(c.Light)
}

// =============================================================================
// BRAND COLORS
// =============================================================================

// Teal - Primary accent, headings, selections
var Teal = ColorPair{Light: "#0F766E", Dark: "#2DD4BF"}

// TealDeep - Darker teal for backgrounds
var TealDeep = ColorPair{Light: "#115E59", Dark: "#134E4A"}

// Gold - Highlights, brand title, section headings
var Gold = ColorPair{Light: "#B45309", Dark: "#FBBF24"}

// =============================================================================
// SEMANTIC COLORS
// =============================================================================

// Rose - Errors, high risk
var Rose = ColorPair{Light: "#E11D48", Dark: "#FB7185"}

// RoseDeep - Darker rose for backgrounds
var RoseDeep = ColorPair{Light: "#FFE4E6", Dark: "#881337"}

// Amber - Warnings, medium risk, missing configuration
var Amber = ColorPair{Light: "#D97706", Dark: "#FBBF24"}

// Emerald - Success, low risk, completed items
var Emerald = ColorPair{Light: "#059669", Dark: "#34D399"}

// Link - References and URLs
var Link = ColorPair{Light: "#2563EB", Dark: "#60A5FA"}

// =============================================================================
// SURFACE AND TEXT COLORS
// =============================================================================

var Surface = ColorPair{Light: "#FFFFFF", Dark: "#0F172A"}
var SurfaceDim = ColorPair{Light: "#F1F5F9", Dark: "#1E293B"}
var Overlay = ColorPair{Light: "#CBD5E1", Dark: "#334155"}

var TextPrimary = ColorPair{Light: "#0F172A", Dark: "#E2E8F0"}
var TextSecondary = ColorPair{Light: "#475569", Dark: "#94A3B8"}
var TextMuted = ColorPair{Light: "#94A3B8", Dark: "#64748B"}
var TextInverse = ColorPair{Light: "#FFFFFF", Dark: "#0F172A"}

// =============================================================================
// MESSAGE BUBBLE COLORS
// =============================================================================

var UserBubbleFg = ColorPair{Light: "#134E4A", Dark: "#CCFBF1"}
var UserBubbleBorder = ColorPair{Light: "#14B8A6", Dark: "#0D9488"}
var AssistantBubbleFg = ColorPair{Light: "#1E293B", Dark: "#E2E8F0"}
var AssistantBubbleBorder = ColorPair{Light: "#F59E0B", Dark: "#B45309"}

// =============================================================================
// ACCESSIBILITY: shape indicators alongside color
// =============================================================================

// StatusIndicatorSet contains text/shape indicators for status states.
type StatusIndicatorSet struct {
	Success string
	Error   string
	Warning string
	Info    string
	Pending string
	Checked string
}

// StatusIndicators are ASCII-only for maximum terminal compatibility.
var StatusIndicators = StatusIndicatorSet{
	Success: "[OK]",
	Error:   "[X]",
	Warning: "[!]",
	Info:    "[i]",
	Pending: "[ ]",
	Checked: "[x]",
}
