// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/taxassist-tui/internal/ui/styles"
)

// =============================================================================
// SCROLL VIEW COMPONENT
// =============================================================================

// ScrollView is a scrollable area with "more above/below" indicators. It
// sticks to the bottom while new content arrives unless the user has
// scrolled up.
type ScrollView struct {
	viewport   viewport.Model
	theme      *styles.Theme
	width      int
	height     int
	autoScroll bool
}

// NewScrollView creates a scroll view.
func NewScrollView(theme *styles.Theme, width, height int) *ScrollView {
	vp := viewport.New(width, height)
	vp.Style = lipgloss.NewStyle()
	return &ScrollView{viewport: vp, theme: theme, width: width, height: height, autoScroll: true}
}

// SetTheme swaps the theme after a toggle.
func (sv *ScrollView) SetTheme(theme *styles.Theme) {
	sv.theme = theme
}

// SetSize updates the dimensions. Two lines are kept for the indicators.
func (sv *ScrollView) SetSize(width, height int) {
	sv.width = width
	sv.height = height
	sv.viewport.Width = width
	sv.viewport.Height = max(height-2, 1)
}

// SetContent replaces the content, following the bottom when auto-scroll
// is on.
func (sv *ScrollView) SetContent(content string) {
	sv.viewport.SetContent(content)
	if sv.autoScroll {
		sv.viewport.GotoBottom()
	}
}

// ScrollToBottom jumps to the end and re-enables auto-scroll.
func (sv *ScrollView) ScrollToBottom() {
	sv.viewport.GotoBottom()
	sv.autoScroll = true
}

// ScrollToTop jumps to the start and disables auto-scroll.
func (sv *ScrollView) ScrollToTop() {
	sv.viewport.GotoTop()
	sv.autoScroll = false
}

// AutoScroll reports whether new content scrolls into view.
func (sv *ScrollView) AutoScroll() bool {
	return sv.autoScroll
}

// AtTop reports whether the first line is visible.
func (sv *ScrollView) AtTop() bool {
	return sv.viewport.AtTop()
}

// AtBottom reports whether the last line is visible.
func (sv *ScrollView) AtBottom() bool {
	return sv.viewport.AtBottom()
}

// Update handles scrolling keys and the mouse wheel.
func (sv *ScrollView) Update(msg tea.Msg) (*ScrollView, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "pgup":
			sv.viewport.HalfViewUp()
		case "pgdown", "pgdn":
			sv.viewport.HalfViewDown()
		case "home":
			sv.ScrollToTop()
			return sv, nil
		case "end":
			sv.ScrollToBottom()
			return sv, nil
		default:
			return sv, nil
		}
		sv.autoScroll = sv.viewport.AtBottom()
		return sv, nil

	case tea.MouseMsg:
		switch msg.Type {
		case tea.MouseWheelUp:
			sv.viewport.LineUp(3)
		case tea.MouseWheelDown:
			sv.viewport.LineDown(3)
		}
		sv.autoScroll = sv.viewport.AtBottom()
		return sv, nil
	}

	var cmd tea.Cmd
	sv.viewport, cmd = sv.viewport.Update(msg)
	return sv, cmd
}

// View renders the content with indicators.
func (sv *ScrollView) View() string {
	var sb strings.Builder
	if !sv.viewport.AtTop() {
		sb.WriteString(sv.theme.MessageMeta.Render("^ scroll up for more"))
	}
	sb.WriteString("\n")
	sb.WriteString(sv.viewport.View())
	sb.WriteString("\n")
	if !sv.viewport.AtBottom() {
		sb.WriteString(sv.theme.MessageMeta.Render("v more below (end to follow)"))
	}
	return sb.String()
}
