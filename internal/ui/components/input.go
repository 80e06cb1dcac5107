// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/taxassist-tui/internal/ui/styles"
)

// =============================================================================
// INPUT AREA COMPONENT
// =============================================================================

// DefaultMaxChars bounds a single prompt or pasted document.
const DefaultMaxChars = 20000

// InputArea is a multi-line text input with a character counter. While
// disabled it ignores key presses and shows the reason instead of the
// placeholder.
type InputArea struct {
	area           textarea.Model
	theme          *styles.Theme
	label          string
	disabledReason string
	width          int
}

// NewInputArea creates an input with the given label and placeholder.
func NewInputArea(theme *styles.Theme, label, placeholder string, height int) *InputArea {
	ta := textarea.New()
	ta.Placeholder = placeholder
	ta.CharLimit = DefaultMaxChars
	ta.ShowLineNumbers = false
	ta.Prompt = "> "
	ta.SetHeight(max(height, 1))
	ta.SetWidth(70)

	in := &InputArea{area: ta, theme: theme, label: label, width: 80}
	in.applyTheme()
	return in
}

func (i *InputArea) applyTheme() {
	focused, blurred := textarea.DefaultStyles()
	focused.Prompt = i.theme.InputPrompt
	focused.CursorLine = lipgloss.NewStyle()
	focused.Placeholder = i.theme.MessageMeta
	blurred.Prompt = i.theme.InputDisabled
	blurred.Placeholder = i.theme.MessageMeta
	i.area.FocusedStyle = focused
	i.area.BlurredStyle = blurred
}

// SetTheme restyles the input after a theme toggle.
func (i *InputArea) SetTheme(theme *styles.Theme) {
	i.theme = theme
	i.applyTheme()
}

// Focus focuses the input.
func (i *InputArea) Focus() tea.Cmd {
	return i.area.Focus()
}

// Blur removes focus.
func (i *InputArea) Blur() {
	i.area.Blur()
}

// Focused reports whether the input has focus.
func (i *InputArea) Focused() bool {
	return i.area.Focused()
}

// SetWidth sets the outer width.
func (i *InputArea) SetWidth(width int) {
	i.width = width
	i.area.SetWidth(max(width-6, 10))
}

// SetDisabled disables the input with a reason, or enables it when reason
// is empty.
func (i *InputArea) SetDisabled(reason string) {
	i.disabledReason = reason
}

// Disabled reports whether the input refuses edits.
func (i *InputArea) Disabled() bool {
	return i.disabledReason != ""
}

// Value returns the current text.
func (i *InputArea) Value() string {
	return i.area.Value()
}

// SetValue replaces the current text.
func (i *InputArea) SetValue(value string) {
	i.area.SetValue(value)
}

// Reset clears the text.
func (i *InputArea) Reset() {
	i.area.Reset()
}

// Update forwards messages to the textarea unless disabled.
func (i *InputArea) Update(msg tea.Msg) (*InputArea, tea.Cmd) {
	if i.Disabled() {
		if _, ok := msg.(tea.KeyMsg); ok {
			return i, nil
		}
	}
	var cmd tea.Cmd
	i.area, cmd = i.area.Update(msg)
	return i, cmd
}

// View renders the label, the textarea and the counter.
func (i *InputArea) View() string {
	var sb strings.Builder
	if i.label != "" {
		sb.WriteString(i.theme.OptionLabel.Render(i.label))
		sb.WriteString("\n")
	}
	if i.Disabled() {
		sb.WriteString(i.theme.InputDisabled.Render(i.disabledReason))
	} else {
		sb.WriteString(i.area.View())
	}
	sb.WriteString("\n")
	sb.WriteString(i.renderCharCounter(len([]rune(i.area.Value()))))
	return i.theme.InputContainer.Width(max(i.width-2, 10)).Render(sb.String())
}

func (i *InputArea) renderCharCounter(count int) string {
	text := fmt.Sprintf("%d/%d", count, i.area.CharLimit)
	switch {
	case count >= i.area.CharLimit:
		return i.theme.ErrorStyle.Render(text)
	case count*10 >= i.area.CharLimit*9:
		return i.theme.WarningStyle.Render(text)
	default:
		return i.theme.MessageMeta.Render(text)
	}
}
