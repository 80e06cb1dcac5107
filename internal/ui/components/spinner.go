// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/taxassist-tui/internal/ui/styles"
)

// =============================================================================
// SPINNER MODEL
// =============================================================================

// Spinner is the loading indicator shown while a turn is open.
type Spinner struct {
	spinner   spinner.Model
	theme     *styles.Theme
	message   string
	startTime time.Time
	isActive  bool
	showTimer bool
}

// NewSpinner creates a line spinner with the given message.
func NewSpinner(theme *styles.Theme, message string) Spinner {
	s := Spinner{
		spinner:   spinner.New(),
		theme:     theme,
		message:   message,
		showTimer: true,
	}
	s.SetAnimation(styles.LineSpinner)
	return s
}

// SetAnimation swaps the frames the spinner cycles through.
func (s *Spinner) SetAnimation(anim styles.SpinnerConfig) {
	s.spinner.Spinner = spinner.Spinner{
		Frames: anim.Frames,
		FPS:    anim.Duration(),
	}
}

// SetTheme swaps the theme after a toggle.
func (s *Spinner) SetTheme(theme *styles.Theme) {
	s.theme = theme
}

// SetMessage sets the text displayed next to the spinner.
func (s *Spinner) SetMessage(msg string) {
	s.message = msg
}

// SetShowTimer enables or disables the elapsed time display.
func (s *Spinner) SetShowTimer(show bool) {
	s.showTimer = show
}

// Start activates the spinner and records the start time.
func (s *Spinner) Start() tea.Cmd {
	s.isActive = true
	s.startTime = time.Now()
	return s.spinner.Tick
}

// Stop deactivates the spinner.
func (s *Spinner) Stop() {
	s.isActive = false
}

// IsActive returns whether the spinner is currently running.
func (s *Spinner) IsActive() bool {
	return s.isActive
}

// Elapsed returns the duration since the spinner started.
func (s *Spinner) Elapsed() time.Duration {
	if s.startTime.IsZero() {
		return 0
	}
	return time.Since(s.startTime)
}

// Update advances the animation while active.
func (s Spinner) Update(msg tea.Msg) (Spinner, tea.Cmd) {
	if !s.isActive {
		return s, nil
	}
	var cmd tea.Cmd
	s.spinner, cmd = s.spinner.Update(msg)
	return s, cmd
}

// View renders the spinner, or "" when stopped.
func (s Spinner) View() string {
	if !s.isActive {
		return ""
	}
	result := s.theme.Spinner.Render(s.spinner.View()) + " " + s.theme.ThinkingText.Render(s.message+"...")
	if s.showTimer && !s.startTime.IsZero() {
		result += s.theme.MessageMeta.Render(" (" + formatElapsed(time.Since(s.startTime)) + ")")
	}
	return result
}
