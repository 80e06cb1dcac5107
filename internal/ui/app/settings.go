// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/taxassist-tui/internal/config"
	"github.com/jeranaias/taxassist-tui/internal/features"
	"github.com/jeranaias/taxassist-tui/internal/ui/components"
	"github.com/jeranaias/taxassist-tui/internal/ui/styles"
)

// toggleThemeMsg asks the root model to switch themes.
type toggleThemeMsg struct{}

// settingsSection shows the theme switch and read-only app information.
type settingsSection struct {
	theme      *styles.Theme
	cfg        *config.Config
	configPath string
}

func newSettingsSection(theme *styles.Theme, cfg *config.Config, configPath string) *settingsSection {
	return &settingsSection{theme: theme, cfg: cfg, configPath: configPath}
}

func (s *settingsSection) Init() tea.Cmd            { return nil }
func (s *settingsSection) Close()                   {}
func (s *settingsSection) Capturing() bool          { return false }
func (s *settingsSection) SetTheme(t *styles.Theme) { s.theme = t }
func (s *settingsSection) SetSize(int, int)         {}

func (s *settingsSection) Shortcuts() []components.Shortcut {
	return []components.Shortcut{{Key: "t", Desc: "toggle theme"}, {Key: "esc", Desc: "back"}}
}

func (s *settingsSection) Update(msg tea.Msg) (section, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok && (km.String() == "t" || km.String() == " ") {
		return s, func() tea.Msg { return toggleThemeMsg{} }
	}
	return s, nil
}

func (s *settingsSection) View() string {
	t := s.theme
	row := func(label, value string) string {
		return t.OptionLabel.Render(components.PadRight(label, 16)) + t.OptionValue.Render(value)
	}

	mode := "Dark"
	if !t.Mode.IsDark() {
		mode = "Light"
	}
	key := t.ToggleOff.Render("missing")
	if s.cfg.APIKeyPresent() {
		key = t.ToggleOn.Render("configured")
	}
	path := s.configPath
	if path == "" {
		path = "(defaults)"
	}

	lines := []string{
		t.SectionTitle.Render("Appearance"),
		row("Theme", mode) + t.MessageMeta.Render("  (t to toggle, saved between sessions)"),
		"",
		t.SectionTitle.Render("Model"),
		row("Model", s.cfg.Gemini.Model),
		row("API key", key),
		row("Config file", path),
		"",
		t.SectionTitle.Render("About"),
		row("Application", features.AppName),
		row("Developed by", features.CompanyName),
		t.MessageMeta.Render("Responses are informational only. Consult a qualified tax professional before acting on them."),
	}
	return strings.Join(lines, "\n")
}
