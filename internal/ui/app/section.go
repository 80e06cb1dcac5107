// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/taxassist-tui/internal/features"
	"github.com/jeranaias/taxassist-tui/internal/ui/chat"
	"github.com/jeranaias/taxassist-tui/internal/ui/components"
	"github.com/jeranaias/taxassist-tui/internal/ui/styles"
)

// section is an open feature pane.
type section interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (section, tea.Cmd)
	View() string
	SetSize(width, height int)
	SetTheme(theme *styles.Theme)
	Shortcuts() []components.Shortcut
	// Capturing reports whether esc belongs to the section (for example to
	// stop a running request) rather than meaning "back to the menu".
	Capturing() bool
	// Close releases the section. Results that arrive later are ignored.
	Close()
}

// newSection builds the pane for f.
func (m *Model) newSection(f features.Feature) section {
	switch f {
	case features.TaxResearch, features.AppExplanationAssistant:
		return &chatSection{Model: chat.New(chat.Config{
			Feature: f,
			Service: m.streamer(),
			Theme:   m.theme,
			Logger:  m.logger,
			Search:  m.cfg.UI.SearchGrounding,
		})}
	case features.ChecklistGeneration:
		return newChecklistSection(m.theme)
	case features.DeadlineTracking:
		return newDeadlineSection(m.theme, m.now())
	case features.DocumentAnalysis:
		return newDocumentSection(m.theme, m.logger)
	case features.RegulatoryUpdateSummarizer, features.ClientCommunicationAssistant:
		return newGenerateSection(f, m.theme, m.requester(), m.logger)
	case features.Settings:
		return newSettingsSection(m.theme, m.cfg, m.configPath)
	}
	panic("app: no section for " + f.String())
}

// chatSection adapts *chat.Model to section.
type chatSection struct {
	*chat.Model
}

func (s *chatSection) Update(msg tea.Msg) (section, tea.Cmd) {
	_, cmd := s.Model.Update(msg)
	return s, cmd
}

func (s *chatSection) Capturing() bool {
	return s.Busy()
}
