// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/taxassist-tui/internal/features"
	"github.com/jeranaias/taxassist-tui/internal/ui/components"
	"github.com/jeranaias/taxassist-tui/internal/ui/styles"
)

// deadlineSection lists the deadlines of the current year with
// jurisdiction and entity filters.
type deadlineSection struct {
	theme         *styles.Theme
	all           []features.TaxDeadline
	jurisdictions []features.Jurisdiction
	entities      []features.EntityType
	jurisdiction  int
	entity        int
	focusEntity   bool
	now           time.Time
	width         int
}

func newDeadlineSection(theme *styles.Theme, now time.Time) *deadlineSection {
	all := features.Deadlines(now.Year())
	return &deadlineSection{
		theme:         theme,
		all:           all,
		jurisdictions: features.DeadlineJurisdictions(all),
		entities:      features.DeadlineEntityTypes(all),
		now:           now,
		width:         80,
	}
}

func (s *deadlineSection) Init() tea.Cmd            { return nil }
func (s *deadlineSection) Close()                   {}
func (s *deadlineSection) Capturing() bool          { return false }
func (s *deadlineSection) SetTheme(t *styles.Theme) { s.theme = t }
func (s *deadlineSection) SetSize(width, _ int)     { s.width = width }

func (s *deadlineSection) Shortcuts() []components.Shortcut {
	return []components.Shortcut{
		{Key: "tab", Desc: "switch filter"},
		{Key: "left/right", Desc: "change"},
		{Key: "esc", Desc: "back"},
	}
}

func (s *deadlineSection) Update(msg tea.Msg) (section, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}
	delta := 0
	switch km.String() {
	case "tab", "shift+tab":
		s.focusEntity = !s.focusEntity
	case "left", "h":
		delta = -1
	case "right", "l":
		delta = 1
	}
	if delta != 0 {
		if s.focusEntity {
			s.entity = wrap(s.entity+delta, len(s.entities))
		} else {
			s.jurisdiction = wrap(s.jurisdiction+delta, len(s.jurisdictions))
		}
	}
	return s, nil
}

// visible returns the filtered deadlines in date order.
func (s *deadlineSection) visible() []features.TaxDeadline {
	return features.FilterDeadlines(s.all, s.jurisdictions[s.jurisdiction], s.entities[s.entity])
}

func (s *deadlineSection) View() string {
	t := s.theme
	var sb strings.Builder
	sb.WriteString(t.SectionIntro.Render("Upcoming filing deadlines. Dates are illustrative; confirm with official sources."))
	sb.WriteString("\n\n")
	sb.WriteString(renderOption(t, "Jurisdiction", string(s.jurisdictions[s.jurisdiction]), !s.focusEntity))
	sb.WriteString("\n")
	sb.WriteString(renderOption(t, "Entity type", string(s.entities[s.entity]), s.focusEntity))
	sb.WriteString("\n\n")

	list := s.visible()
	if len(list) == 0 {
		sb.WriteString(t.MessageMeta.Render("No deadlines match the selected filters."))
		return sb.String()
	}
	today := s.now.Truncate(24 * time.Hour)
	for _, d := range list {
		date := t.DateColumn.Render(components.PadRight(d.DateString(), 12))
		meta := string(d.Jurisdiction)
		if d.EntityType != "" {
			meta += ", " + string(d.EntityType)
		}
		name := components.Truncate(d.Name, max(s.width-40, 20))
		if d.Date.Before(today) {
			name = t.MessageMeta.Render(name + " (past)")
		}
		line := date + " " + name + " " + t.MessageMeta.Render("("+meta+")")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
