// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/taxassist-tui/internal/features"
	"github.com/jeranaias/taxassist-tui/internal/ui/components"
	"github.com/jeranaias/taxassist-tui/internal/ui/styles"
)

// checklistField is the focused control of the checklist pane.
type checklistField int

const (
	fieldEntity checklistField = iota
	fieldJurisdiction
	fieldItems
)

// checklistSection picks an entity type and jurisdiction and shows the
// generated checklist with toggles.
type checklistSection struct {
	theme         *styles.Theme
	entities      []features.EntityType
	jurisdictions []features.Jurisdiction
	entity        int
	jurisdiction  int
	focus         checklistField
	list          *features.Checklist
	cursor        int
	width         int
	height        int
}

func newChecklistSection(theme *styles.Theme) *checklistSection {
	return &checklistSection{
		theme:         theme,
		entities:      features.ChecklistEntityTypes(),
		jurisdictions: features.ChecklistJurisdictions(),
		width:         80,
	}
}

func (s *checklistSection) Init() tea.Cmd            { return nil }
func (s *checklistSection) Close()                   {}
func (s *checklistSection) Capturing() bool          { return false }
func (s *checklistSection) SetTheme(t *styles.Theme) { s.theme = t }

func (s *checklistSection) SetSize(width, height int) {
	s.width, s.height = width, height
}

func (s *checklistSection) Shortcuts() []components.Shortcut {
	return []components.Shortcut{
		{Key: "tab", Desc: "next field"},
		{Key: "left/right", Desc: "change"},
		{Key: "enter", Desc: "generate"},
		{Key: "space", Desc: "toggle item"},
		{Key: "esc", Desc: "back"},
	}
}

// generate builds the checklist for the current selection.
func (s *checklistSection) generate() {
	s.list = features.GenerateChecklist(s.entities[s.entity], s.jurisdictions[s.jurisdiction])
	s.cursor = 0
	s.focus = fieldItems
}

func (s *checklistSection) Update(msg tea.Msg) (section, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}
	switch km.String() {
	case "tab":
		s.focus = (s.focus + 1) % 3
		if s.focus == fieldItems && s.list == nil {
			s.focus = fieldEntity
		}
	case "shift+tab":
		s.focus = (s.focus + 2) % 3
		if s.focus == fieldItems && s.list == nil {
			s.focus = fieldJurisdiction
		}
	case "left", "h":
		s.cycle(-1)
	case "right", "l":
		s.cycle(1)
	case "up", "k":
		if s.focus == fieldItems && s.cursor > 0 {
			s.cursor--
		}
	case "down", "j":
		if s.focus == fieldItems && s.list != nil && s.cursor < len(s.list.Items)-1 {
			s.cursor++
		}
	case "enter":
		s.generate()
	case " ", "x":
		if s.focus == fieldItems && s.list != nil && len(s.list.Items) > 0 {
			s.list.Toggle(s.list.Items[s.cursor].ID)
		}
	}
	return s, nil
}

func (s *checklistSection) cycle(delta int) {
	switch s.focus {
	case fieldEntity:
		s.entity = wrap(s.entity+delta, len(s.entities))
	case fieldJurisdiction:
		s.jurisdiction = wrap(s.jurisdiction+delta, len(s.jurisdictions))
	case fieldItems:
	}
}

// wrap keeps i within [0, n).
func wrap(i, n int) int {
	return ((i % n) + n) % n
}

func (s *checklistSection) View() string {
	t := s.theme
	var sb strings.Builder
	sb.WriteString(t.SectionIntro.Render("Select an entity type and jurisdiction to generate a compliance checklist."))
	sb.WriteString("\n\n")
	sb.WriteString(renderOption(t, "Entity type", string(s.entities[s.entity]), s.focus == fieldEntity))
	sb.WriteString("\n")
	sb.WriteString(renderOption(t, "Jurisdiction", string(s.jurisdictions[s.jurisdiction]), s.focus == fieldJurisdiction))
	sb.WriteString("\n\n")

	if s.list == nil {
		sb.WriteString(t.MessageMeta.Render("Press enter to generate."))
		return sb.String()
	}

	sb.WriteString(t.SectionTitle.Render(fmt.Sprintf("Checklist for %s in %s", s.list.EntityType, s.list.Jurisdiction)))
	sb.WriteString("\n")
	for i, item := range s.list.Items {
		mark, style := styles.StatusIndicators.Pending, t.ItemTodo
		if item.Completed {
			mark, style = styles.StatusIndicators.Checked, t.ItemDone
		}
		line := mark + " " + item.Text
		if s.focus == fieldItems && i == s.cursor {
			sb.WriteString(t.Cursor.Render("> "))
		} else {
			sb.WriteString("  ")
		}
		sb.WriteString(style.Render(components.Truncate(line, max(s.width-6, 20))))
		if item.Details != "" && s.focus == fieldItems && i == s.cursor {
			sb.WriteString("\n    ")
			sb.WriteString(t.MessageMeta.Render(item.Details))
		}
		sb.WriteString("\n")
	}

	done, total := s.list.Progress()
	pct := 0.0
	if total > 0 {
		pct = float64(done) * 100 / float64(total)
	}
	sb.WriteString("\n")
	sb.WriteString(t.ProgressLabel.Render(fmt.Sprintf("%d of %d complete ", done, total)))
	sb.WriteString(styles.RenderProgressBar(min(30, max(s.width-24, 10)), pct))
	return sb.String()
}

// renderOption renders "Label: < value >" with focus highlighting.
func renderOption(t *styles.Theme, label, value string, focused bool) string {
	v := t.OptionValue.Render(value)
	if focused {
		v = t.Cursor.Render("< ") + v + t.Cursor.Render(" >")
	}
	return t.OptionLabel.Render(label+": ") + v
}
