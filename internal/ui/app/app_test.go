// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/taxassist-tui/internal/config"
	"github.com/jeranaias/taxassist-tui/internal/features"
	"github.com/jeranaias/taxassist-tui/internal/logging"
	"github.com/jeranaias/taxassist-tui/internal/ui/components"
	"github.com/jeranaias/taxassist-tui/internal/ui/styles"
	"github.com/jeranaias/taxassist-tui/internal/upstream"
	"github.com/jeranaias/taxassist-tui/internal/upstream/upstreamtest"
)

var fixedNow = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }

func newTestApp(t *testing.T, svc upstream.Service, store config.ThemeStore) *Model {
	t.Helper()
	m := New(Options{
		Config:     config.Default(),
		Service:    svc,
		ThemeStore: store,
		Logger:     logging.Discard(),
		Now:        fixedNow,
	})
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m
}

func press(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "ctrl+t":
		return tea.KeyMsg{Type: tea.KeyCtrlT}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+a":
		return tea.KeyMsg{Type: tea.KeyCtrlA}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// run applies msg and then executes the returned command chain once,
// feeding non-batch results back in.
func run(m *Model, msg tea.Msg) {
	_, cmd := m.Update(msg)
	for i := 0; cmd != nil && i < 10; i++ {
		out := cmd()
		if out == nil {
			return
		}
		if _, ok := out.(tea.BatchMsg); ok {
			return
		}
		_, cmd = m.Update(out)
	}
}

func TestApp_EveryFeatureOpensAndCloses(t *testing.T) {
	m := newTestApp(t, &upstreamtest.Scripted{Fragments: []string{"ok"}}, nil)

	for _, f := range features.All() {
		m.open(f)
		require.Equal(t, StateSection, m.State(), f.String())
		assert.Equal(t, f, m.Active())
		assert.NotEmpty(t, m.View(), f.String())

		m.Update(press("esc"))
		assert.Equal(t, StateMenu, m.State(), "esc returns to the menu from %s", f)
	}
}

func TestApp_MenuNavigation(t *testing.T) {
	m := newTestApp(t, nil, nil)
	all := features.All()

	m.Update(press("down"))
	m.Update(press("enter"))
	assert.Equal(t, all[1], m.Active())
}

func TestApp_StartFeature(t *testing.T) {
	m := New(Options{Config: config.Default(), Logger: logging.Discard(), Start: "deadlines", Now: fixedNow})
	assert.Equal(t, StateSection, m.State())
	assert.Equal(t, features.DeadlineTracking, m.Active())
}

func TestApp_ThemeToggleIsPersisted(t *testing.T) {
	store := config.NewMemoryThemeStore(config.ThemeDark)
	m := newTestApp(t, nil, store)
	require.Equal(t, styles.ThemeDark, m.Theme().Mode)

	m.Update(press("ctrl+t"))
	assert.Equal(t, styles.ThemeLight, m.Theme().Mode)
	mode, err := store.LoadTheme()
	require.NoError(t, err)
	assert.Equal(t, config.ThemeLight, mode)
	assert.Equal(t, 120, m.Theme().Width, "toggle keeps the layout size")
}

func TestApp_ThemeLoadedFromStore(t *testing.T) {
	m := newTestApp(t, nil, config.NewMemoryThemeStore(config.ThemeLight))
	assert.Equal(t, styles.ThemeLight, m.Theme().Mode)
}

type failingStore struct{}

func (failingStore) LoadTheme() (config.ThemeMode, error) {
	return config.ThemeDark, errors.New("disk gone")
}
func (failingStore) SaveTheme(config.ThemeMode) error { return errors.New("disk gone") }

func TestApp_ThemeSaveFailureShowsToast(t *testing.T) {
	m := newTestApp(t, nil, failingStore{})
	m.Update(press("ctrl+t"))
	assert.Equal(t, styles.ThemeLight, m.Theme().Mode, "toggle applies even when saving fails")
	assert.Len(t, m.toasts.Toasts(), 1)
}

func TestApp_SettingsTogglesTheme(t *testing.T) {
	m := newTestApp(t, nil, nil)
	m.open(features.Settings)

	run(m, press("t"))
	assert.Equal(t, styles.ThemeLight, m.Theme().Mode)
	assert.Contains(t, m.View(), "Light")
}

func TestApp_ConfigReloaded(t *testing.T) {
	m := newTestApp(t, nil, nil)
	m.open(features.Settings)

	next := config.Default()
	next.UI.Theme = config.ThemeLight
	next.Gemini.Model = "gemini-2.5-pro"
	m.Update(ConfigReloadedMsg{Config: next})

	assert.Equal(t, styles.ThemeLight, m.Theme().Mode)
	assert.Contains(t, m.View(), "gemini-2.5-pro")
	require.Len(t, m.toasts.Toasts(), 1)
	assert.Equal(t, "Configuration reloaded.", m.toasts.Toasts()[0].Message)

	withKey := next.Clone()
	withKey.Gemini.APIKey = "k"
	m.Update(ConfigReloadedMsg{Config: withKey})
	newest := m.toasts.Toasts()[0]
	assert.Equal(t, components.ToastKindWarning, newest.Kind)
	assert.Contains(t, newest.Message, "Restart")
}

func TestApp_ConfigReloaded_KeyRotation(t *testing.T) {
	cfg := config.Default()
	cfg.Gemini.APIKey = "key-a"
	m := New(Options{Config: cfg, Service: &upstreamtest.Scripted{}, Logger: logging.Discard(), Now: fixedNow})
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	same := cfg.Clone()
	same.UI.Theme = config.ThemeLight
	m.Update(ConfigReloadedMsg{Config: same})
	assert.Equal(t, "Configuration reloaded.", m.toasts.Toasts()[0].Message)

	rotated := same.Clone()
	rotated.Gemini.APIKey = "key-b"
	m.Update(ConfigReloadedMsg{Config: rotated})
	newest := m.toasts.Toasts()[0]
	assert.Equal(t, components.ToastKindWarning, newest.Kind)
	assert.Contains(t, newest.Message, "Restart")

	m.Update(ConfigReloadedMsg{Config: rotated.Clone()})
	assert.Equal(t, "Configuration reloaded.", m.toasts.Toasts()[0].Message)
}

func TestApp_MissingKeyBanner(t *testing.T) {
	m := newTestApp(t, nil, nil)
	assert.Contains(t, m.View(), "API key: missing")
	assert.True(t, m.menu.Disabled(features.TaxResearch))
}

func TestChecklistSection(t *testing.T) {
	s := newChecklistSection(styles.NewTheme(styles.ThemeDark))
	s.SetSize(100, 30)

	s.Update(press("right")) // Partnership
	s.Update(press("enter"))
	require.NotNil(t, s.list)
	assert.Equal(t, features.Partnership, s.list.EntityType)
	assert.Equal(t, features.Federal, s.list.Jurisdiction)
	assert.Equal(t, fieldItems, s.focus)

	s.Update(press("space"))
	done, total := s.list.Progress()
	assert.Equal(t, 1, done)
	assert.Equal(t, len(s.list.Items), total)
	assert.Contains(t, s.View(), "1 of")
}

func TestChecklistSection_WrapsOptions(t *testing.T) {
	s := newChecklistSection(styles.NewTheme(styles.ThemeDark))
	s.Update(tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, len(s.entities)-1, s.entity)
}

func TestDeadlineSection_Filters(t *testing.T) {
	s := newDeadlineSection(styles.NewTheme(styles.ThemeDark), fixedNow())
	s.SetSize(120, 30)

	all := len(s.visible())
	assert.Equal(t, len(s.all), all, "All/All shows everything")

	s.Update(press("right")) // first concrete jurisdiction
	filtered := s.visible()
	assert.Less(t, len(filtered), all)
	for _, d := range filtered {
		assert.Equal(t, s.jurisdictions[1], d.Jurisdiction)
	}
	assert.True(t, strings.Contains(s.View(), "2025-"))
}

func TestDocumentSection_Analyze(t *testing.T) {
	s := newDocumentSection(styles.NewTheme(styles.ThemeDark), logging.Discard())
	s.SetSize(100, 30)
	s.input.SetValue("Signature missing on form 1099")

	_, cmd := s.Update(press("ctrl+s"))
	require.NotNil(t, cmd)
	assert.True(t, s.running)
	s.Update(cmd())
	assert.False(t, s.running)
	assert.NoError(t, s.err)
	assert.NotEmpty(t, s.issues)
}

func TestDocumentSection_ErrorTrigger(t *testing.T) {
	s := newDocumentSection(styles.NewTheme(styles.ThemeDark), logging.Discard())
	s.input.SetValue("contains error_trigger")
	_, cmd := s.Update(press("ctrl+s"))
	s.Update(cmd())
	assert.ErrorIs(t, s.err, features.ErrAnalysisFailed)
}

func TestDocumentSection_ClosedDropsResult(t *testing.T) {
	s := newDocumentSection(styles.NewTheme(styles.ThemeDark), logging.Discard())
	s.input.SetValue("income")
	_, cmd := s.Update(press("ctrl+s"))
	s.Close()
	s.Update(cmd())
	assert.Nil(t, s.issues)
}

func TestGenerateSection_ClientCommunication(t *testing.T) {
	svc := &upstreamtest.Scripted{Fragments: []string{"Plain ", "**words**"}}
	s := newGenerateSection(features.ClientCommunicationAssistant,
		styles.NewTheme(styles.ThemeDark), svc, logging.Discard())
	s.SetSize(100, 30)

	s.Update(press("ctrl+a"))
	s.input.SetValue("Section 179 expensing limits apply.")
	_, cmd := s.Update(press("ctrl+s"))
	require.NotNil(t, cmd)
	require.True(t, s.running)
	assert.True(t, s.Capturing())

	// The request command is the last in the batch.
	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)
	s.Update(batch[len(batch)-1]())

	require.NotNil(t, s.resp)
	assert.Equal(t, "Plain **words**", s.resp.Text)
	calls := svc.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Prompt, string(features.Audiences()[1]))
	assert.True(t, calls[0].Opts.UseDefaultInstruction)
	assert.NotContains(t, s.View(), "**")
}

func TestGenerateSection_EmptyInput(t *testing.T) {
	svc := &upstreamtest.Scripted{}
	s := newGenerateSection(features.RegulatoryUpdateSummarizer,
		styles.NewTheme(styles.ThemeDark), svc, logging.Discard())

	_, cmd := s.Update(press("ctrl+s"))
	assert.Nil(t, cmd)
	assert.NotEmpty(t, s.notice)
	assert.Empty(t, svc.Calls())
}

func TestGenerateSection_MissingKey(t *testing.T) {
	s := newGenerateSection(features.RegulatoryUpdateSummarizer,
		styles.NewTheme(styles.ThemeDark), nil, logging.Discard())
	s.input.SetValue("text")
	_, cmd := s.Update(press("ctrl+s"))
	assert.Nil(t, cmd)
	assert.True(t, s.input.Disabled())
}

func TestGenerateSection_EscapeStopsRequest(t *testing.T) {
	svc := &upstreamtest.Scripted{Fragments: []string{"late"}}
	s := newGenerateSection(features.RegulatoryUpdateSummarizer,
		styles.NewTheme(styles.ThemeDark), svc, logging.Discard())
	s.input.SetValue("regulation")
	_, cmd := s.Update(press("ctrl+s"))
	s.Update(press("esc"))
	assert.False(t, s.running)

	batch := cmd().(tea.BatchMsg)
	s.Update(batch[len(batch)-1]())
	assert.Nil(t, s.resp, "result of a stopped request is dropped")
}
