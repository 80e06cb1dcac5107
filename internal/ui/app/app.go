// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/taxassist-tui/internal/config"
	"github.com/jeranaias/taxassist-tui/internal/features"
	"github.com/jeranaias/taxassist-tui/internal/ui/chat"
	"github.com/jeranaias/taxassist-tui/internal/ui/components"
	"github.com/jeranaias/taxassist-tui/internal/ui/styles"
	"github.com/jeranaias/taxassist-tui/internal/upstream"
)

// State is the top-level screen.
type State int

const (
	StateMenu State = iota
	StateSection
)

// Options configures the root model.
type Options struct {
	Config *config.Config
	// ConfigPath is shown in the settings pane.
	ConfigPath string
	// Service is nil when no API key is configured.
	Service    upstream.Service
	ThemeStore config.ThemeStore
	Logger     *slog.Logger
	// Start names a section to open on launch; empty shows the menu.
	Start string
	// Now is the clock used for the deadline year. Defaults to time.Now.
	Now func() time.Time
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the root Bubble Tea model.
type Model struct {
	cfg        *config.Config
	configPath string
	svc        upstream.Service
	store      config.ThemeStore
	logger     *slog.Logger
	now        func() time.Time

	theme   *styles.Theme
	keys    keyMap
	state   State
	menu    components.FeatureMenu
	current section
	active  features.Feature
	header  components.Header
	toasts  *components.ToastManager

	width  int
	height int
}

type keyMap struct {
	Quit        key.Binding
	Back        key.Binding
	ToggleTheme key.Binding
	Up          key.Binding
	Down        key.Binding
	Open        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:        key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		Back:        key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		ToggleTheme: key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "theme")),
		Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("up/k", "up")),
		Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("down/j", "down")),
		Open:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
	}
}

// New creates the root model. The theme is read from the store; a store
// error is logged and the configured theme used instead.
func New(opts Options) *Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	store := opts.ThemeStore
	if store == nil {
		store = config.NewMemoryThemeStore(cfg.UI.Theme)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	mode, err := store.LoadTheme()
	if err != nil {
		logger.Warn("theme preference unreadable, using default", "error", err)
		mode = cfg.UI.Theme
	}

	m := &Model{
		cfg:        cfg,
		configPath: opts.ConfigPath,
		svc:        opts.Service,
		store:      store,
		logger:     logger,
		now:        now,
		theme:      styles.NewTheme(mode),
		keys:       defaultKeyMap(),
		menu:       components.NewFeatureMenu(opts.Service != nil),
		header:     components.NewHeader(),
		toasts:     components.NewToastManager(),
		width:      80,
		height:     24,
	}
	m.header.ModelName = cfg.Gemini.Model
	m.theme.SetSize(m.width, m.height)

	if opts.Start != "" {
		if f, err := features.ParseFeature(opts.Start); err != nil {
			logger.Warn("unknown start section, showing menu", "section", opts.Start)
		} else {
			m.menu.Select(f)
			m.open(f)
		}
	}
	return m
}

// streamer returns the service as a Streamer, or a nil interface when no
// key is configured.
func (m *Model) streamer() upstream.Streamer {
	if m.svc == nil {
		return nil
	}
	return m.svc
}

// requester returns the service as a Requester, or a nil interface.
func (m *Model) requester() upstream.Requester {
	if m.svc == nil {
		return nil
	}
	return m.svc
}

// State returns the current screen.
func (m *Model) State() State {
	return m.state
}

// Active returns the open section's feature. Only meaningful in StateSection.
func (m *Model) Active() features.Feature {
	return m.active
}

// Theme returns the current theme.
func (m *Model) Theme() *styles.Theme {
	return m.theme
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{components.ToastTickCmd()}
	if m.current != nil {
		cmds = append(cmds, m.current.Init())
	}
	return tea.Batch(cmds...)
}

// open closes the current section and opens f.
func (m *Model) open(f features.Feature) tea.Cmd {
	m.closeSection()
	m.active = f
	m.state = StateSection
	m.current = m.newSection(f)
	m.current.SetSize(m.bodySize())
	m.logger.Debug("section opened", "section", f.String())
	return m.current.Init()
}

func (m *Model) closeSection() {
	if m.current != nil {
		m.current.Close()
		m.logger.Debug("section closed", "section", m.active.String())
	}
	m.current = nil
	m.state = StateMenu
}

// Shutdown releases the open section before the program exits.
func (m *Model) Shutdown() {
	m.closeSection()
}

func (m *Model) toggleTheme() {
	m.theme = m.theme.Toggled()
	if m.current != nil {
		m.current.SetTheme(m.theme)
	}
	if err := m.store.SaveTheme(m.theme.Mode); err != nil {
		m.logger.Warn("theme preference not saved", "error", err)
		m.toasts.Add(components.NewToast(components.ToastKindWarning, "Theme preference could not be saved."))
	}
}

// ConfigReloadedMsg carries a config re-read from disk. The theme and model
// name are applied; the API key only takes effect after a restart.
type ConfigReloadedMsg struct {
	Config *config.Config
}

func (m *Model) applyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	prev := m.cfg
	m.cfg = cfg
	m.header.ModelName = cfg.Gemini.Model

	if cfg.UI.Theme != prev.UI.Theme && cfg.UI.Theme != m.theme.Mode {
		m.theme = styles.NewTheme(cfg.UI.Theme)
		m.theme.SetSize(m.width, m.height)
		if m.current != nil {
			m.current.SetTheme(m.theme)
		}
	}
	if m.state == StateSection && m.active == features.Settings {
		m.current.Close()
		m.current = m.newSection(features.Settings)
		m.current.SetSize(m.bodySize())
	}
	if cfg.Gemini.APIKey != prev.Gemini.APIKey {
		m.toasts.Add(components.NewToast(components.ToastKindWarning, "API key changed. Restart to apply it."))
		return
	}
	m.toasts.AddStatus("Configuration reloaded.")
}

// bodySize is the space left for a section under the header and above the
// status bar.
func (m *Model) bodySize() (int, int) {
	return m.width, max(m.height-6, 5)
}

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.theme.SetSize(msg.Width, msg.Height)
		m.header.Width = msg.Width
		m.menu.Width = msg.Width
		if m.current != nil {
			m.current.SetSize(m.bodySize())
		}
		return m, nil

	case components.ToastTickMsg:
		m.toasts.Tick()
		return m, components.ToastTickCmd()

	case toggleThemeMsg:
		m.toggleTheme()
		return m, nil

	case ConfigReloadedMsg:
		m.applyConfig(msg.Config)
		m.logger.Info("config reloaded", "theme", m.theme.Mode.String(), "model", m.cfg.Gemini.Model)
		return m, nil

	case chat.TurnFailedMsg:
		m.toasts.AddError(msg.Err)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.current != nil {
		var cmd tea.Cmd
		m.current, cmd = m.current.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Shutdown()
		return m, tea.Quit
	case key.Matches(msg, m.keys.ToggleTheme):
		m.toggleTheme()
		return m, nil
	}

	if m.state == StateMenu {
		switch {
		case key.Matches(msg, m.keys.Up):
			m.menu.Up()
		case key.Matches(msg, m.keys.Down):
			m.menu.Down()
		case key.Matches(msg, m.keys.Open):
			return m, m.open(m.menu.Selected())
		case msg.String() == "q":
			return m, tea.Quit
		}
		return m, nil
	}

	if key.Matches(msg, m.keys.Back) && !m.current.Capturing() {
		m.closeSection()
		return m, nil
	}
	var cmd tea.Cmd
	m.current, cmd = m.current.Update(msg)
	return m, cmd
}

// =============================================================================
// VIEW
// =============================================================================

// View implements tea.Model.
func (m *Model) View() string {
	header := m.header
	var body string
	var hints []components.Shortcut

	switch m.state {
	case StateMenu:
		header.Section = ""
		body = m.menuView()
		hints = []components.Shortcut{
			{Key: "up/down", Desc: "move"},
			{Key: "enter", Desc: "open"},
			{Key: "ctrl+t", Desc: "theme"},
			{Key: "q", Desc: "quit"},
		}
	case StateSection:
		header.Section = m.active.Title()
		body = m.theme.SectionTitle.Render(m.active.Title()) + "\n" + m.current.View()
		hints = append(m.current.Shortcuts(),
			components.Shortcut{Key: "ctrl+t", Desc: "theme"},
			components.Shortcut{Key: "ctrl+c", Desc: "quit"})
	}

	status := "API key: missing"
	if m.svc != nil {
		status = "API key: set"
	}
	bar := components.StatusBar{Shortcuts: hints, Status: status + " · " + m.theme.Mode.String(), Width: m.width}

	parts := []string{header.View(m.theme), body}
	if toasts := components.RenderToastStack(m.theme, m.toasts.Toasts(), m.width); toasts != "" {
		parts = append(parts, toasts)
	}
	parts = append(parts, bar.View(m.theme))
	return m.theme.App.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m *Model) menuView() string {
	var sb strings.Builder
	sb.WriteString(m.theme.SectionIntro.Render("Welcome. Choose a tool to get started."))
	sb.WriteString("\n\n")
	sb.WriteString(m.menu.View(m.theme))
	if m.svc == nil {
		sb.WriteString("\n\n")
		sb.WriteString(m.theme.ConfigBanner.Render(
			"AI features are disabled: set GEMINI_API_KEY (or API_KEY) and restart."))
	}
	return sb.String()
}
