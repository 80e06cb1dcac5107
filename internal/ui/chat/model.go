// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/taxassist-tui/internal/apperr"
	"github.com/jeranaias/taxassist-tui/internal/chatstream"
	"github.com/jeranaias/taxassist-tui/internal/features"
	"github.com/jeranaias/taxassist-tui/internal/model"
	"github.com/jeranaias/taxassist-tui/internal/ui/components"
	"github.com/jeranaias/taxassist-tui/internal/ui/styles"
	"github.com/jeranaias/taxassist-tui/internal/upstream"
)

// Config configures a chat section.
type Config struct {
	Feature features.Feature
	// Service is nil when no API key is configured; the section then shows
	// the configuration banner and refuses input.
	Service upstream.Streamer
	Theme   *styles.Theme
	Logger  *slog.Logger
	// Search is the initial state of the search grounding toggle.
	Search bool
}

// =============================================================================
// MODEL
// =============================================================================

// Model is a chat section. It is used by pointer; Update mutates in place.
type Model struct {
	feature features.Feature
	svc     upstream.Streamer
	theme   *styles.Theme
	logger  *slog.Logger
	keys    KeyMap

	consumer  *chatstream.Consumer
	input     *components.InputArea
	scroll    *components.ScrollView
	spinner   components.Spinner
	cancelMgr *cancelManager
	pump      *streamPump
	streamSeq int

	search bool
	width  int
	height int
}

// New creates a chat section with an empty conversation.
func New(cfg Config) *Model {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := &Model{
		feature:   cfg.Feature,
		svc:       cfg.Service,
		theme:     cfg.Theme,
		logger:    logger.With("section", cfg.Feature.String()),
		keys:      DefaultKeyMap(),
		scroll:    components.NewScrollView(cfg.Theme, 80, 20),
		spinner:   components.NewSpinner(cfg.Theme, "Thinking"),
		cancelMgr: newCancelManager(),
		search:    cfg.Search,
		width:     80,
		height:    24,
	}
	m.spinner.SetAnimation(styles.DotsSpinner)
	m.input = components.NewInputArea(cfg.Theme, "", placeholder(cfg.Feature), 3)
	m.consumer = chatstream.NewConsumer(model.NewConversation(), m.refresh,
		chatstream.WithLogger(m.logger))
	m.refresh()
	return m
}

func placeholder(f features.Feature) string {
	if f == features.AppExplanationAssistant {
		return "Ask about the app..."
	}
	return "Ask your tax question..."
}

// Init focuses the input.
func (m *Model) Init() tea.Cmd {
	return m.input.Focus()
}

// Feature returns the section's feature.
func (m *Model) Feature() features.Feature {
	return m.feature
}

// Busy reports whether a response is streaming.
func (m *Model) Busy() bool {
	return m.consumer.Busy()
}

// Search reports whether search grounding is on.
func (m *Model) Search() bool {
	return m.search
}

// Messages returns a snapshot of the conversation.
func (m *Model) Messages() []model.ChatMessage {
	return m.consumer.Messages()
}

// LastError returns the error of the last failed turn.
func (m *Model) LastError() error {
	return m.consumer.LastError()
}

// SetSize lays the section out in width x height cells.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.SetWidth(width)
	// input (5) + search line (1) + spinner/error (3)
	m.scroll.SetSize(width, max(height-9, 3))
	m.refresh()
}

// SetTheme restyles the section after a theme toggle.
func (m *Model) SetTheme(theme *styles.Theme) {
	m.theme = theme
	m.input.SetTheme(theme)
	m.scroll.SetTheme(theme)
	m.spinner.SetTheme(theme)
	m.refresh()
}

// Close detaches the consumer and cancels the stream. Fragments that
// arrive afterwards are ignored.
func (m *Model) Close() {
	m.consumer.Detach()
	m.cancelMgr.cancel()
	m.pump = nil
	m.spinner.Stop()
}

// Shortcuts returns the key hints for the status bar.
func (m *Model) Shortcuts() []components.Shortcut {
	hints := []components.Shortcut{
		{Key: "enter", Desc: "send"},
		{Key: "esc", Desc: "stop/back"},
	}
	if m.feature == features.TaxResearch {
		hints = append(hints, components.Shortcut{Key: "ctrl+g", Desc: "web search"})
	}
	return append(hints, components.Shortcut{Key: "ctrl+l", Desc: "clear"})
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles input and stream messages. Escape is consumed only while a
// response is streaming; otherwise the caller treats it as "back".
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case FragmentMsg:
		return m.handleFragment(msg)

	case StreamErrorMsg:
		if m.pump == nil || msg.Stream != m.pump.id {
			return m, nil
		}
		return m, m.finishFailed(msg.Err)

	case StreamClosedMsg:
		if m.pump == nil || msg.Stream != m.pump.id {
			return m, nil
		}
		// A stream that returns without a terminal callback was cancelled.
		if m.consumer.Busy() {
			return m, m.finishFailed(context.Canceled)
		}
		m.pump = nil
		return m, nil

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.scroll, cmd = m.scroll.Update(msg)
		return m, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	cmds = append(cmds, cmd)
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) (*Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		return m, m.submit()

	case key.Matches(msg, m.keys.Cancel):
		if m.consumer.Busy() {
			m.cancelMgr.cancel()
		}
		return m, nil

	case key.Matches(msg, m.keys.ToggleSearch):
		if m.feature == features.TaxResearch {
			m.search = !m.search
		}
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		if err := m.consumer.Reset(); err != nil {
			m.logger.Debug("clear refused", "error", err)
		}
		return m, nil

	case key.Matches(msg, m.keys.PageUp, m.keys.PageDown, m.keys.Home, m.keys.End):
		var cmd tea.Cmd
		m.scroll, cmd = m.scroll.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit starts a turn for the current input.
func (m *Model) submit() tea.Cmd {
	if m.svc == nil || m.consumer.Busy() {
		return nil
	}
	prompt := strings.TrimSpace(m.input.Value())
	if prompt == "" {
		return nil
	}

	pending, err := m.consumer.Begin(prompt)
	if err != nil {
		m.logger.Debug("prompt refused", "error", err)
		return nil
	}
	m.input.Reset()

	ctx, cancel := context.WithCancel(context.Background())
	m.cancelMgr.set(cancel)
	m.streamSeq++
	opts := features.RequestOptions(m.feature, m.search)
	m.pump = startPump(ctx, m.streamSeq, m.svc, pending, opts)
	m.logger.Info("prompt sent", "search", opts.UseSearchGrounding, "prior_turns", len(pending.Prior))

	m.refresh()
	m.spinner.SetMessage("Thinking")
	m.spinner.SetShowTimer(true)
	return tea.Batch(m.pump.next(), m.spinner.Start())
}

func (m *Model) handleFragment(msg FragmentMsg) (*Model, tea.Cmd) {
	if m.pump == nil || msg.Stream != m.pump.id {
		return m, nil
	}
	if err := m.consumer.Consume(msg.Text, msg.Final, msg.References); err != nil {
		m.logger.Debug("fragment dropped", "error", err)
	}
	if !msg.Final {
		if msg.Text != "" {
			// Stop counting once text is on screen.
			m.spinner.SetMessage("Writing")
			m.spinner.SetShowTimer(false)
		}
		return m, m.pump.next()
	}

	m.cancelMgr.cancel()
	m.pump = nil
	m.spinner.Stop()
	m.refresh()

	var id string
	if last := m.consumer.Conversation().Last(); last != nil {
		id = last.ID
	}
	return m, func() tea.Msg { return TurnCompletedMsg{MessageID: id} }
}

func (m *Model) finishFailed(err error) tea.Cmd {
	classified := m.consumer.Fail(err)
	m.cancelMgr.cancel()
	m.pump = nil
	m.spinner.Stop()
	m.refresh()
	if classified == nil {
		return nil
	}
	return func() tea.Msg { return TurnFailedMsg{Err: classified} }
}

// =============================================================================
// VIEW
// =============================================================================

// refresh re-renders the conversation into the scroll view. It is the
// consumer's render callback, so it runs once per applied fragment.
func (m *Model) refresh() {
	msgs := m.consumer.Messages()
	if len(msgs) == 0 {
		m.scroll.SetContent(m.theme.SectionIntro.Render(m.feature.Description()))
	} else {
		m.scroll.SetContent(components.RenderConversation(m.theme, msgs, m.width))
	}

	switch {
	case m.svc == nil:
		m.input.SetDisabled("API key not configured. Feature disabled.")
	case m.consumer.Busy():
		m.input.SetDisabled("Waiting for the response... (esc to stop)")
	default:
		m.input.SetDisabled("")
	}
}

// View renders the section body.
func (m *Model) View() string {
	var sb strings.Builder
	sb.WriteString(m.scroll.View())
	sb.WriteString("\n")

	if m.svc == nil {
		sb.WriteString(m.theme.ConfigBanner.Render(apperr.UserMessage(apperr.Configuration("chat", ""))))
		sb.WriteString("\n")
	} else if err := m.consumer.LastError(); err != nil {
		sb.WriteString(m.theme.ErrorBox.Render(
			m.theme.ErrorTitle.Render("Error") + "\n" + m.theme.ErrorMessage.Render(apperr.UserMessage(err))))
		sb.WriteString("\n")
	}
	if s := m.spinner.View(); s != "" {
		sb.WriteString(s)
		sb.WriteString("\n")
	}

	if m.feature == features.TaxResearch {
		toggle := m.theme.ToggleOff.Render("[ ] web search")
		if m.search {
			toggle = m.theme.ToggleOn.Render("[x] web search")
		}
		sb.WriteString(toggle + m.theme.MessageMeta.Render("  ctrl+g: recent information, slower, may cite web sources"))
		sb.WriteString("\n")
	}
	sb.WriteString(m.input.View())
	return sb.String()
}
