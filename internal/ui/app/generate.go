// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/taxassist-tui/internal/apperr"
	"github.com/jeranaias/taxassist-tui/internal/features"
	"github.com/jeranaias/taxassist-tui/internal/markup"
	"github.com/jeranaias/taxassist-tui/internal/ui/components"
	"github.com/jeranaias/taxassist-tui/internal/ui/styles"
	"github.com/jeranaias/taxassist-tui/internal/upstream"
)

// generateDoneMsg carries the result of one one-shot request.
type generateDoneMsg struct {
	seq  int
	resp upstream.Response
	err  error
}

// generateSection turns pasted text into a single model request: the
// regulation summarizer and the client communication assistant.
type generateSection struct {
	feature features.Feature
	theme   *styles.Theme
	svc     upstream.Requester
	logger  *slog.Logger

	input     *components.InputArea
	scroll    *components.ScrollView
	spinner   components.Spinner
	audiences []features.Audience
	audience  int

	cancel  context.CancelFunc
	seq     int
	running bool
	resp    *upstream.Response
	err     error
	notice  string
	width   int
}

func newGenerateSection(f features.Feature, theme *styles.Theme, svc upstream.Requester, logger *slog.Logger) *generateSection {
	label, hint := "Regulation text", "Paste the regulation or tax law excerpt..."
	if f == features.ClientCommunicationAssistant {
		label, hint = "Technical explanation", "Paste the technical tax explanation to rewrite..."
	}
	s := &generateSection{
		feature:   f,
		theme:     theme,
		svc:       svc,
		logger:    logger.With("section", f.String()),
		input:     components.NewInputArea(theme, label, hint, 6),
		scroll:    components.NewScrollView(theme, 80, 10),
		spinner:   components.NewSpinner(theme, "Generating"),
		audiences: features.Audiences(),
		width:     80,
	}
	if svc == nil {
		s.input.SetDisabled("API key not configured. Feature disabled.")
	}
	return s
}

func (s *generateSection) Init() tea.Cmd { return s.input.Focus() }

// Capturing keeps esc for stopping a running request.
func (s *generateSection) Capturing() bool { return s.running }

func (s *generateSection) Close() {
	if s.cancel != nil {
		s.cancel()
	}
	s.running = false
	s.seq++
}

func (s *generateSection) SetTheme(t *styles.Theme) {
	s.theme = t
	s.input.SetTheme(t)
	s.scroll.SetTheme(t)
	s.spinner.SetTheme(t)
	s.renderResult()
}

func (s *generateSection) SetSize(width, height int) {
	s.width = width
	s.input.SetWidth(width)
	s.scroll.SetSize(width, max(height-13, 4))
	s.renderResult()
}

func (s *generateSection) Shortcuts() []components.Shortcut {
	hints := []components.Shortcut{{Key: "ctrl+s", Desc: "generate"}}
	if s.feature == features.ClientCommunicationAssistant {
		hints = append(hints, components.Shortcut{Key: "ctrl+a", Desc: "audience"})
	}
	return append(hints, components.Shortcut{Key: "esc", Desc: "stop/back"})
}

// prompt builds the request text for the current input.
func (s *generateSection) prompt() (string, error) {
	if s.feature == features.ClientCommunicationAssistant {
		return features.ClientCommunicationPrompt(s.input.Value(), s.audiences[s.audience])
	}
	return features.RegulatorySummaryPrompt(s.input.Value())
}

func (s *generateSection) generate() tea.Cmd {
	if s.svc == nil || s.running {
		return nil
	}
	prompt, err := s.prompt()
	if err != nil {
		s.notice = err.Error()
		return nil
	}
	s.notice = ""
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.seq++
	s.running = true
	s.err = nil
	s.resp = nil

	seq, svc := s.seq, s.svc
	opts := features.RequestOptions(s.feature, false)
	s.logger.Info("request sent", "chars", len(prompt))
	return tea.Batch(s.spinner.Start(), func() tea.Msg {
		resp, err := svc.Request(ctx, prompt, opts)
		return generateDoneMsg{seq: seq, resp: resp, err: err}
	})
}

func (s *generateSection) Update(msg tea.Msg) (section, tea.Cmd) {
	switch msg := msg.(type) {
	case generateDoneMsg:
		if msg.seq != s.seq {
			return s, nil
		}
		s.finish()
		if msg.err != nil {
			s.err = apperr.Classify("generate", msg.err)
			s.logger.Warn("request failed", "error", s.err)
			return s, nil
		}
		resp := msg.resp
		s.resp = &resp
		s.renderResult()
		s.scroll.ScrollToTop()
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+s":
			return s, s.generate()
		case "ctrl+a":
			if s.feature == features.ClientCommunicationAssistant && !s.running {
				s.audience = wrap(s.audience+1, len(s.audiences))
			}
			return s, nil
		case "esc":
			if s.running {
				s.finish()
				s.seq++
			}
			return s, nil
		case "pgup", "pgdown", "home", "end":
			var cmd tea.Cmd
			s.scroll, cmd = s.scroll.Update(msg)
			return s, cmd
		}
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	s.spinner, cmd = s.spinner.Update(msg)
	cmds = append(cmds, cmd)
	s.input, cmd = s.input.Update(msg)
	cmds = append(cmds, cmd)
	return s, tea.Batch(cmds...)
}

// finish ends the running request state and releases its context.
func (s *generateSection) finish() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.running = false
	s.spinner.Stop()
}

func (s *generateSection) renderResult() {
	if s.resp == nil {
		return
	}
	r := markup.NewTerminalRenderer(s.theme.Markup, max(s.width-4, 20))
	out := r.Render(s.resp.Text)
	if refs := components.RenderReferences(s.theme, s.resp.References, s.width-4); refs != "" {
		out += "\n\n" + refs
	}
	s.scroll.SetContent(out)
}

func (s *generateSection) View() string {
	t := s.theme
	var sb strings.Builder
	intro := "Paste a regulation to get a concise summary with key changes and action items."
	if s.feature == features.ClientCommunicationAssistant {
		intro = "Rewrite a technical explanation in plain language for a client."
	}
	sb.WriteString(t.SectionIntro.Render(intro))
	sb.WriteString("\n")
	if s.svc == nil {
		sb.WriteString(t.ConfigBanner.Render(apperr.MsgMissingKey))
		sb.WriteString("\n")
	}
	if s.feature == features.ClientCommunicationAssistant {
		sb.WriteString(renderOption(t, "Audience", string(s.audiences[s.audience]), false))
		sb.WriteString(t.MessageMeta.Render("  (ctrl+a to change)"))
		sb.WriteString("\n")
	}
	sb.WriteString(s.input.View())
	sb.WriteString("\n")

	switch {
	case s.running:
		sb.WriteString(s.spinner.View())
	case s.notice != "":
		sb.WriteString(t.WarningStyle.Render(s.notice))
	case s.err != nil:
		sb.WriteString(t.ErrorBox.Render(t.ErrorTitle.Render("Error") + "\n" + t.ErrorMessage.Render(apperr.UserMessage(s.err))))
	case s.resp != nil:
		sb.WriteString(s.scroll.View())
	}
	return sb.String()
}
