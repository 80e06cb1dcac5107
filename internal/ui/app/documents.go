// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/taxassist-tui/internal/features"
	"github.com/jeranaias/taxassist-tui/internal/ui/components"
	"github.com/jeranaias/taxassist-tui/internal/ui/styles"
)

// analysisDoneMsg carries the result of one document analysis.
type analysisDoneMsg struct {
	seq    int
	issues []features.ComplianceIssue
	err    error
}

// documentSection accepts pasted document text and lists compliance issues.
type documentSection struct {
	theme  *styles.Theme
	logger *slog.Logger
	input  *components.InputArea
	scroll *components.ScrollView

	ctx     context.Context
	cancel  context.CancelFunc
	seq     int
	running bool
	issues  []features.ComplianceIssue
	err     error
	done    bool
	width   int
}

func newDocumentSection(theme *styles.Theme, logger *slog.Logger) *documentSection {
	ctx, cancel := context.WithCancel(context.Background())
	return &documentSection{
		theme:  theme,
		logger: logger,
		input:  components.NewInputArea(theme, "Document content", "Paste the document text here...", 6),
		scroll: components.NewScrollView(theme, 80, 10),
		ctx:    ctx,
		cancel: cancel,
		width:  80,
	}
}

func (s *documentSection) Init() tea.Cmd   { return s.input.Focus() }
func (s *documentSection) Capturing() bool { return false }
func (s *documentSection) Close()          { s.cancel() }

func (s *documentSection) SetTheme(t *styles.Theme) {
	s.theme = t
	s.input.SetTheme(t)
	s.scroll.SetTheme(t)
}

func (s *documentSection) SetSize(width, height int) {
	s.width = width
	s.input.SetWidth(width)
	s.scroll.SetSize(width, max(height-12, 4))
}

func (s *documentSection) Shortcuts() []components.Shortcut {
	return []components.Shortcut{
		{Key: "ctrl+s", Desc: "analyze"},
		{Key: "ctrl+r", Desc: "reset"},
		{Key: "esc", Desc: "back"},
	}
}

// analyze runs the analysis off the UI goroutine.
func (s *documentSection) analyze() tea.Cmd {
	if s.running {
		return nil
	}
	s.seq++
	s.running = true
	s.err = nil
	seq, ctx, text := s.seq, s.ctx, s.input.Value()
	s.logger.Info("document analysis started", "chars", len(text))
	return func() tea.Msg {
		issues, err := features.AnalyzeDocument(ctx, text)
		return analysisDoneMsg{seq: seq, issues: issues, err: err}
	}
}

func (s *documentSection) Update(msg tea.Msg) (section, tea.Cmd) {
	switch msg := msg.(type) {
	case analysisDoneMsg:
		if msg.seq != s.seq || s.ctx.Err() != nil {
			return s, nil
		}
		s.running = false
		s.done = true
		s.issues, s.err = msg.issues, msg.err
		if msg.err != nil {
			s.logger.Warn("document analysis failed", "error", msg.err)
		}
		s.scroll.SetContent(s.renderIssues())
		s.scroll.ScrollToTop()
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+s":
			return s, s.analyze()
		case "ctrl+r":
			s.input.Reset()
			s.issues, s.err, s.done = nil, nil, false
			return s, nil
		case "pgup", "pgdown":
			var cmd tea.Cmd
			s.scroll, cmd = s.scroll.Update(msg)
			return s, cmd
		}
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *documentSection) renderIssues() string {
	t := s.theme
	if len(s.issues) == 0 {
		return t.SuccessStyle.Render(styles.StatusIndicators.Success + " No compliance issues found.")
	}
	var sb strings.Builder
	sb.WriteString(t.SectionTitle.Render(fmt.Sprintf("%d potential issue(s)", len(s.issues))))
	for _, issue := range s.issues {
		sb.WriteString("\n\n")
		sb.WriteString(riskStyle(t, issue.RiskLevel).Render("[" + string(issue.RiskLevel) + " risk]"))
		sb.WriteString(" ")
		sb.WriteString(issue.Description)
		sb.WriteString("\n  ")
		sb.WriteString(t.OptionLabel.Render("Recommendation: "))
		sb.WriteString(issue.Recommendation)
		if issue.Reference != "" {
			sb.WriteString("\n  ")
			sb.WriteString(t.MessageMeta.Render("Reference: " + issue.Reference))
		}
	}
	return sb.String()
}

func (s *documentSection) View() string {
	t := s.theme
	var sb strings.Builder
	sb.WriteString(t.SectionIntro.Render("Paste a document to check it for common compliance issues. Analysis is simulated."))
	sb.WriteString("\n")
	sb.WriteString(s.input.View())
	sb.WriteString("\n")
	switch {
	case s.running:
		sb.WriteString(t.ThinkingText.Render("Analyzing document..."))
	case s.err != nil:
		sb.WriteString(t.ErrorBox.Render(t.ErrorTitle.Render("Analysis failed") + "\n" + t.ErrorMessage.Render(s.err.Error())))
	case s.done:
		sb.WriteString(s.scroll.View())
	}
	return sb.String()
}

func riskStyle(t *styles.Theme, level features.RiskLevel) lipgloss.Style {
	switch level {
	case features.RiskHigh:
		return t.RiskHigh
	case features.RiskMedium:
		return t.RiskMedium
	case features.RiskLow:
		return t.RiskLow
	}
	return t.MessageMeta
}
