// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/jeranaias/taxassist-tui/internal/chatstream"
	"github.com/jeranaias/taxassist-tui/internal/config"
	"github.com/jeranaias/taxassist-tui/internal/export"
	"github.com/jeranaias/taxassist-tui/internal/features"
	"github.com/jeranaias/taxassist-tui/internal/model"
	"github.com/jeranaias/taxassist-tui/internal/upstream"
)

// =============================================================================
// INPUT
// =============================================================================

// lineReader reads one line of user input at a time. Prompt returns io.EOF
// when input ends.
type lineReader interface {
	Prompt(prompt string) (string, error)
	Close() error
}

// linerReader provides line editing and persistent history on a terminal.
type linerReader struct {
	line        *liner.State
	historyFile string
}

func newLinerReader() *linerReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	r := &linerReader{line: line, historyFile: filepath.Join(dir, "chat_history")}
	if f, err := os.Open(r.historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	return r
}

func (r *linerReader) Prompt(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history with owner-only permissions and restores the terminal.
func (r *linerReader) Close() error {
	if err := os.MkdirAll(filepath.Dir(r.historyFile), 0o700); err == nil {
		if f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600); err == nil {
			_, _ = r.line.WriteHistory(f)
			f.Close()
		}
	}
	return r.line.Close()
}

// scanReader reads piped input without echoing a prompt.
type scanReader struct {
	scanner *bufio.Scanner
}

func (r *scanReader) Prompt(string) (string, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.scanner.Text(), nil
}

func (r *scanReader) Close() error { return nil }

func newLineReader(in io.Reader) lineReader {
	if isTerminal(in) {
		return newLinerReader()
	}
	return &scanReader{scanner: bufio.NewScanner(in)}
}

// =============================================================================
// COMMAND
// =============================================================================

func newChatCommand(a *App) *cobra.Command {
	var featureName string
	var search bool
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start a streaming chat in the terminal",
		Long: `Chat opens a line-based conversation with the assistant. Replies stream
as they arrive and earlier turns are sent as context.

Type /help for the chat commands. Ctrl+C cancels a reply in progress;
Ctrl+D or /exit leaves.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			feature, err := features.ParseFeature(featureName)
			if err != nil {
				return &UsageError{Err: err}
			}
			if feature != features.TaxResearch && feature != features.AppExplanationAssistant {
				return usageErrorf("chat supports tax-research and app-explanation, not %s", feature)
			}
			svc, err := a.requireService(cmd.Context())
			if err != nil {
				return err
			}
			session := &chatSession{
				app:     a,
				svc:     svc,
				feature: feature,
				search:  search || a.cfg.UI.SearchGrounding,
				out:     cmd.OutOrStdout(),
				errOut:  cmd.ErrOrStderr(),
			}
			reader := newLineReader(cmd.InOrStdin())
			defer reader.Close()
			return session.run(cmd, reader)
		},
	}
	cmd.Flags().StringVarP(&featureName, "feature", "f", features.TaxResearch.String(), "tax-research or app-explanation")
	cmd.Flags().BoolVarP(&search, "search", "s", false, "ground answers with web search")
	return cmd
}

// chatSession is one terminal conversation.
type chatSession struct {
	app     *App
	svc     upstream.Streamer
	feature features.Feature
	search  bool
	out     io.Writer
	errOut  io.Writer

	conv     *model.Conversation
	consumer *chatstream.Consumer
}

func (s *chatSession) run(cmd *cobra.Command, reader lineReader) error {
	s.conv = model.NewConversation()
	printer := &deltaPrinter{w: s.out, conv: s.conv}
	s.consumer = chatstream.NewConsumer(s.conv, printer.render, chatstream.WithLogger(s.app.logger))
	defer s.consumer.Detach()

	p := newPainter(s.out)
	fmt.Fprintf(s.out, "%s  %s\n", p.render(TitleStyle, features.AppName), p.render(DimStyle, s.feature.Title()))
	fmt.Fprintln(s.out, p.render(DimStyle, "Type /help for commands."))

	prompt := p.render(InfoStyle, "taxassist> ")
	for {
		input, err := reader.Prompt(prompt)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				fmt.Fprintln(s.out)
				return nil
			}
			return err
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if strings.HasPrefix(input, "/") {
			if !s.command(input) {
				return nil
			}
			continue
		}
		s.turn(cmd, input)
	}
}

// turn streams one reply. Ctrl+C cancels only this turn.
func (s *chatSession) turn(cmd *cobra.Command, prompt string) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	opts := features.RequestOptions(s.feature, s.search)
	err := s.consumer.Stream(ctx, s.svc, prompt, opts)
	fmt.Fprintln(s.out)
	if err != nil {
		DisplayError(s.errOut, err)
		return
	}
	if last := s.conv.Last(); last != nil {
		writePlainReferences(s.out, last.Snapshot().References)
	}
}

// command runs a slash command. It returns false to end the session.
func (s *chatSession) command(input string) bool {
	fields := strings.Fields(input)
	name, args := strings.ToLower(fields[0]), fields[1:]
	p := newPainter(s.out)

	switch name {
	case "/exit", "/quit", "/q":
		return false

	case "/help", "/?":
		fmt.Fprintln(s.out, chatHelp)

	case "/search":
		switch {
		case s.feature != features.TaxResearch:
			fmt.Fprintln(s.out, p.render(WarningStyle, "Search grounding is only available in tax research."))
			return true
		case len(args) == 0:
			s.search = !s.search
		default:
			s.search = args[0] == "on" || args[0] == "true"
		}
		fmt.Fprintf(s.out, "Search grounding %s.\n", onOff(s.search))

	case "/clear":
		if err := s.consumer.Reset(); err != nil {
			DisplayError(s.errOut, err)
			return true
		}
		fmt.Fprintln(s.out, "Conversation cleared.")

	case "/export":
		format, path := "", ""
		for _, arg := range args {
			if _, err := export.ParseFormat(arg); err == nil && format == "" && path == "" && filepath.Ext(arg) == "" {
				format = arg
				continue
			}
			path = arg
		}
		saved, err := s.app.exportConversation(s.conv, s.feature, path, format)
		if err != nil {
			DisplayError(s.errOut, err)
			return true
		}
		fmt.Fprintf(s.out, "%s %s\n", p.render(SuccessStyle, "Saved to"), saved)

	default:
		fmt.Fprintln(s.errOut, p.render(WarningStyle, "Unknown command "+name+". Type /help."))
	}
	return true
}

const chatHelp = `Commands:
  /search [on|off]        toggle web search grounding
  /clear                  start a new conversation
  /export [fmt] [path]    save the conversation (md, html, json)
  /help                   show this help
  /exit                   leave`

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
