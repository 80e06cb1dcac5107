// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/taxassist-tui/internal/chatstream"
	"github.com/jeranaias/taxassist-tui/internal/export"
	"github.com/jeranaias/taxassist-tui/internal/features"
	"github.com/jeranaias/taxassist-tui/internal/model"
	"github.com/jeranaias/taxassist-tui/internal/upstream"
)

// Output modes for ask.
const (
	outputAuto     = "auto"
	outputPlain    = "plain"
	outputMarkdown = "markdown"
	outputHTML     = "html"
	outputJSON     = "json"
)

type askOptions struct {
	feature     string
	audience    string
	instruction string
	file        string
	output      string
	export      string
	search      bool
	noStream    bool
}

func newAskCommand(a *App) *cobra.Command {
	opts := &askOptions{}
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a single question and print the answer",
		Long: `Ask sends one prompt to the model and prints the reply.

The prompt is taken from the arguments, from --file, or from stdin when
stdin is not a terminal. Generator features (regulation-summarizer,
client-communication) wrap the input in their prompt template.`,
		Example: `  taxassist ask "Is a home office deductible for an S-Corp owner?" --search
  taxassist ask -f regulation-summarizer --file notice.txt
  taxassist ask -f client-communication --audience investor < memo.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAsk(cmd, args, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.feature, "feature", "f", features.TaxResearch.String(), "feature to use")
	f.StringVar(&opts.audience, "audience", string(features.DefaultAudience), "audience for client-communication")
	f.StringVar(&opts.instruction, "instruction", "", "replace the system instruction")
	f.StringVar(&opts.file, "file", "", "read the prompt from a file ('-' for stdin)")
	f.StringVarP(&opts.output, "output", "o", outputAuto, "output: auto, plain, markdown, html, json")
	f.StringVar(&opts.export, "export", "", "also save the exchange to this file (.md, .html or .json)")
	f.BoolVarP(&opts.search, "search", "s", false, "ground the answer with web search (tax-research only)")
	f.BoolVar(&opts.noStream, "no-stream", false, "wait for the full reply instead of streaming")
	return cmd
}

func (a *App) runAsk(cmd *cobra.Command, args []string, opts *askOptions) error {
	feature, err := features.ParseFeature(opts.feature)
	if err != nil {
		return &UsageError{Err: err}
	}
	if !feature.UsesModel() {
		return usageErrorf("%s does not use the model; see 'taxassist %s'", feature.Title(), toolCommand(feature))
	}
	audience, err := features.ParseAudience(opts.audience)
	if err != nil {
		return &UsageError{Err: err}
	}
	mode, err := resolveOutput(opts.output, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	input, err := readInput(cmd.InOrStdin(), args, opts.file)
	if err != nil {
		return err
	}
	prompt, err := features.Prompt(feature, input, audience)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	svc, err := a.requireService(ctx)
	if err != nil {
		return err
	}

	reqOpts := features.RequestOptions(feature, opts.search)
	if opts.instruction != "" {
		reqOpts.CustomInstruction = opts.instruction
		reqOpts.UseDefaultInstruction = false
	}
	if opts.search && feature != features.TaxResearch {
		a.logger.Warn("search grounding is only used by tax research", "feature", feature.String())
	}

	out := cmd.OutOrStdout()
	conv := model.NewConversation()
	streaming := mode == outputPlain && !opts.noStream

	a.logger.Debug("ask", "feature", feature.String(), "stream", streaming, "search", reqOpts.UseSearchGrounding)
	if streaming {
		printer := &deltaPrinter{w: out, conv: conv}
		consumer := chatstream.NewConsumer(conv, printer.render, chatstream.WithLogger(a.logger))
		if err := consumer.Stream(ctx, svc, prompt, reqOpts); err != nil {
			fmt.Fprintln(out)
			return err
		}
		fmt.Fprintln(out)
		writePlainReferences(out, conv.Last().Snapshot().References)
	} else {
		if err := requestInto(ctx, svc, conv, prompt, reqOpts); err != nil {
			return err
		}
		reply := conv.Last().Snapshot()
		if err := a.writeReply(out, mode, feature, prompt, reply); err != nil {
			return err
		}
	}

	if opts.export != "" {
		path, err := a.exportConversation(conv, feature, opts.export, "")
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved to %s\n", path)
	}
	return nil
}

// requestInto runs a non-streaming request and records the exchange in conv
// as a closed turn.
func requestInto(ctx context.Context, svc upstream.Requester, conv *model.Conversation, prompt string, opts upstream.Options) error {
	resp, err := svc.Request(ctx, prompt, opts)
	if err != nil {
		return err
	}
	conv.Add(model.NewUserMessage(prompt))
	ai := model.NewAIMessage()
	if err := ai.AppendFragment(resp.Text); err != nil {
		return err
	}
	if err := ai.Close(resp.References); err != nil {
		return err
	}
	conv.Add(ai)
	return nil
}

// resolveOutput maps auto to markdown on a terminal and plain otherwise.
func resolveOutput(mode string, w io.Writer) (string, error) {
	switch mode = strings.ToLower(strings.TrimSpace(mode)); mode {
	case outputAuto, "":
		if isTerminal(w) {
			return outputMarkdown, nil
		}
		return outputPlain, nil
	case outputPlain, outputMarkdown, outputHTML, outputJSON:
		return mode, nil
	}
	return "", usageErrorf("unknown output %q (want auto, plain, markdown, html or json)", mode)
}

// readInput joins the arguments, or reads path, or reads stdin when it is
// piped.
func readInput(stdin io.Reader, args []string, path string) (string, error) {
	if path != "" {
		if len(args) > 0 {
			return "", usageErrorf("pass the prompt as arguments or with --file, not both")
		}
		var data []byte
		var err error
		if path == "-" {
			data, err = io.ReadAll(stdin)
		} else {
			data, err = os.ReadFile(path)
		}
		if err != nil {
			return "", fmt.Errorf("read prompt: %w", err)
		}
		return string(data), nil
	}
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if !isTerminal(stdin) {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read prompt: %w", err)
		}
		return string(data), nil
	}
	return "", usageErrorf("no prompt given")
}

// askResult is the JSON form of a reply.
type askResult struct {
	Feature    string            `json:"feature"`
	Prompt     string            `json:"prompt"`
	Text       string            `json:"text"`
	References []model.Reference `json:"references,omitempty"`
	Model      string            `json:"model"`
}

func (a *App) writeReply(w io.Writer, mode string, feature features.Feature, prompt string, reply model.ChatMessage) error {
	switch mode {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(askResult{
			Feature:    feature.String(),
			Prompt:     prompt,
			Text:       reply.Text,
			References: validRefs(reply.References),
			Model:      a.cfg.Gemini.Model,
		})
	case outputHTML:
		fmt.Fprintln(w, replyHTML(reply.Text))
		writeHTMLReferences(w, reply.References)
	case outputMarkdown:
		fmt.Fprint(w, renderMarkdown(withSources(reply.Text, reply.References), a.wordWrap(w)))
	default:
		fmt.Fprintln(w, reply.Text)
		writePlainReferences(w, reply.References)
	}
	return nil
}

func (a *App) wordWrap(w io.Writer) int {
	if a.cfg.UI.WordWrap > 0 {
		return a.cfg.UI.WordWrap
	}
	return terminalWidth(w)
}

// exportConversation saves conv to path. An empty format is taken from the
// file extension.
func (a *App) exportConversation(conv *model.Conversation, feature features.Feature, path, format string) (string, error) {
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(path), ".")
	}
	f := export.FormatMarkdown
	if format != "" {
		parsed, err := export.ParseFormat(format)
		if err != nil {
			return "", &UsageError{Err: err}
		}
		f = parsed
	}
	opts := export.DefaultOptions()
	opts.Theme = a.cfg.UI.Theme.String()
	opts.Now = a.Now
	if filepath.Ext(path) == "" && path != "" {
		opts.OutputDir = path
	} else {
		opts.Path = path
	}
	return export.ToFile(export.FromConversation(conv, feature.Title(), a.cfg.Gemini.Model), f, opts)
}

// toolCommand names the subcommand that serves a local feature.
func toolCommand(f features.Feature) string {
	switch f {
	case features.ChecklistGeneration:
		return "checklist"
	case features.DeadlineTracking:
		return "deadlines"
	case features.DocumentAnalysis:
		return "analyze"
	}
	return "config"
}
