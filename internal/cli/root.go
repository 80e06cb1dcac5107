// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/taxassist-tui/internal/config"
	"github.com/jeranaias/taxassist-tui/internal/features"
	"github.com/jeranaias/taxassist-tui/internal/gemini"
	"github.com/jeranaias/taxassist-tui/internal/logging"
	"github.com/jeranaias/taxassist-tui/internal/upstream"
)

// Version information (overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// ServiceFactory builds the upstream client for a configuration that has
// an API key.
type ServiceFactory func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (upstream.Service, error)

// App holds what the commands share: the loaded config, the logger and the
// way to reach the model.
type App struct {
	// NewService defaults to the Gemini client.
	NewService ServiceFactory
	// Logger, when set, replaces the configured logger.
	Logger *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time

	configPath string
	logLevel   string

	cfg      *config.Config
	logger   *slog.Logger
	closeLog func() error
}

// NewGeminiService is the default ServiceFactory.
func NewGeminiService(ctx context.Context, cfg *config.Config, logger *slog.Logger) (upstream.Service, error) {
	client, err := gemini.NewClient(ctx, gemini.Config{
		APIKey:             cfg.Gemini.APIKey,
		Model:              cfg.Gemini.Model,
		DefaultInstruction: features.TaxAssistantInstruction,
		Timeout:            time.Duration(cfg.Gemini.TimeoutSecs) * time.Second,
		Logger:             logger,
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("gemini client ready", "model", client.Model(), "key", client.KeyFingerprint())
	return client, nil
}

// Execute runs the command line and returns the process exit code.
func Execute(args []string) int {
	a := &App{}
	root := NewRootCommand(a)
	root.SetArgs(args)
	err := root.Execute()
	a.close()
	if err != nil {
		DisplayError(root.ErrOrStderr(), err)
	}
	return ExitCode(err)
}

// NewRootCommand builds the command tree. Without a subcommand the terminal
// UI starts.
func NewRootCommand(a *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "taxassist",
		Short: features.AppName,
		Long: features.AppName + ` by ` + features.CompanyName + `

An AI assistant for tax professionals: research with optional web search,
regulation summaries, client communication drafts, compliance checklists,
filing deadlines and document review.

Set GEMINI_API_KEY (or API_KEY) to enable the AI features.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[annotationNoSetup] != "" {
				return nil
			}
			// The UI owns the terminal, so its logs only go to the file.
			console := cmd.ErrOrStderr()
			if cmd.Root() == cmd {
				console = io.Discard
			}
			return a.setup(console)
		},
		RunE: a.runTUI,
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default ~/.taxassist/config.toml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.Flags().String("feature", "", "open this section on launch, e.g. tax-research")

	root.AddCommand(
		newAskCommand(a),
		newChatCommand(a),
		newRenderCommand(a),
		newServeCommand(a),
		newChecklistCommand(a),
		newDeadlinesCommand(a),
		newAnalyzeCommand(a),
		newFeaturesCommand(a),
		newConfigCommand(a),
		newVersionCommand(),
	)
	return root
}

// annotationNoSetup marks commands that run without loading the config.
const annotationNoSetup = "no-setup"

// setup loads the config and the logger once per invocation.
func (a *App) setup(console io.Writer) error {
	if a.cfg != nil {
		return nil
	}
	if a.configPath == "" {
		p, err := config.ConfigPath()
		if err != nil {
			return err
		}
		a.configPath = p
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	a.cfg = cfg

	if a.Logger != nil {
		a.logger = a.Logger
		return nil
	}
	opts := logging.FromConfig(cfg)
	opts.Console = console
	a.logger, a.closeLog = logging.Setup(opts)
	return nil
}

func (a *App) close() {
	if a.closeLog != nil {
		_ = a.closeLog()
		a.closeLog = nil
	}
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// service returns the upstream client, or nil when no key is configured.
func (a *App) service(ctx context.Context) (upstream.Service, error) {
	if !a.cfg.APIKeyPresent() {
		return nil, nil
	}
	factory := a.NewService
	if factory == nil {
		factory = NewGeminiService
	}
	return factory(ctx, a.cfg, a.logger)
}

// requireService is service for commands that cannot run without the model.
func (a *App) requireService(ctx context.Context) (upstream.Service, error) {
	if err := a.cfg.RequireAPIKey(); err != nil {
		return nil, err
	}
	return a.service(ctx)
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoSetup: "true"},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "taxassist %s\n", Version)
			fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", GitCommit)
			fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", BuildDate)
		},
	}
}
