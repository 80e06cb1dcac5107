// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"

	"github.com/spf13/cobra"

	"github.com/jeranaias/taxassist-tui/internal/config"
)

func newConfigCommand(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change configuration",
		Long: `Config reads and writes ~/.taxassist/config.toml (or the file given
with --config). Keys use dot notation, e.g. ui.theme or gemini.model.

The API key is never printed. Prefer GEMINI_API_KEY in the environment
to storing it in the file.`,
	}
	cmd.AddCommand(
		newConfigShowCommand(a),
		newConfigPathCommand(a),
		newConfigGetCommand(a),
		newConfigSetCommand(a),
		newConfigKeysCommand(),
	)
	return cmd
}

func newConfigShowCommand(a *App) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if asJSON {
				fmt.Fprintln(out, a.cfg.String())
				return nil
			}
			p := newPainter(out)
			fmt.Fprintln(out, p.render(TitleStyle, "Configuration"))
			fmt.Fprintln(out, p.render(DimStyle, a.configPath))
			fmt.Fprintln(out, p.separator(48))
			for _, key := range config.GetAllKeys() {
				v, err := a.cfg.Get(key)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s %v\n", p.label(key), displayValue(key, v))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newConfigPathCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), a.configPath)
		},
	}
}

func newConfigGetCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print one configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.cfg.Get(args[0])
			if err != nil {
				return &UsageError{Err: err}
			}
			fmt.Fprintln(cmd.OutOrStdout(), displayValue(args[0], v))
			return nil
		},
	}
}

func newConfigSetCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one configuration value and save the file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			// Start from the file alone so environment overrides are not
			// written back.
			updated := config.Default()
			if err := config.LoadTOML(updated, a.configPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			if err := updated.Set(key, value); err != nil {
				return &UsageError{Err: err}
			}
			if err := updated.Validate(); err != nil {
				return err
			}
			if err := config.SaveTOML(updated, a.configPath); err != nil {
				return err
			}
			a.logger.Info("config updated", "key", key)

			v, _ := updated.Get(key)
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %v\n", key, displayValue(key, v))
			return nil
		},
	}
}

func newConfigKeysCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "keys",
		Short:       "List configuration keys",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoSetup: "true"},
		Run: func(cmd *cobra.Command, _ []string) {
			for _, key := range config.GetAllKeys() {
				fmt.Fprintln(cmd.OutOrStdout(), key)
			}
		},
	}
}

var secretKeys = []string{"gemini.api_key"}

// displayValue hides secrets.
func displayValue(key string, v any) any {
	if !slices.Contains(secretKeys, key) {
		return v
	}
	if s, _ := v.(string); s != "" {
		return "[REDACTED]"
	}
	return "(not set)"
}
