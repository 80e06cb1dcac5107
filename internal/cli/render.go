// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/taxassist-tui/internal/markup"
	"github.com/jeranaias/taxassist-tui/internal/ui/styles"
)

func newRenderCommand(a *App) *cobra.Command {
	var format string
	var width int
	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render assistant markdown to the terminal or HTML",
		Long: `Render formats text written in the assistant's markdown subset:
paragraphs, **bold**, *italic*, bullet and numbered lists, and fenced code.

Reads the file argument, or stdin when no file is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if len(args) == 1 && args[0] != "-" {
				data, err = os.ReadFile(args[0])
			} else {
				data, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			out := cmd.OutOrStdout()
			if width <= 0 {
				width = a.wordWrap(out)
			}
			text := string(data)

			switch strings.ToLower(format) {
			case "html":
				fmt.Fprintln(out, markup.RenderHTML(text))
			case "plain":
				fmt.Fprintln(out, markup.NewTerminalRenderer(markup.PlainTerminalStyles(), width).Render(text))
			case "terminal", "":
				stylesFor := markup.PlainTerminalStyles()
				if styledOutput(out) {
					stylesFor = styles.NewTheme(a.cfg.UI.Theme).Markup
				}
				fmt.Fprintln(out, markup.NewTerminalRenderer(stylesFor, width).Render(text))
			default:
				return usageErrorf("unknown format %q (want terminal, plain or html)", format)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "terminal", "terminal, plain or html")
	cmd.Flags().IntVarP(&width, "width", "w", 0, "wrap width (default: terminal width)")
	return cmd
}
