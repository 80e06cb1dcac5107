// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/jeranaias/taxassist-tui/internal/features"
)

func writeJSONOut(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// =============================================================================
// CHECKLIST
// =============================================================================

func newChecklistCommand(a *App) *cobra.Command {
	var entityName, jurisdictionName string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "checklist",
		Short: "Generate a compliance checklist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entity, err := features.ParseEntityType(entityName)
			if err != nil {
				return &UsageError{Err: err}
			}
			jurisdiction, err := features.ParseJurisdiction(jurisdictionName)
			if err != nil {
				return &UsageError{Err: err}
			}

			list := features.GenerateChecklist(entity, jurisdiction)
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSONOut(out, list)
			}

			p := newPainter(out)
			fmt.Fprintln(out, p.render(TitleStyle, fmt.Sprintf("Compliance checklist: %s, %s", entity, jurisdiction)))
			fmt.Fprintln(out, p.separator(48))
			for _, item := range list.Items {
				fmt.Fprintf(out, "[ ] %s\n", item.Text)
				if item.Details != "" {
					fmt.Fprintf(out, "    %s\n", p.render(DimStyle, item.Details))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&entityName, "entity", "e", string(features.Corporate), "entity type")
	cmd.Flags().StringVarP(&jurisdictionName, "jurisdiction", "j", string(features.Federal), "jurisdiction")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// =============================================================================
// DEADLINES
// =============================================================================

func newDeadlinesCommand(a *App) *cobra.Command {
	var entityName, jurisdictionName string
	var year int
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "deadlines",
		Short: "List filing and payment deadlines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entity, err := features.ParseEntityType(entityName)
			if err != nil {
				return &UsageError{Err: err}
			}
			jurisdiction, err := features.ParseJurisdiction(jurisdictionName)
			if err != nil {
				return &UsageError{Err: err}
			}

			now := a.now()
			if year == 0 {
				year = now.Year()
			}
			list := features.FilterDeadlines(features.Deadlines(year), jurisdiction, entity)

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSONOut(out, list)
			}

			p := newPainter(out)
			fmt.Fprintln(out, p.render(TitleStyle, fmt.Sprintf("Tax deadlines %d", year)))
			fmt.Fprintln(out, p.separator(48))
			if len(list) == 0 {
				fmt.Fprintln(out, "No deadlines match the filters.")
				return nil
			}
			today := now.UTC().Truncate(24 * time.Hour)
			for _, d := range list {
				date := d.DateString()
				if d.Date.Before(today) {
					date = p.render(DimStyle, date+" (past)")
				}
				scope := string(d.Jurisdiction)
				if d.EntityType != "" {
					scope += ", " + string(d.EntityType)
				}
				fmt.Fprintf(out, "%s  %s  %s\n", date, d.Name, p.render(DimStyle, scope))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&entityName, "entity", "e", string(features.AllEntities), "entity type")
	cmd.Flags().StringVarP(&jurisdictionName, "jurisdiction", "j", string(features.AllJurisdictions), "jurisdiction")
	cmd.Flags().IntVar(&year, "year", 0, "tax year (default: current year)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// =============================================================================
// DOCUMENT ANALYSIS
// =============================================================================

func newAnalyzeCommand(a *App) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Review a document for compliance issues",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if len(args) == 1 && args[0] != "-" {
				data, err = os.ReadFile(args[0])
			} else {
				data, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("read document: %w", err)
			}

			issues, err := features.AnalyzeDocument(cmd.Context(), string(data))
			if err != nil {
				return err
			}
			a.logger.Debug("document analyzed", "bytes", len(data), "issues", len(issues))

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSONOut(out, issues)
			}
			p := newPainter(out)
			if len(issues) == 0 {
				fmt.Fprintln(out, p.render(SuccessStyle, "No compliance issues found."))
				return nil
			}
			fmt.Fprintln(out, p.render(TitleStyle, fmt.Sprintf("%d compliance issue(s)", len(issues))))
			fmt.Fprintln(out, p.separator(48))
			for _, issue := range issues {
				fmt.Fprintf(out, "%s %s\n", p.render(riskStyle(issue.RiskLevel), "["+strings.ToUpper(string(issue.RiskLevel))+"]"), issue.Description)
				fmt.Fprintf(out, "  %s %s\n", p.label("Recommendation:"), issue.Recommendation)
				if issue.Reference != "" {
					fmt.Fprintf(out, "  %s %s\n", p.label("Reference:"), issue.Reference)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func riskStyle(level features.RiskLevel) lipgloss.Style {
	switch level {
	case features.RiskHigh:
		return ErrorStyle
	case features.RiskMedium:
		return WarningStyle
	}
	return InfoStyle
}

// =============================================================================
// FEATURES
// =============================================================================

func newFeaturesCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "features",
		Short: "List the assistant's features",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			p := newPainter(out)
			enabled := a.cfg.APIKeyPresent()
			for _, g := range features.Groups() {
				fmt.Fprintln(out, p.render(SectionStyle, g.Title))
				for _, f := range g.Features {
					note := ""
					if f.UsesModel() && !enabled {
						note = p.render(WarningStyle, " (needs API key)")
					}
					fmt.Fprintf(out, "  %s %s%s\n", p.label(f.String()), f.Description(), note)
				}
			}
		},
	}
}
