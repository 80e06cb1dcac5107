// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/jeranaias/taxassist-tui/internal/config"
	"github.com/jeranaias/taxassist-tui/internal/ui/app"
)

// runTUI starts the full-screen interface.
func (a *App) runTUI(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usageErrorf("unknown command %q for %q", args[0], cmd.CommandPath())
	}
	if !IsTTY() || !IsStdoutTTY() {
		return errors.New("the interactive UI needs a terminal; use 'taxassist ask' for scripted use")
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	svc, err := a.service(ctx)
	if err != nil {
		// The UI still runs with the model sections disabled.
		a.logger.Warn("model client unavailable", "error", err)
		svc = nil
	}

	start, _ := cmd.Flags().GetString("feature")
	start = lo.CoalesceOrEmpty(start, a.cfg.UI.StartFeature)

	var store config.ThemeStore = config.NewMemoryThemeStore(a.cfg.UI.Theme)
	if path, err := config.SettingsPath(); err == nil {
		if fs, err := config.NewFileThemeStore(path); err == nil {
			store = fs
		} else {
			a.logger.Warn("theme preference not persisted", "error", err)
		}
	}

	m := app.New(app.Options{
		Config:     a.cfg,
		ConfigPath: a.configPath,
		Service:    svc,
		ThemeStore: store,
		Logger:     a.logger,
		Start:      start,
		Now:        a.Now,
	})
	defer m.Shutdown()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))

	go func() {
		err := config.Watch(ctx, a.configPath, func(c *config.Config) {
			p.Send(app.ConfigReloadedMsg{Config: c})
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Warn("config watcher stopped", "error", err)
		}
	}()

	a.logger.Info("ui starting", "start", start, "model_enabled", svc != nil)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
