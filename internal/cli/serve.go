// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/taxassist-tui/internal/server"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(a *App) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the assistant over HTTP and WebSocket",
		Long: `Serve exposes the assistant to browser and script clients:

  GET  /health                  liveness and model availability
  GET  /api/features            the feature catalogue
  POST /api/render              markdown to HTML
  POST /api/ask                 one-shot question
  GET  /api/chat                streaming chat (WebSocket)
  GET  /api/checklist           compliance checklist
  GET  /api/deadlines           filing deadlines
  POST /api/documents/analyze   document review

Without an API key the server still starts; model endpoints answer 503.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg := a.cfg
			if addr != "" {
				cfg = cfg.Clone()
				cfg.Server.Addr = addr
			}

			svc, err := a.service(ctx)
			if err != nil {
				return err
			}
			if svc == nil {
				a.logger.Warn("no API key configured; model endpoints are disabled")
			}

			srv := server.New(server.Options{
				Config:  cfg,
				Service: svc,
				Logger:  a.logger,
				Version: Version,
				Now:     a.Now,
			})

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			select {
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			a.logger.Info("shutting down", "timeout", shutdownTimeout)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, "+server.DefaultAddr+")")
	return cmd
}
