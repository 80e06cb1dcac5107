// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the process logger: readable text on the console
// and JSON lines in a log file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	slogmulti "github.com/samber/slog-multi"

	"github.com/jeranaias/taxassist-tui/internal/config"
)

// Options controls where log records go.
type Options struct {
	Level slog.Level
	// File is the JSON log file. Empty disables file output.
	File string
	// Console receives text records. Nil means os.Stderr; the TUI passes
	// io.Discard so records do not draw over the screen.
	Console io.Writer
}

// ParseLevel converts a config level name to a slog.Level.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// FromConfig derives Options from cfg. The default log file lives under the
// config directory.
func FromConfig(cfg *config.Config) Options {
	opts := Options{Level: ParseLevel(cfg.Logging.Level), File: cfg.Logging.File}
	if opts.File == "" {
		if dir, err := config.ConfigDir(); err == nil {
			opts.File = filepath.Join(dir, "logs", "taxassist.log")
		}
	}
	return opts
}

// Setup creates the logger and returns it with a cleanup function that
// closes the log file. If the file cannot be opened the logger falls back
// to console only.
func Setup(opts Options) (*slog.Logger, func() error) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	consoleHandler := slog.NewTextHandler(console, &slog.HandlerOptions{Level: opts.Level})
	noop := func() error { return nil }

	if opts.File == "" {
		return slog.New(consoleHandler), noop
	}

	file, err := openLogFile(opts.File)
	if err != nil {
		logger := slog.New(consoleHandler)
		logger.Error("failed to open log file, using console only", "error", err, "file", opts.File)
		return logger, noop
	}

	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: opts.Level})
	logger := slog.New(slogmulti.Fanout(consoleHandler, fileHandler))
	return logger, file.Close
}

// NewWithWriters creates a fanout logger over arbitrary writers.
func NewWithWriters(console, file io.Writer, level slog.Level) *slog.Logger {
	consoleHandler := slog.NewTextHandler(console, &slog.HandlerOptions{Level: level})
	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})
	return slog.New(slogmulti.Fanout(consoleHandler, fileHandler))
}

// Discard returns a logger that drops everything. Used as the default
// collaborator when a caller does not inject one.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
}
