// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/taxassist-tui/internal/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
}

func TestNewWithWriters_Fanout(t *testing.T) {
	var console, file bytes.Buffer
	logger := NewWithWriters(&console, &file, slog.LevelInfo)

	logger.Info("request complete", "feature", "tax-research")
	logger.Debug("hidden")

	assert.Contains(t, console.String(), "request complete")
	assert.Contains(t, console.String(), "feature=tax-research")
	assert.NotContains(t, console.String(), "hidden")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(file.Bytes()), &rec))
	assert.Equal(t, "request complete", rec["msg"])
	assert.Equal(t, "tax-research", rec["feature"])
}

func TestSetup_WritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "taxassist.log")
	logger, closeFn := Setup(Options{Level: slog.LevelInfo, File: path, Console: io.Discard})
	logger.Warn("stream failed", "kind", "request")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"msg":"stream failed"`))
}

func TestSetup_UnwritableFileFallsBack(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0600))

	var console bytes.Buffer
	logger, closeFn := Setup(Options{Level: slog.LevelInfo, File: filepath.Join(blocker, "x.log"), Console: &console})
	require.NotNil(t, logger)
	assert.NoError(t, closeFn())
	assert.Contains(t, console.String(), "failed to open log file")
}

func TestFromConfig_DefaultFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("TAXASSIST_HOME", home)
	cfg := config.Default()
	cfg.Logging.Level = "debug"

	opts := FromConfig(cfg)
	assert.Equal(t, slog.LevelDebug, opts.Level)
	assert.Equal(t, filepath.Join(home, "logs", "taxassist.log"), opts.File)
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	assert.False(t, logger.Enabled(context.Background(), slog.LevelError))
}
