// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/taxassist-tui/internal/apperr"
	"github.com/jeranaias/taxassist-tui/internal/model"
)

// clearEnv isolates a test from the developer's environment.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"API_KEY", "GEMINI_API_KEY", "TAXASSIST_MODEL", "TAXASSIST_THEME", "TAXASSIST_LOG_LEVEL", "TAXASSIST_ADDR"} {
		t.Setenv(k, "")
	}
	t.Setenv("TAXASSIST_HOME", t.TempDir())
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, model.DefaultModel, cfg.Gemini.Model)
	assert.Equal(t, ThemeDark, cfg.UI.Theme)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
	assert.False(t, cfg.APIKeyPresent())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Gemini.Model, cfg.Gemini.Model)
}

func TestLoad_TOMLAndEnvPrecedence(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[gemini]
api_key = "from-file"
model = "pro"

[ui]
theme = "light"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Gemini.APIKey)
	assert.Equal(t, "pro", cfg.Gemini.Model)
	assert.Equal(t, ThemeLight, cfg.UI.Theme)
	// Partial files keep defaults elsewhere.
	assert.Equal(t, 60, cfg.Gemini.TimeoutSecs)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	t.Setenv("API_KEY", "from-api-key")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-api-key", cfg.Gemini.APIKey)

	t.Setenv("GEMINI_API_KEY", "from-gemini-key")
	t.Setenv("TAXASSIST_THEME", "DARK")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-gemini-key", cfg.Gemini.APIKey)
	assert.Equal(t, ThemeDark, cfg.UI.Theme)
}

func TestLoad_InvalidConfig(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[ui]\ntheme = \"sepia\"\n"), 0600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ui.theme")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"empty model", func(c *Config) { c.Gemini.Model = " " }, "gemini.model"},
		{"timeout too large", func(c *Config) { c.Gemini.TimeoutSecs = 601 }, "gemini.timeout_secs"},
		{"bad theme", func(c *Config) { c.UI.Theme = "blue" }, "ui.theme"},
		{"bad start feature", func(c *Config) { c.UI.StartFeature = "payroll" }, "ui.start_feature"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"negative burst", func(c *Config) { c.Server.Burst = -1 }, "server.burst"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			var verrs ValidateErrors
			require.True(t, errors.As(err, &verrs))
			assert.Equal(t, tt.field, verrs[0].Field)
		})
	}
}

func TestValidate_UnknownModelAllowed(t *testing.T) {
	cfg := Default()
	cfg.Gemini.Model = "gemini-9-ultra"
	assert.NoError(t, cfg.Validate())
}

func TestRequireAPIKey(t *testing.T) {
	cfg := Default()
	err := cfg.RequireAPIKey()
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrConfiguration))

	cfg.Gemini.APIKey = "   "
	assert.Error(t, cfg.RequireAPIKey())

	cfg.Gemini.APIKey = "k"
	assert.NoError(t, cfg.RequireAPIKey())
}

func TestSaveTOML_RoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.Gemini.Model = "flash"
	cfg.Server.AllowedOrigins = []string{"http://localhost:3000"}

	require.NoError(t, SaveTOML(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# taxassist configuration file"))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "flash", loaded.Gemini.Model)
	assert.Equal(t, []string{"http://localhost:3000"}, loaded.Server.AllowedOrigins)
}

func TestGetSet(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Set("ui.theme", "light"))
	v, err := cfg.Get("ui.theme")
	require.NoError(t, err)
	assert.Equal(t, ThemeLight, v)

	require.NoError(t, cfg.Set("gemini.timeout_secs", "30"))
	assert.Equal(t, 30, cfg.Gemini.TimeoutSecs)

	require.NoError(t, cfg.Set("ui.search_grounding", "yes"))
	assert.True(t, cfg.UI.SearchGrounding)

	require.NoError(t, cfg.Set("server.rate_limit", "2.5"))
	assert.Equal(t, 2.5, cfg.Server.RateLimit)

	require.NoError(t, cfg.Set("server.allowed_origins", "a, b"))
	assert.Equal(t, []string{"a", "b"}, cfg.Server.AllowedOrigins)

	_, err = cfg.Get("ui.nope")
	assert.Error(t, err)
	_, err = cfg.Get("ui.theme.deeper")
	assert.Error(t, err)
	assert.Error(t, cfg.Set("", "x"))
}

func TestGetAllKeys_Resolve(t *testing.T) {
	cfg := Default()
	for _, key := range GetAllKeys() {
		_, err := cfg.Get(key)
		assert.NoError(t, err, key)
	}
}

func TestString_RedactsKey(t *testing.T) {
	cfg := Default()
	cfg.Gemini.APIKey = "super-secret"
	s := cfg.String()
	assert.NotContains(t, s, "super-secret")
	assert.Contains(t, s, "[REDACTED]")
	assert.Equal(t, "super-secret", cfg.Gemini.APIKey)
}

func TestClone_Independent(t *testing.T) {
	cfg := Default()
	cfg.Server.AllowedOrigins = []string{"a"}
	clone := cfg.Clone()
	clone.Server.AllowedOrigins[0] = "b"
	clone.UI.Theme = ThemeLight
	assert.Equal(t, "a", cfg.Server.AllowedOrigins[0])
	assert.Equal(t, ThemeDark, cfg.UI.Theme)
}

// =============================================================================
// THEME STORE
// =============================================================================

func TestParseThemeMode(t *testing.T) {
	m, err := ParseThemeMode(" Light ")
	require.NoError(t, err)
	assert.Equal(t, ThemeLight, m)
	_, err = ParseThemeMode("")
	assert.Error(t, err)
	assert.Equal(t, ThemeLight, ThemeDark.Toggle())
	assert.Equal(t, ThemeDark, ThemeLight.Toggle())
	assert.True(t, ThemeMode("weird").IsDark())
}

func TestFileThemeStore(t *testing.T) {
	store := &FileThemeStore{Path: filepath.Join(t.TempDir(), "settings.toml")}

	mode, err := store.LoadTheme()
	require.NoError(t, err)
	assert.Equal(t, DefaultTheme, mode)

	require.NoError(t, store.SaveTheme(ThemeLight))
	mode, err = store.LoadTheme()
	require.NoError(t, err)
	assert.Equal(t, ThemeLight, mode)

	// A fresh store over the same file sees the saved value.
	other := &FileThemeStore{Path: store.Path}
	mode, err = other.LoadTheme()
	require.NoError(t, err)
	assert.Equal(t, ThemeLight, mode)

	assert.Error(t, store.SaveTheme("purple"))

	require.NoError(t, store.Remove())
	mode, err = store.LoadTheme()
	require.NoError(t, err)
	assert.Equal(t, DefaultTheme, mode)
}

func TestFileThemeStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(path, []byte("theme = [[["), 0600))
	store := &FileThemeStore{Path: path}
	mode, err := store.LoadTheme()
	assert.Error(t, err)
	assert.Equal(t, DefaultTheme, mode)
}

func TestMemoryThemeStore_Concurrent(t *testing.T) {
	store := NewMemoryThemeStore("")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			mode := ThemeDark
			if i%2 == 0 {
				mode = ThemeLight
			}
			_ = store.SaveTheme(mode)
			_, _ = store.LoadTheme()
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, store.Saves())
}

// =============================================================================
// WATCH
// =============================================================================

func TestWatch_ReloadsOnChange(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, SaveTOML(Default(), path))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- watch(ctx, path, 20*time.Millisecond, func(c *Config) { got <- c })
	}()

	// Give the watcher time to register.
	time.Sleep(100 * time.Millisecond)

	cfg := Default()
	cfg.UI.Theme = ThemeLight
	require.NoError(t, SaveTOML(cfg, path))

	select {
	case c := <-got:
		assert.Equal(t, ThemeLight, c.UI.Theme)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload observed")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
}
