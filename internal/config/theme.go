// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

// ThemeMode is the light/dark display preference.
type ThemeMode string

const (
	ThemeDark  ThemeMode = "dark"
	ThemeLight ThemeMode = "light"

	// DefaultTheme is used when no preference has been stored.
	DefaultTheme = ThemeDark
)

// ParseThemeMode parses a theme name. Case and surrounding space are ignored.
func ParseThemeMode(s string) (ThemeMode, error) {
	switch ThemeMode(strings.ToLower(strings.TrimSpace(s))) {
	case ThemeDark:
		return ThemeDark, nil
	case ThemeLight:
		return ThemeLight, nil
	}
	return "", fmt.Errorf("invalid theme '%s', must be 'dark' or 'light'", s)
}

// Toggle returns the opposite mode.
func (m ThemeMode) Toggle() ThemeMode {
	if m == ThemeLight {
		return ThemeDark
	}
	return ThemeLight
}

// IsDark reports whether the mode is dark. Unknown values count as dark.
func (m ThemeMode) IsDark() bool {
	return m != ThemeLight
}

func (m ThemeMode) String() string {
	return string(m)
}

// ThemeStore loads and saves the theme preference.
type ThemeStore interface {
	LoadTheme() (ThemeMode, error)
	SaveTheme(ThemeMode) error
}

// =============================================================================
// FILE STORE
// =============================================================================

// settingsFile is the on-disk shape of the UI settings file.
type settingsFile struct {
	Theme ThemeMode `toml:"theme"`
}

// FileThemeStore keeps the theme in a small TOML settings file.
type FileThemeStore struct {
	Path string
	mu   sync.Mutex
}

// NewFileThemeStore returns a store at path, or at SettingsPath when path is empty.
func NewFileThemeStore(path string) (*FileThemeStore, error) {
	if path == "" {
		p, err := SettingsPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return &FileThemeStore{Path: path}, nil
}

// LoadTheme returns DefaultTheme when the file does not exist.
func (s *FileThemeStore) LoadTheme() (ThemeMode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sf settingsFile
	if _, err := toml.DecodeFile(s.Path, &sf); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultTheme, nil
		}
		return DefaultTheme, fmt.Errorf("failed to read settings %s: %w", s.Path, err)
	}
	if sf.Theme == "" {
		return DefaultTheme, nil
	}
	mode, err := ParseThemeMode(string(sf.Theme))
	if err != nil {
		return DefaultTheme, err
	}
	return mode, nil
}

// SaveTheme writes the preference atomically.
func (s *FileThemeStore) SaveTheme(mode ThemeMode) error {
	mode, err := ParseThemeMode(string(mode))
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var sb strings.Builder
	if err := toml.NewEncoder(&sb).Encode(settingsFile{Theme: mode}); err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	return writeFileAtomic(s.Path, []byte(sb.String()), 0600)
}

// Remove deletes the settings file.
func (s *FileThemeStore) Remove() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// =============================================================================
// MEMORY STORE
// =============================================================================

// MemoryThemeStore is an in-process ThemeStore.
type MemoryThemeStore struct {
	mu    sync.Mutex
	mode  ThemeMode
	saves int
}

// NewMemoryThemeStore returns a store holding mode.
func NewMemoryThemeStore(mode ThemeMode) *MemoryThemeStore {
	return &MemoryThemeStore{mode: mode}
}

func (s *MemoryThemeStore) LoadTheme() (ThemeMode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == "" {
		return DefaultTheme, nil
	}
	return s.mode, nil
}

func (s *MemoryThemeStore) SaveTheme(mode ThemeMode) error {
	mode, err := ParseThemeMode(string(mode))
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
	s.saves++
	return nil
}

// Saves returns how many times SaveTheme succeeded.
func (s *MemoryThemeStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
