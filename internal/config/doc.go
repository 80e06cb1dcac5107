// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for taxassist.
//
// Settings come from a TOML file, a .env file and environment variables,
// with sensible defaults for everything except the Gemini API key.
//
// # Key Types
//
//   - Config: main configuration structure
//   - ThemeMode: the light/dark preference, passed explicitly to every view
//   - ThemeStore: injected load/save collaborator for the theme preference
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (GEMINI_API_KEY, API_KEY, TAXASSIST_*)
//   - ./.env (only sets variables that are not already set)
//   - ~/.taxassist/config.toml
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.RequireAPIKey(); err != nil {
//	    // show the disabled state instead of attempting a call
//	}
//
// A missing API key is not a validation error. It is reported separately by
// RequireAPIKey as an apperr.ErrConfiguration so that the UI can start and
// show the affected actions as disabled.
package config
