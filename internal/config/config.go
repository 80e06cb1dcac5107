// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jeranaias/taxassist-tui/internal/apperr"
	"github.com/jeranaias/taxassist-tui/internal/features"
	"github.com/jeranaias/taxassist-tui/internal/model"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete taxassist configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	Gemini  GeminiConfig  `toml:"gemini" json:"gemini"`
	UI      UIConfig      `toml:"ui" json:"ui"`
	Server  ServerConfig  `toml:"server" json:"server"`
	Logging LoggingConfig `toml:"logging" json:"logging"`
}

// GeminiConfig contains upstream service settings.
type GeminiConfig struct {
	// APIKey is the Gemini API key. Prefer GEMINI_API_KEY over storing it here.
	APIKey string `toml:"api_key" json:"api_key"`
	// Model is a short name from the model registry or a full model ID
	Model string `toml:"model" json:"model"`
	// TimeoutSecs bounds one-shot requests
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark" or "light"
	Theme ThemeMode `toml:"theme" json:"theme"`
	// StartFeature is the section opened on launch; empty shows the menu
	StartFeature string `toml:"start_feature" json:"start_feature"`
	// SearchGrounding is the initial state of the research chat search toggle
	SearchGrounding bool `toml:"search_grounding" json:"search_grounding"`
	// WordWrap is the wrap width for CLI output
	WordWrap int `toml:"word_wrap" json:"word_wrap"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Addr string `toml:"addr" json:"addr"`
	// RateLimit is the sustained requests per second per client
	RateLimit float64 `toml:"rate_limit" json:"rate_limit"`
	// Burst is the request burst per client
	Burst int `toml:"burst" json:"burst"`
	// AllowedOrigins lists websocket origins; empty means same-origin only
	AllowedOrigins []string `toml:"allowed_origins" json:"allowed_origins"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error
	Level string `toml:"level" json:"level"`
	// File is the JSON log file; empty means <config dir>/logs/taxassist.log
	File string `toml:"file" json:"file"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",
		Gemini: GeminiConfig{
			Model:       model.DefaultModel,
			TimeoutSecs: 60,
		},
		UI: UIConfig{
			Theme:           DefaultTheme,
			SearchGrounding: false,
			WordWrap:        80,
		},
		Server: ServerConfig{
			Addr:      "127.0.0.1:8080",
			RateLimit: 5,
			Burst:     20,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the taxassist configuration directory path.
// TAXASSIST_HOME overrides the default of ~/.taxassist.
func ConfigDir() (string, error) {
	if dir := os.Getenv("TAXASSIST_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".taxassist"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// SettingsPath returns the path to the UI settings file.
func SettingsPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "settings.toml"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from path, or from ConfigPath when path is empty.
// A missing file is not an error. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	LoadDotEnv()
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes the TOML file at path into cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	// SECURITY: Config files should be 0600 since they may hold the API key.
	if err := ensureSecurePermissions(path); err != nil {
		slog.Warn("could not ensure secure permissions", "path", path, "error", err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file %s: %w", path, err)
	}
	return nil
}

// LoadDotEnv loads ./.env if present. Variables already set in the
// environment take precedence.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not load .env", "error", err)
	}
}

// ensureSecurePermissions tightens permissions on files holding secrets.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode&0077 != 0 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var sb strings.Builder
	sb.WriteString("# taxassist configuration file\n")
	sb.WriteString("# Set GEMINI_API_KEY in the environment rather than storing the key here.\n\n")
	if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := writeFileAtomic(path, []byte(sb.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides:
//   - GEMINI_API_KEY, then API_KEY: overrides gemini.api_key
//   - TAXASSIST_MODEL: overrides gemini.model
//   - TAXASSIST_THEME: overrides ui.theme
//   - TAXASSIST_LOG_LEVEL: overrides logging.level
//   - TAXASSIST_ADDR: overrides server.addr
func (c *Config) ApplyEnvOverrides() {
	if key := os.Getenv("API_KEY"); key != "" {
		c.Gemini.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Gemini.APIKey = key
	}
	if m := os.Getenv("TAXASSIST_MODEL"); m != "" {
		c.Gemini.Model = m
	}
	if theme := os.Getenv("TAXASSIST_THEME"); theme != "" {
		c.UI.Theme = ThemeMode(strings.ToLower(theme))
	}
	if level := os.Getenv("TAXASSIST_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if addr := os.Getenv("TAXASSIST_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
}

// SetDefaults fills zero values left by a partial config file.
func (c *Config) SetDefaults() {
	d := Default()
	if c.Version == "" {
		c.Version = d.Version
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = d.Gemini.Model
	}
	if c.Gemini.TimeoutSecs <= 0 {
		c.Gemini.TimeoutSecs = d.Gemini.TimeoutSecs
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
	if c.UI.WordWrap <= 0 {
		c.UI.WordWrap = d.UI.WordWrap
	}
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Server.RateLimit <= 0 {
		c.Server.RateLimit = d.Server.RateLimit
	}
	if c.Server.Burst <= 0 {
		c.Server.Burst = d.Server.Burst
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
}

// =============================================================================
// CREDENTIAL CHECK
// =============================================================================

// APIKeyPresent reports whether an API key is configured.
func (c *Config) APIKeyPresent() bool {
	return strings.TrimSpace(c.Gemini.APIKey) != ""
}

// RequireAPIKey returns an apperr.ErrConfiguration error when no API key is
// configured.
func (c *Config) RequireAPIKey() error {
	if !c.APIKeyPresent() {
		return apperr.Configuration("config", "")
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if strings.TrimSpace(c.Gemini.Model) == "" {
		errs = append(errs, ValidationError{Field: "gemini.model", Message: "must not be empty"})
	} else if _, known := model.GetModelInfo(c.Gemini.Model); !known {
		// Unknown models are allowed; new ones ship faster than this registry.
		slog.Debug("model not in registry", "model", c.Gemini.Model)
	}
	if c.Gemini.TimeoutSecs < 0 || c.Gemini.TimeoutSecs > 600 {
		errs = append(errs, ValidationError{
			Field:   "gemini.timeout_secs",
			Message: fmt.Sprintf("must be between 0 and 600, got %d", c.Gemini.TimeoutSecs),
		})
	}

	if _, err := ParseThemeMode(string(c.UI.Theme)); err != nil {
		errs = append(errs, ValidationError{Field: "ui.theme", Message: err.Error()})
	}
	if c.UI.StartFeature != "" {
		if _, err := features.ParseFeature(c.UI.StartFeature); err != nil {
			errs = append(errs, ValidationError{Field: "ui.start_feature", Message: err.Error()})
		}
	}

	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Logging.Level),
		})
	}

	if c.Server.RateLimit < 0 {
		errs = append(errs, ValidationError{Field: "server.rate_limit", Message: "must not be negative"})
	}
	if c.Server.Burst < 0 {
		errs = append(errs, ValidationError{Field: "server.burst", Message: "must not be negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "ui.theme").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "ui.theme").
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")
	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})
	var result strings.Builder
	for _, part := range parts {
		result.WriteString(strings.ToUpper(part[:1]))
		result.WriteString(strings.ToLower(part[1:]))
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			s := strings.ToLower(strVal)
			field.SetBool(s == "1" || s == "true" || s == "yes")
			return nil
		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.String {
				var items []string
				for _, s := range strings.Split(strVal, ",") {
					if s = strings.TrimSpace(s); s != "" {
						items = append(items, s)
					}
				}
				field.Set(reflect.ValueOf(items))
				return nil
			}
		}
	}

	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"gemini.api_key",
		"gemini.model",
		"gemini.timeout_secs",
		"ui.theme",
		"ui.start_feature",
		"ui.search_grounding",
		"ui.word_wrap",
		"server.addr",
		"server.rate_limit",
		"server.burst",
		"server.allowed_origins",
		"logging.level",
		"logging.file",
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Server.AllowedOrigins = append([]string(nil), c.Server.AllowedOrigins...)
	return &clone
}

// String returns a JSON representation with the API key redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.Gemini.APIKey != "" {
		safe.Gemini.APIKey = "[REDACTED]"
	}
	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}
