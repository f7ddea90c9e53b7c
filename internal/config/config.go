// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jeranaias/mpcchat/internal/api"
	"github.com/jeranaias/mpcchat/internal/settings"
	"github.com/jeranaias/mpcchat/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete mpcchat configuration.
type Config struct {
	// Backend connection
	API APIConfig `toml:"api" json:"api"`

	// Initial session settings
	Defaults DefaultsConfig `toml:"defaults" json:"defaults"`

	// Log file
	Logging LoggingConfig `toml:"logging" json:"logging"`

	// Terminal presentation
	UI UIConfig `toml:"ui" json:"ui"`
}

// APIConfig configures the backend client.
type APIConfig struct {
	// BaseURL is the backend root, e.g. http://localhost:8000/api/v1.
	BaseURL string `toml:"base_url" json:"base_url"`

	// TimeoutSecs bounds each request. 0 disables the timeout.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
}

// Timeout returns the request timeout as a duration.
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSecs) * time.Second
}

// DefaultsConfig holds the values the settings panel starts with.
type DefaultsConfig struct {
	SenderPhone   string `toml:"sender_phone" json:"sender_phone"`
	Model         string `toml:"model" json:"model"`
	GenerateAudio bool   `toml:"generate_audio" json:"generate_audio"`
	UseRag        bool   `toml:"use_rag" json:"use_rag"`
	RagNamespace  string `toml:"rag_namespace" json:"rag_namespace"`
	RagTopK       int    `toml:"rag_top_k" json:"rag_top_k"`
}

// LoggingConfig configures the rotating log file.
type LoggingConfig struct {
	// Path is the log file. Empty means ~/.mpcchat/mpcchat.log.
	Path string `toml:"path" json:"path"`

	// Level is one of debug, info, warn, error.
	Level string `toml:"level" json:"level"`
}

// UIConfig configures terminal rendering.
type UIConfig struct {
	// Theme is auto, dark or light.
	Theme string `toml:"theme" json:"theme"`

	// ShowCost shows token and price details under bot messages.
	ShowCost bool `toml:"show_cost" json:"show_cost"`

	// Markdown renders bot replies with glamour.
	Markdown bool `toml:"markdown" json:"markdown"`

	// AudioDir is where saved replies are written. Empty means the working directory.
	AudioDir string `toml:"audio_dir" json:"audio_dir"`
}

// Valid themes.
const (
	ThemeAuto  = "auto"
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:     api.DefaultBaseURL,
			TimeoutSecs: int(api.DefaultTimeout / time.Second),
		},
		Defaults: DefaultsConfig{
			RagTopK: api.DefaultTopK,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		UI: UIConfig{
			Theme:    ThemeAuto,
			ShowCost: true,
			Markdown: true,
		},
	}
}

// InitialSettings converts the defaults section into session settings.
func (c *Config) InitialSettings() settings.Settings {
	return settings.Settings{
		SenderPhone:   c.Defaults.SenderPhone,
		Model:         c.Defaults.Model,
		GenerateAudio: c.Defaults.GenerateAudio,
		UseRag:        c.Defaults.UseRag,
		RagNamespace:  c.Defaults.RagNamespace,
		RagTopK:       c.Defaults.RagTopK,
	}
}

// LogPath returns the configured log file or the default location.
func (c *Config) LogPath() string {
	if c.Logging.Path != "" {
		return c.Logging.Path
	}
	dir, err := ConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "mpcchat.log")
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// HomeEnv overrides the configuration directory.
const HomeEnv = "MPCCHAT_HOME"

// ConfigDir returns the mpcchat configuration directory path.
func ConfigDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".mpcchat"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir creates the config directory with owner-only access.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o700)
}

// ensureSecurePermissions tightens a config file to 0600. The file holds a
// phone number.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0o600 {
		if err := os.Chmod(path, 0o600); err != nil {
			return fmt.Errorf("fix permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// LoadDotEnv loads variables from the given .env files (default ./.env)
// without overriding variables already set. Missing files are skipped.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads ~/.mpcchat/config.toml, falling back to config.json and then
// to defaults. Environment overrides are applied last. A file that fails to
// parse is reported together with a usable default configuration.
func Load() (*Config, error) {
	var loadErr error

	if path, err := ConfigPathTOML(); err == nil && fileExists(path) {
		cfg := Default()
		err := LoadTOML(cfg, path)
		if err == nil {
			return finish(cfg)
		}
		loadErr = fmt.Errorf("load TOML config: %w", err)
	}

	if path, err := ConfigPathJSON(); err == nil && fileExists(path) {
		cfg := Default()
		err := LoadJSON(cfg, path)
		if err == nil {
			return finish(cfg)
		}
		if loadErr == nil {
			loadErr = fmt.Errorf("load JSON config: %w", err)
		}
	}

	cfg, err := finish(Default())
	if err != nil {
		return nil, err
	}
	return cfg, loadErr
}

// LoadFromPath loads a specific file (JSON when the extension is .json,
// TOML otherwise) with overrides, defaults and validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("load TOML config from %s: %w", path, err)
		}
	}
	return finish(cfg)
}

// LoadTOML decodes a TOML file into cfg. Keys absent from the file keep
// their current values.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("decode TOML: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file into cfg. Keys absent from the file keep
// their current values.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read JSON: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("decode JSON: %w", err)
	}
	return nil
}

func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes cfg to the default TOML path.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg as TOML with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# mpcchat configuration file\n")
	buf.WriteString("# Environment variables MPCCHAT_API_URL, MPCCHAT_PHONE, MPCCHAT_MODEL,\n")
	buf.WriteString("# MPCCHAT_TIMEOUT and MPCCHAT_LOG_LEVEL override the values below.\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(path, buf.Bytes(), 0o600, 0o700); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// SaveJSON writes cfg as indented JSON with 0600 permissions.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(path, data, 0o600, 0o700); err != nil {
		return fmt.Errorf("write config file: %w", err)
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

// Validate checks the configuration and returns ValidateErrors when any
// field is out of range.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if u, err := url.Parse(c.API.BaseURL); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, ValidationError{Field: "api.base_url", Message: fmt.Sprintf("must be an http(s) URL, got %q", c.API.BaseURL)})
	}
	if c.API.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{Field: "api.timeout_secs", Message: "must be 0 (disabled) or positive"})
	}
	if c.Defaults.RagTopK < 1 || c.Defaults.RagTopK > 20 {
		errs = append(errs, ValidationError{Field: "defaults.rag_top_k", Message: "must be between 1 and 20"})
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, ValidationError{Field: "logging.level", Message: fmt.Sprintf("unknown level %q", c.Logging.Level)})
	}
	switch c.UI.Theme {
	case ThemeAuto, ThemeDark, ThemeLight:
	default:
		errs = append(errs, ValidationError{Field: "ui.theme", Message: fmt.Sprintf("must be auto, dark or light, got %q", c.UI.Theme)})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills empty fields with built-in values.
func (c *Config) SetDefaults() {
	d := Default()
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if c.API.BaseURL == "" {
		c.API.BaseURL = d.API.BaseURL
	}
	if c.Defaults.RagTopK == 0 {
		c.Defaults.RagTopK = d.Defaults.RagTopK
	}
	c.Defaults.SenderPhone = strings.TrimSpace(c.Defaults.SenderPhone)
	c.Defaults.Model = strings.TrimSpace(c.Defaults.Model)
	c.Defaults.RagNamespace = strings.TrimSpace(c.Defaults.RagNamespace)
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	c.UI.Theme = strings.ToLower(strings.TrimSpace(c.UI.Theme))
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// Environment variables read by ApplyEnvOverrides.
const (
	EnvAPIURL   = "MPCCHAT_API_URL"
	EnvPhone    = "MPCCHAT_PHONE"
	EnvModel    = "MPCCHAT_MODEL"
	EnvTimeout  = "MPCCHAT_TIMEOUT"
	EnvLogLevel = "MPCCHAT_LOG_LEVEL"
)

// ApplyEnvOverrides applies MPCCHAT_* environment variables to the config.
// A malformed MPCCHAT_TIMEOUT is ignored.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv(EnvPhone); v != "" {
		c.Defaults.SenderPhone = v
	}
	if v := os.Getenv(EnvModel); v != "" {
		c.Defaults.Model = v
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		if secs, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			c.API.TimeoutSecs = secs
		}
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String renders the config as TOML with the phone number redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.Defaults.SenderPhone != "" {
		safe.Defaults.SenderPhone = "[REDACTED]"
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(safe); err != nil {
		return fmt.Sprintf("<config: %v>", err)
	}
	return buf.String()
}
