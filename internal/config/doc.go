// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for mpcchat.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// a .env file, environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: main configuration structure
//   - APIConfig: backend base URL and request timeout
//   - DefaultsConfig: initial values of the session settings
//   - LoggingConfig: log file location and level
//   - UIConfig: terminal presentation options
//
// # Configuration Precedence
//
// Configuration is resolved from (highest first):
//   - Command-line flags (applied by the cli package)
//   - Environment variables (MPCCHAT_*), including those from ./.env
//   - ~/.mpcchat/config.toml
//   - ~/.mpcchat/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	client := api.NewClient(cfg.API.BaseURL).WithTimeout(cfg.API.Timeout())
//	store := settings.NewStore(cfg.InitialSettings())
package config
