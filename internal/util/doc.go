// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides file and string helpers shared across mpcchat:
// crash-safe file writes for config, exports and saved audio, and
// display-width aware truncation for terminal rendering.
package util
