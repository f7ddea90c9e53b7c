// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes chat transcripts to files.
//
// # Key Types
//
//   - Exporter: converts a Snapshot to bytes in one format
//   - Snapshot: a transcript frozen at export time
//   - Options: metadata and timestamp toggles
//
// # Supported Formats
//
//   - JSON: machine-readable, every message field
//   - YAML: the same structure as JSON
//   - Markdown: human-readable with model and cost lines
//
// # Usage
//
//	exp, err := export.NewExporter("md", nil)
//	if err != nil {
//	    return err
//	}
//	path, err := export.ToFile(session.Transcript(), exp, "chat.md")
package export
