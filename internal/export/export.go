// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/mpcchat/internal/model"
	"github.com/jeranaias/mpcchat/internal/util"
)

// ErrEmptyTranscript is returned when there is nothing to export.
var ErrEmptyTranscript = errors.New("transcript has no messages")

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter converts a transcript snapshot to one file format.
type Exporter interface {
	// Export renders the snapshot.
	Export(snap *Snapshot) ([]byte, error)

	// FileExtension returns the extension including the dot, e.g. ".md".
	FileExtension() string

	// MimeType returns the MIME type of the output.
	MimeType() string
}

// Snapshot is a transcript frozen at export time.
type Snapshot struct {
	Generator  string          `json:"generator" yaml:"generator"`
	CreatedAt  time.Time       `json:"created_at" yaml:"created_at"`
	ExportedAt time.Time       `json:"exported_at" yaml:"exported_at"`
	Messages   []model.Message `json:"messages" yaml:"messages"`
}

// NewSnapshot copies the messages of t.
func NewSnapshot(t *model.Transcript) *Snapshot {
	return &Snapshot{
		Generator:  "mpcchat",
		CreatedAt:  t.CreatedAt(),
		ExportedAt: time.Now(),
		Messages:   t.Messages(),
	}
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures the Markdown exporter. JSON and YAML always carry
// every field.
type Options struct {
	// IncludeMetadata adds the front matter and per-message model lines.
	IncludeMetadata bool

	// IncludeTimestamps adds per-message times.
	IncludeTimestamps bool

	// IncludeCost adds the cost summary of each bot message.
	IncludeCost bool
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		IncludeMetadata:   true,
		IncludeTimestamps: true,
		IncludeCost:       true,
	}
}

// Formats lists the accepted format names.
var Formats = []string{"json", "yaml", "md"}

// NewExporter returns the exporter for format: json, yaml/yml or md/markdown.
func NewExporter(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return NewJSONExporter(), nil
	case "yaml", "yml":
		return NewYAMLExporter(), nil
	case "md", "markdown":
		return NewMarkdownExporter(opts), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: %s)", format, strings.Join(Formats, ", "))
	}
}

// FormatFromPath guesses the format from a file extension, defaulting to md.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "md"
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ToFile exports t to path. An empty path generates
// transcript_<timestamp><ext> in the working directory.
func ToFile(t *model.Transcript, exporter Exporter, path string) (string, error) {
	if t == nil || t.Len() == 0 {
		return "", ErrEmptyTranscript
	}

	content, err := exporter.Export(NewSnapshot(t))
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	if path == "" {
		path = DefaultFileName(exporter, time.Now())
	}
	if err := util.AtomicWriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}

// DefaultFileName returns transcript_<yyyymmdd_hhmmss><ext>.
func DefaultFileName(exporter Exporter, at time.Time) string {
	return "transcript_" + at.Format("20060102_150405") + exporter.FileExtension()
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}
