// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/mpcchat/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports transcripts as Markdown.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a snapshot to Markdown.
func (e *MarkdownExporter) Export(snap *Snapshot) ([]byte, error) {
	if snap == nil {
		return nil, fmt.Errorf("snapshot is nil")
	}
	if len(snap.Messages) == 0 {
		return nil, ErrEmptyTranscript
	}

	var sb strings.Builder

	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("date: %s\n", snap.CreatedAt.Format(time.RFC3339)))
		sb.WriteString(fmt.Sprintf("messages: %d\n", len(snap.Messages)))
		if models := modelsUsed(snap.Messages); len(models) > 0 {
			sb.WriteString(fmt.Sprintf("models: [%s]\n", strings.Join(models, ", ")))
		}
		sb.WriteString(fmt.Sprintf("exported: %s\n", snap.ExportedAt.Format(time.RFC3339)))
		sb.WriteString("generator: mpcchat\n")
		sb.WriteString("---\n\n")
	}

	sb.WriteString("# Chat transcript\n\n")

	for i, msg := range snap.Messages {
		label := msg.Type.DisplayName()
		if e.options.IncludeTimestamps {
			sb.WriteString(fmt.Sprintf("### %s <sub>%s</sub>\n\n", label, formatTimestamp(msg.Timestamp)))
		} else {
			sb.WriteString(fmt.Sprintf("### %s\n\n", label))
		}

		if msg.AttachmentName != "" {
			sb.WriteString(fmt.Sprintf("> Audio attachment: `%s`\n\n", msg.AttachmentName))
		}
		if msg.Transcription != "" {
			sb.WriteString(fmt.Sprintf("> Transcription: %s\n\n", strings.TrimSpace(msg.Transcription)))
		}

		if text := strings.TrimSpace(msg.Text); text != "" {
			sb.WriteString(text)
			sb.WriteString("\n\n")
		}

		if !msg.IsUser() {
			if stats := e.formatMessageStats(msg); stats != "" {
				sb.WriteString(stats)
				sb.WriteString("\n\n")
			}
		}

		if i < len(snap.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// formatMessageStats returns the model, confidence and cost line of a bot message.
func (e *MarkdownExporter) formatMessageStats(msg model.Message) string {
	var parts []string
	if e.options.IncludeMetadata {
		if msg.Model != "" {
			parts = append(parts, "Model: "+msg.Model)
		}
		if c := msg.ConfidencePercent(); c != "" {
			parts = append(parts, "Confidence: "+c)
		}
		if msg.HasAudio() {
			parts = append(parts, "Audio reply")
		}
	}
	if e.options.IncludeCost && msg.CostAnalysis != nil {
		if s := msg.CostAnalysis.Summary(); s != "" {
			parts = append(parts, "Cost: "+s)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return fmt.Sprintf("<sub>%s</sub>", strings.Join(parts, " | "))
}

func modelsUsed(msgs []model.Message) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range msgs {
		if m.Model != "" && !seen[m.Model] {
			seen[m.Model] = true
			out = append(out, m.Model)
		}
	}
	return out
}
