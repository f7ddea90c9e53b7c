// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/jeranaias/mpcchat/internal/config"
	"github.com/jeranaias/mpcchat/internal/model"
	"github.com/jeranaias/mpcchat/internal/ui/components"
)

// Shared text colors. fatih/color checks color.NoColor at call time, so
// configureColor may run after these are built.
var (
	titleText   = color.New(color.FgCyan, color.Bold).SprintFunc()
	successText = color.New(color.FgGreen, color.Bold).SprintFunc()
	errorText   = color.New(color.FgRed, color.Bold).SprintFunc()
	warnText    = color.New(color.FgYellow, color.Bold).SprintFunc()
	infoText    = color.New(color.FgCyan).SprintFunc()
	mutedText   = color.New(color.FgHiBlack).SprintFunc()
	promptText  = color.New(color.FgMagenta, color.Bold).SprintFunc()
)

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// markdownStyle maps the configured UI theme to a glamour style name.
func markdownStyle(theme string) string {
	switch theme {
	case config.ThemeDark, config.ThemeLight:
		return theme
	}
	return ""
}

// botPrinter writes bot replies to a plain terminal.
type botPrinter struct {
	out      io.Writer
	md       *components.MarkdownRenderer
	showCost bool
}

func (r *runner) newBotPrinter(out io.Writer) *botPrinter {
	p := &botPrinter{out: out, showCost: r.cfg.UI.ShowCost}
	if r.cfg.UI.Markdown && ColorsEnabled(out) {
		p.md = components.NewMarkdownRenderer(markdownStyle(r.cfg.UI.Theme))
	}
	return p
}

// Print renders msg followed by its metadata lines.
func (p *botPrinter) Print(msg model.Message) {
	if msg.Transcription != "" {
		fmt.Fprintln(p.out, mutedText("Transcription: "+msg.Transcription))
	}

	text := msg.Text
	if p.md != nil {
		text = p.md.Render(text, terminalWidth(p.out))
	}
	fmt.Fprintln(p.out, text)

	var meta []string
	if msg.Model != "" {
		meta = append(meta, "Model: "+msg.Model)
	}
	if c := msg.ConfidencePercent(); c != "" {
		meta = append(meta, "Confidence: "+c)
	}
	if msg.HasAudio() {
		meta = append(meta, "[audio] reply available (/save)")
	}
	if len(meta) > 0 {
		fmt.Fprintln(p.out, mutedText(strings.Join(meta, " | ")))
	}
	if p.showCost && msg.CostAnalysis != nil {
		fmt.Fprintln(p.out, mutedText("Cost: "+msg.CostAnalysis.Summary()))
	}
}
