// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/jeranaias/mpcchat/internal/ui/styles"
	"github.com/jeranaias/mpcchat/internal/util"
)

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.infoLine())
	b.WriteString("\n")

	box := m.theme.Input
	if m.promptKind == promptNone {
		box = m.theme.InputFocused
	}
	b.WriteString(box.Width(max(m.width-2, 10)).Render(m.input.View()))
	return b.String()
}

// infoLine shows the open prompt, the busy spinner or the staged attachment.
func (m Model) infoLine() string {
	t := m.theme
	switch m.promptKind {
	case promptAttach:
		return t.LabelFocused.Render("Audio file:") + " " + m.prompt.View() + t.Hint.Render("  enter attach, esc cancel")
	case promptExport:
		return t.LabelFocused.Render("Export to:") + " " + m.prompt.View() + t.Hint.Render("  .md .json .yaml")
	}

	var parts []string
	if busy := m.Busy(); busy != "" {
		parts = append(parts, t.Warning.Render(busy+m.spinner.View()))
	}
	if att, ok := m.session.Attachment(); ok {
		name := util.TruncateWidth(att.Name, max(m.width/2, 12))
		parts = append(parts, t.Info.Render(styles.StatusIndicators.Active+" "+name)+t.Hint.Render(" (ctrl+x to remove)"))
	}
	if len(parts) == 0 {
		return t.Hint.Render("alt+enter for a new line")
	}
	return strings.Join(parts, "  ")
}
