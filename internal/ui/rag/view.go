// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package rag

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/mpcchat/internal/ui/styles"
	"github.com/jeranaias/mpcchat/internal/util"
)

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.modeLine())
	b.WriteString("\n\n")
	if m.mode == ModeIndex {
		b.WriteString(m.indexView())
	} else {
		b.WriteString(m.searchView())
	}
	return b.String()
}

func (m Model) modeLine() string {
	t := m.theme
	tab := func(mode Mode) string {
		if m.mode == mode {
			return t.TabActive.Render(mode.String())
		}
		return t.Tab.Render(mode.String())
	}
	line := tab(ModeSearch) + " " + tab(ModeIndex)
	if busy := m.Busy(); busy != "" {
		line += "  " + t.Warning.Render(busy+" "+m.spinner.View())
	}
	return line
}

// field renders a labelled row, highlighting the label when focused.
func (m Model) field(label string, focused bool, value string) string {
	l := m.theme.Label.Render(label)
	if focused {
		l = m.theme.LabelFocused.Render(label)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, l, value)
}

// =============================================================================
// SEARCH
// =============================================================================

func (m Model) searchView() string {
	t := m.theme
	topK := t.Value.Render(strconv.Itoa(m.manager.TopK()))
	if m.focus == focusTopK {
		topK = t.Info.Render("< "+strconv.Itoa(m.manager.TopK())+" >") + t.Hint.Render("  up/down to change")
	}

	rows := []string{
		m.field("Query", m.focus == focusQuery, m.query.View()),
		m.field("Namespace", m.focus == focusSearchNamespace, m.namespace.View()),
		m.field("Results (top_k)", m.focus == focusTopK, topK),
		t.Muted.Render(strings.Repeat("-", max(m.width, 1))),
		m.results.View(),
	}
	return strings.Join(rows, "\n")
}

// =============================================================================
// INDEX
// =============================================================================

func (m Model) indexView() string {
	t := m.theme
	draftIdx, field, focusedDraft := m.draftFocus()

	rows := []string{
		m.field("Namespace", m.focus == 0, m.namespace.View()),
		t.Hint.Render("Use namespaces to keep document collections apart."),
		"",
	}
	if m.promptOpen {
		rows = append(rows,
			m.field("Load files", true, m.prompt.View()),
			t.Hint.Render("Glob pattern, one document per file. enter load, esc cancel"),
			"",
		)
	}

	for i, d := range m.manager.Drafts() {
		title := fmt.Sprintf("Document %d", i+1)
		if !focusedDraft || i != draftIdx {
			summary := util.Preview(d.Content, max(m.width-30, 10))
			if d.IsBlank() {
				summary = t.Hint.Render("(empty)")
			}
			line := t.Muted.Render(title)
			if d.ID != "" {
				line += " " + t.Info.Render(d.ID)
			}
			line += "  " + summary
			if d.MetadataErr != nil {
				line += " " + t.Error.Render(styles.StatusIndicators.Error)
			}
			rows = append(rows, line)
			continue
		}

		rows = append(rows,
			t.ResultTitle.Render(title),
			m.field("ID", field == fieldID, m.draftID.View()),
			m.field("Content", field == fieldContent, m.content.View()),
			m.field("Metadata (JSON)", field == fieldMetadata, m.metadata.View()),
		)
		if d.MetadataErr != nil {
			rows = append(rows, t.Error.Render(styles.StatusIndicators.Error+" "+d.MetadataErr.Error()))
		}
		rows = append(rows, "")
	}
	return strings.Join(rows, "\n")
}
