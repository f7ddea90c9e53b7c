// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/mpcchat/internal/ui/styles"
	"github.com/jeranaias/mpcchat/internal/util"
)

// =============================================================================
// HEADER COMPONENT
// =============================================================================

// Header is the title bar with the tab strip.
type Header struct {
	Title   string
	Tabs    []string
	Active  int
	Backend string
	Width   int
	theme   *styles.Theme
}

// NewHeader creates a header showing tabs.
func NewHeader(theme *styles.Theme, tabs ...string) *Header {
	return &Header{
		Title: "mpcchat",
		Tabs:  tabs,
		Width: 80,
		theme: theme,
	}
}

// SetWidth updates the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// SetActive selects the highlighted tab. Out of range values are ignored.
func (h *Header) SetActive(i int) {
	if i >= 0 && i < len(h.Tabs) {
		h.Active = i
	}
}

// SetBackend sets the backend URL shown on the right.
func (h *Header) SetBackend(url string) {
	h.Backend = url
}

// View renders the header.
func (h *Header) View() string {
	t := h.theme

	tabs := make([]string, 0, len(h.Tabs))
	for i, name := range h.Tabs {
		label := strconv.Itoa(i+1) + " " + name
		if i == h.Active {
			tabs = append(tabs, t.TabActive.Render(label))
		} else {
			tabs = append(tabs, t.Tab.Render(label))
		}
	}

	left := lipgloss.JoinHorizontal(lipgloss.Center,
		t.HeaderTitle.Render(h.Title),
		"  ",
		strings.Join(tabs, " "),
	)

	inner := max(h.Width-2, 0)
	var right string
	if h.Backend != "" && t.GetLayoutMode() != styles.LayoutNarrow {
		room := inner - lipgloss.Width(left) - 2
		if room > 10 {
			right = t.HeaderSubtitle.Render(util.TruncateWidth(h.Backend, room))
		}
	}

	gap := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return t.Header.Width(h.Width).Render(left + strings.Repeat(" ", gap) + right)
}
