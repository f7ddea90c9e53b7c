// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/mpcchat/internal/settings"
	"github.com/jeranaias/mpcchat/internal/ui/styles"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// KeyHint is a key binding shown in the status bar.
type KeyHint struct {
	Key  string
	Desc string
}

// StatusBar shows the active settings, a busy indicator and key hints.
type StatusBar struct {
	Width    int
	Settings settings.Settings
	Busy     string
	Hints    []KeyHint
	theme    *styles.Theme
}

// NewStatusBar creates a status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{Width: 80, theme: theme}
}

// SetWidth updates the status bar width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// SetSettings updates the settings summary.
func (s *StatusBar) SetSettings(st settings.Settings) {
	s.Settings = st
}

// SetBusy sets the busy label. An empty label clears it.
func (s *StatusBar) SetBusy(label string) {
	s.Busy = label
}

// SetHints replaces the key hints.
func (s *StatusBar) SetHints(hints ...KeyHint) {
	s.Hints = hints
}

// sections returns the settings summary, most important first.
func (s *StatusBar) sections() []string {
	st := s.Settings
	out := []string{settings.ModelLabel(st.Model)}
	if st.HasPhone() {
		out = append(out, st.SenderPhone)
	} else {
		out = append(out, "no phone")
	}
	if st.UseRag {
		rag := "RAG on"
		if st.RagNamespace != "" {
			rag += " (" + st.RagNamespace + ")"
		}
		out = append(out, rag)
	}
	if st.GenerateAudio {
		out = append(out, "audio")
	}
	return out
}

// View renders the status bar.
func (s *StatusBar) View() string {
	t := s.theme
	sep := t.StatusDesc.Render(" | ")

	var left []string
	if s.Busy != "" {
		left = append(left, t.StatusBusy.Render(styles.StatusIndicators.Active+" "+s.Busy))
	}
	for _, sec := range s.sections() {
		left = append(left, t.StatusSection.Render(sec))
	}
	leftView := strings.Join(left, sep)

	var hints []string
	for _, h := range s.Hints {
		hints = append(hints, t.StatusKey.Render(h.Key)+t.StatusDesc.Render(" "+h.Desc))
	}
	rightView := strings.Join(hints, t.StatusDesc.Render("  "))

	inner := max(s.Width-2, 0)
	if t.GetLayoutMode() == styles.LayoutNarrow || lipgloss.Width(leftView)+lipgloss.Width(rightView)+1 > inner {
		rightView = ""
	}

	gap := inner - lipgloss.Width(leftView) - lipgloss.Width(rightView)
	if gap < 1 {
		gap = 1
	}
	return t.StatusBar.Width(s.Width).Render(leftView + t.StatusDesc.Render(strings.Repeat(" ", gap)) + rightView)
}
