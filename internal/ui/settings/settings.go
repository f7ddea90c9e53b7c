// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package settings provides the settings screen of the TUI.
//
// Every edit is written to the shared settings store immediately, so the
// next chat request uses it. Nothing is saved to disk; initial values come
// from the configuration file.
package settings

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/mpcchat/internal/rag"
	appsettings "github.com/jeranaias/mpcchat/internal/settings"
	"github.com/jeranaias/mpcchat/internal/ui/components"
	"github.com/jeranaias/mpcchat/internal/ui/styles"
)

// Field identifies a row of the form.
type Field int

const (
	FieldPhone Field = iota
	FieldModel
	FieldAudio
	FieldRag
	FieldNamespace
	FieldTopK
)

// =============================================================================
// KEYS
// =============================================================================

// KeyMap defines the keyboard bindings of the settings screen.
type KeyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Toggle key.Binding
	Left   key.Binding
	Right  key.Binding
}

// DefaultKeyMap returns the default settings bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Next: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "next"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "previous"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "enter"),
			key.WithHelp("space", "toggle"),
		),
		Left: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("left/right", "change"),
		),
		Right: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("left/right", "change"),
		),
	}
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model of the settings screen.
type Model struct {
	store *appsettings.Store
	keys  KeyMap
	theme *styles.Theme

	width  int
	height int

	focus     Field
	phone     textinput.Model
	namespace textinput.Model
}

// New creates the settings screen editing store.
func New(store *appsettings.Store, theme *styles.Theme) Model {
	snap := store.Snapshot()

	phone := textinput.New()
	phone.Prompt = ""
	phone.Placeholder = "+5511999999999"
	phone.SetValue(snap.SenderPhone)

	ns := textinput.New()
	ns.Prompt = ""
	ns.Placeholder = "default"
	ns.SetValue(snap.RagNamespace)

	m := Model{
		store:     store,
		keys:      DefaultKeyMap(),
		theme:     theme,
		phone:     phone,
		namespace: ns,
		width:     80,
		height:    24,
	}
	m.phone.Focus()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// SetSize resizes the screen.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.phone.Width = max(width-24, 10)
	m.namespace.Width = max(width-24, 10)
}

// Focused returns the focused field.
func (m Model) Focused() Field {
	return m.focus
}

// Hints returns the status bar key hints.
func (m Model) Hints() []components.KeyHint {
	out := []components.KeyHint{}
	for _, b := range []key.Binding{m.keys.Next, m.keys.Toggle, m.keys.Left} {
		h := b.Help()
		out = append(out, components.KeyHint{Key: h.Key, Desc: h.Desc})
	}
	return out
}

// Focus restores keyboard focus.
func (m *Model) Focus() tea.Cmd {
	return m.applyFocus()
}

// Blur removes keyboard focus.
func (m *Model) Blur() {
	m.phone.Blur()
	m.namespace.Blur()
}

// fields returns the visible rows. The RAG rows only show while RAG is on.
func (m Model) fields() []Field {
	out := []Field{FieldPhone, FieldModel, FieldAudio, FieldRag}
	if m.store.Snapshot().UseRag {
		out = append(out, FieldNamespace, FieldTopK)
	}
	return out
}

func (m Model) position() int {
	for i, f := range m.fields() {
		if f == m.focus {
			return i
		}
	}
	return 0
}

func (m *Model) applyFocus() tea.Cmd {
	fields := m.fields()
	if m.position() == 0 && m.focus != FieldPhone {
		m.focus = fields[len(fields)-1]
	}
	m.Blur()
	switch m.focus {
	case FieldPhone:
		return m.phone.Focus()
	case FieldNamespace:
		return m.namespace.Focus()
	}
	return nil
}

func (m *Model) move(delta int) tea.Cmd {
	fields := m.fields()
	i := (m.position() + delta + len(fields)) % len(fields)
	m.focus = fields[i]
	return m.applyFocus()
}

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m.updateInputs(msg)
	}

	textField := m.focus == FieldPhone || m.focus == FieldNamespace
	switch {
	case key.Matches(keyMsg, m.keys.Next):
		return m, m.move(1)
	case key.Matches(keyMsg, m.keys.Prev):
		return m, m.move(-1)
	case !textField && key.Matches(keyMsg, m.keys.Toggle):
		m.toggle(0)
		return m, m.applyFocus()
	case !textField && key.Matches(keyMsg, m.keys.Left):
		m.toggle(-1)
		return m, m.applyFocus()
	case !textField && key.Matches(keyMsg, m.keys.Right):
		m.toggle(1)
		return m, m.applyFocus()
	}
	return m.updateInputs(msg)
}

// toggle changes a choice field. dir is -1, +1 or 0 for a plain toggle.
func (m *Model) toggle(dir int) {
	snap := m.store.Snapshot()
	switch m.focus {
	case FieldModel:
		if dir == 0 {
			dir = 1
		}
		n := len(appsettings.AvailableModels)
		i := appsettings.ModelIndex(snap.Model)
		if i < 0 {
			i = 0
		}
		m.store.SetModel(appsettings.AvailableModels[(i+dir+n)%n].Value)
	case FieldAudio:
		m.store.SetGenerateAudio(!snap.GenerateAudio)
	case FieldRag:
		m.store.SetUseRag(!snap.UseRag)
	case FieldTopK:
		if dir != 0 {
			m.store.Update(func(s *appsettings.Settings) {
				s.RagTopK = rag.ClampTopK(s.RagTopK + dir)
			})
		}
	}
}

func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case FieldPhone:
		m.phone, cmd = m.phone.Update(msg)
		m.store.SetSenderPhone(m.phone.Value())
	case FieldNamespace:
		m.namespace, cmd = m.namespace.Update(msg)
		m.store.SetRagNamespace(m.namespace.Value())
	}
	return m, cmd
}

// =============================================================================
// VIEW
// =============================================================================

// View implements tea.Model.
func (m Model) View() string {
	t := m.theme
	snap := m.store.Snapshot()

	row := func(f Field, label, value, hint string) string {
		l := t.Label.Render(label)
		if m.focus == f {
			l = t.LabelFocused.Render(label)
		}
		out := lipgloss.JoinHorizontal(lipgloss.Top, l, value)
		if hint != "" {
			out += "\n" + strings.Repeat(" ", lipgloss.Width(l)) + t.Hint.Render(hint)
		}
		return out
	}

	modelValue := appsettings.ModelLabel(snap.Model)
	if m.focus == FieldModel {
		modelValue = t.Info.Render("< " + modelValue + " >")
	}

	phoneHint := "Identifies you to the backend; required to clear memory."
	if !snap.HasPhone() {
		phoneHint = styles.StatusIndicators.Warning + " No phone set: conversation memory cannot be cleared."
	}

	rows := []string{
		t.HeaderTitle.Render("Settings"),
		t.Hint.Render("Changes apply to the next message and last for this session."),
		"",
		row(FieldPhone, "Phone", m.phone.View(), phoneHint),
		row(FieldModel, "Model", t.Value.Render(modelValue), "Automatic lets the router pick the best model."),
		row(FieldAudio, "Audio replies", styles.Checkbox(snap.GenerateAudio), "Ask for a spoken version of each reply."),
		row(FieldRag, "Use RAG", styles.Checkbox(snap.UseRag), "Ground replies in your indexed documents."),
	}
	if snap.UseRag {
		topK := strconv.Itoa(snap.RagTopK)
		if m.focus == FieldTopK {
			topK = t.Info.Render("< " + topK + " >")
		}
		rows = append(rows,
			row(FieldNamespace, "RAG namespace", m.namespace.View(), "Empty searches the default namespace."),
			row(FieldTopK, "RAG top_k", t.Value.Render(topK), ""),
		)
	}
	return strings.Join(rows, "\n")
}
