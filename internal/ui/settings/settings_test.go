// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package settings

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	appsettings "github.com/jeranaias/mpcchat/internal/settings"
	"github.com/jeranaias/mpcchat/internal/ui/styles"
)

func newTestModel(initial appsettings.Settings) (Model, *appsettings.Store) {
	store := appsettings.NewStore(initial)
	m := New(store, styles.NewTheme(styles.ModeDark))
	m.SetSize(100, 30)
	return m, store
}

func send(m Model, msgs ...tea.Msg) Model {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

var (
	tab   = tea.KeyMsg{Type: tea.KeyTab}
	space = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	right = tea.KeyMsg{Type: tea.KeyRight}
	left  = tea.KeyMsg{Type: tea.KeyLeft}
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestPhoneEditIsImmediate(t *testing.T) {
	m, store := newTestModel(appsettings.Settings{})
	assert.Contains(t, m.View(), "No phone set")

	m = send(m, runes("+5511"))
	assert.Equal(t, "+5511", store.Snapshot().SenderPhone)
	assert.NotContains(t, m.View(), "No phone set")
}

func TestModelPicker(t *testing.T) {
	m, store := newTestModel(appsettings.Settings{})
	m = send(m, tab)
	assert.Equal(t, FieldModel, m.Focused())

	m = send(m, right)
	assert.Equal(t, appsettings.AvailableModels[1].Value, store.Snapshot().Model)

	m = send(m, left, left)
	last := appsettings.AvailableModels[len(appsettings.AvailableModels)-1]
	assert.Equal(t, last.Value, store.Snapshot().Model, "picker wraps around")
	assert.Contains(t, m.View(), last.Label)
}

func TestToggles(t *testing.T) {
	m, store := newTestModel(appsettings.Settings{})
	m = send(m, tab, tab, space)
	assert.True(t, store.Snapshot().GenerateAudio)

	m = send(m, tab, space)
	assert.True(t, store.Snapshot().UseRag)
	_ = m
}

func TestNamespaceOnlyWhileRagEnabled(t *testing.T) {
	m, store := newTestModel(appsettings.Settings{})
	assert.NotContains(t, m.View(), "RAG namespace")

	// Wraps from the last visible row back to the phone.
	m = send(m, tab, tab, tab, tab)
	assert.Equal(t, FieldPhone, m.Focused())

	m = send(m, tab, tab, tab, space)
	assert.Contains(t, m.View(), "RAG namespace")

	m = send(m, tab)
	assert.Equal(t, FieldNamespace, m.Focused())
	m = send(m, runes("docs"))
	assert.Equal(t, "docs", store.Snapshot().RagNamespace)
	assert.Equal(t, "docs", store.Snapshot().ChatOptions().RagNamespace)

	m = send(m, tab, right, right)
	assert.Equal(t, 7, store.Snapshot().RagTopK)

	// Turning RAG off hides the rows and drops the namespace from requests.
	m = send(m, tea.KeyMsg{Type: tea.KeyShiftTab}, tea.KeyMsg{Type: tea.KeyShiftTab}, space)
	assert.False(t, store.Snapshot().UseRag)
	assert.Empty(t, store.Snapshot().ChatOptions().RagNamespace)
	assert.NotContains(t, m.View(), "RAG namespace")
}
