// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package rag

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	ragsvc "github.com/jeranaias/mpcchat/internal/rag"
	"github.com/jeranaias/mpcchat/internal/ui/components"
	"github.com/jeranaias/mpcchat/internal/ui/styles"
)

// Mode selects the search or index form.
type Mode int

const (
	ModeSearch Mode = iota
	ModeIndex
)

// String returns the mode title.
func (m Mode) String() string {
	if m == ModeIndex {
		return "Index documents"
	}
	return "Search"
}

// Search form focus positions.
const (
	focusQuery = iota
	focusSearchNamespace
	focusTopK
	searchFieldCount
)

// Index form focus positions: 0 is the namespace, then three per draft.
const (
	fieldID = iota
	fieldContent
	fieldMetadata
	fieldsPerDraft
)

// Model is the Bubble Tea model of the retrieval screen.
type Model struct {
	manager *ragsvc.Manager
	keys    KeyMap
	theme   *styles.Theme
	logger  *zap.Logger

	width  int
	height int

	mode  Mode
	focus int

	// Widgets
	query     textinput.Model
	namespace textinput.Model
	draftID   textinput.Model
	content   textarea.Model
	metadata  textarea.Model
	prompt    textinput.Model
	results   viewport.Model
	spinner   spinner.Model

	promptOpen bool

	// searched is set once a search has completed.
	searched bool

	// loadedDraft is the draft currently mirrored by the draft widgets.
	loadedDraft int
}

// New creates the retrieval screen over manager.
func New(manager *ragsvc.Manager, theme *styles.Theme, logger *zap.Logger) Model {
	if logger == nil {
		logger = zap.NewNop()
	}

	query := textinput.New()
	query.Placeholder = "What are you looking for?"
	query.Prompt = ""

	ns := textinput.New()
	ns.Placeholder = "default"
	ns.Prompt = ""
	ns.SetValue(manager.Namespace())

	id := textinput.New()
	id.Placeholder = "optional"
	id.Prompt = ""

	content := textarea.New()
	content.Placeholder = "Document text"
	content.ShowLineNumbers = false
	content.CharLimit = 0
	content.SetHeight(5)

	meta := textarea.New()
	meta.Placeholder = `{"source": "manual"}`
	meta.ShowLineNumbers = false
	meta.CharLimit = 0
	meta.SetHeight(2)

	prompt := textinput.New()
	prompt.Prompt = ""
	prompt.Placeholder = "docs/*.md"

	sp := spinner.New(spinner.WithSpinner(styles.LineSpinner.Bubbles()))
	sp.Style = theme.Warning

	m := Model{
		manager:     manager,
		keys:        DefaultKeyMap(),
		theme:       theme,
		logger:      logger.Named("ui.rag"),
		query:       query,
		namespace:   ns,
		draftID:     id,
		content:     content,
		metadata:    meta,
		prompt:      prompt,
		results:     viewport.New(80, 10),
		spinner:     sp,
		width:       80,
		height:      24,
		loadedDraft: -1,
	}
	m.query.Focus()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// SetSize resizes the screen.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height

	fieldWidth := max(width-24, 10)
	m.query.Width = fieldWidth
	m.namespace.Width = fieldWidth
	m.draftID.Width = fieldWidth
	m.prompt.Width = fieldWidth
	m.content.SetWidth(fieldWidth)
	m.metadata.SetWidth(fieldWidth)

	m.results.Width = width
	// Mode line, three fields, a separator line.
	m.results.Height = max(height-6, 3)
	m.renderResults()
}

// Mode returns the active form.
func (m Model) Mode() Mode {
	return m.mode
}

// Manager returns the retrieval state backing the screen.
func (m Model) Manager() *ragsvc.Manager {
	return m.manager
}

// Busy returns the status label of the requests in flight, or "".
func (m Model) Busy() string {
	var parts []string
	if m.manager.SearchState().IsBusy() {
		parts = append(parts, "Searching")
	}
	if m.manager.IndexState().IsBusy() {
		parts = append(parts, "Indexing")
	}
	return strings.Join(parts, ", ")
}

// CapturesInput reports whether the file prompt is open.
func (m Model) CapturesInput() bool {
	return m.promptOpen
}

// Hints returns the status bar key hints for the active mode.
func (m Model) Hints() []components.KeyHint {
	if m.mode == ModeIndex {
		return m.keys.IndexHints()
	}
	return m.keys.SearchHints()
}

// Focus restores keyboard focus to the focused field.
func (m *Model) Focus() tea.Cmd {
	return m.applyFocus()
}

// Blur removes keyboard focus from every field.
func (m *Model) Blur() {
	m.blurAll()
}

// =============================================================================
// FOCUS
// =============================================================================

func (m Model) focusCount() int {
	if m.mode == ModeIndex {
		return 1 + fieldsPerDraft*m.manager.DraftCount()
	}
	return searchFieldCount
}

// draftFocus returns the focused draft and field in index mode.
func (m Model) draftFocus() (draft, field int, ok bool) {
	if m.mode != ModeIndex || m.focus == 0 {
		return 0, 0, false
	}
	return (m.focus - 1) / fieldsPerDraft, (m.focus - 1) % fieldsPerDraft, true
}

func (m *Model) blurAll() {
	m.query.Blur()
	m.namespace.Blur()
	m.draftID.Blur()
	m.content.Blur()
	m.metadata.Blur()
	m.prompt.Blur()
}

// loadDraft mirrors draft i into the draft widgets.
func (m *Model) loadDraft(i int) {
	drafts := m.manager.Drafts()
	if i < 0 || i >= len(drafts) {
		return
	}
	d := drafts[i]
	m.draftID.SetValue(d.ID)
	m.content.SetValue(d.Content)
	m.metadata.SetValue(d.MetadataText)
	m.loadedDraft = i
}

// applyFocus clamps the focus position and focuses its widget.
func (m *Model) applyFocus() tea.Cmd {
	if n := m.focusCount(); m.focus >= n {
		m.focus = n - 1
	}
	if m.focus < 0 {
		m.focus = 0
	}
	m.blurAll()

	if m.mode == ModeSearch {
		switch m.focus {
		case focusQuery:
			return m.query.Focus()
		case focusSearchNamespace:
			return m.namespace.Focus()
		}
		return nil
	}

	draft, field, ok := m.draftFocus()
	if !ok {
		return m.namespace.Focus()
	}
	if draft != m.loadedDraft {
		m.loadDraft(draft)
	}
	switch field {
	case fieldID:
		return m.draftID.Focus()
	case fieldContent:
		return m.content.Focus()
	default:
		return m.metadata.Focus()
	}
}

func (m *Model) setFocus(pos int) tea.Cmd {
	m.focus = pos
	return m.applyFocus()
}

// renderResults re-renders the search hits into the results viewport.
func (m *Model) renderResults() {
	if !m.searched {
		m.results.SetContent(m.theme.Hint.Render("Run a search to see matching documents."))
		return
	}
	m.results.SetContent(components.RenderSearchResults(m.theme, m.manager.Results(), max(m.width-2, 10)))
}
