// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/mpcchat/internal/api"
	ragsvc "github.com/jeranaias/mpcchat/internal/rag"
	"github.com/jeranaias/mpcchat/internal/ui/components"
	"github.com/jeranaias/mpcchat/internal/util"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.promptOpen {
			return m.updatePrompt(msg)
		}
		return m.handleKey(msg)

	case spinner.TickMsg:
		if m.Busy() == "" {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case SearchResultMsg:
		results, err := m.manager.FinishSearch(msg.Outcome)
		if err != nil {
			return m, components.ShowToast(components.ToastKindError, "Search failed: "+api.UserMessage(err))
		}
		m.searched = true
		m.renderResults()
		m.results.GotoTop()
		return m, components.ShowToast(components.ToastKindSuccess, fmt.Sprintf("Search complete: %d results found", len(results)))

	case IndexResultMsg:
		indexed, err := m.manager.FinishIndex(msg.Outcome)
		if err != nil {
			return m, components.ShowToast(components.ToastKindError, "Indexing failed: "+api.UserMessage(err))
		}
		m.loadedDraft = -1
		cmd := m.setFocus(0)
		return m, tea.Batch(cmd, components.ShowToast(components.ToastKindSuccess,
			fmt.Sprintf("%d documents indexed successfully", indexed)))

	case FilesLoadedMsg:
		if msg.Err != nil {
			return m, components.ShowToast(components.ToastKindError, "Could not load files: "+msg.Err.Error())
		}
		m.manager.SetDrafts(msg.Drafts)
		m.loadedDraft = -1
		cmd := m.setFocus(1 + fieldContent)
		return m, tea.Batch(cmd, components.ShowToast(components.ToastKindStatus,
			fmt.Sprintf("Loaded %d documents from %s", len(msg.Drafts), msg.Pattern)))
	}

	return m.updateFocused(msg)
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.SwitchMode):
		if m.mode == ModeSearch {
			m.mode = ModeIndex
		} else {
			m.mode = ModeSearch
		}
		return m, m.setFocus(0)

	case key.Matches(msg, m.keys.NextField):
		return m, m.setFocus((m.focus + 1) % m.focusCount())

	case key.Matches(msg, m.keys.PrevField):
		n := m.focusCount()
		return m, m.setFocus((m.focus + n - 1) % n)
	}

	if m.mode == ModeSearch {
		switch {
		case key.Matches(msg, m.keys.Search):
			return m.search()
		case m.focus == focusTopK && key.Matches(msg, m.keys.Increase):
			m.manager.SetTopK(m.manager.TopK() + 1)
			return m, nil
		case m.focus == focusTopK && key.Matches(msg, m.keys.Decrease):
			m.manager.SetTopK(m.manager.TopK() - 1)
			return m, nil
		case key.Matches(msg, m.keys.PageUp, m.keys.PageDown):
			var cmd tea.Cmd
			m.results, cmd = m.results.Update(msg)
			return m, cmd
		}
		return m.updateFocused(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.index()

	case key.Matches(msg, m.keys.AddDraft):
		i := m.manager.AddDraft()
		return m, m.setFocus(1 + i*fieldsPerDraft + fieldContent)

	case key.Matches(msg, m.keys.RemoveDraft):
		return m.removeDraft()

	case key.Matches(msg, m.keys.LoadFiles):
		m.promptOpen = true
		m.blurAll()
		m.prompt.Reset()
		return m, m.prompt.Focus()
	}
	return m.updateFocused(msg)
}

// updateFocused forwards msg to the focused widget and stores its value.
func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if m.mode == ModeSearch {
		switch m.focus {
		case focusQuery:
			m.query, cmd = m.query.Update(msg)
		case focusSearchNamespace:
			m.namespace, cmd = m.namespace.Update(msg)
			m.manager.SetNamespace(m.namespace.Value())
		}
		return m, cmd
	}

	draft, field, ok := m.draftFocus()
	if !ok {
		m.namespace, cmd = m.namespace.Update(msg)
		m.manager.SetNamespace(m.namespace.Value())
		return m, cmd
	}

	var err error
	switch field {
	case fieldID:
		m.draftID, cmd = m.draftID.Update(msg)
		err = m.manager.SetDraftID(draft, m.draftID.Value())
	case fieldContent:
		m.content, cmd = m.content.Update(msg)
		err = m.manager.SetDraftContent(draft, m.content.Value())
	case fieldMetadata:
		m.metadata, cmd = m.metadata.Update(msg)
		// Parse errors are kept on the draft and shown under the field.
		if err = m.manager.SetDraftMetadata(draft, m.metadata.Value()); errors.Is(err, ragsvc.ErrInvalidMetadata) {
			err = nil
		}
	}
	if err != nil {
		m.logger.Warn("draft update failed", zap.Int("draft", draft), zap.Error(err))
	}
	return m, cmd
}

// =============================================================================
// ACTIONS
// =============================================================================

func (m Model) search() (tea.Model, tea.Cmd) {
	req, err := m.manager.BeginSearch(m.query.Value())
	switch {
	case errors.Is(err, ragsvc.ErrBusy):
		return m, nil
	case errors.Is(err, ragsvc.ErrEmptyQuery):
		return m, components.ShowToast(components.ToastKindWarning, "Enter a search query")
	case err != nil:
		return m, components.ShowToast(components.ToastKindError, err.Error())
	}
	m.logger.Debug("searching", zap.Int("top_k", req.TopK), zap.String("namespace", req.Namespace))
	return m, tea.Batch(searchCmd(context.Background(), m.manager, req), m.spinner.Tick)
}

func (m Model) index() (tea.Model, tea.Cmd) {
	req, err := m.manager.BeginIndex()
	switch {
	case errors.Is(err, ragsvc.ErrBusy):
		return m, nil
	case errors.Is(err, ragsvc.ErrNoDocuments):
		return m, components.ShowToast(components.ToastKindWarning, "No valid documents: add at least one document with content")
	case errors.Is(err, ragsvc.ErrInvalidMetadata):
		return m, components.ShowToast(components.ToastKindWarning, err.Error())
	case err != nil:
		return m, components.ShowToast(components.ToastKindError, err.Error())
	}
	return m, tea.Batch(indexCmd(context.Background(), m.manager, req), m.spinner.Tick)
}

func (m Model) removeDraft() (tea.Model, tea.Cmd) {
	draft, _, ok := m.draftFocus()
	if !ok {
		draft = m.manager.DraftCount() - 1
	}
	if err := m.manager.RemoveDraft(draft); err != nil {
		if errors.Is(err, ragsvc.ErrLastDraft) {
			return m, components.ShowToast(components.ToastKindWarning, "At least one document row is required")
		}
		return m, components.ShowToast(components.ToastKindError, err.Error())
	}
	m.loadedDraft = -1
	return m, m.applyFocus()
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.promptOpen = false
		return m, m.applyFocus()
	case tea.KeyEnter:
		pattern := strings.TrimSpace(m.prompt.Value())
		m.promptOpen = false
		cmd := m.applyFocus()
		if pattern == "" {
			return m, cmd
		}
		return m, tea.Batch(cmd, loadFilesCmd(util.ExpandHome(pattern)))
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}
