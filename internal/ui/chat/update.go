// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

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
	"github.com/jeranaias/mpcchat/internal/audio"
	chatsession "github.com/jeranaias/mpcchat/internal/chat"
	"github.com/jeranaias/mpcchat/internal/export"
	"github.com/jeranaias/mpcchat/internal/ui/components"
	"github.com/jeranaias/mpcchat/internal/util"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.promptKind != promptNone {
			return m.updatePrompt(msg)
		}
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		if m.Busy() == "" {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case SendResultMsg:
		return m.handleSendResult(msg)

	case ClearResultMsg:
		return m.handleClearResult(msg)

	case AttachResultMsg:
		if msg.Err != nil {
			m.logger.Info("attachment refused", zap.String("path", msg.Path), zap.Error(msg.Err))
			return m, components.ShowToast(components.ToastKindError, attachErrorText(msg.Err))
		}
		m.session.StageAttachment(msg.File)
		return m, components.ShowToast(components.ToastKindStatus, "Attached "+msg.File.Name)

	case AudioSavedMsg:
		if msg.Err != nil {
			return m, components.ShowToast(components.ToastKindError, "Could not save audio: "+msg.Err.Error())
		}
		return m, components.ShowToast(components.ToastKindSuccess, "Audio saved to "+msg.Path)

	case ExportedMsg:
		if msg.Err != nil {
			return m, components.ShowToast(components.ToastKindError, "Export failed: "+msg.Err.Error())
		}
		return m, components.ShowToast(components.ToastKindSuccess, "Transcript exported to "+msg.Path)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Send):
		return m.send()

	case key.Matches(msg, m.keys.Cancel):
		if m.cancel != nil {
			m.cancel()
			m.cancel = nil
		}
		return m, nil

	case key.Matches(msg, m.keys.Attach):
		return m.openPrompt(promptAttach, "")

	case key.Matches(msg, m.keys.Detach):
		if att, ok := m.session.Attachment(); ok {
			m.session.ClearAttachment()
			return m, components.ShowToast(components.ToastKindStatus, "Removed "+att.Name)
		}
		return m, nil

	case key.Matches(msg, m.keys.ClearMemory):
		return m.clearMemory()

	case key.Matches(msg, m.keys.SaveAudio):
		last, ok := m.session.Transcript().LastWithAudio()
		if !ok {
			return m, components.ShowToast(components.ToastKindWarning, "No audio reply to save")
		}
		return m, saveAudioCmd(last, m.opts.AudioDir)

	case key.Matches(msg, m.keys.Export):
		if m.session.Transcript().Len() == 0 {
			return m, components.ShowToast(components.ToastKindWarning, "Nothing to export yet")
		}
		exporter, _ := export.NewExporter("md", nil)
		return m.openPrompt(promptExport, export.DefaultFileName(exporter, m.session.Transcript().CreatedAt()))

	case key.Matches(msg, m.keys.PageUp, m.keys.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// SEND
// =============================================================================

func (m Model) send() (tea.Model, tea.Cmd) {
	p, err := m.session.Begin(m.input.Value())
	switch {
	case errors.Is(err, chatsession.ErrNothingToSend), errors.Is(err, chatsession.ErrBusy):
		return m, nil
	case err != nil:
		return m, components.ShowToast(components.ToastKindError, err.Error())
	}

	m.input.Reset()
	m.sendingAudio = p.UsesAudio()
	m.refresh(true)

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.logger.Debug("sending", zap.Bool("audio", p.UsesAudio()), zap.String("model", p.Options.Model))

	return m, tea.Batch(sendCmd(ctx, m.session, p), m.spinner.Tick)
}

func (m Model) handleSendResult(msg SendResultMsg) (tea.Model, tea.Cmd) {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.sendingAudio = false

	_, err := m.session.Finish(msg.Outcome)
	m.refresh(true)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return m, components.ShowToast(components.ToastKindWarning, "Request cancelled")
		}
		return m, components.ShowToast(components.ToastKindError, "Error sending message: "+api.UserMessage(err))
	}
	return m, nil
}

// =============================================================================
// CLEAR MEMORY
// =============================================================================

func (m Model) clearMemory() (tea.Model, tea.Cmd) {
	phone, err := m.session.BeginClear()
	switch {
	case errors.Is(err, chatsession.ErrPhoneRequired):
		return m, components.ShowToast(components.ToastKindWarning, "Configure a phone number in Settings to clear memory")
	case errors.Is(err, chatsession.ErrBusy):
		return m, nil
	case err != nil:
		return m, components.ShowToast(components.ToastKindError, err.Error())
	}
	return m, tea.Batch(clearCmd(context.Background(), m.session, phone), m.spinner.Tick)
}

func (m Model) handleClearResult(msg ClearResultMsg) (tea.Model, tea.Cmd) {
	if err := m.session.FinishClear(msg.Err); err != nil {
		return m, components.ShowToast(components.ToastKindError, "Error clearing memory: "+api.UserMessage(err))
	}
	m.refresh(true)
	return m, components.ShowToast(components.ToastKindSuccess, "Conversation memory cleared")
}

// =============================================================================
// PROMPT
// =============================================================================

func (m Model) openPrompt(kind promptKind, value string) (tea.Model, tea.Cmd) {
	m.promptKind = kind
	m.prompt.SetValue(value)
	m.prompt.CursorEnd()
	m.input.Blur()
	return m, m.prompt.Focus()
}

func (m Model) closePrompt() Model {
	m.promptKind = promptNone
	m.prompt.Reset()
	m.prompt.Blur()
	m.input.Focus()
	return m
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		return m.closePrompt(), nil
	case tea.KeyEnter:
		value := strings.TrimSpace(m.prompt.Value())
		kind := m.promptKind
		m = m.closePrompt()
		if value == "" {
			return m, nil
		}
		switch kind {
		case promptAttach:
			return m, attachCmd(util.ExpandHome(value))
		case promptExport:
			return m, exportCmd(m.session.Transcript(), util.ExpandHome(value), m.exportOptions())
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func attachErrorText(err error) string {
	switch {
	case errors.Is(err, audio.ErrNotAudio):
		return "Please select an audio file"
	case errors.Is(err, audio.ErrTooLarge):
		return fmt.Sprintf("Audio file is larger than %d MB", audio.MaxAttachmentSize>>20)
	}
	return "Could not read file: " + err.Error()
}
