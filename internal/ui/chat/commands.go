// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/mpcchat/internal/audio"
	chatsession "github.com/jeranaias/mpcchat/internal/chat"
	"github.com/jeranaias/mpcchat/internal/export"
	"github.com/jeranaias/mpcchat/internal/model"
)

// sendCmd performs the network half of a send.
func sendCmd(ctx context.Context, s *chatsession.Session, p chatsession.Pending) tea.Cmd {
	return func() tea.Msg {
		return SendResultMsg{Outcome: s.Run(ctx, p)}
	}
}

// clearCmd performs the clear-memory call for phone.
func clearCmd(ctx context.Context, s *chatsession.Session, phone string) tea.Cmd {
	return func() tea.Msg {
		return ClearResultMsg{Err: s.RunClear(ctx, phone)}
	}
}

// attachCmd reads and sniffs the file at path.
func attachCmd(path string) tea.Cmd {
	return func() tea.Msg {
		file, err := audio.LoadAttachment(path)
		return AttachResultMsg{Path: path, File: file, Err: err}
	}
}

// saveAudioCmd writes the audio reply of msg into dir.
func saveAudioCmd(msg model.Message, dir string) tea.Cmd {
	return func() tea.Msg {
		path, err := audio.Save(msg, dir)
		return AudioSavedMsg{Path: path, Err: err}
	}
}

// exportCmd writes the transcript to path in the format its extension names.
func exportCmd(t *model.Transcript, path string, opts *export.Options) tea.Cmd {
	return func() tea.Msg {
		exporter, err := export.NewExporter(export.FormatFromPath(path), opts)
		if err != nil {
			return ExportedMsg{Err: err}
		}
		out, err := export.ToFile(t, exporter, path)
		return ExportedMsg{Path: out, Err: err}
	}
}
