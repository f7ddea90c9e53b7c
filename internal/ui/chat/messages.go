// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/mpcchat/internal/api"
	chatsession "github.com/jeranaias/mpcchat/internal/chat"
)

// =============================================================================
// REQUEST RESULTS
// =============================================================================

// SendResultMsg carries the outcome of a send back to the UI goroutine.
type SendResultMsg struct {
	Outcome chatsession.Outcome
}

// ClearResultMsg carries the result of a clear-memory call.
type ClearResultMsg struct {
	Err error
}

// =============================================================================
// FILE RESULTS
// =============================================================================

// AttachResultMsg carries a loaded attachment or the reason it was refused.
type AttachResultMsg struct {
	Path string
	File api.AudioFile
	Err  error
}

// AudioSavedMsg reports where an audio reply was written.
type AudioSavedMsg struct {
	Path string
	Err  error
}

// ExportedMsg reports where the transcript was exported.
type ExportedMsg struct {
	Path string
	Err  error
}
