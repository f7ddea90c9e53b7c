// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat transcripts and messages.
//
// # Key Types
//
//   - Message: one user or bot entry with optional routing metadata
//   - Transcript: ordered, append-only list of messages
//   - MessageType: user or bot
//   - ActionState: idle/busy state of a single UI action
//
// # Usage
//
//	t := model.NewTranscript()
//	t.Append(model.NewUserMessage("Hello"))
//	t.Append(model.NewBotMessage(resp))
//	fmt.Println(t.Len())
package model
