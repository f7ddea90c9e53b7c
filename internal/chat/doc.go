// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the chat session controller shared by the TUI chat
// tab and the line-mode REPL.
//
// A send is split in three steps so the Bubble Tea loop can run the network
// call as a command:
//
//	pending, err := sess.Begin(text)   // validates, appends the user message
//	outcome := sess.Run(ctx, pending)  // one HTTP request, safe off the UI loop
//	msg, err := sess.Finish(outcome)   // appends the bot message or reports
//
// Send combines the three for synchronous callers.
//
// # Attachments
//
// At most one audio attachment is staged at a time. When one is staged it
// takes priority over the typed text. The attachment is dropped only after a
// successful upload so a failed send can be retried.
package chat
