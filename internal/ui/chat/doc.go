// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat screen of the TUI.
//
// The screen shows the transcript in a scrollable viewport above a
// multi-line input. Network calls run as Bubble Tea commands: the send is
// split into chat.Session Begin (validate and append the user message),
// Run (inside the command) and Finish (on the returned SendResultMsg), so
// the user message is visible while the request is in flight.
//
// # Key Bindings
//
//   - enter: send, alt+enter: new line
//   - ctrl+o: attach an audio file, ctrl+x: remove it
//   - ctrl+l: clear server memory and the transcript
//   - ctrl+s: save the latest audio reply
//   - ctrl+e: export the transcript
//   - esc: cancel the request in flight or close a prompt
package chat
