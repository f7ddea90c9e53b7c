// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the reusable view pieces of the mpcchat TUI.
//
// # Key Types
//
//   - Header: title bar with the tab strip
//   - StatusBar: active settings, busy indicator and key hints
//   - MessageBubble, MessageList: transcript rendering
//   - MarkdownRenderer: cached glamour renderers for bot replies
//   - ToastManager: auto-dismissing notifications
//
// Components are plain structs with a View method. They hold no Bubble Tea
// state of their own; the screens in ui/chat, ui/rag and ui/settings own
// them and feed them data.
package components
