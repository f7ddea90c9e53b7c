// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the mpcchat command tree.
//
// With no arguments mpcchat starts the full-screen TUI. The remaining
// commands reuse the same chat session, retrieval manager and API client
// from a plain terminal or a script.
//
// # Commands Overview
//
//	mpcchat                      Full-screen TUI (Chat / RAG / Settings)
//	mpcchat chat                 Line-mode REPL with input history
//	mpcchat ask "question"       One-shot message, markdown rendered
//	mpcchat search "query"       Similarity search
//	mpcchat index a.txt b.md     Index files as documents
//	mpcchat clear-memory         Erase server-side memory for the phone
//	mpcchat health               Probe the backend
//	mpcchat config show|path|init|get|set|keys
//	mpcchat logs                 Show recent log records
//	mpcchat version
//
// # Global Flags
//
//	--config PATH    Configuration file (default ~/.mpcchat/config.toml)
//	--api-url URL    Backend base URL
//	--phone NUMBER   Sender phone identity
//	--model NAME     Preferred model
//	-v, --verbose    Debug logging, echoed to stderr outside the TUI
//
// # Usage
//
//	func main() {
//	    cli.Execute()
//	}
package cli
