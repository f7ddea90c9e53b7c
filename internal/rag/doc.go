// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package rag implements the retrieval panel controller: similarity search
// over indexed documents and a draft list for indexing new ones.
//
// # Key Types
//
//   - Manager: search and indexing state with per-action busy tracking
//   - Draft: a document being edited before submission
//
// Search results are replaced only by a successful search. The draft list
// always holds at least one row and resets to a single blank row after a
// successful index call.
package rag
