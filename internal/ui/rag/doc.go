// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package rag provides the retrieval screen of the TUI.
//
// The screen has two modes sharing one namespace field:
//
//   - Search: query, namespace and top-K, with the hits listed below
//   - Index: a list of document drafts (id, content, JSON metadata)
//     submitted together
//
// All state lives in a rag.Manager; the widgets only mirror the focused
// fields. Search and indexing use separate busy states, so a search can
// run while documents are being indexed.
package rag
