// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package rag

import (
	"context"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	ragsvc "github.com/jeranaias/mpcchat/internal/rag"
)

// SearchResultMsg carries the outcome of a search.
type SearchResultMsg struct {
	Outcome ragsvc.SearchOutcome
}

// IndexResultMsg carries the outcome of an index submission.
type IndexResultMsg struct {
	Outcome ragsvc.IndexOutcome
}

// FilesLoadedMsg carries drafts built from files on disk.
type FilesLoadedMsg struct {
	Pattern string
	Drafts  []ragsvc.Draft
	Err     error
}

func searchCmd(ctx context.Context, m *ragsvc.Manager, req ragsvc.SearchRequest) tea.Cmd {
	return func() tea.Msg {
		return SearchResultMsg{Outcome: m.RunSearch(ctx, req)}
	}
}

func indexCmd(ctx context.Context, m *ragsvc.Manager, req ragsvc.IndexRequest) tea.Cmd {
	return func() tea.Msg {
		return IndexResultMsg{Outcome: m.RunIndex(ctx, req)}
	}
}

// loadFilesCmd expands pattern and reads every match into a draft.
func loadFilesCmd(pattern string) tea.Cmd {
	return func() tea.Msg {
		paths, err := filepath.Glob(pattern)
		if err != nil {
			return FilesLoadedMsg{Pattern: pattern, Err: err}
		}
		if len(paths) == 0 {
			return FilesLoadedMsg{Pattern: pattern, Err: fmt.Errorf("no files match %s", pattern)}
		}
		drafts, err := ragsvc.DraftsFromFiles(paths, "")
		return FilesLoadedMsg{Pattern: pattern, Drafts: drafts, Err: err}
	}
}
