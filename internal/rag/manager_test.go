// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package rag

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/mpcchat/internal/api"
	"github.com/jeranaias/mpcchat/internal/model"
)

type fakeBackend struct {
	searches []SearchRequest
	indexed  [][]api.Document
	indexNS  []string

	results   []api.SearchResult
	searchErr error
	indexResp *api.IndexResponse
	indexErr  error
}

func (f *fakeBackend) Search(_ context.Context, query string, topK int, namespace string) ([]api.SearchResult, error) {
	f.searches = append(f.searches, SearchRequest{Query: query, TopK: topK, Namespace: namespace})
	return f.results, f.searchErr
}

func (f *fakeBackend) IndexDocuments(_ context.Context, docs []api.Document, namespace string) (*api.IndexResponse, error) {
	f.indexed = append(f.indexed, docs)
	f.indexNS = append(f.indexNS, namespace)
	if f.indexErr != nil {
		return nil, f.indexErr
	}
	if f.indexResp != nil {
		return f.indexResp, nil
	}
	return &api.IndexResponse{Indexed: len(docs)}, nil
}

// =============================================================================
// TOP-K
// =============================================================================

func TestClampTopK(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-3, 1},
		{0, 1},
		{1, 1},
		{5, 5},
		{20, 20},
		{21, 20},
		{1000, 20},
	}
	for _, tt := range tests {
		if got := ClampTopK(tt.in); got != tt.want {
			t.Errorf("ClampTopK(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSetTopK_Clamps(t *testing.T) {
	m := NewManager(&fakeBackend{})
	assert.Equal(t, api.DefaultTopK, m.TopK())
	assert.Equal(t, 20, m.SetTopK(99))
	assert.Equal(t, 1, m.SetTopK(0))
}

// =============================================================================
// SEARCH
// =============================================================================

func TestSearch_ReplacesResults(t *testing.T) {
	fb := &fakeBackend{results: []api.SearchResult{{Content: "a", Similarity: 0.9}}}
	m := NewManager(fb)
	m.SetNamespace(" docs ")
	m.SetTopK(3)

	got, err := m.Search(context.Background(), "  golang  ")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	require.Len(t, fb.searches, 1)
	assert.Equal(t, SearchRequest{Query: "golang", TopK: 3, Namespace: "docs"}, fb.searches[0])

	fb.results = []api.SearchResult{{Content: "b"}, {Content: "c"}}
	_, err = m.Search(context.Background(), "again")
	require.NoError(t, err)

	results := m.Results()
	require.Len(t, results, 2)
	assert.Equal(t, "b", results[0].Content)
}

func TestSearch_FailureKeepsPreviousResults(t *testing.T) {
	fb := &fakeBackend{results: []api.SearchResult{{Content: "kept"}}}
	m := NewManager(fb)
	_, err := m.Search(context.Background(), "first")
	require.NoError(t, err)

	fb.searchErr = &api.APIError{Status: 500, Detail: "index offline"}
	_, err = m.Search(context.Background(), "second")
	require.Error(t, err)

	results := m.Results()
	require.Len(t, results, 1)
	assert.Equal(t, "kept", results[0].Content)
	assert.Equal(t, model.StateIdle, m.SearchState())
}

func TestSearch_EmptyQueryRejectedLocally(t *testing.T) {
	fb := &fakeBackend{}
	m := NewManager(fb)

	_, err := m.Search(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuery)
	assert.Empty(t, fb.searches)
	assert.Equal(t, model.StateIdle, m.SearchState())
}

func TestSearch_EmptyResultsClearList(t *testing.T) {
	fb := &fakeBackend{results: []api.SearchResult{{Content: "x"}}}
	m := NewManager(fb)
	_, err := m.Search(context.Background(), "q")
	require.NoError(t, err)

	fb.results = nil
	_, err = m.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Empty(t, m.Results())
}

func TestBeginSearch_RefusesWhileBusy(t *testing.T) {
	m := NewManager(&fakeBackend{})
	_, err := m.BeginSearch("q")
	require.NoError(t, err)

	_, err = m.BeginSearch("q")
	assert.ErrorIs(t, err, ErrBusy)

	// Indexing is independent of search.
	require.NoError(t, m.SetDraftContent(0, "doc"))
	_, err = m.BeginIndex()
	assert.NoError(t, err)
}

// =============================================================================
// DRAFTS
// =============================================================================

func TestDrafts_InitialAndAddRemove(t *testing.T) {
	m := NewManager(&fakeBackend{})
	require.Equal(t, 1, m.DraftCount())
	assert.True(t, m.Drafts()[0].IsBlank())

	assert.ErrorIs(t, m.RemoveDraft(0), ErrLastDraft)

	idx := m.AddDraft()
	assert.Equal(t, 1, idx)
	require.NoError(t, m.SetDraftContent(1, "second"))
	require.NoError(t, m.RemoveDraft(0))

	drafts := m.Drafts()
	require.Len(t, drafts, 1)
	assert.Equal(t, "second", drafts[0].Content)

	assert.ErrorIs(t, m.SetDraftID(5, "x"), ErrDraftIndex)
	assert.ErrorIs(t, m.RemoveDraft(-1), ErrDraftIndex)
}

func TestSetDraftMetadata_KeepsLastValidParse(t *testing.T) {
	m := NewManager(&fakeBackend{})

	require.NoError(t, m.SetDraftMetadata(0, `{"source":"wiki"}`))
	err := m.SetDraftMetadata(0, `{"source":`)
	assert.ErrorIs(t, err, ErrInvalidMetadata)

	d := m.Drafts()[0]
	assert.Equal(t, `{"source":`, d.MetadataText)
	assert.Equal(t, "wiki", d.Metadata["source"])
	assert.Error(t, d.MetadataErr)

	require.NoError(t, m.SetDraftMetadata(0, `{"source":"docs"}`))
	d = m.Drafts()[0]
	assert.NoError(t, d.MetadataErr)
	assert.Equal(t, "docs", d.Metadata["source"])
}

func TestSetDraftMetadata_RejectsNonObject(t *testing.T) {
	var d Draft
	assert.ErrorIs(t, d.SetMetadataText(`[1,2]`), ErrInvalidMetadata)
	assert.NoError(t, d.SetMetadataText("  "))
	assert.Empty(t, d.Metadata)
}

// =============================================================================
// INDEXING
// =============================================================================

func TestIndex_SkipsBlankDrafts(t *testing.T) {
	fb := &fakeBackend{}
	m := NewManager(fb)
	m.SetNamespace("kb")

	require.NoError(t, m.SetDraftID(0, "doc-1"))
	require.NoError(t, m.SetDraftContent(0, "Go is a programming language"))
	require.NoError(t, m.SetDraftMetadata(0, `{"lang":"en"}`))
	m.AddDraft()
	require.NoError(t, m.SetDraftContent(1, "   "))

	n, err := m.Index(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, fb.indexed, 1)
	docs := fb.indexed[0]
	require.Len(t, docs, 1)
	assert.Equal(t, "doc-1", docs[0].ID)
	assert.Equal(t, "kb", docs[0].Namespace)
	assert.Equal(t, "en", docs[0].Metadata["lang"])
	assert.Equal(t, "kb", fb.indexNS[0])

	// Drafts reset to a single blank entry.
	drafts := m.Drafts()
	require.Len(t, drafts, 1)
	assert.True(t, drafts[0].IsBlank())
	assert.Equal(t, model.StateIdle, m.IndexState())
}

func TestIndex_NoContentMakesNoCall(t *testing.T) {
	fb := &fakeBackend{}
	m := NewManager(fb)
	m.AddDraft()

	_, err := m.Index(context.Background())
	assert.ErrorIs(t, err, ErrNoDocuments)
	assert.Empty(t, fb.indexed)
	assert.Equal(t, model.StateIdle, m.IndexState())
}

func TestIndex_InvalidMetadataMakesNoCall(t *testing.T) {
	fb := &fakeBackend{}
	m := NewManager(fb)
	require.NoError(t, m.SetDraftContent(0, "text"))
	_ = m.SetDraftMetadata(0, "{broken")

	_, err := m.Index(context.Background())
	assert.ErrorIs(t, err, ErrInvalidMetadata)
	assert.Empty(t, fb.indexed)
}

func TestIndex_InvalidMetadataOnBlankDraftIgnored(t *testing.T) {
	fb := &fakeBackend{}
	m := NewManager(fb)
	require.NoError(t, m.SetDraftContent(0, "text"))
	m.AddDraft()
	_ = m.SetDraftMetadata(1, "{broken")

	_, err := m.Index(context.Background())
	require.NoError(t, err)
	assert.Len(t, fb.indexed[0], 1)
}

func TestIndex_FailureKeepsDrafts(t *testing.T) {
	fb := &fakeBackend{indexErr: errors.New("down")}
	m := NewManager(fb)
	require.NoError(t, m.SetDraftContent(0, "keep me"))

	_, err := m.Index(context.Background())
	require.Error(t, err)
	assert.Equal(t, "keep me", m.Drafts()[0].Content)
	assert.Equal(t, model.StateIdle, m.IndexState())
}

func TestIndex_DefaultMetadataIsEmptyObject(t *testing.T) {
	fb := &fakeBackend{}
	m := NewManager(fb)
	require.NoError(t, m.SetDraftContent(0, "plain"))

	_, err := m.Index(context.Background())
	require.NoError(t, err)
	doc := fb.indexed[0][0]
	assert.NotNil(t, doc.Metadata)
	assert.Empty(t, doc.Metadata)
	assert.Empty(t, doc.ID)
	assert.Empty(t, doc.Namespace)
}

func TestDraftsFromFiles(t *testing.T) {
	dir := t.TempDir()
	p1 := filepath.Join(dir, "intro.md")
	p2 := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(p1, []byte("# Intro"), 0o600))
	require.NoError(t, os.WriteFile(p2, []byte("some notes"), 0o600))

	drafts, err := DraftsFromFiles([]string{p1, p2}, `{"origin":"cli"}`)
	require.NoError(t, err)
	require.Len(t, drafts, 2)
	assert.Equal(t, "intro", drafts[0].ID)
	assert.Equal(t, "# Intro", drafts[0].Content)
	assert.Equal(t, "cli", drafts[1].Metadata["origin"])

	_, err = DraftsFromFiles([]string{filepath.Join(dir, "missing.txt")}, "")
	assert.Error(t, err)

	_, err = DraftsFromFiles([]string{p1}, "nope")
	assert.ErrorIs(t, err, ErrInvalidMetadata)
}
