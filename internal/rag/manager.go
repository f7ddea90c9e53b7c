// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package rag

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/mpcchat/internal/api"
	"github.com/jeranaias/mpcchat/internal/model"
)

const (
	// MinTopK and MaxTopK bound the number of search results.
	MinTopK = 1
	MaxTopK = 20
)

// ClampTopK bounds k to [MinTopK, MaxTopK].
func ClampTopK(k int) int {
	if k < MinTopK {
		return MinTopK
	}
	if k > MaxTopK {
		return MaxTopK
	}
	return k
}

// Backend is the subset of the API client used by the retrieval panel.
type Backend interface {
	IndexDocuments(ctx context.Context, docs []api.Document, namespace string) (*api.IndexResponse, error)
	Search(ctx context.Context, query string, topK int, namespace string) ([]api.SearchResult, error)
}

// SearchRequest is a validated search waiting for its network call.
type SearchRequest struct {
	Query     string
	TopK      int
	Namespace string
}

// SearchOutcome is the result of running a SearchRequest.
type SearchOutcome struct {
	Request SearchRequest
	Results []api.SearchResult
	Err     error
}

// IndexRequest is a validated index submission.
type IndexRequest struct {
	Documents []api.Document
	Namespace string
}

// IndexOutcome is the result of running an IndexRequest.
type IndexOutcome struct {
	Request  IndexRequest
	Response *api.IndexResponse
	Err      error
}

// Manager holds the retrieval panel state. Search and indexing have
// independent action states and touch disjoint fields, so both may be in
// flight at once.
type Manager struct {
	mu sync.Mutex

	backend   Backend
	namespace string
	topK      int

	results     []api.SearchResult
	searchState model.ActionState

	drafts     []Draft
	indexState model.ActionState

	logger *zap.Logger
}

// NewManager creates a manager with top-K 5 and one blank draft.
func NewManager(backend Backend) *Manager {
	return &Manager{
		backend: backend,
		topK:    api.DefaultTopK,
		drafts:  []Draft{{}},
		logger:  zap.NewNop(),
	}
}

// WithLogger sets the logger used for retrieval events.
func (m *Manager) WithLogger(logger *zap.Logger) *Manager {
	if logger != nil {
		m.logger = logger.Named("rag")
	}
	return m
}

// =============================================================================
// SHARED FIELDS
// =============================================================================

// Namespace returns the namespace shared by search and indexing.
func (m *Manager) Namespace() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.namespace
}

// SetNamespace sets the shared namespace. Blank means none.
func (m *Manager) SetNamespace(ns string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.namespace = strings.TrimSpace(ns)
}

// TopK returns the current result limit.
func (m *Manager) TopK() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.topK
}

// SetTopK sets the result limit, clamped to [MinTopK, MaxTopK], and
// returns the stored value.
func (m *Manager) SetTopK(k int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.topK = ClampTopK(k)
	return m.topK
}

// =============================================================================
// SEARCH
// =============================================================================

// Results returns a copy of the current results.
func (m *Manager) Results() []api.SearchResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]api.SearchResult, len(m.results))
	copy(out, m.results)
	return out
}

// SearchState returns the state of the search action.
func (m *Manager) SearchState() model.ActionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.searchState
}

// BeginSearch validates query and marks search busy.
func (m *Manager) BeginSearch(query string) (SearchRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.searchState.IsBusy() {
		return SearchRequest{}, ErrBusy
	}
	q := strings.TrimSpace(query)
	if q == "" {
		return SearchRequest{}, ErrEmptyQuery
	}
	m.searchState = model.StateBusy
	return SearchRequest{Query: q, TopK: ClampTopK(m.topK), Namespace: m.namespace}, nil
}

// RunSearch performs the network call for req.
func (m *Manager) RunSearch(ctx context.Context, req SearchRequest) SearchOutcome {
	results, err := m.backend.Search(ctx, req.Query, req.TopK, req.Namespace)
	return SearchOutcome{Request: req, Results: results, Err: err}
}

// FinishSearch applies a search outcome. Results are replaced wholesale on
// success and left untouched on failure.
func (m *Manager) FinishSearch(o SearchOutcome) ([]api.SearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.searchState = model.StateIdle
	if o.Err != nil {
		m.logger.Warn("search failed", zap.Error(o.Err))
		return nil, o.Err
	}

	results := o.Results
	if results == nil {
		results = []api.SearchResult{}
	}
	m.results = results
	m.logger.Debug("search completed", zap.Int("results", len(results)))

	out := make([]api.SearchResult, len(results))
	copy(out, results)
	return out, nil
}

// Search runs a complete search synchronously.
func (m *Manager) Search(ctx context.Context, query string) ([]api.SearchResult, error) {
	req, err := m.BeginSearch(query)
	if err != nil {
		return nil, err
	}
	return m.FinishSearch(m.RunSearch(ctx, req))
}

// =============================================================================
// DRAFTS
// =============================================================================

// Drafts returns a copy of the draft list.
func (m *Manager) Drafts() []Draft {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Draft, len(m.drafts))
	for i, d := range m.drafts {
		out[i] = d.clone()
	}
	return out
}

// DraftCount returns the number of draft rows.
func (m *Manager) DraftCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.drafts)
}

// AddDraft appends a blank draft and returns its index.
func (m *Manager) AddDraft() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts = append(m.drafts, Draft{})
	return len(m.drafts) - 1
}

// RemoveDraft deletes the draft at i. The last remaining draft cannot be removed.
func (m *Manager) RemoveDraft(i int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkIndex(i); err != nil {
		return err
	}
	if len(m.drafts) == 1 {
		return ErrLastDraft
	}
	m.drafts = append(m.drafts[:i], m.drafts[i+1:]...)
	return nil
}

// SetDrafts replaces the draft list. An empty list becomes one blank draft.
func (m *Manager) SetDrafts(drafts []Draft) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(drafts) == 0 {
		m.drafts = []Draft{{}}
		return
	}
	m.drafts = make([]Draft, len(drafts))
	for i, d := range drafts {
		m.drafts[i] = d.clone()
	}
}

// SetDraftID sets the optional document id of draft i.
func (m *Manager) SetDraftID(i int, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkIndex(i); err != nil {
		return err
	}
	m.drafts[i].ID = id
	return nil
}

// SetDraftContent sets the content of draft i.
func (m *Manager) SetDraftContent(i int, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkIndex(i); err != nil {
		return err
	}
	m.drafts[i].Content = content
	return nil
}

// SetDraftMetadata sets the raw metadata JSON of draft i. An error wrapping
// ErrInvalidMetadata is returned while the text does not parse; the last
// valid metadata is kept.
func (m *Manager) SetDraftMetadata(i int, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkIndex(i); err != nil {
		return err
	}
	return m.drafts[i].SetMetadataText(text)
}

func (m *Manager) checkIndex(i int) error {
	if i < 0 || i >= len(m.drafts) {
		return fmt.Errorf("%w: %d", ErrDraftIndex, i)
	}
	return nil
}

// =============================================================================
// INDEXING
// =============================================================================

// IndexState returns the state of the index action.
func (m *Manager) IndexState() model.ActionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.indexState
}

// BeginIndex validates the drafts and builds the submission. Blank drafts
// are skipped. It returns ErrNoDocuments when nothing remains and
// ErrInvalidMetadata when a remaining draft has unparsable metadata.
func (m *Manager) BeginIndex() (IndexRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.indexState.IsBusy() {
		return IndexRequest{}, ErrBusy
	}

	req := IndexRequest{Namespace: m.namespace}
	for i, d := range m.drafts {
		if d.IsBlank() {
			continue
		}
		if d.MetadataErr != nil {
			return IndexRequest{}, fmt.Errorf("document %d: %w", i+1, d.MetadataErr)
		}
		req.Documents = append(req.Documents, d.clone().Document(m.namespace))
	}
	if len(req.Documents) == 0 {
		return IndexRequest{}, ErrNoDocuments
	}

	m.indexState = model.StateBusy
	return req, nil
}

// RunIndex performs the network call for req.
func (m *Manager) RunIndex(ctx context.Context, req IndexRequest) IndexOutcome {
	resp, err := m.backend.IndexDocuments(ctx, req.Documents, req.Namespace)
	return IndexOutcome{Request: req, Response: resp, Err: err}
}

// FinishIndex applies an index outcome and returns the indexed count. On
// success the drafts reset to one blank row; on failure they are kept.
func (m *Manager) FinishIndex(o IndexOutcome) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.indexState = model.StateIdle
	if o.Err != nil {
		m.logger.Warn("index failed", zap.Int("documents", len(o.Request.Documents)), zap.Error(o.Err))
		return 0, o.Err
	}

	m.drafts = []Draft{{}}
	indexed := 0
	if o.Response != nil {
		indexed = o.Response.Indexed
	}
	m.logger.Info("documents indexed", zap.Int("indexed", indexed), zap.String("namespace", o.Request.Namespace))
	return indexed, nil
}

// Index submits the drafts synchronously.
func (m *Manager) Index(ctx context.Context) (int, error) {
	req, err := m.BeginIndex()
	if err != nil {
		return 0, err
	}
	return m.FinishIndex(m.RunIndex(ctx, req))
}
