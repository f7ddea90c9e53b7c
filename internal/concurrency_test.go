// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package internal contains race detection tests for mpcchat.
//
// Run with: go test -race -v ./internal/...
//
// The access patterns match the TUI: the settings panel writes the store
// while chat sends and retrieval calls read it from command goroutines.
package internal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/mpcchat/internal/chat"
	"github.com/jeranaias/mpcchat/internal/rag"
	"github.com/jeranaias/mpcchat/internal/settings"
)

// =============================================================================
// TEST CONFIGURATION
// =============================================================================

const (
	// Number of concurrent goroutines for race tests
	raceConcurrency = 20
	// Number of iterations per goroutine
	raceIterations = 25
	// Timeout for race tests
	raceTimeout = 30 * time.Second
)

// =============================================================================
// SETTINGS CONCURRENCY TESTS
// =============================================================================

// TestConcurrency_SettingsDuringSends updates the store while sessions send.
// Each send must carry one consistent snapshot.
func TestConcurrency_SettingsDuringSends(t *testing.T) {
	rb, client := newRouterBackend(t)
	store := settings.NewStore(settings.Settings{SenderPhone: "+1555"})

	ctx, cancel := context.WithTimeout(context.Background(), raceTimeout)
	defer cancel()

	var wg sync.WaitGroup
	errChan := make(chan error, raceConcurrency)

	// Writers flip RAG on and off, always pairing the namespace with the flag.
	for i := 0; i < raceConcurrency/2; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < raceIterations; j++ {
				on := (id+j)%2 == 0
				store.Update(func(s *settings.Settings) {
					s.UseRag = on
					if on {
						s.RagNamespace = "docs"
					} else {
						s.RagNamespace = ""
					}
				})
			}
		}(i)
	}

	// Senders each own a session, as separate program instances would.
	var sent int64
	for i := 0; i < raceConcurrency/2; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			session := chat.NewSession(client, store)
			for j := 0; j < raceIterations/5; j++ {
				if _, err := session.Send(ctx, fmt.Sprintf("msg %d-%d", id, j)); err != nil {
					errChan <- err
					return
				}
				atomic.AddInt64(&sent, 1)
			}
		}(i)
	}

	wg.Wait()
	close(errChan)
	for err := range errChan {
		t.Errorf("send failed: %v", err)
	}

	requests := rb.sentRequests()
	assert.Len(t, requests, int(atomic.LoadInt64(&sent)))
	for _, req := range requests {
		ns, hasNS := req["rag_namespace"]
		if req["use_rag"] == true {
			assert.Equal(t, "docs", ns)
		} else {
			assert.False(t, hasNS, "namespace must not travel without rag")
		}
	}
}

// TestConcurrency_SessionSingleFlight fires many sends at one session. The
// ones that lose the race are refused with ErrBusy and leave no trace.
func TestConcurrency_SessionSingleFlight(t *testing.T) {
	rb, client := newRouterBackend(t)
	session := chat.NewSession(client, settings.NewStore(settings.Settings{}))

	var wg sync.WaitGroup
	var ok, busy int64
	for i := 0; i < raceConcurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_, err := session.Send(context.Background(), fmt.Sprintf("q%d", id))
			switch {
			case err == nil:
				atomic.AddInt64(&ok, 1)
			case errors.Is(err, chat.ErrBusy):
				atomic.AddInt64(&busy, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, raceConcurrency, ok+busy)
	assert.GreaterOrEqual(t, ok, int64(1))
	assert.Equal(t, int(ok)*2, session.Transcript().Len(), "one user and one bot message per accepted send")

	assert.Len(t, rb.sentRequests(), int(ok))
}

// =============================================================================
// RETRIEVAL CONCURRENCY TESTS
// =============================================================================

// TestConcurrency_ManagerAccessors mixes searches and indexing with the
// setters the RAG panel calls from the UI goroutine.
func TestConcurrency_ManagerAccessors(t *testing.T) {
	_, client := newRouterBackend(t)
	manager := rag.NewManager(client)
	manager.SetNamespace("shared")

	manager.SetDrafts([]rag.Draft{{ID: "seed", Content: "shared knowledge base"}})
	_, err := manager.Index(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), raceTimeout)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < raceConcurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < raceIterations; j++ {
				switch (id + j) % 4 {
				case 0:
					_, err := manager.Search(ctx, "knowledge")
					if err != nil && !errors.Is(err, rag.ErrBusy) {
						t.Errorf("search: %v", err)
					}
				case 1:
					k := manager.SetTopK(j)
					if k < rag.MinTopK || k > rag.MaxTopK {
						t.Errorf("SetTopK(%d) returned %d", j, k)
					}
				case 2:
					idx := manager.AddDraft()
					_ = manager.SetDraftContent(idx, "row")
					_ = manager.Drafts()
				case 3:
					_ = manager.Results()
					_ = manager.SearchState()
					_ = manager.Namespace()
				}
			}
		}(i)
	}
	wg.Wait()

	k := manager.TopK()
	assert.True(t, k >= rag.MinTopK && k <= rag.MaxTopK)
	assert.GreaterOrEqual(t, manager.DraftCount(), 1)
}
