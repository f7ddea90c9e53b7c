// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package settings

import (
	"sync"
	"testing"
)

func TestNewStore_Normalizes(t *testing.T) {
	st := NewStore(Settings{SenderPhone: "  5511  ", RagNamespace: " docs "})
	s := st.Snapshot()

	if s.SenderPhone != "5511" {
		t.Errorf("SenderPhone = %q, want trimmed", s.SenderPhone)
	}
	if s.RagNamespace != "docs" {
		t.Errorf("RagNamespace = %q, want trimmed", s.RagNamespace)
	}
	if s.RagTopK != 5 {
		t.Errorf("RagTopK = %d, want default 5", s.RagTopK)
	}
}

func TestStore_EmptyStringsMeanNone(t *testing.T) {
	st := NewStore(Settings{Model: "gpt-4o", RagNamespace: "docs"})

	st.SetModel("")
	st.SetRagNamespace("   ")

	s := st.Snapshot()
	if s.Model != "" {
		t.Errorf("Model = %q, want no preference", s.Model)
	}
	if s.RagNamespace != "" {
		t.Errorf("RagNamespace = %q, want none", s.RagNamespace)
	}
}

func TestStore_SnapshotIsCopy(t *testing.T) {
	st := NewStore(Settings{SenderPhone: "1"})
	snap := st.Snapshot()
	st.SetSenderPhone("2")

	if snap.SenderPhone != "1" {
		t.Error("snapshot should not observe later edits")
	}
	if st.Snapshot().SenderPhone != "2" {
		t.Error("store should observe edits")
	}
}

func TestSettings_ChatOptions(t *testing.T) {
	s := Settings{
		SenderPhone:   "5511",
		Model:         "deepseek-chat",
		GenerateAudio: true,
		UseRag:        false,
		RagNamespace:  "docs",
		RagTopK:       5,
	}

	opts := s.ChatOptions()
	if opts.RagNamespace != "" {
		t.Error("namespace must not be sent while RAG is disabled")
	}
	if opts.Model != "deepseek-chat" || !opts.GenerateAudio || opts.SenderPhone != "5511" {
		t.Errorf("unexpected options: %+v", opts)
	}

	s.UseRag = true
	if got := s.ChatOptions().RagNamespace; got != "docs" {
		t.Errorf("RagNamespace = %q, want docs", got)
	}
}

func TestSettings_HasPhone(t *testing.T) {
	if (Settings{}).HasPhone() {
		t.Error("empty phone should report false")
	}
	if (Settings{SenderPhone: "   "}).HasPhone() {
		t.Error("blank phone should report false")
	}
	if !(Settings{SenderPhone: "5511"}).HasPhone() {
		t.Error("phone should report true")
	}
}

func TestAvailableModels(t *testing.T) {
	if len(AvailableModels) != 9 {
		t.Fatalf("len(AvailableModels) = %d, want 9", len(AvailableModels))
	}
	if AvailableModels[0].Value != "" {
		t.Error("first option should be automatic routing")
	}
	if ModelIndex("mistral-large") != 8 {
		t.Errorf("ModelIndex(mistral-large) = %d", ModelIndex("mistral-large"))
	}
	if ModelIndex("nope") != -1 {
		t.Error("unknown model should not be found")
	}
	if ModelLabel("gpt-4o-mini") != "GPT-4o Mini" {
		t.Errorf("ModelLabel = %q", ModelLabel("gpt-4o-mini"))
	}
	if ModelLabel("custom") != "custom" {
		t.Error("unknown model label should pass through")
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	st := NewStore(Settings{})
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			st.SetUseRag(i%2 == 0)
			st.Update(func(s *Settings) { s.RagTopK = i + 1 })
		}(i)
		go func() {
			defer wg.Done()
			_ = st.Snapshot()
		}()
	}

	wg.Wait()
}
