// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package settings holds the session-scoped chat settings shared by the
// chat surfaces and edited from the settings panel.
//
// A Store is created once by the root view (or CLI command) and passed down
// explicitly. Edits are immediate and never persisted; the initial values
// come from the configuration file.
package settings

import (
	"strings"
	"sync"

	"github.com/jeranaias/mpcchat/internal/api"
)

// ModelOption is a selectable entry in the model picker.
type ModelOption struct {
	// Value is sent to the backend. Empty means automatic routing.
	Value string
	Label string
}

// AvailableModels lists the models offered by the settings panel, in display order.
var AvailableModels = []ModelOption{
	{Value: "", Label: "Automatic (router decides)"},
	{Value: "gpt-4o", Label: "GPT-4o"},
	{Value: "gpt-4o-mini", Label: "GPT-4o Mini"},
	{Value: "claude-3-5-sonnet", Label: "Claude 3.5 Sonnet"},
	{Value: "claude-3-5-haiku", Label: "Claude 3.5 Haiku"},
	{Value: "gemini-2.0-flash-exp", Label: "Gemini 2.0 Flash"},
	{Value: "gemini-1.5-flash", Label: "Gemini 1.5 Flash"},
	{Value: "deepseek-chat", Label: "DeepSeek Chat"},
	{Value: "mistral-large", Label: "Mistral Large"},
}

// ModelLabel returns the display label for a model value.
// Unknown values are returned unchanged.
func ModelLabel(value string) string {
	for _, opt := range AvailableModels {
		if opt.Value == value {
			return opt.Label
		}
	}
	return value
}

// ModelIndex returns the position of value in AvailableModels, or -1.
func ModelIndex(value string) int {
	for i, opt := range AvailableModels {
		if opt.Value == value {
			return i
		}
	}
	return -1
}

// Settings is a point-in-time copy of the chat settings.
type Settings struct {
	SenderPhone   string
	Model         string // "" = no preference
	GenerateAudio bool
	UseRag        bool
	RagNamespace  string // "" = none
	RagTopK       int
}

// HasPhone reports whether a phone identity is configured.
func (s Settings) HasPhone() bool {
	return strings.TrimSpace(s.SenderPhone) != ""
}

// ChatOptions converts the settings into per-request API options.
// The RAG namespace only travels when RAG is enabled.
func (s Settings) ChatOptions() api.ChatOptions {
	opts := api.ChatOptions{
		SenderPhone:   strings.TrimSpace(s.SenderPhone),
		Model:         s.Model,
		GenerateAudio: s.GenerateAudio,
		UseRag:        s.UseRag,
		RagTopK:       s.RagTopK,
	}
	if s.UseRag {
		opts.RagNamespace = s.RagNamespace
	}
	return opts
}

// Store is the mutable, concurrency-safe settings holder.
type Store struct {
	mu sync.RWMutex
	s  Settings
}

// NewStore creates a store seeded with initial.
func NewStore(initial Settings) *Store {
	st := &Store{}
	st.s = normalize(initial)
	return st
}

// Snapshot returns a copy of the current settings.
func (st *Store) Snapshot() Settings {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s
}

// SetSenderPhone sets the phone identity.
func (st *Store) SetSenderPhone(phone string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.SenderPhone = strings.TrimSpace(phone)
}

// SetModel sets the preferred model; an empty string clears the preference.
func (st *Store) SetModel(model string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.Model = strings.TrimSpace(model)
}

// SetGenerateAudio toggles spoken replies.
func (st *Store) SetGenerateAudio(on bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.GenerateAudio = on
}

// SetUseRag toggles retrieval-augmented generation.
func (st *Store) SetUseRag(on bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.UseRag = on
}

// SetRagNamespace sets the RAG namespace; an empty string means none.
func (st *Store) SetRagNamespace(ns string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.RagNamespace = strings.TrimSpace(ns)
}

// Update applies fn to the settings under the write lock.
func (st *Store) Update(fn func(*Settings)) {
	st.mu.Lock()
	defer st.mu.Unlock()
	fn(&st.s)
	st.s = normalize(st.s)
}

func normalize(s Settings) Settings {
	s.SenderPhone = strings.TrimSpace(s.SenderPhone)
	s.Model = strings.TrimSpace(s.Model)
	s.RagNamespace = strings.TrimSpace(s.RagNamespace)
	if s.RagTopK <= 0 {
		s.RagTopK = api.DefaultTopK
	}
	return s
}
