// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package rag

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/jeranaias/mpcchat/internal/ui/components"
)

// KeyMap defines the keyboard bindings of the retrieval screen.
type KeyMap struct {
	SwitchMode  key.Binding
	NextField   key.Binding
	PrevField   key.Binding
	Search      key.Binding
	Submit      key.Binding
	AddDraft    key.Binding
	RemoveDraft key.Binding
	LoadFiles   key.Binding
	Increase    key.Binding
	Decrease    key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
}

// DefaultKeyMap returns the default retrieval bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		SwitchMode: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "search/index"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "previous field"),
		),
		Search: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "search"),
		),
		Submit: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "index"),
		),
		AddDraft: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "add document"),
		),
		RemoveDraft: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "remove document"),
		),
		LoadFiles: key.NewBinding(
			key.WithKeys("ctrl+f"),
			key.WithHelp("ctrl+f", "load files"),
		),
		Increase: key.NewBinding(
			key.WithKeys("up", "+"),
			key.WithHelp("up", "more results"),
		),
		Decrease: key.NewBinding(
			key.WithKeys("down", "-"),
			key.WithHelp("down", "fewer results"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "scroll down"),
		),
	}
}

func hints(bindings ...key.Binding) []components.KeyHint {
	out := make([]components.KeyHint, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		out = append(out, components.KeyHint{Key: h.Key, Desc: h.Desc})
	}
	return out
}

// SearchHints returns the status bar hints of search mode.
func (k KeyMap) SearchHints() []components.KeyHint {
	return hints(k.Search, k.NextField, k.SwitchMode)
}

// IndexHints returns the status bar hints of index mode.
func (k KeyMap) IndexHints() []components.KeyHint {
	return hints(k.Submit, k.AddDraft, k.RemoveDraft, k.LoadFiles, k.SwitchMode)
}
