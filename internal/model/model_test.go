// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"testing"

	"github.com/jeranaias/mpcchat/internal/api"
)

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewUserMessage(t *testing.T) {
	msg := NewUserMessage("Hello")

	if msg.Type != TypeUser {
		t.Errorf("Type = %q, want user", msg.Type)
	}
	if msg.Text != "Hello" {
		t.Errorf("Text = %q, want Hello", msg.Text)
	}
	if msg.ID == "" {
		t.Error("ID should be generated")
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
	if !msg.IsUser() {
		t.Error("IsUser should be true")
	}
}

func TestNewBotMessage_MirrorsResponse(t *testing.T) {
	conf := 0.42
	resp := &api.ChatResponse{
		Text:          "Hi",
		Model:         "gpt-4o",
		Confidence:    &conf,
		CostAnalysis:  &api.CostAnalysis{Model: "gpt-4o"},
		Audio:         &api.AudioPayload{Base64: "AAAA"},
		Transcription: "hello",
	}

	msg := NewBotMessage(resp)
	if msg.Type != TypeBot {
		t.Errorf("Type = %q, want bot", msg.Type)
	}
	if msg.Text != "Hi" || msg.Model != "gpt-4o" || msg.Transcription != "hello" {
		t.Errorf("fields not mirrored: %+v", msg)
	}
	if msg.Confidence == nil || *msg.Confidence != conf {
		t.Error("Confidence not mirrored")
	}
	if msg.CostAnalysis != resp.CostAnalysis {
		t.Error("CostAnalysis not mirrored")
	}
	if !msg.HasAudio() {
		t.Error("HasAudio should be true")
	}
	if msg.ConfidencePercent() != "42%" {
		t.Errorf("ConfidencePercent = %q", msg.ConfidencePercent())
	}
}

func TestNewBotMessage_NilResponse(t *testing.T) {
	msg := NewBotMessage(nil)
	if msg.Type != TypeBot || msg.Text != "" {
		t.Errorf("unexpected message: %+v", msg)
	}
	if msg.HasAudio() {
		t.Error("HasAudio should be false")
	}
}

func TestMessageType_DisplayName(t *testing.T) {
	if TypeUser.DisplayName() != "You" {
		t.Errorf("user display = %q", TypeUser.DisplayName())
	}
	if TypeBot.DisplayName() != "Assistant" {
		t.Errorf("bot display = %q", TypeBot.DisplayName())
	}
}

// =============================================================================
// TRANSCRIPT TESTS
// =============================================================================

func TestTranscript_AppendOnly(t *testing.T) {
	tr := NewTranscript()
	a := NewUserMessage("one")
	b := NewBotMessage(&api.ChatResponse{Text: "two"})

	tr.Append(a)
	tr.Append(b)

	msgs := tr.Messages()
	if len(msgs) != 2 {
		t.Fatalf("Len = %d, want 2", len(msgs))
	}
	if msgs[0].ID != a.ID || msgs[1].ID != b.ID {
		t.Error("messages out of order")
	}

	// Mutating the copy must not affect the transcript.
	msgs[0].Text = "changed"
	if tr.Messages()[0].Text != "one" {
		t.Error("Messages should return a copy")
	}

	last, ok := tr.Last()
	if !ok || last.ID != b.ID {
		t.Error("Last should return the newest message")
	}
	if got, ok := tr.ByID(a.ID); !ok || got.Text != "one" {
		t.Error("ByID failed")
	}
}

func TestTranscript_Reset(t *testing.T) {
	tr := NewTranscript()
	tr.Append(NewUserMessage("x"))
	tr.Reset()

	if tr.Len() != 0 {
		t.Errorf("Len after Reset = %d", tr.Len())
	}
	if _, ok := tr.Last(); ok {
		t.Error("Last should report false on empty transcript")
	}
}

func TestTranscript_LastWithAudio(t *testing.T) {
	tr := NewTranscript()
	if _, ok := tr.LastWithAudio(); ok {
		t.Error("empty transcript has no audio")
	}

	withAudio := NewBotMessage(&api.ChatResponse{Text: "a", Audio: &api.AudioPayload{Base64: "QQ=="}})
	tr.Append(withAudio)
	tr.Append(NewUserMessage("b"))

	got, ok := tr.LastWithAudio()
	if !ok || got.ID != withAudio.ID {
		t.Error("LastWithAudio should find the audio message")
	}
}

func TestActionState(t *testing.T) {
	if StateIdle.IsBusy() {
		t.Error("idle is not busy")
	}
	if !StateBusy.IsBusy() {
		t.Error("busy is busy")
	}
	if StateBusy.String() != "busy" || StateIdle.String() != "idle" {
		t.Error("unexpected String()")
	}
}
