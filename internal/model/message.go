// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/mpcchat/internal/api"
)

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// MessageType identifies who produced a message.
type MessageType string

const (
	TypeUser MessageType = "user"
	TypeBot  MessageType = "bot"
)

// String returns the string representation of the type.
func (t MessageType) String() string {
	return string(t)
}

// DisplayName returns a human-readable sender label.
func (t MessageType) DisplayName() string {
	switch t {
	case TypeUser:
		return "You"
	case TypeBot:
		return "Assistant"
	default:
		return string(t)
	}
}

// =============================================================================
// MESSAGE
// =============================================================================

// Message is a single transcript entry. Bot messages mirror the fields of
// the backend response that produced them.
type Message struct {
	ID        string      `json:"id" yaml:"id"`
	Type      MessageType `json:"type" yaml:"type"`
	Text      string      `json:"text" yaml:"text"`
	Timestamp time.Time   `json:"timestamp" yaml:"timestamp"`

	// Set on user messages sent with an audio attachment.
	AttachmentName string `json:"attachment_name,omitempty" yaml:"attachment_name,omitempty"`

	// Set on bot messages when the backend reports them.
	Model         string            `json:"model,omitempty" yaml:"model,omitempty"`
	Confidence    *float64          `json:"confidence,omitempty" yaml:"confidence,omitempty"`
	CostAnalysis  *api.CostAnalysis `json:"cost_analysis,omitempty" yaml:"cost_analysis,omitempty"`
	Audio         *api.AudioPayload `json:"audio,omitempty" yaml:"audio,omitempty"`
	Transcription string            `json:"transcription,omitempty" yaml:"transcription,omitempty"`
}

// NewUserMessage creates a user message for text.
func NewUserMessage(text string) Message {
	return Message{
		ID:        uuid.NewString(),
		Type:      TypeUser,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// NewBotMessage creates a bot message mirroring resp.
func NewBotMessage(resp *api.ChatResponse) Message {
	msg := Message{
		ID:        uuid.NewString(),
		Type:      TypeBot,
		Timestamp: time.Now(),
	}
	if resp == nil {
		return msg
	}
	msg.Text = resp.Text
	msg.Model = resp.Model
	msg.Confidence = resp.Confidence
	msg.CostAnalysis = resp.CostAnalysis
	msg.Audio = resp.Audio
	msg.Transcription = resp.Transcription
	return msg
}

// IsUser reports whether the message was sent by the user.
func (m Message) IsUser() bool {
	return m.Type == TypeUser
}

// HasAudio reports whether the message carries a playable audio payload.
func (m Message) HasAudio() bool {
	return m.Audio != nil && m.Audio.Base64 != ""
}

// ConfidencePercent formats the confidence as a whole percentage, or "".
func (m Message) ConfidencePercent() string {
	return (&api.ChatResponse{Confidence: m.Confidence}).ConfidencePercent()
}

// ShortTime formats the timestamp for inline display.
func (m Message) ShortTime() string {
	return m.Timestamp.Format("15:04:05")
}
