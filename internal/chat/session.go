// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/mpcchat/internal/api"
	"github.com/jeranaias/mpcchat/internal/model"
	"github.com/jeranaias/mpcchat/internal/settings"
)

// Backend is the subset of the API client used by a chat session.
type Backend interface {
	SendMessage(ctx context.Context, prompt string, opts api.ChatOptions) (*api.ChatResponse, error)
	SendAudio(ctx context.Context, file api.AudioFile, opts api.ChatOptions) (*api.ChatResponse, error)
	ClearMemory(ctx context.Context, phone string) (*api.Ack, error)
}

// =============================================================================
// SEND LIFECYCLE
// =============================================================================

// Pending is a send that passed local validation and is waiting for its
// network call.
type Pending struct {
	// UserMessage is the message already appended to the transcript.
	UserMessage model.Message

	// Prompt is sent to POST /chat when Attachment is nil.
	Prompt string

	// Attachment, when set, is uploaded to POST /chat/audio instead of Prompt.
	Attachment *api.AudioFile

	// Options is the settings snapshot taken when the send began.
	Options api.ChatOptions

	attachmentSeq uint64
}

// UsesAudio reports whether the send goes through the audio upload path.
func (p Pending) UsesAudio() bool {
	return p.Attachment != nil
}

// Outcome is the result of running a Pending send.
type Outcome struct {
	Pending  Pending
	Response *api.ChatResponse
	Err      error
}

// =============================================================================
// SESSION
// =============================================================================

// Session owns one chat transcript, the staged attachment and the
// per-action states for send and clear-memory.
type Session struct {
	mu sync.Mutex

	backend    Backend
	settings   *settings.Store
	transcript *model.Transcript
	attachment *api.AudioFile
	stagedSeq  uint64

	sendState  model.ActionState
	clearState model.ActionState

	logger *zap.Logger
}

// NewSession creates a session with an empty transcript.
func NewSession(backend Backend, store *settings.Store) *Session {
	if store == nil {
		store = settings.NewStore(settings.Settings{})
	}
	return &Session{
		backend:    backend,
		settings:   store,
		transcript: model.NewTranscript(),
		logger:     zap.NewNop(),
	}
}

// WithLogger sets the logger used for session events.
func (s *Session) WithLogger(logger *zap.Logger) *Session {
	if logger != nil {
		s.logger = logger.Named("chat")
	}
	return s
}

// Transcript returns the session transcript.
func (s *Session) Transcript() *model.Transcript {
	return s.transcript
}

// Settings returns the shared settings store.
func (s *Session) Settings() *settings.Store {
	return s.settings
}

// SendState returns the state of the send action.
func (s *Session) SendState() model.ActionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sendState
}

// ClearState returns the state of the clear-memory action.
func (s *Session) ClearState() model.ActionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearState
}

// =============================================================================
// ATTACHMENT
// =============================================================================

// StageAttachment stages file for the next send, replacing any staged one.
func (s *Session) StageAttachment(file api.AudioFile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := file
	s.attachment = &f
	s.stagedSeq++
	s.logger.Debug("attachment staged", zap.String("name", file.Name), zap.Int("bytes", len(file.Data)))
}

// ClearAttachment removes the staged attachment, if any.
func (s *Session) ClearAttachment() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachment = nil
}

// Attachment returns a copy of the staged attachment.
func (s *Session) Attachment() (api.AudioFile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attachment == nil {
		return api.AudioFile{}, false
	}
	return *s.attachment, true
}

// =============================================================================
// SEND
// =============================================================================

// Begin validates a send of text and appends the user message.
// It returns ErrNothingToSend for blank text without an attachment and
// ErrBusy while a previous send is in flight.
func (s *Session) Begin(text string) (Pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sendState.IsBusy() {
		return Pending{}, ErrBusy
	}
	if strings.TrimSpace(text) == "" && s.attachment == nil {
		return Pending{}, ErrNothingToSend
	}

	userMsg := model.NewUserMessage(text)
	p := Pending{
		Prompt:  text,
		Options: s.settings.Snapshot().ChatOptions(),
	}
	if s.attachment != nil {
		att := *s.attachment
		p.Attachment = &att
		p.attachmentSeq = s.stagedSeq
		userMsg.AttachmentName = att.Name
	}
	p.UserMessage = userMsg

	s.transcript.Append(userMsg)
	s.sendState = model.StateBusy
	return p, nil
}

// Run performs the network call for p. It does not touch session state and
// may run outside the UI goroutine.
func (s *Session) Run(ctx context.Context, p Pending) Outcome {
	var (
		resp *api.ChatResponse
		err  error
	)
	if p.UsesAudio() {
		resp, err = s.backend.SendAudio(ctx, *p.Attachment, p.Options)
	} else {
		resp, err = s.backend.SendMessage(ctx, p.Prompt, p.Options)
	}
	return Outcome{Pending: p, Response: resp, Err: err}
}

// Finish applies the outcome of a send. On success the bot message is
// appended and a used attachment is discarded. On failure the transcript
// and the staged attachment are left as they were.
func (s *Session) Finish(o Outcome) (model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sendState = model.StateIdle

	if o.Err != nil {
		s.logger.Warn("send failed", zap.Bool("audio", o.Pending.UsesAudio()), zap.Error(o.Err))
		return model.Message{}, o.Err
	}
	if o.Response == nil {
		return model.Message{}, fmt.Errorf("send: %w", api.ErrMalformedResponse)
	}

	// A file staged while the upload was running is kept.
	if o.Pending.UsesAudio() && s.attachment != nil && s.stagedSeq == o.Pending.attachmentSeq {
		s.attachment = nil
	}

	botMsg := model.NewBotMessage(o.Response)
	s.transcript.Append(botMsg)
	s.logger.Debug("reply received", zap.String("model", botMsg.Model))
	return botMsg, nil
}

// Send runs a complete send synchronously.
func (s *Session) Send(ctx context.Context, text string) (model.Message, error) {
	p, err := s.Begin(text)
	if err != nil {
		return model.Message{}, err
	}
	return s.Finish(s.Run(ctx, p))
}

// =============================================================================
// CLEAR MEMORY
// =============================================================================

// BeginClear validates a clear-memory request and returns the phone to clear.
func (s *Session) BeginClear() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.clearState.IsBusy() {
		return "", ErrBusy
	}
	snap := s.settings.Snapshot()
	if !snap.HasPhone() {
		return "", ErrPhoneRequired
	}
	s.clearState = model.StateBusy
	return snap.SenderPhone, nil
}

// RunClear performs the clear-memory call for phone.
func (s *Session) RunClear(ctx context.Context, phone string) error {
	_, err := s.backend.ClearMemory(ctx, phone)
	return err
}

// FinishClear applies the result of a clear-memory call. The transcript is
// reset only when err is nil.
func (s *Session) FinishClear(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clearState = model.StateIdle
	if err != nil {
		s.logger.Warn("clear memory failed", zap.Error(err))
		return err
	}
	s.transcript.Reset()
	return nil
}

// ClearMemory clears server-side memory for the configured phone and then
// the local transcript. Without a phone it returns ErrPhoneRequired and
// makes no network call.
func (s *Session) ClearMemory(ctx context.Context) error {
	phone, err := s.BeginClear()
	if err != nil {
		return err
	}
	return s.FinishClear(s.RunClear(ctx, phone))
}
