// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/mpcchat/internal/api"
	"github.com/jeranaias/mpcchat/internal/model"
	"github.com/jeranaias/mpcchat/internal/settings"
)

// fakeBackend records calls and returns canned results.
type fakeBackend struct {
	mu sync.Mutex

	textCalls  []string
	audioCalls []api.AudioFile
	clearCalls []string
	lastOpts   api.ChatOptions

	resp     *api.ChatResponse
	err      error
	clearErr error
}

func (f *fakeBackend) SendMessage(_ context.Context, prompt string, opts api.ChatOptions) (*api.ChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.textCalls = append(f.textCalls, prompt)
	f.lastOpts = opts
	return f.resp, f.err
}

func (f *fakeBackend) SendAudio(_ context.Context, file api.AudioFile, opts api.ChatOptions) (*api.ChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audioCalls = append(f.audioCalls, file)
	f.lastOpts = opts
	return f.resp, f.err
}

func (f *fakeBackend) ClearMemory(_ context.Context, phone string) (*api.Ack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clearCalls = append(f.clearCalls, phone)
	if f.clearErr != nil {
		return nil, f.clearErr
	}
	return &api.Ack{}, nil
}

func newTestSession(fb *fakeBackend, s settings.Settings) *Session {
	return NewSession(fb, settings.NewStore(s))
}

func floatPtr(v float64) *float64 { return &v }

// =============================================================================
// SEND
// =============================================================================

func TestSend_TextProducesUserAndBotMessages(t *testing.T) {
	fb := &fakeBackend{resp: &api.ChatResponse{
		Text:          "Hi there",
		Model:         "gpt-4o",
		Confidence:    floatPtr(0.9),
		CostAnalysis:  &api.CostAnalysis{Model: "gpt-4o"},
		Transcription: "",
	}}
	sess := newTestSession(fb, settings.Settings{Model: "gpt-4o", UseRag: true, RagNamespace: "docs"})

	bot, err := sess.Send(context.Background(), "Hello")
	require.NoError(t, err)

	msgs := sess.Transcript().Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, model.TypeUser, msgs[0].Type)
	assert.Equal(t, "Hello", msgs[0].Text)
	assert.Equal(t, model.TypeBot, msgs[1].Type)
	assert.Equal(t, bot.ID, msgs[1].ID)

	assert.Equal(t, "Hi there", bot.Text)
	assert.Equal(t, "gpt-4o", bot.Model)
	require.NotNil(t, bot.Confidence)
	assert.Equal(t, 0.9, *bot.Confidence)
	assert.Same(t, fb.resp.CostAnalysis, bot.CostAnalysis)

	assert.Equal(t, []string{"Hello"}, fb.textCalls)
	assert.Empty(t, fb.audioCalls, "text send must not use the audio path")
	assert.Equal(t, "docs", fb.lastOpts.RagNamespace)
	assert.Equal(t, model.StateIdle, sess.SendState())
}

func TestSend_AttachmentTakesPriority(t *testing.T) {
	fb := &fakeBackend{resp: &api.ChatResponse{Text: "heard you"}}
	sess := newTestSession(fb, settings.Settings{SenderPhone: "+551199"})
	sess.StageAttachment(api.AudioFile{Name: "note.mp3", ContentType: "audio/mpeg", Data: []byte("ID3")})

	_, err := sess.Send(context.Background(), "ignored text")
	require.NoError(t, err)

	assert.Empty(t, fb.textCalls, "audio send must not use the text path")
	require.Len(t, fb.audioCalls, 1)
	assert.Equal(t, "note.mp3", fb.audioCalls[0].Name)
	assert.Equal(t, "+551199", fb.lastOpts.SenderPhone)

	_, staged := sess.Attachment()
	assert.False(t, staged, "attachment should be discarded after a successful upload")

	msgs := sess.Transcript().Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "note.mp3", msgs[0].AttachmentName)
}

func TestSend_AttachmentOnlyWithBlankText(t *testing.T) {
	fb := &fakeBackend{resp: &api.ChatResponse{Text: "ok"}}
	sess := newTestSession(fb, settings.Settings{})
	sess.StageAttachment(api.AudioFile{Name: "a.wav"})

	_, err := sess.Send(context.Background(), "   ")
	require.NoError(t, err)
	assert.Len(t, fb.audioCalls, 1)
}

func TestSend_FailureKeepsAttachmentAndTranscript(t *testing.T) {
	fb := &fakeBackend{err: &api.APIError{Status: 500, Detail: "boom"}}
	sess := newTestSession(fb, settings.Settings{})
	sess.StageAttachment(api.AudioFile{Name: "retry.mp3"})

	_, err := sess.Send(context.Background(), "")
	require.Error(t, err)

	var apiErr *api.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "boom", apiErr.Detail)

	att, staged := sess.Attachment()
	require.True(t, staged)
	assert.Equal(t, "retry.mp3", att.Name)

	// Only the user message was recorded.
	assert.Equal(t, 1, sess.Transcript().Len())
	assert.Equal(t, model.StateIdle, sess.SendState())
}

func TestSend_BlankTextIsNoop(t *testing.T) {
	fb := &fakeBackend{}
	sess := newTestSession(fb, settings.Settings{})

	_, err := sess.Send(context.Background(), " \n\t")
	assert.ErrorIs(t, err, ErrNothingToSend)
	assert.Zero(t, sess.Transcript().Len())
	assert.Empty(t, fb.textCalls)
}

func TestBegin_RefusesWhileBusy(t *testing.T) {
	fb := &fakeBackend{resp: &api.ChatResponse{Text: "ok"}}
	sess := newTestSession(fb, settings.Settings{})

	p, err := sess.Begin("first")
	require.NoError(t, err)
	assert.Equal(t, model.StateBusy, sess.SendState())

	_, err = sess.Begin("second")
	assert.ErrorIs(t, err, ErrBusy)

	_, err = sess.Finish(sess.Run(context.Background(), p))
	require.NoError(t, err)

	_, err = sess.Begin("third")
	assert.NoError(t, err)
}

func TestFinish_KeepsAttachmentStagedDuringUpload(t *testing.T) {
	fb := &fakeBackend{resp: &api.ChatResponse{Text: "ok"}}
	sess := newTestSession(fb, settings.Settings{})
	sess.StageAttachment(api.AudioFile{Name: "first.mp3"})

	p, err := sess.Begin("")
	require.NoError(t, err)

	sess.StageAttachment(api.AudioFile{Name: "second.mp3"})

	_, err = sess.Finish(sess.Run(context.Background(), p))
	require.NoError(t, err)

	att, staged := sess.Attachment()
	require.True(t, staged)
	assert.Equal(t, "second.mp3", att.Name)
}

func TestStageAttachment_ReplacesPrevious(t *testing.T) {
	sess := newTestSession(&fakeBackend{}, settings.Settings{})
	sess.StageAttachment(api.AudioFile{Name: "a.mp3"})
	sess.StageAttachment(api.AudioFile{Name: "b.mp3"})

	att, ok := sess.Attachment()
	require.True(t, ok)
	assert.Equal(t, "b.mp3", att.Name)

	sess.ClearAttachment()
	_, ok = sess.Attachment()
	assert.False(t, ok)
}

func TestSend_UsesSettingsAtSendTime(t *testing.T) {
	fb := &fakeBackend{resp: &api.ChatResponse{Text: "ok"}}
	store := settings.NewStore(settings.Settings{})
	sess := NewSession(fb, store)

	store.SetModel("deepseek-chat")
	store.SetGenerateAudio(true)

	_, err := sess.Send(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "deepseek-chat", fb.lastOpts.Model)
	assert.True(t, fb.lastOpts.GenerateAudio)
}

// =============================================================================
// CLEAR MEMORY
// =============================================================================

func TestClearMemory_RequiresPhone(t *testing.T) {
	fb := &fakeBackend{resp: &api.ChatResponse{Text: "ok"}}
	sess := newTestSession(fb, settings.Settings{})
	_, err := sess.Send(context.Background(), "hello")
	require.NoError(t, err)

	err = sess.ClearMemory(context.Background())
	assert.ErrorIs(t, err, ErrPhoneRequired)
	assert.Empty(t, fb.clearCalls, "no network call without a phone")
	assert.Equal(t, 2, sess.Transcript().Len(), "transcript must be untouched")
}

func TestClearMemory_ResetsTranscript(t *testing.T) {
	fb := &fakeBackend{resp: &api.ChatResponse{Text: "ok"}}
	sess := newTestSession(fb, settings.Settings{SenderPhone: "+5511"})
	_, err := sess.Send(context.Background(), "hello")
	require.NoError(t, err)

	require.NoError(t, sess.ClearMemory(context.Background()))
	assert.Equal(t, []string{"+5511"}, fb.clearCalls)
	assert.Zero(t, sess.Transcript().Len())
	assert.Equal(t, model.StateIdle, sess.ClearState())
}

func TestClearMemory_FailureKeepsTranscript(t *testing.T) {
	fb := &fakeBackend{
		resp:     &api.ChatResponse{Text: "ok"},
		clearErr: errors.New("offline"),
	}
	sess := newTestSession(fb, settings.Settings{SenderPhone: "+5511"})
	_, err := sess.Send(context.Background(), "hello")
	require.NoError(t, err)

	err = sess.ClearMemory(context.Background())
	require.Error(t, err)
	assert.Equal(t, 2, sess.Transcript().Len())
	assert.Equal(t, model.StateIdle, sess.ClearState())
}

func TestBeginClear_RefusesWhileBusy(t *testing.T) {
	sess := newTestSession(&fakeBackend{}, settings.Settings{SenderPhone: "1"})
	_, err := sess.BeginClear()
	require.NoError(t, err)

	_, err = sess.BeginClear()
	assert.ErrorIs(t, err, ErrBusy)

	require.NoError(t, sess.FinishClear(nil))
}
