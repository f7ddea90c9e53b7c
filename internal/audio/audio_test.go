// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audio

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/mpcchat/internal/api"
	"github.com/jeranaias/mpcchat/internal/model"
)

// id3Header is the start of an MP3 file with an ID3v2 tag.
var id3Header = append([]byte("ID3\x03\x00\x00\x00\x00\x00\x00"), make([]byte, 64)...)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestLoadAttachment_MP3(t *testing.T) {
	path := writeFile(t, "voice.mp3", id3Header)

	file, err := LoadAttachment(path)
	require.NoError(t, err)
	assert.Equal(t, "voice.mp3", file.Name)
	assert.Equal(t, "audio/mpeg", file.ContentType)
	assert.Equal(t, id3Header, file.Data)
}

func TestLoadAttachment_RejectsNonAudio(t *testing.T) {
	path := writeFile(t, "notes.mp3", []byte("just some plain text pretending to be audio"))

	_, err := LoadAttachment(path)
	assert.ErrorIs(t, err, ErrNotAudio)
}

// webmHeader is an EBML header declaring the "webm" doctype, as written by
// browser recorders for audio-only streams.
var webmHeader = append([]byte("\x1A\x45\xDF\xA3\x9F\x42\x86\x81\x01\x42\x82\x84webm\x42\x87\x81\x04"), make([]byte, 64)...)

// isomHeader is an MP4 ftyp box with the generic isom brand.
var isomHeader = append([]byte("\x00\x00\x00\x18ftypisom\x00\x00\x02\x00isommp41"), make([]byte, 64)...)

func TestDetectAudioType_Containers(t *testing.T) {
	tests := []struct {
		name string
		file string
		data []byte
		want string
	}{
		{"weba", "memo.weba", webmHeader, "audio/webm"},
		{"webm", "recording.webm", webmHeader, "audio/webm"},
		{"m4a isom", "memo.m4a", isomHeader, "audio/mp4"},
		{"mp4 isom", "Memo.MP4", isomHeader, "audio/mp4"},
		{"m4a brand", "song", append([]byte("\x00\x00\x00\x18ftypM4A \x00\x00\x02\x00"), make([]byte, 64)...), "audio/x-m4a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectAudioType(tt.file, tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectAudioType_ContainerNeedsAudioExtension(t *testing.T) {
	for _, name := range []string{"clip.mkv", "clip", "slides.pdf"} {
		_, err := DetectAudioType(name, webmHeader)
		assert.ErrorIs(t, err, ErrNotAudio, name)
	}
	_, err := DetectAudioType("notes.m4a", []byte("plain text is never audio"))
	assert.ErrorIs(t, err, ErrNotAudio)
}

func TestLoadAttachment_WebM(t *testing.T) {
	path := writeFile(t, "voice.weba", webmHeader)

	file, err := LoadAttachment(path)
	require.NoError(t, err)
	assert.Equal(t, "voice.weba", file.Name)
	assert.Equal(t, "audio/webm", file.ContentType)
}

func TestLoadAttachment_Missing(t *testing.T) {
	_, err := LoadAttachment(filepath.Join(t.TempDir(), "nope.mp3"))
	assert.Error(t, err)
}

func TestLoadAttachment_Directory(t *testing.T) {
	_, err := LoadAttachment(t.TempDir())
	assert.ErrorIs(t, err, ErrNotAudio)
}

func TestSave_DecodesBase64(t *testing.T) {
	payload := []byte("fake mp3 bytes")
	msg := model.NewBotMessage(&api.ChatResponse{
		Text:  "spoken",
		Audio: &api.AudioPayload{Base64: base64.StdEncoding.EncodeToString(payload)},
	})

	dir := t.TempDir()
	path, err := Save(msg, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "audio_"+msg.ID+".mp3"), path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestSave_NoAudio(t *testing.T) {
	_, err := Save(model.NewUserMessage("hi"), t.TempDir())
	assert.ErrorIs(t, err, ErrNoAudio)
}

func TestSave_BadBase64(t *testing.T) {
	msg := model.NewBotMessage(&api.ChatResponse{Audio: &api.AudioPayload{Base64: "%%%"}})
	_, err := Save(msg, t.TempDir())
	assert.Error(t, err)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "audio_abc.mp3", FileName("abc"))
}
