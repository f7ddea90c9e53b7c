// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package audio loads audio attachments from disk and saves synthesized
// replies returned by the backend.
package audio

import (
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/jeranaias/mpcchat/internal/api"
	"github.com/jeranaias/mpcchat/internal/model"
	"github.com/jeranaias/mpcchat/internal/util"
)

// MaxAttachmentSize bounds the size of an uploaded file (25MB).
const MaxAttachmentSize = 25 * 1024 * 1024

var (
	// ErrNotAudio is returned when a file's detected type is not audio/*.
	ErrNotAudio = errors.New("please select an audio file")

	// ErrTooLarge is returned for files over MaxAttachmentSize.
	ErrTooLarge = errors.New("audio file is too large")

	// ErrNoAudio is returned when a message has no audio payload.
	ErrNoAudio = errors.New("message has no audio")
)

// containerTypes are sniffed types shared by audio-only and video files.
// For these the file extension decides.
var containerTypes = map[string]bool{
	"video/webm":      true,
	"video/mp4":       true,
	"application/ogg": true,
}

// audioExtensions maps recorder formats to their audio type. The system MIME
// table maps several of them to video and is consulted only for the rest.
var audioExtensions = map[string]string{
	".weba": "audio/webm",
	".webm": "audio/webm",
	".m4a":  "audio/mp4",
	".mp4":  "audio/mp4",
	".oga":  "audio/ogg",
	".ogg":  "audio/ogg",
	".opus": "audio/ogg",
}

// DetectAudioType returns the MIME type to upload name with when data is
// audio. Parent types are checked so containers such as Ogg resolve to
// audio; WebM, MP4 and Ogg containers fall back to the extension.
func DetectAudioType(name string, data []byte) (string, error) {
	sniffed := mimetype.Detect(data)
	for m := sniffed; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "audio/") {
			return m.String(), nil
		}
	}
	if containerTypes[sniffed.String()] {
		if t := extensionAudioType(name); t != "" {
			return t, nil
		}
	}
	return "", ErrNotAudio
}

func extensionAudioType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return ""
	}
	if t, ok := audioExtensions[ext]; ok {
		return t
	}
	if t, _, err := mime.ParseMediaType(mime.TypeByExtension(ext)); err == nil && strings.HasPrefix(t, "audio/") {
		return t
	}
	return ""
}

// LoadAttachment reads path and returns it as an upload, rejecting files
// that are not audio.
func LoadAttachment(path string) (api.AudioFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return api.AudioFile{}, fmt.Errorf("open attachment: %w", err)
	}
	if info.IsDir() {
		return api.AudioFile{}, fmt.Errorf("%s: %w", path, ErrNotAudio)
	}
	if info.Size() > MaxAttachmentSize {
		return api.AudioFile{}, fmt.Errorf("%s (%d bytes): %w", path, info.Size(), ErrTooLarge)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return api.AudioFile{}, fmt.Errorf("read attachment: %w", err)
	}
	contentType, err := DetectAudioType(path, data)
	if err != nil {
		return api.AudioFile{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	return api.AudioFile{
		Name:        filepath.Base(path),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// FileName returns the download name for a message's audio.
func FileName(messageID string) string {
	return "audio_" + messageID + ".mp3"
}

// Save decodes the audio of msg into dir and returns the written path.
func Save(msg model.Message, dir string) (string, error) {
	if !msg.HasAudio() {
		return "", ErrNoAudio
	}
	data, err := base64.StdEncoding.DecodeString(msg.Audio.Base64)
	if err != nil {
		return "", fmt.Errorf("decode audio: %w", err)
	}
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, FileName(msg.ID))
	if err := util.AtomicWriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("save audio: %w", err)
	}
	return path, nil
}
