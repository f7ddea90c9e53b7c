// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package rag

import "errors"

var (
	// ErrEmptyQuery is returned when a search is triggered with a blank query.
	ErrEmptyQuery = errors.New("enter a search query")

	// ErrNoDocuments is returned when no draft has content.
	ErrNoDocuments = errors.New("add at least one document with content")

	// ErrInvalidMetadata marks metadata that is not a JSON object.
	ErrInvalidMetadata = errors.New("metadata must be a JSON object")

	// ErrBusy is returned when the same action is already in flight.
	ErrBusy = errors.New("request already in progress")

	// ErrDraftIndex is returned for an out-of-range draft row.
	ErrDraftIndex = errors.New("no such draft")

	// ErrLastDraft is returned when removing the only remaining draft.
	ErrLastDraft = errors.New("the last draft cannot be removed")
)
