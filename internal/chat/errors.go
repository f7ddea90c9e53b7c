// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import "errors"

// Local validation errors. None of these reach the network.
var (
	// ErrNothingToSend is returned when the text is blank and no attachment is staged.
	ErrNothingToSend = errors.New("nothing to send")

	// ErrBusy is returned when an action is triggered while the same action is in flight.
	ErrBusy = errors.New("request already in progress")

	// ErrPhoneRequired is returned by ClearMemory when no phone identity is configured.
	ErrPhoneRequired = errors.New("configure a phone number in settings first")
)
