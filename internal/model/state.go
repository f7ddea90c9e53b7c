// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// ActionState is the lifecycle of one user-triggered network action
// (send, clear memory, search, index). Each action owns its own state.
type ActionState int

const (
	// StateIdle accepts a new trigger.
	StateIdle ActionState = iota
	// StateBusy means a request is in flight and the trigger is disabled.
	StateBusy
)

// String returns the display string for the state.
func (s ActionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBusy:
		return "busy"
	default:
		return "unknown"
	}
}

// IsBusy reports whether a request is in flight.
func (s ActionState) IsBusy() bool {
	return s == StateBusy
}
