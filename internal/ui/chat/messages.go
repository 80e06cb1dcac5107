// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import "github.com/jeranaias/taxassist-tui/internal/model"

// =============================================================================
// STREAM MESSAGES
// =============================================================================

// Every stream message carries the ID of the stream that produced it so a
// message from an abandoned stream is recognised and dropped.

// FragmentMsg delivers one upstream fragment.
type FragmentMsg struct {
	Stream     int
	Text       string
	Final      bool
	References []model.Reference
}

// StreamErrorMsg delivers a stream failure.
type StreamErrorMsg struct {
	Stream int
	Err    error
}

// StreamClosedMsg is sent when the upstream call has returned. If the turn
// is still open at that point the stream was cancelled.
type StreamClosedMsg struct {
	Stream int
}

// TurnCompletedMsg is emitted after a turn closes successfully.
type TurnCompletedMsg struct {
	MessageID string
}

// TurnFailedMsg is emitted after a turn fails; Err is classified.
type TurnFailedMsg struct {
	Err error
}
