// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat is the conversational section of the TUI, used by tax
// research and the app explanation assistant.
//
// A Model owns a chatstream.Consumer. Each prompt starts a goroutine that
// runs the upstream stream and forwards every callback into a channel; the
// Bubble Tea loop drains that channel one message at a time, so the
// consumer is only ever touched from Update and each fragment produces one
// re-render.
//
// Leaving the section calls Close, which detaches the consumer and cancels
// the stream context. Late fragments are then dropped.
package chat
