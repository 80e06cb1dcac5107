// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrMessageClosed is returned when a fragment is appended to a message that
// no longer accepts text.
var ErrMessageClosed = errors.New("message is closed")

// =============================================================================
// SENDER TYPE
// =============================================================================

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// String returns the string representation of the sender.
func (s Sender) String() string {
	return string(s)
}

// DisplayName returns a human-readable name for the sender.
func (s Sender) DisplayName() string {
	switch s {
	case SenderUser:
		return "You"
	case SenderAI:
		return "Assistant"
	default:
		return string(s)
	}
}

// Role returns the role name the upstream service uses for the sender.
func (s Sender) Role() string {
	if s == SenderAI {
		return "model"
	}
	return "user"
}

// =============================================================================
// REFERENCE TYPE
// =============================================================================

// Reference is a grounding source cited by an AI response.
type Reference struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// Valid reports whether both the title and the URI are present.
func (r Reference) Valid() bool {
	return r.Title != "" && r.URI != ""
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// ChatMessage is one turn of a conversation.
type ChatMessage struct {
	// Identity
	ID        string    `json:"id"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`

	// Content
	Text       string      `json:"text"`
	References []Reference `json:"references,omitempty"`

	// open is true while an AI turn is still receiving fragments.
	open bool
	// PERFORMANCE: strings.Builder avoids quadratic allocations during streaming
	buf strings.Builder
}

// NewUserMessage creates a user turn. User turns are never open.
func NewUserMessage(text string) *ChatMessage {
	return &ChatMessage{
		ID:        newID(),
		Sender:    SenderUser,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// NewAIMessage creates an empty AI turn that accepts fragments until Close.
func NewAIMessage() *ChatMessage {
	return &ChatMessage{
		ID:        newID(),
		Sender:    SenderAI,
		Timestamp: time.Now(),
		open:      true,
	}
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// IsOpen reports whether the message still accepts fragments.
func (m *ChatMessage) IsOpen() bool {
	return m.open
}

// AppendFragment appends a fragment of streamed text.
func (m *ChatMessage) AppendFragment(fragment string) error {
	if !m.open {
		return ErrMessageClosed
	}
	m.buf.WriteString(fragment)
	m.Text = m.buf.String()
	return nil
}

// Close marks the turn as complete and stores refs. A nil or empty refs
// leaves References unset.
func (m *ChatMessage) Close(refs []Reference) error {
	if !m.open {
		return ErrMessageClosed
	}
	m.open = false
	if len(refs) > 0 {
		m.References = refs
	}
	m.buf.Reset()
	return nil
}

// IsEmpty returns true if the message has no text.
func (m *ChatMessage) IsEmpty() bool {
	return m.Text == ""
}

// Preview returns a truncated preview of the message text.
// Uses rune-based truncation to handle Unicode correctly.
func (m *ChatMessage) Preview(maxLen int) string {
	runes := []rune(m.Text)
	if len(runes) <= maxLen {
		return m.Text
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// Snapshot returns a copy safe to hand to another goroutine.
func (m *ChatMessage) Snapshot() ChatMessage {
	out := ChatMessage{
		ID:        m.ID,
		Sender:    m.Sender,
		Timestamp: m.Timestamp,
		Text:      m.Text,
		open:      m.open,
	}
	if len(m.References) > 0 {
		out.References = append([]Reference(nil), m.References...)
	}
	return out
}

// newID creates a unique message ID.
func newID() string {
	return "msg_" + uuid.NewString()
}
