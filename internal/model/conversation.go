// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// MaxMessages is the maximum number of messages to keep in conversation history.
// When exceeded, the oldest messages are pruned to prevent unbounded memory growth.
const MaxMessages = 1000

// Turn is a prior exchange as sent to the upstream service.
type Turn struct {
	Role string `json:"role"` // "user" or "model"
	Text string `json:"text"`
}

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds the turns of one chat section.
type Conversation struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Messages  []*ChatMessage `json:"messages"`
}

// NewConversation creates a new conversation with a generated ID.
func NewConversation() *Conversation {
	now := time.Now()
	return &Conversation{
		ID:        "conv_" + uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  make([]*ChatMessage, 0),
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// Add appends a message to the conversation.
func (c *Conversation) Add(msg *ChatMessage) {
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now()
	c.updateTitle()
	c.pruneOldMessages()
}

// Remove deletes the message with the given ID. Returns false if no such
// message exists.
func (c *Conversation) Remove(id string) bool {
	for i, msg := range c.Messages {
		if msg.ID == id {
			c.Messages = append(c.Messages[:i], c.Messages[i+1:]...)
			c.UpdatedAt = time.Now()
			return true
		}
	}
	return false
}

// Get returns the message with the given ID, or nil.
func (c *Conversation) Get(id string) *ChatMessage {
	for _, msg := range c.Messages {
		if msg.ID == id {
			return msg
		}
	}
	return nil
}

// Open returns the AI turn still receiving fragments, or nil.
func (c *Conversation) Open() *ChatMessage {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].IsOpen() {
			return c.Messages[i]
		}
	}
	return nil
}

// Last returns the most recent message, or nil.
func (c *Conversation) Last() *ChatMessage {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	return len(c.Messages)
}

// IsEmpty returns true if the conversation has no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// Clear removes all messages.
func (c *Conversation) Clear() {
	c.Messages = c.Messages[:0]
	c.Title = ""
	c.UpdatedAt = time.Now()
}

// History returns the closed, non-empty turns in the shape the upstream
// service expects. Open turns are skipped.
func (c *Conversation) History() []Turn {
	turns := make([]Turn, 0, len(c.Messages))
	for _, msg := range c.Messages {
		if msg.IsOpen() || msg.IsEmpty() {
			continue
		}
		turns = append(turns, Turn{Role: msg.Sender.Role(), Text: msg.Text})
	}
	return turns
}

// Snapshot returns copies of all messages.
func (c *Conversation) Snapshot() []ChatMessage {
	out := make([]ChatMessage, len(c.Messages))
	for i, msg := range c.Messages {
		out[i] = msg.Snapshot()
	}
	return out
}

// =============================================================================
// TITLE MANAGEMENT
// =============================================================================

// updateTitle auto-generates a title from the first user message if not set.
func (c *Conversation) updateTitle() {
	if c.Title != "" {
		return
	}
	for _, msg := range c.Messages {
		if msg.Sender == SenderUser {
			c.Title = msg.Preview(50)
			return
		}
	}
}

// GetTitle returns the conversation title or a default.
func (c *Conversation) GetTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return "New Conversation"
}

// pruneOldMessages keeps the most recent MaxMessages messages.
func (c *Conversation) pruneOldMessages() {
	if len(c.Messages) <= MaxMessages {
		return
	}
	c.Messages = append([]*ChatMessage(nil), c.Messages[len(c.Messages)-MaxMessages:]...)
}
