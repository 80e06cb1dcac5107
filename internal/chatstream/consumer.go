// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatstream

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/jeranaias/taxassist-tui/internal/apperr"
	"github.com/jeranaias/taxassist-tui/internal/model"
	"github.com/jeranaias/taxassist-tui/internal/upstream"
)

// Errors returned by Consumer.
var (
	ErrTurnInProgress = errors.New("a response is still streaming")
	ErrNoOpenTurn     = errors.New("no response is streaming")
	ErrEmptyPrompt    = errors.New("prompt is empty")
	ErrDetached       = errors.New("view has been closed")
)

// RenderFunc re-renders the owning view.
type RenderFunc func()

// Pending describes a turn that has been started and awaits a response.
type Pending struct {
	Prompt  string
	Prior   []model.Turn
	Message *model.ChatMessage
}

// =============================================================================
// CONSUMER
// =============================================================================

// Consumer applies streamed fragments to the open AI turn of a conversation.
//
// Calls are expected from a single logical flow. The mutex exists so that
// Detach may be called from a different goroutine than the one delivering
// fragments.
type Consumer struct {
	mu sync.Mutex

	conv     *model.Conversation
	onRender RenderFunc
	logger   *slog.Logger

	alive   bool
	open    *model.ChatMessage
	refs    []model.Reference
	lastErr error
}

// Option configures a Consumer.
type Option func(*Consumer)

// WithLogger sets the logger used for stream diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Consumer) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewConsumer creates a consumer for conv. onRender may be nil.
func NewConsumer(conv *model.Conversation, onRender RenderFunc, opts ...Option) *Consumer {
	if conv == nil {
		conv = model.NewConversation()
	}
	c := &Consumer{
		conv:     conv,
		onRender: onRender,
		logger:   slog.Default(),
		alive:    true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Begin starts a new turn: it records the user's prompt and an empty open AI
// turn. Only one turn may be open at a time.
func (c *Consumer) Begin(prompt string) (Pending, error) {
	c.mu.Lock()
	if !c.alive {
		c.mu.Unlock()
		return Pending{}, ErrDetached
	}
	if c.open != nil {
		c.mu.Unlock()
		return Pending{}, ErrTurnInProgress
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		c.mu.Unlock()
		return Pending{}, ErrEmptyPrompt
	}

	prior := c.conv.History()
	c.conv.Add(model.NewUserMessage(prompt))
	ai := model.NewAIMessage()
	c.conv.Add(ai)
	c.open = ai
	c.refs = nil
	c.lastErr = nil
	c.mu.Unlock()

	c.logger.Debug("turn started", "message_id", ai.ID, "prior_turns", len(prior))
	c.render()
	return Pending{Prompt: prompt, Prior: prior, Message: ai}, nil
}

// Consume applies one fragment to the open turn. On isFinal the turn is
// closed and the latest non-empty references seen during the turn are
// attached to it. After Detach, Consume does nothing.
func (c *Consumer) Consume(fragment string, isFinal bool, refs []model.Reference) error {
	c.mu.Lock()
	if !c.alive {
		c.mu.Unlock()
		return nil
	}
	if c.open == nil {
		c.mu.Unlock()
		return ErrNoOpenTurn
	}

	msg := c.open
	if err := msg.AppendFragment(fragment); err != nil {
		c.mu.Unlock()
		return err
	}
	// Later chunks carry a more complete list; the latest one wins.
	if len(refs) > 0 {
		c.refs = append([]model.Reference(nil), refs...)
	}
	if isFinal {
		if err := msg.Close(c.refs); err != nil {
			c.mu.Unlock()
			return err
		}
		c.open = nil
		c.refs = nil
	}
	c.mu.Unlock()

	if isFinal {
		c.logger.Debug("turn completed", "message_id", msg.ID,
			"chars", len(msg.Text), "references", len(msg.References))
	}
	c.render()
	return nil
}

// Fail discards the open AI turn and records err. It returns the classified
// error, or nil if the consumer is detached.
func (c *Consumer) Fail(err error) error {
	c.mu.Lock()
	if !c.alive {
		c.mu.Unlock()
		return nil
	}
	classified := apperr.Classify("chatstream", err)
	if classified == nil {
		classified = apperr.Request("chatstream", errors.New("stream ended unexpectedly"))
	}
	var discarded string
	if c.open != nil {
		discarded = c.open.ID
		c.conv.Remove(c.open.ID)
		c.open = nil
		c.refs = nil
	}
	c.lastErr = classified
	c.mu.Unlock()

	c.logger.Warn("turn failed", "message_id", discarded,
		"kind", apperr.KindOf(classified).String(), "error", classified)
	c.render()
	return classified
}

// OnFragment adapts Consume to upstream.FragmentFunc.
func (c *Consumer) OnFragment(fragment string, isFinal bool, refs []model.Reference) {
	if err := c.Consume(fragment, isFinal, refs); err != nil {
		c.logger.Debug("fragment dropped", "error", err)
	}
}

// OnError adapts Fail to upstream.ErrorFunc.
func (c *Consumer) OnError(err error) {
	c.Fail(err)
}

// Stream begins a turn for prompt and runs it to completion against svc.
// It returns the classified error if the stream failed.
func (c *Consumer) Stream(ctx context.Context, svc upstream.Streamer, prompt string, opts upstream.Options) error {
	p, err := c.Begin(prompt)
	if err != nil {
		return err
	}

	var streamErr error
	svc.RequestStream(ctx, p.Prompt, p.Prior, c.OnFragment, func(err error) {
		streamErr = c.Fail(err)
	}, opts)

	// A cancelled stream never reaches a terminal callback.
	if ctx.Err() != nil && c.Busy() {
		return c.Fail(ctx.Err())
	}
	return streamErr
}

// =============================================================================
// LIVENESS AND STATE
// =============================================================================

// Detach marks the owning view as gone. Subsequent calls are no-ops.
func (c *Consumer) Detach() {
	c.mu.Lock()
	c.alive = false
	c.mu.Unlock()
}

// Alive reports whether the owning view is still attached.
func (c *Consumer) Alive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alive
}

// Busy reports whether an AI turn is open. New prompts are refused while busy.
func (c *Consumer) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open != nil
}

// LastError returns the error of the most recent failed turn, if any. It is
// cleared when the next turn begins.
func (c *Consumer) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// ClearError dismisses the last error.
func (c *Consumer) ClearError() {
	c.mu.Lock()
	c.lastErr = nil
	c.mu.Unlock()
}

// Conversation returns the conversation the consumer writes to.
func (c *Consumer) Conversation() *model.Conversation {
	return c.conv
}

// Messages returns a snapshot of the conversation.
func (c *Consumer) Messages() []model.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conv.Snapshot()
}

// Reset clears the conversation. It fails while a turn is open.
func (c *Consumer) Reset() error {
	c.mu.Lock()
	if c.open != nil {
		c.mu.Unlock()
		return ErrTurnInProgress
	}
	c.conv.Clear()
	c.lastErr = nil
	c.mu.Unlock()
	c.render()
	return nil
}

func (c *Consumer) render() {
	if c.onRender != nil {
		c.onRender()
	}
}
