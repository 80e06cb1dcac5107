// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"

	"github.com/jeranaias/taxassist-tui/internal/apperr"
	"github.com/jeranaias/taxassist-tui/internal/chatstream"
	"github.com/jeranaias/taxassist-tui/internal/features"
	"github.com/jeranaias/taxassist-tui/internal/model"
)

const (
	wsReadLimit    = 64 << 10
	wsWriteTimeout = 10 * time.Second
	wsInboxSize    = 8
)

// Client frame types.
const (
	FramePrompt = "prompt"
	FrameCancel = "cancel"
	FrameReset  = "reset"
)

// Server frame types.
const (
	FrameTurn     = "turn"
	FrameFragment = "fragment"
	FrameError    = "error"
	FrameCleared  = "cleared"
)

// ClientFrame is a message from the browser.
type ClientFrame struct {
	Type   string `json:"type"`
	Text   string `json:"text,omitempty"`
	Search bool   `json:"search,omitempty"`
}

// ServerFrame is a message to the browser. Fragment frames carry the new
// text and the HTML of the whole turn so far.
type ServerFrame struct {
	Type       string            `json:"type"`
	MessageID  string            `json:"message_id,omitempty"`
	Prompt     string            `json:"prompt,omitempty"`
	Text       string            `json:"text,omitempty"`
	HTML       string            `json:"html,omitempty"`
	Final      bool              `json:"final,omitempty"`
	References []model.Reference `json:"references,omitempty"`
	Message    string            `json:"message,omitempty"`
	Kind       string            `json:"kind,omitempty"`
}

// chatFeatures are the sections that hold a conversation.
var chatFeatures = []features.Feature{features.TaxResearch, features.AppExplanationAssistant}

func (s *Server) upgrader() websocket.Upgrader {
	allowed := s.cfg.Server.AllowedOrigins
	return websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(r, allowed)
		},
	}
}

// originAllowed accepts requests without an Origin, same-origin requests and
// the configured origins.
func originAllowed(r *http.Request, allowed []string) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if lo.Contains(allowed, "*") || lo.Contains(allowed, origin) {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && u.Host == r.Host
}

// turnCanceller holds the cancel function of the running turn so the reader
// goroutine can stop it.
type turnCanceller struct {
	mu sync.Mutex
	fn context.CancelFunc
}

func (t *turnCanceller) set(fn context.CancelFunc) {
	t.mu.Lock()
	t.fn = fn
	t.mu.Unlock()
}

func (t *turnCanceller) cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fn == nil {
		return false
	}
	t.fn()
	t.fn = nil
	return true
}

// chatSession is one websocket connection and its conversation. Only the
// goroutine running serve writes to the connection.
type chatSession struct {
	s        *Server
	conn     *websocket.Conn
	feature  features.Feature
	consumer *chatstream.Consumer
	turn     turnCanceller
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	feature := features.TaxResearch
	if v := r.URL.Query().Get("feature"); v != "" {
		f, err := features.ParseFeature(v)
		if err != nil || !lo.Contains(chatFeatures, f) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("feature %q does not support chat", v))
			return
		}
		feature = f
	}

	up := s.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the response.
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	logger := s.logger.With("feature", feature.String(), "remote", GetClientIP(r))
	sess := &chatSession{
		s:        s,
		conn:     conn,
		feature:  feature,
		consumer: chatstream.NewConsumer(model.NewConversation(), nil, chatstream.WithLogger(logger)),
	}
	logger.Info("chat connected")
	sess.serve(r.Context())
	logger.Info("chat disconnected")
}

func (c *chatSession) serve(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	defer func() {
		cancel()
		c.consumer.Detach()
		c.conn.Close()
	}()

	inbox := make(chan ClientFrame, wsInboxSize)
	go c.read(ctx, cancel, inbox)

	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-inbox:
			if !ok {
				return
			}
			if err := c.handle(ctx, frame); err != nil {
				c.s.logger.Debug("websocket write failed", "error", err)
				return
			}
		}
	}
}

// read decodes client frames until the connection fails. Cancel frames act
// immediately; everything else is queued for serve.
func (c *chatSession) read(ctx context.Context, cancel context.CancelFunc, inbox chan<- ClientFrame) {
	defer close(inbox)
	defer cancel()

	c.conn.SetReadLimit(wsReadLimit)
	for {
		var frame ClientFrame
		if err := c.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.s.logger.Debug("websocket read failed", "error", err)
			}
			return
		}
		if frame.Type == FrameCancel {
			c.turn.cancel()
			continue
		}
		select {
		case inbox <- frame:
		case <-ctx.Done():
			return
		default:
			c.s.logger.Warn("chat inbox full, dropping frame", "type", frame.Type)
		}
	}
}

func (c *chatSession) handle(ctx context.Context, frame ClientFrame) error {
	switch frame.Type {
	case FramePrompt:
		return c.runTurn(ctx, frame)
	case FrameReset:
		if err := c.consumer.Reset(); err != nil {
			return c.write(ServerFrame{Type: FrameError, Message: err.Error(), Kind: "validation"})
		}
		return c.write(ServerFrame{Type: FrameCleared})
	default:
		return c.write(ServerFrame{Type: FrameError, Message: fmt.Sprintf("unknown frame type %q", frame.Type), Kind: "validation"})
	}
}

// runTurn streams one answer. Fragments are applied to the conversation and
// forwarded as they arrive; a failure discards the turn.
func (c *chatSession) runTurn(ctx context.Context, frame ClientFrame) error {
	p, err := c.consumer.Begin(frame.Text)
	if err != nil {
		return c.write(ServerFrame{Type: FrameError, Message: err.Error(), Kind: "validation"})
	}
	if err := c.write(ServerFrame{Type: FrameTurn, MessageID: p.Message.ID, Prompt: p.Prompt}); err != nil {
		c.consumer.Fail(err)
		return err
	}

	if c.s.svc == nil {
		failed := c.consumer.Fail(apperr.Configuration("server.chat", ""))
		return c.writeFailure(failed)
	}

	turnCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.turn.set(cancel)
	defer c.turn.set(nil)

	var writeErr error
	onFragment := func(fragment string, isFinal bool, refs []model.Reference) {
		if err := c.consumer.Consume(fragment, isFinal, refs); err != nil {
			c.s.logger.Debug("fragment dropped", "error", err)
			return
		}
		snap := p.Message.Snapshot()
		out := ServerFrame{
			Type:       FrameFragment,
			MessageID:  snap.ID,
			Text:       fragment,
			HTML:       renderText(snap.Text),
			Final:      isFinal,
			References: lo.Ternary(isFinal, snap.References, refs),
		}
		if err := c.write(out); err != nil && writeErr == nil {
			writeErr = err
			cancel()
		}
	}
	onError := func(err error) {
		if failed := c.consumer.Fail(err); failed != nil {
			if werr := c.writeFailure(failed); werr != nil && writeErr == nil {
				writeErr = werr
			}
		}
	}

	opts := features.RequestOptions(c.feature, frame.Search)
	c.s.svc.RequestStream(turnCtx, p.Prompt, p.Prior, onFragment, onError, opts)

	if turnCtx.Err() != nil && c.consumer.Busy() {
		failed := c.consumer.Fail(context.Canceled)
		if writeErr == nil && ctx.Err() == nil {
			writeErr = c.writeFailure(failed)
		}
	}
	return writeErr
}

func (c *chatSession) writeFailure(err error) error {
	kind := apperr.KindOf(err).String()
	if errors.Is(err, context.Canceled) {
		kind = "cancelled"
	}
	return c.write(ServerFrame{Type: FrameError, Message: apperr.UserMessage(err), Kind: kind})
}

func (c *chatSession) write(frame ServerFrame) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteJSON(frame)
}
