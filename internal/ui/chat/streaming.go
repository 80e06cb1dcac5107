// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/taxassist-tui/internal/chatstream"
	"github.com/jeranaias/taxassist-tui/internal/model"
	"github.com/jeranaias/taxassist-tui/internal/upstream"
)

// =============================================================================
// STREAM PUMP
// =============================================================================

// pumpBuffer is the number of undelivered fragments held per stream.
const pumpBuffer = 64

// streamPump runs one upstream stream on its own goroutine and forwards the
// callbacks as tea messages.
type streamPump struct {
	id int
	ch chan tea.Msg
}

// startPump launches the stream for p. The channel is closed after the
// upstream call returns, which next reports as StreamClosedMsg.
func startPump(ctx context.Context, id int, svc upstream.Streamer, p chatstream.Pending, opts upstream.Options) *streamPump {
	pump := &streamPump{id: id, ch: make(chan tea.Msg, pumpBuffer)}

	send := func(msg tea.Msg) {
		select {
		case pump.ch <- msg:
		case <-ctx.Done():
		}
	}

	go func() {
		defer close(pump.ch)
		svc.RequestStream(ctx, p.Prompt, p.Prior,
			func(fragment string, isFinal bool, refs []model.Reference) {
				send(FragmentMsg{Stream: id, Text: fragment, Final: isFinal, References: refs})
			},
			func(err error) {
				send(StreamErrorMsg{Stream: id, Err: err})
			},
			opts)
	}()
	return pump
}

// next waits for the pump's next message.
func (p *streamPump) next() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-p.ch
		if !ok {
			return StreamClosedMsg{Stream: p.id}
		}
		return msg
	}
}
