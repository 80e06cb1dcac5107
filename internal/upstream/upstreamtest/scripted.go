// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package upstreamtest provides a scripted upstream.Service for tests.
package upstreamtest

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/jeranaias/taxassist-tui/internal/apperr"
	"github.com/jeranaias/taxassist-tui/internal/model"
	"github.com/jeranaias/taxassist-tui/internal/upstream"
)

// Call records one invocation of the service.
type Call struct {
	Prompt string
	Prior  []model.Turn
	Opts   upstream.Options
	Stream bool
}

// Scripted replays a fixed response.
type Scripted struct {
	// Fragments are streamed in order. Request returns their concatenation.
	Fragments []string

	// Refs, when set, is passed with every fragment from index RefsFrom on.
	Refs     []model.Reference
	RefsFrom int

	// FailAfter > 0 makes the stream fail after that many fragments with Err.
	FailAfter int
	Err       error

	mu    sync.Mutex
	calls []Call
}

var _ upstream.Service = (*Scripted)(nil)

// Calls returns the recorded calls.
func (s *Scripted) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

func (s *Scripted) record(c Call) {
	s.mu.Lock()
	s.calls = append(s.calls, c)
	s.mu.Unlock()
}

// Request implements upstream.Requester.
func (s *Scripted) Request(ctx context.Context, prompt string, opts upstream.Options) (upstream.Response, error) {
	s.record(Call{Prompt: prompt, Opts: opts})
	if err := ctx.Err(); err != nil {
		return upstream.Response{}, apperr.Request("scripted.request", err)
	}
	if s.Err != nil {
		return upstream.Response{}, apperr.Classify("scripted.request", s.Err)
	}
	return upstream.Response{
		Text:       strings.Join(s.Fragments, ""),
		References: s.Refs,
	}, nil
}

// RequestStream implements upstream.Streamer.
func (s *Scripted) RequestStream(ctx context.Context, prompt string, prior []model.Turn,
	onFragment upstream.FragmentFunc, onError upstream.ErrorFunc, opts upstream.Options) {
	s.record(Call{Prompt: prompt, Prior: prior, Opts: opts, Stream: true})

	var refs []model.Reference
	for i, f := range s.Fragments {
		if s.FailAfter > 0 && i == s.FailAfter {
			onError(s.failure())
			return
		}
		if ctx.Err() != nil {
			return
		}
		if s.Refs != nil && i >= s.RefsFrom {
			refs = s.Refs
		}
		onFragment(f, false, refs)
	}
	if s.FailAfter > 0 && s.FailAfter >= len(s.Fragments) {
		onError(s.failure())
		return
	}
	onFragment("", true, refs)
}

func (s *Scripted) failure() error {
	if s.Err == nil {
		return apperr.Request("scripted.stream", errors.New("scripted failure"))
	}
	return apperr.Classify("scripted.stream", s.Err)
}
