// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package upstream defines the contract of the text-generation service the
// assistant talks to. The gemini package implements it; tests use the
// scripted service in upstreamtest.
package upstream

import (
	"context"

	"github.com/jeranaias/taxassist-tui/internal/model"
)

// Options controls a single request.
type Options struct {
	// UseDefaultInstruction sends the caller's default system instruction.
	UseDefaultInstruction bool

	// UseSearchGrounding enables Google Search grounding. Grounded answers
	// carry references.
	UseSearchGrounding bool

	// CustomInstruction replaces the default instruction when non-empty.
	CustomInstruction string
}

// SystemInstruction returns the instruction to send, or "" for none.
func (o Options) SystemInstruction(defaultInstruction string) string {
	if o.CustomInstruction != "" {
		return o.CustomInstruction
	}
	if o.UseDefaultInstruction {
		return defaultInstruction
	}
	return ""
}

// Response is the result of a one-shot request.
type Response struct {
	Text       string            `json:"text"`
	References []model.Reference `json:"references,omitempty"`
}

// FragmentFunc receives streamed text. It is called zero or more times with
// isFinal false and then exactly once with isFinal true, unless the stream
// fails. refs holds the references known as of that fragment.
type FragmentFunc func(fragment string, isFinal bool, refs []model.Reference)

// ErrorFunc receives a stream failure in place of the terminal fragment.
// err is classified (see package apperr).
type ErrorFunc func(err error)

// Requester performs one-shot requests.
type Requester interface {
	Request(ctx context.Context, prompt string, opts Options) (Response, error)
}

// Streamer performs streaming requests. RequestStream blocks until the
// stream ends and invokes the callbacks on the calling goroutine. A cancelled
// context stops the stream without calling either callback again.
type Streamer interface {
	RequestStream(ctx context.Context, prompt string, prior []model.Turn,
		onFragment FragmentFunc, onError ErrorFunc, opts Options)
}

// Service is the full upstream surface.
type Service interface {
	Requester
	Streamer
}
