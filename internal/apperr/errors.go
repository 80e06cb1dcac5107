// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package apperr defines the error taxonomy shared by the upstream client,
// the chat consumer and every display layer.
//
// There are three failure kinds, each with a sentinel for errors.Is:
//
//   - ErrConfiguration: the API key is missing. Detected before any request
//     is attempted; dependent actions are disabled.
//   - ErrAuth: the upstream service rejected the API key.
//   - ErrRequest: any other transport or parse failure.
//
// Malformed markup is not an error: the renderer falls back to literal text
// and never reports anything. Nothing in this package retries.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Use errors.Is() to check for these in calling code.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrAuth          = errors.New("authentication error")
	ErrRequest       = errors.New("request error")
)

// Kind is the category of an application error.
type Kind int

const (
	KindRequest Kind = iota
	KindConfiguration
	KindAuth
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindAuth:
		return "auth"
	default:
		return "request"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindConfiguration:
		return ErrConfiguration
	case KindAuth:
		return ErrAuth
	default:
		return ErrRequest
	}
}

// User-facing messages.
const (
	MsgMissingKey = "Gemini API client is not initialized. API_KEY might be missing."
	MsgInvalidKey = "The provided API key is not valid. Please check your configuration."
	requestPrefix = "Gemini API request failed: "
)

// =============================================================================
// ERROR TYPE
// =============================================================================

// Error is an application error with a kind and a user-readable message.
type Error struct {
	Kind    Kind
	Op      string // operation that failed, e.g. "gemini.stream"
	Message string // user-readable
	Err     error  // underlying cause, may be nil
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder
	if e.Op != "" {
		sb.WriteString(e.Op)
		sb.WriteString(": ")
	}
	sb.WriteString(e.Message)
	if e.Err != nil && !strings.Contains(e.Message, e.Err.Error()) {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// =============================================================================
// CONSTRUCTORS
// =============================================================================

// Configuration returns a configuration error for op.
func Configuration(op, message string) *Error {
	if message == "" {
		message = MsgMissingKey
	}
	return &Error{Kind: KindConfiguration, Op: op, Message: message}
}

// Auth returns an authentication error for op.
func Auth(op string, cause error) *Error {
	return &Error{Kind: KindAuth, Op: op, Message: MsgInvalidKey, Err: cause}
}

// Request returns a request error for op.
func Request(op string, cause error) *Error {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	return &Error{Kind: KindRequest, Op: op, Message: requestPrefix + msg, Err: cause}
}

// Classify converts an arbitrary upstream error into an *Error. Errors that
// are already classified pass through unchanged.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, ErrConfiguration) {
		return Configuration(op, "")
	}
	if errors.Is(err, ErrAuth) || IsInvalidKeyMessage(err.Error()) {
		return Auth(op, err)
	}
	return Request(op, err)
}

// IsInvalidKeyMessage reports whether msg is the upstream's rejection of the
// API key.
func IsInvalidKeyMessage(msg string) bool {
	return strings.Contains(msg, "API key not valid") ||
		strings.Contains(msg, "API_KEY_INVALID")
}

// UserMessage returns the text to show the user for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) {
		return "Request cancelled."
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return fmt.Sprintf("An unexpected error occurred: %v", err)
}

// KindOf returns the kind of err, defaulting to KindRequest.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindRequest
}
