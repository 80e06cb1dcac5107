// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/taxassist-tui/internal/apperr"
	"github.com/jeranaias/taxassist-tui/internal/config"
	"github.com/jeranaias/taxassist-tui/internal/features"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError covers a bad config file and a missing API key
	ExitConfigError = 3
	// ExitAuthError indicates the API key was rejected
	ExitAuthError = 4
	// ExitNetworkError indicates the upstream request failed
	ExitNetworkError = 5
	ExitTimeoutError = 8
	// ExitInterrupted follows the shell convention for SIGINT
	ExitInterrupted = 130
)

// UsageError is a problem with the arguments the user passed.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }

func (e *UsageError) Unwrap() error { return e.Err }

func usageErrorf(format string, args ...any) error {
	return &UsageError{Err: fmt.Errorf(format, args...)}
}

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usage *UsageError
	var invalid config.ValidateErrors
	switch {
	case errors.As(err, &usage), errors.Is(err, features.ErrEmptyInput), errors.Is(err, features.ErrEmptyDocument):
		return ExitUsageError
	case errors.As(err, &invalid):
		return ExitConfigError
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.Is(err, context.DeadlineExceeded):
		return ExitTimeoutError
	case errors.Is(err, apperr.ErrConfiguration):
		return ExitConfigError
	case errors.Is(err, apperr.ErrAuth):
		return ExitAuthError
	case errors.Is(err, apperr.ErrRequest):
		return ExitNetworkError
	}
	return ExitGeneralError
}

// DisplayError writes err in the user-facing form. Classified errors show
// their user message rather than the operation chain.
func DisplayError(w io.Writer, err error) {
	if err == nil {
		return
	}
	msg := err.Error()
	var appErr *apperr.Error
	if errors.As(err, &appErr) || errors.Is(err, context.Canceled) {
		msg = apperr.UserMessage(err)
	}
	p := newPainter(w)
	fmt.Fprintf(w, "%s %s\n", p.render(ErrorStyle, "[ERROR]"), msg)
}
