// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gemini implements upstream.Service on top of the Google Gen AI SDK.
//
// The client never retries. Failures are classified with package apperr:
// a rejected key becomes ErrAuth, everything else ErrRequest. A client is
// never constructed without an API key; NewClient reports ErrConfiguration
// instead, so no request can be attempted without credentials.
//
// # Usage
//
//	client, err := gemini.NewClient(ctx, gemini.Config{
//	    APIKey:             cfg.Gemini.APIKey,
//	    Model:              cfg.Gemini.Model,
//	    DefaultInstruction: features.TaxAssistantInstruction,
//	})
//	if err != nil {
//	    return err
//	}
//	resp, err := client.Request(ctx, "Summarize IRC §179", upstream.Options{UseDefaultInstruction: true})
package gemini
