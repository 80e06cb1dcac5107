// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes chat transcripts to Markdown, HTML or JSON.
//
// A Transcript is a frozen copy of a conversation's closed turns. Assistant
// turns are rendered through package markup, so the HTML export matches what
// the web front end shows, references included.
//
//	t := export.FromConversation(conv, "Tax Research", cfg.Gemini.Model)
//	path, err := export.ToFile(t, export.FormatHTML, export.DefaultOptions())
package export
