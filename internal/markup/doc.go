// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package markup renders the small markdown subset produced by the assistant.

The supported constructs are bold (** or __), italic (* or _), unordered
lists (*, - or +), ordered lists (1.), fenced code blocks with an optional
language tag, and paragraphs. Anything else is shown as literal text.

Rendering happens in two passes. Parse walks the input line by line and
builds a Document, a flat list of typed blocks. ParseInline then splits the
text of each non-code block into spans. Renderers walk that tree; the
package ships an HTML renderer, and the terminal renderer lives in
ui/components.

# Key Types

  - Document, Block: the block tree returned by Parse
  - Span: one inline run of text, bold or italic
  - Renderer: anything that turns text into display output

# Usage

	html := markup.RenderHTML("**Note:** the deadline moved.\n\n* Form 1120\n* Form 7004")

Rendering is pure. It never fails and never panics; malformed or truncated
input (for example a fence that has not been closed yet while a response is
still streaming) degrades to a best-effort rendering.
*/
package markup
