// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markup

import (
	"strings"
)

// =============================================================================
// INLINE SPANS
// =============================================================================

// SpanKind identifies the emphasis of an inline span.
type SpanKind int

const (
	SpanText SpanKind = iota
	SpanBold
	SpanItalic
	// SpanBoldItalic is italic text inside a bold run.
	SpanBoldItalic
)

// Span is a run of text with a single emphasis.
type Span struct {
	Kind SpanKind
	Text string
}

type inlineState int

const (
	inlineNormal inlineState = iota
	inlineBold
	inlineItalic
)

// ParseInline splits text into text, bold and italic spans.
//
// Bold uses ** or __ and always takes the shortest match. Italic uses a
// single * or _. Neither may span a line break or be empty. An opener with
// no closer on the same line is kept as literal text. Italic inside a bold
// run comes back as SpanBoldItalic between the SpanBold pieces.
func ParseInline(text string) []Span {
	var (
		spans  []Span
		buf    strings.Builder
		state  = inlineNormal
		marker string
	)

	flush := func(kind SpanKind) {
		if buf.Len() == 0 {
			return
		}
		spans = append(spans, Span{Kind: kind, Text: buf.String()})
		buf.Reset()
	}

	// Markers are ASCII, so walking bytes never splits a multi-byte rune:
	// every non-marker byte is copied through untouched.
	for i := 0; i < len(text); {
		c := text[i]

		switch state {
		case inlineNormal:
			if c != '*' && c != '_' {
				buf.WriteByte(c)
				i++
				continue
			}
			if i+1 < len(text) && text[i+1] == c {
				m := text[i : i+2]
				if hasBoldCloser(text[i+2:], m) {
					flush(SpanText)
					state, marker = inlineBold, m
				} else {
					buf.WriteString(m)
				}
				i += 2
				continue
			}
			if hasItalicCloser(text[i+1:], c) {
				flush(SpanText)
				state, marker = inlineItalic, text[i:i+1]
			} else {
				buf.WriteByte(c)
			}
			i++

		case inlineBold:
			if strings.HasPrefix(text[i:], marker) {
				spans = append(spans, boldSpans(buf.String())...)
				buf.Reset()
				state = inlineNormal
				i += len(marker)
				continue
			}
			buf.WriteByte(c)
			i++

		case inlineItalic:
			if c == marker[0] {
				flush(SpanItalic)
				state = inlineNormal
				i++
				continue
			}
			buf.WriteByte(c)
			i++
		}
	}

	// Openers are only taken when a closer exists, so the scan always ends
	// in the normal state.
	flush(SpanText)
	return spans
}

// boldSpans splits the content of a bold run on its italic markers.
func boldSpans(text string) []Span {
	var (
		spans []Span
		buf   strings.Builder
	)
	flush := func(kind SpanKind) {
		if buf.Len() > 0 {
			spans = append(spans, Span{Kind: kind, Text: buf.String()})
			buf.Reset()
		}
	}

	for i := 0; i < len(text); {
		c := text[i]
		if c != '*' && c != '_' {
			buf.WriteByte(c)
			i++
			continue
		}
		if i+1 < len(text) && text[i+1] == c {
			buf.WriteString(text[i : i+2])
			i += 2
			continue
		}
		if !hasItalicCloser(text[i+1:], c) {
			buf.WriteByte(c)
			i++
			continue
		}
		flush(SpanBold)
		end := i + 1 + strings.IndexByte(text[i+1:], c)
		buf.WriteString(text[i+1 : end])
		flush(SpanBoldItalic)
		i = end + 1
	}
	flush(SpanBold)
	return spans
}

// hasBoldCloser reports whether rest contains marker before the next line
// break, with at least one byte of content before it.
func hasBoldCloser(rest, marker string) bool {
	idx := strings.Index(rest, marker)
	if idx <= 0 {
		return false
	}
	nl := strings.IndexByte(rest, '\n')
	return nl < 0 || idx < nl
}

// hasItalicCloser reports whether rest contains a single c (not part of a
// doubled marker) before the next line break.
func hasItalicCloser(rest string, c byte) bool {
	for k := 0; k < len(rest); k++ {
		switch rest[k] {
		case '\n':
			return false
		case c:
			if k+1 < len(rest) && rest[k+1] == c {
				return false
			}
			return k > 0
		}
	}
	return false
}

// PlainText returns the text of spans with all emphasis removed.
func PlainText(spans []Span) string {
	var sb strings.Builder
	for _, s := range spans {
		sb.WriteString(s.Text)
	}
	return sb.String()
}
