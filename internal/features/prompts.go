// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package features

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrEmptyInput is returned by the prompt builders for blank input.
var ErrEmptyInput = errors.New("input is empty")

// Audience is the reader a client communication is drafted for.
type Audience string

const (
	SmallBusinessOwner Audience = "Small Business Owner"
	IndividualTaxpayer Audience = "Individual Taxpayer"
	Investor           Audience = "Investor"
	NewFiler           Audience = "Client new to tax filings"
	CorporateExecutive Audience = "Corporate Executive"
	DefaultAudience             = SmallBusinessOwner
)

// Audiences returns the audience choices in display order.
func Audiences() []Audience {
	return []Audience{SmallBusinessOwner, IndividualTaxpayer, Investor, NewFiler, CorporateExecutive}
}

// ParseAudience matches a known audience ignoring case and separators.
func ParseAudience(s string) (Audience, error) {
	key := squash(s)
	for _, a := range Audiences() {
		if squash(string(a)) == key {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown audience %q", s)
}

// cleanInput normalizes pasted text to NFC and trims it.
func cleanInput(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

// RegulatorySummaryPrompt wraps regulation text in the summarization prompt.
func RegulatorySummaryPrompt(regulation string) (string, error) {
	regulation = cleanInput(regulation)
	if regulation == "" {
		return "", fmt.Errorf("regulation text: %w", ErrEmptyInput)
	}
	return `Please summarize the following tax regulation text. Focus on:
- Key changes introduced by the regulation.
- Potential impacts on different taxpayer types (e.g., individuals, corporations, partnerships).
- Any critical compliance dates or new action items tax professionals should be aware of.
- The overall objective or purpose of the regulation.
Keep the summary concise, clear, and highlight the most important takeaways for a tax professional.

Regulation Text:
---
` + regulation + `
---
Summary:
`, nil
}

// ClientCommunicationPrompt asks for a client-friendly rewrite of technical
// tax information for audience. An empty audience uses DefaultAudience.
func ClientCommunicationPrompt(technical string, audience Audience) (string, error) {
	technical = cleanInput(technical)
	if technical == "" {
		return "", fmt.Errorf("technical information: %w", ErrEmptyInput)
	}
	if audience == "" {
		audience = DefaultAudience
	}
	return `You are an AI assistant helping a tax professional draft client communications.
The user will provide technical tax information and the target audience.
Your task is to rephrase the technical information into a clear, concise, and client-friendly message suitable for the specified audience.
Identify the most important information from the technical text and present it in an understandable way.
Avoid jargon where possible, or explain it simply. Maintain a professional and helpful tone.
Structure the output as a friendly email or memo, if appropriate for the context.

Technical Information Provided:
---
` + technical + `
---

Target Audience: ` + string(audience) + `

Draft Client Communication:
`, nil
}

// Prompt builds the request text for a model-backed feature. The generators
// apply their templates; the chat features send input as typed.
func Prompt(f Feature, input string, audience Audience) (string, error) {
	switch f {
	case RegulatoryUpdateSummarizer:
		return RegulatorySummaryPrompt(input)
	case ClientCommunicationAssistant:
		return ClientCommunicationPrompt(input, audience)
	case TaxResearch, AppExplanationAssistant:
		input = cleanInput(input)
		if input == "" {
			return "", fmt.Errorf("prompt: %w", ErrEmptyInput)
		}
		return input, nil
	case DocumentAnalysis, ChecklistGeneration, DeadlineTracking, Settings:
		return "", fmt.Errorf("%s does not use the model", f.Title())
	}
	return "", fmt.Errorf("unknown feature %d", int(f))
}
