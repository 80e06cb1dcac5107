// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package features

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Feature identifies a dashboard section.
type Feature int

const (
	DocumentAnalysis Feature = iota
	ChecklistGeneration
	DeadlineTracking
	TaxResearch
	RegulatoryUpdateSummarizer
	ClientCommunicationAssistant
	AppExplanationAssistant
	Settings

	featureCount
)

type featureInfo struct {
	slug        string
	title       string
	description string
	group       string
	// usesModel marks sections that call the upstream service
	usesModel bool
}

var featureTable = [featureCount]featureInfo{
	DocumentAnalysis: {
		slug:        "document-analysis",
		title:       "Document Analysis",
		description: "Analyze tax documents for compliance issues.",
		group:       "Analysis & Reporting",
	},
	RegulatoryUpdateSummarizer: {
		slug:        "regulation-summarizer",
		title:       "Regulation Summarizer",
		description: "Summarize complex tax regulations into concise, actionable insights.",
		group:       "Analysis & Reporting",
		usesModel:   true,
	},
	ChecklistGeneration: {
		slug:        "checklist",
		title:       "Checklist Generation",
		description: "Generate compliance checklists by entity and jurisdiction.",
		group:       "Planning & Guidance",
	},
	DeadlineTracking: {
		slug:        "deadlines",
		title:       "Deadline Tracking",
		description: "Guidance on tax filing deadlines and requirements.",
		group:       "Planning & Guidance",
	},
	TaxResearch: {
		slug:        "tax-research",
		title:       "Tax Research",
		description: "AI-powered tax research and regulatory updates.",
		group:       "Research & Communication",
		usesModel:   true,
	},
	ClientCommunicationAssistant: {
		slug:        "client-communication",
		title:       "Client Communication",
		description: "Draft client-friendly explanations of tax matters.",
		group:       "Research & Communication",
		usesModel:   true,
	},
	AppExplanationAssistant: {
		slug:        "app-explanation",
		title:       "App Explanation Assistant",
		description: "Ask questions about this application and its features.",
		group:       "Help & Support",
		usesModel:   true,
	},
	Settings: {
		slug:        "settings",
		title:       "Settings",
		description: "Configure application settings and view app information.",
		group:       "Application Settings & Info",
	},
}

// All returns every feature in menu order.
func All() []Feature {
	return []Feature{
		DocumentAnalysis,
		RegulatoryUpdateSummarizer,
		ChecklistGeneration,
		DeadlineTracking,
		TaxResearch,
		ClientCommunicationAssistant,
		AppExplanationAssistant,
		Settings,
	}
}

// Valid reports whether f is one of the defined features.
func (f Feature) Valid() bool {
	return f >= 0 && f < featureCount
}

func (f Feature) info() featureInfo {
	if !f.Valid() {
		return featureInfo{slug: fmt.Sprintf("feature(%d)", int(f)), title: "Unknown"}
	}
	return featureTable[f]
}

// String returns the stable slug, e.g. "tax-research".
func (f Feature) String() string { return f.info().slug }

// Title returns the menu title.
func (f Feature) Title() string { return f.info().title }

// Description returns the one-line menu description.
func (f Feature) Description() string { return f.info().description }

// Group returns the menu group heading.
func (f Feature) Group() string { return f.info().group }

// UsesModel reports whether the section calls the upstream service and is
// therefore disabled without an API key.
func (f Feature) UsesModel() bool { return f.info().usesModel }

// MarshalText encodes the slug.
func (f Feature) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("invalid feature %d", int(f))
	}
	return []byte(f.String()), nil
}

// UnmarshalText accepts anything ParseFeature accepts.
func (f *Feature) UnmarshalText(b []byte) error {
	parsed, err := ParseFeature(string(b))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// ParseFeature accepts a slug ("tax-research"), the enum name
// ("TaxResearch") or the title, case-insensitively.
func ParseFeature(s string) (Feature, error) {
	key := squash(s)
	f, ok := lo.Find(All(), func(f Feature) bool {
		info := f.info()
		return key == squash(info.slug) || key == squash(info.title) || key == squash(enumNames[f])
	})
	if !ok {
		return 0, fmt.Errorf("unknown feature %q", s)
	}
	return f, nil
}

var enumNames = [featureCount]string{
	DocumentAnalysis:             "DocumentAnalysis",
	ChecklistGeneration:          "ChecklistGeneration",
	DeadlineTracking:             "DeadlineTracking",
	TaxResearch:                  "TaxResearch",
	RegulatoryUpdateSummarizer:   "RegulatoryUpdateSummarizer",
	ClientCommunicationAssistant: "ClientCommunicationAssistant",
	AppExplanationAssistant:      "AppExplanationAssistant",
	Settings:                     "Settings",
}

// squash lowercases and drops separators so that "Tax Research",
// "tax-research" and "TaxResearch" compare equal.
func squash(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		if r == ' ' || r == '-' || r == '_' {
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Group is a titled run of menu entries.
type Group struct {
	Title    string
	Features []Feature
}

// Groups returns the menu grouped by heading, preserving menu order.
func Groups() []Group {
	var groups []Group
	for _, f := range All() {
		if n := len(groups); n > 0 && groups[n-1].Title == f.Group() {
			groups[n-1].Features = append(groups[n-1].Features, f)
			continue
		}
		groups = append(groups, Group{Title: f.Group(), Features: []Feature{f}})
	}
	return groups
}
