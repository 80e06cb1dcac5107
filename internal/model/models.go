// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"sort"
	"strings"
)

// DefaultModel is the model used when none is configured.
const DefaultModel = "gemini-2.5-flash-preview-04-17"

// =============================================================================
// MODEL INFO TYPE
// =============================================================================

// ModelInfo contains information about a Gemini model.
type ModelInfo struct {
	// ID is the model identifier used in API calls
	ID string `json:"id"`

	// Name is the human-readable display name
	Name string `json:"name"`

	// Tier categorizes the model's capability level
	Tier string `json:"tier"`

	// SupportsSearch reports whether Google Search grounding is available
	SupportsSearch bool `json:"supports_search"`

	// Description is a brief explanation of the model's strengths
	Description string `json:"description"`
}

// Models is the registry of known models, keyed by short name.
var Models = map[string]ModelInfo{
	"flash-preview": {
		ID:             DefaultModel,
		Name:           "Gemini 2.5 Flash (preview)",
		Tier:           "Fast",
		SupportsSearch: true,
		Description:    "Default model for research chat and drafting",
	},
	"flash": {
		ID:             "gemini-2.5-flash",
		Name:           "Gemini 2.5 Flash",
		Tier:           "Fast",
		SupportsSearch: true,
		Description:    "Fast general-purpose model",
	},
	"pro": {
		ID:             "gemini-2.5-pro",
		Name:           "Gemini 2.5 Pro",
		Tier:           "Powerful",
		SupportsSearch: true,
		Description:    "Most capable for complex research questions",
	},
	"flash-lite": {
		ID:             "gemini-2.0-flash-lite",
		Name:           "Gemini 2.0 Flash-Lite",
		Tier:           "Fast",
		SupportsSearch: false,
		Description:    "Lowest latency, no search grounding",
	},
}

// GetModelInfo looks up a model by short name or API ID.
func GetModelInfo(name string) (ModelInfo, bool) {
	if info, ok := Models[name]; ok {
		return info, true
	}
	for _, info := range Models {
		if strings.EqualFold(info.ID, name) {
			return info, true
		}
	}
	return ModelInfo{}, false
}

// ResolveModelID returns the API ID for a short name, or name unchanged.
func ResolveModelID(name string) string {
	if info, ok := GetModelInfo(name); ok {
		return info.ID
	}
	return name
}

// ListModels returns all known models sorted by ID.
func ListModels() []ModelInfo {
	out := make([]ModelInfo, 0, len(Models))
	for _, info := range Models {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
