// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package features defines the dashboard sections and the data behind the
// ones that do not call the model.
//
// Feature is a closed set. Dispatch on it with an exhaustive switch and no
// default branch, so that adding a section fails to compile wherever it is
// not handled:
//
//	switch f {
//	case features.DocumentAnalysis:
//	...
//	case features.Settings:
//	}
//
// The checklist, deadline and document analysis data are static tables.
// The regulatory summary and client communication sections only build
// prompts here; the model call happens in the caller.
package features
