// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server exposes the assistant over HTTP for browser front ends.
//
// # Endpoints
//
//   - GET  /health                 - health and configuration status
//   - GET  /api/features           - the feature menu
//   - POST /api/render             - markup text to HTML
//   - POST /api/ask                - one-shot model request
//   - GET  /api/chat               - websocket chat with streamed fragments
//   - GET  /api/checklist          - compliance checklist by entity and jurisdiction
//   - GET  /api/deadlines          - filtered filing deadlines
//   - POST /api/documents/analyze  - simulated document compliance analysis
//
// # Middleware
//
// Requests pass through panic recovery, security headers, CORS for the
// configured origins, request logging and a per-client token bucket rate
// limit, in that order.
package server
