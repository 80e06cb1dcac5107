// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// This package defines the core domain types shared by the chat views, the
// HTTP server and the Gemini client.
//
// # Key Types
//
//   - ChatMessage: one turn, user-authored or AI-generated, with optional references
//   - Conversation: ordered list of turns for one chat section
//   - Reference: a grounding source {title, uri} attached to an AI turn
//   - Turn: a prior exchange in the shape the upstream service expects
//   - ModelInfo: information about a Gemini model
//
// # Usage
//
//	conv := model.NewConversation()
//	conv.Add(model.NewUserMessage("When is Form 1065 due?"))
//	ai := model.NewAIMessage()
//	conv.Add(ai)
//	_ = ai.AppendFragment("March 15 ")
//	_ = ai.Close(nil)
//
// A Conversation is owned by a single view and is not safe for concurrent use.
package model
