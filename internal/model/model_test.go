// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestChatMessage_AppendAndClose(t *testing.T) {
	msg := NewAIMessage()
	require.True(t, msg.IsOpen())
	require.True(t, msg.IsEmpty())

	require.NoError(t, msg.AppendFragment("Form "))
	require.NoError(t, msg.AppendFragment("1120"))
	assert.Equal(t, "Form 1120", msg.Text)

	refs := []Reference{{Title: "IRS", URI: "https://irs.gov"}}
	require.NoError(t, msg.Close(refs))
	assert.False(t, msg.IsOpen())
	assert.Equal(t, refs, msg.References)
	assert.Equal(t, "Form 1120", msg.Text)

	assert.ErrorIs(t, msg.AppendFragment("late"), ErrMessageClosed)
	assert.ErrorIs(t, msg.Close(nil), ErrMessageClosed)
}

func TestChatMessage_CloseWithoutReferences(t *testing.T) {
	msg := NewAIMessage()
	require.NoError(t, msg.Close([]Reference{}))
	assert.Nil(t, msg.References)
}

func TestChatMessage_UserMessageIsClosed(t *testing.T) {
	msg := NewUserMessage("hello")
	assert.False(t, msg.IsOpen())
	assert.ErrorIs(t, msg.AppendFragment("x"), ErrMessageClosed)
	assert.Equal(t, SenderUser, msg.Sender)
}

func TestChatMessage_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewAIMessage().ID
		if seen[id] {
			t.Fatalf("duplicate ID %q", id)
		}
		seen[id] = true
		if !strings.HasPrefix(id, "msg_") {
			t.Errorf("ID %q should start with msg_", id)
		}
	}
}

func TestChatMessage_Preview(t *testing.T) {
	msg := NewUserMessage("Quarterly estimated payments")
	assert.Equal(t, "Quarterly...", msg.Preview(12))
	assert.Equal(t, msg.Text, msg.Preview(100))
}

func TestSender(t *testing.T) {
	assert.Equal(t, "user", SenderUser.Role())
	assert.Equal(t, "model", SenderAI.Role())
	assert.Equal(t, "Assistant", SenderAI.DisplayName())
}

func TestReference_Valid(t *testing.T) {
	assert.True(t, Reference{Title: "a", URI: "b"}.Valid())
	assert.False(t, Reference{Title: "a"}.Valid())
	assert.False(t, Reference{URI: "b"}.Valid())
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestConversation_OpenAndRemove(t *testing.T) {
	conv := NewConversation()
	conv.Add(NewUserMessage("question"))
	ai := NewAIMessage()
	conv.Add(ai)

	assert.Same(t, ai, conv.Open())
	assert.Equal(t, 2, conv.Len())
	assert.Equal(t, "question", conv.GetTitle())

	assert.True(t, conv.Remove(ai.ID))
	assert.Nil(t, conv.Open())
	assert.Nil(t, conv.Get(ai.ID))
	assert.False(t, conv.Remove(ai.ID))
}

func TestConversation_History(t *testing.T) {
	conv := NewConversation()
	conv.Add(NewUserMessage("q1"))
	a1 := NewAIMessage()
	conv.Add(a1)
	require.NoError(t, a1.AppendFragment("a1"))
	require.NoError(t, a1.Close(nil))
	conv.Add(NewUserMessage("q2"))
	conv.Add(NewAIMessage()) // still open, skipped

	assert.Equal(t, []Turn{
		{Role: "user", Text: "q1"},
		{Role: "model", Text: "a1"},
		{Role: "user", Text: "q2"},
	}, conv.History())
}

func TestConversation_Clear(t *testing.T) {
	conv := NewConversation()
	conv.Add(NewUserMessage("q"))
	conv.Clear()
	assert.True(t, conv.IsEmpty())
	assert.Equal(t, "New Conversation", conv.GetTitle())
}

func TestConversation_Prune(t *testing.T) {
	conv := NewConversation()
	for i := 0; i < MaxMessages+5; i++ {
		conv.Add(NewUserMessage("m"))
	}
	assert.Equal(t, MaxMessages, conv.Len())
}

func TestConversation_SnapshotIsIndependent(t *testing.T) {
	conv := NewConversation()
	ai := NewAIMessage()
	conv.Add(ai)
	require.NoError(t, ai.AppendFragment("a"))

	snap := conv.Snapshot()
	require.NoError(t, ai.AppendFragment("b"))

	assert.Equal(t, "a", snap[0].Text)
	assert.True(t, snap[0].IsOpen())
}

// =============================================================================
// MODEL REGISTRY TESTS
// =============================================================================

func TestModels_HaveRequiredFields(t *testing.T) {
	for id, m := range Models {
		t.Run(id, func(t *testing.T) {
			if m.ID == "" {
				t.Error("Model.ID should not be empty")
			}
			if m.Name == "" {
				t.Error("Model.Name should not be empty")
			}
		})
	}
}

func TestGetModelInfo(t *testing.T) {
	info, ok := GetModelInfo("pro")
	require.True(t, ok)
	assert.Equal(t, "gemini-2.5-pro", info.ID)

	info, ok = GetModelInfo(DefaultModel)
	require.True(t, ok)
	assert.True(t, info.SupportsSearch)

	_, ok = GetModelInfo("nonexistent-model")
	assert.False(t, ok)

	assert.Equal(t, "gemini-2.5-flash", ResolveModelID("flash"))
	assert.Equal(t, "custom-model", ResolveModelID("custom-model"))
	assert.Len(t, ListModels(), len(Models))
}
