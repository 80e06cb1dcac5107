// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chatstream folds streamed response fragments into a conversation.

A Consumer owns one conversation on behalf of one view. Begin appends the
user's turn and an open AI turn; Consume appends each fragment to that turn
and closes it on the final call; Fail discards the open turn and records the
error. Every state change triggers exactly one call to the render hook.

# Key Types

  - Consumer: the fragment sink for one conversation
  - Pending: what Begin hands to the upstream call (prompt and prior turns)

# Usage

	c := chatstream.NewConsumer(conv, view.Refresh)
	p, err := c.Begin(prompt)
	if err != nil {
		return err
	}
	svc.RequestStream(ctx, p.Prompt, p.Prior, c.OnFragment, c.OnError, opts)

When the view is torn down, call Detach. Fragments that arrive afterwards are
ignored.
*/
package chatstream
