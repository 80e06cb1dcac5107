// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatstream

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/taxassist-tui/internal/apperr"
	"github.com/jeranaias/taxassist-tui/internal/markup"
	"github.com/jeranaias/taxassist-tui/internal/model"
	"github.com/jeranaias/taxassist-tui/internal/upstream"
	"github.com/jeranaias/taxassist-tui/internal/upstream/upstreamtest"
)

// renderCounter counts render calls.
type renderCounter struct {
	mu sync.Mutex
	n  int
}

func (r *renderCounter) render() {
	r.mu.Lock()
	r.n++
	r.mu.Unlock()
}

func (r *renderCounter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

func newTestConsumer() (*Consumer, *renderCounter) {
	rc := &renderCounter{}
	return NewConsumer(model.NewConversation(), rc.render), rc
}

// =============================================================================
// FRAGMENT APPLICATION
// =============================================================================

func TestConsumer_ChunkBoundariesDoNotChangeOutput(t *testing.T) {
	full := "**Deadlines**\n\n* Form 1120: *April 15*\n* Form 1065: March 15\n\n```\n<tbody>\n```"

	splits := [][]string{
		{full},
		{"**Dead", "lines**\n", "\n* Form 1120: *Ap", "ril 15*\n* Form 1065: March 15\n\n``", "`\n<tb", "ody>\n```"},
		strings.Split(full, ""),
	}

	want := markup.RenderHTML(full)
	for i, fragments := range splits {
		c, _ := newTestConsumer()
		p, err := c.Begin("When are returns due?")
		require.NoError(t, err)

		for _, f := range fragments {
			require.NoError(t, c.Consume(f, false, nil))
		}
		require.NoError(t, c.Consume("", true, nil))

		assert.Equal(t, full, p.Message.Text, "split %d", i)
		assert.Equal(t, want, markup.RenderHTML(p.Message.Text), "split %d", i)
		assert.False(t, c.Busy())
	}
}

func TestConsumer_OneRenderPerConsume(t *testing.T) {
	c, rc := newTestConsumer()
	_, err := c.Begin("q")
	require.NoError(t, err)
	require.Equal(t, 1, rc.count())

	for i := 0; i < 4; i++ {
		require.NoError(t, c.Consume("x", false, nil))
	}
	require.NoError(t, c.Consume("", true, nil))
	assert.Equal(t, 6, rc.count())
}

func TestConsumer_LatestNonEmptyReferencesWin(t *testing.T) {
	first := []model.Reference{{Title: "IRS", URI: "https://irs.gov"}}
	second := []model.Reference{
		{Title: "IRS", URI: "https://irs.gov"},
		{Title: "FTB", URI: "https://ftb.ca.gov"},
	}

	c, _ := newTestConsumer()
	p, err := c.Begin("q")
	require.NoError(t, err)

	require.NoError(t, c.Consume("a", false, first))
	require.NoError(t, c.Consume("b", false, nil))
	require.NoError(t, c.Consume("c", false, second))
	require.NoError(t, c.Consume("d", false, []model.Reference{}))
	require.NoError(t, c.Consume("", true, nil))

	assert.Equal(t, second, p.Message.References)
}

func TestConsumer_ReferencesAreNotMerged(t *testing.T) {
	c, _ := newTestConsumer()
	p, err := c.Begin("q")
	require.NoError(t, err)

	require.NoError(t, c.Consume("a", false, []model.Reference{{Title: "A", URI: "a"}}))
	require.NoError(t, c.Consume("", true, []model.Reference{{Title: "B", URI: "b"}}))

	assert.Equal(t, []model.Reference{{Title: "B", URI: "b"}}, p.Message.References)
}

func TestConsumer_NoReferences(t *testing.T) {
	c, _ := newTestConsumer()
	p, err := c.Begin("q")
	require.NoError(t, err)
	require.NoError(t, c.Consume("answer", true, nil))
	assert.Nil(t, p.Message.References)
}

func TestConsumer_FinalClosesTurn(t *testing.T) {
	c, _ := newTestConsumer()
	_, err := c.Begin("q")
	require.NoError(t, err)
	require.NoError(t, c.Consume("done", true, nil))

	assert.ErrorIs(t, c.Consume("late", false, nil), ErrNoOpenTurn)
	assert.Equal(t, "done", c.Conversation().Last().Text)
}

// =============================================================================
// TURN LIFECYCLE
// =============================================================================

func TestConsumer_OneOpenTurnAtATime(t *testing.T) {
	c, _ := newTestConsumer()
	_, err := c.Begin("first")
	require.NoError(t, err)
	assert.True(t, c.Busy())

	_, err = c.Begin("second")
	assert.ErrorIs(t, err, ErrTurnInProgress)
	assert.Equal(t, 2, c.Conversation().Len())

	assert.ErrorIs(t, c.Reset(), ErrTurnInProgress)
}

func TestConsumer_EmptyPrompt(t *testing.T) {
	c, rc := newTestConsumer()
	_, err := c.Begin("   \n")
	assert.ErrorIs(t, err, ErrEmptyPrompt)
	assert.Equal(t, 0, rc.count())
	assert.True(t, c.Conversation().IsEmpty())
}

func TestConsumer_PriorTurnsExcludeCurrentPrompt(t *testing.T) {
	c, _ := newTestConsumer()
	_, err := c.Begin("q1")
	require.NoError(t, err)
	require.NoError(t, c.Consume("a1", true, nil))

	p, err := c.Begin("q2")
	require.NoError(t, err)
	assert.Equal(t, "q2", p.Prompt)
	assert.Equal(t, []model.Turn{
		{Role: "user", Text: "q1"},
		{Role: "model", Text: "a1"},
	}, p.Prior)
}

// =============================================================================
// FAILURES
// =============================================================================

func TestConsumer_ErrorMidStreamDiscardsTurn(t *testing.T) {
	svc := &upstreamtest.Scripted{
		Fragments: []string{"one ", "two ", "three ", "four ", "five"},
		FailAfter: 2,
		Err:       errors.New("connection reset"),
	}

	c, _ := newTestConsumer()
	err := c.Stream(context.Background(), svc, "question", upstream.Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrRequest)
	assert.Equal(t, "Gemini API request failed: connection reset", apperr.UserMessage(c.LastError()))

	msgs := c.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, model.SenderUser, msgs[0].Sender)
	for _, m := range msgs {
		assert.NotEqual(t, model.SenderAI, m.Sender)
	}
	assert.False(t, c.Busy())
}

func TestConsumer_AuthFailure(t *testing.T) {
	svc := &upstreamtest.Scripted{
		Fragments: []string{"x"},
		FailAfter: 1,
		Err:       errors.New("API key not valid. Please pass a valid API key."),
	}

	c, _ := newTestConsumer()
	err := c.Stream(context.Background(), svc, "q", upstream.Options{})
	assert.ErrorIs(t, err, apperr.ErrAuth)
	assert.Equal(t, apperr.MsgInvalidKey, apperr.UserMessage(err))
}

func TestConsumer_NextTurnClearsError(t *testing.T) {
	c, _ := newTestConsumer()
	_, err := c.Begin("q")
	require.NoError(t, err)
	require.Error(t, c.Fail(errors.New("boom")))
	require.Error(t, c.LastError())

	_, err = c.Begin("again")
	require.NoError(t, err)
	assert.NoError(t, c.LastError())
}

func TestConsumer_CancelledStream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := &upstreamtest.Scripted{Fragments: []string{"a", "b"}}
	c, _ := newTestConsumer()
	err := c.Stream(ctx, svc, "q", upstream.Options{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "Request cancelled.", apperr.UserMessage(err))
	assert.False(t, c.Busy())
	assert.Equal(t, 1, c.Conversation().Len())
}

// =============================================================================
// LIVENESS
// =============================================================================

func TestConsumer_DetachedIgnoresLateFragments(t *testing.T) {
	c, rc := newTestConsumer()
	p, err := c.Begin("q")
	require.NoError(t, err)
	require.NoError(t, c.Consume("partial", false, nil))
	renders := rc.count()

	c.Detach()
	assert.False(t, c.Alive())

	assert.NoError(t, c.Consume(" more", false, nil))
	assert.NoError(t, c.Consume("", true, nil))
	assert.NoError(t, c.Fail(errors.New("late")))

	assert.Equal(t, "partial", p.Message.Text)
	assert.Equal(t, renders, rc.count())

	_, err = c.Begin("new")
	assert.ErrorIs(t, err, ErrDetached)
}

func TestConsumer_ConcurrentDetach(t *testing.T) {
	c, _ := newTestConsumer()
	_, err := c.Begin("q")
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = c.Consume("x", false, nil)
		}
	}()
	go func() {
		defer wg.Done()
		c.Detach()
	}()
	wg.Wait()

	assert.False(t, c.Alive())
}

func TestConsumer_StreamSuccess(t *testing.T) {
	refs := []model.Reference{{Title: "IRS Pub 15", URI: "https://irs.gov/pub15"}}
	svc := &upstreamtest.Scripted{
		Fragments: []string{"Payroll ", "taxes ", "are due."},
		Refs:      refs,
		RefsFrom:  1,
	}

	c, rc := newTestConsumer()
	opts := upstream.Options{UseDefaultInstruction: true, UseSearchGrounding: true}
	require.NoError(t, c.Stream(context.Background(), svc, "payroll?", opts))

	last := c.Conversation().Last()
	assert.Equal(t, "Payroll taxes are due.", last.Text)
	assert.Equal(t, refs, last.References)
	assert.Equal(t, 1+3+1, rc.count())

	calls := svc.Calls()
	require.Len(t, calls, 1)
	assert.True(t, calls[0].Stream)
	assert.Equal(t, opts, calls[0].Opts)
}
