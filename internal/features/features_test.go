// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package features

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// FEATURE ENUM
// =============================================================================

func TestAll_CoversEveryFeature(t *testing.T) {
	all := All()
	assert.Len(t, all, int(featureCount))
	seen := map[Feature]bool{}
	for _, f := range all {
		assert.True(t, f.Valid())
		assert.False(t, seen[f], "duplicate %s", f)
		seen[f] = true
		assert.NotEmpty(t, f.Title())
		assert.NotEmpty(t, f.Description())
		assert.NotEmpty(t, f.Group())
	}
}

func TestParseFeature(t *testing.T) {
	tests := []struct {
		in   string
		want Feature
	}{
		{"tax-research", TaxResearch},
		{"TaxResearch", TaxResearch},
		{"Tax Research", TaxResearch},
		{"SETTINGS", Settings},
		{"regulation-summarizer", RegulatoryUpdateSummarizer},
		{"RegulatoryUpdateSummarizer", RegulatoryUpdateSummarizer},
		{"app_explanation", AppExplanationAssistant},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFeature(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseFeature("payroll")
	assert.Error(t, err)
}

func TestFeature_StringRoundTrip(t *testing.T) {
	for _, f := range All() {
		got, err := ParseFeature(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	assert.Equal(t, "feature(99)", Feature(99).String())
	assert.False(t, Feature(-1).Valid())
}

func TestFeature_JSON(t *testing.T) {
	data, err := json.Marshal(map[string]Feature{"f": DeadlineTracking})
	require.NoError(t, err)
	assert.JSONEq(t, `{"f":"deadlines"}`, string(data))

	var out map[string]Feature
	require.NoError(t, json.Unmarshal([]byte(`{"f":"checklist"}`), &out))
	assert.Equal(t, ChecklistGeneration, out["f"])

	_, err = json.Marshal(Feature(42))
	assert.Error(t, err)
}

func TestUsesModel(t *testing.T) {
	assert.True(t, TaxResearch.UsesModel())
	assert.True(t, AppExplanationAssistant.UsesModel())
	assert.False(t, ChecklistGeneration.UsesModel())
	assert.False(t, Settings.UsesModel())
}

func TestGroups_PreserveOrder(t *testing.T) {
	groups := Groups()
	require.Len(t, groups, 5)
	assert.Equal(t, "Analysis & Reporting", groups[0].Title)
	assert.Equal(t, []Feature{DocumentAnalysis, RegulatoryUpdateSummarizer}, groups[0].Features)

	var flat []Feature
	for _, g := range groups {
		flat = append(flat, g.Features...)
	}
	assert.Equal(t, All(), flat)
}

func TestRequestOptions(t *testing.T) {
	opts := RequestOptions(TaxResearch, true)
	assert.True(t, opts.UseDefaultInstruction)
	assert.True(t, opts.UseSearchGrounding)
	assert.Empty(t, opts.CustomInstruction)
	assert.Equal(t, "default", opts.SystemInstruction("default"))

	opts = RequestOptions(AppExplanationAssistant, true)
	assert.False(t, opts.UseDefaultInstruction)
	assert.False(t, opts.UseSearchGrounding)
	assert.Equal(t, AppExplanationInstruction, opts.SystemInstruction(TaxAssistantInstruction))
	assert.Contains(t, AppExplanationInstruction, CompanyName)
}

// =============================================================================
// CHECKLIST
// =============================================================================

func TestGenerateChecklist_Table(t *testing.T) {
	c := GenerateChecklist(Corporate, Federal)
	require.Len(t, c.Items, 4)
	assert.Equal(t, "cf1", c.Items[0].ID)
	for _, item := range c.Items {
		assert.False(t, item.Completed, "fresh checklist items start incomplete")
	}

	sp := GenerateChecklist(SoleProprietorship, Federal)
	require.Len(t, sp.Items, 3)
	assert.Equal(t, "spf1", sp.Items[0].ID)
}

func TestGenerateChecklist_Fallback(t *testing.T) {
	c := GenerateChecklist(LLC, Texas)
	require.Len(t, c.Items, 3)
	assert.Equal(t, "Review Texas filing requirements for LLC.", c.Items[0].Text)
	assert.Equal(t, "Identify all applicable forms for LLC in Texas.", c.Items[1].Text)
}

func TestGenerateChecklist_IndependentCopies(t *testing.T) {
	a := GenerateChecklist(Corporate, Federal)
	require.True(t, a.Toggle("cf1"))
	b := GenerateChecklist(Corporate, Federal)
	assert.False(t, b.Items[0].Completed)
}

func TestChecklist_ToggleProgress(t *testing.T) {
	c := GenerateChecklist(Partnership, Federal)
	done, total := c.Progress()
	assert.Equal(t, 0, done)
	assert.Equal(t, 3, total)

	assert.True(t, c.Toggle("pf2"))
	assert.True(t, c.Toggle("pf3"))
	done, _ = c.Progress()
	assert.Equal(t, 2, done)

	assert.True(t, c.Toggle("pf2"))
	done, _ = c.Progress()
	assert.Equal(t, 1, done)

	assert.False(t, c.Toggle("missing"))
}

func TestParseEntityAndJurisdiction(t *testing.T) {
	e, err := ParseEntityType("sole-proprietorship")
	require.NoError(t, err)
	assert.Equal(t, SoleProprietorship, e)

	j, err := ParseJurisdiction("new york")
	require.NoError(t, err)
	assert.Equal(t, NewYork, j)

	_, err = ParseJurisdiction("Atlantis")
	assert.Error(t, err)
	// The choice lists are not mutated by parsing.
	assert.Len(t, ChecklistEntityTypes(), 5)
}

// =============================================================================
// DEADLINES
// =============================================================================

func TestFilterDeadlines(t *testing.T) {
	list := Deadlines(2025)

	all := FilterDeadlines(list, AllJurisdictions, AllEntities)
	require.Len(t, all, len(list))
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].Date.Before(all[i-1].Date), "sorted by date")
	}
	assert.Equal(t, "d3", all[0].ID)
	assert.Equal(t, "d8", all[len(all)-1].ID)
	assert.Equal(t, 2026, all[len(all)-1].Date.Year())

	ca := FilterDeadlines(list, California, "")
	require.Len(t, ca, 1)
	assert.Equal(t, "d9", ca[0].ID)

	// Entity-less deadlines match any entity filter.
	partnership := FilterDeadlines(list, Federal, Partnership)
	ids := make([]string, 0, len(partnership))
	for _, d := range partnership {
		ids = append(ids, d.ID)
		assert.True(t, d.EntityType == "" || d.EntityType == Partnership)
	}
	assert.Contains(t, ids, "d3")
	assert.Contains(t, ids, "d1")
	assert.NotContains(t, ids, "d2")
}

func TestFilterDeadlines_StableTies(t *testing.T) {
	list := FilterDeadlines(Deadlines(2025), Federal, AllEntities)
	var april []string
	for _, d := range list {
		if d.Date.Equal(time.Date(2025, time.April, 15, 0, 0, 0, 0, time.UTC)) {
			april = append(april, d.ID)
		}
	}
	assert.Equal(t, []string{"d1", "d2", "d5"}, april)
}

func TestDeadlineFilterChoices(t *testing.T) {
	list := Deadlines(2025)
	assert.Equal(t, []Jurisdiction{AllJurisdictions, Federal, California, NewYork}, DeadlineJurisdictions(list))
	assert.Equal(t, []EntityType{AllEntities, CCorporation, Partnership, SCorporation}, DeadlineEntityTypes(list))
	assert.Equal(t, "2025-03-15", list[2].DateString())
}

// =============================================================================
// DOCUMENT ANALYSIS
// =============================================================================

func TestAnalyzeDocument(t *testing.T) {
	ctx := context.Background()

	_, err := AnalyzeDocument(ctx, "   ")
	assert.ErrorIs(t, err, ErrEmptyDocument)

	_, err = AnalyzeDocument(ctx, "contains ERROR_TRIGGER here")
	assert.ErrorIs(t, err, ErrAnalysisFailed)

	issues, err := AnalyzeDocument(ctx, "no_issues_trigger and income")
	require.NoError(t, err)
	assert.NotNil(t, issues)
	assert.Empty(t, issues)

	issues, err = AnalyzeDocument(ctx, "Missing signature on the return")
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "3", issues[0].ID)

	issues, err = AnalyzeDocument(ctx, "Business expense of $400 and Form 1099 income")
	require.NoError(t, err)
	assert.Len(t, issues, 3)

	// No keyword hits falls back to the first issue.
	issues, err = AnalyzeDocument(ctx, "lorem ipsum")
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, RiskHigh, issues[0].RiskLevel)
}

func TestAnalyzeDocument_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := AnalyzeDocument(ctx, "income")
	assert.True(t, errors.Is(err, context.Canceled))
}

// =============================================================================
// PROMPTS
// =============================================================================

func TestRegulatorySummaryPrompt(t *testing.T) {
	_, err := RegulatorySummaryPrompt(" \n ")
	assert.ErrorIs(t, err, ErrEmptyInput)

	p, err := RegulatorySummaryPrompt("  Section 179 limits increase.  ")
	require.NoError(t, err)
	assert.Contains(t, p, "---\nSection 179 limits increase.\n---")
	assert.True(t, strings.HasSuffix(p, "Summary:\n"))
}

func TestRegulatorySummaryPrompt_NormalizesNFC(t *testing.T) {
	// "e" followed by a combining acute accent composes to "é".
	p, err := RegulatorySummaryPrompt("re\u0301sume\u0301")
	require.NoError(t, err)
	assert.Contains(t, p, "r\u00e9sum\u00e9")
}

func TestClientCommunicationPrompt(t *testing.T) {
	_, err := ClientCommunicationPrompt("", Investor)
	assert.ErrorIs(t, err, ErrEmptyInput)

	p, err := ClientCommunicationPrompt("QBI deduction phases out.", "")
	require.NoError(t, err)
	assert.Contains(t, p, "Target Audience: Small Business Owner")
	assert.Contains(t, p, "QBI deduction phases out.")

	p, err = ClientCommunicationPrompt("x", NewFiler)
	require.NoError(t, err)
	assert.Contains(t, p, "Target Audience: Client new to tax filings")
}

func TestParseAudience(t *testing.T) {
	a, err := ParseAudience("corporate-executive")
	require.NoError(t, err)
	assert.Equal(t, CorporateExecutive, a)
	_, err = ParseAudience("aliens")
	assert.Error(t, err)
	assert.Len(t, Audiences(), 5)
}

func TestPrompt(t *testing.T) {
	p, err := Prompt(TaxResearch, "  What is Section 179?  ", "")
	require.NoError(t, err)
	assert.Equal(t, "What is Section 179?", p)

	p, err = Prompt(ClientCommunicationAssistant, "Estimated payments are due.", Investor)
	require.NoError(t, err)
	assert.Contains(t, p, "Target Audience: Investor")

	p, err = Prompt(RegulatoryUpdateSummarizer, "Notice 2025-1", "")
	require.NoError(t, err)
	assert.Contains(t, p, "Notice 2025-1")

	_, err = Prompt(AppExplanationAssistant, " ", "")
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = Prompt(ChecklistGeneration, "x", "")
	assert.Error(t, err)
}
