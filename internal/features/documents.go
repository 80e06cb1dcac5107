// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package features

import (
	"context"
	"errors"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/text/cases"
)

// RiskLevel grades a compliance issue.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// ComplianceIssue is one finding from document analysis.
type ComplianceIssue struct {
	ID             string    `json:"id"`
	Description    string    `json:"description"`
	RiskLevel      RiskLevel `json:"risk_level"`
	Recommendation string    `json:"recommendation"`
	Reference      string    `json:"reference,omitempty"`
}

var (
	// ErrEmptyDocument is returned when there is nothing to analyze.
	ErrEmptyDocument = errors.New("please paste some document content to analyze")

	// ErrAnalysisFailed is the simulated parse failure.
	ErrAnalysisFailed = errors.New("simulated analysis error: could not parse document structure")
)

const (
	// ErrorTrigger in a document forces ErrAnalysisFailed.
	ErrorTrigger = "error_trigger"
	// NoIssuesTrigger in a document forces an empty result.
	NoIssuesTrigger = "no_issues_trigger"
)

var mockIssues = []ComplianceIssue{
	{
		ID:             "1",
		Description:    "Unreported income from Form 1099-MISC.",
		RiskLevel:      RiskHigh,
		Recommendation: "Amend return to include all income sources.",
		Reference:      "IRC §61",
	},
	{
		ID:             "2",
		Description:    "Potentially overstated business expense for 'Office Supplies'.",
		RiskLevel:      RiskMedium,
		Recommendation: "Review receipts and ensure expenses are ordinary and necessary.",
		Reference:      "IRC §162",
	},
	{
		ID:             "3",
		Description:    "Missing Form 8879 (e-file signature authorization).",
		RiskLevel:      RiskLow,
		Recommendation: "Ensure Form 8879 is completed and retained for all e-filed returns.",
		Reference:      "IRS Pub 1345",
	},
}

var analysisKeywords = []string{"income", "expense", "signature", "1099", "business", "form"}

// AnalyzeDocument runs the simulated compliance scan over text. An issue is
// reported when a keyword appears both in the document and in the issue's
// description or reference. With no keyword hits the first issue is
// returned so the section always shows an example.
func AnalyzeDocument(ctx context.Context, text string) ([]ComplianceIssue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDocument
	}

	fold := cases.Fold()
	doc := fold.String(text)
	switch {
	case strings.Contains(doc, ErrorTrigger):
		return nil, ErrAnalysisFailed
	case strings.Contains(doc, NoIssuesTrigger):
		return []ComplianceIssue{}, nil
	}

	present := lo.Filter(analysisKeywords, func(k string, _ int) bool {
		return strings.Contains(doc, k)
	})
	found := lo.Filter(mockIssues, func(issue ComplianceIssue, _ int) bool {
		desc := fold.String(issue.Description)
		ref := fold.String(issue.Reference)
		return lo.SomeBy(present, func(k string) bool {
			return strings.Contains(desc, k) || strings.Contains(ref, k)
		})
	})
	if len(found) == 0 {
		return []ComplianceIssue{mockIssues[0]}, nil
	}
	return found, nil
}
