// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package features

import (
	"fmt"

	"github.com/samber/lo"
)

// EntityType is a taxpayer entity classification.
type EntityType string

const (
	Corporate          EntityType = "Corporate"
	Partnership        EntityType = "Partnership"
	SoleProprietorship EntityType = "Sole Proprietorship"
	SCorporation       EntityType = "S-Corporation"
	LLC                EntityType = "LLC"
	CCorporation       EntityType = "C-Corporation"
	AllEntities        EntityType = "All"
)

// Jurisdiction is a taxing authority.
type Jurisdiction string

const (
	Federal          Jurisdiction = "Federal"
	California       Jurisdiction = "California"
	NewYork          Jurisdiction = "New York"
	Texas            Jurisdiction = "Texas"
	Florida          Jurisdiction = "Florida"
	AllJurisdictions Jurisdiction = "All"
)

// ChecklistEntityTypes lists the entity choices offered by the checklist generator.
func ChecklistEntityTypes() []EntityType {
	return []EntityType{Corporate, Partnership, SoleProprietorship, SCorporation, LLC}
}

// ChecklistJurisdictions lists the jurisdiction choices offered by the checklist generator.
func ChecklistJurisdictions() []Jurisdiction {
	return []Jurisdiction{Federal, California, NewYork, Texas, Florida}
}

// ParseEntityType matches a known entity type ignoring case and separators.
func ParseEntityType(s string) (EntityType, error) {
	key := squash(s)
	all := append(ChecklistEntityTypes(), CCorporation, AllEntities)
	e, ok := lo.Find(all, func(e EntityType) bool { return squash(string(e)) == key })
	if !ok {
		return "", fmt.Errorf("unknown entity type %q", s)
	}
	return e, nil
}

// ParseJurisdiction matches a known jurisdiction ignoring case and separators.
func ParseJurisdiction(s string) (Jurisdiction, error) {
	key := squash(s)
	all := append(ChecklistJurisdictions(), AllJurisdictions)
	j, ok := lo.Find(all, func(j Jurisdiction) bool { return squash(string(j)) == key })
	if !ok {
		return "", fmt.Errorf("unknown jurisdiction %q", s)
	}
	return j, nil
}

// ChecklistItem is one compliance task.
type ChecklistItem struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	Details   string `json:"details,omitempty"`
}

// checklistKey matches entity and jurisdiction with separators removed, so
// "Sole Proprietorship" finds the sole proprietorship table.
func checklistKey(e EntityType, j Jurisdiction) string {
	return squash(string(e)) + "/" + squash(string(j))
}

var checklistTable = map[string][]ChecklistItem{
	checklistKey(Corporate, Federal): {
		{ID: "cf1", Text: "File Form 1120 by the deadline.", Details: "U.S. Corporate Income Tax Return."},
		{ID: "cf2", Text: "Make estimated tax payments if required.", Details: "Based on expected tax liability."},
		{ID: "cf3", Text: "Maintain records for income, deductions, and credits.", Details: "Keep for at least 3 years from filing date."},
		{ID: "cf4", Text: "Reconcile book income to taxable income (Schedule M-1/M-3)."},
	},
	checklistKey(Partnership, Federal): {
		{ID: "pf1", Text: "File Form 1065 by the deadline.", Details: "U.S. Return of Partnership Income."},
		{ID: "pf2", Text: "Issue Schedule K-1s to partners.", Details: "Shows partner's share of income, deductions, credits, etc."},
		{ID: "pf3", Text: "Comply with partnership audit rules (BBA)."},
	},
	checklistKey(SoleProprietorship, Federal): {
		{ID: "spf1", Text: "Report profit or loss on Schedule C (Form 1040)."},
		{ID: "spf2", Text: "Pay self-employment taxes (Schedule SE)."},
		{ID: "spf3", Text: "Make estimated tax payments."},
	},
}

// Checklist is a generated list of tasks for one entity and jurisdiction.
type Checklist struct {
	EntityType   EntityType      `json:"entity_type"`
	Jurisdiction Jurisdiction    `json:"jurisdiction"`
	Items        []ChecklistItem `json:"items"`
}

// GenerateChecklist returns a fresh checklist with every item incomplete.
// Combinations without a table entry get a generic three-item list.
func GenerateChecklist(entity EntityType, jurisdiction Jurisdiction) *Checklist {
	items, ok := checklistTable[checklistKey(entity, jurisdiction)]
	if !ok {
		items = []ChecklistItem{
			{ID: "gen1", Text: fmt.Sprintf("Review %s filing requirements for %s.", jurisdiction, entity)},
			{ID: "gen2", Text: fmt.Sprintf("Identify all applicable forms for %s in %s.", entity, jurisdiction)},
			{ID: "gen3", Text: "Confirm registration and good standing."},
		}
	}
	return &Checklist{
		EntityType:   entity,
		Jurisdiction: jurisdiction,
		Items: lo.Map(items, func(item ChecklistItem, _ int) ChecklistItem {
			item.Completed = false
			return item
		}),
	}
}

// Toggle flips the completion of the item with id. It reports whether the
// item exists.
func (c *Checklist) Toggle(id string) bool {
	for i := range c.Items {
		if c.Items[i].ID == id {
			c.Items[i].Completed = !c.Items[i].Completed
			return true
		}
	}
	return false
}

// Progress returns completed and total counts.
func (c *Checklist) Progress() (done, total int) {
	return lo.CountBy(c.Items, func(item ChecklistItem) bool { return item.Completed }), len(c.Items)
}
