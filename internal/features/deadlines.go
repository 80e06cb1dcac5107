// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package features

import (
	"sort"
	"time"

	"github.com/samber/lo"
)

// TaxDeadline is a filing or payment due date.
type TaxDeadline struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Date         time.Time    `json:"date"`
	Jurisdiction Jurisdiction `json:"jurisdiction"`
	// EntityType is empty for deadlines that apply to every entity.
	EntityType EntityType `json:"entity_type,omitempty"`
}

// DateString formats the date as YYYY-MM-DD.
func (d TaxDeadline) DateString() string {
	return d.Date.Format("2006-01-02")
}

// Deadlines returns the deadline table for the given tax year. The Q4
// estimated payment falls in January of the following year.
func Deadlines(year int) []TaxDeadline {
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	return []TaxDeadline{
		{ID: "d1", Name: "Individual Tax Return (Form 1040)", Date: day(year, time.April, 15), Jurisdiction: Federal},
		{ID: "d2", Name: "Corporate Tax Return (Form 1120)", Date: day(year, time.April, 15), Jurisdiction: Federal, EntityType: CCorporation},
		{ID: "d3", Name: "Partnership Return (Form 1065)", Date: day(year, time.March, 15), Jurisdiction: Federal, EntityType: Partnership},
		{ID: "d4", Name: "S-Corp Return (Form 1120-S)", Date: day(year, time.March, 15), Jurisdiction: Federal, EntityType: SCorporation},
		{ID: "d5", Name: "Quarterly Estimated Tax Payment (Q1)", Date: day(year, time.April, 15), Jurisdiction: Federal},
		{ID: "d6", Name: "Quarterly Estimated Tax Payment (Q2)", Date: day(year, time.June, 15), Jurisdiction: Federal},
		{ID: "d7", Name: "Quarterly Estimated Tax Payment (Q3)", Date: day(year, time.September, 15), Jurisdiction: Federal},
		{ID: "d8", Name: "Quarterly Estimated Tax Payment (Q4)", Date: day(year+1, time.January, 15), Jurisdiction: Federal},
		{ID: "d9", Name: "California Corporate Tax Return", Date: day(year, time.April, 15), Jurisdiction: California, EntityType: CCorporation},
		{ID: "d10", Name: "New York State Personal Income Tax", Date: day(year, time.April, 15), Jurisdiction: NewYork},
	}
}

// FilterDeadlines keeps deadlines matching jurisdiction and entity, sorted
// by date. "All" (or empty) matches everything. Deadlines without an entity
// type match any entity filter. Ties keep table order.
func FilterDeadlines(list []TaxDeadline, jurisdiction Jurisdiction, entity EntityType) []TaxDeadline {
	out := lo.Filter(list, func(d TaxDeadline, _ int) bool {
		if jurisdiction != "" && jurisdiction != AllJurisdictions && d.Jurisdiction != jurisdiction {
			return false
		}
		if entity != "" && entity != AllEntities && d.EntityType != "" && d.EntityType != entity {
			return false
		}
		return true
	})
	sort.SliceStable(out, func(i, k int) bool { return out[i].Date.Before(out[k].Date) })
	return out
}

// DeadlineJurisdictions returns "All" followed by the distinct
// jurisdictions in list, in first-seen order.
func DeadlineJurisdictions(list []TaxDeadline) []Jurisdiction {
	return append([]Jurisdiction{AllJurisdictions},
		lo.Uniq(lo.Map(list, func(d TaxDeadline, _ int) Jurisdiction { return d.Jurisdiction }))...)
}

// DeadlineEntityTypes returns "All" followed by the distinct non-empty
// entity types in list, in first-seen order.
func DeadlineEntityTypes(list []TaxDeadline) []EntityType {
	entities := lo.FilterMap(list, func(d TaxDeadline, _ int) (EntityType, bool) {
		return d.EntityType, d.EntityType != ""
	})
	return append([]EntityType{AllEntities}, lo.Uniq(entities)...)
}
