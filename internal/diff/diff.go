// Package diff computes field-level change reports between two versions of
// the canonical ward dataset.
package diff

import (
	"sort"
	"time"

	"github.com/civicpie/wardsync/internal/civic"
	"github.com/civicpie/wardsync/internal/metrics"
)

// Diff compares the previous dataset against the current one field by
// field. A ward present only in current reports every populated field as a
// modification from the empty value; a ward present only in previous
// yields a single removal entry. Comparing a dataset with itself yields an
// empty report. Changes are ordered by ward, then by canonical field order.
func Diff(previous, current []civic.WardRecord) civic.ChangeReport {
	prevByWard := indexByWard(previous)
	currByWard := indexByWard(current)

	report := civic.ChangeReport{GeneratedAt: time.Now().UTC()}

	// One ascending walk over the union keeps removal entries at their
	// ward's position instead of trailing the report.
	wards := unionWards(prevByWard, currByWard)

	modified, removed := 0, 0
	for _, ward := range wards {
		curr, present := currByWard[ward]
		if !present {
			report.Changes = append(report.Changes, civic.FieldChange{
				Ward:  ward,
				Field: "ward",
				Old:   prevByWard[ward].OfficialName,
				Kind:  civic.ChangeRemoved,
			})
			removed++
			continue
		}
		prev, existed := prevByWard[ward]
		for _, field := range civic.FieldOrder {
			var oldValue string
			if existed {
				oldValue = prev.FieldValue(field)
			}
			newValue := curr.FieldValue(field)
			if oldValue == newValue {
				continue
			}
			report.Changes = append(report.Changes, civic.FieldChange{
				Ward:  ward,
				Field: field,
				Old:   oldValue,
				New:   newValue,
				Kind:  civic.ChangeModified,
			})
			modified++
		}
	}

	metrics.ObserveChanges(string(civic.ChangeModified), modified)
	metrics.ObserveChanges(string(civic.ChangeRemoved), removed)
	return report
}

func indexByWard(records []civic.WardRecord) map[int]civic.WardRecord {
	out := make(map[int]civic.WardRecord, len(records))
	for _, rec := range records {
		out[rec.Ward] = rec
	}
	return out
}

func unionWards(prev, curr map[int]civic.WardRecord) []int {
	seen := make(map[int]bool, len(prev)+len(curr))
	out := make([]int, 0, len(prev)+len(curr))
	for ward := range curr {
		seen[ward] = true
		out = append(out, ward)
	}
	for ward := range prev {
		if !seen[ward] {
			out = append(out, ward)
		}
	}
	sort.Ints(out)
	return out
}
