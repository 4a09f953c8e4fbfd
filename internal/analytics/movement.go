package analytics

import (
	"cmp"
	"slices"

	"dealflow/internal/schema"
)

// Movement is a deal whose active stage changed between two month-ends.
// FromStage is nil (JSON null) for deals absent from the previous month.
type Movement struct {
	DealName  string  `json:"dealName"`
	DealOwner string  `json:"dealOwner"`
	FromStage *string `json:"fromStage"`
	ToStage   string  `json:"toStage"`
}

// From returns the previous stage, or "" for a new deal.
func (m Movement) From() string {
	if m.FromStage == nil {
		return ""
	}
	return *m.FromStage
}

// DetectMovements compares two months of stage assignments. prev is nil for
// the first month of a series.
func DetectMovements(prev, curr map[string][]DealDetail, s *schema.Schema) []Movement {
	before := make(map[string]string)
	for stage, details := range prev {
		for _, d := range details {
			before[d.Key()] = stage
		}
	}

	movements := []Movement{}
	for stage, details := range curr {
		for _, d := range details {
			from, seen := before[d.Key()]
			if from == stage {
				continue
			}
			m := Movement{DealName: d.DealName, DealOwner: d.DealOwner, ToStage: stage}
			if seen {
				m.FromStage = &from
			}
			movements = append(movements, m)
		}
	}

	slices.SortFunc(movements, func(a, b Movement) int {
		if c := cmp.Compare(s.Order(a.ToStage), s.Order(b.ToStage)); c != 0 {
			return c
		}
		if c := cmp.Compare(a.DealName, b.DealName); c != 0 {
			return c
		}
		return cmp.Compare(a.DealOwner, b.DealOwner)
	})
	return movements
}
