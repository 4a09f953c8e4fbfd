package analytics

import (
	"cmp"
	"slices"

	"dealflow/internal/dates"
	"dealflow/internal/history"
	"dealflow/internal/schema"
)

// DealDetail is one deal occupying a stage at a month-end.
type DealDetail struct {
	DealName            string  `json:"dealName"`
	DealStage           string  `json:"dealStage"`
	DealOwner           string  `json:"dealOwner"`
	DateEnteredStage    string  `json:"dateEnteredStage"`
	Amount              float64 `json:"amount"`
	MonthlyTransactions float64 `json:"monthlyTransactions"`
}

// Key identifies the deal behind a detail record.
func (d DealDetail) Key() string {
	return history.Key(d.DealName, d.DealOwner)
}

// Snapshot maps month label to active stage to the deals occupying it.
type Snapshot map[string]map[string][]DealDetail

// BuildSnapshot places every deal with at least one event into the stage it
// occupies at each month-end. Deals sitting in an inactive stage are left
// out of that month entirely.
func BuildSnapshot(deals []*history.Deal, months []Month, s *schema.Schema) Snapshot {
	snap := make(Snapshot, len(months))
	active := s.ActiveStages()
	for _, m := range months {
		buckets := make(map[string][]DealDetail, len(active))
		for _, st := range active {
			buckets[st.Name] = []DealDetail{}
		}
		snap[m.Label] = buckets
	}

	for _, d := range deals {
		if !d.HasEvents() {
			continue
		}
		for _, m := range months {
			ev, ok := d.StageAt(m.End)
			if !ok || s.IsInactive(ev.Stage) {
				continue
			}
			snap[m.Label][ev.Stage] = append(snap[m.Label][ev.Stage], DealDetail{
				DealName:            d.Name,
				DealStage:           ev.Stage,
				DealOwner:           d.Owner,
				DateEnteredStage:    dates.DayLabel(ev.At),
				Amount:              d.Amount,
				MonthlyTransactions: d.Metric,
			})
		}
	}
	return snap
}

// Value sums a bucket under the selected metric.
func Value(details []DealDetail, metric Metric) float64 {
	switch metric {
	case MetricAmount:
		total := 0.0
		for _, d := range details {
			total += d.Amount
		}
		return total
	case MetricSecondary:
		total := 0.0
		for _, d := range details {
			total += d.MonthlyTransactions
		}
		return total
	default:
		return float64(len(details))
	}
}

// SeriesPoint is the per-stage value of one month.
type SeriesPoint struct {
	Month  string             `json:"month"`
	Values map[string]float64 `json:"values"`
	Total  float64            `json:"total"`
	// TopStage is the highest-order visible stage with a value above zero,
	// or the last visible stage when every value is zero.
	TopStage string `json:"topStage"`
}

// BuildSeries derives the chart series over the visible stages.
func BuildSeries(snap Snapshot, months []Month, visible []string, metric Metric) []SeriesPoint {
	points := make([]SeriesPoint, 0, len(months))
	for _, m := range months {
		p := SeriesPoint{Month: m.Label, Values: make(map[string]float64, len(visible))}
		if len(visible) > 0 {
			p.TopStage = visible[len(visible)-1]
		}
		topSet := false
		for i := len(visible) - 1; i >= 0; i-- {
			stage := visible[i]
			v := Value(snap[m.Label][stage], metric)
			p.Values[stage] = v
			p.Total += v
			if v > 0 && !topSet {
				p.TopStage = stage
				topSet = true
			}
		}
		points = append(points, p)
	}
	return points
}

// MonthDetails flattens one month of a snapshot, ordered by stage and then
// by amount descending.
func MonthDetails(snap Snapshot, month string, visible []string, s *schema.Schema) []DealDetail {
	var out []DealDetail
	for _, stage := range visible {
		out = append(out, snap[month][stage]...)
	}
	slices.SortStableFunc(out, func(a, b DealDetail) int {
		if c := cmp.Compare(s.Order(a.DealStage), s.Order(b.DealStage)); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Amount, a.Amount); c != 0 {
			return c
		}
		return cmp.Compare(a.DealName, b.DealName)
	})
	return out
}
