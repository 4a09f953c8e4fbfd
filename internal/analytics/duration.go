package analytics

import (
	"cmp"
	"slices"
	"time"

	"dealflow/internal/dates"
	"dealflow/internal/history"
	"dealflow/internal/schema"
)

// DaysBetween rounds b-a to whole days. It reports false when b precedes a.
// Seconds are compared directly since time.Duration saturates near 292 years.
func DaysBetween(a, b time.Time) (int, bool) {
	if a.IsZero() || b.IsZero() {
		return 0, false
	}
	secs := float64(b.Unix()-a.Unix()) + float64(b.Nanosecond()-a.Nanosecond())/1e9
	days := roundInt(secs / 86400)
	if days < 0 {
		return 0, false
	}
	return days, true
}

// Summary aggregates a list of day counts.
type Summary struct {
	Count      int `json:"count"`
	AvgDays    int `json:"avgDays"`
	MedianDays int `json:"medianDays"`
	MinDays    int `json:"minDays"`
	MaxDays    int `json:"maxDays"`
}

// Summarize returns nil for an empty list.
func Summarize(days []int) *Summary {
	if len(days) == 0 {
		return nil
	}
	sum := 0
	for _, d := range days {
		sum += d
	}
	return &Summary{
		Count:      len(days),
		AvgDays:    roundInt(float64(sum) / float64(len(days))),
		MedianDays: roundInt(CalculateMedianDiscrete(days)),
		MinDays:    slices.Min(days),
		MaxDays:    slices.Max(days),
	}
}

// DealDuration is one measured interval of one deal.
type DealDuration struct {
	DealName  string `json:"dealName"`
	DealOwner string `json:"dealOwner"`
	EntryDate string `json:"entryDate"`
	ExitDate  string `json:"exitDate"`
	Days      int    `json:"days"`
}

func durationDays(list []DealDuration) []int {
	days := make([]int, len(list))
	for i, d := range list {
		days[i] = d.Days
	}
	return days
}

// CycleCohort is the sales-cycle distribution of one entry month.
type CycleCohort struct {
	Month string `json:"month"`
	Summary
	Deals []DealDuration `json:"deals"`
}

// SalesCycle measures entry to success for every converted deal.
type SalesCycle struct {
	Overall *Summary       `json:"overall"`
	Cohorts []CycleCohort  `json:"cohorts"`
	Deals   []DealDuration `json:"deals"`
}

// CalculateSalesCycle only includes deals with both an entry and a success
// event and a non-negative interval.
func CalculateSalesCycle(deals []*history.Deal) SalesCycle {
	sc := SalesCycle{Cohorts: []CycleCohort{}, Deals: []DealDuration{}}
	byMonth := make(map[string][]DealDuration)

	for _, d := range deals {
		if !d.HasEvents() || !d.Converted() {
			continue
		}
		days, ok := DaysBetween(d.Entry, d.Success)
		if !ok {
			continue
		}
		dd := DealDuration{
			DealName:  d.Name,
			DealOwner: d.Owner,
			EntryDate: dates.DayLabel(d.Entry),
			ExitDate:  dates.DayLabel(d.Success),
			Days:      days,
		}
		sc.Deals = append(sc.Deals, dd)
		byMonth[d.EntryMonth] = append(byMonth[d.EntryMonth], dd)
	}

	sc.Overall = Summarize(durationDays(sc.Deals))
	for month, list := range byMonth {
		sc.Cohorts = append(sc.Cohorts, CycleCohort{Month: month, Summary: *Summarize(durationDays(list)), Deals: list})
	}
	slices.SortFunc(sc.Cohorts, func(a, b CycleCohort) int { return cmp.Compare(a.Month, b.Month) })
	return sc
}

// StageDuration is the time-in-stage distribution of one stage.
type StageDuration struct {
	Stage string `json:"stage"`
	Summary
	Deals []DealDuration `json:"deals,omitempty"`
}

// CohortDealStages lists the days one deal spent per stage.
type CohortDealStages struct {
	DealName    string         `json:"dealName"`
	DealOwner   string         `json:"dealOwner"`
	DaysInStage map[string]int `json:"daysInStage"`
}

// StageCohort is the stage x entry month breakdown for one month.
type StageCohort struct {
	Month  string             `json:"month"`
	Stages []StageDuration    `json:"stageStats"`
	Deals  []CohortDealStages `json:"deals"`
}

// TimeInStage is the duration between consecutive stage events.
type TimeInStage struct {
	Stages  []StageDuration `json:"stages"`
	Cohorts []StageCohort   `json:"cohorts"`
}

// CalculateTimeInStage attributes the gap between each pair of consecutive
// events to the stage of the earlier one. Deals with fewer than two events
// contribute nothing. Only stages with at least one interval are reported.
func CalculateTimeInStage(deals []*history.Deal, s *schema.Schema, filter DealFilter) TimeInStage {
	overall := make(map[string][]DealDuration)
	cohortStages := make(map[string]map[string][]DealDuration)
	cohortDeals := make(map[string][]CohortDealStages)

	for _, d := range deals {
		switch filter {
		case DealsConverted:
			if !d.Converted() {
				continue
			}
		case DealsNotConverted:
			if d.Converted() {
				continue
			}
		}
		if len(d.Events) < 2 {
			continue
		}

		perStage := make(map[string]int)
		for i := 0; i < len(d.Events)-1; i++ {
			from, to := d.Events[i], d.Events[i+1]
			days, ok := DaysBetween(from.At, to.At)
			if !ok {
				continue
			}
			dd := DealDuration{
				DealName:  d.Name,
				DealOwner: d.Owner,
				EntryDate: dates.DayLabel(from.At),
				ExitDate:  dates.DayLabel(to.At),
				Days:      days,
			}
			overall[from.Stage] = append(overall[from.Stage], dd)
			if cohortStages[d.EntryMonth] == nil {
				cohortStages[d.EntryMonth] = make(map[string][]DealDuration)
			}
			cohortStages[d.EntryMonth][from.Stage] = append(cohortStages[d.EntryMonth][from.Stage], dd)
			perStage[from.Stage] = days
		}
		cohortDeals[d.EntryMonth] = append(cohortDeals[d.EntryMonth], CohortDealStages{
			DealName:    d.Name,
			DealOwner:   d.Owner,
			DaysInStage: perStage,
		})
	}

	tis := TimeInStage{
		Stages:  stageDurations(overall, s, true),
		Cohorts: []StageCohort{},
	}
	for month, byStage := range cohortStages {
		tis.Cohorts = append(tis.Cohorts, StageCohort{
			Month:  month,
			Stages: stageDurations(byStage, s, false),
			Deals:  cohortDeals[month],
		})
	}
	slices.SortFunc(tis.Cohorts, func(a, b StageCohort) int { return cmp.Compare(a.Month, b.Month) })
	return tis
}

func stageDurations(byStage map[string][]DealDuration, s *schema.Schema, withDeals bool) []StageDuration {
	out := []StageDuration{}
	for _, st := range s.Stages {
		list := byStage[st.Name]
		if len(list) == 0 {
			continue
		}
		sd := StageDuration{Stage: st.Name, Summary: *Summarize(durationDays(list))}
		if withDeals {
			sd.Deals = list
		}
		out = append(out, sd)
	}
	return out
}
