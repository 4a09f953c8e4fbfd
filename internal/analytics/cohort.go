package analytics

import (
	"cmp"
	"slices"

	"dealflow/internal/dates"
	"dealflow/internal/history"
)

// CohortDeal is one member of an entry-month cohort.
type CohortDeal struct {
	DealName  string `json:"dealName"`
	DealOwner string `json:"dealOwner"`
	EntryDate string `json:"entryDate"`
	LiveDate  string `json:"liveDate,omitempty"`
	Converted bool   `json:"converted"`
}

// Cohort groups deals by the month of their earliest event.
type Cohort struct {
	Month          string       `json:"month"`
	TotalDeals     int          `json:"totalDeals"`
	ConvertedDeals int          `json:"convertedDeals"`
	ConversionRate float64      `json:"conversionRate"`
	Deals          []CohortDeal `json:"deals"`
}

// GroupCohorts partitions every deal with at least one event by entry month.
func GroupCohorts(deals []*history.Deal) []Cohort {
	byMonth := make(map[string]*Cohort)
	for _, d := range deals {
		if !d.HasEvents() {
			continue
		}
		c, ok := byMonth[d.EntryMonth]
		if !ok {
			c = &Cohort{Month: d.EntryMonth}
			byMonth[d.EntryMonth] = c
		}
		c.TotalDeals++
		if d.Converted() {
			c.ConvertedDeals++
		}
		c.Deals = append(c.Deals, CohortDeal{
			DealName:  d.Name,
			DealOwner: d.Owner,
			EntryDate: dates.DayLabel(d.Entry),
			LiveDate:  dates.DayLabel(d.Success),
			Converted: d.Converted(),
		})
	}

	cohorts := make([]Cohort, 0, len(byMonth))
	for _, c := range byMonth {
		c.ConversionRate = percent(c.ConvertedDeals, c.TotalDeals)
		slices.SortStableFunc(c.Deals, func(a, b CohortDeal) int {
			if n := cmp.Compare(a.DealName, b.DealName); n != 0 {
				return n
			}
			return cmp.Compare(a.DealOwner, b.DealOwner)
		})
		cohorts = append(cohorts, *c)
	}
	slices.SortFunc(cohorts, func(a, b Cohort) int { return cmp.Compare(a.Month, b.Month) })
	return cohorts
}

// TrendPoint is the conversion state as of the end of one month.
type TrendPoint struct {
	Month          string  `json:"month"`
	DealsEntered   int     `json:"dealsEntered"`
	DealsConverted int     `json:"dealsConverted"`
	ConversionRate float64 `json:"conversionRate"`
	DealsWentLive  int     `json:"dealsWentLive"`
}

// ConversionTrend reports, per month, cumulative entered and converted deals
// alongside the number of deals whose conversion fell in that month alone.
func ConversionTrend(deals []*history.Deal, months []string) []TrendPoint {
	points := make([]TrendPoint, 0, len(months))
	for _, m := range months {
		p := TrendPoint{Month: m}
		for _, d := range deals {
			if !d.HasEvents() || d.EntryMonth > m {
				continue
			}
			p.DealsEntered++
			convertedMonth := d.SuccessMonth()
			if convertedMonth == "" {
				continue
			}
			if convertedMonth <= m {
				p.DealsConverted++
			}
			if convertedMonth == m {
				p.DealsWentLive++
			}
		}
		p.ConversionRate = percent(p.DealsConverted, p.DealsEntered)
		points = append(points, p)
	}
	return points
}
