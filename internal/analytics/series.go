package analytics

import (
	"time"

	"dealflow/internal/dates"
	"dealflow/internal/history"
)

// Month is one point of the month-end snapshot series.
type Month struct {
	Label string    `json:"label"`
	Start time.Time `json:"start"`
	// End is the snapshot cutoff: the last nanosecond of the month.
	End time.Time `json:"end"`
}

// MonthWindow spans whole calendar months from Start to End inclusive.
type MonthWindow struct {
	Start time.Time
	End   time.Time
}

// NewMonthWindow snaps start and end to the boundaries of their months.
func NewMonthWindow(start, end time.Time) MonthWindow {
	return MonthWindow{
		Start: dates.MonthStart(start),
		End:   dates.MonthEnd(end),
	}
}

// Subdivide returns one Month per calendar month in the window.
func (w MonthWindow) Subdivide() []Month {
	var months []Month
	if w.Start.IsZero() || w.End.Before(w.Start) {
		return months
	}
	for current := w.Start; current.Before(w.End); current = current.AddDate(0, 1, 0) {
		months = append(months, Month{
			Label: dates.MonthLabel(current),
			Start: current,
			End:   dates.MonthEnd(current),
		})
	}
	return months
}

// BuildMonths spans the earliest to the latest event across every deal set.
func BuildMonths(dealSets ...[]*history.Deal) []Month {
	var minTs, maxTs time.Time
	for _, deals := range dealSets {
		for _, d := range deals {
			if !d.HasEvents() {
				continue
			}
			first, last := d.Events[0].At, d.Events[len(d.Events)-1].At
			if minTs.IsZero() || first.Before(minTs) {
				minTs = first
			}
			if maxTs.IsZero() || last.After(maxTs) {
				maxTs = last
			}
		}
	}
	if minTs.IsZero() {
		return nil
	}
	return NewMonthWindow(minTs, maxTs).Subdivide()
}

// LastMonths keeps the trailing n months of the series. n <= 0 keeps all.
// The month before the window, if any, is returned as lead so month-over-month
// views can compare against it.
func LastMonths(months []Month, n int) (window []Month, lead *Month) {
	if n <= 0 || n >= len(months) {
		return months, nil
	}
	cut := len(months) - n
	return months[cut:], &months[cut-1]
}

// MonthLabels returns the labels of months in order.
func MonthLabels(months []Month) []string {
	labels := make([]string, len(months))
	for i, m := range months {
		labels[i] = m.Label
	}
	return labels
}
