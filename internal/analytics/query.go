package analytics

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"dealflow/internal/dates"
	"dealflow/internal/history"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidQuery is returned for query parameters that cannot be evaluated.
var ErrInvalidQuery = errors.New("invalid query")

// Metric selects what the snapshot series sums.
type Metric string

const (
	MetricCount     Metric = "count"
	MetricAmount    Metric = "amount"
	MetricSecondary Metric = "secondary"
)

// DealFilter restricts duration statistics by outcome.
type DealFilter string

const (
	DealsAll          DealFilter = "all"
	DealsConverted    DealFilter = "converted"
	DealsNotConverted DealFilter = "not-converted"
)

// Query carries every selection a view accepts. The zero value selects all
// deals, all active stages, the count metric and the latest month.
type Query struct {
	Owners     []string   `json:"owners,omitempty"`
	DealNames  []string   `json:"dealNames,omitempty"`
	Stages     []string   `json:"stages,omitempty"`
	EntryStart time.Time  `json:"entryStart,omitzero"`
	EntryEnd   time.Time  `json:"entryEnd,omitzero"`
	Metric     Metric     `json:"metric,omitempty" validate:"omitempty,oneof=count amount secondary"`
	DealFilter DealFilter `json:"dealFilter,omitempty" validate:"omitempty,oneof=all converted not-converted"`
	Month      string     `json:"month,omitempty" validate:"omitempty,datetime=2006-01"`
}

var (
	queryValidator     *validator.Validate
	queryValidatorOnce sync.Once
)

func validate() *validator.Validate {
	queryValidatorOnce.Do(func() {
		queryValidator = validator.New()
		queryValidator.RegisterStructValidation(func(sl validator.StructLevel) {
			q := sl.Current().Interface().(Query)
			if !q.EntryStart.IsZero() && !q.EntryEnd.IsZero() && q.EntryEnd.Before(q.EntryStart) {
				sl.ReportError(q.EntryEnd, "EntryEnd", "entryEnd", "gtefield", "EntryStart")
			}
		}, Query{})
	})
	return queryValidator
}

// Validate checks enum fields, the month label and the entry range order.
func (q Query) Validate() error {
	err := validate().Struct(q)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		switch fe.Tag() {
		case "oneof":
			return fmt.Errorf("%w: %s must be one of [%s], got %q", ErrInvalidQuery, strings.ToLower(fe.Field()), fe.Param(), fe.Value())
		case "datetime":
			return fmt.Errorf("%w: month must be formatted YYYY-MM, got %q", ErrInvalidQuery, fe.Value())
		case "gtefield":
			return fmt.Errorf("%w: entry range ends before it starts", ErrInvalidQuery)
		}
		return fmt.Errorf("%w: invalid %s", ErrInvalidQuery, strings.ToLower(fe.Field()))
	}
	return fmt.Errorf("%w: %v", ErrInvalidQuery, err)
}

// MetricOrDefault returns the selected metric, defaulting to count.
func (q Query) MetricOrDefault() Metric {
	if q.Metric == "" {
		return MetricCount
	}
	return q.Metric
}

// DealFilterOrDefault returns the selected duration filter, defaulting to all.
func (q Query) DealFilterOrDefault() DealFilter {
	if q.DealFilter == "" {
		return DealsAll
	}
	return q.DealFilter
}

// HasEntryRange reports whether either entry bound is set.
func (q Query) HasEntryRange() bool {
	return !q.EntryStart.IsZero() || !q.EntryEnd.IsZero()
}

// FiltersDeals reports whether the query narrows the deal population.
func (q Query) FiltersDeals() bool {
	return len(q.Owners) > 0 || len(q.DealNames) > 0 || q.HasEntryRange()
}

// Matches is the deal filter every view applies before aggregating.
// The entry range is inclusive of the whole end day.
func (q Query) Matches(d *history.Deal) bool {
	if len(q.Owners) > 0 && !slices.Contains(q.Owners, d.Owner) {
		return false
	}
	if len(q.DealNames) > 0 && !slices.Contains(q.DealNames, d.Name) {
		return false
	}
	if q.HasEntryRange() {
		if d.Entry.IsZero() {
			return false
		}
		if !q.EntryStart.IsZero() && d.Entry.Before(q.EntryStart) {
			return false
		}
		if !q.EntryEnd.IsZero() && d.Entry.After(dates.DayEnd(q.EntryEnd)) {
			return false
		}
	}
	return true
}

// FilterDeals returns the deals matching q.
func FilterDeals(deals []*history.Deal, q Query) []*history.Deal {
	if !q.FiltersDeals() {
		return deals
	}
	out := make([]*history.Deal, 0, len(deals))
	for _, d := range deals {
		if q.Matches(d) {
			out = append(out, d)
		}
	}
	return out
}
