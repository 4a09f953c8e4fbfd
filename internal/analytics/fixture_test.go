package analytics

import (
	"testing"
	"time"

	"dealflow/internal/history"
	"dealflow/internal/schema"
	"dealflow/internal/source"
)

func dsHeader(stage string) string {
	return `Date entered "` + stage + ` (Direct Sales)"`
}

func pmHeader(stage string) string {
	return `Date entered "` + stage + ` (Partner Management)"`
}

func directSales(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.Lookup(schema.DirectSales)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// dealRow builds a Direct Sales export row from stage -> date pairs.
func dealRow(name, owner string, stages map[string]string) source.Row {
	row := source.Row{"Deal Name": name, "Deal owner": owner}
	for stage, date := range stages {
		row[dsHeader(stage)] = date
	}
	return row
}

// exportTable carries every Direct Sales and Partner Management stage column.
func exportTable(rows ...source.Row) *source.Table {
	headers := []string{"Deal Name", "Deal owner", "Amount in company currency", "Expected usage (txns p.m.)"}
	for _, s := range schema.All() {
		for _, st := range s.Stages {
			if s.Variant == schema.DirectSales {
				headers = append(headers, dsHeader(st.Column))
			} else {
				headers = append(headers, pmHeader(st.Column))
			}
		}
	}
	return &source.Table{Headers: headers, Rows: rows}
}

func buildDeals(t *testing.T, rows ...source.Row) []*history.Deal {
	t.Helper()
	cols, err := schema.Resolve(directSales(t), exportTable().Headers)
	if err != nil {
		t.Fatal(err)
	}
	return history.Build(rows, cols, history.DefaultFields())
}

func monthsOf(labels ...string) []Month {
	months := make([]Month, 0, len(labels))
	for _, l := range labels {
		start, err := time.Parse("2006-01", l)
		if err != nil {
			panic(err)
		}
		w := NewMonthWindow(start, start)
		months = append(months, w.Subdivide()...)
	}
	return months
}
