package analytics

import (
	"encoding/json"
	"fmt"
	"io"

	"dealflow/internal/schema"
)

// StageSeries is the count series of one stage across the month labels.
type StageSeries struct {
	Stage string    `json:"stage"`
	Month []string  `json:"month"`
	Count []float64 `json:"count"`
}

// ExportDocument is the dashboard data file consumed by the presentation layer.
type ExportDocument struct {
	ChartDataDS   []StageSeries `json:"chartDataDS"`
	ChartDataPM   []StageSeries `json:"chartDataPM"`
	MonthLabels   []string      `json:"monthLabels"`
	DealDetailsDS Snapshot      `json:"dealDetailsDS"`
	DealDetailsPM Snapshot      `json:"dealDetailsPM"`
}

// Export builds the unfiltered dashboard document.
func (r *Result) Export() (ExportDocument, error) {
	doc := ExportDocument{MonthLabels: r.MonthLabels}
	if doc.MonthLabels == nil {
		doc.MonthLabels = []string{}
	}

	for _, v := range []schema.Variant{schema.DirectSales, schema.PartnerManagement} {
		p, err := r.Pipeline(v)
		if err != nil {
			return doc, err
		}
		chart := chartData(p)
		switch v {
		case schema.DirectSales:
			doc.ChartDataDS, doc.DealDetailsDS = chart, p.withoutLead(p.snapshot)
		case schema.PartnerManagement:
			doc.ChartDataPM, doc.DealDetailsPM = chart, p.withoutLead(p.snapshot)
		}
	}
	return doc, nil
}

func chartData(p *Pipeline) []StageSeries {
	labels := MonthLabels(p.months)
	points := BuildSeries(p.snapshot, p.months, p.visibleStages(Query{}), MetricCount)

	out := []StageSeries{}
	for _, st := range p.visibleStages(Query{}) {
		series := StageSeries{Stage: st, Month: labels, Count: make([]float64, len(points))}
		for i, pt := range points {
			series.Count[i] = pt.Values[st]
		}
		out = append(out, series)
	}
	return out
}

// WriteExport encodes the dashboard document as indented JSON.
func WriteExport(w io.Writer, doc ExportDocument) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return nil
}
