package analytics

import (
	"dealflow/internal/history"
	"dealflow/internal/schema"
)

// finalStepLabel names the step after the last active stage.
const finalStepLabel = "Live"

// FunnelStage is the conversion of one active stage.
type FunnelStage struct {
	Stage             string  `json:"stage"`
	DealsInStage      int     `json:"dealsInStage"`
	DealsToNextStage  int     `json:"dealsToNextStage"`
	NextStage         string  `json:"nextStage"`
	StageConversion   float64 `json:"stageConversion"`
	OverallConversion float64 `json:"overallConversion"`
}

// Funnel summarizes conversion over the whole event history of each deal.
type Funnel struct {
	TotalDeals        int           `json:"totalDeals"`
	ConvertedDeals    int           `json:"convertedDeals"`
	OverallConversion float64       `json:"overallConversion"`
	Stages            []FunnelStage `json:"stages"`
}

// CalculateFunnel counts, per active stage, the deals that ever entered it and
// how many of those entered the next stage and the success stage. Deals
// without any event are not part of the population.
func CalculateFunnel(deals []*history.Deal, s *schema.Schema) Funnel {
	f := Funnel{Stages: []FunnelStage{}}

	var population []*history.Deal
	for _, d := range deals {
		if d.HasEvents() {
			population = append(population, d)
		}
	}
	if len(population) == 0 {
		return f
	}

	for _, d := range population {
		if d.Converted() {
			f.ConvertedDeals++
		}
	}
	f.TotalDeals = len(population)
	f.OverallConversion = percent(f.ConvertedDeals, f.TotalDeals)

	active := s.ActiveStages()
	for i, st := range active {
		row := FunnelStage{Stage: st.Name, NextStage: finalStepLabel}
		last := i == len(active)-1
		if !last {
			row.NextStage = active[i+1].Name
		}

		converted := 0
		for _, d := range population {
			if !d.Entered(st.Name) {
				continue
			}
			row.DealsInStage++
			if d.Converted() {
				converted++
			}
			if last {
				if d.Converted() {
					row.DealsToNextStage++
				}
			} else if d.Entered(row.NextStage) {
				row.DealsToNextStage++
			}
		}

		row.StageConversion = percent(row.DealsToNextStage, row.DealsInStage)
		row.OverallConversion = percent(converted, row.DealsInStage)
		f.Stages = append(f.Stages, row)
	}
	return f
}
