package analytics

import (
	"testing"
	"time"
)

func TestDaysBetween(t *testing.T) {
	a := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		b    time.Time
		days int
		ok   bool
	}{
		{"same day", a, 0, true},
		{"leap year span", time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC), 100, true},
		{"half day rounds up", a.Add(36 * time.Hour), 2, true},
		{"negative excluded", a.AddDate(0, 0, -3), 0, false},
		{"zero time", time.Time{}, 0, false},
		{"beyond duration range", time.Date(2400, 1, 1, 0, 0, 0, 0, time.UTC), 137331, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days, ok := DaysBetween(a, tt.b)
			if days != tt.days || ok != tt.ok {
				t.Errorf("Expected (%d, %v), got (%d, %v)", tt.days, tt.ok, days, ok)
			}
		})
	}
}

func TestCalculateSalesCycle_Scenario(t *testing.T) {
	deals := buildDeals(t,
		dealRow("Acme", "Jane", map[string]string{"1 - Target": "2024-01-01", "10 - Live": "2024-04-10"}),
		dealRow("Open", "Jane", map[string]string{"1 - Target": "2024-01-01"}),
	)

	sc := CalculateSalesCycle(deals)
	if sc.Overall == nil {
		t.Fatal("Expected overall statistics")
	}
	want := Summary{Count: 1, AvgDays: 100, MedianDays: 100, MinDays: 100, MaxDays: 100}
	if *sc.Overall != want {
		t.Errorf("Expected %+v, got %+v", want, *sc.Overall)
	}
	if len(sc.Cohorts) != 1 || sc.Cohorts[0].Month != "2024-01" || sc.Cohorts[0].Count != 1 {
		t.Errorf("Unexpected cohorts %+v", sc.Cohorts)
	}
	if sc.Deals[0].EntryDate != "2024-01-01" || sc.Deals[0].ExitDate != "2024-04-10" {
		t.Errorf("Unexpected deal record %+v", sc.Deals[0])
	}
}

func TestCalculateSalesCycle_Empty(t *testing.T) {
	sc := CalculateSalesCycle(nil)
	if sc.Overall != nil || len(sc.Cohorts) != 0 {
		t.Errorf("Expected empty sales cycle, got %+v", sc)
	}
}

func TestCalculateTimeInStage(t *testing.T) {
	s := directSales(t)
	deals := buildDeals(t,
		dealRow("A", "Jane", map[string]string{"1 - Target": "2024-01-01", "2 - Qualified": "2024-01-11", "10 - Live": "2024-02-10"}),
		dealRow("B", "Jane", map[string]string{"1 - Target": "2024-02-01", "2 - Qualified": "2024-02-21"}),
		// Out of schema order: Qualified happens first.
		dealRow("C", "Raj", map[string]string{"2 - Qualified": "2024-01-01", "1 - Target": "2024-01-05"}),
		dealRow("Single", "Raj", map[string]string{"1 - Target": "2024-01-01"}),
	)

	tis := CalculateTimeInStage(deals, s, DealsAll)
	if len(tis.Stages) != 2 {
		t.Fatalf("Expected 2 stages with intervals, got %d", len(tis.Stages))
	}

	target := tis.Stages[0]
	if target.Stage != "1 - Target" || target.Count != 2 || target.AvgDays != 15 || target.MedianDays != 15 {
		t.Errorf("Unexpected target stats %+v", target.Summary)
	}
	qualified := tis.Stages[1]
	if qualified.Stage != "2 - Qualified" || qualified.Count != 2 || qualified.MinDays != 4 || qualified.MaxDays != 30 {
		t.Errorf("Unexpected qualified stats %+v", qualified.Summary)
	}
	for _, st := range tis.Stages {
		for _, d := range st.Deals {
			if d.Days < 0 {
				t.Errorf("Negative duration for %s in %s", d.DealName, st.Stage)
			}
		}
	}

	if len(tis.Cohorts) != 2 || tis.Cohorts[0].Month != "2024-01" || tis.Cohorts[1].Month != "2024-02" {
		t.Fatalf("Unexpected cohorts %+v", tis.Cohorts)
	}
	if len(tis.Cohorts[0].Deals) != 2 {
		t.Errorf("Expected A and C in January cohort, got %d", len(tis.Cohorts[0].Deals))
	}

	converted := CalculateTimeInStage(deals, s, DealsConverted)
	if len(converted.Stages) != 2 || converted.Stages[0].Count != 1 || converted.Stages[1].Count != 1 {
		t.Errorf("Expected only A's intervals, got %+v", converted.Stages)
	}

	notConverted := CalculateTimeInStage(deals, s, DealsNotConverted)
	if notConverted.Stages[0].Count != 1 || notConverted.Stages[1].Count != 1 {
		t.Errorf("Expected B and C intervals, got %+v", notConverted.Stages)
	}
}

func TestCalculateTimeInStage_InactiveEndpoint(t *testing.T) {
	s := directSales(t)
	deals := buildDeals(t,
		dealRow("Lost", "Raj", map[string]string{"1 - Target": "2024-01-01", "11 - Closed Lost": "2024-01-31"}),
	)

	tis := CalculateTimeInStage(deals, s, DealsAll)
	if len(tis.Stages) != 1 {
		t.Fatalf("Expected only the stage left for Closed Lost, got %+v", tis.Stages)
	}
	target := tis.Stages[0]
	if target.Stage != "1 - Target" || target.Count != 1 || target.AvgDays != 30 {
		t.Errorf("Expected 1 - Target {Count:1 AvgDays:30}, got %s %+v", target.Stage, target.Summary)
	}
	if len(tis.Cohorts) != 1 || tis.Cohorts[0].Deals[0].DaysInStage["1 - Target"] != 30 {
		t.Errorf("Unexpected cohorts %+v", tis.Cohorts)
	}
}
