package schema

import (
	"errors"
	"testing"
)

func dsHeader(stage string) string {
	return `Date entered "` + stage + ` (Direct Sales)"`
}

func pmHeader(stage string) string {
	return `Date entered "` + stage + ` (Partner Management)"`
}

func TestResolve_DirectSales(t *testing.T) {
	headers := []string{"Deal Name", "Deal owner"}
	for _, st := range directSales.Stages {
		headers = append(headers, dsHeader(st.Column))
	}
	headers = append(headers, pmHeader("vi - Live"))

	cm, err := Resolve(directSales, headers)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(cm.Columns) != len(directSales.Stages) {
		t.Fatalf("Expected %d columns, got %d", len(directSales.Stages), len(cm.Columns))
	}
	for i, c := range cm.Columns {
		if c.Stage != directSales.Stages[i].Name {
			t.Errorf("Expected column %d to be %s, got %s", i, directSales.Stages[i].Name, c.Stage)
		}
	}

	// "1 - Target" must not bind to "11 - Closed Lost" and vice versa.
	if h, _ := cm.Header("1 - Target"); h != dsHeader("1 - Target") {
		t.Errorf("Expected 1 - Target header, got %q", h)
	}
	if h, _ := cm.Header("11 - Closed Lost"); h != dsHeader("11 - Closed Lost") {
		t.Errorf("Expected 11 - Closed Lost header, got %q", h)
	}
}

func TestResolve_PartnerDisplayNames(t *testing.T) {
	headers := []string{pmHeader("ii - Qualified/ Proposal"), pmHeader("i - Identified or Unknown"), pmHeader("vi - Live"), pmHeader("vii - Closed Lost")}

	cm, err := Resolve(partnerManagement, headers)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	h, ok := cm.Header("ii - Qualified/Proposal")
	if !ok || h != headers[0] {
		t.Errorf("Expected display name to map to %q, got %q", headers[0], h)
	}
	if h, _ := cm.Header("vi - Live"); h != headers[2] {
		t.Errorf("Expected vi - Live to bind exactly, got %q", h)
	}
	if h, _ := cm.Header("i - Identified or Unknown"); h != headers[1] {
		t.Errorf("Expected i - Identified header, got %q", h)
	}
}

func TestResolve_EmptyVariant(t *testing.T) {
	cm, err := Resolve(partnerManagement, []string{"Deal Name", dsHeader("1 - Target"), dsHeader("10 - Live")})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !cm.Empty() {
		t.Errorf("Expected empty column map, got %d columns", len(cm.Columns))
	}
}

func TestResolve_MissingSuccessColumn(t *testing.T) {
	_, err := Resolve(directSales, []string{dsHeader("1 - Target"), dsHeader("2 - Qualified")})
	if !errors.Is(err, ErrSuccessColumnMissing) {
		t.Errorf("Expected ErrSuccessColumnMissing, got %v", err)
	}
}

func TestResolve_LooseHeaderFallback(t *testing.T) {
	headers := []string{`Date entered "1 - Target" (Direct Sales)`, `Date entered "10 - Live" (Direct Sales)`}
	cm, err := Resolve(directSales, headers)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(cm.Columns) != 2 {
		t.Errorf("Expected 2 columns, got %d", len(cm.Columns))
	}
}

func TestParseVariant(t *testing.T) {
	tests := map[string]Variant{
		"direct_sales":       DirectSales,
		"Direct Sales":       DirectSales,
		"ds":                 DirectSales,
		"PM":                 PartnerManagement,
		"partner management": PartnerManagement,
	}
	for in, want := range tests {
		got, err := ParseVariant(in)
		if err != nil || got != want {
			t.Errorf("ParseVariant(%q): expected %s, got %s (%v)", in, want, got, err)
		}
	}
	if _, err := ParseVariant("enterprise"); err == nil {
		t.Error("Expected error for unknown variant")
	}
}

func TestSchemaOrdering(t *testing.T) {
	active := directSales.ActiveStages()
	if len(active) != 10 {
		t.Fatalf("Expected 10 active stages, got %d", len(active))
	}
	if active[len(active)-1].Name != directSales.Success {
		t.Errorf("Expected last active stage to be %s, got %s", directSales.Success, active[len(active)-1].Name)
	}

	names := []string{"10 - Live", "unknown", "2 - Qualified"}
	directSales.SortStages(names)
	if names[0] != "2 - Qualified" || names[1] != "10 - Live" || names[2] != "unknown" {
		t.Errorf("Unexpected sort order: %v", names)
	}
}

func TestExportHeaderRoundTrip(t *testing.T) {
	for _, s := range All() {
		var headers []string
		for _, st := range s.Stages {
			headers = append(headers, s.ExportHeader(st))
		}
		cm, err := Resolve(s, headers)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", s.Label, err)
		}
		for _, st := range s.Stages {
			if h, _ := cm.Header(st.Name); h != s.ExportHeader(st) {
				t.Errorf("%s: expected %q for %s, got %q", s.Label, s.ExportHeader(st), st.Name, h)
			}
		}
	}
	if got := directSales.ExportHeader(directSales.Stages[0]); got != dsHeader("1 - Target") {
		t.Errorf("Expected %q, got %q", dsHeader("1 - Target"), got)
	}
}
