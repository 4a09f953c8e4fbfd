package history

import (
	"testing"
	"time"

	"dealflow/internal/schema"
	"dealflow/internal/source"
)

func header(stage string) string {
	return `Date entered "` + stage + ` (Direct Sales)"`
}

func columns(t *testing.T) *schema.ColumnMap {
	t.Helper()
	s, err := schema.Lookup(schema.DirectSales)
	if err != nil {
		t.Fatal(err)
	}
	var headers []string
	for _, st := range s.Stages {
		headers = append(headers, header(st.Column))
	}
	cm, err := schema.Resolve(s, headers)
	if err != nil {
		t.Fatal(err)
	}
	return cm
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBuild_Basic(t *testing.T) {
	rows := []source.Row{
		{
			"Deal Name":                  "Acme",
			"Deal owner":                 "Jane",
			"Amount in company currency": "$12,500.50",
			header("1 - Target"):         "2024-01-10",
			header("2 - Qualified"):      "2024-03-05",
			header("3 - Proposal"):       "garbage",
		},
		{"Deal Name": "", header("1 - Target"): "2024-01-01"},
		{"Deal Name": "Ghost", "Deal owner": "Raj"},
	}

	deals := Build(rows, columns(t), DefaultFields())
	if len(deals) != 2 {
		t.Fatalf("Expected 2 deals (nameless row skipped), got %d", len(deals))
	}

	acme := deals[0]
	if acme.Key != "Acme|Jane" {
		t.Errorf("Expected key Acme|Jane, got %s", acme.Key)
	}
	if len(acme.Events) != 2 {
		t.Fatalf("Expected 2 events (unparseable cell skipped), got %d", len(acme.Events))
	}
	if !acme.Entry.Equal(day(2024, 1, 10)) || acme.EntryMonth != "2024-01" {
		t.Errorf("Expected entry 2024-01-10 / 2024-01, got %v / %s", acme.Entry, acme.EntryMonth)
	}
	if acme.Amount != 12500.50 {
		t.Errorf("Expected amount 12500.50, got %v", acme.Amount)
	}
	if acme.Converted() {
		t.Error("Expected Acme not converted")
	}

	ghost := deals[1]
	if ghost.HasEvents() || !ghost.Entry.IsZero() || ghost.EntryMonth != "" {
		t.Errorf("Expected Ghost without events, got %+v", ghost)
	}
}

func TestStageAt_Monotonicity(t *testing.T) {
	// Stage order deliberately disagrees with chronology.
	rows := []source.Row{{
		"Deal Name":             "Acme",
		header("5 - Negotiate"): "2024-01-10",
		header("2 - Qualified"): "2024-02-10",
		header("10 - Live"):     "2024-03-10",
	}}
	d := Build(rows, columns(t), DefaultFields())[0]

	tests := []struct {
		cutoff time.Time
		want   string
	}{
		{day(2024, 1, 9), ""},
		{day(2024, 1, 10), "5 - Negotiate"},
		{day(2024, 2, 9), "5 - Negotiate"},
		{day(2024, 2, 10), "2 - Qualified"},
		{day(2024, 3, 9), "2 - Qualified"},
		{day(2024, 3, 10), "10 - Live"},
		{day(2030, 1, 1), "10 - Live"},
	}
	for _, tt := range tests {
		ev, ok := d.StageAt(tt.cutoff)
		if tt.want == "" {
			if ok {
				t.Errorf("At %v expected no stage, got %s", tt.cutoff, ev.Stage)
			}
			continue
		}
		if !ok || ev.Stage != tt.want {
			t.Errorf("At %v expected %s, got %s", tt.cutoff, tt.want, ev.Stage)
		}
	}
}

func TestStageAt_TieBreaksToHighestOrder(t *testing.T) {
	rows := []source.Row{{
		"Deal Name":             "Acme",
		header("3 - Proposal"):  "2024-01-10",
		header("1 - Target"):    "2024-01-10",
		header("2 - Qualified"): "2024-01-10",
	}}
	d := Build(rows, columns(t), DefaultFields())[0]

	ev, ok := d.StageAt(day(2024, 1, 31))
	if !ok || ev.Stage != "3 - Proposal" {
		t.Errorf("Expected 3 - Proposal to win the tie, got %s", ev.Stage)
	}
}

func TestBuild_MergesRowsSharingKey(t *testing.T) {
	rows := []source.Row{
		{"Deal Name": "Acme", "Deal owner": "Jane", "Amount in company currency": "100", header("1 - Target"): "2024-02-01"},
		{"Deal Name": "Acme", "Deal owner": "Jane", "Amount in company currency": "999", header("1 - Target"): "2024-01-01", header("10 - Live"): "2024-04-10"},
		{"Deal Name": "Acme", "Deal owner": "Raj", header("1 - Target"): "2024-01-01"},
	}
	deals := Build(rows, columns(t), DefaultFields())
	if len(deals) != 2 {
		t.Fatalf("Expected 2 deals, got %d", len(deals))
	}
	d := deals[0]
	if d.Amount != 100 {
		t.Errorf("Expected amount of first row, got %v", d.Amount)
	}
	if len(d.Events) != 3 {
		t.Errorf("Expected union of 3 events, got %d", len(d.Events))
	}
	if !d.Entry.Equal(day(2024, 1, 1)) {
		t.Errorf("Expected entry 2024-01-01, got %v", d.Entry)
	}
	if !d.Converted() || d.SuccessMonth() != "2024-04" {
		t.Errorf("Expected conversion in 2024-04, got %s", d.SuccessMonth())
	}
}

func TestParseNumber(t *testing.T) {
	tests := map[string]float64{
		"":         0,
		"1500":     1500,
		"1,500.25": 1500.25,
		"$2,000":   2000,
		"n/a":      0,
		" 42 ":     42,
		"NaN":      0,
	}
	for in, want := range tests {
		if got := ParseNumber(in); got != want {
			t.Errorf("ParseNumber(%q): expected %v, got %v", in, want, got)
		}
	}
}
