package analytics

import "testing"

func TestLastMonths(t *testing.T) {
	months := monthsOf("2024-01", "2024-02", "2024-03", "2024-04")
	tests := []struct {
		name   string
		n      int
		first  string
		length int
		lead   string
	}{
		{"all when zero", 0, "2024-01", 4, ""},
		{"all when negative", -2, "2024-01", 4, ""},
		{"all when larger", 12, "2024-01", 4, ""},
		{"trailing two", 2, "2024-03", 2, "2024-02"},
		{"last only", 1, "2024-04", 1, "2024-03"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			window, lead := LastMonths(months, tt.n)
			if len(window) != tt.length || window[0].Label != tt.first {
				t.Errorf("Expected %d months from %s, got %v", tt.length, tt.first, MonthLabels(window))
			}
			got := ""
			if lead != nil {
				got = lead.Label
			}
			if got != tt.lead {
				t.Errorf("Expected lead %q, got %q", tt.lead, got)
			}
		})
	}
}
