package analytics

import "testing"

func TestCalculateMedianDiscrete(t *testing.T) {
	tests := []struct {
		name     string
		values   []int
		expected float64
	}{
		{"Empty", []int{}, 0},
		{"SingleItem", []int{5}, 5},
		{"OddCount", []int{1, 3, 2, 4, 5}, 3},
		{"EvenCount", []int{1, 2, 3, 4}, 2.5},
		{"Unsorted", []int{10, 2, 8, 4, 6}, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculateMedianDiscrete(tt.values); got != tt.expected {
				t.Errorf("CalculateMedianDiscrete() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		num, den int
		expected float64
	}{
		{0, 0, 0},
		{1, 3, 33.3},
		{2, 3, 66.7},
		{3, 3, 100},
		{1, 8, 12.5},
	}
	for _, tt := range tests {
		if got := percent(tt.num, tt.den); got != tt.expected {
			t.Errorf("percent(%d, %d) = %v, want %v", tt.num, tt.den, got, tt.expected)
		}
	}
}

func TestSummarize(t *testing.T) {
	if Summarize(nil) != nil {
		t.Error("Expected nil summary for empty list")
	}

	s := Summarize([]int{10, 3, 4, 1})
	if s.Count != 4 || s.MinDays != 1 || s.MaxDays != 10 {
		t.Errorf("Unexpected summary %+v", s)
	}
	// mean 4.5 and median 3.5 both round up
	if s.AvgDays != 5 || s.MedianDays != 4 {
		t.Errorf("Expected avg 5 and median 4, got %d and %d", s.AvgDays, s.MedianDays)
	}
}
