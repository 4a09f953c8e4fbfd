package dates

import (
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"iso day", "2024-01-10", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)},
		{"iso minute", "2025-02-19 10:25", time.Date(2025, 2, 19, 10, 25, 0, 0, time.UTC)},
		{"iso second", "2025-02-19 10:25:31", time.Date(2025, 2, 19, 10, 25, 31, 0, time.UTC)},
		{"iso unpadded", "2024-3-5", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"slash month first", "02/19/2025", time.Date(2025, 2, 19, 0, 0, 0, 0, time.UTC)},
		{"slash ambiguous prefers month", "01/02/2024", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"slash day first fallback", "19/02/2025", time.Date(2025, 2, 19, 0, 0, 0, 0, time.UTC)},
		{"surrounding whitespace", "  2024-04-10  ", time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.input)
			if !ok {
				t.Fatalf("Expected %q to parse", tt.input)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
			if got.Location() != time.UTC {
				t.Errorf("Expected UTC, got %v", got.Location())
			}
		})
	}
}

func TestParse_Unparseable(t *testing.T) {
	for _, input := range []string{"", "   ", "not-a-date", "2024-13-45", "31/31/2024"} {
		if got, ok := Parse(input); ok {
			t.Errorf("Expected %q to be unparseable, got %v", input, got)
		}
	}
}

func TestParse_RoundTrip(t *testing.T) {
	base := time.Date(2023, 11, 7, 9, 45, 0, 0, time.UTC)
	for i := 0; i < 400; i += 17 {
		ts := base.AddDate(0, 0, i)

		day, ok := Parse(ts.Format("2006-01-02"))
		if !ok || !day.Equal(MonthStart(ts).AddDate(0, 0, ts.Day()-1)) {
			t.Errorf("YYYY-MM-DD round-trip failed for %v: got %v", ts, day)
		}

		minute, ok := Parse(ts.Format("2006-01-02 15:04"))
		if !ok || !minute.Equal(ts) {
			t.Errorf("YYYY-MM-DD HH:MM round-trip failed for %v: got %v", ts, minute)
		}

		slash, ok := Parse(ts.Format("01/02/2006"))
		if !ok || slash.Year() != ts.Year() || slash.Month() != ts.Month() || slash.Day() != ts.Day() {
			t.Errorf("MM/DD/YYYY round-trip failed for %v: got %v", ts, slash)
		}
	}
}

func TestMonthBoundaries(t *testing.T) {
	ts := time.Date(2024, 2, 10, 12, 0, 0, 0, time.UTC)

	if got := MonthStart(ts); !got.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected 2024-02-01, got %v", got)
	}
	end := MonthEnd(ts)
	if end.Day() != 29 || end.Hour() != 23 || end.Nanosecond() != 999999999 {
		t.Errorf("Expected last nanosecond of 2024-02-29, got %v", end)
	}
	if got := MonthLabel(end); got != "2024-02" {
		t.Errorf("Expected 2024-02, got %s", got)
	}
	if got := DayLabel(time.Time{}); got != "" {
		t.Errorf("Expected empty label for zero time, got %s", got)
	}
}
