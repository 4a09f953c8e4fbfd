package dates

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const (
	MonthLayout = "2006-01"
	DayLayout   = "2006-01-02"
)

var (
	isoPattern   = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})(?:\s+(\d{1,2}):(\d{1,2})(?::(\d{1,2}))?)?`)
	slashPattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})`)
)

// Parse normalizes a CRM date cell into a UTC timestamp.
// It reports false for empty or unrecognized input and never panics.
func Parse(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if t, ok := parseGeneric(s); ok {
		return t, true
	}

	if m := isoPattern.FindStringSubmatch(s); m != nil {
		year, month, day := atoi(m[1]), atoi(m[2]), atoi(m[3])
		hour, minute, second := atoi(m[4]), atoi(m[5]), atoi(m[6])
		if t, ok := build(year, month, day, hour, minute, second); ok {
			return t, true
		}
	}

	if m := slashPattern.FindStringSubmatch(s); m != nil {
		first, second, year := atoi(m[1]), atoi(m[2]), atoi(m[3])
		// Month first, then day first.
		if t, ok := build(year, first, second, 0, 0, 0); ok {
			return t, true
		}
		if t, ok := build(year, second, first, 0, 0, 0); ok {
			return t, true
		}
	}

	return time.Time{}, false
}

// parseGeneric recovers because dateparse panics on a handful of malformed inputs.
func parseGeneric(s string) (t time.Time, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			t, ok = time.Time{}, false
		}
	}()
	parsed, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return parsed.UTC(), true
}

// build rejects components that time.Date would silently normalize.
func build(year, month, day, hour, minute, second int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func atoi(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}

// MonthLabel formats t as YYYY-MM.
func MonthLabel(t time.Time) string {
	return t.UTC().Format(MonthLayout)
}

// DayLabel formats t as YYYY-MM-DD.
func DayLabel(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(DayLayout)
}

// ParseMonth parses a YYYY-MM label into the first instant of that month.
func ParseMonth(label string) (time.Time, error) {
	return time.ParseInLocation(MonthLayout, label, time.UTC)
}

// ParseDay parses a YYYY-MM-DD string into midnight UTC.
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(DayLayout, strings.TrimSpace(s), time.UTC)
}

// MonthStart returns 00:00 on the first day of t's month.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthEnd returns the last nanosecond of t's month.
func MonthEnd(t time.Time) time.Time {
	return MonthStart(t).AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// DayEnd returns the last nanosecond of t's day.
func DayEnd(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, time.UTC)
}
