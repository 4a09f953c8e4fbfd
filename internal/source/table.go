package source

import (
	"errors"
	"strings"
)

// ErrSourceUnavailable marks any failure to obtain rows from the export.
var ErrSourceUnavailable = errors.New("source unavailable")

// Row maps a column header to its raw cell text.
type Row map[string]string

// Get returns the trimmed value of a column, or "" when absent.
func (r Row) Get(column string) string {
	return strings.TrimSpace(r[column])
}

// Table is the parsed export: headers in file order plus data rows.
type Table struct {
	Headers []string
	Rows    []Row
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// newTable builds rows from raw records. Blank records are dropped and the
// first occurrence of a duplicated header wins.
func newTable(header []string, records [][]string) *Table {
	headers := make([]string, len(header))
	for i, h := range header {
		headers[i] = cleanHeader(h, i == 0)
	}

	t := &Table{Headers: headers}
	for _, rec := range records {
		if blank(rec) {
			continue
		}
		row := make(Row, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			if _, seen := row[h]; seen {
				continue
			}
			if i < len(rec) {
				row[h] = strings.TrimSpace(strings.Trim(rec[i], `"`))
			} else {
				row[h] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func cleanHeader(h string, first bool) string {
	if first {
		h = strings.TrimPrefix(h, "\ufeff")
	}
	h = strings.TrimSpace(h)
	if strings.HasPrefix(h, `"`) && strings.HasSuffix(h, `"`) && len(h) >= 2 {
		h = h[1 : len(h)-1]
	}
	return h
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
