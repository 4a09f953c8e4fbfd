package source

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ParseXLSX reads one worksheet of an .xlsx export. An empty sheet name
// selects the first sheet.
func ParseXLSX(r io.Reader, sheet string) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open workbook: %v", ErrSourceUnavailable, err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%w: workbook has no sheets", ErrSourceUnavailable)
		}
		sheet = sheets[0]
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read sheet %q: %v", ErrSourceUnavailable, sheet, err)
	}
	defer rows.Close()

	var header []string
	var records [][]string
	for rows.Next() {
		vals, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read row: %v", ErrSourceUnavailable, err)
		}
		if header == nil {
			if blank(vals) {
				continue
			}
			header = vals
			continue
		}
		records = append(records, vals)
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	if header == nil {
		return nil, fmt.Errorf("%w: no data found in sheet %q", ErrSourceUnavailable, sheet)
	}

	return newTable(header, records), nil
}
