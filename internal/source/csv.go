package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// ParseCSV reads a comma-delimited export. The first record is the header.
func ParseCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: no data found", ErrSourceUnavailable)
		}
		return nil, fmt.Errorf("%w: failed to read CSV header: %v", ErrSourceUnavailable, err)
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: malformed CSV: %v", ErrSourceUnavailable, err)
	}

	return newTable(header, records), nil
}
