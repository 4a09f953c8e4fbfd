package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/rs/zerolog/log"
)

// Location describes where an export lives. Exactly one of Path, URL or
// SheetID is expected; Path and URL take precedence in that order.
type Location struct {
	Path    string
	URL     string
	SheetID string
	GID     string
	// Sheet selects the worksheet of an .xlsx export.
	Sheet string
}

// GoogleSheetURL returns the CSV export endpoint of a Google Sheets tab.
func GoogleSheetURL(sheetID, gid string) string {
	if gid == "" {
		gid = "0"
	}
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/export?format=csv&gid=%s",
		url.PathEscape(sheetID), url.QueryEscape(gid))
}

// Target returns the path or URL the location resolves to.
func (l Location) Target() (string, error) {
	switch {
	case l.Path != "":
		return l.Path, nil
	case l.URL != "":
		return l.URL, nil
	case l.SheetID != "":
		return GoogleSheetURL(l.SheetID, l.GID), nil
	}
	return "", fmt.Errorf("%w: no source configured", ErrSourceUnavailable)
}

// Load reads the export in one attempt. Any failure, including an export
// without data rows, is reported as ErrSourceUnavailable.
func Load(ctx context.Context, loc Location) (*Table, error) {
	target, err := loc.Target()
	if err != nil {
		return nil, err
	}

	var payload []byte
	if isRemote(target) {
		payload, err = fetch(ctx, target)
	} else {
		payload, err = os.ReadFile(target)
		if err != nil {
			err = fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
		}
	}
	if err != nil {
		return nil, err
	}

	var table *Table
	if isWorkbook(target) {
		table, err = ParseXLSX(bytes.NewReader(payload), loc.Sheet)
	} else {
		table, err = ParseCSV(bytes.NewReader(payload))
	}
	if err != nil {
		return nil, err
	}
	if table.Len() == 0 {
		return nil, fmt.Errorf("%w: no data found in %s", ErrSourceUnavailable, target)
	}

	log.Info().Str("source", target).Int("rows", table.Len()).Int("columns", len(table.Headers)).Msg("Loaded export")
	return table, nil
}

func fetch(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	log.Debug().Str("url", target).Msg("Fetching export")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch export: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: failed to fetch export: %s", ErrSourceUnavailable, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrSourceUnavailable, err)
	}
	return body, nil
}

func isRemote(target string) bool {
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}

func isWorkbook(target string) bool {
	p := target
	if isRemote(target) {
		if u, err := url.Parse(target); err == nil {
			p = u.Path
		}
	}
	return strings.EqualFold(path.Ext(p), ".xlsx")
}
