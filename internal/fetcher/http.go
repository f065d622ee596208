package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	apperrors "github.com/vsamautomation/fuel-data-cleaner/internal/errors"
	"github.com/vsamautomation/fuel-data-cleaner/internal/grid"
)

// maxBodySize caps a downloaded export.
const maxBodySize = 64 << 20

// HTTPFetcher downloads a published CSV or XLSX export.
type HTTPFetcher struct {
	client *http.Client
	url    string
	format string
	sheet  string
}

// NewHTTPFetcher creates a fetcher for url. format is csv, xlsx or auto;
// sheet selects an XLSX worksheet.
func NewHTTPFetcher(url, format, sheet string, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{client: client, url: url, format: format, sheet: sheet}
}

// Source returns the URL host and path, without the query.
func (f *HTTPFetcher) Source() string {
	u, err := url.Parse(f.url)
	if err != nil {
		return "http"
	}
	return u.Scheme + "://" + u.Host + u.Path
}

// Fetch downloads and parses the export.
func (f *HTTPFetcher) Fetch(ctx context.Context) (*grid.Grid, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, apperrors.NewAppValidationError(fmt.Sprintf("invalid source url: %v", err))
	}
	req.Header.Set("Accept", "text/csv, application/vnd.openxmlformats-officedocument.spreadsheetml.sheet;q=0.9, */*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, err
	}

	return decode(body, formatFor(f.format, resp.Header.Get("Content-Type"), f.url), f.sheet)
}

// decode parses body as CSV or XLSX. Failures are PARSING errors and are
// not retried.
func decode(body []byte, format, sheet string) (*grid.Grid, error) {
	var (
		g   *grid.Grid
		err error
	)
	if format == "xlsx" {
		g, err = grid.ReadXLSX(bytes.NewReader(body), sheet)
	} else {
		g, err = grid.ReadCSV(bytes.NewReader(body))
	}
	if err != nil {
		return nil, apperrors.NewParsingError("failed to parse "+format+" export", err).
			WithContext("bytes", len(body))
	}
	return g, nil
}
