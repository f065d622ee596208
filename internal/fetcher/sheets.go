package fetcher

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	apperrors "github.com/vsamautomation/fuel-data-cleaner/internal/errors"
	"github.com/vsamautomation/fuel-data-cleaner/internal/grid"
)

// SheetsOptions selects a spreadsheet range and how to authenticate.
type SheetsOptions struct {
	SpreadsheetID   string
	Range           string // A1 range or sheet title; empty reads the first sheet
	CredentialsFile string // service account JSON
	APIKey          string // for publicly shared sheets
	Endpoint        string // overrides the API endpoint, for tests
}

// SheetsFetcher reads cell values through the Google Sheets API.
type SheetsFetcher struct {
	service *sheets.Service
	opts    SheetsOptions
}

// NewSheetsFetcher creates the Sheets service. With neither credentials nor
// an API key, application default credentials are used, unless a custom
// endpoint is set, which is then called unauthenticated.
func NewSheetsFetcher(ctx context.Context, opts SheetsOptions) (*SheetsFetcher, error) {
	if opts.SpreadsheetID == "" {
		return nil, apperrors.NewConfigError("spreadsheet id is required", nil)
	}

	var clientOpts []option.ClientOption
	switch {
	case opts.CredentialsFile != "":
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	case opts.APIKey != "":
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	case opts.Endpoint != "":
		clientOpts = append(clientOpts, option.WithoutAuthentication())
	}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}

	service, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to create sheets service", err)
	}
	return &SheetsFetcher{service: service, opts: opts}, nil
}

// Source identifies the spreadsheet.
func (f *SheetsFetcher) Source() string {
	return fmt.Sprintf("sheets:%s", f.opts.SpreadsheetID)
}

// Fetch reads the range with formatted values, so date headers arrive as
// displayed ("Sep-01-25") and numbers keep their thousands separators.
func (f *SheetsFetcher) Fetch(ctx context.Context) (*grid.Grid, error) {
	rng := f.opts.Range
	if rng == "" {
		first, err := f.firstSheet(ctx)
		if err != nil {
			return nil, err
		}
		rng = first
	}

	resp, err := f.service.Spreadsheets.Values.Get(f.opts.SpreadsheetID, rng).
		ValueRenderOption("FORMATTED_VALUE").
		MajorDimension("ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	return grid.FromValues(resp.Values), nil
}

func (f *SheetsFetcher) firstSheet(ctx context.Context) (string, error) {
	ss, err := f.service.Spreadsheets.Get(f.opts.SpreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return "", err
	}
	if len(ss.Sheets) == 0 || ss.Sheets[0].Properties == nil {
		return "", apperrors.NewParsingError("spreadsheet has no sheets", nil)
	}
	return ss.Sheets[0].Properties.Title, nil
}
