package fetcher

import (
	"context"
	"os"

	"github.com/vsamautomation/fuel-data-cleaner/internal/grid"
)

// FileFetcher reads a local CSV or XLSX export.
type FileFetcher struct {
	path   string
	format string
	sheet  string
}

// NewFileFetcher creates a fetcher for path. format "auto" goes by extension.
func NewFileFetcher(path, format, sheet string) *FileFetcher {
	return &FileFetcher{path: path, format: format, sheet: sheet}
}

// Source returns the file path.
func (f *FileFetcher) Source() string {
	return "file:" + f.path
}

// Fetch reads and parses the file.
func (f *FileFetcher) Fetch(ctx context.Context) (*grid.Grid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := os.ReadFile(f.path)
	if err != nil {
		return nil, err
	}
	return decode(body, formatFor(f.format, f.path), f.sheet)
}
