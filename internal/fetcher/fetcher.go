package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/vsamautomation/fuel-data-cleaner/internal/config"
	"github.com/vsamautomation/fuel-data-cleaner/internal/grid"
	"github.com/vsamautomation/fuel-data-cleaner/internal/infrastructure"
)

// Fetcher returns one snapshot of the sheet.
type Fetcher interface {
	Fetch(ctx context.Context) (*grid.Grid, error)
	// Source describes where the grid comes from, for logs and run history.
	Source() string
}

// New builds the fetcher selected by cfg.Kind, wrapped in a Retrier.
func New(ctx context.Context, cfg config.SourceConfig, logger *slog.Logger, metrics *infrastructure.ExtractionMetrics) (Fetcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var inner Fetcher
	switch strings.ToLower(cfg.Kind) {
	case config.SourceHTTP, "":
		inner = NewHTTPFetcher(cfg.URL, cfg.Format, cfg.Sheet, &http.Client{})
	case config.SourceSheets:
		sf, err := NewSheetsFetcher(ctx, SheetsOptions{
			SpreadsheetID:   cfg.SpreadsheetID,
			Range:           cfg.Range,
			CredentialsFile: cfg.CredentialsFile,
			APIKey:          cfg.APIKey,
			Endpoint:        cfg.Endpoint,
		})
		if err != nil {
			return nil, err
		}
		inner = sf
	case config.SourceFile:
		inner = NewFileFetcher(cfg.FilePath, cfg.Format, cfg.Sheet)
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Kind)
	}

	return NewRetrier(inner, RetryOptions{
		Attempts: cfg.Attempts,
		Delay:    cfg.RetryDelay,
		Timeout:  cfg.Timeout,
		Logger:   logger,
		Metrics:  metrics,
	}), nil
}

// formatFor resolves "auto" from a hint such as a file name, URL or
// content type. Anything that is not recognisably XLSX is read as CSV.
func formatFor(format string, hints ...string) string {
	switch strings.ToLower(format) {
	case config.FormatCSV, config.FormatXLSX:
		return strings.ToLower(format)
	}
	for _, h := range hints {
		h = strings.ToLower(h)
		if strings.Contains(h, "spreadsheetml") ||
			strings.Contains(h, "output=xlsx") ||
			strings.Contains(h, "format=xlsx") ||
			filepath.Ext(h) == ".xlsx" {
			return config.FormatXLSX
		}
	}
	return config.FormatCSV
}
