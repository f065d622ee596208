package exporter

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/vsamautomation/fuel-data-cleaner/internal/errors"
	"github.com/vsamautomation/fuel-data-cleaner/pkg/contracts/domain"
)

// Output formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// DefaultWorkbookName is used when Options.WorkbookName is empty.
const DefaultWorkbookName = "fuel_data.xlsx"

// Options configures a FuelExporter.
type Options struct {
	Dir          string
	Formats      []string
	BOM          bool
	WorkbookName string
}

// FuelExporter writes a dataset in every configured format.
type FuelExporter struct {
	opts     Options
	csv      *CSVWriter
	workbook *WorkbookWriter
	logger   *slog.Logger
}

// NewFuelExporter creates an exporter. With no formats it writes CSV.
func NewFuelExporter(opts Options, logger *slog.Logger) *FuelExporter {
	if logger == nil {
		logger = slog.Default()
	}
	if len(opts.Formats) == 0 {
		opts.Formats = []string{FormatCSV}
	}
	if opts.WorkbookName == "" {
		opts.WorkbookName = DefaultWorkbookName
	}
	return &FuelExporter{
		opts:     opts,
		csv:      NewCSVWriter(opts.Dir, logger),
		workbook: NewWorkbookWriter(opts.Dir, logger),
		logger:   logger,
	}
}

func (e *FuelExporter) wants(format string) bool {
	for _, f := range e.opts.Formats {
		if f == format {
			return true
		}
	}
	return false
}

// Export writes ds and returns the sorted paths of the files written. Record
// sets with no rows are skipped, so an empty dataset writes nothing.
func (e *FuelExporter) Export(ctx context.Context, ds *domain.Dataset) ([]string, error) {
	start := time.Now()
	tables := Tables(ds)
	if len(tables) == 0 {
		e.logger.InfoContext(ctx, "no records to export")
		return nil, nil
	}

	var (
		mu    sync.Mutex
		files []string
	)
	collect := func(path string) {
		mu.Lock()
		files = append(files, path)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)

	if e.wants(FormatCSV) {
		for _, t := range tables {
			t := t
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				path, err := e.csv.WriteTable(t, e.opts.BOM)
				if err != nil {
					return apperrors.NewExportError("failed to write "+t.Name+".csv", err).
						WithContext("table", t.Name)
				}
				collect(path)
				return nil
			})
		}
	}

	if e.wants(FormatXLSX) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			path, err := e.workbook.Write(e.opts.WorkbookName, tables)
			if err != nil {
				return apperrors.NewExportError("failed to write workbook", err).
					WithContext("workbook", e.opts.WorkbookName)
			}
			collect(path)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		e.logger.ErrorContext(ctx, "export failed", slog.String("error", err.Error()))
		return nil, err
	}

	sort.Strings(files)
	e.logger.InfoContext(ctx, "export completed",
		slog.Int("tables", len(tables)),
		slog.Int("files", len(files)),
		slog.Duration("duration", time.Since(start)))
	return files, nil
}
