package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/vsamautomation/fuel-data-cleaner/internal/config"
	apperrors "github.com/vsamautomation/fuel-data-cleaner/internal/errors"
	"github.com/vsamautomation/fuel-data-cleaner/internal/exporter"
	"github.com/vsamautomation/fuel-data-cleaner/internal/extraction"
	"github.com/vsamautomation/fuel-data-cleaner/internal/fetcher"
	"github.com/vsamautomation/fuel-data-cleaner/internal/infrastructure"
	"github.com/vsamautomation/fuel-data-cleaner/internal/store"
	"github.com/vsamautomation/fuel-data-cleaner/pkg/contracts/domain"
)

// RunOptions overrides configuration for a single run. Zero values keep
// the configured behavior.
type RunOptions struct {
	DateFrom time.Time
	DateTo   time.Time
	Formats  []string
}

// Result is a finished run: its summary plus the extracted dataset.
type Result struct {
	Summary domain.RunSummary
	Dataset *domain.Dataset
}

// ExtractionService runs fetch → extract → export → store.
type ExtractionService struct {
	cfg     config.Config
	fetcher fetcher.Fetcher
	store   store.RunStore
	metrics *infrastructure.ExtractionMetrics
	logger  *slog.Logger

	mu      sync.Mutex
	running bool

	newID func() string
	now   func() time.Time
}

// NewExtractionService creates the service. runs may be nil to disable run
// history.
func NewExtractionService(
	cfg *config.Config,
	f fetcher.Fetcher,
	runs store.RunStore,
	metrics *infrastructure.ExtractionMetrics,
	logger *slog.Logger,
) (*ExtractionService, error) {
	if cfg == nil {
		return nil, apperrors.NewConfigError("configuration is required", nil)
	}
	if f == nil {
		return nil, apperrors.NewConfigError("fetcher is required", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("ExtractionService initialized",
		slog.String("source", f.Source()),
		slog.String("output_dir", cfg.Output.Dir),
		slog.Any("formats", cfg.Output.Formats),
		slog.Bool("history", runs != nil))

	return &ExtractionService{
		cfg:     *cfg,
		fetcher: f,
		store:   runs,
		metrics: metrics,
		logger:  logger.With(slog.String("component", "extraction_service")),
		newID:   func() string { return uuid.New().String() },
		now:     time.Now,
	}, nil
}

// Source describes where grids are fetched from.
func (s *ExtractionService) Source() string {
	return s.fetcher.Source()
}

// Running reports whether a run is in progress.
func (s *ExtractionService) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *ExtractionService) acquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

func (s *ExtractionService) release() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// Run performs one extraction. It returns ErrRunInProgress when another run
// holds the service.
func (s *ExtractionService) Run(ctx context.Context, opts RunOptions) (*Result, error) {
	if !s.acquire() {
		return nil, ErrRunInProgress
	}
	defer s.release()

	runID := s.newID()
	ctx = infrastructure.WithRunID(ctx, runID)
	ctx = infrastructure.EnsureTraceID(ctx)
	logger := s.logger

	ctx, span := infrastructure.StartSpan(ctx, "extraction.run",
		attribute.String("run.id", runID),
		attribute.String("source", s.fetcher.Source()))
	defer span.End()

	summary := domain.RunSummary{
		ID:        runID,
		Source:    s.fetcher.Source(),
		StartedAt: s.now(),
	}

	s.metrics.RunStarted(ctx)
	logger.InfoContext(ctx, "extraction run started", slog.String("source", summary.Source))

	result, err := s.run(ctx, logger, opts, &summary)
	summary.FinishedAt = s.now()

	outcome := "success"
	switch {
	case err != nil:
		outcome = "failure"
	case summary.Empty:
		outcome = "empty"
	}
	s.metrics.RunFinished(ctx, outcome, summary.Duration())

	if err != nil {
		infrastructure.RecordError(ctx, err)
		logger.ErrorContext(ctx, "extraction run failed",
			slog.String("error", err.Error()),
			slog.String("error_type", string(apperrors.TypeOf(err))),
			slog.Duration("duration", summary.Duration()))
		return nil, err
	}

	if err := s.save(ctx, summary); err != nil {
		infrastructure.RecordError(ctx, err)
		logger.ErrorContext(ctx, "failed to record run", slog.String("error", err.Error()))
		return nil, err
	}

	logger.InfoContext(ctx, "extraction run completed",
		slog.String("outcome", outcome),
		slog.Int("sites", len(summary.Sites)),
		slog.Int("records", summary.TotalRecords()),
		slog.Int("absences", summary.Absences),
		slog.Int("files", len(summary.Files)),
		slog.Duration("duration", summary.Duration()))

	result.Summary = summary
	return result, nil
}

func (s *ExtractionService) run(ctx context.Context, logger *slog.Logger, opts RunOptions, summary *domain.RunSummary) (*Result, error) {
	engineOpts, err := s.engineOptions(opts, logger)
	if err != nil {
		return nil, err
	}

	fetchCtx, fetchSpan := infrastructure.StartSpan(ctx, "extraction.fetch")
	g, err := s.fetcher.Fetch(fetchCtx)
	fetchSpan.End()
	if err != nil {
		return nil, err
	}

	extractCtx, extractSpan := infrastructure.StartSpan(ctx, "extraction.extract",
		attribute.Int("grid.rows", g.Height()),
		attribute.Int("grid.columns", g.Width()))
	ds := extraction.NewEngine(engineOpts).Extract(extractCtx, g)
	extractSpan.End()

	summary.Sites = ds.SiteNames()
	summary.Dates = len(ds.Dates)
	summary.Counts = ds.Counts()
	summary.Absences = len(ds.Absences)
	summary.Empty = ds.Empty()
	s.recordExtraction(ctx, ds)

	if summary.Empty {
		logger.WarnContext(ctx, "no sites found in grid; nothing to extract")
		return &Result{Dataset: ds}, nil
	}

	formats := s.cfg.Output.Formats
	if len(opts.Formats) > 0 {
		formats = opts.Formats
	}

	exportCtx, exportSpan := infrastructure.StartSpan(ctx, "extraction.export")
	exp := exporter.NewFuelExporter(exporter.Options{
		Dir:          s.cfg.Output.Dir,
		Formats:      formats,
		BOM:          s.cfg.Output.BOM,
		WorkbookName: s.cfg.Output.WorkbookName,
	}, logger)
	files, err := exp.Export(exportCtx, ds)
	exportSpan.End()
	if err != nil {
		return nil, err
	}
	summary.Files = files
	s.recordFiles(ctx, files)

	return &Result{Dataset: ds}, nil
}

// engineOptions maps configuration plus per-run overrides onto the engine.
func (s *ExtractionService) engineOptions(opts RunOptions, logger *slog.Logger) (extraction.Options, error) {
	from, to, err := s.cfg.Extraction.Dates()
	if err != nil {
		return extraction.Options{}, apperrors.NewConfigError("invalid date range", err)
	}
	if !opts.DateFrom.IsZero() {
		from = opts.DateFrom
	}
	if !opts.DateTo.IsZero() {
		to = opts.DateTo
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return extraction.Options{}, apperrors.NewAppValidationError(
			fmt.Sprintf("date_to %s is before date_from %s", to.Format(config.DateLayout), from.Format(config.DateLayout)))
	}

	tankPolicy, err := extraction.ParseTotalPolicy(s.cfg.Extraction.TankSizePolicy)
	if err != nil {
		return extraction.Options{}, apperrors.NewConfigError("invalid tank size policy", err)
	}
	invPolicy, err := extraction.ParseTotalPolicy(s.cfg.Extraction.InvSettingPolicy)
	if err != nil {
		return extraction.Options{}, apperrors.NewConfigError("invalid inventory setting policy", err)
	}

	return extraction.Options{
		Layout:           s.cfg.Layout.Layout(),
		Products:         s.cfg.Extraction.Products,
		RollingWindows:   s.cfg.Extraction.RollingWindows,
		DateRange:        extraction.DateRange{From: from, To: to},
		TankSizePolicy:   tankPolicy,
		InvSettingPolicy: invPolicy,
		Now:              s.now,
		Logger:           logger,
	}, nil
}

func (s *ExtractionService) recordExtraction(ctx context.Context, ds *domain.Dataset) {
	counts := make(map[string]int)
	for section, n := range ds.Counts() {
		counts[string(section)] = n
	}
	absences := make(map[string]int)
	for _, a := range ds.Absences {
		absences[string(a.Section)]++
	}
	s.metrics.RecordExtraction(ctx, len(ds.Sites), counts, absences)

	infrastructure.AddSpanEvent(ctx, "dataset extracted", map[string]interface{}{
		"sites":    len(ds.Sites),
		"dates":    len(ds.Dates),
		"absences": len(ds.Absences),
	})
}

func (s *ExtractionService) recordFiles(ctx context.Context, files []string) {
	byFormat := make(map[string]int)
	for _, f := range files {
		if filepath.Ext(f) == ".xlsx" {
			byFormat[exporter.FormatXLSX]++
		} else {
			byFormat[exporter.FormatCSV]++
		}
	}
	for format, n := range byFormat {
		s.metrics.RecordFilesWritten(ctx, format, n)
	}
}

func (s *ExtractionService) save(ctx context.Context, summary domain.RunSummary) error {
	if s.store == nil {
		return nil
	}
	ctx, span := infrastructure.StartSpan(ctx, "extraction.store")
	defer span.End()
	return s.store.SaveRun(ctx, summary)
}

// ListRuns returns recent runs, newest first. A limit below 1 uses the
// configured history limit.
func (s *ExtractionService) ListRuns(ctx context.Context, limit int) ([]domain.RunSummary, error) {
	if s.store == nil {
		return nil, ErrHistoryDisabled
	}
	if limit < 1 {
		limit = s.cfg.Store.HistoryLimit
	}
	runs, err := s.store.ListRuns(ctx, limit)
	if err != nil {
		return nil, err
	}
	if runs == nil {
		runs = []domain.RunSummary{}
	}
	return runs, nil
}

// GetRun returns a single run by id.
func (s *ExtractionService) GetRun(ctx context.Context, id string) (*domain.RunSummary, error) {
	if s.store == nil {
		return nil, ErrHistoryDisabled
	}
	run, err := s.store.GetRun(ctx, id)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrTypeNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

// IsRunInProgress reports whether err is a rejected overlapping run.
func IsRunInProgress(err error) bool {
	return errors.Is(err, ErrRunInProgress)
}
