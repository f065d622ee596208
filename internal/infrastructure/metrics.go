package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ExtractionMetrics holds the fuel extraction metrics. All Record methods
// are safe on a nil receiver.
type ExtractionMetrics struct {
	FetchAttempts   metric.Int64Counter
	FetchDuration   metric.Float64Histogram
	SitesLocated    metric.Int64Counter
	RecordsTotal    metric.Int64Counter
	SectionsAbsent  metric.Int64Counter
	RunsTotal       metric.Int64Counter
	RunDuration     metric.Float64Histogram
	FilesWritten    metric.Int64Counter
	ActiveRuns      metric.Int64UpDownCounter
	HTTPRequests    metric.Int64Counter
	HTTPDuration    metric.Float64Histogram
}

// NewExtractionMetrics creates the extraction instruments on meter.
func NewExtractionMetrics(meter metric.Meter) (*ExtractionMetrics, error) {
	m := &ExtractionMetrics{}
	var err error

	if m.FetchAttempts, err = meter.Int64Counter(
		"fuel_fetch_attempts_total",
		metric.WithDescription("Total number of grid fetch attempts"),
	); err != nil {
		return nil, err
	}
	if m.FetchDuration, err = meter.Float64Histogram(
		"fuel_fetch_duration_seconds",
		metric.WithDescription("Grid fetch duration in seconds, retries included"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if m.SitesLocated, err = meter.Int64Counter(
		"fuel_sites_located_total",
		metric.WithDescription("Total number of site blocks located"),
	); err != nil {
		return nil, err
	}
	if m.RecordsTotal, err = meter.Int64Counter(
		"fuel_records_extracted_total",
		metric.WithDescription("Total number of records extracted by section"),
	); err != nil {
		return nil, err
	}
	if m.SectionsAbsent, err = meter.Int64Counter(
		"fuel_sections_absent_total",
		metric.WithDescription("Total number of site sections whose start label was not found"),
	); err != nil {
		return nil, err
	}
	if m.RunsTotal, err = meter.Int64Counter(
		"fuel_runs_total",
		metric.WithDescription("Total number of extraction runs by outcome"),
	); err != nil {
		return nil, err
	}
	if m.RunDuration, err = meter.Float64Histogram(
		"fuel_run_duration_seconds",
		metric.WithDescription("Extraction run duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if m.FilesWritten, err = meter.Int64Counter(
		"fuel_files_written_total",
		metric.WithDescription("Total number of output files written"),
	); err != nil {
		return nil, err
	}
	if m.ActiveRuns, err = meter.Int64UpDownCounter(
		"fuel_active_runs",
		metric.WithDescription("Number of extraction runs in progress"),
	); err != nil {
		return nil, err
	}
	if m.HTTPRequests, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	); err != nil {
		return nil, err
	}
	if m.HTTPDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordFetchAttempt counts one fetch attempt.
func (m *ExtractionMetrics) RecordFetchAttempt(ctx context.Context, source string, ok bool) {
	if m == nil {
		return
	}
	m.FetchAttempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("status", status(ok)),
	))
}

// RecordFetch records the total duration of a fetch.
func (m *ExtractionMetrics) RecordFetch(ctx context.Context, source string, d time.Duration, ok bool) {
	if m == nil {
		return
	}
	m.FetchDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("status", status(ok)),
	))
}

// RecordExtraction records site, record and absence counts of one dataset.
func (m *ExtractionMetrics) RecordExtraction(ctx context.Context, sites int, counts map[string]int, absences map[string]int) {
	if m == nil {
		return
	}
	m.SitesLocated.Add(ctx, int64(sites))
	for section, n := range counts {
		m.RecordsTotal.Add(ctx, int64(n), metric.WithAttributes(attribute.String("section", section)))
	}
	for section, n := range absences {
		m.SectionsAbsent.Add(ctx, int64(n), metric.WithAttributes(attribute.String("section", section)))
	}
}

// RecordFilesWritten counts output files by format.
func (m *ExtractionMetrics) RecordFilesWritten(ctx context.Context, format string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.FilesWritten.Add(ctx, int64(n), metric.WithAttributes(attribute.String("format", format)))
}

// RunStarted marks a run as active.
func (m *ExtractionMetrics) RunStarted(ctx context.Context) {
	if m == nil {
		return
	}
	m.ActiveRuns.Add(ctx, 1)
}

// RunFinished records a run's outcome ("success", "empty" or "failure").
func (m *ExtractionMetrics) RunFinished(ctx context.Context, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.ActiveRuns.Add(ctx, -1)
	m.RunsTotal.Add(ctx, 1, attrs)
	m.RunDuration.Record(ctx, d.Seconds(), attrs)
}

// RecordHTTPRequest records one served request.
func (m *ExtractionMetrics) RecordHTTPRequest(ctx context.Context, method, route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status_code", code),
	)
	m.HTTPRequests.Add(ctx, 1, attrs)
	m.HTTPDuration.Record(ctx, d.Seconds(), attrs)
}

func status(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
