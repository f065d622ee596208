package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"syscall"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"

	apperrors "github.com/vsamautomation/fuel-data-cleaner/internal/errors"
	"github.com/vsamautomation/fuel-data-cleaner/internal/grid"
	"github.com/vsamautomation/fuel-data-cleaner/internal/infrastructure"
)

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected response status %s", e.Status)
}

// IsTransient reports whether err is worth retrying: timeouts, connection
// failures, 429 and 5xx. Parse errors and other statuses are permanent.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var se *StatusError
	if errors.As(err, &se) {
		return retryableStatus(se.Code)
	}
	var ge *googleapi.Error
	if errors.As(err, &ge) {
		return retryableStatus(ge.Code)
	}
	if apperrors.IsType(err, apperrors.ErrTypeParsing) {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// RetryOptions configures a Retrier.
type RetryOptions struct {
	Attempts int           // total attempts, at least 1
	Delay    time.Duration // wait after a failed attempt
	Timeout  time.Duration // per attempt; zero means none
	Logger   *slog.Logger
	Metrics  *infrastructure.ExtractionMetrics
}

// Retrier retries transient failures of the wrapped fetcher. A limiter
// shared by all calls keeps attempts against the source at least Delay
// apart, also across runs that overlap.
type Retrier struct {
	inner   Fetcher
	opts    RetryOptions
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewRetrier wraps f.
func NewRetrier(f Fetcher, opts RetryOptions) *Retrier {
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	limit := rate.Inf
	if opts.Delay > 0 {
		limit = rate.Every(opts.Delay)
	}
	return &Retrier{
		inner:   f,
		opts:    opts,
		limiter: rate.NewLimiter(limit, 1),
		logger:  opts.Logger.With("component", "fetcher", "source", f.Source()),
	}
}

// Source returns the wrapped fetcher's source.
func (r *Retrier) Source() string {
	return r.inner.Source()
}

// Fetch runs the wrapped fetch until it succeeds, fails permanently or the
// attempt budget is spent.
func (r *Retrier) Fetch(ctx context.Context) (*grid.Grid, error) {
	ctx, span := infrastructure.StartSpan(ctx, "fetcher.fetch")
	defer span.End()

	start := time.Now()
	var lastErr error
	attempt := 0

	for attempt < r.opts.Attempts {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, r.fail(ctx, attempt, start, ctx.Err())
			case <-time.After(r.opts.Delay):
			}
		}
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, r.fail(ctx, attempt, start, err)
		}
		attempt++

		g, err := r.once(ctx)
		r.opts.Metrics.RecordFetchAttempt(ctx, r.inner.Source(), err == nil)
		if err == nil {
			r.opts.Metrics.RecordFetch(ctx, r.inner.Source(), time.Since(start), true)
			r.logger.InfoContext(ctx, "grid fetched",
				"attempt", attempt,
				"rows", g.Height(),
				"columns", g.Width(),
				"duration", time.Since(start),
			)
			return g, nil
		}
		lastErr = err

		if ctx.Err() != nil || !IsTransient(err) {
			break
		}
		if attempt < r.opts.Attempts {
			r.logger.WarnContext(ctx, "fetch attempt failed, retrying",
				"attempt", attempt,
				"max_attempts", r.opts.Attempts,
				"delay", r.opts.Delay,
				"error", err,
			)
		}
	}

	return nil, r.fail(ctx, attempt, start, lastErr)
}

func (r *Retrier) once(ctx context.Context) (*grid.Grid, error) {
	if r.opts.Timeout <= 0 {
		return r.inner.Fetch(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()
	return r.inner.Fetch(attemptCtx)
}

func (r *Retrier) fail(ctx context.Context, attempts int, start time.Time, err error) error {
	r.opts.Metrics.RecordFetch(ctx, r.inner.Source(), time.Since(start), false)
	infrastructure.RecordError(ctx, err)
	r.logger.ErrorContext(ctx, "fetch failed",
		"attempts", attempts,
		"error", err,
	)

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Type == apperrors.ErrTypeParsing {
		return appErr.WithContext("attempts", attempts)
	}
	out := apperrors.NewNetworkError(fmt.Sprintf("failed to fetch grid from %s", r.inner.Source()), err).
		WithContext("attempts", attempts)
	var se *StatusError
	if errors.As(err, &se) {
		out = out.WithContext("status", se.Code)
	}
	var ge *googleapi.Error
	if errors.As(err, &ge) {
		out = out.WithContext("status", ge.Code)
	}
	return out
}
