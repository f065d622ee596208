package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.opentelemetry.io/otel/attribute"

	"github.com/vsamautomation/fuel-data-cleaner/internal/config"
	apperrors "github.com/vsamautomation/fuel-data-cleaner/internal/errors"
	"github.com/vsamautomation/fuel-data-cleaner/internal/infrastructure"
	"github.com/vsamautomation/fuel-data-cleaner/internal/middleware"
	"github.com/vsamautomation/fuel-data-cleaner/internal/services"
	"github.com/vsamautomation/fuel-data-cleaner/pkg/contracts/domain"
)

// maxHistoryLimit caps GET /api/extractions?limit=.
const maxHistoryLimit = 500

// ExtractionHandler handles extraction run requests
type ExtractionHandler struct {
	service    ExtractionServiceInterface
	validator  *middleware.Validator
	errors     *apperrors.ErrorHandler
	runTimeout time.Duration
	logger     *slog.Logger
}

// NewExtractionHandler creates a new extraction handler. runTimeout bounds
// POST /api/extractions; zero disables the bound.
func NewExtractionHandler(
	service ExtractionServiceInterface,
	validator *middleware.Validator,
	errHandler *apperrors.ErrorHandler,
	runTimeout time.Duration,
	logger *slog.Logger,
) *ExtractionHandler {
	if service == nil {
		panic("service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if validator == nil {
		validator = middleware.NewValidator(logger)
	}
	if errHandler == nil {
		errHandler = apperrors.NewErrorHandler(logger, false)
	}
	return &ExtractionHandler{
		service:    service,
		validator:  validator,
		errors:     errHandler,
		runTimeout: runTimeout,
		logger:     logger.With(slog.String("handler", "extractions")),
	}
}

// RunRequest is the optional body of POST /api/extractions.
type RunRequest struct {
	DateFrom string   `json:"date_from,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DateTo   string   `json:"date_to,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Formats  []string `json:"formats,omitempty" validate:"omitempty,dive,oneof=csv xlsx"`
}

// options converts a validated request into service options.
func (req RunRequest) options() services.RunOptions {
	var opts services.RunOptions
	if req.DateFrom != "" {
		opts.DateFrom, _ = time.Parse(config.DateLayout, req.DateFrom)
	}
	if req.DateTo != "" {
		opts.DateTo, _ = time.Parse(config.DateLayout, req.DateTo)
	}
	opts.Formats = req.Formats
	return opts
}

// RunResponse is returned by POST /api/extractions.
type RunResponse struct {
	Run          domain.RunSummary       `json:"run"`
	DurationMS   int64                   `json:"duration_ms"`
	TotalRecords int                     `json:"total_records"`
	SiteDetails  []domain.SiteInfo       `json:"site_details"`
	Absences     []domain.SectionAbsence `json:"absences,omitempty"`
}

// RunListResponse is returned by GET /api/extractions.
type RunListResponse struct {
	Runs  []domain.RunSummary `json:"runs"`
	Count int                 `json:"count"`
}

// Routes returns a chi router for extraction endpoints
func (h *ExtractionHandler) Routes() chi.Router {
	r := chi.NewRouter()

	if h.runTimeout > 0 {
		r.With(middleware.Timeout(h.runTimeout)).Post("/", h.StartRun)
	} else {
		r.Post("/", h.StartRun)
	}
	r.Get("/", h.ListRuns)
	r.Get("/{id}", h.GetRun)

	return r
}

// StartRun handles POST /api/extractions
func (h *ExtractionHandler) StartRun(w http.ResponseWriter, r *http.Request) {
	ctx, span := infrastructure.StartSpan(r.Context(), "extractions_handler.start_run",
		attribute.String("request_id", middleware.GetReqID(r.Context())))
	defer span.End()

	var req RunRequest
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "extraction run requested",
		slog.String("request_id", middleware.GetReqID(ctx)),
		slog.String("date_from", req.DateFrom),
		slog.String("date_to", req.DateTo),
		slog.Any("formats", req.Formats))

	result, err := h.service.Run(ctx, req.options())
	if err != nil {
		infrastructure.RecordError(ctx, err)
		h.errors.HandleError(w, r, h.translate(err))
		return
	}

	span.SetAttributes(
		attribute.String("run.id", result.Summary.ID),
		attribute.Int("run.records", result.Summary.TotalRecords()),
	)

	resp := RunResponse{
		Run:          result.Summary,
		DurationMS:   result.Summary.Duration().Milliseconds(),
		TotalRecords: result.Summary.TotalRecords(),
		SiteDetails:  []domain.SiteInfo{},
	}
	if result.Dataset != nil {
		if result.Dataset.Sites != nil {
			resp.SiteDetails = result.Dataset.Sites
		}
		resp.Absences = result.Dataset.Absences
	}

	// An empty sheet is a completed run with nothing written.
	status := http.StatusCreated
	if result.Summary.Empty {
		status = http.StatusOK
	}
	render.Status(r, status)
	render.JSON(w, r, resp)
}

// ListRuns handles GET /api/extractions
func (h *ExtractionHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, err := middleware.QueryInt(r, "limit", 1, maxHistoryLimit, 0)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	runs, err := h.service.ListRuns(r.Context(), limit)
	if err != nil {
		h.errors.HandleError(w, r, h.translate(err))
		return
	}

	render.JSON(w, r, RunListResponse{Runs: runs, Count: len(runs)})
}

// GetRun handles GET /api/extractions/{id}
func (h *ExtractionHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := h.service.GetRun(r.Context(), id)
	if err != nil {
		h.errors.HandleError(w, r, h.translate(err))
		return
	}

	render.JSON(w, r, run)
}

// translate maps service sentinels onto API errors. AppErrors pass through
// and are mapped by the error handler.
func (h *ExtractionHandler) translate(err error) error {
	switch {
	case errors.Is(err, services.ErrRunInProgress):
		return apperrors.ErrRunInProgress
	case errors.Is(err, services.ErrHistoryDisabled):
		return apperrors.NewWithDetails(http.StatusServiceUnavailable,
			apperrors.ErrServiceUnavailable.ErrorCode, "Run history is disabled", nil)
	case apperrors.IsType(err, apperrors.ErrTypeNotFound):
		return apperrors.ErrRunNotFound
	default:
		return err
	}
}
