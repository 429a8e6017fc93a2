package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"evalpulse/internal/analytics"
	apperrors "evalpulse/internal/errors"
	"evalpulse/internal/services"
	"evalpulse/pkg/contracts/domain"
)

const queryDateLayout = "2006-01-02"

// Handler serves the dataset API.
type Handler struct {
	service  DatasetService
	logger   *slog.Logger
	validate *validator.Validate
}

// NewHandler creates the API handler.
func NewHandler(service DatasetService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service:  service,
		logger:   logger,
		validate: validator.New(),
	}
}

// Routes mounts all API routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/ingest", h.Ingest)
	r.Post("/import", h.Import)
	r.Get("/report", h.Report)
	r.Get("/records", h.Records)
	r.Get("/timelines", h.Timelines)
	r.Get("/trends", h.Trends)
	r.Get("/insights", h.Insights)
	r.Get("/themes", h.Themes)
	r.Get("/programs", h.Programs)
	r.Get("/export", h.Export)
	r.Get("/health", h.Health)

	return r
}

// ingestRequest is the body of POST /ingest. An empty file list ingests the
// configured input directory.
type ingestRequest struct {
	Files []string `json:"files" validate:"omitempty,dive,min=1"`
}

// Bind implements render.Binder.
func (req *ingestRequest) Bind(r *http.Request) error {
	return nil
}

// Ingest handles POST /ingest.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	req := &ingestRequest{}
	if r.ContentLength > 0 {
		if err := render.Bind(r, req); err != nil {
			h.renderError(w, r, apperrors.InvalidRequestWithError(err))
			return
		}
	}
	if err := h.validate.Struct(req); err != nil {
		h.renderError(w, r, apperrors.InvalidRequestWithError(err))
		return
	}

	var (
		report *domain.BatchReport
		err    error
	)
	if len(req.Files) == 0 {
		report, err = h.service.IngestDir(r.Context())
	} else {
		report, err = h.service.Ingest(r.Context(), req.Files)
	}
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, report)
}

// importRequest is the body of POST /import.
type importRequest struct {
	File string `json:"file" validate:"required"`
}

// Bind implements render.Binder.
func (req *importRequest) Bind(r *http.Request) error {
	return nil
}

// Import handles POST /import, loading a previously exported CSV dataset.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	req := &importRequest{}
	if err := render.Bind(r, req); err != nil {
		h.renderError(w, r, apperrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.renderError(w, r, apperrors.InvalidRequestWithError(err))
		return
	}

	report, err := h.service.ImportCSV(r.Context(), req.File)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	render.JSON(w, r, report)
}

// Report handles GET /report.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Report(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	render.JSON(w, r, report)
}

// filterQuery carries the validated dataset filter parameters.
type filterQuery struct {
	Program        string `validate:"omitempty,max=64"`
	EvaluationType string `validate:"omitempty,oneof=final interim"`
	QuestionType   string `validate:"omitempty,oneof=rating_scale single_choice open_text"`
	Theme          string `validate:"omitempty,max=128"`
	Segment        string `validate:"omitempty,oneof=gender age origin education_path other"`
	From           string `validate:"omitempty,datetime=2006-01-02"`
	To             string `validate:"omitempty,datetime=2006-01-02"`
}

// parseFilter reads and validates the common filter query parameters.
func (h *Handler) parseFilter(r *http.Request) (services.Filter, error) {
	q := r.URL.Query()
	fq := filterQuery{
		Program:        q.Get("program"),
		EvaluationType: q.Get("evaluation_type"),
		QuestionType:   q.Get("question_type"),
		Theme:          q.Get("theme"),
		Segment:        q.Get("segment"),
		From:           q.Get("from"),
		To:             q.Get("to"),
	}
	if err := h.validate.Struct(&fq); err != nil {
		return services.Filter{}, err
	}

	filter := services.Filter{
		Program:        fq.Program,
		EvaluationType: domain.EvaluationType(fq.EvaluationType),
		QuestionType:   domain.QuestionType(fq.QuestionType),
		Theme:          fq.Theme,
		Segment:        domain.SegmentKind(fq.Segment),
	}
	if fq.From != "" {
		filter.From, _ = time.Parse(queryDateLayout, fq.From)
	}
	if fq.To != "" {
		filter.To, _ = time.Parse(queryDateLayout, fq.To)
	}
	return filter, nil
}

// parseGroupBy reads the group_by parameter, defaulting to theme.
func parseGroupBy(r *http.Request) (analytics.GroupBy, error) {
	groupBy := analytics.GroupBy(r.URL.Query().Get("group_by"))
	if groupBy == "" {
		return analytics.GroupByTheme, nil
	}
	if !groupBy.Valid() {
		return "", fmt.Errorf("unknown group_by %q", groupBy)
	}
	return groupBy, nil
}

// Records handles GET /records.
func (h *Handler) Records(w http.ResponseWriter, r *http.Request) {
	filter, err := h.parseFilter(r)
	if err != nil {
		h.renderError(w, r, apperrors.InvalidRequestWithError(err))
		return
	}

	records, err := h.service.Records(r.Context(), filter)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"count":   len(records),
		"records": records,
	})
}

// Timelines handles GET /timelines.
func (h *Handler) Timelines(w http.ResponseWriter, r *http.Request) {
	filter, err := h.parseFilter(r)
	if err != nil {
		h.renderError(w, r, apperrors.InvalidRequestWithError(err))
		return
	}
	groupBy, err := parseGroupBy(r)
	if err != nil {
		h.renderError(w, r, apperrors.InvalidRequestWithError(err))
		return
	}

	series, err := h.service.Timelines(r.Context(), groupBy, filter)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"group_by":  groupBy,
		"timelines": series,
	})
}

// Trends handles GET /trends.
func (h *Handler) Trends(w http.ResponseWriter, r *http.Request) {
	filter, err := h.parseFilter(r)
	if err != nil {
		h.renderError(w, r, apperrors.InvalidRequestWithError(err))
		return
	}
	groupBy, err := parseGroupBy(r)
	if err != nil {
		h.renderError(w, r, apperrors.InvalidRequestWithError(err))
		return
	}

	trends, err := h.service.Trends(r.Context(), groupBy, filter)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"group_by": groupBy,
		"trends":   trends,
	})
}

// Insights handles GET /insights.
func (h *Handler) Insights(w http.ResponseWriter, r *http.Request) {
	filter, err := h.parseFilter(r)
	if err != nil {
		h.renderError(w, r, apperrors.InvalidRequestWithError(err))
		return
	}

	insights, err := h.service.Insights(r.Context(), filter)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	render.JSON(w, r, insights)
}

// Themes handles GET /themes.
func (h *Handler) Themes(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"themes": h.service.Themes(r.Context()),
	})
}

// Programs handles GET /programs.
func (h *Handler) Programs(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"programs": h.service.Programs(r.Context()),
	})
}

// Export handles GET /export, streaming the filtered dataset as CSV.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	filter, err := h.parseFilter(r)
	if err != nil {
		h.renderError(w, r, apperrors.InvalidRequestWithError(err))
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="evalpulse_export_%s.csv"`, time.Now().UTC().Format("20060102")))

	count, err := h.service.ExportCSV(r.Context(), w, filter)
	if err != nil {
		// Headers may already be out; log instead of re-rendering.
		h.logger.ErrorContext(r.Context(), "CSV export failed", slog.String("error", err.Error()))
		return
	}

	h.logger.InfoContext(r.Context(), "CSV export served", slog.Int("records", count))
}

// healthResponse is the GET /health payload. Dataset is nil until the first
// successful ingest.
type healthResponse struct {
	Status    string        `json:"status"`
	Version   string        `json:"version"`
	Timestamp time.Time     `json:"timestamp"`
	Dataset   *datasetStats `json:"dataset,omitempty"`
}

type datasetStats struct {
	BatchID    string    `json:"batch_id"`
	Records    int       `json:"records"`
	Files      int       `json:"files"`
	IngestedAt time.Time `json:"ingested_at"`
}

// Version is set at build time.
var Version = "dev"

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    "healthy",
		Version:   Version,
		Timestamp: time.Now().UTC(),
	}

	// No dataset yet is still healthy.
	if report, err := h.service.Report(r.Context()); err == nil {
		resp.Dataset = &datasetStats{
			BatchID:    report.BatchID,
			Records:    report.TotalRecords,
			Files:      len(report.Files),
			IngestedAt: report.IngestedAt,
		}
	}

	render.JSON(w, r, resp)
}

// respondError maps service errors to API errors.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		switch appErr.Type {
		case apperrors.ErrTypeValidation:
			h.renderError(w, r, apperrors.NewWithDetails(http.StatusBadRequest, "VALIDATION_FAILED", appErr.Message, appErr.Context))
			return
		case apperrors.ErrTypeNotFound:
			h.renderError(w, r, apperrors.ErrDatasetNotFound)
			return
		case apperrors.ErrTypeParsing:
			h.renderError(w, r, apperrors.NewWithDetails(http.StatusUnprocessableEntity, "PARSING_FAILED", appErr.Message, appErr.Context))
			return
		}
	}

	h.logger.ErrorContext(r.Context(), "request failed",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()))
	h.renderError(w, r, apperrors.ErrInternalServer)
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, apiErr *apperrors.APIError) {
	if err := render.Render(w, r, apperrors.NewErrorResponse(apiErr)); err != nil {
		apperrors.WriteError(w, apiErr)
	}
}
