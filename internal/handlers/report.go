package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/carbontrace/apiserver/internal/services"
	"github.com/carbontrace/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// ReportHandler provides HTTP handlers for report export.
type ReportHandler struct {
	reportService *services.ReportService
	userService   *services.UserService
}

// NewReportHandler constructs a handler with the provided services.
func NewReportHandler(reportService *services.ReportService, userService *services.UserService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		userService:   userService,
	}
}

// ReportRouter registers report routes on the given router. All routes
// require authentication.
func ReportRouter(r chi.Router, reportService *services.ReportService, userService *services.UserService) {
	handler := NewReportHandler(reportService, userService)

	r.Post("/export", handler.ExportReport)
}

// ExportReport renders the caller's analytics for the requested range as
// CSV and archives it in object storage.
func (h *ReportHandler) ExportReport(w http.ResponseWriter, r *http.Request) {
	_, ownerFilter, err := ownerScope(r.Context(), h.userService)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	start, end, err := parseDateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	timeframe := strings.TrimSpace(r.URL.Query().Get("timeframe"))
	if timeframe == "" {
		timeframe = types.TimeframeMonth
	}

	ref, err := h.reportService.Export(r.Context(), ownerFilter, start, end, timeframe)
	if err != nil {
		if errors.Is(err, services.ErrArchiveDisabled) {
			writeError(w, http.StatusServiceUnavailable, "report export is not configured")
			return
		}
		writeServiceError(w, err, "report not found", "failed to export report")
		return
	}

	writeJSON(w, http.StatusCreated, ref)
}
