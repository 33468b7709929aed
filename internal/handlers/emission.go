package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/carbontrace/apiserver/internal/services"
	"github.com/carbontrace/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// EmissionHandler provides HTTP handlers for emission records and the
// aggregated analytics view.
type EmissionHandler struct {
	emissionService  *services.EmissionService
	analyticsService *services.AnalyticsService
	userService      *services.UserService
}

// NewEmissionHandler constructs a handler with the provided services.
func NewEmissionHandler(emissionService *services.EmissionService, analyticsService *services.AnalyticsService, userService *services.UserService) *EmissionHandler {
	return &EmissionHandler{
		emissionService:  emissionService,
		analyticsService: analyticsService,
		userService:      userService,
	}
}

// EmissionRouter registers emission routes on the given router. All
// routes require authentication; admins see every owner's records.
func EmissionRouter(r chi.Router, emissionService *services.EmissionService, analyticsService *services.AnalyticsService, userService *services.UserService) {
	handler := NewEmissionHandler(emissionService, analyticsService, userService)

	r.Get("/", handler.ListEmissions)
	r.Post("/", handler.CreateEmission)
	r.Get("/analytics", handler.GetAnalytics)
	r.Route("/{emissionID}", func(r chi.Router) {
		r.Get("/", handler.GetEmission)
		r.Delete("/", handler.DeleteEmission)
	})
}

func (h *EmissionHandler) ListEmissions(w http.ResponseWriter, r *http.Request) {
	_, ownerFilter, err := ownerScope(r.Context(), h.userService)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := h.emissionService.List(r.Context(), ownerFilter, offset, limit)
	if err != nil {
		writeServiceError(w, err, "emission record not found", "failed to list emission records")
		return
	}
	if items == nil {
		items = []types.EmissionRecord{}
	}

	writeJSON(w, http.StatusOK, EmissionListResponse{
		Items: items,
		Page:  page,
		Limit: limit,
	})
}

func (h *EmissionHandler) GetEmission(w http.ResponseWriter, r *http.Request) {
	_, ownerFilter, err := ownerScope(r.Context(), h.userService)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseIDParam(r, "emissionID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	record, err := h.emissionService.Get(r.Context(), id, ownerFilter)
	if err != nil {
		writeServiceError(w, err, "emission record not found", "failed to fetch emission record")
		return
	}

	writeJSON(w, http.StatusOK, record)
}

func (h *EmissionHandler) CreateEmission(w http.ResponseWriter, r *http.Request) {
	callerID, _, err := ownerScope(r.Context(), h.userService)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req EmissionCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	record, err := req.toRecord()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.emissionService.Create(r.Context(), record, callerID)
	if err != nil {
		writeServiceError(w, err, "emission record not found", "failed to create emission record")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *EmissionHandler) DeleteEmission(w http.ResponseWriter, r *http.Request) {
	_, ownerFilter, err := ownerScope(r.Context(), h.userService)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseIDParam(r, "emissionID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.emissionService.Delete(r.Context(), id, ownerFilter); err != nil {
		writeServiceError(w, err, "emission record not found", "failed to delete emission record")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetAnalytics returns the aggregated emissions view for the caller's
// scope over start_date..end_date (inclusive, defaulting to the trailing
// thirty days), bucketed per the timeframe parameter.
func (h *EmissionHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
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

	analytics, err := h.analyticsService.Overview(r.Context(), ownerFilter, start, end, timeframe)
	if err != nil {
		writeServiceError(w, err, "emission record not found", "failed to compute analytics")
		return
	}

	writeJSON(w, http.StatusOK, analytics)
}

// EmissionCreateRequest is the create payload. Two field revisions exist
// in the wild; the legacy names (emission_value, type, emission_unit,
// date, reporting_period) are accepted as aliases of the canonical ones.
type EmissionCreateRequest struct {
	CompanyID  *int   `json:"company_id"`
	SupplierID *int   `json:"supplier_id"`
	Scope      string `json:"scope"`

	Category string `json:"category"`
	Type     string `json:"type"`

	Amount        *float64 `json:"amount"`
	EmissionValue *float64 `json:"emission_value"`

	Unit         string `json:"unit"`
	EmissionUnit string `json:"emission_unit"`

	CO2PerUnit *float64 `json:"co2_per_unit"`

	OccurredAt      string `json:"occurred_at"`
	Date            string `json:"date"`
	ReportingPeriod string `json:"reporting_period"`

	DataQuality string `json:"data_quality"`
	Description string `json:"description"`
}

// toRecord normalizes the request onto the canonical field set. A legacy
// emission_value with no co2_per_unit is treated as an already-converted
// CO2e quantity, so the factor defaults to 1.
func (req EmissionCreateRequest) toRecord() (types.EmissionRecord, error) {
	record := types.EmissionRecord{
		CompanyID:   req.CompanyID,
		SupplierID:  req.SupplierID,
		Scope:       strings.TrimSpace(req.Scope),
		Category:    strings.TrimSpace(req.Category),
		Unit:        strings.TrimSpace(req.Unit),
		DataQuality: strings.TrimSpace(req.DataQuality),
		Description: strings.TrimSpace(req.Description),
	}

	if record.Category == "" {
		record.Category = strings.TrimSpace(req.Type)
	}
	if record.Unit == "" {
		record.Unit = strings.TrimSpace(req.EmissionUnit)
	}

	switch {
	case req.Amount != nil:
		record.Amount = *req.Amount
		if req.CO2PerUnit == nil {
			return types.EmissionRecord{}, errors.New("co2_per_unit is required with amount")
		}
		record.CO2PerUnit = *req.CO2PerUnit
	case req.EmissionValue != nil:
		record.Amount = *req.EmissionValue
		record.CO2PerUnit = 1
		if req.CO2PerUnit != nil {
			record.CO2PerUnit = *req.CO2PerUnit
		}
	default:
		return types.EmissionRecord{}, errors.New("amount is required")
	}

	rawDate := strings.TrimSpace(req.OccurredAt)
	if rawDate == "" {
		rawDate = strings.TrimSpace(req.Date)
	}
	if rawDate == "" {
		rawDate = strings.TrimSpace(req.ReportingPeriod)
	}
	if rawDate == "" {
		return types.EmissionRecord{}, errors.New("occurred_at is required")
	}

	occurredAt, err := parseFlexibleDate(rawDate)
	if err != nil {
		return types.EmissionRecord{}, err
	}
	record.OccurredAt = occurredAt

	return record, nil
}

func parseFlexibleDate(raw string) (time.Time, error) {
	for _, layout := range []string{dateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("invalid date, expected YYYY-MM-DD or RFC 3339")
}

// EmissionListResponse is the paginated list response payload.
type EmissionListResponse struct {
	Items []types.EmissionRecord `json:"items"`
	Page  int                    `json:"page"`
	Limit int                    `json:"limit"`
}
