package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/carbontrace/apiserver/internal/services"
	"github.com/carbontrace/apiserver/internal/store"
	"github.com/carbontrace/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// PredictionHandler provides HTTP handlers for model predictions.
type PredictionHandler struct {
	predictionService *services.PredictionService
	userService       *services.UserService
}

// NewPredictionHandler constructs a handler with the provided services.
func NewPredictionHandler(predictionService *services.PredictionService, userService *services.UserService) *PredictionHandler {
	return &PredictionHandler{
		predictionService: predictionService,
		userService:       userService,
	}
}

// PredictionRouter registers prediction routes on the given router. All
// routes require authentication.
func PredictionRouter(r chi.Router, predictionService *services.PredictionService, userService *services.UserService) {
	handler := NewPredictionHandler(predictionService, userService)

	r.Post("/predict", handler.Predict)
	r.Get("/", handler.ListPredictions)
	r.Get("/model-metadata", handler.ListModelMetadata)
	r.Route("/{predictionID}", func(r chi.Router) {
		r.Get("/", handler.GetPrediction)
		r.Delete("/", handler.DeletePrediction)
	})
}

// Predict scores the payload against the external model and stores the
// result for the caller.
func (h *PredictionHandler) Predict(w http.ResponseWriter, r *http.Request) {
	callerID, _, err := ownerScope(r.Context(), h.userService)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	prediction, err := h.predictionService.Record(r.Context(), callerID, req.CompanyID, req.InputData, strings.TrimSpace(req.PredictionType))
	if err != nil {
		writeServiceError(w, err, "prediction not found", "failed to create prediction")
		return
	}

	writeJSON(w, http.StatusCreated, prediction)
}

func (h *PredictionHandler) ListPredictions(w http.ResponseWriter, r *http.Request) {
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

	filter := store.PredictionFilter{
		OwnerID: ownerFilter,
		Type:    strings.TrimSpace(r.URL.Query().Get("prediction_type")),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("company_id")); raw != "" {
		companyID, err := strconv.Atoi(raw)
		if err != nil || companyID < 1 {
			writeError(w, http.StatusBadRequest, "invalid company_id")
			return
		}
		filter.CompanyID = &companyID
	}

	items, err := h.predictionService.List(r.Context(), filter, offset, limit)
	if err != nil {
		writeServiceError(w, err, "prediction not found", "failed to list predictions")
		return
	}
	if items == nil {
		items = []types.Prediction{}
	}

	writeJSON(w, http.StatusOK, PredictionListResponse{
		Items: items,
		Page:  page,
		Limit: limit,
	})
}

func (h *PredictionHandler) GetPrediction(w http.ResponseWriter, r *http.Request) {
	_, ownerFilter, err := ownerScope(r.Context(), h.userService)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseIDParam(r, "predictionID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	prediction, err := h.predictionService.Get(r.Context(), id, ownerFilter)
	if err != nil {
		writeServiceError(w, err, "prediction not found", "failed to fetch prediction")
		return
	}

	writeJSON(w, http.StatusOK, prediction)
}

func (h *PredictionHandler) DeletePrediction(w http.ResponseWriter, r *http.Request) {
	_, ownerFilter, err := ownerScope(r.Context(), h.userService)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseIDParam(r, "predictionID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.predictionService.Delete(r.Context(), id, ownerFilter); err != nil {
		writeServiceError(w, err, "prediction not found", "failed to delete prediction")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListModelMetadata returns the scoring model catalog, optionally
// filtered by model_version.
func (h *PredictionHandler) ListModelMetadata(w http.ResponseWriter, r *http.Request) {
	modelVersion := strings.TrimSpace(r.URL.Query().Get("model_version"))

	items, err := h.predictionService.ModelMetadata(r.Context(), modelVersion)
	if err != nil {
		writeServiceError(w, err, "model metadata not found", "failed to list model metadata")
		return
	}
	if items == nil {
		items = []types.ModelMetadata{}
	}

	writeJSON(w, http.StatusOK, items)
}

// PredictRequest is the scoring payload. InputData is passed to the
// model verbatim.
type PredictRequest struct {
	InputData      json.RawMessage `json:"input_data"`
	PredictionType string          `json:"prediction_type"`
	CompanyID      *int            `json:"company_id"`
}

// PredictionListResponse is the paginated list response payload.
type PredictionListResponse struct {
	Items []types.Prediction `json:"items"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}
