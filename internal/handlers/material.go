package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/carbontrace/apiserver/internal/services"
	"github.com/carbontrace/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// MaterialHandler provides HTTP handlers for the material catalog.
type MaterialHandler struct {
	materialService *services.MaterialService
}

// NewMaterialHandler constructs a handler with the provided service.
func NewMaterialHandler(materialService *services.MaterialService) *MaterialHandler {
	return &MaterialHandler{materialService: materialService}
}

// MaterialRouter registers material routes on the given router.
func MaterialRouter(r chi.Router, materialService *services.MaterialService) {
	handler := NewMaterialHandler(materialService)

	r.Get("/", handler.ListMaterials)
	r.Post("/", handler.CreateMaterial)
	r.Route("/{materialID}", func(r chi.Router) {
		r.Get("/", handler.GetMaterial)
		r.Delete("/", handler.DeleteMaterial)
	})
}

func (h *MaterialHandler) ListMaterials(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := h.materialService.List(r.Context(), offset, limit)
	if err != nil {
		writeServiceError(w, err, "material not found", "failed to list materials")
		return
	}

	writeJSON(w, http.StatusOK, MaterialListResponse{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

func (h *MaterialHandler) GetMaterial(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "materialID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	material, err := h.materialService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "material not found", "failed to fetch material")
		return
	}

	writeJSON(w, http.StatusOK, material)
}

func (h *MaterialHandler) CreateMaterial(w http.ResponseWriter, r *http.Request) {
	var material types.Material
	if err := json.NewDecoder(r.Body).Decode(&material); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	created, err := h.materialService.Create(r.Context(), material)
	if err != nil {
		writeServiceError(w, err, "material not found", "failed to create material")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *MaterialHandler) DeleteMaterial(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "materialID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.materialService.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err, "material not found", "failed to delete material")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MaterialListResponse is the paginated list response payload.
type MaterialListResponse struct {
	Items []types.Material `json:"items"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
	Total int              `json:"total"`
}
