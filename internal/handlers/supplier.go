package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/carbontrace/apiserver/internal/services"
	"github.com/carbontrace/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// SupplierHandler provides HTTP handlers for suppliers.
type SupplierHandler struct {
	supplierService *services.SupplierService
}

// NewSupplierHandler constructs a handler with the provided service.
func NewSupplierHandler(supplierService *services.SupplierService) *SupplierHandler {
	return &SupplierHandler{supplierService: supplierService}
}

// SupplierRouter registers supplier routes on the given router.
func SupplierRouter(r chi.Router, supplierService *services.SupplierService) {
	handler := NewSupplierHandler(supplierService)

	r.Get("/", handler.ListSuppliers)
	r.Post("/", handler.CreateSupplier)
	r.Route("/{supplierID}", func(r chi.Router) {
		r.Get("/", handler.GetSupplier)
		r.Delete("/", handler.DeleteSupplier)
	})
}

func (h *SupplierHandler) ListSuppliers(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := h.supplierService.List(r.Context(), offset, limit)
	if err != nil {
		writeServiceError(w, err, "supplier not found", "failed to list suppliers")
		return
	}

	writeJSON(w, http.StatusOK, SupplierListResponse{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

func (h *SupplierHandler) GetSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "supplierID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	supplier, err := h.supplierService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "supplier not found", "failed to fetch supplier")
		return
	}

	writeJSON(w, http.StatusOK, supplier)
}

func (h *SupplierHandler) CreateSupplier(w http.ResponseWriter, r *http.Request) {
	var supplier types.Supplier
	if err := json.NewDecoder(r.Body).Decode(&supplier); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	created, err := h.supplierService.Create(r.Context(), supplier)
	if err != nil {
		writeServiceError(w, err, "supplier not found", "failed to create supplier")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *SupplierHandler) DeleteSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "supplierID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.supplierService.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err, "supplier not found", "failed to delete supplier")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SupplierListResponse is the paginated list response payload.
type SupplierListResponse struct {
	Items []types.Supplier `json:"items"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
	Total int              `json:"total"`
}
