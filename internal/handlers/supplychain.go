package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/carbontrace/apiserver/internal/services"
	"github.com/carbontrace/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// SupplyChainHandler provides HTTP handlers for supply chain entries.
type SupplyChainHandler struct {
	supplyChainService *services.SupplyChainService
	userService        *services.UserService
}

// NewSupplyChainHandler constructs a handler with the provided services.
func NewSupplyChainHandler(supplyChainService *services.SupplyChainService, userService *services.UserService) *SupplyChainHandler {
	return &SupplyChainHandler{
		supplyChainService: supplyChainService,
		userService:        userService,
	}
}

// SupplyChainRouter registers supply chain routes on the given router.
// All routes require authentication; admins see every owner's entries.
func SupplyChainRouter(r chi.Router, supplyChainService *services.SupplyChainService, userService *services.UserService) {
	handler := NewSupplyChainHandler(supplyChainService, userService)

	r.Get("/", handler.ListSupplyChains)
	r.Post("/", handler.CreateSupplyChain)
	r.Route("/{supplyChainID}", func(r chi.Router) {
		r.Get("/", handler.GetSupplyChain)
		r.Delete("/", handler.DeleteSupplyChain)
	})
}

func (h *SupplyChainHandler) ListSupplyChains(w http.ResponseWriter, r *http.Request) {
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

	items, err := h.supplyChainService.List(r.Context(), ownerFilter, offset, limit)
	if err != nil {
		writeServiceError(w, err, "supply chain not found", "failed to list supply chains")
		return
	}
	if items == nil {
		items = []types.SupplyChain{}
	}

	writeJSON(w, http.StatusOK, SupplyChainListResponse{
		Items: items,
		Page:  page,
		Limit: limit,
	})
}

func (h *SupplyChainHandler) GetSupplyChain(w http.ResponseWriter, r *http.Request) {
	_, ownerFilter, err := ownerScope(r.Context(), h.userService)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseIDParam(r, "supplyChainID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := h.supplyChainService.Get(r.Context(), id, ownerFilter)
	if err != nil {
		writeServiceError(w, err, "supply chain not found", "failed to fetch supply chain")
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

func (h *SupplyChainHandler) CreateSupplyChain(w http.ResponseWriter, r *http.Request) {
	callerID, _, err := ownerScope(r.Context(), h.userService)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var entry types.SupplyChain
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	created, err := h.supplyChainService.Create(r.Context(), entry, callerID)
	if err != nil {
		writeServiceError(w, err, "supply chain not found", "failed to create supply chain")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *SupplyChainHandler) DeleteSupplyChain(w http.ResponseWriter, r *http.Request) {
	_, ownerFilter, err := ownerScope(r.Context(), h.userService)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseIDParam(r, "supplyChainID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.supplyChainService.Delete(r.Context(), id, ownerFilter); err != nil {
		writeServiceError(w, err, "supply chain not found", "failed to delete supply chain")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SupplyChainListResponse is the paginated list response payload.
type SupplyChainListResponse struct {
	Items []types.SupplyChain `json:"items"`
	Page  int                 `json:"page"`
	Limit int                 `json:"limit"`
}
