package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/carbontrace/apiserver/internal/services"
	"github.com/carbontrace/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// CompanyHandler provides HTTP handlers for companies.
type CompanyHandler struct {
	companyService *services.CompanyService
}

// NewCompanyHandler constructs a handler with the provided service.
func NewCompanyHandler(companyService *services.CompanyService) *CompanyHandler {
	return &CompanyHandler{companyService: companyService}
}

// CompanyRouter registers company routes on the given router.
func CompanyRouter(r chi.Router, companyService *services.CompanyService) {
	handler := NewCompanyHandler(companyService)

	r.Get("/", handler.ListCompanies)
	r.Post("/", handler.CreateCompany)
	r.Route("/{companyID}", func(r chi.Router) {
		r.Get("/", handler.GetCompany)
		r.Put("/", handler.UpdateCompany)
		r.Delete("/", handler.DeleteCompany)
	})
}

func (h *CompanyHandler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := h.companyService.List(r.Context(), offset, limit)
	if err != nil {
		writeServiceError(w, err, "company not found", "failed to list companies")
		return
	}

	writeJSON(w, http.StatusOK, CompanyListResponse{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

func (h *CompanyHandler) GetCompany(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "companyID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	company, err := h.companyService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "company not found", "failed to fetch company")
		return
	}

	writeJSON(w, http.StatusOK, company)
}

func (h *CompanyHandler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	var company types.Company
	if err := json.NewDecoder(r.Body).Decode(&company); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	created, err := h.companyService.Create(r.Context(), company)
	if err != nil {
		writeServiceError(w, err, "company not found", "failed to create company")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *CompanyHandler) UpdateCompany(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "companyID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var company types.Company
	if err := json.NewDecoder(r.Body).Decode(&company); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	company.ID = id

	updated, err := h.companyService.Update(r.Context(), company)
	if err != nil {
		writeServiceError(w, err, "company not found", "failed to update company")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *CompanyHandler) DeleteCompany(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "companyID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.companyService.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err, "company not found", "failed to delete company")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CompanyListResponse is the paginated list response payload.
type CompanyListResponse struct {
	Items []types.Company `json:"items"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
	Total int             `json:"total"`
}
