package companies

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/closeboard/internal/competency"
	"github.com/odyssey-erp/closeboard/internal/masterdata/shared"
	"github.com/odyssey-erp/closeboard/internal/platform/httpx"
)

type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers the registry endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/companies", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Show)
		r.Delete("/{id}", h.Delete)
		r.Put("/{id}/start", h.UpdateStart)
		r.Post("/{id}/toggle", h.Toggle)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := shared.ListFilters{
		Search:  q.Get("search"),
		SortBy:  q.Get("sort"),
		SortDir: q.Get("dir"),
	}
	if raw := q.Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			httpx.InvalidFields(w, map[string]string{"active": "boolean"})
			return
		}
		filters.IsActive = &active
	}
	for name, dest := range map[string]*int{"page": &filters.Page, "perPage": &filters.PerPage} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			httpx.InvalidFields(w, map[string]string{name: "min=1"})
			return
		}
		*dest = n
	}
	companies := h.service.Filter(filters)
	page := shared.NewPagination(filters.Page, filters.PerPage, len(companies))
	start, end := page.Bounds()
	httpx.JSON(w, http.StatusOK, listResponse{Companies: companies[start:end], Total: len(companies), Pagination: page})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	company, err := h.service.Get(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, company)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var form CompanyForm
	if !httpx.DecodeAndValidate(w, r, h.validator, &form) {
		return
	}
	start, err := competency.Parse(form.Start)
	if err != nil {
		httpx.InvalidFields(w, map[string]string{"competenciaInicial": "competency"})
		return
	}
	created, err := h.service.AddCompany(r.Context(), form.Code, start)
	if err != nil {
		h.logger.Error("create company failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Location", "/api/companies/"+created.ID)
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdateStart(w http.ResponseWriter, r *http.Request) {
	var form StartForm
	if !httpx.DecodeAndValidate(w, r, h.validator, &form) {
		return
	}
	start, err := competency.Parse(form.Start)
	if err != nil {
		httpx.InvalidFields(w, map[string]string{"competenciaInicial": "competency"})
		return
	}
	id := chi.URLParam(r, "id")
	company, err := h.service.UpdateStartCompetency(r.Context(), id, start)
	if err != nil {
		h.logger.Error("update start competency failed", slog.Any("error", err), slog.String("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, company)
}

func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	company, err := h.service.ToggleActive(r.Context(), id)
	if err != nil {
		h.logger.Error("toggle company failed", slog.Any("error", err), slog.String("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, company)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.RemoveCompany(r.Context(), id); err != nil {
		h.logger.Error("delete company failed", slog.Any("error", err), slog.String("id", id))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
