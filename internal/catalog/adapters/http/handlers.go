package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/dejobratic/puravida/internal/catalog/app"
	"github.com/dejobratic/puravida/internal/catalog/domain"
	"github.com/dejobratic/puravida/internal/catalog/ports"
	"github.com/dejobratic/puravida/internal/httpx"
	"github.com/go-chi/chi/v5"
)

const maxImportBytes = 8 << 20

// Handler exposes the product catalog.
type Handler struct {
	service *app.Service
}

func NewHandler(service *app.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/v1/products", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/critical", h.critical)
		r.Post("/import", h.importCSV)
		r.Get("/{code}", h.get)
		r.Put("/{code}", h.update)
		r.Delete("/{code}", h.delete)
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var product domain.Product
	if err := httpx.DecodeJSON(r, &product); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	created, err := h.service.Add(r.Context(), product)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"product": created})
}

// list serves ?q= name search, ?category= and ?sort=price|stock|code.
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	products, err := h.service.List(r.Context(), ports.ListFilter{
		Query:    params.Get("q"),
		Category: params.Get("category"),
		Sort:     ports.SortOrder(params.Get("sort")),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (h *Handler) critical(w http.ResponseWriter, r *http.Request) {
	threshold := 0
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		var err error
		if threshold, err = strconv.Atoi(raw); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_product", "threshold must be an integer")
			return
		}
	}

	products, err := h.service.Critical(r.Context(), threshold)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.Get(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"product": product})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var product domain.Product
	if err := httpx.DecodeJSON(r, &product); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	product.Code = chi.URLParam(r, "code")

	updated, err := h.service.Update(r.Context(), product)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"product": updated})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "code")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.ImportCSV(r.Context(), io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, report)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrProductNotFound):
		httpx.WriteError(w, http.StatusNotFound, "product_not_found", err.Error())
	case errors.Is(err, app.ErrDuplicateProduct):
		httpx.WriteError(w, http.StatusConflict, "duplicate_product", err.Error())
	case errors.Is(err, app.ErrInvalidProduct):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_product", err.Error())
	default:
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
