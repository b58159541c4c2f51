package http

import (
	"errors"
	"net/http"

	"github.com/dejobratic/puravida/internal/customers/app"
	"github.com/dejobratic/puravida/internal/customers/domain"
	"github.com/dejobratic/puravida/internal/httpx"
	"github.com/go-chi/chi/v5"
)

// Handler exposes the customer registry.
type Handler struct {
	service *app.Service
}

func NewHandler(service *app.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/v1/customers", func(r chi.Router) {
		r.Post("/", h.register)
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var customer domain.Customer
	if err := httpx.DecodeJSON(r, &customer); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	created, err := h.service.Register(r.Context(), customer)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"customer": created})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	customers, err := h.service.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"customers": customers})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	customer, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"customer": customer})
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrCustomerNotFound):
		httpx.WriteError(w, http.StatusNotFound, "customer_not_found", err.Error())
	case errors.Is(err, app.ErrDuplicateCustomer):
		httpx.WriteError(w, http.StatusConflict, "duplicate_customer", err.Error())
	case errors.Is(err, app.ErrInvalidCustomer):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_customer", err.Error())
	default:
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
