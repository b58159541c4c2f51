package http

import (
	"net/http"

	"github.com/dejobratic/puravida/internal/analytics"
	"github.com/dejobratic/puravida/internal/httpx"
	"github.com/go-chi/chi/v5"
)

// Handler serves the operations dashboard and the loyalty recalculation.
type Handler struct {
	dashboard *analytics.Dashboard
	loyalty   *analytics.LoyaltyTask
}

func NewHandler(dashboard *analytics.Dashboard, loyalty *analytics.LoyaltyTask) *Handler {
	return &Handler{dashboard: dashboard, loyalty: loyalty}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/v1/analytics", func(r chi.Router) {
		r.Get("/dashboard", h.dashboardText)
		r.Get("/dashboard.json", h.dashboardJSON)
		r.Post("/loyalty", h.recalculateLoyalty)
	})
}

func (h *Handler) dashboardText(w http.ResponseWriter, r *http.Request) {
	text, err := h.dashboard.Text(r.Context())
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	httpx.WriteText(w, http.StatusOK, text)
}

func (h *Handler) dashboardJSON(w http.ResponseWriter, r *http.Request) {
	report, err := h.dashboard.Build(r.Context())
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	httpx.WriteJSON(w, http.StatusOK, report)
}

// recalculateLoyalty runs the task bound to the request; a client that hangs
// up cancels it.
func (h *Handler) recalculateLoyalty(w http.ResponseWriter, r *http.Request) {
	run := h.loyalty.Start(r.Context(), analytics.Listener{})

	result, err := run.Wait()
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	httpx.WriteJSON(w, http.StatusOK, result)
}
