package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dejobratic/puravida/internal/httpx"
	"github.com/dejobratic/puravida/internal/orders/app"
	"github.com/dejobratic/puravida/internal/orders/app/queries"
	"github.com/dejobratic/puravida/internal/orders/domain"
	"github.com/dejobratic/puravida/internal/orders/ports"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	idempotencyHeader = "Idempotency-Key"
	replayHeader      = "Idempotent-Replayed"

	operationCreate   = "create_order"
	operationFinalize = "finalize_order"

	maxInvoiceBytes = 1 << 20
)

// InvoiceVerifier checks the control code of a rendered invoice.
type InvoiceVerifier interface {
	Verify(document []byte) (bool, error)
}

// Handler exposes HTTP endpoints for order operations.
type Handler struct {
	service  *app.Service
	verifier InvoiceVerifier
}

// NewHandler constructs a Handler.
func NewHandler(service *app.Service, verifier InvoiceVerifier) *Handler {
	return &Handler{service: service, verifier: verifier}
}

// Register binds the order and invoice routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/v1/orders", func(r chi.Router) {
		r.Post("/", h.createOrder)
		r.Get("/", h.listOrders)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getOrder)
			r.Get("/invoices", h.listInvoices)
			r.Post("/items", h.addItem)
			r.Post("/discount", h.applyDiscount)
			r.Post("/payment", h.processPayment)
			r.Post("/finalize", h.finalizeOrder)
		})
	})
	r.Post("/v1/invoices/verify", h.verifyInvoice)
}

type orderResponse struct {
	domain.Snapshot
	Subtotal float64 `json:"subtotal"`
	Total    float64 `json:"total"`
}

func toResponse(order *domain.Order) orderResponse {
	return orderResponse{
		Snapshot: order.Snapshot(),
		Subtotal: order.Subtotal(),
		Total:    order.Total(),
	}
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idemKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))

	if idemKey != "" && h.replay(w, r, idemKey, operationCreate, "") {
		return
	}

	var payload app.CreateOrderInput
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if strings.TrimSpace(payload.OrderID) == "" {
		payload.OrderID = uuid.NewString()
	}

	order, err := h.service.CreateOrder(ctx, payload)
	if err != nil && order == nil {
		writeServiceError(w, err)
		return
	}
	if err != nil {
		slog.WarnContext(ctx, "order created with warnings", "order_id", order.ID, "error", err)
	}

	h.respond(w, r, idemKey, operationCreate, order.ID, http.StatusCreated, map[string]any{"order": toResponse(order)})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"order": toResponse(order)})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	query := queries.ListOrdersQuery{
		Status:     params.Get("status"),
		CustomerID: params.Get("customer_id"),
	}

	var err error
	if query.Page, err = intParam(params.Get("page")); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_argument", "page must be an integer")
		return
	}
	if query.PageSize, err = intParam(params.Get("page_size")); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_argument", "page_size must be an integer")
		return
	}

	orders, err := h.service.ListOrders(r.Context(), query)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response := make([]orderResponse, 0, len(orders))
	for _, order := range orders {
		response = append(response, toResponse(order))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"orders": response})
}

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.service.ListInvoices(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"invoices": invoices})
}

type addItemRequest struct {
	ProductCode string `json:"product_code"`
	Quantity    int    `json:"quantity"`
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var payload addItemRequest
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	order, err := h.service.AddItemToOrder(r.Context(), chi.URLParam(r, "id"), payload.ProductCode, payload.Quantity)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"order": toResponse(order)})
}

type discountRequest struct {
	Percent float64 `json:"percent"`
}

func (h *Handler) applyDiscount(w http.ResponseWriter, r *http.Request) {
	var payload discountRequest
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	order, err := h.service.ApplyDiscount(r.Context(), chi.URLParam(r, "id"), payload.Percent)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"order": toResponse(order)})
}

func (h *Handler) processPayment(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.ProcessPayment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if order != nil && errors.Is(err, domain.ErrPaymentDeclined) {
			httpx.WriteJSON(w, http.StatusPaymentRequired, map[string]any{
				"error":   "payment_declined",
				"message": err.Error(),
				"order":   toResponse(order),
			})
			return
		}
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"order": toResponse(order)})
}

type finalizeRequest struct {
	InvoicePath string `json:"invoice_path"`
}

// finalizeOrder writes the invoice to invoice_path, or to "<id>.txt" under the
// configured invoice directory when the body is empty.
func (h *Handler) finalizeOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := chi.URLParam(r, "id")
	idemKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))

	if idemKey != "" && h.replay(w, r, idemKey, operationFinalize, orderID) {
		return
	}

	var payload finalizeRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &payload); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_json", err.Error())
			return
		}
	} else {
		payload.InvoicePath = orderID + ".txt"
	}

	result, err := h.service.FinalizeOrder(ctx, orderID, payload.InvoicePath)
	if err != nil && result == nil {
		writeServiceError(w, err)
		return
	}

	response := map[string]any{
		"order":   toResponse(result.Order),
		"invoice": result.Invoice,
	}
	if err != nil {
		slog.WarnContext(ctx, "order invoiced with warnings", "order_id", orderID, "error", err)
		response["warning"] = err.Error()
	}

	h.respond(w, r, idemKey, operationFinalize, orderID, http.StatusOK, response)
}

type verifyResponse struct {
	Valid bool `json:"valid"`
}

func (h *Handler) verifyInvoice(w http.ResponseWriter, r *http.Request) {
	document, err := io.ReadAll(io.LimitReader(r.Body, maxInvoiceBytes))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	valid, err := h.verifier.Verify(document)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, verifyResponse{Valid: valid})
}

// replay writes a stored response for key and reports whether it did.
func (h *Handler) replay(w http.ResponseWriter, r *http.Request, key, operation, orderID string) bool {
	stored, err := h.service.GetIdempotentResponse(r.Context(), key)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "idempotency_error", err.Error())
		return true
	}
	if stored == nil {
		return false
	}
	if stored.Operation != operation || (orderID != "" && stored.OrderID != orderID) {
		httpx.WriteError(w, http.StatusUnprocessableEntity, "idempotency_key_reused",
			"Idempotency-Key was already used for a different request")
		return true
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(replayHeader, "true")
	w.WriteHeader(stored.StatusCode)
	_, _ = w.Write(stored.Body)
	return true
}

// respond writes payload and, when key is set, stores it for replay.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, key, operation, orderID string, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	if key != "" {
		stored := ports.StoredResponse{
			Operation:  operation,
			StatusCode: status,
			Body:       body,
			OrderID:    orderID,
		}
		if err := h.service.SaveIdempotentResponse(r.Context(), key, stored); err != nil {
			slog.ErrorContext(r.Context(), "failed to store idempotent response", "key", key, "error", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
