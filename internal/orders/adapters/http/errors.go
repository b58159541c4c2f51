package http

import (
	"errors"
	"net/http"

	"github.com/dejobratic/puravida/internal/httpx"
	"github.com/dejobratic/puravida/internal/orders/domain"
)

var errorStatuses = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrOrderNotFound, http.StatusNotFound, "order_not_found"},
	{domain.ErrProductNotFound, http.StatusNotFound, "product_not_found"},
	{domain.ErrPaymentDeclined, http.StatusPaymentRequired, "payment_declined"},
	{domain.ErrStockInsufficient, http.StatusConflict, "insufficient_stock"},
	{domain.ErrInvalidState, http.StatusConflict, "invalid_state"},
	{domain.ErrEmptyOrder, http.StatusBadRequest, "empty_order"},
	{domain.ErrInvalidPaymentMethod, http.StatusBadRequest, "invalid_payment_method"},
	{domain.ErrInvalidQuantity, http.StatusBadRequest, "invalid_quantity"},
	{domain.ErrInvalidDiscount, http.StatusBadRequest, "invalid_discount"},
	{domain.ErrInvalidPayment, http.StatusBadRequest, "invalid_payment"},
	{domain.ErrInvalidArgument, http.StatusBadRequest, "invalid_argument"},
	{domain.ErrIOFailure, http.StatusInternalServerError, "invoice_io_failure"},
}

func writeServiceError(w http.ResponseWriter, err error) {
	for _, candidate := range errorStatuses {
		if errors.Is(err, candidate.err) {
			httpx.WriteError(w, candidate.status, candidate.code, err.Error())
			return
		}
	}
	httpx.WriteError(w, http.StatusInternalServerError, "internal_error", err.Error())
}
