package domain

import "errors"

// Error kinds raised by the order engine. Returned errors wrap one of these
// with the offending value, so callers should match with errors.Is.
var (
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrInvalidQuantity      = errors.New("invalid quantity")
	ErrInvalidDiscount      = errors.New("invalid discount")
	ErrInvalidPayment       = errors.New("invalid payment")
	ErrPaymentDeclined      = errors.New("payment declined")
	ErrProductNotFound      = errors.New("product not found")
	ErrStockInsufficient    = errors.New("insufficient stock")
	ErrEmptyOrder           = errors.New("order has no items")
	ErrIOFailure            = errors.New("invoice i/o failure")
	ErrInvalidState         = errors.New("invalid order state")
	ErrOrderNotFound        = errors.New("order not found")
)
