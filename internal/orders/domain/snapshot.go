package domain

import (
	"fmt"
	"time"
)

// Snapshot is the persisted and serialized form of an Order.
type Snapshot struct {
	ID            string      `json:"id"`
	Customer      CustomerRef `json:"customer"`
	Status        OrderStatus `json:"status"`
	Items         []Item      `json:"items"`
	Discount      float64     `json:"discount"`
	TaxRate       float64     `json:"tax_rate"`
	PaymentMethod string      `json:"payment_method"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Snapshot captures the current state of o.
func (o *Order) Snapshot() Snapshot {
	return Snapshot{
		ID:            o.ID,
		Customer:      o.Customer,
		Status:        o.Status,
		Items:         o.Items(),
		Discount:      o.discount,
		TaxRate:       o.taxRate,
		PaymentMethod: o.payment.Method(),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

// Restore rebuilds an order from a snapshot. The caller resolves the strategy
// from Snapshot.PaymentMethod.
func Restore(s Snapshot, payment PaymentStrategy) (*Order, error) {
	if s.ID == "" {
		return nil, fmt.Errorf("%w: order id is required", ErrInvalidArgument)
	}
	if payment == nil {
		return nil, fmt.Errorf("%w: no strategy for %q", ErrInvalidPaymentMethod, s.PaymentMethod)
	}
	if s.Discount < 0 || s.Discount > 100 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDiscount, s.Discount)
	}
	if s.TaxRate < 0 {
		return nil, fmt.Errorf("%w: tax rate %v", ErrInvalidArgument, s.TaxRate)
	}
	for _, item := range s.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: %d for product %s", ErrInvalidQuantity, item.Quantity, item.ProductCode)
		}
	}

	items := make([]Item, len(s.Items))
	copy(items, s.Items)

	return &Order{
		ID:        s.ID,
		Customer:  s.Customer,
		Status:    s.Status,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		items:     items,
		discount:  s.Discount,
		taxRate:   s.TaxRate,
		payment:   payment,
	}, nil
}
