package domain

import (
	"fmt"
	"strings"
	"time"

	catalog "github.com/dejobratic/puravida/internal/catalog/domain"
)

// OrderStatus captures the lifecycle of an order.
type OrderStatus string

const (
	StatusOpen     OrderStatus = "open"
	StatusPaid     OrderStatus = "paid"
	StatusFailed   OrderStatus = "failed"
	StatusInvoiced OrderStatus = "invoiced"
)

// DefaultTaxRate is applied to every new order.
const DefaultTaxRate = 0.13

// PaymentStrategy decides whether an amount is authorized.
type PaymentStrategy interface {
	// Method is the token the strategy was created from, e.g. "tarjeta".
	Method() string
	// DisplayName is printed on invoices.
	DisplayName() string
	Authorize(amount float64) bool
}

// CustomerRef is the buyer as seen by an order.
type CustomerRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Item is a product line. UnitPrice is captured when the line is added.
type Item struct {
	ProductCode string  `json:"product_code"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// NewItem snapshots product at quantity.
func NewItem(product catalog.Product, quantity int) (Item, error) {
	if quantity <= 0 {
		return Item{}, fmt.Errorf("%w: %d for product %s", ErrInvalidQuantity, quantity, product.Code)
	}
	return Item{
		ProductCode: product.Code,
		ProductName: product.Name,
		Quantity:    quantity,
		UnitPrice:   product.Price,
	}, nil
}

// LineTotal is quantity times the captured unit price.
func (i Item) LineTotal() float64 {
	return float64(i.Quantity) * i.UnitPrice
}

// Order is a sales order aggregate. It is not safe for concurrent mutation.
type Order struct {
	ID        string
	Customer  CustomerRef
	Status    OrderStatus
	CreatedAt time.Time
	UpdatedAt time.Time

	items    []Item
	discount float64
	taxRate  float64
	payment  PaymentStrategy
}

// NewOrder returns an open order with the default tax rate.
func NewOrder(id string, customer CustomerRef, payment PaymentStrategy, now time.Time) (*Order, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: order id is required", ErrInvalidArgument)
	}
	if payment == nil {
		return nil, fmt.Errorf("%w: payment strategy is required", ErrInvalidPaymentMethod)
	}
	return &Order{
		ID:        id,
		Customer:  customer,
		Status:    StatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
		taxRate:   DefaultTaxRate,
		payment:   payment,
	}, nil
}

// AddItem appends a line for product. Stock is not checked here.
func (o *Order) AddItem(product catalog.Product, quantity int) error {
	if err := o.ensureModifiable(); err != nil {
		return err
	}
	item, err := NewItem(product, quantity)
	if err != nil {
		return err
	}
	o.items = append(o.items, item)
	return nil
}

// SetDiscount sets the discount percentage, which must be within [0, 100].
func (o *Order) SetDiscount(percent float64) error {
	if err := o.ensureModifiable(); err != nil {
		return err
	}
	if percent < 0 || percent > 100 {
		return fmt.Errorf("%w: %v must be between 0 and 100", ErrInvalidDiscount, percent)
	}
	o.discount = percent
	return nil
}

// SetTaxRate overrides the tax rate. Negative rates are rejected.
func (o *Order) SetTaxRate(rate float64) error {
	if err := o.ensureModifiable(); err != nil {
		return err
	}
	if rate < 0 {
		return fmt.Errorf("%w: tax rate %v must not be negative", ErrInvalidArgument, rate)
	}
	o.taxRate = rate
	return nil
}

// Subtotal sums all line totals.
func (o *Order) Subtotal() float64 {
	var subtotal float64
	for _, item := range o.items {
		subtotal += item.LineTotal()
	}
	return subtotal
}

// Total applies discount then tax to the subtotal.
func (o *Order) Total() float64 {
	return o.Subtotal() * (1 - o.discount/100) * (1 + o.taxRate)
}

// ProcessPayment asks the strategy to authorize the current total.
// A decline leaves the order Failed; calling again re-attempts the payment.
func (o *Order) ProcessPayment() error {
	switch o.Status {
	case StatusPaid, StatusInvoiced:
		return fmt.Errorf("%w: order %s is already %s", ErrInvalidState, o.ID, o.Status)
	}

	total := o.Total()
	if total <= 0 {
		return fmt.Errorf("%w: total %.2f must be positive", ErrInvalidPayment, total)
	}

	if !o.payment.Authorize(total) {
		o.Status = StatusFailed
		return fmt.Errorf("%w: %s rejected $%.2f for order %s", ErrPaymentDeclined, o.payment.DisplayName(), total, o.ID)
	}

	o.Status = StatusPaid
	return nil
}

// MarkInvoiced moves a paid order to its terminal state.
func (o *Order) MarkInvoiced(now time.Time) error {
	if o.Status != StatusPaid {
		return fmt.Errorf("%w: cannot invoice order %s in status %s", ErrInvalidState, o.ID, o.Status)
	}
	o.Status = StatusInvoiced
	o.UpdatedAt = now
	return nil
}

// Items returns a copy of the order lines in insertion order.
func (o *Order) Items() []Item {
	items := make([]Item, len(o.items))
	copy(items, o.items)
	return items
}

// HasItems reports whether at least one line was added.
func (o *Order) HasItems() bool {
	return len(o.items) > 0
}

// Quantities sums item quantities per product code.
func (o *Order) Quantities() map[string]int {
	quantities := make(map[string]int, len(o.items))
	for _, item := range o.items {
		quantities[item.ProductCode] += item.Quantity
	}
	return quantities
}

func (o *Order) Discount() float64 {
	return o.discount
}

func (o *Order) TaxRate() float64 {
	return o.taxRate
}

func (o *Order) Payment() PaymentStrategy {
	return o.payment
}

// IsTerminal indicates whether the order accepts no further changes.
func (o *Order) IsTerminal() bool {
	return o.Status == StatusInvoiced
}

// Clone returns a deep copy that shares only the payment strategy.
func (o *Order) Clone() *Order {
	clone := *o
	clone.items = o.Items()
	return &clone
}

func (o *Order) ensureModifiable() error {
	switch o.Status {
	case StatusOpen, StatusFailed:
		return nil
	default:
		return fmt.Errorf("%w: order %s is %s", ErrInvalidState, o.ID, o.Status)
	}
}
