package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	catalog "github.com/dejobratic/puravida/internal/catalog/domain"
	"github.com/dejobratic/puravida/internal/clock"
	"github.com/dejobratic/puravida/internal/orders/domain"
	"github.com/dejobratic/puravida/internal/orders/ports"
)

type FinalizeOrderCommand struct {
	OrderID     string
	InvoicePath string
}

func (c FinalizeOrderCommand) Validate() error {
	if strings.TrimSpace(c.OrderID) == "" {
		return fmt.Errorf("%w: order id is required", domain.ErrInvalidArgument)
	}
	if strings.TrimSpace(c.InvoicePath) == "" {
		return fmt.Errorf("%w: invoice path is required", domain.ErrInvalidArgument)
	}
	if !filepath.IsLocal(c.InvoicePath) {
		return fmt.Errorf("%w: invoice path %q must be relative to the invoice directory", domain.ErrInvalidArgument, c.InvoicePath)
	}
	return nil
}

// FinalizeResult is the invoiced order and the receipt written for it.
type FinalizeResult struct {
	Order   *domain.Order
	Invoice domain.Invoice
}

type FinalizeOrderHandler interface {
	Handle(ctx context.Context, cmd FinalizeOrderCommand) (*FinalizeResult, error)
}

type FinalizeOrderCommandHandler struct {
	repo     ports.OrderRepository
	catalog  ports.Catalog
	invoices ports.InvoiceWriter
	log      ports.InvoiceLog
	events   ports.EventBus
	clock    clock.Clock
}

// NewFinalizeOrderCommandHandler wires the finalize sequence. log may be nil.
func NewFinalizeOrderCommandHandler(
	repo ports.OrderRepository,
	catalog ports.Catalog,
	invoices ports.InvoiceWriter,
	log ports.InvoiceLog,
	events ports.EventBus,
	clk clock.Clock,
) *FinalizeOrderCommandHandler {
	return &FinalizeOrderCommandHandler{
		repo:     repo,
		catalog:  catalog,
		invoices: invoices,
		log:      log,
		events:   events,
		clock:    clk,
	}
}

// Handle pays the order unless it is already paid, takes its items out of
// stock, writes the invoice and marks the order invoiced.
//
// A declined payment leaves the order Failed with stock untouched. A stock or
// invoice failure after payment leaves the order Paid with stock restored, so
// calling Handle again retries without charging twice. When the order cannot
// be saved as invoiced, the written invoice is removed as well.
func (h *FinalizeOrderCommandHandler) Handle(ctx context.Context, cmd FinalizeOrderCommand) (*FinalizeResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	order, err := h.repo.GetByID(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}

	if order.IsTerminal() {
		return nil, fmt.Errorf("%w: order %s is already invoiced", domain.ErrInvalidState, order.ID)
	}
	if !order.HasItems() {
		return nil, fmt.Errorf("%w: order %s", domain.ErrEmptyOrder, order.ID)
	}

	if order.Status != domain.StatusPaid {
		if err := h.pay(ctx, order); err != nil {
			return nil, err
		}
	}

	adjustments := stockDecrements(order)
	if err := applyStock(ctx, h.catalog, adjustments); err != nil {
		return nil, err
	}

	invoice, err := h.invoices.Write(ctx, order, cmd.InvoicePath)
	if err != nil {
		return nil, h.rollbackStock(ctx, adjustments, err)
	}

	if err := order.MarkInvoiced(h.clock.Now()); err != nil {
		return nil, h.rollbackStock(ctx, adjustments, h.discardInvoice(ctx, invoice, err))
	}
	if err := h.repo.Save(ctx, order); err != nil {
		return nil, h.rollbackStock(ctx, adjustments, h.discardInvoice(ctx, invoice, err))
	}

	result := &FinalizeResult{Order: order, Invoice: invoice}

	var errs []error
	if h.log != nil {
		if err := h.log.Append(ctx, invoice); err != nil {
			errs = append(errs, fmt.Errorf("record invoice: %w", err))
		}
	}
	if err := h.events.PublishOrderInvoiced(ctx, order.ID, invoice.Total); err != nil {
		errs = append(errs, fmt.Errorf("publish event: %w", err))
	}
	if len(errs) > 0 {
		return result, fmt.Errorf("order invoiced but: %w", errors.Join(errs...))
	}

	return result, nil
}

func (h *FinalizeOrderCommandHandler) pay(ctx context.Context, order *domain.Order) error {
	payErr := order.ProcessPayment()
	if payErr != nil && !errors.Is(payErr, domain.ErrPaymentDeclined) {
		return payErr
	}

	order.UpdatedAt = h.clock.Now()
	if err := h.repo.Save(ctx, order); err != nil {
		return errors.Join(payErr, err)
	}

	if payErr != nil {
		if err := h.events.PublishPaymentDeclined(ctx, order.ID, payErr.Error()); err != nil {
			return errors.Join(payErr, err)
		}
		return payErr
	}
	return nil
}

func (h *FinalizeOrderCommandHandler) rollbackStock(ctx context.Context, adjustments []catalog.StockAdjustment, cause error) error {
	if err := applyStock(context.WithoutCancel(ctx), h.catalog, inverse(adjustments)); err != nil {
		return errors.Join(cause, fmt.Errorf("restore stock: %w", err))
	}
	return cause
}

// discardInvoice removes a receipt whose order never reached Invoiced.
func (h *FinalizeOrderCommandHandler) discardInvoice(ctx context.Context, invoice domain.Invoice, cause error) error {
	if err := h.invoices.Discard(context.WithoutCancel(ctx), invoice); err != nil {
		return errors.Join(cause, fmt.Errorf("discard invoice: %w", err))
	}
	return cause
}
