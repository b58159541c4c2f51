package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dejobratic/puravida/internal/clock"
	"github.com/dejobratic/puravida/internal/orders/domain"
	"github.com/dejobratic/puravida/internal/orders/ports"
)

type CreateOrderCommand struct {
	OrderID       string
	Customer      domain.CustomerRef
	PaymentMethod string
}

func (c CreateOrderCommand) Validate() error {
	if strings.TrimSpace(c.OrderID) == "" {
		return fmt.Errorf("%w: order id is required", domain.ErrInvalidArgument)
	}
	if strings.TrimSpace(c.Customer.Name) == "" {
		return fmt.Errorf("%w: customer name is required", domain.ErrInvalidArgument)
	}
	return nil
}

type CreateOrderHandler interface {
	Handle(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error)
}

type CreateOrderCommandHandler struct {
	repo       ports.OrderRepository
	strategies ports.StrategyResolver
	events     ports.EventBus
	clock      clock.Clock
	taxRate    float64
}

// NewCreateOrderCommandHandler builds open orders charged at taxRate.
func NewCreateOrderCommandHandler(
	repo ports.OrderRepository,
	strategies ports.StrategyResolver,
	events ports.EventBus,
	clk clock.Clock,
	taxRate float64,
) *CreateOrderCommandHandler {
	return &CreateOrderCommandHandler{
		repo:       repo,
		strategies: strategies,
		events:     events,
		clock:      clk,
		taxRate:    taxRate,
	}
}

func (h *CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	strategy, err := h.strategies.Create(cmd.PaymentMethod)
	if err != nil {
		return nil, err
	}

	id := strings.TrimSpace(cmd.OrderID)
	if _, err := h.repo.GetByID(ctx, id); err == nil {
		return nil, fmt.Errorf("%w: order %s already exists", domain.ErrInvalidState, id)
	} else if !errors.Is(err, domain.ErrOrderNotFound) {
		return nil, err
	}

	order, err := domain.NewOrder(id, cmd.Customer, strategy, h.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := order.SetTaxRate(h.taxRate); err != nil {
		return nil, err
	}

	if err := h.repo.Save(ctx, order); err != nil {
		return nil, err
	}

	if err := h.events.PublishOrderCreated(ctx, order.ID); err != nil {
		return order, fmt.Errorf("order saved but failed to publish event: %w", err)
	}

	return order, nil
}
