package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	catalogports "github.com/dejobratic/puravida/internal/catalog/ports"
	"github.com/dejobratic/puravida/internal/clock"
	"github.com/dejobratic/puravida/internal/orders/app/commands"
	"github.com/dejobratic/puravida/internal/orders/app/queries"
	"github.com/dejobratic/puravida/internal/orders/domain"
	"github.com/dejobratic/puravida/internal/orders/metrics"
	"github.com/dejobratic/puravida/internal/orders/ports"
)

// Dependencies lists the collaborators of Service. InvoiceLog is optional.
type Dependencies struct {
	Orders      ports.OrderRepository
	Catalog     ports.Catalog
	Strategies  ports.StrategyResolver
	Invoices    ports.InvoiceWriter
	InvoiceLog  ports.InvoiceLog
	Events      ports.EventBus
	Idempotency ports.IdempotencyStore
	Clock       clock.Clock
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
	TaxRate     float64
}

// Service bundles use cases for handling orders via the API.
// Mutations of one order are serialized; different orders proceed in parallel.
type Service struct {
	repo      ports.OrderRepository
	catalog   ports.Catalog
	events    ports.EventBus
	idemStore ports.IdempotencyStore
	log       ports.InvoiceLog
	clock     clock.Clock
	locks     *orderLocks

	createOrderHandler   commands.CreateOrderHandler
	finalizeOrderHandler commands.FinalizeOrderHandler
	getOrderHandler      *queries.GetOrderQueryHandler
	listOrdersHandler    *queries.ListOrdersQueryHandler
}

// NewService wires required dependencies.
func NewService(deps Dependencies) *Service {
	create := commands.NewCreateOrderCommandHandler(deps.Orders, deps.Strategies, deps.Events, deps.Clock, deps.TaxRate)
	finalize := commands.NewFinalizeOrderCommandHandler(deps.Orders, deps.Catalog, deps.Invoices, deps.InvoiceLog, deps.Events, deps.Clock)

	return &Service{
		repo:                 deps.Orders,
		catalog:              deps.Catalog,
		events:               deps.Events,
		idemStore:            deps.Idempotency,
		log:                  deps.InvoiceLog,
		clock:                deps.Clock,
		locks:                newOrderLocks(),
		createOrderHandler:   commands.NewObservableCreateOrderHandler(create, deps.Logger, deps.Metrics),
		finalizeOrderHandler: commands.NewObservableFinalizeOrderHandler(finalize, deps.Logger, deps.Metrics),
		getOrderHandler:      queries.NewGetOrderQueryHandler(deps.Orders),
		listOrdersHandler:    queries.NewListOrdersQueryHandler(deps.Orders),
	}
}

// CreateOrderInput captures payload for creating an order.
type CreateOrderInput struct {
	OrderID       string `json:"order_id"`
	CustomerID    string `json:"customer_id"`
	CustomerName  string `json:"customer_name"`
	PaymentMethod string `json:"payment_method"`
}

// CreateOrder opens a new order paid through the named method.
func (s *Service) CreateOrder(ctx context.Context, input CreateOrderInput) (*domain.Order, error) {
	unlock := s.locks.lock(strings.TrimSpace(input.OrderID))
	defer unlock()

	cmd := commands.CreateOrderCommand{
		OrderID:       input.OrderID,
		Customer:      domain.CustomerRef{ID: input.CustomerID, Name: input.CustomerName},
		PaymentMethod: input.PaymentMethod,
	}
	return s.createOrderHandler.Handle(ctx, cmd)
}

// AddItemToOrder adds quantity units of productCode at the product's current
// price. The stock check is advisory: nothing is reserved until finalize.
func (s *Service) AddItemToOrder(ctx context.Context, orderID, productCode string, quantity int) (*domain.Order, error) {
	if strings.TrimSpace(productCode) == "" {
		return nil, fmt.Errorf("%w: product code is required", domain.ErrInvalidArgument)
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: %d for product %s", domain.ErrInvalidQuantity, quantity, productCode)
	}

	return s.mutate(ctx, orderID, func(order *domain.Order) error {
		product, err := s.catalog.FindByCode(ctx, productCode)
		if err != nil {
			if errors.Is(err, catalogports.ErrNotFound) {
				return fmt.Errorf("%w: %s", domain.ErrProductNotFound, productCode)
			}
			return err
		}

		if product.Stock < quantity {
			return fmt.Errorf("%w: %s has %d, requested %d",
				domain.ErrStockInsufficient, productCode, product.Stock, quantity)
		}

		return order.AddItem(*product, quantity)
	})
}

// ApplyDiscount sets the discount percentage of an order.
func (s *Service) ApplyDiscount(ctx context.Context, orderID string, percent float64) (*domain.Order, error) {
	return s.mutate(ctx, orderID, func(order *domain.Order) error {
		return order.SetDiscount(percent)
	})
}

// ProcessPayment attempts payment without finalizing. A declined attempt is
// saved as Failed and returned together with the order.
func (s *Service) ProcessPayment(ctx context.Context, orderID string) (*domain.Order, error) {
	var declined error
	order, err := s.mutate(ctx, orderID, func(order *domain.Order) error {
		if !order.HasItems() {
			return fmt.Errorf("%w: order %s", domain.ErrEmptyOrder, order.ID)
		}
		if err := order.ProcessPayment(); err != nil {
			if errors.Is(err, domain.ErrPaymentDeclined) {
				declined = err
				return nil
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if declined != nil {
		if err := s.events.PublishPaymentDeclined(ctx, order.ID, declined.Error()); err != nil {
			return order, errors.Join(declined, err)
		}
		return order, declined
	}
	return order, nil
}

// FinalizeOrder pays, takes stock and writes the invoice to invoicePath.
func (s *Service) FinalizeOrder(ctx context.Context, orderID, invoicePath string) (*commands.FinalizeResult, error) {
	orderID = strings.TrimSpace(orderID)
	unlock := s.locks.lock(orderID)
	defer unlock()

	return s.finalizeOrderHandler.Handle(ctx, commands.FinalizeOrderCommand{
		OrderID:     orderID,
		InvoicePath: invoicePath,
	})
}

// GetOrder retrieves an order by ID.
func (s *Service) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return s.getOrderHandler.Handle(ctx, queries.GetOrderQuery{OrderID: id})
}

// ListOrders returns orders matching query, newest first.
func (s *Service) ListOrders(ctx context.Context, query queries.ListOrdersQuery) ([]*domain.Order, error) {
	return s.listOrdersHandler.Handle(ctx, query)
}

// ListInvoices returns the invoices logged for an order, oldest first.
// Without an invoice log it returns an empty list.
func (s *Service) ListInvoices(ctx context.Context, orderID string) ([]domain.Invoice, error) {
	orderID = strings.TrimSpace(orderID)
	if _, err := s.GetOrder(ctx, orderID); err != nil {
		return nil, err
	}
	if s.log == nil {
		return []domain.Invoice{}, nil
	}
	invoices, err := s.log.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("list invoices of %s: %w", orderID, err)
	}
	if invoices == nil {
		invoices = []domain.Invoice{}
	}
	return invoices, nil
}

// SaveIdempotentResponse writes response details for a key.
func (s *Service) SaveIdempotentResponse(ctx context.Context, key string, response ports.StoredResponse) error {
	return s.idemStore.Save(ctx, key, response)
}

// GetIdempotentResponse retrieves previously stored response data.
func (s *Service) GetIdempotentResponse(ctx context.Context, key string) (*ports.StoredResponse, error) {
	return s.idemStore.Get(ctx, key)
}

func (s *Service) mutate(ctx context.Context, orderID string, fn func(*domain.Order) error) (*domain.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, fmt.Errorf("%w: order id is required", domain.ErrInvalidArgument)
	}

	unlock := s.locks.lock(orderID)
	defer unlock()

	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := fn(order); err != nil {
		return nil, err
	}

	order.UpdatedAt = s.clock.Now()
	if err := s.repo.Save(ctx, order); err != nil {
		return nil, err
	}

	return order, nil
}
