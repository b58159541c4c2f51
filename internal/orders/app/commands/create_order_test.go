package commands_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dejobratic/puravida/internal/clock"
	"github.com/dejobratic/puravida/internal/orders/adapters/memory"
	"github.com/dejobratic/puravida/internal/orders/app/commands"
	"github.com/dejobratic/puravida/internal/orders/domain"
	"github.com/dejobratic/puravida/internal/orders/payment"
	"github.com/dejobratic/puravida/internal/orders/ports"
)

var testNow = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

type mockRepository struct {
	saveFn    func(ctx context.Context, order *domain.Order) error
	getByIDFn func(ctx context.Context, id string) (*domain.Order, error)
}

func (m *mockRepository) Save(ctx context.Context, order *domain.Order) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, order)
	}
	return nil
}

func (m *mockRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrOrderNotFound
}

func (m *mockRepository) List(ctx context.Context, filter ports.ListFilter) ([]*domain.Order, error) {
	return nil, nil
}

type mockEventBus struct {
	publishOrderCreatedFn    func(ctx context.Context, orderID string) error
	publishOrderInvoicedFn   func(ctx context.Context, orderID string, total float64) error
	publishPaymentDeclinedFn func(ctx context.Context, orderID string, reason string) error
}

func (m *mockEventBus) PublishOrderCreated(ctx context.Context, orderID string) error {
	if m.publishOrderCreatedFn != nil {
		return m.publishOrderCreatedFn(ctx, orderID)
	}
	return nil
}

func (m *mockEventBus) PublishOrderInvoiced(ctx context.Context, orderID string, total float64) error {
	if m.publishOrderInvoicedFn != nil {
		return m.publishOrderInvoicedFn(ctx, orderID, total)
	}
	return nil
}

func (m *mockEventBus) PublishPaymentDeclined(ctx context.Context, orderID string, reason string) error {
	if m.publishPaymentDeclinedFn != nil {
		return m.publishPaymentDeclinedFn(ctx, orderID, reason)
	}
	return nil
}

func newCreateHandler(repo ports.OrderRepository, events ports.EventBus) *commands.CreateOrderCommandHandler {
	return commands.NewCreateOrderCommandHandler(repo, payment.NewFactory(), events, clock.NewFixed(testNow), domain.DefaultTaxRate)
}

func TestCreateOrder(t *testing.T) {
	t.Run("creates open order with valid input", func(t *testing.T) {
		repo := memory.NewRepository()
		handler := newCreateHandler(repo, &mockEventBus{})

		cmd := commands.CreateOrderCommand{
			OrderID:       "ORD-1",
			Customer:      domain.CustomerRef{ID: "1-1111-1111", Name: "Ana"},
			PaymentMethod: "  Tarjeta ",
		}

		order, err := handler.Handle(context.Background(), cmd)

		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}

		if order.Status != domain.StatusOpen {
			t.Errorf("expected status %s, got %s", domain.StatusOpen, order.Status)
		}

		if order.Payment().Method() != payment.MethodCard {
			t.Errorf("expected method %s, got %s", payment.MethodCard, order.Payment().Method())
		}

		if !order.CreatedAt.Equal(testNow) {
			t.Errorf("expected created at %v, got %v", testNow, order.CreatedAt)
		}

		if _, err := repo.GetByID(context.Background(), "ORD-1"); err != nil {
			t.Errorf("expected order to be saved, got %v", err)
		}
	})

	t.Run("applies the configured tax rate", func(t *testing.T) {
		handler := commands.NewCreateOrderCommandHandler(memory.NewRepository(), payment.NewFactory(), &mockEventBus{}, clock.NewFixed(testNow), 0.05)

		order, err := handler.Handle(context.Background(), commands.CreateOrderCommand{
			OrderID:       "ORD-1",
			Customer:      domain.CustomerRef{Name: "Ana"},
			PaymentMethod: "efectivo",
		})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if order.TaxRate() != 0.05 {
			t.Errorf("expected tax rate 0.05, got %v", order.TaxRate())
		}
	})

	t.Run("rejects unknown payment method", func(t *testing.T) {
		saved := false
		repo := &mockRepository{saveFn: func(ctx context.Context, order *domain.Order) error {
			saved = true
			return nil
		}}
		handler := newCreateHandler(repo, &mockEventBus{})

		order, err := handler.Handle(context.Background(), commands.CreateOrderCommand{
			OrderID:       "ORD-1",
			Customer:      domain.CustomerRef{Name: "Ana"},
			PaymentMethod: "bitcoin",
		})

		if !errors.Is(err, domain.ErrInvalidPaymentMethod) {
			t.Fatalf("expected ErrInvalidPaymentMethod, got %v", err)
		}
		if order != nil {
			t.Errorf("expected nil order, got %+v", order)
		}
		if saved {
			t.Error("expected order not to be saved")
		}
	})

	tests := []struct {
		name string
		cmd  commands.CreateOrderCommand
	}{
		{"empty id", commands.CreateOrderCommand{OrderID: "", Customer: domain.CustomerRef{Name: "Ana"}, PaymentMethod: "efectivo"}},
		{"blank id", commands.CreateOrderCommand{OrderID: "   ", Customer: domain.CustomerRef{Name: "Ana"}, PaymentMethod: "efectivo"}},
		{"missing customer name", commands.CreateOrderCommand{OrderID: "ORD-1", PaymentMethod: "efectivo"}},
	}

	for _, tt := range tests {
		t.Run("returns invalid argument for "+tt.name, func(t *testing.T) {
			handler := newCreateHandler(&mockRepository{}, &mockEventBus{})

			_, err := handler.Handle(context.Background(), tt.cmd)

			if !errors.Is(err, domain.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}

	t.Run("rejects duplicate order id", func(t *testing.T) {
		repo := memory.NewRepository()
		handler := newCreateHandler(repo, &mockEventBus{})
		cmd := commands.CreateOrderCommand{OrderID: "ORD-1", Customer: domain.CustomerRef{Name: "Ana"}, PaymentMethod: "efectivo"}

		if _, err := handler.Handle(context.Background(), cmd); err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}

		_, err := handler.Handle(context.Background(), cmd)
		if !errors.Is(err, domain.ErrInvalidState) {
			t.Errorf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("returns repository error", func(t *testing.T) {
		repoErr := errors.New("database connection failed")
		repo := &mockRepository{saveFn: func(ctx context.Context, order *domain.Order) error {
			return repoErr
		}}
		handler := newCreateHandler(repo, &mockEventBus{})

		order, err := handler.Handle(context.Background(), commands.CreateOrderCommand{
			OrderID: "ORD-1", Customer: domain.CustomerRef{Name: "Ana"}, PaymentMethod: "efectivo",
		})

		if !errors.Is(err, repoErr) {
			t.Errorf("expected repository error, got %v", err)
		}
		if order != nil {
			t.Errorf("expected nil order, got %+v", order)
		}
	})

	t.Run("returns order with error when event publishing fails", func(t *testing.T) {
		events := &mockEventBus{publishOrderCreatedFn: func(ctx context.Context, orderID string) error {
			return errors.New("broker unavailable")
		}}
		handler := newCreateHandler(memory.NewRepository(), events)

		order, err := handler.Handle(context.Background(), commands.CreateOrderCommand{
			OrderID: "ORD-1", Customer: domain.CustomerRef{Name: "Ana"}, PaymentMethod: "efectivo",
		})

		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if order == nil {
			t.Fatal("expected order to be returned even when publishing fails")
		}
	})
}
