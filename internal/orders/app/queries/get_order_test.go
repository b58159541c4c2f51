package queries_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dejobratic/puravida/internal/orders/adapters/memory"
	"github.com/dejobratic/puravida/internal/orders/app/queries"
	"github.com/dejobratic/puravida/internal/orders/domain"
	"github.com/dejobratic/puravida/internal/orders/payment"
	"github.com/dejobratic/puravida/internal/orders/ports"
)

type mockRepository struct {
	getByIDFn func(ctx context.Context, id string) (*domain.Order, error)
	listFn    func(ctx context.Context, filter ports.ListFilter) ([]*domain.Order, error)
}

func (m *mockRepository) Save(ctx context.Context, order *domain.Order) error {
	return nil
}

func (m *mockRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrOrderNotFound
}

func (m *mockRepository) List(ctx context.Context, filter ports.ListFilter) ([]*domain.Order, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return nil, nil
}

func seedOrder(t *testing.T, repo ports.OrderRepository, id string, createdAt time.Time) *domain.Order {
	t.Helper()
	order, err := domain.NewOrder(id, domain.CustomerRef{ID: "c-1", Name: "Ana"}, payment.Cash{}, createdAt)
	if err != nil {
		t.Fatalf("failed to build order: %v", err)
	}
	if err := repo.Save(context.Background(), order); err != nil {
		t.Fatalf("failed to save order: %v", err)
	}
	return order
}

func TestGetOrder(t *testing.T) {
	t.Run("returns order when found", func(t *testing.T) {
		repo := memory.NewRepository()
		existing := seedOrder(t, repo, "order-123", time.Now().UTC())
		handler := queries.NewGetOrderQueryHandler(repo)

		order, err := handler.Handle(context.Background(), queries.GetOrderQuery{OrderID: "order-123"})

		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if order.ID != existing.ID {
			t.Errorf("expected order ID %s, got %s", existing.ID, order.ID)
		}
		if order.Customer.Name != "Ana" {
			t.Errorf("expected customer Ana, got %s", order.Customer.Name)
		}
	})

	t.Run("trims surrounding whitespace from the id", func(t *testing.T) {
		repo := memory.NewRepository()
		seedOrder(t, repo, "order-123", time.Now().UTC())
		handler := queries.NewGetOrderQueryHandler(repo)

		if _, err := handler.Handle(context.Background(), queries.GetOrderQuery{OrderID: " order-123 "}); err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
	})

	t.Run("returns not found for unknown order", func(t *testing.T) {
		handler := queries.NewGetOrderQueryHandler(memory.NewRepository())

		order, err := handler.Handle(context.Background(), queries.GetOrderQuery{OrderID: "missing"})

		if !errors.Is(err, domain.ErrOrderNotFound) {
			t.Errorf("expected ErrOrderNotFound, got %v", err)
		}
		if order != nil {
			t.Errorf("expected nil order, got %+v", order)
		}
	})

	t.Run("propagates repository errors", func(t *testing.T) {
		repoErr := errors.New("connection refused")
		repo := &mockRepository{
			getByIDFn: func(ctx context.Context, id string) (*domain.Order, error) {
				return nil, repoErr
			},
		}
		handler := queries.NewGetOrderQueryHandler(repo)

		_, err := handler.Handle(context.Background(), queries.GetOrderQuery{OrderID: "order-1"})

		if !errors.Is(err, repoErr) {
			t.Errorf("expected repository error, got %v", err)
		}
	})
}

func TestGetOrderQueryValidation(t *testing.T) {
	tests := []struct {
		name    string
		orderID string
		wantErr bool
	}{
		{"valid id", "order-1", false},
		{"empty id", "", true},
		{"whitespace id", "   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := queries.GetOrderQuery{OrderID: tt.orderID}.Validate()
			if tt.wantErr && !errors.Is(err, domain.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}
