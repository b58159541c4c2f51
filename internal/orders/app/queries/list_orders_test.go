package queries_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dejobratic/puravida/internal/orders/adapters/memory"
	"github.com/dejobratic/puravida/internal/orders/app/queries"
	"github.com/dejobratic/puravida/internal/orders/domain"
	"github.com/dejobratic/puravida/internal/orders/ports"
)

func TestListOrders(t *testing.T) {
	t.Run("translates the query into a repository filter", func(t *testing.T) {
		var got ports.ListFilter
		repo := &mockRepository{
			listFn: func(ctx context.Context, filter ports.ListFilter) ([]*domain.Order, error) {
				got = filter
				return nil, nil
			},
		}
		handler := queries.NewListOrdersQueryHandler(repo)

		_, err := handler.Handle(context.Background(), queries.ListOrdersQuery{
			Status:     "paid",
			CustomerID: "c-1",
			Page:       2,
			PageSize:   10,
		})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}

		if got.Status == nil || *got.Status != domain.StatusPaid {
			t.Errorf("expected status filter paid, got %v", got.Status)
		}
		if got.CustomerID != "c-1" || got.Page != 2 || got.PageSize != 10 {
			t.Errorf("unexpected filter %+v", got)
		}
	})

	t.Run("omits status filter when empty", func(t *testing.T) {
		repo := &mockRepository{
			listFn: func(ctx context.Context, filter ports.ListFilter) ([]*domain.Order, error) {
				if filter.Status != nil {
					t.Errorf("expected nil status filter, got %v", *filter.Status)
				}
				return nil, nil
			},
		}

		if _, err := queries.NewListOrdersQueryHandler(repo).Handle(context.Background(), queries.ListOrdersQuery{}); err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
	})

	t.Run("returns newest first from the memory store", func(t *testing.T) {
		now := time.Now().UTC()
		store := memory.NewRepository()
		seedOrder(t, store, "order-1", now)
		seedOrder(t, store, "order-2", now.Add(time.Second))

		orders, err := queries.NewListOrdersQueryHandler(store).Handle(context.Background(), queries.ListOrdersQuery{})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if len(orders) != 2 || orders[0].ID != "order-2" {
			t.Errorf("expected order-2 first, got %v", orders)
		}
	})
}

func TestListOrdersQueryValidation(t *testing.T) {
	tests := []struct {
		name    string
		query   queries.ListOrdersQuery
		wantErr bool
	}{
		{"empty query", queries.ListOrdersQuery{}, false},
		{"known status", queries.ListOrdersQuery{Status: "invoiced"}, false},
		{"unknown status", queries.ListOrdersQuery{Status: "shipped"}, true},
		{"negative page", queries.ListOrdersQuery{Page: -1}, true},
		{"page size too large", queries.ListOrdersQuery{PageSize: 101}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if tt.wantErr && !errors.Is(err, domain.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}
