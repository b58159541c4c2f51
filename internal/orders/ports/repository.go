package ports

import (
	"context"

	"github.com/dejobratic/puravida/internal/orders/domain"
)

// OrderRepository exposes persistence operations required by the application layer.
// Implementations return domain.ErrOrderNotFound for unknown ids.
type OrderRepository interface {
	Save(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, filter ListFilter) ([]*domain.Order, error)
}

// ListFilter narrows list queries by status and pagination.
type ListFilter struct {
	Status     *domain.OrderStatus
	CustomerID string
	Page       int
	PageSize   int
}

// StrategyResolver rebuilds payment strategies from stored method tokens.
type StrategyResolver interface {
	Create(method string) (domain.PaymentStrategy, error)
}
