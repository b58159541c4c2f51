package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dejobratic/puravida/internal/orders/domain"
	"github.com/dejobratic/puravida/internal/orders/ports"
)

// Repository provides an in-memory store useful for local development and tests.
// Orders are cloned on the way in and out so callers never share state.
type Repository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

// NewRepository constructs a new in-memory repository.
func NewRepository() *Repository {
	return &Repository{orders: make(map[string]*domain.Order)}
}

// Save inserts or replaces an order.
func (r *Repository) Save(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = order.Clone()
	return nil
}

// GetByID fetches a single order by identifier.
func (r *Repository) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
	}
	return order.Clone(), nil
}

// List returns orders newest first, respecting the provided filter. Pagination is 1-based.
func (r *Repository) List(_ context.Context, filter ports.ListFilter) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*domain.Order
	for _, order := range r.orders {
		if filter.Status != nil && order.Status != *filter.Status {
			continue
		}
		if filter.CustomerID != "" && order.Customer.ID != filter.CustomerID {
			continue
		}
		result = append(result, order)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	start := (page - 1) * pageSize
	if start >= len(result) {
		return []*domain.Order{}, nil
	}

	end := min(start+pageSize, len(result))

	slice := make([]*domain.Order, 0, end-start)
	for _, order := range result[start:end] {
		slice = append(slice, order.Clone())
	}

	return slice, nil
}
