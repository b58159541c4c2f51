package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dejobratic/puravida/internal/customers/domain"
	"github.com/dejobratic/puravida/internal/customers/ports"
)

// Repository keeps customers in memory.
type Repository struct {
	mu        sync.RWMutex
	customers map[string]domain.Customer
}

func NewRepository() *Repository {
	return &Repository{customers: make(map[string]domain.Customer)}
}

func (r *Repository) Create(_ context.Context, customer domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.customers[customer.ID]; exists {
		return fmt.Errorf("%w: %s", ports.ErrDuplicate, customer.ID)
	}
	r.customers[customer.ID] = customer
	return nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	customer, ok := r.customers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ports.ErrNotFound, id)
	}
	return &customer, nil
}

// List returns customers ordered by name.
func (r *Repository) List(_ context.Context) ([]domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.Customer, 0, len(r.customers))
	for _, customer := range r.customers {
		result = append(result, customer)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name == result[j].Name {
			return result[i].ID < result[j].ID
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}
