package ports

import (
	"context"
	"errors"

	"github.com/dejobratic/puravida/internal/customers/domain"
)

// Repository stores registered customers.
type Repository interface {
	Create(ctx context.Context, customer domain.Customer) error
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	List(ctx context.Context) ([]domain.Customer, error)
}

var (
	ErrNotFound  = errors.New("customer not found")
	ErrDuplicate = errors.New("customer already registered")
)
