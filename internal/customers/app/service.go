// Package app holds the customer registry use cases.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dejobratic/puravida/internal/clock"
	"github.com/dejobratic/puravida/internal/customers/domain"
	"github.com/dejobratic/puravida/internal/customers/ports"
)

var (
	ErrInvalidCustomer   = errors.New("invalid customer")
	ErrDuplicateCustomer = ports.ErrDuplicate
	ErrCustomerNotFound  = ports.ErrNotFound
)

type Service struct {
	repo  ports.Repository
	clock clock.Clock
}

func NewService(repo ports.Repository, clk clock.Clock) *Service {
	return &Service{repo: repo, clock: clk}
}

// Register stores a new customer keyed by identification number.
func (s *Service) Register(ctx context.Context, customer domain.Customer) (domain.Customer, error) {
	customer.ID = strings.TrimSpace(customer.ID)
	customer.Name = strings.TrimSpace(customer.Name)
	customer.Phone = strings.TrimSpace(customer.Phone)
	customer.Email = strings.TrimSpace(customer.Email)

	if err := customer.Validate(); err != nil {
		return domain.Customer{}, fmt.Errorf("%w: %w", ErrInvalidCustomer, err)
	}
	customer.CreatedAt = s.clock.Now()

	if err := s.repo.Create(ctx, customer); err != nil {
		return domain.Customer{}, err
	}
	return customer, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Customer, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidCustomer)
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]domain.Customer, error) {
	return s.repo.List(ctx)
}
