// Package app holds the catalog use cases.
package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dejobratic/puravida/internal/catalog/domain"
	"github.com/dejobratic/puravida/internal/catalog/ports"
	"github.com/dejobratic/puravida/internal/clock"
)

var (
	ErrInvalidProduct   = errors.New("invalid product")
	ErrDuplicateProduct = ports.ErrDuplicate
	ErrProductNotFound  = ports.ErrNotFound
)

type Service struct {
	repo  ports.Repository
	clock clock.Clock
}

func NewService(repo ports.Repository, clk clock.Clock) *Service {
	return &Service{repo: repo, clock: clk}
}

// Add registers a new product. Codes are unique.
func (s *Service) Add(ctx context.Context, product domain.Product) (domain.Product, error) {
	product = normalize(product)
	if err := product.Validate(); err != nil {
		return domain.Product{}, fmt.Errorf("%w: %w", ErrInvalidProduct, err)
	}

	now := s.clock.Now()
	product.CreatedAt = now
	product.UpdatedAt = now

	if err := s.repo.Create(ctx, product); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

// Update replaces every field of an existing product except its creation time.
func (s *Service) Update(ctx context.Context, product domain.Product) (domain.Product, error) {
	product = normalize(product)
	if err := product.Validate(); err != nil {
		return domain.Product{}, fmt.Errorf("%w: %w", ErrInvalidProduct, err)
	}

	existing, err := s.repo.FindByCode(ctx, product.Code)
	if err != nil {
		return domain.Product{}, err
	}

	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, product); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

func (s *Service) Delete(ctx context.Context, code string) error {
	return s.repo.Delete(ctx, strings.TrimSpace(code))
}

func (s *Service) Get(ctx context.Context, code string) (*domain.Product, error) {
	return s.repo.FindByCode(ctx, strings.TrimSpace(code))
}

// Search matches product names containing query, ignoring case.
func (s *Service) Search(ctx context.Context, query string) ([]domain.Product, error) {
	return s.repo.List(ctx, ports.ListFilter{Query: query, Sort: ports.SortByCode})
}

func (s *Service) List(ctx context.Context, filter ports.ListFilter) ([]domain.Product, error) {
	switch filter.Sort {
	case "", ports.SortByCode, ports.SortByPriceAsc, ports.SortByStockDesc:
	default:
		return nil, fmt.Errorf("%w: unknown sort %q", ErrInvalidProduct, filter.Sort)
	}
	return s.repo.List(ctx, filter)
}

// Critical returns products whose stock is below threshold, lowest first.
// A non-positive threshold falls back to domain.DefaultCriticalThreshold.
func (s *Service) Critical(ctx context.Context, threshold int) ([]domain.Product, error) {
	if threshold <= 0 {
		threshold = domain.DefaultCriticalThreshold
	}

	products, err := s.repo.List(ctx, ports.ListFilter{Sort: ports.SortByCode})
	if err != nil {
		return nil, err
	}

	critical := make([]domain.Product, 0)
	for _, p := range products {
		if p.IsCritical(threshold) {
			critical = append(critical, p)
		}
	}

	sort.SliceStable(critical, func(i, j int) bool {
		return critical[i].Stock < critical[j].Stock
	})
	return critical, nil
}

func normalize(p domain.Product) domain.Product {
	p.Code = strings.TrimSpace(p.Code)
	p.Name = strings.TrimSpace(p.Name)
	p.Category = strings.TrimSpace(p.Category)
	return p
}
