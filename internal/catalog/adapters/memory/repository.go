package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dejobratic/puravida/internal/catalog/domain"
	"github.com/dejobratic/puravida/internal/catalog/ports"
)

// Repository keeps products in memory. Stock changes are serialized by a single lock.
type Repository struct {
	mu       sync.RWMutex
	products map[string]domain.Product
}

// NewRepository constructs an empty in-memory catalog.
func NewRepository() *Repository {
	return &Repository{products: make(map[string]domain.Product)}
}

func (r *Repository) Create(_ context.Context, product domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.products[product.Code]; exists {
		return fmt.Errorf("%w: %s", ports.ErrDuplicate, product.Code)
	}
	r.products[product.Code] = product
	return nil
}

func (r *Repository) Update(_ context.Context, product domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.products[product.Code]; !exists {
		return fmt.Errorf("%w: %s", ports.ErrNotFound, product.Code)
	}
	r.products[product.Code] = product
	return nil
}

func (r *Repository) Delete(_ context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.products[code]; !exists {
		return fmt.Errorf("%w: %s", ports.ErrNotFound, code)
	}
	delete(r.products, code)
	return nil
}

func (r *Repository) FindByCode(_ context.Context, code string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	product, ok := r.products[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ports.ErrNotFound, code)
	}
	return &product, nil
}

func (r *Repository) List(_ context.Context, filter ports.ListFilter) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	result := make([]domain.Product, 0, len(r.products))
	for _, product := range r.products {
		if query != "" && !strings.Contains(strings.ToLower(product.Name), query) {
			continue
		}
		if filter.Category != "" && !strings.EqualFold(product.Category, filter.Category) {
			continue
		}
		result = append(result, product)
	}

	sortProducts(result, filter.Sort)
	return result, nil
}

func (r *Repository) AdjustStock(_ context.Context, code string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[code]
	if !ok {
		return fmt.Errorf("%w: %s", ports.ErrNotFound, code)
	}
	if product.Stock+delta < 0 {
		return fmt.Errorf("%w: %s has %d, change %d", ports.ErrInsufficientStock, code, product.Stock, delta)
	}
	product.Stock += delta
	r.products[code] = product
	return nil
}

// ApplyStockAdjustments validates every adjustment against the resulting stock
// before writing any of them.
func (r *Repository) ApplyStockAdjustments(_ context.Context, adjustments []domain.StockAdjustment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	pending := make(map[string]int, len(adjustments))
	for _, adj := range adjustments {
		product, ok := r.products[adj.Code]
		if !ok {
			return fmt.Errorf("%w: %s", ports.ErrNotFound, adj.Code)
		}
		if _, seen := pending[adj.Code]; !seen {
			pending[adj.Code] = product.Stock
		}
		pending[adj.Code] += adj.Delta
		if pending[adj.Code] < 0 {
			return fmt.Errorf("%w: %s has %d, change %d", ports.ErrInsufficientStock, adj.Code, product.Stock, adj.Delta)
		}
	}

	for code, stock := range pending {
		product := r.products[code]
		product.Stock = stock
		r.products[code] = product
	}
	return nil
}

func sortProducts(products []domain.Product, order ports.SortOrder) {
	switch order {
	case ports.SortByPriceAsc:
		sort.SliceStable(products, func(i, j int) bool {
			if products[i].Price == products[j].Price {
				return products[i].Code < products[j].Code
			}
			return products[i].Price < products[j].Price
		})
	case ports.SortByStockDesc:
		sort.SliceStable(products, func(i, j int) bool {
			if products[i].Stock == products[j].Stock {
				return products[i].Code < products[j].Code
			}
			return products[i].Stock > products[j].Stock
		})
	default:
		sort.Slice(products, func(i, j int) bool {
			return products[i].Code < products[j].Code
		})
	}
}
