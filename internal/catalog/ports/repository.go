package ports

import (
	"context"
	"errors"

	"github.com/dejobratic/puravida/internal/catalog/domain"
)

// Repository stores products and their stock levels.
type Repository interface {
	Create(ctx context.Context, product domain.Product) error
	Update(ctx context.Context, product domain.Product) error
	Delete(ctx context.Context, code string) error
	FindByCode(ctx context.Context, code string) (*domain.Product, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Product, error)
	// AdjustStock adds delta to the stock of code.
	AdjustStock(ctx context.Context, code string, delta int) error
	// ApplyStockAdjustments applies all adjustments atomically.
	ApplyStockAdjustments(ctx context.Context, adjustments []domain.StockAdjustment) error
}

// SortOrder selects the ordering of List results.
type SortOrder string

const (
	SortByCode      SortOrder = "code"
	SortByPriceAsc  SortOrder = "price"
	SortByStockDesc SortOrder = "stock"
)

// ListFilter narrows product listings. Query matches names case-insensitively.
type ListFilter struct {
	Query    string
	Category string
	Sort     SortOrder
}

var (
	ErrNotFound          = errors.New("product not found")
	ErrDuplicate         = errors.New("product code already exists")
	ErrInsufficientStock = errors.New("stock cannot go below zero")
)
