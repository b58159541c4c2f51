package ports

import (
	"context"

	catalog "github.com/dejobratic/puravida/internal/catalog/domain"
)

// Catalog is the product source consulted while building and finalizing orders.
type Catalog interface {
	FindByCode(ctx context.Context, code string) (*catalog.Product, error)
	AdjustStock(ctx context.Context, code string, delta int) error
}

// BatchStockAdjuster applies every adjustment or none of them.
type BatchStockAdjuster interface {
	ApplyStockAdjustments(ctx context.Context, adjustments []catalog.StockAdjustment) error
}
