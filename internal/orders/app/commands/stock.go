package commands

import (
	"context"
	"errors"
	"fmt"
	"sort"

	catalog "github.com/dejobratic/puravida/internal/catalog/domain"
	catalogports "github.com/dejobratic/puravida/internal/catalog/ports"
	"github.com/dejobratic/puravida/internal/orders/domain"
	"github.com/dejobratic/puravida/internal/orders/ports"
)

// stockDecrements turns the order quantities into negative deltas sorted by
// product code.
func stockDecrements(order *domain.Order) []catalog.StockAdjustment {
	quantities := order.Quantities()
	adjustments := make([]catalog.StockAdjustment, 0, len(quantities))
	for code, qty := range quantities {
		adjustments = append(adjustments, catalog.StockAdjustment{Code: code, Delta: -qty})
	}
	sort.Slice(adjustments, func(i, j int) bool {
		return adjustments[i].Code < adjustments[j].Code
	})
	return adjustments
}

func inverse(adjustments []catalog.StockAdjustment) []catalog.StockAdjustment {
	out := make([]catalog.StockAdjustment, len(adjustments))
	for i, adj := range adjustments {
		out[i] = catalog.StockAdjustment{Code: adj.Code, Delta: -adj.Delta}
	}
	return out
}

// applyStock applies every adjustment or none. Catalogs that cannot batch get
// one call per product; on failure the applied ones are undone in reverse order.
func applyStock(ctx context.Context, c ports.Catalog, adjustments []catalog.StockAdjustment) error {
	if batch, ok := c.(ports.BatchStockAdjuster); ok {
		return translateCatalogError(batch.ApplyStockAdjustments(ctx, adjustments))
	}

	applied := make([]catalog.StockAdjustment, 0, len(adjustments))
	for _, adj := range adjustments {
		if err := c.AdjustStock(ctx, adj.Code, adj.Delta); err != nil {
			err = translateCatalogError(err)
			if cerr := compensate(ctx, c, applied); cerr != nil {
				return errors.Join(err, cerr)
			}
			return err
		}
		applied = append(applied, adj)
	}
	return nil
}

func compensate(ctx context.Context, c ports.Catalog, applied []catalog.StockAdjustment) error {
	var errs []error
	for i := len(applied) - 1; i >= 0; i-- {
		adj := applied[i]
		if err := c.AdjustStock(context.WithoutCancel(ctx), adj.Code, -adj.Delta); err != nil {
			errs = append(errs, fmt.Errorf("compensate stock for %s: %w", adj.Code, err))
		}
	}
	return errors.Join(errs...)
}

func translateCatalogError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, catalogports.ErrInsufficientStock):
		return fmt.Errorf("%w: %w", domain.ErrStockInsufficient, err)
	case errors.Is(err, catalogports.ErrNotFound):
		return fmt.Errorf("%w: %w", domain.ErrProductNotFound, err)
	default:
		return err
	}
}
