package adapters

import (
	"context"
	"time"

	"github.com/dejobratic/puravida/internal/catalog/domain"
	"github.com/dejobratic/puravida/internal/catalog/ports"
	"github.com/dejobratic/puravida/internal/database"
	"github.com/dejobratic/puravida/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// ObservableRepository traces and times every catalog call.
type ObservableRepository struct {
	repo    ports.Repository
	metrics *database.Metrics
}

func NewObservableRepository(repo ports.Repository, metrics *database.Metrics) *ObservableRepository {
	return &ObservableRepository{
		repo:    repo,
		metrics: metrics,
	}
}

func (r *ObservableRepository) Create(ctx context.Context, product domain.Product) error {
	return r.observe(ctx, "ProductRepository.Create", "create_product", func(ctx context.Context) error {
		return r.repo.Create(ctx, product)
	}, attribute.String("product.code", product.Code))
}

func (r *ObservableRepository) Update(ctx context.Context, product domain.Product) error {
	return r.observe(ctx, "ProductRepository.Update", "update_product", func(ctx context.Context) error {
		return r.repo.Update(ctx, product)
	}, attribute.String("product.code", product.Code))
}

func (r *ObservableRepository) Delete(ctx context.Context, code string) error {
	return r.observe(ctx, "ProductRepository.Delete", "delete_product", func(ctx context.Context) error {
		return r.repo.Delete(ctx, code)
	}, attribute.String("product.code", code))
}

func (r *ObservableRepository) FindByCode(ctx context.Context, code string) (*domain.Product, error) {
	var product *domain.Product
	err := r.observe(ctx, "ProductRepository.FindByCode", "find_product", func(ctx context.Context) error {
		var err error
		product, err = r.repo.FindByCode(ctx, code)
		return err
	}, attribute.String("product.code", code))
	return product, err
}

func (r *ObservableRepository) List(ctx context.Context, filter ports.ListFilter) ([]domain.Product, error) {
	var products []domain.Product
	err := r.observe(ctx, "ProductRepository.List", "list_products", func(ctx context.Context) error {
		var err error
		products, err = r.repo.List(ctx, filter)
		return err
	},
		attribute.String("filter.query", filter.Query),
		attribute.String("filter.category", filter.Category),
		attribute.String("filter.sort", string(filter.Sort)),
	)
	return products, err
}

func (r *ObservableRepository) AdjustStock(ctx context.Context, code string, delta int) error {
	return r.observe(ctx, "ProductRepository.AdjustStock", "adjust_stock", func(ctx context.Context) error {
		return r.repo.AdjustStock(ctx, code, delta)
	},
		attribute.String("product.code", code),
		attribute.Int("stock.delta", delta),
	)
}

func (r *ObservableRepository) ApplyStockAdjustments(ctx context.Context, adjustments []domain.StockAdjustment) error {
	return r.observe(ctx, "ProductRepository.ApplyStockAdjustments", "apply_stock_adjustments", func(ctx context.Context) error {
		return r.repo.ApplyStockAdjustments(ctx, adjustments)
	}, attribute.Int("stock.adjustments", len(adjustments)))
}

func (r *ObservableRepository) observe(
	ctx context.Context,
	spanName, operation string,
	call func(context.Context) error,
	attrs ...attribute.KeyValue,
) error {
	ctx, span := telemetry.StartSpan(ctx, spanName)
	defer span.End()

	telemetry.AddSpanAttributes(span, append(attrs, attribute.String("operation", operation))...)

	start := time.Now()
	err := call(ctx)
	r.metrics.RecordQuery(ctx, operation, time.Since(start).Seconds(), err)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}
