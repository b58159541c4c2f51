package queries

import (
	"context"
	"fmt"

	"github.com/dejobratic/puravida/internal/orders/domain"
	"github.com/dejobratic/puravida/internal/orders/ports"
)

const maxPageSize = 100

type ListOrdersQuery struct {
	Status     string
	CustomerID string
	Page       int
	PageSize   int
}

func (q ListOrdersQuery) Validate() error {
	switch domain.OrderStatus(q.Status) {
	case "", domain.StatusOpen, domain.StatusPaid, domain.StatusFailed, domain.StatusInvoiced:
	default:
		return fmt.Errorf("%w: unknown status %q", domain.ErrInvalidArgument, q.Status)
	}
	if q.Page < 0 || q.PageSize < 0 {
		return fmt.Errorf("%w: page and page_size must not be negative", domain.ErrInvalidArgument)
	}
	if q.PageSize > maxPageSize {
		return fmt.Errorf("%w: page_size must be at most %d", domain.ErrInvalidArgument, maxPageSize)
	}
	return nil
}

type ListOrdersQueryHandler struct {
	repo ports.OrderRepository
}

func NewListOrdersQueryHandler(repo ports.OrderRepository) *ListOrdersQueryHandler {
	return &ListOrdersQueryHandler{repo: repo}
}

func (h *ListOrdersQueryHandler) Handle(ctx context.Context, query ListOrdersQuery) ([]*domain.Order, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	filter := ports.ListFilter{
		CustomerID: query.CustomerID,
		Page:       query.Page,
		PageSize:   query.PageSize,
	}
	if query.Status != "" {
		status := domain.OrderStatus(query.Status)
		filter.Status = &status
	}

	return h.repo.List(ctx, filter)
}
