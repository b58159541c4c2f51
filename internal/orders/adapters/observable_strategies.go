package adapters

import (
	"context"

	"github.com/dejobratic/puravida/internal/orders/domain"
	"github.com/dejobratic/puravida/internal/orders/metrics"
	"github.com/dejobratic/puravida/internal/orders/ports"
)

// ObservableStrategyResolver hands out strategies that count their decisions.
type ObservableStrategyResolver struct {
	resolver ports.StrategyResolver
	metrics  *metrics.Metrics
}

func NewObservableStrategyResolver(resolver ports.StrategyResolver, metrics *metrics.Metrics) *ObservableStrategyResolver {
	return &ObservableStrategyResolver{
		resolver: resolver,
		metrics:  metrics,
	}
}

func (r *ObservableStrategyResolver) Create(method string) (domain.PaymentStrategy, error) {
	strategy, err := r.resolver.Create(method)
	if err != nil {
		return nil, err
	}
	return &observableStrategy{PaymentStrategy: strategy, metrics: r.metrics}, nil
}

type observableStrategy struct {
	domain.PaymentStrategy
	metrics *metrics.Metrics
}

// Authorize has no context to carry, so the decision is recorded unscoped.
func (s *observableStrategy) Authorize(amount float64) bool {
	approved := s.PaymentStrategy.Authorize(amount)
	s.metrics.RecordPaymentAuthorization(context.Background(), s.Method(), approved)
	return approved
}
