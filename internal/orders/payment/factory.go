package payment

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/dejobratic/puravida/internal/orders/domain"
)

// Factory resolves method names into strategies.
type Factory struct {
	cardLimit    float64
	approvalRate float64
	draw         func() float64
}

type Option func(*Factory)

// WithCardLimit overrides DefaultCardLimit.
func WithCardLimit(limit float64) Option {
	return func(f *Factory) {
		f.cardLimit = limit
	}
}

// WithTransferApprovalRate overrides DefaultTransferApprovalRate.
func WithTransferApprovalRate(rate float64) Option {
	return func(f *Factory) {
		f.approvalRate = rate
	}
}

// WithRandomSource replaces the generator used by transfers. nil keeps the default.
func WithRandomSource(draw func() float64) Option {
	return func(f *Factory) {
		if draw != nil {
			f.draw = draw
		}
	}
}

func NewFactory(opts ...Option) *Factory {
	f := &Factory{
		cardLimit:    DefaultCardLimit,
		approvalRate: DefaultTransferApprovalRate,
		draw:         rand.Float64,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create trims and lower-cases method before matching it.
func (f *Factory) Create(method string) (domain.PaymentStrategy, error) {
	switch normalized := strings.ToLower(strings.TrimSpace(method)); normalized {
	case MethodCash:
		return Cash{}, nil
	case MethodCard:
		return Card{Limit: f.cardLimit}, nil
	case MethodTransfer:
		return Transfer{ApprovalRate: f.approvalRate, Draw: f.draw}, nil
	default:
		return nil, fmt.Errorf("%w: %q, allowed: %s, %s, %s",
			domain.ErrInvalidPaymentMethod, method, MethodCash, MethodCard, MethodTransfer)
	}
}
