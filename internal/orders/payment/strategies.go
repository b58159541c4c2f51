package payment

import "math/rand/v2"

// Method tokens accepted by the factory.
const (
	MethodCash     = "efectivo"
	MethodCard     = "tarjeta"
	MethodTransfer = "transferencia"
)

const (
	// DefaultCardLimit is the largest amount a card payment authorizes.
	DefaultCardLimit = 5000.0
	// DefaultTransferApprovalRate is the share of transfers that go through.
	DefaultTransferApprovalRate = 0.9
)

// Cash always authorizes.
type Cash struct{}

func (Cash) Method() string           { return MethodCash }
func (Cash) DisplayName() string      { return "Efectivo" }
func (Cash) Authorize(_ float64) bool { return true }

// Card declines amounts above its limit.
type Card struct {
	Limit float64
}

func (Card) Method() string      { return MethodCard }
func (Card) DisplayName() string { return "Tarjeta" }

func (c Card) Authorize(amount float64) bool {
	return amount <= c.Limit
}

// Transfer authorizes when a draw from its source falls under ApprovalRate.
// Draw must return values in [0, 1); a nil Draw uses math/rand/v2.
type Transfer struct {
	ApprovalRate float64
	Draw         func() float64
}

// NewTransfer returns a transfer backed by the math/rand/v2 generator.
func NewTransfer(approvalRate float64) Transfer {
	return Transfer{ApprovalRate: approvalRate, Draw: rand.Float64}
}

func (Transfer) Method() string      { return MethodTransfer }
func (Transfer) DisplayName() string { return "Transferencia" }

func (t Transfer) Authorize(_ float64) bool {
	draw := t.Draw
	if draw == nil {
		draw = rand.Float64
	}
	return draw() < t.ApprovalRate
}
