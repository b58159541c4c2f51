package memory

import (
	"context"
	"sync"

	"github.com/dejobratic/puravida/internal/orders/domain"
)

// InvoiceLog keeps issued invoices in memory.
type InvoiceLog struct {
	mu      sync.RWMutex
	entries []domain.Invoice
}

func NewInvoiceLog() *InvoiceLog {
	return &InvoiceLog{}
}

func (l *InvoiceLog) Append(_ context.Context, invoice domain.Invoice) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, invoice)
	return nil
}

func (l *InvoiceLog) ListByOrder(_ context.Context, orderID string) ([]domain.Invoice, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var result []domain.Invoice
	for _, entry := range l.entries {
		if entry.OrderID == orderID {
			result = append(result, entry)
		}
	}
	return result, nil
}
