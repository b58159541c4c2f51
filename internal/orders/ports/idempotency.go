package ports

import (
	"context"
	"time"
)

// StoredResponse is replayed when a finalize or create request reuses its key.
type StoredResponse struct {
	Operation  string
	StatusCode int
	Body       []byte
	OrderID    string
	CreatedAt  time.Time
}

// IdempotencyStore lets clients retry non-idempotent order operations safely.
// Get returns nil, nil for unknown keys.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (*StoredResponse, error)
	Save(ctx context.Context, key string, response StoredResponse) error
}
