package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dejobratic/puravida/internal/clock"
	"github.com/dejobratic/puravida/internal/orders/ports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store keeps replayable responses in the idempotency_keys table.
// Rows older than ttl are ignored and overwritten; a zero ttl keeps them forever.
type Store struct {
	pool  *pgxpool.Pool
	ttl   time.Duration
	clock clock.Clock
}

func NewStore(pool *pgxpool.Pool, ttl time.Duration, clk clock.Clock) *Store {
	return &Store{pool: pool, ttl: ttl, clock: clk}
}

func (s *Store) Get(ctx context.Context, key string) (*ports.StoredResponse, error) {
	query := `
		SELECT operation, status_code, body, order_id, created_at
		FROM idempotency_keys
		WHERE key = $1 AND ($2::timestamptz IS NULL OR created_at >= $2)
	`

	var resp ports.StoredResponse
	err := s.pool.QueryRow(ctx, query, key, s.cutoff()).Scan(
		&resp.Operation,
		&resp.StatusCode,
		&resp.Body,
		&resp.OrderID,
		&resp.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select idempotency key: %w", err)
	}

	return &resp, nil
}

// Save keeps the first fresh response for key. Expired rows are replaced.
func (s *Store) Save(ctx context.Context, key string, response ports.StoredResponse) error {
	if response.CreatedAt.IsZero() {
		response.CreatedAt = s.clock.Now()
	}

	query := `
		INSERT INTO idempotency_keys (key, operation, status_code, body, order_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (key) DO UPDATE SET
			operation = EXCLUDED.operation,
			status_code = EXCLUDED.status_code,
			body = EXCLUDED.body,
			order_id = EXCLUDED.order_id,
			created_at = EXCLUDED.created_at
		WHERE $7::timestamptz IS NOT NULL AND idempotency_keys.created_at < $7
	`

	_, err := s.pool.Exec(ctx, query,
		key,
		response.Operation,
		response.StatusCode,
		response.Body,
		response.OrderID,
		response.CreatedAt,
		s.cutoff(),
	)
	if err != nil {
		return fmt.Errorf("insert idempotency key: %w", err)
	}

	return nil
}

func (s *Store) cutoff() *time.Time {
	if s.ttl <= 0 {
		return nil
	}
	t := s.clock.Now().Add(-s.ttl)
	return &t
}
