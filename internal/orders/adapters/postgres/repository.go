package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dejobratic/puravida/internal/database"
	"github.com/dejobratic/puravida/internal/orders/domain"
	"github.com/dejobratic/puravida/internal/orders/ports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool       *pgxpool.Pool
	strategies ports.StrategyResolver
}

// NewRepository stores orders in postgres. strategies rebuilds the payment
// strategy of every loaded order from its method token.
func NewRepository(pool *pgxpool.Pool, strategies ports.StrategyResolver) *Repository {
	return &Repository{pool: pool, strategies: strategies}
}

// Save upserts the order header and replaces its item lines.
func (r *Repository) Save(ctx context.Context, order *domain.Order) error {
	s := order.Snapshot()

	return database.WithTx(ctx, r.pool, func(ctx context.Context) error {
		conn := database.Conn(ctx, r.pool)

		_, err := conn.Exec(ctx, `
			INSERT INTO orders (id, customer_id, customer_name, status, discount, tax_rate, payment_method, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO UPDATE SET
				customer_id = EXCLUDED.customer_id,
				customer_name = EXCLUDED.customer_name,
				status = EXCLUDED.status,
				discount = EXCLUDED.discount,
				tax_rate = EXCLUDED.tax_rate,
				payment_method = EXCLUDED.payment_method,
				updated_at = EXCLUDED.updated_at
		`,
			s.ID,
			s.Customer.ID,
			s.Customer.Name,
			s.Status,
			s.Discount,
			s.TaxRate,
			s.PaymentMethod,
			s.CreatedAt,
			s.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("upsert order: %w", err)
		}

		if _, err := conn.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, s.ID); err != nil {
			return fmt.Errorf("clear order items: %w", err)
		}

		for i, item := range s.Items {
			_, err := conn.Exec(ctx, `
				INSERT INTO order_items (order_id, position, product_code, product_name, quantity, unit_price)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, s.ID, i, item.ProductCode, item.ProductName, item.Quantity, item.UnitPrice)
			if err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
		}

		return nil
	})
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `
		SELECT id, customer_id, customer_name, status, discount, tax_rate, payment_method, created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	conn := database.Conn(ctx, r.pool)

	s, err := scanSnapshot(conn.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
		}
		return nil, fmt.Errorf("select order: %w", err)
	}

	if s.Items, err = r.loadItems(ctx, conn, id); err != nil {
		return nil, err
	}

	return r.restore(s)
}

func (r *Repository) List(ctx context.Context, filter ports.ListFilter) ([]*domain.Order, error) {
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	query := `
		SELECT id, customer_id, customer_name, status, discount, tax_rate, payment_method, created_at, updated_at
		FROM orders
		WHERE ($1::text IS NULL OR status = $1)
		  AND ($2::text = '' OR customer_id = $2::text)
		ORDER BY created_at DESC, id ASC
		LIMIT $3 OFFSET $4
	`

	var statusFilter *string
	if filter.Status != nil {
		s := string(*filter.Status)
		statusFilter = &s
	}

	offset := (page - 1) * pageSize
	conn := database.Conn(ctx, r.pool)

	rows, err := conn.Query(ctx, query, statusFilter, filter.CustomerID, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}

	var snapshots []domain.Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan order: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	orders := make([]*domain.Order, 0, len(snapshots))
	for _, s := range snapshots {
		if s.Items, err = r.loadItems(ctx, conn, s.ID); err != nil {
			return nil, err
		}
		order, err := r.restore(s)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	return orders, nil
}

func (r *Repository) loadItems(ctx context.Context, conn database.Querier, orderID string) ([]domain.Item, error) {
	rows, err := conn.Query(ctx, `
		SELECT product_code, product_name, quantity, unit_price
		FROM order_items
		WHERE order_id = $1
		ORDER BY position ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	items := []domain.Item{}
	for rows.Next() {
		var item domain.Item
		if err := rows.Scan(&item.ProductCode, &item.ProductName, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}

	return items, nil
}

func (r *Repository) restore(s domain.Snapshot) (*domain.Order, error) {
	strategy, err := r.strategies.Create(s.PaymentMethod)
	if err != nil {
		return nil, fmt.Errorf("restore order %s: %w", s.ID, err)
	}
	return domain.Restore(s, strategy)
}

func scanSnapshot(row pgx.Row) (domain.Snapshot, error) {
	var s domain.Snapshot
	err := row.Scan(
		&s.ID,
		&s.Customer.ID,
		&s.Customer.Name,
		&s.Status,
		&s.Discount,
		&s.TaxRate,
		&s.PaymentMethod,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	return s, err
}
