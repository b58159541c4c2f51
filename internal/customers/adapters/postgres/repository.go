package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dejobratic/puravida/internal/customers/domain"
	"github.com/dejobratic/puravida/internal/customers/ports"
	"github.com/dejobratic/puravida/internal/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, customer domain.Customer) error {
	query := `
		INSERT INTO customers (id, name, phone, email, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query,
		customer.ID,
		customer.Name,
		customer.Phone,
		customer.Email,
		customer.CreatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ports.ErrDuplicate, customer.ID)
		}
		return fmt.Errorf("insert customer: %w", err)
	}

	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	query := `
		SELECT id, name, phone, email, created_at
		FROM customers
		WHERE id = $1
	`

	var c domain.Customer
	err := r.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ports.ErrNotFound, id)
		}
		return nil, fmt.Errorf("select customer: %w", err)
	}

	return &c, nil
}

func (r *Repository) List(ctx context.Context) ([]domain.Customer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, phone, email, created_at
		FROM customers
		ORDER BY name ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}
	defer rows.Close()

	customers := []domain.Customer{}
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}

	return customers, nil
}
