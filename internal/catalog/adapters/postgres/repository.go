package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dejobratic/puravida/internal/catalog/domain"
	"github.com/dejobratic/puravida/internal/catalog/ports"
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

const productColumns = `code, name, category, price, min_stock, stock, created_at, updated_at`

func (r *Repository) Create(ctx context.Context, product domain.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := database.Conn(ctx, r.pool).Exec(ctx, query,
		product.Code,
		product.Name,
		product.Category,
		product.Price,
		product.MinStock,
		product.Stock,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ports.ErrDuplicate, product.Code)
		}
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

func (r *Repository) Update(ctx context.Context, product domain.Product) error {
	query := `
		UPDATE products
		SET name = $2, category = $3, price = $4, min_stock = $5, stock = $6, updated_at = $7
		WHERE code = $1
	`

	result, err := database.Conn(ctx, r.pool).Exec(ctx, query,
		product.Code,
		product.Name,
		product.Category,
		product.Price,
		product.MinStock,
		product.Stock,
		product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ports.ErrNotFound, product.Code)
	}

	return nil
}

func (r *Repository) Delete(ctx context.Context, code string) error {
	result, err := database.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM products WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ports.ErrNotFound, code)
	}
	return nil
}

func (r *Repository) FindByCode(ctx context.Context, code string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE code = $1`

	product, err := scanProduct(database.Conn(ctx, r.pool).QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ports.ErrNotFound, code)
		}
		return nil, fmt.Errorf("select product: %w", err)
	}

	return &product, nil
}

func (r *Repository) List(ctx context.Context, filter ports.ListFilter) ([]domain.Product, error) {
	orderBy := "code ASC"
	switch filter.Sort {
	case ports.SortByPriceAsc:
		orderBy = "price ASC, code ASC"
	case ports.SortByStockDesc:
		orderBy = "stock DESC, code ASC"
	}

	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE ($1::text = '' OR LOWER(name) LIKE '%' || LOWER($1::text) || '%')
		  AND ($2::text = '' OR LOWER(category) = LOWER($2::text))
		ORDER BY ` + orderBy

	rows, err := database.Conn(ctx, r.pool).Query(ctx, query, filter.Query, filter.Category)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return products, nil
}

// AdjustStock changes stock with a guarded update so it never goes negative.
func (r *Repository) AdjustStock(ctx context.Context, code string, delta int) error {
	query := `
		UPDATE products
		SET stock = stock + $2, updated_at = $3
		WHERE code = $1 AND stock + $2 >= 0
		RETURNING stock
	`

	conn := database.Conn(ctx, r.pool)

	var stock int
	err := conn.QueryRow(ctx, query, code, delta, time.Now().UTC()).Scan(&stock)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("adjust stock: %w", err)
	}

	var current int
	if err := conn.QueryRow(ctx, `SELECT stock FROM products WHERE code = $1`, code).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %s", ports.ErrNotFound, code)
		}
		return fmt.Errorf("select stock: %w", err)
	}
	return fmt.Errorf("%w: %s has %d, change %d", ports.ErrInsufficientStock, code, current, delta)
}

// ApplyStockAdjustments runs every adjustment in one transaction.
func (r *Repository) ApplyStockAdjustments(ctx context.Context, adjustments []domain.StockAdjustment) error {
	return database.WithTx(ctx, r.pool, func(ctx context.Context) error {
		for _, adj := range adjustments {
			if err := r.AdjustStock(ctx, adj.Code, adj.Delta); err != nil {
				return err
			}
		}
		return nil
	})
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(
		&p.Code,
		&p.Name,
		&p.Category,
		&p.Price,
		&p.MinStock,
		&p.Stock,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}
