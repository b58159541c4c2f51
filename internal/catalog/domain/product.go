package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultCriticalThreshold marks products whose stock is running out.
const DefaultCriticalThreshold = 5

// Product is a sellable item tracked by the catalog.
type Product struct {
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Price     float64   `json:"price"`
	MinStock  int       `json:"min_stock"`
	Stock     int       `json:"stock"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate ensures the product adheres to catalog constraints.
func (p Product) Validate() error {
	if strings.TrimSpace(p.Code) == "" {
		return errors.New("code is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("name is required")
	}
	if p.Price <= 0 {
		return fmt.Errorf("price must be positive, got %.2f", p.Price)
	}
	if p.MinStock < 0 {
		return fmt.Errorf("min_stock must not be negative, got %d", p.MinStock)
	}
	if p.Stock < 0 {
		return fmt.Errorf("stock must not be negative, got %d", p.Stock)
	}
	return nil
}

// IsCritical reports whether stock is below threshold.
func (p Product) IsCritical(threshold int) bool {
	return p.Stock < threshold
}

// BelowMinimum reports whether stock dropped under the configured minimum.
func (p Product) BelowMinimum() bool {
	return p.Stock < p.MinStock
}

// StockAdjustment is a signed change to a product's stock.
type StockAdjustment struct {
	Code  string
	Delta int
}
