package domain

import "time"

// Invoice records a receipt written for an invoiced order.
type Invoice struct {
	OrderID     string    `json:"order_id"`
	Path        string    `json:"path"`
	ControlCode string    `json:"control_code"`
	Total       float64   `json:"total"`
	IssuedAt    time.Time `json:"issued_at"`
}
