package domain

import (
	"errors"
	"strings"
	"time"
)

// Customer is a registered buyer. ID holds the national identification number.
type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate ensures the customer record is usable.
func (c Customer) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return errors.New("id is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("name is required")
	}
	if c.Email != "" && !strings.Contains(c.Email, "@") {
		return errors.New("email must be valid")
	}
	return nil
}
