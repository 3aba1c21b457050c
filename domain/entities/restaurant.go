package entities

import (
	"errors"
	"time"
)

// Restaurant represents one restaurant tenant
type Restaurant struct {
	ID              string    `json:"id" bson:"_id"`
	Name            string    `json:"name" bson:"name"`
	Active          bool      `json:"active" bson:"active"`
	TaxRateBasisPts int64     `json:"tax_rate_basis_points" bson:"tax_rate_basis_points"` // 800 == 8%
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" bson:"updated_at"`
}

// TaxCents computes the tax on a subtotal in cents, rounded half up.
func (r *Restaurant) TaxCents(subtotalCents int64) int64 {
	return (subtotalCents*r.TaxRateBasisPts + 5000) / 10000
}

// Validate validates the restaurant data
func (r *Restaurant) Validate() error {
	if r.ID == "" {
		return errors.New("restaurant id is required")
	}
	if r.Name == "" {
		return errors.New("restaurant name is required")
	}
	if r.TaxRateBasisPts < 0 {
		return errors.New("tax rate cannot be negative")
	}
	return nil
}
