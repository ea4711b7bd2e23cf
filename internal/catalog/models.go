package catalog

import "time"

type Product struct {
	ID         string
	Name       string
	PriceCents int
	ImageURL   string
	IsActive   bool
	SKUs       []SKU
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SKU is the unit stock is tracked at. Codes are unique across the catalog.
type SKU struct {
	Code        string
	ProductID   string
	Size        string
	Color       string
	PriceCents  int
	Stock       int
	WeightGrams int
	IsActive    bool
}
