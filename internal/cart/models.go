package cart

import "time"

// Cart is one per user. Kart kosong direpresentasikan dengan Lines nil.
type Cart struct {
	ID        string
	UserID    string
	Lines     []Line
	UpdatedAt time.Time
}

// Line holds the price captured at add time. Checkout re-reads the catalog,
// this snapshot only identifies the product/SKU and what the user saw.
type Line struct {
	ProductID  string
	SKUCode    string
	Qty        int
	PriceCents int
}
