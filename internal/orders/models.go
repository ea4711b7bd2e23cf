package orders

import "time"

type Order struct {
	ID             string
	Number         string // human-readable, ORD-YYYYMMDD-XXXXXX
	UserID         string
	Items          []Item
	SubtotalCents  int
	ShippingCents  int
	TaxCents       int
	DiscountCents  int
	TotalCents     int
	Address        Address
	ShippingMethod string
	PaymentMethod  string
	Status         Status
	PaymentStatus  PaymentStatus
	TrackingNumber string
	PaymentRef     string
	CancelReason   string
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Item is an immutable snapshot of the product/SKU at checkout time. Catalog
// edits after checkout never alter order history.
type Item struct {
	ProductID   string
	SKUCode     string
	Name        string
	Size        string
	Color       string
	Qty         int
	PriceCents  int
	WeightGrams int
	ImageURL    string
}

type Address struct {
	Recipient  string
	Phone      string
	Street     string
	City       string
	Province   string
	PostalCode string
}

// StatusFields carries the extra columns written together with a fulfillment
// transition.
type StatusFields struct {
	TrackingNumber string
	CancelReason   string
}

type PaymentFields struct {
	PaymentRef string
}
