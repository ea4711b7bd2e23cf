package checkout

import (
	"errors"
	"fmt"
)

// ErrOrderNotFound covers both a missing order and an order belonging to a
// different user, so lookups don't leak existence.
var ErrOrderNotFound = errors.New("order not found")

// EmptyCartError: checkout attempted with no cart lines. Safe to retry after
// the user adds items.
type EmptyCartError struct {
	UserID string
}

func (e *EmptyCartError) Error() string {
	return fmt.Sprintf("cart for user %s is empty", e.UserID)
}

// ProductUnavailableError: the product/SKU was removed or deactivated between
// add-to-cart and checkout.
type ProductUnavailableError struct {
	ProductID string
	SKUCode   string
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product %s (sku %s) is not available", e.ProductID, e.SKUCode)
}

// InsufficientStockError names the losing SKU and what was left. Any
// decrements already applied in the same checkout have been compensated by
// the time this is returned.
type InsufficientStockError struct {
	ProductID string
	SKUCode   string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for sku %s: requested %d, available %d", e.SKUCode, e.Requested, e.Available)
}

// InvalidOrderStateError: the requested transition is not reachable from the
// order's current state. The store was not mutated.
type InvalidOrderStateError struct {
	OrderID string
	From    string
	To      string
}

func (e *InvalidOrderStateError) Error() string {
	return fmt.Sprintf("order %s: cannot transition from %s to %s", e.OrderID, e.From, e.To)
}

// PersistenceError wraps a store failure. Stock invariants have been restored
// before it propagates, so retrying is safe.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
