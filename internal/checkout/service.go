package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dityaaz/go-shop-checkout/internal/cart"
	"github.com/dityaaz/go-shop-checkout/internal/catalog"
	"github.com/dityaaz/go-shop-checkout/internal/metrics"
	"github.com/dityaaz/go-shop-checkout/internal/orders"
	"github.com/dityaaz/go-shop-checkout/internal/shipping"
)

// Overall deadline per checkout; a timeout mid-reservation compensates like
// any other failure.
const checkoutTimeout = 10 * time.Second

var ErrTrackingRequired = errors.New("tracking number required for shipped status")

type CartStore interface {
	Load(ctx context.Context, userID string) (cart.Cart, error)
	Clear(ctx context.Context, userID string) error
}

type CatalogStore interface {
	GetProductAndSKU(ctx context.Context, productID, skuCode string) (catalog.Product, catalog.SKU, error)
	TryDecrement(ctx context.Context, skuCode string, qty int) (bool, error)
	Increment(ctx context.Context, skuCode string, qty int) error
}

type OrderStore interface {
	Create(ctx context.Context, o *orders.Order) error
	GetByID(ctx context.Context, id string) (orders.Order, error)
	ListByUser(ctx context.Context, userID string) ([]orders.Order, error)
	UpdateStatus(ctx context.Context, id string, from, to orders.Status, f orders.StatusFields) error
	UpdatePaymentStatus(ctx context.Context, id string, from, to orders.PaymentStatus, f orders.PaymentFields) error
}

// NotificationGateway is fire-and-forget from the service's point of view:
// returned errors are logged, never propagated, never compensated.
type NotificationGateway interface {
	OrderConfirmation(ctx context.Context, o orders.Order) error
	StatusChange(ctx context.Context, o orders.Order, from, to orders.Status) error
	PaymentChange(ctx context.Context, o orders.Order, from, to orders.PaymentStatus) error
}

type OrderCache interface {
	Invalidate(ctx context.Context, orderID string)
}

type Service struct {
	Carts    CartStore
	Catalog  CatalogStore
	Orders   OrderStore
	Notify   NotificationGateway
	Cache    OrderCache
	ShipCost shipping.CostFunc // defaults to shipping.Cost
	Metrics  *metrics.CheckoutMetrics
	Log      *zap.Logger
}

type CheckoutInput struct {
	UserID         string
	Address        orders.Address
	ShippingMethod shipping.Method
	PaymentMethod  string
	Notes          string
}

// Checkout converts the user's cart into a durable order. On every error
// path, stock decremented in this call has been re-incremented before the
// error is returned: "stock decremented" and "order exists" never diverge.
func (s *Service) Checkout(ctx context.Context, in CheckoutInput) (orders.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, checkoutTimeout)
	defer cancel()
	start := time.Now()

	c, err := s.Carts.Load(ctx, in.UserID)
	if err != nil {
		s.countCheckout("error")
		return orders.Order{}, &PersistenceError{Op: "load cart", Err: err}
	}
	if len(c.Lines) == 0 {
		s.countCheckout("empty_cart")
		return orders.Order{}, &EmptyCartError{UserID: in.UserID}
	}

	// Revalidate against the live catalog; the cart's snapshot only
	// identifies the product/SKU.
	items := make([]orders.Item, 0, len(c.Lines))
	subtotal, weight := 0, 0
	for _, l := range c.Lines {
		p, sku, err := s.Catalog.GetProductAndSKU(ctx, l.ProductID, l.SKUCode)
		if errors.Is(err, catalog.ErrNotFound) {
			s.countCheckout("unavailable")
			return orders.Order{}, &ProductUnavailableError{ProductID: l.ProductID, SKUCode: l.SKUCode}
		}
		if err != nil {
			s.countCheckout("error")
			return orders.Order{}, &PersistenceError{Op: "load product", Err: err}
		}
		if !p.IsActive || !sku.IsActive {
			s.countCheckout("unavailable")
			return orders.Order{}, &ProductUnavailableError{ProductID: p.ID, SKUCode: sku.Code}
		}
		if sku.Stock < l.Qty {
			s.countCheckout("insufficient_stock")
			return orders.Order{}, &InsufficientStockError{ProductID: p.ID, SKUCode: sku.Code, Requested: l.Qty, Available: sku.Stock}
		}
		items = append(items, orders.Item{
			ProductID:   p.ID,
			SKUCode:     sku.Code,
			Name:        p.Name,
			Size:        sku.Size,
			Color:       sku.Color,
			Qty:         l.Qty,
			PriceCents:  sku.PriceCents,
			WeightGrams: sku.WeightGrams,
			ImageURL:    p.ImageURL,
		})
		subtotal += sku.PriceCents * l.Qty
		weight += sku.WeightGrams * l.Qty
	}

	costFn := s.ShipCost
	if costFn == nil {
		costFn = shipping.Cost
	}
	shipCents, err := costFn(in.ShippingMethod, weight)
	if err != nil {
		s.countCheckout("bad_request")
		return orders.Order{}, fmt.Errorf("shipping cost: %w", err)
	}
	taxCents, discountCents := 0, 0 // no tax/discount engine wired in yet
	total := subtotal + shipCents + taxCents - discountCents

	// Reserve stock. The conditional decrement is the serialization point
	// between concurrent checkouts; on any failure, compensate exactly the
	// subset already applied.
	applied := make([]orders.Item, 0, len(items))
	for _, it := range items {
		ok, err := s.Catalog.TryDecrement(ctx, it.SKUCode, it.Qty)
		if err != nil {
			s.compensate(ctx, applied)
			s.countCheckout("error")
			return orders.Order{}, &PersistenceError{Op: "reserve stock", Err: err}
		}
		if !ok {
			s.compensate(ctx, applied)
			s.countReject()
			s.countCheckout("insufficient_stock")
			avail := s.currentStock(ctx, it.ProductID, it.SKUCode)
			return orders.Order{}, &InsufficientStockError{ProductID: it.ProductID, SKUCode: it.SKUCode, Requested: it.Qty, Available: avail}
		}
		applied = append(applied, it)
	}

	now := time.Now().UTC()
	o := orders.Order{
		ID:             uuid.NewString(),
		Number:         NewOrderNumber(now),
		UserID:         in.UserID,
		Items:          items,
		SubtotalCents:  subtotal,
		ShippingCents:  shipCents,
		TaxCents:       taxCents,
		DiscountCents:  discountCents,
		TotalCents:     total,
		Address:        in.Address,
		ShippingMethod: string(in.ShippingMethod),
		PaymentMethod:  in.PaymentMethod,
		Status:         orders.StatusPending,
		PaymentStatus:  orders.PaymentPending,
		Notes:          in.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.Orders.Create(ctx, &o); err != nil {
		// reserved stock with no order is a stock leak -> roll it all back
		s.compensate(ctx, applied)
		s.countCheckout("error")
		return orders.Order{}, &PersistenceError{Op: "create order", Err: err}
	}

	if err := s.Carts.Clear(ctx, in.UserID); err != nil {
		// The order exists and its stock is reserved, so the invariant
		// holds; a stale cart is recoverable. Do not undo anything.
		s.logger().Error("cart clear failed after order create",
			zap.String("order_id", o.ID), zap.String("user_id", in.UserID), zap.Error(err))
	}

	s.emitConfirmation(ctx, o)
	s.countCheckout("ok")
	s.observeLatency(time.Since(start))
	return o, nil
}

// CancelOrder is the user-facing cancellation, allowed while the order is
// still pending or confirmed. Stock is restored before the status flips; the
// compare-and-set guarantees the restore happens at most once per order.
func (s *Service) CancelOrder(ctx context.Context, userID, orderID, reason string) (orders.Order, error) {
	o, err := s.getOwned(ctx, userID, orderID)
	if err != nil {
		return orders.Order{}, err
	}
	if !orders.CanCancel(o.Status) {
		return orders.Order{}, &InvalidOrderStateError{OrderID: o.ID, From: string(o.Status), To: string(orders.StatusCancelled)}
	}
	return s.cancel(ctx, o, reason)
}

func (s *Service) cancel(ctx context.Context, o orders.Order, reason string) (orders.Order, error) {
	if err := s.restoreStock(ctx, o.Items); err != nil {
		return orders.Order{}, &PersistenceError{Op: "restore stock", Err: err}
	}
	prev := o.Status
	if err := s.Orders.UpdateStatus(ctx, o.ID, prev, orders.StatusCancelled, orders.StatusFields{CancelReason: reason}); err != nil {
		// someone else transitioned first, or the store broke: the restore
		// has to be undone either way
		s.undoRestore(ctx, o.Items)
		if errors.Is(err, orders.ErrStatusConflict) {
			return orders.Order{}, &InvalidOrderStateError{OrderID: o.ID, From: string(prev), To: string(orders.StatusCancelled)}
		}
		return orders.Order{}, &PersistenceError{Op: "update status", Err: err}
	}
	o.Status = orders.StatusCancelled
	o.CancelReason = reason

	if o.PaymentStatus == orders.PaymentPending {
		if err := s.Orders.UpdatePaymentStatus(ctx, o.ID, orders.PaymentPending, orders.PaymentCancelled, orders.PaymentFields{}); err != nil {
			s.logger().Warn("payment status cancel failed", zap.String("order_id", o.ID), zap.Error(err))
		} else {
			o.PaymentStatus = orders.PaymentCancelled
		}
	}

	s.emitStatusChange(ctx, o, prev, orders.StatusCancelled)
	s.invalidate(ctx, o.ID)
	return o, nil
}

// AdminUpdateStatus drives the fulfillment axis. Transition legality is
// checked before any write; shipped requires a tracking number; cancelled
// restores stock exactly like a user cancellation.
func (s *Service) AdminUpdateStatus(ctx context.Context, orderID string, to orders.Status, trackingNumber string) (orders.Order, error) {
	o, err := s.get(ctx, orderID)
	if err != nil {
		return orders.Order{}, err
	}
	if !orders.ValidStatus(to) || !orders.CanTransition(o.Status, to) {
		return orders.Order{}, &InvalidOrderStateError{OrderID: o.ID, From: string(o.Status), To: string(to)}
	}
	if to == orders.StatusShipped && trackingNumber == "" {
		return orders.Order{}, ErrTrackingRequired
	}
	if to == orders.StatusCancelled {
		return s.cancel(ctx, o, "cancelled by admin")
	}

	prev := o.Status
	if err := s.Orders.UpdateStatus(ctx, o.ID, prev, to, orders.StatusFields{TrackingNumber: trackingNumber}); err != nil {
		if errors.Is(err, orders.ErrStatusConflict) {
			return orders.Order{}, &InvalidOrderStateError{OrderID: o.ID, From: string(prev), To: string(to)}
		}
		return orders.Order{}, &PersistenceError{Op: "update status", Err: err}
	}
	o.Status = to
	if trackingNumber != "" {
		o.TrackingNumber = trackingNumber
	}
	s.emitStatusChange(ctx, o, prev, to)
	s.invalidate(ctx, o.ID)
	return o, nil
}

// AdminUpdatePaymentStatus drives the payment axis. A transition to paid
// auto-advances a still-pending order to confirmed.
func (s *Service) AdminUpdatePaymentStatus(ctx context.Context, orderID string, to orders.PaymentStatus, paymentRef string) (orders.Order, error) {
	o, err := s.get(ctx, orderID)
	if err != nil {
		return orders.Order{}, err
	}
	if !orders.ValidPaymentStatus(to) || !orders.CanTransitionPayment(o.PaymentStatus, to) {
		return orders.Order{}, &InvalidOrderStateError{OrderID: o.ID, From: string(o.PaymentStatus), To: string(to)}
	}

	prev := o.PaymentStatus
	if err := s.Orders.UpdatePaymentStatus(ctx, o.ID, prev, to, orders.PaymentFields{PaymentRef: paymentRef}); err != nil {
		if errors.Is(err, orders.ErrStatusConflict) {
			return orders.Order{}, &InvalidOrderStateError{OrderID: o.ID, From: string(prev), To: string(to)}
		}
		return orders.Order{}, &PersistenceError{Op: "update payment status", Err: err}
	}
	o.PaymentStatus = to
	if paymentRef != "" {
		o.PaymentRef = paymentRef
	}

	if to == orders.PaymentPaid && o.Status == orders.StatusPending {
		if err := s.Orders.UpdateStatus(ctx, o.ID, orders.StatusPending, orders.StatusConfirmed, orders.StatusFields{}); err != nil {
			// the order already moved on; the payment update itself stands
			s.logger().Warn("auto-confirm after payment failed", zap.String("order_id", o.ID), zap.Error(err))
		} else {
			o.Status = orders.StatusConfirmed
			s.emitStatusChange(ctx, o, orders.StatusPending, orders.StatusConfirmed)
		}
	}

	s.emitPaymentChange(ctx, o, prev, to)
	s.invalidate(ctx, o.ID)
	return o, nil
}

func (s *Service) GetOrder(ctx context.Context, userID, orderID string) (orders.Order, error) {
	return s.getOwned(ctx, userID, orderID)
}

func (s *Service) ListOrders(ctx context.Context, userID string) ([]orders.Order, error) {
	out, err := s.Orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, &PersistenceError{Op: "list orders", Err: err}
	}
	return out, nil
}

// ---- internals ----

func (s *Service) get(ctx context.Context, orderID string) (orders.Order, error) {
	o, err := s.Orders.GetByID(ctx, orderID)
	if errors.Is(err, orders.ErrNotFound) {
		return orders.Order{}, ErrOrderNotFound
	}
	if err != nil {
		return orders.Order{}, &PersistenceError{Op: "load order", Err: err}
	}
	return o, nil
}

func (s *Service) getOwned(ctx context.Context, userID, orderID string) (orders.Order, error) {
	o, err := s.get(ctx, orderID)
	if err != nil {
		return orders.Order{}, err
	}
	if o.UserID != userID {
		return orders.Order{}, ErrOrderNotFound
	}
	return o, nil
}

// compensate re-increments every SKU decremented earlier in the same call.
// Increments commute, order doesn't matter.
func (s *Service) compensate(ctx context.Context, applied []orders.Item) {
	for _, it := range applied {
		if err := s.Catalog.Increment(ctx, it.SKUCode, it.Qty); err != nil {
			// stock leak, needs operator attention
			s.logger().Error("compensation failed", zap.String("sku", it.SKUCode), zap.Int("qty", it.Qty), zap.Error(err))
		}
	}
	if s.Metrics != nil && len(applied) > 0 {
		s.Metrics.Compensations.Inc()
	}
}

func (s *Service) restoreStock(ctx context.Context, items []orders.Item) error {
	restored := make([]orders.Item, 0, len(items))
	for _, it := range items {
		if err := s.Catalog.Increment(ctx, it.SKUCode, it.Qty); err != nil {
			s.undoRestore(ctx, restored)
			return err
		}
		restored = append(restored, it)
	}
	return nil
}

// undoRestore walks back increments applied by restoreStock when the status
// write afterwards did not go through. A failing decrement here means the
// restored stock was already sold; that is logged, not retried.
func (s *Service) undoRestore(ctx context.Context, items []orders.Item) {
	for _, it := range items {
		ok, err := s.Catalog.TryDecrement(ctx, it.SKUCode, it.Qty)
		if err != nil || !ok {
			s.logger().Error("undo of stock restore failed",
				zap.String("sku", it.SKUCode), zap.Int("qty", it.Qty), zap.Bool("applied", ok), zap.Error(err))
		}
	}
}

func (s *Service) currentStock(ctx context.Context, productID, skuCode string) int {
	_, sku, err := s.Catalog.GetProductAndSKU(ctx, productID, skuCode)
	if err != nil {
		return 0
	}
	return sku.Stock
}

func (s *Service) emitConfirmation(ctx context.Context, o orders.Order) {
	if s.Notify == nil {
		return
	}
	if err := s.Notify.OrderConfirmation(ctx, o); err != nil {
		s.logger().Warn("order confirmation notify failed", zap.String("order_id", o.ID), zap.Error(err))
	}
}

func (s *Service) emitStatusChange(ctx context.Context, o orders.Order, from, to orders.Status) {
	if s.Notify == nil {
		return
	}
	if err := s.Notify.StatusChange(ctx, o, from, to); err != nil {
		s.logger().Warn("status change notify failed", zap.String("order_id", o.ID), zap.Error(err))
	}
}

func (s *Service) emitPaymentChange(ctx context.Context, o orders.Order, from, to orders.PaymentStatus) {
	if s.Notify == nil {
		return
	}
	if err := s.Notify.PaymentChange(ctx, o, from, to); err != nil {
		s.logger().Warn("payment change notify failed", zap.String("order_id", o.ID), zap.Error(err))
	}
}

func (s *Service) invalidate(ctx context.Context, orderID string) {
	if s.Cache != nil {
		s.Cache.Invalidate(ctx, orderID)
	}
}

func (s *Service) countCheckout(result string) {
	if s.Metrics != nil {
		s.Metrics.Checkouts.WithLabelValues(result).Inc()
	}
}

func (s *Service) countReject() {
	if s.Metrics != nil {
		s.Metrics.StockRejects.Inc()
	}
}

func (s *Service) observeLatency(d time.Duration) {
	if s.Metrics != nil {
		s.Metrics.LatencyMS.Observe(float64(d.Milliseconds()))
	}
}

func (s *Service) logger() *zap.Logger {
	if s.Log != nil {
		return s.Log
	}
	return zap.NewNop()
}
