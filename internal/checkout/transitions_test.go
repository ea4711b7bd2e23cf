package checkout_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dityaaz/go-shop-checkout/internal/cart"
	"github.com/dityaaz/go-shop-checkout/internal/checkout"
	"github.com/dityaaz/go-shop-checkout/internal/orders"
)

// places a real order through the service so transition tests start from a
// consistent pending/pending state with stock actually reserved
func placeOrder(t *testing.T, e *env, user, skuCode string, qty int) orders.Order {
	t.Helper()
	e.carts.lines[user] = []cart.Line{{ProductID: "p1", SKUCode: skuCode, Qty: qty, PriceCents: 299000}}
	o, err := e.svc.Checkout(context.Background(), checkoutInput(user))
	require.NoError(t, err)
	return o
}

func TestCancelRestoresStock(t *testing.T) {
	e := newEnv()
	e.seedShirt(5, 5)
	o := placeOrder(t, e, "u1", "TEE-M-BLK", 2)
	require.Equal(t, 3, e.cat.stock("TEE-M-BLK"))

	// confirm first so we exercise cancellation from confirmed
	_, err := e.svc.AdminUpdatePaymentStatus(context.Background(), o.ID, orders.PaymentPaid, "pay-123")
	require.NoError(t, err)

	got, err := e.svc.CancelOrder(context.Background(), "u1", o.ID, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, orders.StatusCancelled, got.Status)
	assert.Equal(t, "changed my mind", got.CancelReason)
	assert.Equal(t, 5, e.cat.stock("TEE-M-BLK"), "cancellation is the inverse of reservation")

	// second cancel must fail and must not restore twice
	_, err = e.svc.CancelOrder(context.Background(), "u1", o.ID, "again")
	var inv *checkout.InvalidOrderStateError
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, string(orders.StatusCancelled), inv.From)
	assert.Equal(t, 5, e.cat.stock("TEE-M-BLK"))
}

func TestCancelPendingAlsoCancelsPayment(t *testing.T) {
	e := newEnv()
	e.seedShirt(5, 5)
	o := placeOrder(t, e, "u1", "TEE-M-BLK", 1)

	got, err := e.svc.CancelOrder(context.Background(), "u1", o.ID, "oops")
	require.NoError(t, err)
	assert.Equal(t, orders.StatusCancelled, got.Status)
	assert.Equal(t, orders.PaymentCancelled, got.PaymentStatus)
}

func TestCancelShippedRejected(t *testing.T) {
	e := newEnv()
	e.seedShirt(5, 5)
	o := placeOrder(t, e, "u1", "TEE-M-BLK", 1)

	ctx := context.Background()
	_, err := e.svc.AdminUpdatePaymentStatus(ctx, o.ID, orders.PaymentPaid, "pay-1")
	require.NoError(t, err)
	_, err = e.svc.AdminUpdateStatus(ctx, o.ID, orders.StatusProcessing, "")
	require.NoError(t, err)
	_, err = e.svc.AdminUpdateStatus(ctx, o.ID, orders.StatusShipped, "TRK-99")
	require.NoError(t, err)

	_, err = e.svc.CancelOrder(ctx, "u1", o.ID, "too late")
	var inv *checkout.InvalidOrderStateError
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, 4, e.cat.stock("TEE-M-BLK"), "rejected cancel must not touch stock")

	stored, _ := e.ords.GetByID(ctx, o.ID)
	assert.Equal(t, orders.StatusShipped, stored.Status)
}

func TestCancelWrongUser(t *testing.T) {
	e := newEnv()
	e.seedShirt(5, 5)
	o := placeOrder(t, e, "u1", "TEE-M-BLK", 1)

	_, err := e.svc.CancelOrder(context.Background(), "u2", o.ID, "not mine")
	assert.ErrorIs(t, err, checkout.ErrOrderNotFound)
}

func TestPaymentPaidAutoConfirms(t *testing.T) {
	e := newEnv()
	e.seedShirt(5, 5)
	o := placeOrder(t, e, "u1", "TEE-M-BLK", 1)

	got, err := e.svc.AdminUpdatePaymentStatus(context.Background(), o.ID, orders.PaymentPaid, "pay-77")
	require.NoError(t, err)
	assert.Equal(t, orders.PaymentPaid, got.PaymentStatus)
	assert.Equal(t, orders.StatusConfirmed, got.Status, "paid auto-advances pending to confirmed")
	assert.Equal(t, "pay-77", got.PaymentRef)

	// skipping straight to delivered is not reachable from confirmed
	_, err = e.svc.AdminUpdateStatus(context.Background(), o.ID, orders.StatusDelivered, "")
	var inv *checkout.InvalidOrderStateError
	require.ErrorAs(t, err, &inv)

	stored, _ := e.ords.GetByID(context.Background(), o.ID)
	assert.Equal(t, orders.StatusConfirmed, stored.Status, "store untouched on rejected transition")
}

func TestPendingToDeliveredRejected(t *testing.T) {
	e := newEnv()
	e.seedShirt(5, 5)
	o := placeOrder(t, e, "u1", "TEE-M-BLK", 1)

	_, err := e.svc.AdminUpdateStatus(context.Background(), o.ID, orders.StatusDelivered, "")
	var inv *checkout.InvalidOrderStateError
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, string(orders.StatusPending), inv.From)
	assert.Equal(t, string(orders.StatusDelivered), inv.To)
}

func TestShippedRequiresTracking(t *testing.T) {
	e := newEnv()
	e.seedShirt(5, 5)
	o := placeOrder(t, e, "u1", "TEE-M-BLK", 1)

	ctx := context.Background()
	_, err := e.svc.AdminUpdatePaymentStatus(ctx, o.ID, orders.PaymentPaid, "")
	require.NoError(t, err)
	_, err = e.svc.AdminUpdateStatus(ctx, o.ID, orders.StatusProcessing, "")
	require.NoError(t, err)

	_, err = e.svc.AdminUpdateStatus(ctx, o.ID, orders.StatusShipped, "")
	assert.ErrorIs(t, err, checkout.ErrTrackingRequired)

	got, err := e.svc.AdminUpdateStatus(ctx, o.ID, orders.StatusShipped, "TRK-1")
	require.NoError(t, err)
	assert.Equal(t, "TRK-1", got.TrackingNumber)
}

func TestRefundOnlyFromPaid(t *testing.T) {
	e := newEnv()
	e.seedShirt(5, 5)
	o := placeOrder(t, e, "u1", "TEE-M-BLK", 1)

	_, err := e.svc.AdminUpdatePaymentStatus(context.Background(), o.ID, orders.PaymentRefunded, "")
	var inv *checkout.InvalidOrderStateError
	require.ErrorAs(t, err, &inv)

	_, err = e.svc.AdminUpdatePaymentStatus(context.Background(), o.ID, orders.PaymentPaid, "pay-1")
	require.NoError(t, err)
	got, err := e.svc.AdminUpdatePaymentStatus(context.Background(), o.ID, orders.PaymentRefunded, "")
	require.NoError(t, err)
	assert.Equal(t, orders.PaymentRefunded, got.PaymentStatus)
}

func TestAdminCancelRestoresStock(t *testing.T) {
	e := newEnv()
	e.seedShirt(5, 5)
	o := placeOrder(t, e, "u1", "TEE-M-BLK", 2)
	require.Equal(t, 3, e.cat.stock("TEE-M-BLK"))

	got, err := e.svc.AdminUpdateStatus(context.Background(), o.ID, orders.StatusCancelled, "")
	require.NoError(t, err)
	assert.Equal(t, orders.StatusCancelled, got.Status)
	assert.Equal(t, 5, e.cat.stock("TEE-M-BLK"))
}

func TestStatusChangeNotificationsEmitted(t *testing.T) {
	e := newEnv()
	e.seedShirt(5, 5)
	o := placeOrder(t, e, "u1", "TEE-M-BLK", 1)

	_, err := e.svc.AdminUpdatePaymentStatus(context.Background(), o.ID, orders.PaymentPaid, "pay-1")
	require.NoError(t, err)

	assert.Contains(t, e.notify.statusChanges, "pending->confirmed")
	assert.Contains(t, e.notify.payChanges, "pending->paid")
}
