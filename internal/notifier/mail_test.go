package notifier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dityaaz/go-shop-checkout/internal/orders"
)

func TestConfirmationMail(t *testing.T) {
	m := confirmationMail(orders.OrderCreatedPayload{
		OrderNumber: "ORD-20260826-ABC123",
		Items: []orders.ItemSnapshot{
			{Name: "Basic Tee", Qty: 2},
			{Name: "Limited Cap", Qty: 1},
		},
		TotalCents: 613000,
	})
	assert.Contains(t, m.Subject, "ORD-20260826-ABC123")
	assert.Contains(t, m.Body, "Basic Tee × 2")
	assert.Contains(t, m.Body, "Limited Cap × 1")
	assert.Contains(t, m.Body, "613000")
}

func TestStatusMail(t *testing.T) {
	m := statusMail(orders.StatusChangedPayload{
		OrderNumber:    "ORD-1",
		To:             orders.StatusShipped,
		TrackingNumber: "TRK-99",
	})
	assert.Contains(t, m.Subject, "shipped")
	assert.Contains(t, m.Body, "TRK-99")

	m = statusMail(orders.StatusChangedPayload{
		OrderNumber:  "ORD-2",
		To:           orders.StatusCancelled,
		CancelReason: "changed my mind",
	})
	assert.Contains(t, m.Body, "changed my mind")
	assert.NotContains(t, m.Body, "Tracking")
}

func TestPaymentMail(t *testing.T) {
	m := paymentMail(orders.PaymentChangedPayload{
		OrderNumber: "ORD-3",
		To:          orders.PaymentPaid,
		PaymentRef:  "pay-77",
	})
	assert.Contains(t, m.Subject, "paid")
	assert.Contains(t, m.Body, "pay-77")
}
