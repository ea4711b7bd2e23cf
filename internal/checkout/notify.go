package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/dityaaz/go-shop-checkout/internal/kafka"
	"github.com/dityaaz/go-shop-checkout/internal/orders"
	"github.com/dityaaz/go-shop-checkout/internal/redisx"
)

// KafkaGateway implements NotificationGateway by publishing versioned event
// envelopes; delivery is the notifier binary's problem. Publish is async, so
// the checkout path never blocks on the broker.
type KafkaGateway struct {
	Created *kafkax.Producer // order.created
	Status  *kafkax.Producer // order.status.changed
	Payment *kafkax.Producer // order.payment.changed
	Service string
}

func (g *KafkaGateway) OrderConfirmation(ctx context.Context, o orders.Order) error {
	items := make([]orders.ItemSnapshot, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orders.ItemSnapshot{
			ProductID: it.ProductID, SKUCode: it.SKUCode, Name: it.Name, Qty: it.Qty, PriceCents: it.PriceCents,
		})
	}
	g.publish(g.Created, o.ID, orders.EventOrderCreated, orders.OrderCreatedPayload{
		OrderID: o.ID, OrderNumber: o.Number, UserID: o.UserID, Items: items, TotalCents: o.TotalCents,
	})
	return nil
}

func (g *KafkaGateway) StatusChange(ctx context.Context, o orders.Order, from, to orders.Status) error {
	g.publish(g.Status, o.ID, orders.EventStatusChanged, orders.StatusChangedPayload{
		OrderID: o.ID, OrderNumber: o.Number, UserID: o.UserID,
		From: from, To: to, TrackingNumber: o.TrackingNumber, CancelReason: o.CancelReason,
	})
	return nil
}

func (g *KafkaGateway) PaymentChange(ctx context.Context, o orders.Order, from, to orders.PaymentStatus) error {
	g.publish(g.Payment, o.ID, orders.EventPaymentChanged, orders.PaymentChangedPayload{
		OrderID: o.ID, OrderNumber: o.Number, UserID: o.UserID,
		From: from, To: to, PaymentRef: o.PaymentRef,
	})
	return nil
}

func (g *KafkaGateway) publish(p *kafkax.Producer, orderID, eventType string, payload any) {
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      g.Service,
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

// RedisOrderCache drops the cached order view after an accepted transition so
// readers never see a stale status.
type RedisOrderCache struct {
	R *redis.Client
}

func (c *RedisOrderCache) Invalidate(ctx context.Context, orderID string) {
	_ = c.R.Del(ctx, fmt.Sprintf(redisx.KeyOrderCache, orderID)).Err()
}
