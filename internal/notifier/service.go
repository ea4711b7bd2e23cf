package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/dityaaz/go-shop-checkout/internal/kafka"
	"github.com/dityaaz/go-shop-checkout/internal/orders"
	"github.com/dityaaz/go-shop-checkout/internal/redisx"
)

// Service turns order events into customer mail. Delivery is best-effort:
// a failed send is logged and the offset still commits, it is never retried
// into the checkout path.
type Service struct {
	Redis       *redis.Client
	Users       UserDirectory
	Sender      Sender
	ServiceName string
	Log         *zap.Logger
}

// Handle is wired as the consumer handler for all three order topics.
func (s *Service) Handle(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}

	// dedup via Redis (pakai event_id)
	dkey := fmt.Sprintf(redisx.KeyDedup, "notifier", env.EventID)
	exists, _ := redisx.Exists(ctx, s.Redis, dkey)
	if exists {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	switch env.EventType {
	case orders.EventOrderCreated:
		p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
		if err != nil {
			return err
		}
		s.deliver(ctx, p.UserID, confirmationMail(p))
	case orders.EventStatusChanged:
		p, err := kafkax.UnwrapPayload[orders.StatusChangedPayload](env.Payload)
		if err != nil {
			return err
		}
		s.deliver(ctx, p.UserID, statusMail(p))
	case orders.EventPaymentChanged:
		p, err := kafkax.UnwrapPayload[orders.PaymentChangedPayload](env.Payload)
		if err != nil {
			return err
		}
		s.deliver(ctx, p.UserID, paymentMail(p))
	default:
		// unknown event type: ignore, commit
	}
	return nil
}

func (s *Service) deliver(ctx context.Context, userID string, m Mail) {
	to, err := s.Users.Email(ctx, userID)
	if err != nil {
		s.Log.Warn("recipient lookup failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	m.To = to
	if err := s.Sender.Send(ctx, m); err != nil {
		s.Log.Warn("mail send failed", zap.String("to", to), zap.String("subject", m.Subject), zap.Error(err))
		return
	}
	s.Log.Info("mail sent", zap.String("to", to), zap.String("subject", m.Subject))
}

func confirmationMail(p orders.OrderCreatedPayload) Mail {
	body := fmt.Sprintf("<h1>Thanks for your order!</h1><p>Order <b>%s</b> has been received.</p><ul>", p.OrderNumber)
	for _, it := range p.Items {
		body += fmt.Sprintf("<li>%s × %d</li>", it.Name, it.Qty)
	}
	body += fmt.Sprintf("</ul><p>Total: %d</p>", p.TotalCents)
	return Mail{Subject: fmt.Sprintf("Order %s confirmed", p.OrderNumber), Body: body}
}

func statusMail(p orders.StatusChangedPayload) Mail {
	body := fmt.Sprintf("<p>Your order <b>%s</b> is now <b>%s</b>.</p>", p.OrderNumber, p.To)
	if p.TrackingNumber != "" {
		body += fmt.Sprintf("<p>Tracking number: %s</p>", p.TrackingNumber)
	}
	if p.CancelReason != "" {
		body += fmt.Sprintf("<p>Reason: %s</p>", p.CancelReason)
	}
	return Mail{Subject: fmt.Sprintf("Order %s update: %s", p.OrderNumber, p.To), Body: body}
}

func paymentMail(p orders.PaymentChangedPayload) Mail {
	body := fmt.Sprintf("<p>Payment for order <b>%s</b> is now <b>%s</b>.</p>", p.OrderNumber, p.To)
	if p.PaymentRef != "" {
		body += fmt.Sprintf("<p>Reference: %s</p>", p.PaymentRef)
	}
	return Mail{Subject: fmt.Sprintf("Order %s payment: %s", p.OrderNumber, p.To), Body: body}
}
