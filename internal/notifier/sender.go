package notifier

import (
	"context"
	"fmt"
	"net/smtp"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

type Mail struct {
	To      string
	Subject string
	Body    string
}

type Sender interface {
	Send(ctx context.Context, m Mail) error
}

// SMTPSender delivers mail behind a circuit breaker so a dead relay fails
// fast instead of stalling the consumer workers.
type SMTPSender struct {
	host string
	port string
	from string
	pass string
	cb   *gobreaker.CircuitBreaker
	log  *zap.Logger
}

func NewSMTPSender(host, port, from, pass string, log *zap.Logger) *SMTPSender {
	settings := gobreaker.Settings{
		Name:        "smtp",
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}
	return &SMTPSender{host: host, port: port, from: from, pass: pass, cb: gobreaker.NewCircuitBreaker(settings), log: log}
}

func (s *SMTPSender) Send(ctx context.Context, m Mail) error {
	_, err := s.cb.Execute(func() (any, error) {
		msg := []byte("Subject: " + m.Subject + "\r\n" +
			"MIME-version: 1.0;\r\nContent-Type: text/html; charset=\"UTF-8\";\r\n\r\n" +
			m.Body)
		addr := fmt.Sprintf("%s:%s", s.host, s.port)
		var auth smtp.Auth
		if s.pass != "" {
			auth = smtp.PlainAuth("", s.from, s.pass, s.host)
		}
		return nil, smtp.SendMail(addr, auth, s.from, []string{m.To}, msg)
	})
	if err != nil {
		return fmt.Errorf("send mail to %s: %w", m.To, err)
	}
	return nil
}
