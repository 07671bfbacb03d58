// Package revalidate signals external caches that logical views have gone
// stale after a successful mutation. Delivery is fire-and-forget: failures
// are logged, never propagated, and correctness of the ledger does not
// depend on it.
package revalidate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"wealth/internal/logger"
)

// Well-known view names used by the frontend cache.
const (
	ViewDashboard = "dashboard"
)

// AccountView returns the view name for a single account page.
func AccountView(accountID string) string {
	return "account/" + accountID
}

// Notifier announces stale views to an external cache-invalidation
// mechanism.
type Notifier interface {
	ViewsStale(views ...string)
	Close() error
}

// staleMessage is the wire format published to the revalidation exchange.
type staleMessage struct {
	Views     []string  `json:"views"`
	Timestamp time.Time `json:"timestamp"`
}

// AMQPNotifier publishes stale-view events to a fanout exchange.
type AMQPNotifier struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
}

// NewAMQPNotifier connects to the broker and declares the revalidation
// exchange.
func NewAMQPNotifier(url, exchange string) (*AMQPNotifier, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"fanout", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &AMQPNotifier{conn: conn, channel: channel, exchange: exchange}, nil
}

// ViewsStale publishes one message naming all stale views. Errors are
// logged and swallowed.
func (n *AMQPNotifier) ViewsStale(views ...string) {
	if len(views) == 0 {
		return
	}

	body, err := json.Marshal(staleMessage{Views: views, Timestamp: time.Now()})
	if err != nil {
		logger.Get().Errorw("failed to marshal revalidation message", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = n.channel.PublishWithContext(
		ctx,
		n.exchange, // exchange
		"",         // routing key (fanout)
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		logger.Get().Errorw("failed to publish revalidation message",
			"error", err,
			"views", views,
			"exchange", n.exchange,
		)
		return
	}

	logger.Get().Debugw("published revalidation message", "views", views)
}

// Close shuts down the channel and connection.
func (n *AMQPNotifier) Close() error {
	if n.channel != nil {
		n.channel.Close()
	}
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}

// NoopNotifier discards all notifications. Used when no broker is
// configured and in tests.
type NoopNotifier struct{}

// NewNoop returns a Notifier that does nothing.
func NewNoop() *NoopNotifier { return &NoopNotifier{} }

// ViewsStale implements Notifier.
func (*NoopNotifier) ViewsStale(...string) {}

// Close implements Notifier.
func (*NoopNotifier) Close() error { return nil }
