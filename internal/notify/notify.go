// Package notify delivers customer and admin messages over RabbitMQ
// queues. A separate transport worker drains the queues into the chat
// platform; this package only enqueues. Everything is best-effort.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	CustomerQueue = "notify.customer"
	AdminQueue    = "notify.admin"
)

type Message struct {
	UserID int64     `json:"user_id,omitempty"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}

type RabbitNotifier struct {
	ch *amqp.Channel
}

func NewRabbitNotifier(conn *amqp.Connection) (*RabbitNotifier, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	// Declare queues so publish never fails due to missing infra
	for _, queue := range []string{CustomerQueue, AdminQueue} {
		if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			return nil, fmt.Errorf("declare %s: %w", queue, err)
		}
	}

	return &RabbitNotifier{ch: ch}, nil
}

func (n *RabbitNotifier) Close() error {
	return n.ch.Close()
}

func (n *RabbitNotifier) NotifyCustomer(ctx context.Context, userID int64, text string) error {
	return n.publish(ctx, CustomerQueue, Message{UserID: userID, Text: text, SentAt: time.Now()})
}

func (n *RabbitNotifier) NotifyAdmins(ctx context.Context, text string) error {
	return n.publish(ctx, AdminQueue, Message{Text: text, SentAt: time.Now()})
}

func (n *RabbitNotifier) publish(ctx context.Context, queue string, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	err = n.ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", queue, err)
	}
	return nil
}

// NoopNotifier drops every message; used in tests and offline runs.
type NoopNotifier struct{}

func (NoopNotifier) NotifyCustomer(context.Context, int64, string) error { return nil }
func (NoopNotifier) NotifyAdmins(context.Context, string) error          { return nil }
