package mailer

import (
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// Publisher puts a message body on the mail queue.
type Publisher interface {
	Publish(body []byte) error
}

// QueueMailer hands emails to a queue; delivery happens in the consumer.
type QueueMailer struct {
	publisher Publisher
}

// NewQueueMailer creates a QueueMailer.
func NewQueueMailer(publisher Publisher) *QueueMailer {
	return &QueueMailer{publisher: publisher}
}

// Send enqueues email and returns without waiting for delivery.
func (m *QueueMailer) Send(email Email) error {
	body, err := json.Marshal(email)
	if err != nil {
		return fmt.Errorf("failed to marshal email: %w", err)
	}
	if err := m.publisher.Publish(body); err != nil {
		return fmt.Errorf("failed to enqueue email to %s: %w", email.To, err)
	}
	return nil
}

// Consumer drains queued emails into a transport.
type Consumer struct {
	transport Mailer
	logger    *zap.Logger
}

// NewConsumer creates a Consumer sending through transport.
func NewConsumer(transport Mailer, logger *zap.Logger) *Consumer {
	return &Consumer{transport: transport, logger: logger}
}

// Handle decodes one queued email and sends it.
func (c *Consumer) Handle(msg amqp.Delivery) error {
	var email Email
	if err := json.Unmarshal(msg.Body, &email); err != nil {
		c.logger.Error("malformed mail message", zap.Uint64("delivery_tag", msg.DeliveryTag), zap.Error(err))
		return fmt.Errorf("failed to decode email: %w", err)
	}
	if err := c.transport.Send(email); err != nil {
		c.logger.Error("mail delivery failed", zap.String("to", email.To), zap.Error(err))
		return err
	}
	c.logger.Info("mail delivered", zap.String("to", email.To), zap.String("subject", email.Subject))
	return nil
}
