package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"

	"github.com/unclebandit/talentreach-backend/internal/logger"
	"github.com/unclebandit/talentreach-backend/internal/model"
)

const retryHeader = "x-retry-count"

// AMQPQueue publishes deliveries to a durable RabbitMQ queue per topic.
type AMQPQueue struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	mu   sync.Mutex

	declared   map[string]bool
	MaxRetries int
	Logger     *slog.Logger
}

func DialAMQP(url string) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connecting to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening channel: %w", err)
	}
	return &AMQPQueue{conn: conn, ch: ch, declared: map[string]bool{}, MaxRetries: DefaultMaxRetries}, nil
}

// declare must be called with mu held.
func (q *AMQPQueue) declare(topic string) error {
	if q.declared[topic] {
		return nil
	}
	_, err := q.ch.QueueDeclare(
		topic, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declaring queue %s: %w", topic, err)
	}
	q.declared[topic] = true
	return nil
}

func (q *AMQPQueue) Publish(_ context.Context, topic string, d model.OutreachDelivery) error {
	return q.publish(topic, d, 0)
}

func (q *AMQPQueue) publish(topic string, d model.OutreachDelivery, retries int32) error {
	body, err := json.Marshal(d)
	if err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.declare(topic); err != nil {
		return err
	}
	return q.ch.Publish("", topic, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Headers:      amqp.Table{retryHeader: retries},
		Body:         body,
	})
}

// Subscribe consumes topic until ctx is done. A failed delivery is
// republished with an incremented retry header, up to MaxRetries.
func (q *AMQPQueue) Subscribe(ctx context.Context, topic string, handler Handler) error {
	q.mu.Lock()
	if err := q.declare(topic); err != nil {
		q.mu.Unlock()
		return err
	}
	msgs, err := q.ch.Consume(
		topic,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	q.mu.Unlock()
	if err != nil {
		return fmt.Errorf("registering consumer: %w", err)
	}

	log := logger.Or(q.Logger).With(slog.String("queue", topic))
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					log.Warn("delivery channel closed")
					return
				}
				q.handle(ctx, log, topic, m, handler)
			}
		}
	}()
	return nil
}

func (q *AMQPQueue) handle(ctx context.Context, log *slog.Logger, topic string, m amqp.Delivery, handler Handler) {
	var d model.OutreachDelivery
	if err := json.Unmarshal(m.Body, &d); err != nil {
		log.Error("invalid delivery payload", "error", err)
		m.Ack(false)
		return
	}

	err := handler(ctx, d)
	if err == nil {
		m.Ack(false)
		return
	}

	retries := retryCount(m.Headers)
	if int(retries) >= q.MaxRetries {
		log.Error("delivery permanently failed", "message_id", d.MessageID, "attempts", retries+1, "error", err)
		m.Ack(false)
		return
	}
	if perr := q.publish(topic, d, retries+1); perr != nil {
		log.Error("requeue failed", "message_id", d.MessageID, "error", perr)
		m.Nack(false, true)
		return
	}
	log.Warn("delivery failed, requeued", "message_id", d.MessageID, "attempt", retries+1, "error", err)
	m.Ack(false)
}

func retryCount(h amqp.Table) int32 {
	switch v := h[retryHeader].(type) {
	case int32:
		return v
	case int64:
		return int32(v)
	case int:
		return int32(v)
	}
	return 0
}

func (q *AMQPQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.ch.Close(); err != nil {
		q.conn.Close()
		return err
	}
	return q.conn.Close()
}
