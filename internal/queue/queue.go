package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/unclebandit/talentreach-backend/internal/logger"
	"github.com/unclebandit/talentreach-backend/internal/model"
)

// Handler processes one delivery. A non-nil error asks for a retry.
type Handler func(ctx context.Context, d model.OutreachDelivery) error

// Queue carries outreach deliveries from the dispatcher to the worker.
type Queue interface {
	Publish(ctx context.Context, topic string, d model.OutreachDelivery) error
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}

const DefaultMaxRetries = 3

// InMemoryQueue delivers in-process with retry and linear backoff.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]subscription
	wg       sync.WaitGroup

	MaxRetries int
	Backoff    time.Duration
	Logger     *slog.Logger
}

type subscription struct {
	ctx     context.Context
	handler Handler
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		handlers:   make(map[string][]subscription),
		MaxRetries: DefaultMaxRetries,
		Backoff:    500 * time.Millisecond,
	}
}

// JobPayload wraps a delivery with retry info
type JobPayload struct {
	Delivery   model.OutreachDelivery
	RetryCount int
	MaxRetries int
}

// Publish sends a delivery to all subscribers of topic.
func (q *InMemoryQueue) Publish(_ context.Context, topic string, d model.OutreachDelivery) error {
	q.mu.Lock()
	subs := append([]subscription(nil), q.handlers[topic]...)
	q.mu.Unlock()

	if len(subs) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	for _, sub := range subs {
		job := JobPayload{Delivery: d, MaxRetries: q.MaxRetries}
		q.wg.Add(1)
		go q.processJob(sub, job)
	}
	return nil
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(sub subscription, job JobPayload) {
	defer q.wg.Done()
	log := logger.Or(q.Logger).With(slog.String("message_id", job.Delivery.MessageID))

	for {
		err := sub.handler(sub.ctx, job.Delivery)
		if err == nil {
			log.Debug("delivery processed", "attempts", job.RetryCount+1)
			return
		}

		job.RetryCount++
		if job.RetryCount > job.MaxRetries {
			log.Error("delivery permanently failed", "attempts", job.RetryCount, "error", err)
			return
		}
		log.Warn("delivery failed, retrying", "attempt", job.RetryCount, "max_retries", job.MaxRetries, "error", err)

		select {
		case <-sub.ctx.Done():
			return
		case <-time.After(time.Duration(job.RetryCount) * q.Backoff):
		}
	}
}

// Subscribe adds a handler for a topic. ctx bounds the handler calls.
func (q *InMemoryQueue) Subscribe(ctx context.Context, topic string, handler Handler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], subscription{ctx: ctx, handler: handler})
	return nil
}

// Close waits for in-flight jobs.
func (q *InMemoryQueue) Close() error {
	q.wg.Wait()
	return nil
}
