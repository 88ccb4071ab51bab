package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/talentreach-backend/internal/logger"
	"github.com/unclebandit/talentreach-backend/internal/model"
)

func newTestQueue() *InMemoryQueue {
	q := NewInMemoryQueue()
	q.Backoff = time.Millisecond
	q.Logger = logger.Discard()
	return q
}

func TestPublishWithoutSubscribers(t *testing.T) {
	q := newTestQueue()
	err := q.Publish(context.Background(), "outreach_sends", model.OutreachDelivery{MessageID: "m1"})
	assert.Error(t, err)
}

func TestDeliversToSubscriber(t *testing.T) {
	q := newTestQueue()
	var (
		mu  sync.Mutex
		got []string
	)
	require.NoError(t, q.Subscribe(context.Background(), "outreach_sends", func(_ context.Context, d model.OutreachDelivery) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, d.MessageID)
		return nil
	}))

	require.NoError(t, q.Publish(context.Background(), "outreach_sends", model.OutreachDelivery{MessageID: "m1"}))
	require.NoError(t, q.Close())

	assert.Equal(t, []string{"m1"}, got)
}

func TestRetriesThenGivesUp(t *testing.T) {
	q := newTestQueue()
	q.MaxRetries = 2

	var attempts int32
	require.NoError(t, q.Subscribe(context.Background(), "outreach_sends", func(context.Context, model.OutreachDelivery) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("channel down")
	}))

	require.NoError(t, q.Publish(context.Background(), "outreach_sends", model.OutreachDelivery{MessageID: "m1"}))
	require.NoError(t, q.Close())

	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestRetrySucceeds(t *testing.T) {
	q := newTestQueue()

	var attempts int32
	require.NoError(t, q.Subscribe(context.Background(), "outreach_sends", func(context.Context, model.OutreachDelivery) error {
		if atomic.AddInt32(&attempts, 1) == 1 {
			return errors.New("transient")
		}
		return nil
	}))

	require.NoError(t, q.Publish(context.Background(), "outreach_sends", model.OutreachDelivery{MessageID: "m1"}))
	require.NoError(t, q.Close())

	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestRetryCountHeader(t *testing.T) {
	assert.Equal(t, int32(0), retryCount(nil))
	assert.Equal(t, int32(2), retryCount(amqp.Table{retryHeader: int32(2)}))
	assert.Equal(t, int32(3), retryCount(amqp.Table{retryHeader: int64(3)}))
	assert.Equal(t, int32(0), retryCount(amqp.Table{retryHeader: "x"}))
}
