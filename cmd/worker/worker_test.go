package main

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/talentreach-backend/internal/config"
	"github.com/unclebandit/talentreach-backend/internal/logger"
	"github.com/unclebandit/talentreach-backend/internal/model"
	"github.com/unclebandit/talentreach-backend/internal/queue"
	"github.com/unclebandit/talentreach-backend/internal/service"
)

// MockLinkRepo stores link statuses in memory
type MockLinkRepo struct {
	statuses map[string]model.LinkStatus
	mu       sync.Mutex
}

func (m *MockLinkRepo) UpdateCampaignContactStatus(_ context.Context, id string, status model.LinkStatus, _ *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[id] = status
	return nil
}

func (m *MockLinkRepo) status(id string) model.LinkStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statuses[id]
}

func TestWorker(t *testing.T) {
	repo := &MockLinkRepo{statuses: map[string]model.LinkStatus{"cc-1": model.LinkPending}}

	var wg sync.WaitGroup
	wg.Add(1)

	worker := service.NewWorker(repo, service.SenderFunc(func(context.Context, model.OutreachDelivery) error {
		wg.Done() // signal that job is processed
		return nil
	}))
	worker.Logger = logger.Discard()

	q := queue.NewInMemoryQueue()
	q.Logger = logger.Discard()
	require.NoError(t, q.Subscribe(context.Background(), "outreach_sends", worker.Handle))
	require.NoError(t, q.Publish(context.Background(), "outreach_sends", model.OutreachDelivery{MessageID: "m-1", CampaignContactID: "cc-1"}))

	// Wait until worker processes the job
	wg.Wait()
	require.NoError(t, q.Close())

	assert.Equal(t, model.LinkSent, repo.status("cc-1"))
}

func TestRunStopsWithContext(t *testing.T) {
	cfg := config.Config{StoreDriver: config.DriverMemory, OutreachQueue: "outreach_sends", OutreachWorkers: 1, PollInterval: time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, cfg, service.LogSender{Logger: logger.Discard()}) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}
