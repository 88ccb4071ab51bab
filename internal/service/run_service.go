package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	appErrors "github.com/unclebandit/talentreach-backend/internal/errors"
	"github.com/unclebandit/talentreach-backend/internal/lock"
	"github.com/unclebandit/talentreach-backend/internal/logger"
	"github.com/unclebandit/talentreach-backend/internal/metrics"
	"github.com/unclebandit/talentreach-backend/internal/model"
	"github.com/unclebandit/talentreach-backend/internal/normalizer"
	"github.com/unclebandit/talentreach-backend/internal/phantom"
	"github.com/unclebandit/talentreach-backend/internal/repository"
)

// JobClient is the scraping platform surface used by runs.
type JobClient interface {
	Launch(ctx context.Context, agentID string, args map[string]any, maxDurationSec int) (string, error)
	FetchStatus(ctx context.Context, containerID string) (string, error)
	FetchOutput(ctx context.Context, containerID string) (json.RawMessage, error)
}

const (
	DefaultPollInterval  = 5 * time.Second
	DefaultMaxDuration   = 600
	DefaultLaunchLockTTL = 30 * time.Second
)

// RunService launches scraping runs, polls them to completion and ingests
// their output as campaign contacts.
type RunService struct {
	Campaigns repository.CampaignRepositoryInterface
	Runs      repository.RunRepositoryInterface
	Store     repository.ContactStoreGateway
	Jobs      JobClient
	Locker    lock.Locker
	Metrics   *metrics.Metrics
	Logger    *slog.Logger

	MaxDuration   int
	PollInterval  time.Duration
	MaxPollErrors int
	LockTTL       time.Duration
	Now           func() time.Time

	watchers sync.WaitGroup
}

// IngestFailure describes one lead that could not be stored or linked.
type IngestFailure struct {
	Index       int    `json:"index"`
	LinkedInURL string `json:"linkedin_url,omitempty"`
	Error       string `json:"error"`
}

type IngestResult struct {
	Processed int             `json:"processed"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Failures  []IngestFailure `json:"failures,omitempty"`
}

func (s *RunService) log() *slog.Logger {
	return logger.Or(s.Logger).With(slog.String("service", "runs"))
}

func (s *RunService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// LaunchArguments builds the agent argument payload from a campaign.
func LaunchArguments(c *model.Campaign) map[string]any {
	return map[string]any{
		"search":           c.JobTitle,
		"numberOfProfiles": c.DailyLimit,
	}
}

// Launch starts the campaign's scraping agent and records a running Run.
// Nothing is stored when the platform rejects the launch.
func (s *RunService) Launch(ctx context.Context, campaignID string) (*model.Run, error) {
	log := s.log().With(slog.String("campaign_id", campaignID))

	campaign, err := s.Campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.AgentID == "" {
		return nil, appErrors.NewValidationError("agent_id", "campaign has no scraping agent configured")
	}

	if s.Locker != nil {
		ttl := s.LockTTL
		if ttl <= 0 {
			ttl = DefaultLaunchLockTTL
		}
		release, err := s.Locker.Acquire(ctx, "launch:"+campaignID, ttl)
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, fmt.Errorf("%w: launch already in progress", appErrors.ErrRunAlreadyActive)
		}
		if err != nil {
			return nil, fmt.Errorf("acquiring launch lock: %w", err)
		}
		defer release()
	}

	active, err := s.Runs.FindActive(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, fmt.Errorf("%w: run %s", appErrors.ErrRunAlreadyActive, active.ID)
	}

	maxDuration := s.MaxDuration
	if maxDuration <= 0 {
		maxDuration = DefaultMaxDuration
	}
	containerID, err := s.Jobs.Launch(ctx, campaign.AgentID, LaunchArguments(campaign), maxDuration)
	if err != nil {
		s.Metrics.UpstreamError("launch")
		log.Error("launching agent failed", "error", err)
		return nil, fmt.Errorf("launching agent for campaign %s: %w", campaignID, err)
	}

	run := &model.Run{
		CampaignID:  campaignID,
		ContainerID: containerID,
		Status:      model.RunRunning,
		StartedAt:   s.now(),
	}
	if err := s.Runs.Create(ctx, run); err != nil {
		log.Error("agent launched but run could not be recorded", "container_id", containerID, "error", err)
		return nil, err
	}

	s.Metrics.RunLaunched()
	log.Info("run launched", "run_id", run.ID, "container_id", containerID)
	return run, nil
}

// PollOnce checks the run's container once. A non-terminal status is
// persisted as running; a terminal one triggers ingestion and finalization.
// Terminal runs are returned unchanged.
func (s *RunService) PollOnce(ctx context.Context, runID string) (*model.Run, error) {
	run, err := s.Runs.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.Status.Terminal() {
		return run, nil
	}

	raw, err := s.Jobs.FetchStatus(ctx, run.ContainerID)
	if err != nil {
		s.Metrics.UpstreamError("fetch status")
		return nil, fmt.Errorf("fetching status of run %s: %w", runID, err)
	}

	status := phantom.ParseStatus(raw)
	if !status.Terminal() {
		if err := s.Runs.UpdateStatus(ctx, runID, model.RunRunning); err != nil {
			if errors.Is(err, appErrors.ErrRunFinished) {
				return s.Runs.GetByID(ctx, runID)
			}
			return nil, err
		}
		run.Status = model.RunRunning
		s.log().Debug("run still in progress", "run_id", runID, "raw_status", raw)
		return run, nil
	}

	return s.finalize(ctx, run, status)
}

func (s *RunService) finalize(ctx context.Context, run *model.Run, status model.RunStatus) (*model.Run, error) {
	log := s.log().With(slog.String("run_id", run.ID), slog.String("campaign_id", run.CampaignID))

	output, err := s.Jobs.FetchOutput(ctx, run.ContainerID)
	if err != nil {
		s.Metrics.UpstreamError("fetch output")
		return nil, fmt.Errorf("fetching output of run %s: %w", run.ID, err)
	}

	result, err := s.Ingest(ctx, run.CampaignID, output)
	if err != nil {
		log.Error("run output could not be decoded", "error", err)
	}

	completed := s.now()
	err = s.Runs.Finalize(ctx, run.ID, repository.RunFinalization{
		Status:        status,
		Output:        output,
		ContactsFound: result.Succeeded,
		CompletedAt:   completed,
	})
	if errors.Is(err, appErrors.ErrRunFinished) {
		log.Info("run already finalized by another poller")
		return s.Runs.GetByID(ctx, run.ID)
	}
	if err != nil {
		log.Error("finalizing run failed", "contacts_found", result.Succeeded, "error", err)
		return nil, err
	}

	s.Metrics.RunFinished(string(status))
	log.Info("run finished",
		"status", status,
		"processed", result.Processed,
		"contacts_found", result.Succeeded,
		"failed", result.Failed,
	)

	run.Status = status
	run.OutputData = output
	run.ContactsFound = result.Succeeded
	run.CompletedAt = &completed
	return run, nil
}

// Ingest normalizes every lead in output, upserts it and links it to the
// campaign as pending. A lead failing either step is recorded and skipped.
func (s *RunService) Ingest(ctx context.Context, campaignID string, output []byte) (IngestResult, error) {
	var result IngestResult

	leads, err := phantom.ExtractLeads(output)
	if err != nil {
		return result, fmt.Errorf("decoding run output: %w", err)
	}
	if len(leads) == 0 && len(bytes.TrimSpace(output)) > 0 {
		s.log().Warn("run output holds no lead objects", "campaign_id", campaignID, "bytes", len(output))
	}

	now := s.now()
	for i, raw := range leads {
		result.Processed++
		contact := normalizer.NormalizeAt(raw, now)

		if err := s.ingestOne(ctx, campaignID, &contact); err != nil {
			result.Failed++
			result.Failures = append(result.Failures, IngestFailure{Index: i, LinkedInURL: contact.LinkedInURL, Error: err.Error()})
			s.Metrics.LeadIngested(false)
			s.log().Warn("lead ingestion failed", "campaign_id", campaignID, "index", i, "linkedin_url", contact.LinkedInURL, "error", err)
			continue
		}
		result.Succeeded++
		s.Metrics.LeadIngested(true)
	}
	return result, nil
}

func (s *RunService) ingestOne(ctx context.Context, campaignID string, contact *model.Contact) error {
	stored, err := s.Store.UpsertContact(ctx, contact)
	if err != nil {
		return fmt.Errorf("upserting contact: %w", err)
	}
	if err := s.Store.LinkContactToCampaign(ctx, campaignID, stored.ID, model.LinkPending); err != nil {
		return fmt.Errorf("linking contact %s: %w", stored.ID, err)
	}
	return nil
}

// Watch polls the run every PollInterval until it is terminal or ctx is
// done. Up to MaxPollErrors consecutive poll failures are tolerated; a
// missing run stops the watch immediately. A cancelled watch leaves the
// run as it is in the store.
func (s *RunService) Watch(ctx context.Context, runID string) (*model.Run, error) {
	interval := s.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	log := s.log().With(slog.String("run_id", runID))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	consecutive := 0
	for {
		select {
		case <-ctx.Done():
			log.Info("watch cancelled, run left as is")
			return nil, ctx.Err()
		case <-ticker.C:
		}

		run, err := s.PollOnce(ctx, runID)
		if err != nil {
			if appErrors.IsNotFound(err) || ctx.Err() != nil {
				return nil, err
			}
			consecutive++
			s.Metrics.PollError()
			log.Warn("poll failed", "attempt", consecutive, "error", err)
			if s.MaxPollErrors > 0 && consecutive >= s.MaxPollErrors {
				return nil, fmt.Errorf("giving up on run %s after %d consecutive poll errors: %w", runID, consecutive, err)
			}
			continue
		}
		consecutive = 0
		if run.Status.Terminal() {
			return run, nil
		}
	}
}

// WatchInBackground runs Watch on its own goroutine. Wait blocks until all
// background watchers have returned.
func (s *RunService) WatchInBackground(ctx context.Context, runID string) {
	s.watchers.Add(1)
	go func() {
		defer s.watchers.Done()
		if _, err := s.Watch(ctx, runID); err != nil && ctx.Err() == nil {
			s.log().Error("background watch stopped", "run_id", runID, "error", err)
		}
	}()
}

func (s *RunService) Wait() {
	s.watchers.Wait()
}

func (s *RunService) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	return s.Runs.GetByID(ctx, runID)
}

// ListCampaignRuns returns the campaign's runs, newest first.
func (s *RunService) ListCampaignRuns(ctx context.Context, campaignID string, limit int) ([]*model.Run, error) {
	if _, err := s.Campaigns.GetByID(ctx, campaignID); err != nil {
		return nil, err
	}
	return s.Runs.ListByCampaign(ctx, campaignID, limit)
}

func (s *RunService) ListRecentRuns(ctx context.Context, limit int) ([]*model.Run, error) {
	return s.Runs.ListRecent(ctx, limit)
}
