// internal/service/campaign_service.go
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	appErrors "github.com/unclebandit/talentreach-backend/internal/errors"
	"github.com/unclebandit/talentreach-backend/internal/logger"
	"github.com/unclebandit/talentreach-backend/internal/model"
	"github.com/unclebandit/talentreach-backend/internal/repository"
)

type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	LinkRepo     repository.CampaignContactRepositoryInterface
	RunRepo      repository.RunRepositoryInterface
	Logger       *slog.Logger
}

type CampaignInput struct {
	Name            string `json:"name"`
	JobTitle        string `json:"job_title"`
	DailyLimit      int    `json:"daily_limit"`
	MessageTemplate string `json:"message_template"`
	AgentID         string `json:"agent_id"`
}

// CampaignPatch holds the fields to change; nil fields are left alone.
type CampaignPatch struct {
	Name            *string               `json:"name"`
	JobTitle        *string               `json:"job_title"`
	DailyLimit      *int                  `json:"daily_limit"`
	MessageTemplate *string               `json:"message_template"`
	AgentID         *string               `json:"agent_id"`
	Status          *model.CampaignStatus `json:"status"`
}

type CampaignDetails struct {
	ID              string               `json:"id"`
	Name            string               `json:"name"`
	JobTitle        string               `json:"job_title"`
	DailyLimit      int                  `json:"daily_limit"`
	MessageTemplate string               `json:"message_template"`
	AgentID         string               `json:"agent_id"`
	Status          model.CampaignStatus `json:"status"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
	Stats           map[string]int       `json:"stats"`
	RecentRuns      []*model.Run         `json:"recent_runs"`
}

const recentRunsInDetails = 5

func (s *CampaignService) log() *slog.Logger {
	return logger.Or(s.Logger).With(slog.String("service", "campaigns"))
}

func (s *CampaignService) CreateCampaign(ctx context.Context, in CampaignInput) (*model.Campaign, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, appErrors.NewValidationError("name", "is required")
	}
	if in.DailyLimit <= 0 {
		return nil, appErrors.NewValidationError("daily_limit", "must be a positive integer")
	}

	c := &model.Campaign{
		Name:            strings.TrimSpace(in.Name),
		JobTitle:        in.JobTitle,
		DailyLimit:      in.DailyLimit,
		MessageTemplate: in.MessageTemplate,
		AgentID:         in.AgentID,
		Status:          model.CampaignDraft,
	}
	if err := s.CampaignRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.log().Info("campaign created", "campaign_id", c.ID)
	return c, nil
}

// ListCampaigns fetches campaigns with pagination
func (s *CampaignService) ListCampaigns(ctx context.Context, page, pageSize int, status string) ([]model.Campaign, map[string]int, error) {
	if status != "" && !model.CampaignStatus(status).Valid() {
		return nil, nil, appErrors.NewValidationError("status", "unknown campaign status "+status)
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	ptrs, total, err := s.CampaignRepo.ListCampaigns(ctx, offset, pageSize, status)
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]model.Campaign, len(ptrs))
	for i, c := range ptrs {
		campaigns[i] = *c
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}

	return campaigns, pagination, nil
}

// GetCampaignDetails fetches a campaign by ID
func (s *CampaignService) GetCampaignDetails(ctx context.Context, id string) (*model.Campaign, error) {
	return s.CampaignRepo.GetByID(ctx, id)
}

// GetCampaignDetailsWithStats adds link counts per status and the latest runs.
func (s *CampaignService) GetCampaignDetailsWithStats(ctx context.Context, campaignID string) (*CampaignDetails, error) {
	campaign, err := s.CampaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	counts, err := s.LinkRepo.Stats(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	stats := map[string]int{
		"total":     0,
		"pending":   0,
		"sent":      0,
		"responded": 0,
		"failed":    0,
	}
	for status, count := range counts {
		if _, ok := stats[string(status)]; ok {
			stats[string(status)] = count
		}
		stats["total"] += count
	}

	runs, err := s.RunRepo.ListByCampaign(ctx, campaignID, recentRunsInDetails)
	if err != nil {
		return nil, err
	}

	return &CampaignDetails{
		ID:              campaign.ID,
		Name:            campaign.Name,
		JobTitle:        campaign.JobTitle,
		DailyLimit:      campaign.DailyLimit,
		MessageTemplate: campaign.MessageTemplate,
		AgentID:         campaign.AgentID,
		Status:          campaign.Status,
		CreatedAt:       campaign.CreatedAt,
		UpdatedAt:       campaign.UpdatedAt,
		Stats:           stats,
		RecentRuns:      runs,
	}, nil
}

// ToggleCampaign flips an active campaign to paused and anything else but
// completed to active.
func (s *CampaignService) ToggleCampaign(ctx context.Context, id string) (*model.Campaign, error) {
	c, err := s.CampaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch c.Status {
	case model.CampaignCompleted:
		return nil, appErrors.NewValidationError("status", "completed campaigns cannot be toggled")
	case model.CampaignActive:
		c.Status = model.CampaignPaused
	default:
		c.Status = model.CampaignActive
	}

	if err := s.CampaignRepo.UpdateStatus(ctx, id, c.Status); err != nil {
		return nil, err
	}
	s.log().Info("campaign toggled", "campaign_id", id, "status", c.Status)
	return c, nil
}

func (s *CampaignService) UpdateCampaign(ctx context.Context, id string, p CampaignPatch) (*model.Campaign, error) {
	c, err := s.CampaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.Name != nil {
		if strings.TrimSpace(*p.Name) == "" {
			return nil, appErrors.NewValidationError("name", "is required")
		}
		c.Name = strings.TrimSpace(*p.Name)
	}
	if p.JobTitle != nil {
		c.JobTitle = *p.JobTitle
	}
	if p.DailyLimit != nil {
		if *p.DailyLimit <= 0 {
			return nil, appErrors.NewValidationError("daily_limit", "must be a positive integer")
		}
		c.DailyLimit = *p.DailyLimit
	}
	if p.MessageTemplate != nil {
		c.MessageTemplate = *p.MessageTemplate
	}
	if p.AgentID != nil {
		c.AgentID = *p.AgentID
	}
	if p.Status != nil {
		if !p.Status.Valid() {
			return nil, appErrors.NewValidationError("status", "unknown campaign status "+string(*p.Status))
		}
		c.Status = *p.Status
	}

	if err := s.CampaignRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CampaignService) DeleteCampaign(ctx context.Context, id string) error {
	if err := s.CampaignRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.log().Info("campaign deleted", "campaign_id", id)
	return nil
}
