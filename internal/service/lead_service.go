package service

import (
	"context"
	"log/slog"
	"strings"

	appErrors "github.com/unclebandit/talentreach-backend/internal/errors"
	"github.com/unclebandit/talentreach-backend/internal/logger"
	"github.com/unclebandit/talentreach-backend/internal/model"
	"github.com/unclebandit/talentreach-backend/internal/normalizer"
	"github.com/unclebandit/talentreach-backend/internal/repository"
)

type LeadService struct {
	LeadRepo    repository.LeadRepositoryInterface
	ContactRepo repository.ContactRepositoryInterface
	Logger      *slog.Logger
}

type LeadInput struct {
	Name  string  `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

func (s *LeadService) ListLeads(ctx context.Context, status string) ([]*model.Lead, error) {
	return s.LeadRepo.List(ctx, model.LeadStatus(status))
}

func (s *LeadService) CreateLead(ctx context.Context, in LeadInput) (*model.Lead, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, appErrors.NewValidationError("name", "is required")
	}
	l := &model.Lead{Name: strings.TrimSpace(in.Name), Email: in.Email, Phone: in.Phone, Status: model.LeadNew}
	if err := s.LeadRepo.Create(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *LeadService) DeleteLead(ctx context.Context, id string) error {
	return s.LeadRepo.Delete(ctx, id)
}

// ConvertLead creates a contact from the lead and marks the lead converted.
func (s *LeadService) ConvertLead(ctx context.Context, id string) (*model.Contact, error) {
	lead, err := s.LeadRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if lead.Status == model.LeadConverted {
		return nil, appErrors.NewValidationError("status", "lead already converted")
	}

	first, last := normalizer.SplitName(lead.Name)
	c := &model.Contact{
		FirstName:  first,
		LastName:   last,
		Status:     model.ContactNew,
		Source:     model.SourceLeadConversion,
		FromLeadID: &lead.ID,
	}
	if lead.Email != nil {
		c.Email = *lead.Email
	}
	if lead.Phone != nil {
		c.Phone = *lead.Phone
	}

	if err := s.ContactRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	if err := s.LeadRepo.UpdateStatus(ctx, id, model.LeadConverted); err != nil {
		return nil, err
	}

	logger.Or(s.Logger).Info("lead converted", "service", "leads", "lead_id", id, "contact_id", c.ID)
	return c, nil
}
