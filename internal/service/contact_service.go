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

type ContactService struct {
	ContactRepo repository.ContactRepositoryInterface
	LinkRepo    repository.CampaignContactRepositoryInterface
	MessageRepo repository.MessageRepositoryInterface
	Logger      *slog.Logger
}

type ContactInput struct {
	FirstName   string              `json:"first_name"`
	LastName    string              `json:"last_name"`
	Email       string              `json:"email"`
	Phone       string              `json:"phone"`
	LinkedInURL string              `json:"linkedin_url"`
	JobTitle    string              `json:"job_title"`
	Company     string              `json:"company"`
	Location    string              `json:"location"`
	Source      model.ContactSource `json:"source"`
}

type ContactPatch struct {
	FirstName   *string              `json:"first_name"`
	LastName    *string              `json:"last_name"`
	Email       *string              `json:"email"`
	Phone       *string              `json:"phone"`
	LinkedInURL *string              `json:"linkedin_url"`
	JobTitle    *string              `json:"job_title"`
	Company     *string              `json:"company"`
	Location    *string              `json:"location"`
	Status      *model.ContactStatus `json:"status"`
}

const searchLimit = 50

func (s *ContactService) log() *slog.Logger {
	return logger.Or(s.Logger).With(slog.String("service", "contacts"))
}

func (s *ContactService) ListContacts(ctx context.Context, status, source string) ([]*model.Contact, error) {
	f := repository.ContactFilter{Status: model.ContactStatus(status), Source: model.ContactSource(source)}
	if status != "" && !f.Status.Valid() {
		return nil, appErrors.NewValidationError("status", "unknown contact status "+status)
	}
	if source != "" && !f.Source.Valid() {
		return nil, appErrors.NewValidationError("source", "unknown contact source "+source)
	}
	return s.ContactRepo.List(ctx, f)
}

// CreateContact stores a manually entered contact.
func (s *ContactService) CreateContact(ctx context.Context, in ContactInput) (*model.Contact, error) {
	if strings.TrimSpace(in.FirstName) == "" && strings.TrimSpace(in.LastName) == "" {
		return nil, appErrors.NewValidationError("first_name", "a first or last name is required")
	}
	if in.Source == "" {
		in.Source = model.SourceManual
	}
	if !in.Source.Valid() {
		return nil, appErrors.NewValidationError("source", "unknown contact source "+string(in.Source))
	}

	c := &model.Contact{
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		Email:       in.Email,
		Phone:       in.Phone,
		LinkedInURL: normalizer.CleanProfileURL(in.LinkedInURL),
		JobTitle:    in.JobTitle,
		Company:     in.Company,
		Location:    in.Location,
		Status:      model.ContactNew,
		Source:      in.Source,
	}
	if err := s.ContactRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.log().Info("contact created", "contact_id", c.ID, "source", c.Source)
	return c, nil
}

func (s *ContactService) UpdateContact(ctx context.Context, id string, p ContactPatch) (*model.Contact, error) {
	c, err := s.ContactRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&c.FirstName, p.FirstName)
	set(&c.LastName, p.LastName)
	set(&c.Email, p.Email)
	set(&c.Phone, p.Phone)
	set(&c.JobTitle, p.JobTitle)
	set(&c.Company, p.Company)
	set(&c.Location, p.Location)
	if p.LinkedInURL != nil {
		c.LinkedInURL = normalizer.CleanProfileURL(*p.LinkedInURL)
	}
	if p.Status != nil {
		if !p.Status.Valid() {
			return nil, appErrors.NewValidationError("status", "unknown contact status "+string(*p.Status))
		}
		c.Status = *p.Status
	}

	if err := s.ContactRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ContactService) DeleteContact(ctx context.Context, id string) error {
	return s.ContactRepo.Delete(ctx, id)
}

// SearchContacts returns at most 50 contacts matching term.
func (s *ContactService) SearchContacts(ctx context.Context, term string) ([]*model.Contact, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.ContactRepo.List(ctx, repository.ContactFilter{Limit: searchLimit})
	}
	return s.ContactRepo.Search(ctx, term, searchLimit)
}

// ListMessages returns the messages exchanged on a campaign contact link.
func (s *ContactService) ListMessages(ctx context.Context, campaignContactID string) ([]*model.Message, error) {
	if _, err := s.LinkRepo.GetByID(ctx, campaignContactID); err != nil {
		return nil, err
	}
	return s.MessageRepo.ListByLink(ctx, campaignContactID)
}
