package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/unclebandit/talentreach-backend/internal/model"
)

// ContactStoreGateway is the persistence surface used by run ingestion and
// outreach dispatch. Every failure is an *appErrors.StoreError or a
// NotFoundError; nothing is retried.
type ContactStoreGateway interface {
	UpsertContact(ctx context.Context, c *model.Contact) (*model.Contact, error)
	LinkContactToCampaign(ctx context.Context, campaignID, contactID string, status model.LinkStatus) error
	FindCampaignContact(ctx context.Context, campaignID, contactID string) (*model.CampaignContact, error)
	CreateCampaignContact(ctx context.Context, campaignID, contactID string, status model.LinkStatus) (*model.CampaignContact, error)
	GetCampaignContact(ctx context.Context, id string) (*model.CampaignContact, error)
	GetContact(ctx context.Context, id string) (*model.Contact, error)
	UpdateContactStatus(ctx context.Context, contactID string, status model.ContactStatus) error
	RecordMessage(ctx context.Context, campaignContactID string, direction model.Direction, content string) (*model.Message, error)
	UpdateCampaignContactStatus(ctx context.Context, campaignContactID string, status model.LinkStatus, sentAt *time.Time) error
}

// Gateway implements ContactStoreGateway on top of the table repositories.
type Gateway struct {
	Contacts ContactRepositoryInterface
	Links    CampaignContactRepositoryInterface
	Messages MessageRepositoryInterface
}

func (g *Gateway) UpsertContact(ctx context.Context, c *model.Contact) (*model.Contact, error) {
	return g.Contacts.Upsert(ctx, c)
}

func (g *Gateway) LinkContactToCampaign(ctx context.Context, campaignID, contactID string, status model.LinkStatus) error {
	_, err := g.Links.Link(ctx, campaignID, contactID, status)
	return err
}

func (g *Gateway) FindCampaignContact(ctx context.Context, campaignID, contactID string) (*model.CampaignContact, error) {
	return g.Links.Find(ctx, campaignID, contactID)
}

func (g *Gateway) CreateCampaignContact(ctx context.Context, campaignID, contactID string, status model.LinkStatus) (*model.CampaignContact, error) {
	return g.Links.Insert(ctx, campaignID, contactID, status)
}

func (g *Gateway) GetCampaignContact(ctx context.Context, id string) (*model.CampaignContact, error) {
	return g.Links.GetByID(ctx, id)
}

func (g *Gateway) GetContact(ctx context.Context, id string) (*model.Contact, error) {
	return g.Contacts.GetByID(ctx, id)
}

func (g *Gateway) UpdateContactStatus(ctx context.Context, contactID string, status model.ContactStatus) error {
	return g.Contacts.UpdateStatus(ctx, contactID, status)
}

func (g *Gateway) RecordMessage(ctx context.Context, campaignContactID string, direction model.Direction, content string) (*model.Message, error) {
	m := &model.Message{
		CampaignContactID: campaignContactID,
		Direction:         direction,
		Content:           content,
	}
	if err := g.Messages.Record(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (g *Gateway) UpdateCampaignContactStatus(ctx context.Context, campaignContactID string, status model.LinkStatus, sentAt *time.Time) error {
	return g.Links.UpdateStatus(ctx, campaignContactID, status, sentAt)
}

var _ ContactStoreGateway = (*Gateway)(nil)

// Store bundles one repository per table.
type Store struct {
	Campaigns CampaignRepositoryInterface
	Contacts  ContactRepositoryInterface
	Runs      RunRepositoryInterface
	Links     CampaignContactRepositoryInterface
	Messages  MessageRepositoryInterface
	Leads     LeadRepositoryInterface
}

// NewPostgresStore builds the Postgres-backed repositories over one pool.
func NewPostgresStore(db *sql.DB) *Store {
	return &Store{
		Campaigns: &CampaignRepository{DB: db},
		Contacts:  &ContactRepository{DB: db},
		Runs:      &RunRepository{DB: db},
		Links:     &CampaignContactRepository{DB: db},
		Messages:  &MessageRepository{DB: db},
		Leads:     &LeadRepository{DB: db},
	}
}

// Gateway returns the ContactStoreGateway over the store's repositories.
func (s *Store) Gateway() *Gateway {
	return &Gateway{Contacts: s.Contacts, Links: s.Links, Messages: s.Messages}
}
