package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	appErrors "github.com/unclebandit/talentreach-backend/internal/errors"
	"github.com/unclebandit/talentreach-backend/internal/logger"
	"github.com/unclebandit/talentreach-backend/internal/metrics"
	"github.com/unclebandit/talentreach-backend/internal/model"
	"github.com/unclebandit/talentreach-backend/internal/queue"
	"github.com/unclebandit/talentreach-backend/internal/repository"
)

const DefaultOutreachTopic = "outreach_sends"

// Dispatcher records outbound messages for campaign contacts and hands
// them to the delivery queue.
type Dispatcher struct {
	Campaigns repository.CampaignRepositoryInterface
	Store     repository.ContactStoreGateway
	Queue     queue.Queue
	Topic     string
	// Workers bounds concurrent sends within a batch. Values below 2 send
	// sequentially.
	Workers int
	Metrics *metrics.Metrics
	Logger  *slog.Logger
	Now     func() time.Time
}

type BatchRequest struct {
	CampaignID string   `json:"campaign_id"`
	ContactIDs []string `json:"contact_ids"`
	Template   string   `json:"template"`
	Stage      string   `json:"stage"`
}

type ContactResult struct {
	ContactID         string `json:"contact_id"`
	Success           bool   `json:"success"`
	CampaignContactID string `json:"campaign_contact_id,omitempty"`
	MessageID         string `json:"message_id,omitempty"`
	Error             string `json:"error,omitempty"`
}

type BatchResult struct {
	Total      int             `json:"total"`
	Successful int             `json:"successful"`
	Failed     int             `json:"failed"`
	Results    []ContactResult `json:"results"`
}

// SendRequest targets one contact, either by link id or by the
// (campaign, contact) pair.
type SendRequest struct {
	CampaignContactID string `json:"campaign_contact_id"`
	CampaignID        string `json:"campaign_id"`
	ContactID         string `json:"contact_id"`
	Template          string `json:"template"`
	Stage             string `json:"stage"`
}

type SendResult struct {
	CampaignContactID string `json:"campaign_contact_id"`
	MessageID         string `json:"message_id"`
	Content           string `json:"content"`
}

func (d *Dispatcher) log() *slog.Logger {
	return logger.Or(d.Logger).With(slog.String("service", "outreach"))
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now().UTC()
}

func (d *Dispatcher) topic() string {
	if d.Topic == "" {
		return DefaultOutreachTopic
	}
	return d.Topic
}

// SendBatch sends to every contact independently. A failing contact is
// reported in the result and never stops the rest of the batch.
func (d *Dispatcher) SendBatch(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	if req.CampaignID == "" {
		return nil, appErrors.NewValidationError("campaign_id", "is required")
	}
	if len(req.ContactIDs) == 0 {
		return nil, appErrors.NewValidationError("contact_ids", "must not be empty")
	}

	campaign, err := d.Campaigns.GetByID(ctx, req.CampaignID)
	if err != nil {
		return nil, err
	}
	template := MessageContent(req.Template, campaign, req.Stage)

	results := make([]ContactResult, len(req.ContactIDs))
	if d.Workers > 1 {
		var g errgroup.Group
		g.SetLimit(d.Workers)
		for i, contactID := range req.ContactIDs {
			g.Go(func() error {
				results[i] = d.sendOne(ctx, campaign, contactID, template)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, contactID := range req.ContactIDs {
			results[i] = d.sendOne(ctx, campaign, contactID, template)
		}
	}

	out := &BatchResult{Total: len(results), Results: results}
	for _, r := range results {
		if r.Success {
			out.Successful++
		} else {
			out.Failed++
		}
	}
	d.log().Info("batch send finished",
		"campaign_id", campaign.ID,
		"total", out.Total,
		"successful", out.Successful,
		"failed", out.Failed,
	)
	return out, nil
}

func (d *Dispatcher) sendOne(ctx context.Context, campaign *model.Campaign, contactID, template string) ContactResult {
	res := ContactResult{ContactID: contactID}

	contact, err := d.Store.GetContact(ctx, contactID)
	if err != nil {
		return d.failed(res, campaign.ID, fmt.Errorf("loading contact: %w", err))
	}
	link, err := d.resolveLink(ctx, campaign.ID, contactID)
	if err != nil {
		return d.failed(res, campaign.ID, err)
	}
	res.CampaignContactID = link.ID

	msg, err := d.deliver(ctx, campaign, contact, link, template)
	if err != nil {
		return d.failed(res, campaign.ID, err)
	}

	res.Success = true
	res.MessageID = msg.ID
	d.Metrics.OutreachSend(true)
	return res
}

func (d *Dispatcher) failed(res ContactResult, campaignID string, err error) ContactResult {
	res.Error = err.Error()
	d.Metrics.OutreachSend(false)
	d.log().Warn("outreach send failed", "campaign_id", campaignID, "contact_id", res.ContactID, "error", err)
	return res
}

// resolveLink looks the link up and creates it when missing. Losing a
// creation race to another sender is not an error: the winner's row is used.
func (d *Dispatcher) resolveLink(ctx context.Context, campaignID, contactID string) (*model.CampaignContact, error) {
	link, err := d.Store.FindCampaignContact(ctx, campaignID, contactID)
	if err != nil {
		return nil, fmt.Errorf("looking up campaign contact: %w", err)
	}
	if link != nil {
		return link, nil
	}

	link, err = d.Store.CreateCampaignContact(ctx, campaignID, contactID, model.LinkPending)
	if err == nil {
		return link, nil
	}
	if !errors.Is(err, appErrors.ErrConflict) {
		return nil, fmt.Errorf("creating campaign contact: %w", err)
	}

	d.log().Warn("campaign contact created concurrently, reusing it", "campaign_id", campaignID, "contact_id", contactID)
	link, err = d.Store.FindCampaignContact(ctx, campaignID, contactID)
	if err != nil {
		return nil, fmt.Errorf("looking up campaign contact: %w", err)
	}
	if link == nil {
		return nil, fmt.Errorf("campaign contact for %s missing after conflict", contactID)
	}
	return link, nil
}

// deliver renders and records the message, then marks the link sent and
// the contact contacted. The queue hand-off is best effort.
func (d *Dispatcher) deliver(ctx context.Context, campaign *model.Campaign, contact *model.Contact, link *model.CampaignContact, template string) (*model.Message, error) {
	content := RenderTemplate(template, TemplateData(campaign, contact))

	msg, err := d.Store.RecordMessage(ctx, link.ID, model.Outbound, content)
	if err != nil {
		return nil, fmt.Errorf("recording message: %w", err)
	}

	sentAt := d.now()
	if err := d.Store.UpdateCampaignContactStatus(ctx, link.ID, model.LinkSent, &sentAt); err != nil {
		return nil, fmt.Errorf("marking campaign contact sent: %w", err)
	}
	if err := d.Store.UpdateContactStatus(ctx, contact.ID, model.ContactContacted); err != nil {
		return nil, fmt.Errorf("marking contact contacted: %w", err)
	}

	if d.Queue != nil {
		delivery := model.OutreachDelivery{
			MessageID:         msg.ID,
			CampaignID:        campaign.ID,
			CampaignContactID: link.ID,
			ContactID:         contact.ID,
			Content:           content,
		}
		if err := d.Queue.Publish(ctx, d.topic(), delivery); err != nil {
			d.log().Warn("failed to enqueue delivery", "message_id", msg.ID, "error", err)
		}
	}
	return msg, nil
}

// Send delivers a single message. Unlike SendBatch, any failure is returned.
func (d *Dispatcher) Send(ctx context.Context, req SendRequest) (*SendResult, error) {
	var (
		link *model.CampaignContact
		err  error
	)
	switch {
	case req.CampaignContactID != "":
		link, err = d.Store.GetCampaignContact(ctx, req.CampaignContactID)
		if err != nil {
			return nil, err
		}
	case req.CampaignID != "" && req.ContactID != "":
	default:
		return nil, appErrors.NewValidationError("campaign_contact_id", "or campaign_id and contact_id are required")
	}

	campaignID, contactID := req.CampaignID, req.ContactID
	if link != nil {
		campaignID, contactID = link.CampaignID, link.ContactID
	}

	campaign, err := d.Campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	contact, err := d.Store.GetContact(ctx, contactID)
	if err != nil {
		return nil, err
	}
	if link == nil {
		if link, err = d.resolveLink(ctx, campaignID, contactID); err != nil {
			return nil, err
		}
	}

	template := MessageContent(strings.TrimSpace(req.Template), campaign, req.Stage)
	msg, err := d.deliver(ctx, campaign, contact, link, template)
	if err != nil {
		d.Metrics.OutreachSend(false)
		return nil, err
	}
	d.Metrics.OutreachSend(true)
	return &SendResult{CampaignContactID: link.ID, MessageID: msg.ID, Content: msg.Content}, nil
}
