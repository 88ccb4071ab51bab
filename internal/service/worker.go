package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/unclebandit/talentreach-backend/internal/logger"
	"github.com/unclebandit/talentreach-backend/internal/metrics"
	"github.com/unclebandit/talentreach-backend/internal/model"
)

// Sender hands a delivery to the outreach channel.
type Sender interface {
	Send(ctx context.Context, d model.OutreachDelivery) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, d model.OutreachDelivery) error

func (f SenderFunc) Send(ctx context.Context, d model.OutreachDelivery) error { return f(ctx, d) }

// LogSender stands in for the outreach channel: it logs the delivery and
// reports success.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(_ context.Context, d model.OutreachDelivery) error {
	logger.Or(s.Logger).Info("outreach delivered",
		"message_id", d.MessageID,
		"contact_id", d.ContactID,
		"campaign_contact_id", d.CampaignContactID,
		"chars", len(d.Content),
	)
	return nil
}

// LinkWriter updates a campaign contact's status. A nil sentAt keeps the
// stored timestamp.
type LinkWriter interface {
	UpdateCampaignContactStatus(ctx context.Context, campaignContactID string, status model.LinkStatus, sentAt *time.Time) error
}

// Worker processes outreach delivery jobs
type Worker struct {
	Links   LinkWriter
	Sender  Sender
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Constructor
func NewWorker(links LinkWriter, sender Sender) *Worker {
	return &Worker{Links: links, Sender: sender}
}

// Handle delivers one job. A failed send marks the link failed and returns
// the error so the queue can retry; a later success marks it sent again.
func (w *Worker) Handle(ctx context.Context, d model.OutreachDelivery) error {
	log := logger.Or(w.Logger).With(slog.String("service", "worker"), slog.String("message_id", d.MessageID))

	if err := w.Sender.Send(ctx, d); err != nil {
		w.Metrics.Delivery(false)
		log.Warn("delivery failed", "error", err)
		if uerr := w.Links.UpdateCampaignContactStatus(ctx, d.CampaignContactID, model.LinkFailed, nil); uerr != nil {
			log.Error("marking campaign contact failed", "campaign_contact_id", d.CampaignContactID, "error", uerr)
		}
		return fmt.Errorf("delivering message %s: %w", d.MessageID, err)
	}

	w.Metrics.Delivery(true)
	if err := w.Links.UpdateCampaignContactStatus(ctx, d.CampaignContactID, model.LinkSent, nil); err != nil {
		log.Error("marking campaign contact sent", "campaign_contact_id", d.CampaignContactID, "error", err)
		return err
	}
	return nil
}
