// internal/model/campaign_contact.go
package model

import "time"

type LinkStatus string

const (
	LinkPending   LinkStatus = "pending"
	LinkSent      LinkStatus = "sent"
	LinkResponded LinkStatus = "responded"
	LinkFailed    LinkStatus = "failed"
)

// CampaignContact tracks one contact's outreach progress within one campaign.
// (campaign_id, contact_id) is unique.
type CampaignContact struct {
	ID          string     `db:"id" json:"id"`
	CampaignID  string     `db:"campaign_id" json:"campaign_id"`
	ContactID   string     `db:"contact_id" json:"contact_id"`
	Status      LinkStatus `db:"status" json:"status"`
	SentAt      *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	RespondedAt *time.Time `db:"responded_at" json:"responded_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}
