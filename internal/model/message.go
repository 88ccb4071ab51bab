// internal/model/message.go
package model

import "time"

type Direction string

const (
	Outbound Direction = "outbound"
	Inbound  Direction = "inbound"
)

type Message struct {
	ID                string     `db:"id" json:"id"`
	CampaignContactID string     `db:"campaign_contact_id" json:"campaign_contact_id"`
	Direction         Direction  `db:"direction" json:"direction"`
	Content           string     `db:"content" json:"content"`
	SentAt            time.Time  `db:"sent_at" json:"sent_at"`
	ReadAt            *time.Time `db:"read_at" json:"read_at,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
}

// OutreachDelivery is the job handed to the outreach channel once a message
// has been recorded.
type OutreachDelivery struct {
	MessageID         string `json:"message_id"`
	CampaignID        string `json:"campaign_id"`
	CampaignContactID string `json:"campaign_contact_id"`
	ContactID         string `json:"contact_id"`
	Content           string `json:"content"`
}
