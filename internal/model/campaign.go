// internal/model/campaign.go
package model

import "time"

type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignActive    CampaignStatus = "active"
	CampaignPaused    CampaignStatus = "paused"
	CampaignCompleted CampaignStatus = "completed"
)

func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignDraft, CampaignActive, CampaignPaused, CampaignCompleted:
		return true
	}
	return false
}

type Campaign struct {
	ID              string         `db:"id" json:"id"`
	Name            string         `db:"name" json:"name"`
	JobTitle        string         `db:"job_title" json:"job_title"`
	DailyLimit      int            `db:"daily_limit" json:"daily_limit"`
	MessageTemplate string         `db:"message_template" json:"message_template"`
	AgentID         string         `db:"agent_id" json:"agent_id"`
	Status          CampaignStatus `db:"status" json:"status"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}
