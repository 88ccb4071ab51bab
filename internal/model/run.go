// internal/model/run.go
package model

import (
	"encoding/json"
	"time"
)

type RunStatus string

const (
	RunRunning RunStatus = "running"
	RunSuccess RunStatus = "success"
	RunFailed  RunStatus = "failed"
	RunAborted RunStatus = "aborted"
)

// Terminal reports whether no further transition can happen from s.
func (s RunStatus) Terminal() bool {
	return s == RunSuccess || s == RunFailed || s == RunAborted
}

// Run is one execution of a campaign's scraping agent.
type Run struct {
	ID            string          `db:"id" json:"id"`
	CampaignID    string          `db:"campaign_id" json:"campaign_id"`
	ContainerID   string          `db:"container_id" json:"container_id"`
	Status        RunStatus       `db:"status" json:"status"`
	ContactsFound int             `db:"contacts_found" json:"contacts_found"`
	MessagesSent  int             `db:"messages_sent" json:"messages_sent"`
	OutputData    json.RawMessage `db:"output_data" json:"output_data,omitempty"`
	StartedAt     time.Time       `db:"started_at" json:"started_at"`
	CompletedAt   *time.Time      `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}
