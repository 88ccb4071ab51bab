package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/talentreach-backend/internal/errors"
	"github.com/unclebandit/talentreach-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	Create(ctx context.Context, c *model.Campaign) error
	Update(ctx context.Context, c *model.Campaign) error
	UpdateStatus(ctx context.Context, campaignID string, status model.CampaignStatus) error
	GetByID(ctx context.Context, id string) (*model.Campaign, error)
	ListCampaigns(ctx context.Context, offset, limit int, status string) ([]*model.Campaign, int, error)
	Delete(ctx context.Context, id string) error
}

type CampaignRepository struct {
	DB *sql.DB
}

const campaignColumns = `id, name, job_title, daily_limit, message_template, agent_id, status, created_at, updated_at`

// ====================== Campaign CRUD ======================

func (r *CampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = model.CampaignDraft
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now

	query := `
        INSERT INTO campaigns (id, name, job_title, daily_limit, message_template, agent_id, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `
	_, err := r.DB.ExecContext(ctx, query, c.ID, c.Name, c.JobTitle, c.DailyLimit, c.MessageTemplate, c.AgentID, c.Status, c.CreatedAt, c.UpdatedAt)
	return appErrors.NewStoreError("create campaign", classify(err))
}

func (r *CampaignRepository) Update(ctx context.Context, c *model.Campaign) error {
	c.UpdatedAt = time.Now().UTC()
	query := `
        UPDATE campaigns
        SET name=$1, job_title=$2, daily_limit=$3, message_template=$4, agent_id=$5, status=$6, updated_at=$7
        WHERE id=$8
    `
	res, err := r.DB.ExecContext(ctx, query, c.Name, c.JobTitle, c.DailyLimit, c.MessageTemplate, c.AgentID, c.Status, c.UpdatedAt, c.ID)
	if err != nil {
		return appErrors.NewStoreError("update campaign", classify(err))
	}
	return expectRow(res, "update campaign", appErrors.NewCampaignNotFound(c.ID))
}

func (r *CampaignRepository) UpdateStatus(ctx context.Context, campaignID string, status model.CampaignStatus) error {
	query := `UPDATE campaigns SET status=$1, updated_at=$2 WHERE id=$3`
	res, err := r.DB.ExecContext(ctx, query, status, time.Now().UTC(), campaignID)
	if err != nil {
		return appErrors.NewStoreError("update campaign status", classify(err))
	}
	return expectRow(res, "update campaign status", appErrors.NewCampaignNotFound(campaignID))
}

func (r *CampaignRepository) GetByID(ctx context.Context, id string) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id=$1`
	c, err := scanCampaign(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, appErrors.NewStoreError("get campaign", err)
	}
	return c, nil
}

func (r *CampaignRepository) ListCampaigns(ctx context.Context, offset, limit int, status string) ([]*model.Campaign, int, error) {
	campaigns := []*model.Campaign{}
	where := ` WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if status != "" {
		where += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, status)
		argPos++
	}

	query := `SELECT ` + campaignColumns + ` FROM campaigns` + where +
		fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)

	rows, err := r.DB.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, appErrors.NewStoreError("list campaigns", err)
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, appErrors.NewStoreError("list campaigns", err)
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, appErrors.NewStoreError("list campaigns", err)
	}

	// Count total
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM campaigns`+where, args...).Scan(&total); err != nil {
		return nil, 0, appErrors.NewStoreError("count campaigns", err)
	}

	return campaigns, total, nil
}

func (r *CampaignRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM campaigns WHERE id=$1`, id)
	if err != nil {
		return appErrors.NewStoreError("delete campaign", classify(err))
	}
	return expectRow(res, "delete campaign", appErrors.NewCampaignNotFound(id))
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
