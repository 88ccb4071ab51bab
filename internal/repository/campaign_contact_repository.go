package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/talentreach-backend/internal/errors"
	"github.com/unclebandit/talentreach-backend/internal/model"
)

type CampaignContactRepositoryInterface interface {
	// Link ensures the (campaign, contact) pair exists. An existing link keeps
	// its status.
	Link(ctx context.Context, campaignID, contactID string, status model.LinkStatus) (*model.CampaignContact, error)
	// Find returns nil when the pair has no link.
	Find(ctx context.Context, campaignID, contactID string) (*model.CampaignContact, error)
	GetByID(ctx context.Context, id string) (*model.CampaignContact, error)
	// Insert fails with ErrConflict when the pair is already linked.
	Insert(ctx context.Context, campaignID, contactID string, status model.LinkStatus) (*model.CampaignContact, error)
	UpdateStatus(ctx context.Context, id string, status model.LinkStatus, sentAt *time.Time) error
	// Stats counts links per status for a campaign.
	Stats(ctx context.Context, campaignID string) (map[model.LinkStatus]int, error)
}

type CampaignContactRepository struct {
	DB *sql.DB
}

const linkColumns = `id, campaign_id, contact_id, status, sent_at, responded_at, created_at`

func (r *CampaignContactRepository) Link(ctx context.Context, campaignID, contactID string, status model.LinkStatus) (*model.CampaignContact, error) {
	// The no-op DO UPDATE makes RETURNING yield the existing row.
	query := `
        INSERT INTO campaign_contacts (id, campaign_id, contact_id, status, created_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (campaign_id, contact_id) DO UPDATE SET campaign_id = EXCLUDED.campaign_id
        RETURNING ` + linkColumns
	cc, err := scanLink(r.DB.QueryRowContext(ctx, query, uuid.NewString(), campaignID, contactID, status, time.Now().UTC()))
	if err != nil {
		return nil, appErrors.NewStoreError("link contact", classify(err))
	}
	return cc, nil
}

func (r *CampaignContactRepository) Find(ctx context.Context, campaignID, contactID string) (*model.CampaignContact, error) {
	query := `SELECT ` + linkColumns + ` FROM campaign_contacts WHERE campaign_id = $1 AND contact_id = $2 LIMIT 1`
	cc, err := scanLink(r.DB.QueryRowContext(ctx, query, campaignID, contactID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.NewStoreError("find campaign contact", err)
	}
	return cc, nil
}

func (r *CampaignContactRepository) GetByID(ctx context.Context, id string) (*model.CampaignContact, error) {
	cc, err := scanLink(r.DB.QueryRowContext(ctx, `SELECT `+linkColumns+` FROM campaign_contacts WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewNotFound("campaign contact", id)
		}
		return nil, appErrors.NewStoreError("get campaign contact", err)
	}
	return cc, nil
}

func (r *CampaignContactRepository) Insert(ctx context.Context, campaignID, contactID string, status model.LinkStatus) (*model.CampaignContact, error) {
	query := `
        INSERT INTO campaign_contacts (id, campaign_id, contact_id, status, created_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING ` + linkColumns
	cc, err := scanLink(r.DB.QueryRowContext(ctx, query, uuid.NewString(), campaignID, contactID, status, time.Now().UTC()))
	if err != nil {
		return nil, appErrors.NewStoreError("create campaign contact", classify(err))
	}
	return cc, nil
}

// UpdateStatus leaves sent_at untouched when sentAt is nil.
func (r *CampaignContactRepository) UpdateStatus(ctx context.Context, id string, status model.LinkStatus, sentAt *time.Time) error {
	query := `UPDATE campaign_contacts SET status=$1, sent_at=COALESCE($2, sent_at) WHERE id=$3`
	res, err := r.DB.ExecContext(ctx, query, status, sentAt, id)
	if err != nil {
		return appErrors.NewStoreError("update campaign contact status", err)
	}
	return expectRow(res, "update campaign contact status", appErrors.NewNotFound("campaign contact", id))
}

func (r *CampaignContactRepository) Stats(ctx context.Context, campaignID string) (map[model.LinkStatus]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT status, COUNT(*) FROM campaign_contacts WHERE campaign_id=$1 GROUP BY status`, campaignID)
	if err != nil {
		return nil, appErrors.NewStoreError("campaign contact stats", err)
	}
	defer rows.Close()

	stats := map[model.LinkStatus]int{}
	for rows.Next() {
		var (
			status model.LinkStatus
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, appErrors.NewStoreError("campaign contact stats", err)
		}
		stats[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.NewStoreError("campaign contact stats", err)
	}
	return stats, nil
}

var _ CampaignContactRepositoryInterface = (*CampaignContactRepository)(nil)
