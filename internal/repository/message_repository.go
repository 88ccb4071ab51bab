package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/talentreach-backend/internal/errors"
	"github.com/unclebandit/talentreach-backend/internal/model"
)

type MessageRepositoryInterface interface {
	Record(ctx context.Context, m *model.Message) error
	ListByLink(ctx context.Context, campaignContactID string) ([]*model.Message, error)
}

type MessageRepository struct {
	DB *sql.DB
}

const messageColumns = `id, campaign_contact_id, direction, content, sent_at, read_at, created_at`

// Record inserts a new message and fills in its ID and timestamps.
func (r *MessageRepository) Record(ctx context.Context, m *model.Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if m.SentAt.IsZero() {
		m.SentAt = now
	}
	m.CreatedAt = now

	query := `
        INSERT INTO messages (id, campaign_contact_id, direction, content, sent_at, read_at, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	_, err := r.DB.ExecContext(ctx, query, m.ID, m.CampaignContactID, m.Direction, m.Content, m.SentAt, m.ReadAt, m.CreatedAt)
	return appErrors.NewStoreError("record message", classify(err))
}

func (r *MessageRepository) ListByLink(ctx context.Context, campaignContactID string) ([]*model.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE campaign_contact_id=$1 ORDER BY sent_at DESC, id DESC`
	rows, err := r.DB.QueryContext(ctx, query, campaignContactID)
	if err != nil {
		return nil, appErrors.NewStoreError("list messages", err)
	}
	defer rows.Close()

	messages := []*model.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, appErrors.NewStoreError("list messages", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.NewStoreError("list messages", err)
	}
	return messages, nil
}

var _ MessageRepositoryInterface = (*MessageRepository)(nil)
