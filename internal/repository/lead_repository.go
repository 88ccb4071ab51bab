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

type LeadRepositoryInterface interface {
	Create(ctx context.Context, l *model.Lead) error
	GetByID(ctx context.Context, id string) (*model.Lead, error)
	List(ctx context.Context, status model.LeadStatus) ([]*model.Lead, error)
	UpdateStatus(ctx context.Context, id string, status model.LeadStatus) error
	Delete(ctx context.Context, id string) error
}

type LeadRepository struct {
	DB *sql.DB
}

const leadColumns = `id, name, email, phone, status, created_at, updated_at`

func (r *LeadRepository) Create(ctx context.Context, l *model.Lead) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.Status == "" {
		l.Status = model.LeadNew
	}
	now := time.Now().UTC()
	l.CreatedAt, l.UpdatedAt = now, now

	query := `
        INSERT INTO leads (id, name, email, phone, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	_, err := r.DB.ExecContext(ctx, query, l.ID, l.Name, l.Email, l.Phone, l.Status, l.CreatedAt, l.UpdatedAt)
	return appErrors.NewStoreError("create lead", classify(err))
}

func (r *LeadRepository) GetByID(ctx context.Context, id string) (*model.Lead, error) {
	l, err := scanLead(r.DB.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewNotFound("lead", id)
		}
		return nil, appErrors.NewStoreError("get lead", err)
	}
	return l, nil
}

func (r *LeadRepository) List(ctx context.Context, status model.LeadStatus) ([]*model.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status=$1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, appErrors.NewStoreError("list leads", err)
	}
	defer rows.Close()

	leads := []*model.Lead{}
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, appErrors.NewStoreError("list leads", err)
		}
		leads = append(leads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.NewStoreError("list leads", err)
	}
	return leads, nil
}

func (r *LeadRepository) UpdateStatus(ctx context.Context, id string, status model.LeadStatus) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE leads SET status=$1, updated_at=$2 WHERE id=$3`, status, time.Now().UTC(), id)
	if err != nil {
		return appErrors.NewStoreError("update lead status", err)
	}
	return expectRow(res, "update lead status", appErrors.NewNotFound("lead", id))
}

func (r *LeadRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM leads WHERE id=$1`, id)
	if err != nil {
		return appErrors.NewStoreError("delete lead", err)
	}
	return expectRow(res, "delete lead", appErrors.NewNotFound("lead", id))
}

var _ LeadRepositoryInterface = (*LeadRepository)(nil)
