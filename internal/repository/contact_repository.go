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

// ContactFilter narrows List. Zero values mean "any".
type ContactFilter struct {
	Status model.ContactStatus
	Source model.ContactSource
	Limit  int
}

// ContactRepositoryInterface defines methods used by services
type ContactRepositoryInterface interface {
	Create(ctx context.Context, c *model.Contact) error
	Upsert(ctx context.Context, c *model.Contact) (*model.Contact, error)
	GetByID(ctx context.Context, id string) (*model.Contact, error)
	List(ctx context.Context, f ContactFilter) ([]*model.Contact, error)
	Search(ctx context.Context, term string, limit int) ([]*model.Contact, error)
	Update(ctx context.Context, c *model.Contact) error
	UpdateStatus(ctx context.Context, id string, status model.ContactStatus) error
	Delete(ctx context.Context, id string) error
}

// ContactRepository is the concrete implementation
type ContactRepository struct {
	DB *sql.DB
}

const contactColumns = `id, first_name, last_name, email, phone, linkedin_url, job_title, company, location, status, source, from_lead_id, created_at, updated_at`

func fillContactDefaults(c *model.Contact) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = model.ContactNew
	}
	if c.Source == "" {
		c.Source = model.SourceManual
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
}

func (r *ContactRepository) Create(ctx context.Context, c *model.Contact) error {
	fillContactDefaults(c)
	query := `
        INSERT INTO contacts (` + contactColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
    `
	_, err := r.DB.ExecContext(ctx, query,
		c.ID, c.FirstName, c.LastName, c.Email, c.Phone, nullString(c.LinkedInURL),
		c.JobTitle, c.Company, c.Location, c.Status, c.Source, c.FromLeadID,
		c.CreatedAt, c.UpdatedAt,
	)
	return appErrors.NewStoreError("create contact", classify(err))
}

// Upsert inserts c or, when a row with the same non-empty LinkedIn URL
// exists, overwrites every field except id and created_at. The stored row
// is returned.
func (r *ContactRepository) Upsert(ctx context.Context, c *model.Contact) (*model.Contact, error) {
	fillContactDefaults(c)
	query := `
        INSERT INTO contacts (` + contactColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
        ON CONFLICT (linkedin_url) DO UPDATE SET
            first_name   = EXCLUDED.first_name,
            last_name    = EXCLUDED.last_name,
            email        = EXCLUDED.email,
            phone        = EXCLUDED.phone,
            job_title    = EXCLUDED.job_title,
            company      = EXCLUDED.company,
            location     = EXCLUDED.location,
            status       = EXCLUDED.status,
            source       = EXCLUDED.source,
            from_lead_id = EXCLUDED.from_lead_id,
            updated_at   = EXCLUDED.updated_at
        RETURNING ` + contactColumns
	stored, err := scanContact(r.DB.QueryRowContext(ctx, query,
		c.ID, c.FirstName, c.LastName, c.Email, c.Phone, nullString(c.LinkedInURL),
		c.JobTitle, c.Company, c.Location, c.Status, c.Source, c.FromLeadID,
		c.CreatedAt, c.UpdatedAt,
	))
	if err != nil {
		return nil, appErrors.NewStoreError("upsert contact", classify(err))
	}
	return stored, nil
}

// GetByID fetches a contact by ID
func (r *ContactRepository) GetByID(ctx context.Context, id string) (*model.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1`
	c, err := scanContact(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewNotFound("contact", id)
		}
		return nil, appErrors.NewStoreError("get contact", err)
	}
	return c, nil
}

func (r *ContactRepository) List(ctx context.Context, f ContactFilter) ([]*model.Contact, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if f.Status != "" {
		where += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, f.Status)
		argPos++
	}
	if f.Source != "" {
		where += fmt.Sprintf(" AND source=$%d", argPos)
		args = append(args, f.Source)
		argPos++
	}

	query := `SELECT ` + contactColumns + ` FROM contacts` + where + ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argPos)
		args = append(args, f.Limit)
	}
	return r.query(ctx, "list contacts", query, args...)
}

// Search matches term case-insensitively against names, email, phone and company.
func (r *ContactRepository) Search(ctx context.Context, term string, limit int) ([]*model.Contact, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
        SELECT ` + contactColumns + ` FROM contacts
        WHERE first_name ILIKE $1 OR last_name ILIKE $1 OR email ILIKE $1
           OR phone ILIKE $1 OR company ILIKE $1
        ORDER BY created_at DESC, id DESC
        LIMIT $2
    `
	return r.query(ctx, "search contacts", query, "%"+term+"%", limit)
}

func (r *ContactRepository) Update(ctx context.Context, c *model.Contact) error {
	c.UpdatedAt = time.Now().UTC()
	query := `
        UPDATE contacts
        SET first_name=$1, last_name=$2, email=$3, phone=$4, linkedin_url=$5, job_title=$6,
            company=$7, location=$8, status=$9, source=$10, updated_at=$11
        WHERE id=$12
    `
	res, err := r.DB.ExecContext(ctx, query,
		c.FirstName, c.LastName, c.Email, c.Phone, nullString(c.LinkedInURL), c.JobTitle,
		c.Company, c.Location, c.Status, c.Source, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return appErrors.NewStoreError("update contact", classify(err))
	}
	return expectRow(res, "update contact", appErrors.NewNotFound("contact", c.ID))
}

func (r *ContactRepository) UpdateStatus(ctx context.Context, id string, status model.ContactStatus) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE contacts SET status=$1, updated_at=$2 WHERE id=$3`, status, time.Now().UTC(), id)
	if err != nil {
		return appErrors.NewStoreError("update contact status", err)
	}
	return expectRow(res, "update contact status", appErrors.NewNotFound("contact", id))
}

func (r *ContactRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM contacts WHERE id=$1`, id)
	if err != nil {
		return appErrors.NewStoreError("delete contact", err)
	}
	return expectRow(res, "delete contact", appErrors.NewNotFound("contact", id))
}

func (r *ContactRepository) query(ctx context.Context, op, query string, args ...interface{}) ([]*model.Contact, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, appErrors.NewStoreError(op, err)
	}
	defer rows.Close()

	contacts := []*model.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, appErrors.NewStoreError(op, err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.NewStoreError(op, err)
	}
	return contacts, nil
}

var _ ContactRepositoryInterface = (*ContactRepository)(nil)
