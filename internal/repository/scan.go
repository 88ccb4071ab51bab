package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	appErrors "github.com/unclebandit/talentreach-backend/internal/errors"
	"github.com/unclebandit/talentreach-backend/internal/model"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (*model.Campaign, error) {
	var c model.Campaign
	err := row.Scan(&c.ID, &c.Name, &c.JobTitle, &c.DailyLimit, &c.MessageTemplate, &c.AgentID, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanContact(row rowScanner) (*model.Contact, error) {
	var (
		c          model.Contact
		linkedin   sql.NullString
		fromLeadID sql.NullString
	)
	err := row.Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &linkedin,
		&c.JobTitle, &c.Company, &c.Location, &c.Status, &c.Source, &fromLeadID,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.LinkedInURL = linkedin.String
	if fromLeadID.Valid {
		c.FromLeadID = &fromLeadID.String
	}
	return &c, nil
}

func scanRun(row rowScanner) (*model.Run, error) {
	var (
		r           model.Run
		output      []byte
		completedAt sql.NullTime
	)
	err := row.Scan(&r.ID, &r.CampaignID, &r.ContainerID, &r.Status, &r.ContactsFound, &r.MessagesSent, &output, &r.StartedAt, &completedAt, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(output) > 0 {
		r.OutputData = output
	}
	if completedAt.Valid {
		t := completedAt.Time
		r.CompletedAt = &t
	}
	return &r, nil
}

func scanLink(row rowScanner) (*model.CampaignContact, error) {
	var (
		cc          model.CampaignContact
		sentAt      sql.NullTime
		respondedAt sql.NullTime
	)
	if err := row.Scan(&cc.ID, &cc.CampaignID, &cc.ContactID, &cc.Status, &sentAt, &respondedAt, &cc.CreatedAt); err != nil {
		return nil, err
	}
	if sentAt.Valid {
		t := sentAt.Time
		cc.SentAt = &t
	}
	if respondedAt.Valid {
		t := respondedAt.Time
		cc.RespondedAt = &t
	}
	return &cc, nil
}

func scanMessage(row rowScanner) (*model.Message, error) {
	var (
		m      model.Message
		readAt sql.NullTime
	)
	if err := row.Scan(&m.ID, &m.CampaignContactID, &m.Direction, &m.Content, &m.SentAt, &readAt, &m.CreatedAt); err != nil {
		return nil, err
	}
	if readAt.Valid {
		t := readAt.Time
		m.ReadAt = &t
	}
	return &m, nil
}

func scanLead(row rowScanner) (*model.Lead, error) {
	var (
		l            model.Lead
		email, phone sql.NullString
	)
	if err := row.Scan(&l.ID, &l.Name, &email, &phone, &l.Status, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	if email.Valid {
		l.Email = &email.String
	}
	if phone.Valid {
		l.Phone = &phone.String
	}
	return &l, nil
}

// classify turns a unique violation into ErrConflict so callers can match it.
func classify(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%w: %s", appErrors.ErrConflict, pqErr.Message)
	}
	return err
}

// expectRow returns notFound when an UPDATE/DELETE touched nothing.
func expectRow(res sql.Result, op string, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return appErrors.NewStoreError(op, err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
