// internal/model/contact.go
package model

import "time"

type ContactStatus string

const (
	ContactNew       ContactStatus = "new"
	ContactContacted ContactStatus = "contacted"
	ContactResponded ContactStatus = "responded"
	ContactQualified ContactStatus = "qualified"
	ContactRejected  ContactStatus = "rejected"
)

func (s ContactStatus) Valid() bool {
	switch s {
	case ContactNew, ContactContacted, ContactResponded, ContactQualified, ContactRejected:
		return true
	}
	return false
}

type ContactSource string

const (
	SourceIndeed         ContactSource = "indeed"
	SourceLinkedIn       ContactSource = "linkedin"
	SourceManual         ContactSource = "manual"
	SourceLeadConversion ContactSource = "lead_conversion"
)

func (s ContactSource) Valid() bool {
	switch s {
	case SourceIndeed, SourceLinkedIn, SourceManual, SourceLeadConversion:
		return true
	}
	return false
}

// Contact is a candidate. LinkedInURL is the deduplication key; an empty
// value is stored as NULL and never collides with other rows.
type Contact struct {
	ID          string        `db:"id" json:"id"`
	FirstName   string        `db:"first_name" json:"first_name"`
	LastName    string        `db:"last_name" json:"last_name"`
	Email       string        `db:"email" json:"email"`
	Phone       string        `db:"phone" json:"phone"`
	LinkedInURL string        `db:"linkedin_url" json:"linkedin_url"`
	JobTitle    string        `db:"job_title" json:"job_title"`
	Company     string        `db:"company" json:"company"`
	Location    string        `db:"location" json:"location"`
	Status      ContactStatus `db:"status" json:"status"`
	Source      ContactSource `db:"source" json:"source"`
	FromLeadID  *string       `db:"from_lead_id" json:"from_lead_id,omitempty"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

// FullName joins first and last name, skipping empty parts.
func (c *Contact) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}
