package normalizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/unclebandit/talentreach-backend/internal/model"
)

var fixed = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func TestNormalize_SplitsFullName(t *testing.T) {
	c := NormalizeAt(map[string]any{"name": "Jane Doe Smith"}, fixed)
	assert.Equal(t, "Jane", c.FirstName)
	assert.Equal(t, "Doe Smith", c.LastName)
}

func TestNormalize_EmptyInput(t *testing.T) {
	for _, raw := range []map[string]any{nil, {}, {"unrelated": 42}} {
		c := NormalizeAt(raw, fixed)
		assert.Equal(t, "", c.FirstName)
		assert.Equal(t, "", c.LastName)
		assert.Equal(t, "", c.LinkedInURL)
		assert.Equal(t, model.SourceLinkedIn, c.Source)
		assert.Equal(t, model.ContactNew, c.Status)
		assert.Equal(t, fixed, c.CreatedAt)
		assert.Equal(t, fixed, c.UpdatedAt)
	}
}

func TestNormalize_Precedence(t *testing.T) {
	raw := map[string]any{
		"fullName":    "Ignored Name",
		"firstName":   "Grace",
		"lastName":    "Hopper",
		"url":         "https://example.com/fallback",
		"profileUrl":  "https://www.linkedin.com/in/grace/",
		"title":       "Rear Admiral",
		"headline":    "Computer pioneer",
		"company":     "Navy",
		"companyName": "US Navy",
		"location":    "Arlington",
	}
	c := NormalizeAt(raw, fixed)
	assert.Equal(t, "Grace", c.FirstName)
	assert.Equal(t, "Hopper", c.LastName)
	assert.Equal(t, "https://www.linkedin.com/in/grace", c.LinkedInURL)
	assert.Equal(t, "Rear Admiral", c.JobTitle)
	assert.Equal(t, "US Navy", c.Company)
	assert.Equal(t, "Arlington", c.Location)
}

func TestNormalize_FallsBackPerAttribute(t *testing.T) {
	c := NormalizeAt(map[string]any{
		"firstName":   "",
		"full_name":   "Alan Mathison Turing",
		"linkedinUrl": "https://www.linkedin.com/in/turing?trk=abc",
		"job":         "Mathematician",
		"phone":       4401234,
	}, fixed)
	assert.Equal(t, "Alan", c.FirstName)
	assert.Equal(t, "Mathison Turing", c.LastName)
	assert.Equal(t, "https://www.linkedin.com/in/turing", c.LinkedInURL)
	assert.Equal(t, "Mathematician", c.JobTitle)
	assert.Equal(t, "4401234", c.Phone)
}

func TestNormalize_WrongTypesDegrade(t *testing.T) {
	c := NormalizeAt(map[string]any{
		"name":       []any{"not", "a", "string"},
		"profileUrl": map[string]any{"href": "x"},
		"company":    nil,
	}, fixed)
	assert.Equal(t, "", c.FirstName)
	assert.Equal(t, "", c.LinkedInURL)
	assert.Equal(t, "", c.Company)
}

func TestSplitName(t *testing.T) {
	tests := []struct{ in, first, last string }{
		{"Jane", "Jane", ""},
		{"  Jane Doe  ", "Jane", "Doe"},
		{"Jane Doe  Smith", "Jane", "Doe  Smith"},
		{"Jane  Doe", "Jane", " Doe"},
		{"", "", ""},
		{"Jean Claude Van Damme", "Jean", "Claude Van Damme"},
	}
	for _, tt := range tests {
		first, last := SplitName(tt.in)
		assert.Equal(t, tt.first, first, tt.in)
		assert.Equal(t, tt.last, last, tt.in)
	}
}
