// Package normalizer maps scraped lead objects of varying shape onto the
// contact schema. It is total: missing or odd fields become empty strings.
package normalizer

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/unclebandit/talentreach-backend/internal/model"
)

// Alias lists, most specific key first. The first non-empty value wins.
var (
	fullNameKeys  = []string{"fullName", "full_name", "name"}
	firstNameKeys = []string{"firstName", "first_name"}
	lastNameKeys  = []string{"lastName", "last_name"}
	profileKeys   = []string{"profileUrl", "linkedinProfileUrl", "linkedInProfileUrl", "linkedin_url", "linkedinUrl", "profileLink", "url"}
	emailKeys     = []string{"email", "professionalEmail", "mail"}
	phoneKeys     = []string{"phoneNumber", "phone"}
	jobTitleKeys  = []string{"jobTitle", "job_title", "title", "job", "headline"}
	companyKeys   = []string{"companyName", "company", "currentCompany"}
	locationKeys  = []string{"location", "city"}
)

// Normalize converts one raw lead using the current time for timestamps.
func Normalize(raw map[string]any) model.Contact {
	return NormalizeAt(raw, time.Now().UTC())
}

// NormalizeAt is Normalize with an explicit clock.
func NormalizeAt(raw map[string]any, now time.Time) model.Contact {
	fullFirst, fullLast := SplitName(pick(raw, fullNameKeys))

	first := pick(raw, firstNameKeys)
	if first == "" {
		first = fullFirst
	}
	last := pick(raw, lastNameKeys)
	if last == "" {
		last = fullLast
	}

	return model.Contact{
		FirstName:   first,
		LastName:    last,
		Email:       pick(raw, emailKeys),
		Phone:       pick(raw, phoneKeys),
		LinkedInURL: CleanProfileURL(pick(raw, profileKeys)),
		JobTitle:    pick(raw, jobTitleKeys),
		Company:     pick(raw, companyKeys),
		Location:    pick(raw, locationKeys),
		Status:      model.ContactNew,
		Source:      model.SourceLinkedIn,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// SplitName splits the trimmed name on its first space. The remainder is
// kept verbatim as the last name.
func SplitName(full string) (first, last string) {
	first, last, _ = strings.Cut(strings.TrimSpace(full), " ")
	return first, last
}

// CleanProfileURL drops surrounding space, query, fragment and trailing slash
// so the same profile scraped twice dedups onto one contact.
func CleanProfileURL(u string) string {
	u = strings.TrimSpace(u)
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	return strings.TrimRight(u, "/")
}

func pick(raw map[string]any, keys []string) string {
	for _, k := range keys {
		if s := stringify(raw[k]); s != "" {
			return s
		}
	}
	return ""
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}
