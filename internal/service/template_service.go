// internal/service/template_service.go
package service

import (
	"regexp"
	"strings"

	"github.com/unclebandit/talentreach-backend/internal/model"
)

var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// RenderTemplate substitutes {{key}} tokens from data. Tokens whose key is
// absent from data are left verbatim.
func RenderTemplate(template string, data map[string]string) string {
	return placeholder.ReplaceAllStringFunc(template, func(token string) string {
		key := placeholder.FindStringSubmatch(token)[1]
		if v, ok := data[key]; ok {
			return v
		}
		return token
	})
}

// TemplateData is the token set available to outreach templates. jobTitle
// is the role being recruited for; position is the contact's current title.
func TemplateData(c *model.Campaign, contact *model.Contact) map[string]string {
	data := map[string]string{
		"name":      contact.FullName(),
		"firstName": contact.FirstName,
		"lastName":  contact.LastName,
		"position":  contact.JobTitle,
		"company":   contact.Company,
		"location":  contact.Location,
		"jobTitle":  "",
	}
	if c != nil {
		data["jobTitle"] = c.JobTitle
	}
	return data
}

// MessageContent picks the outreach text: the explicit template, then the
// campaign's template, then a stage marker.
func MessageContent(template string, c *model.Campaign, stage string) string {
	if strings.TrimSpace(template) != "" {
		return template
	}
	if c != nil && strings.TrimSpace(c.MessageTemplate) != "" {
		return c.MessageTemplate
	}
	if stage == "" {
		stage = "initial"
	}
	return "Outreach message sent - Stage: " + stage
}
