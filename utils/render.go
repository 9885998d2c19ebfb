package utils

import (
	"strings"

	"maildeck/models"
)

// RenderVars substitutes the recognized placeholder tokens in a
// template using a contact's fields. Missing/null fields substitute to
// the empty string; unknown tokens pass through verbatim. Pure and
// idempotent: substituted values contain no tokens to re-substitute.
//
// Recognized tokens: {{name}}, {{companyName}}, {{email}}, {{phone}}.
func RenderVars(template string, contact *models.Contact) string {
	if contact == nil {
		return template
	}

	out := template
	out = strings.ReplaceAll(out, "{{name}}", contact.Name)
	out = strings.ReplaceAll(out, "{{companyName}}", deref(contact.CompanyName))
	out = strings.ReplaceAll(out, "{{email}}", deref(contact.Email))
	out = strings.ReplaceAll(out, "{{phone}}", deref(contact.Phone))
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
