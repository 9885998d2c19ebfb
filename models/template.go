package models

import "gorm.io/gorm"

// EmailTemplate is a reusable (subject, text body, optional HTML body)
// record. Templates are archived rather than deleted so that campaign
// history can keep pointing at them; archived templates are invisible
// to dispatch.
type EmailTemplate struct {
	gorm.Model
	OrganizationID uint `gorm:"not null;uniqueIndex:idx_templates_org_name" json:"organization_id"`

	Name     string  `gorm:"not null;uniqueIndex:idx_templates_org_name" json:"name"`
	Subject  string  `gorm:"not null" json:"subject"`
	TextBody string  `gorm:"type:text;not null" json:"text_body"`
	HTMLBody *string `gorm:"type:text" json:"html_body,omitempty"`

	IsArchived bool `gorm:"default:false" json:"is_archived"`

	CreatedByUserID uint `gorm:"not null" json:"created_by_user_id"`
	UpdatedByUserID uint `gorm:"not null" json:"updated_by_user_id"`

	// Relations
	Organization Organization `json:"-"`
}
