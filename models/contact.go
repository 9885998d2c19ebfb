package models

import "gorm.io/gorm"

// Contact represents a single recipient record owned by an organization.
// Only the name is required; a contact without an email is kept but gets
// skipped at dispatch time.
type Contact struct {
	gorm.Model
	OrganizationID uint `gorm:"not null;index" json:"organization_id"`

	Name        string  `gorm:"not null" json:"name"`
	CompanyName *string `json:"company_name,omitempty"`
	Email       *string `gorm:"index" json:"email,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Note        *string `gorm:"type:text" json:"note,omitempty"`

	CreatedByUserID uint `gorm:"not null" json:"created_by_user_id"`
	UpdatedByUserID uint `gorm:"not null" json:"updated_by_user_id"`

	// Relations
	Organization Organization `json:"-"`
}
