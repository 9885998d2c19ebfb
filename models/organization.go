package models

import (
	"time"

	"gorm.io/gorm"
)

// Membership roles, from most to least privileged
const (
	RoleAdmin  = "ADMIN"
	RoleEditor = "EDITOR"
	RoleViewer = "VIEWER"
)

// Organization is the tenant boundary. Every domain record is scoped to
// exactly one organization and queries must always filter on it.
type Organization struct {
	gorm.Model
	Name string `gorm:"not null;uniqueIndex" json:"name"`

	// Relations
	Memberships []Membership `gorm:"foreignKey:OrganizationID" json:"memberships,omitempty"`
	Contacts    []Contact    `gorm:"foreignKey:OrganizationID" json:"contacts,omitempty"`
	Campaigns   []Campaign   `gorm:"foreignKey:OrganizationID" json:"campaigns,omitempty"`
}

// Membership ties a user to an organization with a role
type Membership struct {
	gorm.Model
	OrganizationID uint `gorm:"not null;uniqueIndex:idx_memberships_org_user" json:"organization_id"`
	UserID         uint `gorm:"not null;uniqueIndex:idx_memberships_org_user" json:"user_id"`

	Role string `gorm:"not null;default:'VIEWER'" json:"role"` // ADMIN, EDITOR, VIEWER

	// Relations
	Organization Organization `json:"-"`
	User         User         `json:"-"`
}

// Invitation is a single-use, time-boxed invite into an organization.
// Only the SHA-256 hash of the raw token is stored.
type Invitation struct {
	gorm.Model
	OrganizationID uint   `gorm:"not null;index" json:"organization_id"`
	Email          string `gorm:"not null;index" json:"email"`
	Role           string `gorm:"not null;default:'VIEWER'" json:"role"` // EDITOR or VIEWER

	TokenHash  string     `gorm:"not null;uniqueIndex" json:"-"`
	ExpiresAt  time.Time  `gorm:"not null" json:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`

	CreatedByUserID uint `gorm:"not null;index" json:"created_by_user_id"`

	// Relations
	Organization Organization `json:"-"`
}
