package models

import (
	"time"

	"gorm.io/gorm"
)

// User account statuses
const (
	UserStatusActive   = "ACTIVE"
	UserStatusDisabled = "DISABLED"
)

// User represents a user account. There are no passwords: sign-in is
// exclusively via single-use magic-link tokens.
type User struct {
	gorm.Model
	Email  string  `gorm:"not null;uniqueIndex" json:"email"`
	Name   *string `json:"name,omitempty"`
	Status string  `gorm:"not null;default:'ACTIVE'" json:"status"` // ACTIVE, DISABLED

	// Relations
	Memberships []Membership `gorm:"foreignKey:UserID" json:"memberships,omitempty"`
	LoginTokens []LoginToken `gorm:"foreignKey:UserID" json:"-"`
}

// LoginToken backs one magic link. The raw token is emailed to the user
// and never persisted; lookups go through the SHA-256 hash. A token is
// spent by setting UsedAt, after which it never authenticates again.
type LoginToken struct {
	gorm.Model
	UserID uint `gorm:"not null;index" json:"user_id"`

	TokenHash string     `gorm:"not null;uniqueIndex" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`

	// Relations
	User User `json:"-"`
}
