package models

import "gorm.io/gorm"

// Campaign statuses. A campaign is created as SENDING and transitions
// exactly once, to SENT or FAILED, when the delivery loop finishes.
// DRAFT exists for forward compatibility and is never produced by
// dispatch. FAILED means "at least one recipient failed", not total
// failure.
const (
	CampaignStatusDraft   = "DRAFT"
	CampaignStatusSending = "SENDING"
	CampaignStatusSent    = "SENT"
	CampaignStatusFailed  = "FAILED"
)

// Recipient statuses. PENDING is the only non-terminal state; a
// recipient set to SENT, FAILED or SKIPPED is never revisited.
const (
	RecipientStatusPending = "PENDING"
	RecipientStatusSent    = "SENT"
	RecipientStatusFailed  = "FAILED"
	RecipientStatusSkipped = "SKIPPED"
)

// Campaign records one dispatch run. Subject, bodies and the template
// name are snapshotted at creation so later edits to the template or
// contacts never rewrite history. Counters are denormalized and written
// once, together with the final status.
type Campaign struct {
	gorm.Model
	OrganizationID uint  `gorm:"not null;index" json:"organization_id"`
	TemplateID     *uint `gorm:"index" json:"template_id,omitempty"`

	// Content snapshots (immutable after create)
	TemplateNameSnapshot *string `json:"template_name_snapshot,omitempty"`
	SubjectSnapshot      string  `gorm:"not null" json:"subject_snapshot"`
	TextBodySnapshot     string  `gorm:"type:text;not null" json:"text_body_snapshot"`
	HTMLBodySnapshot     *string `gorm:"type:text" json:"html_body_snapshot,omitempty"`

	Status string `gorm:"not null;default:'DRAFT';index" json:"status"` // DRAFT, SENDING, SENT, FAILED

	// Aggregates (totalCount = sentCount + failedCount + skippedCount
	// once dispatch completes)
	TotalCount   int `gorm:"default:0" json:"total_count"`
	SentCount    int `gorm:"default:0" json:"sent_count"`
	FailedCount  int `gorm:"default:0" json:"failed_count"`
	SkippedCount int `gorm:"default:0" json:"skipped_count"`

	CreatedByUserID uint `gorm:"not null;index" json:"created_by_user_id"`

	// Relations
	Organization Organization        `json:"-"`
	Template     *EmailTemplate      `json:"-"`
	Recipients   []CampaignRecipient `gorm:"foreignKey:CampaignID;constraint:OnDelete:CASCADE" json:"recipients,omitempty"`
}

// CampaignRecipient is one contact's delivery record within a campaign.
// EmailSnapshot is null exactly when the row was skipped for a missing
// email; ContactID is kept nullable so deleting a contact does not
// destroy campaign history.
type CampaignRecipient struct {
	gorm.Model
	CampaignID uint  `gorm:"not null;index" json:"campaign_id"`
	ContactID  *uint `gorm:"index" json:"contact_id,omitempty"`

	EmailSnapshot       *string `json:"email_snapshot,omitempty"`
	ContactNameSnapshot string  `json:"contact_name_snapshot"`

	Status            string  `gorm:"not null;default:'PENDING';index" json:"status"` // PENDING, SENT, FAILED, SKIPPED
	ErrorMessage      *string `json:"error_message,omitempty"`
	ProviderMessageID *string `json:"provider_message_id,omitempty"`

	// Relations
	Campaign Campaign `json:"-"`
	Contact  *Contact `json:"-"`
}
