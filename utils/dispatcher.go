package utils

import (
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"maildeck/models"
)

// MaxDispatchRecipients caps one dispatch call to bound its cost.
const MaxDispatchRecipients = 500

// Validation errors, rejected before any campaign row is created.
var (
	ErrNoContactsSelected = errors.New("no contacts selected")
	ErrEmptySubject       = errors.New("subject is required")
	ErrEmptyTextBody      = errors.New("text body is required")
)

// skipReasonNoEmail is recorded on recipients excluded for a missing
// email address.
const skipReasonNoEmail = "email is missing"

// Dispatcher runs one campaign end to end: re-resolves contacts inside
// the caller's organization, snapshots the message content, classifies
// each recipient as sendable or skipped, attempts delivery once per
// sendable recipient, and writes the aggregate counters and final
// status. Delivery is sequential and best-effort; a recipient failure
// never aborts the run.
type Dispatcher struct {
	DB      *gorm.DB
	Gateway DeliveryGateway
	Logger  *logrus.Logger
}

func NewDispatcher(db *gorm.DB, gateway DeliveryGateway, logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		DB:      db,
		Gateway: gateway,
		Logger:  logger,
	}
}

// DispatchInput is everything one dispatch call needs. ContactIDs may
// contain duplicates and foreign ids; both are tolerated (deduplicated
// and silently excluded, respectively). HTMLBody nil means "no HTML
// variant", which is preserved all the way to the gateway.
type DispatchInput struct {
	OrganizationID  uint
	CreatedByUserID uint
	ContactIDs      []uint
	TemplateID      *uint
	Subject         string
	TextBody        string
	HTMLBody        *string
}

// Dispatch runs the classification phase then the delivery phase and
// returns the completed campaign. A validation error means nothing was
// created. A datastore failure during delivery aborts the run and
// leaves the campaign SENDING with its undelivered rows PENDING, same
// as a crash mid-loop.
func (d *Dispatcher) Dispatch(input DispatchInput) (*models.Campaign, error) {
	campaign, contacts, err := d.classify(input)
	if err != nil {
		return nil, err
	}

	if err := d.deliver(campaign, contacts); err != nil {
		return nil, err
	}

	// Re-read so callers see the final counters and status.
	var out models.Campaign
	if err := d.DB.First(&out, campaign.ID).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// classify validates input, snapshots content, and writes the campaign
// plus one recipient row per resolved contact. No email is sent here.
func (d *Dispatcher) classify(input DispatchInput) (*models.Campaign, []models.Contact, error) {
	ids := DedupeIDs(input.ContactIDs)
	if len(ids) > MaxDispatchRecipients {
		ids = ids[:MaxDispatchRecipients]
	}
	if len(ids) == 0 {
		return nil, nil, ErrNoContactsSelected
	}

	subject := strings.TrimSpace(input.Subject)
	if subject == "" {
		return nil, nil, ErrEmptySubject
	}
	if strings.TrimSpace(input.TextBody) == "" {
		return nil, nil, ErrEmptyTextBody
	}

	// Re-resolve contacts inside the caller's organization. Ids that
	// don't resolve (foreign org or deleted) drop out silently so a
	// probe can't tell "other tenant" from "gone".
	var contacts []models.Contact
	if err := d.DB.
		Where("organization_id = ? AND id IN ?", input.OrganizationID, ids).
		Find(&contacts).Error; err != nil {
		return nil, nil, err
	}

	// Template name snapshot, org-scoped and excluding archived.
	var templateNameSnapshot *string
	if input.TemplateID != nil {
		var tmpl models.EmailTemplate
		err := d.DB.
			Where("id = ? AND organization_id = ? AND is_archived = ?", *input.TemplateID, input.OrganizationID, false).
			First(&tmpl).Error
		if err == nil {
			templateNameSnapshot = &tmpl.Name
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, err
		}
	}

	campaign := models.Campaign{
		OrganizationID:       input.OrganizationID,
		TemplateID:           input.TemplateID,
		TemplateNameSnapshot: templateNameSnapshot,
		SubjectSnapshot:      subject,
		TextBodySnapshot:     input.TextBody,
		HTMLBodySnapshot:     input.HTMLBody,
		Status:               models.CampaignStatusSending,
		CreatedByUserID:      input.CreatedByUserID,
	}
	if err := d.DB.Create(&campaign).Error; err != nil {
		return nil, nil, err
	}

	// Partition into sendable and skipped. emailSnapshot is null exactly
	// when the row is skipped for a missing email.
	recipients := make([]models.CampaignRecipient, 0, len(contacts))
	for _, c := range contacts {
		email := ""
		if c.Email != nil {
			email = strings.TrimSpace(*c.Email)
		}

		if email == "" {
			recipients = append(recipients, models.CampaignRecipient{
				CampaignID:          campaign.ID,
				ContactID:           Pointer(c.ID),
				EmailSnapshot:       nil,
				ContactNameSnapshot: c.Name,
				Status:              models.RecipientStatusSkipped,
				ErrorMessage:        Pointer(skipReasonNoEmail),
			})
			continue
		}

		recipients = append(recipients, models.CampaignRecipient{
			CampaignID:          campaign.ID,
			ContactID:           Pointer(c.ID),
			EmailSnapshot:       &email,
			ContactNameSnapshot: c.Name,
			Status:              models.RecipientStatusPending,
		})
	}

	if len(recipients) > 0 {
		if err := d.DB.Create(&recipients).Error; err != nil {
			return nil, nil, err
		}
	}

	return &campaign, contacts, nil
}

// deliver processes every PENDING recipient of the campaign exactly
// once, then persists the four counters and the terminal status in a
// single update. Rendering uses the classification-time contact data;
// a contact that vanished falls back to the unrendered template text.
// Per-recipient delivery errors never abort the loop, but a datastore
// error does: finalizing from partial reads would record counters that
// don't add up, so the campaign is left SENDING instead.
func (d *Dispatcher) deliver(campaign *models.Campaign, contacts []models.Contact) error {
	contactMap := make(map[uint]*models.Contact, len(contacts))
	for i := range contacts {
		contactMap[contacts[i].ID] = &contacts[i]
	}

	var pending []models.CampaignRecipient
	if err := d.DB.
		Where("campaign_id = ? AND status = ?", campaign.ID, models.RecipientStatusPending).
		Find(&pending).Error; err != nil {
		d.Logger.WithError(err).WithField("campaign_id", campaign.ID).Error("failed to load pending recipients")
		return err
	}

	sentCount := 0
	failedCount := 0

	for i := range pending {
		r := &pending[i]

		var contact *models.Contact
		if r.ContactID != nil {
			contact = contactMap[*r.ContactID]
		}

		// RenderVars on a nil contact returns the template unchanged, so
		// a vanished contact still gets the message, just unpersonalized.
		subject := RenderVars(campaign.SubjectSnapshot, contact)
		text := RenderVars(campaign.TextBodySnapshot, contact)
		var html *string
		if campaign.HTMLBodySnapshot != nil {
			html = Pointer(RenderVars(*campaign.HTMLBodySnapshot, contact))
		}

		messageID, err := d.Gateway.Send(Email{
			To:      *r.EmailSnapshot,
			Subject: subject,
			Text:    text,
			HTML:    html,
		})

		if err != nil {
			failedCount++
			update := map[string]interface{}{
				"status":        models.RecipientStatusFailed,
				"error_message": err.Error(),
			}
			if dbErr := d.DB.Model(r).Updates(update).Error; dbErr != nil {
				d.Logger.WithError(dbErr).WithField("recipient_id", r.ID).Error("failed to record delivery failure")
			}
			d.Logger.WithFields(logrus.Fields{
				"campaign_id":  campaign.ID,
				"recipient_id": r.ID,
			}).WithError(err).Warn("recipient delivery failed")
			continue
		}

		sentCount++
		update := map[string]interface{}{
			"status":              models.RecipientStatusSent,
			"provider_message_id": messageID,
			"error_message":       nil,
		}
		if dbErr := d.DB.Model(r).Updates(update).Error; dbErr != nil {
			d.Logger.WithError(dbErr).WithField("recipient_id", r.ID).Error("failed to record delivery success")
		}
	}

	var totalCount int64
	if err := d.DB.Model(&models.CampaignRecipient{}).
		Where("campaign_id = ?", campaign.ID).
		Count(&totalCount).Error; err != nil {
		d.Logger.WithError(err).WithField("campaign_id", campaign.ID).Error("failed to count recipients")
		return err
	}
	skippedCount := int(totalCount) - sentCount - failedCount

	finalStatus := models.CampaignStatusSent
	if failedCount > 0 {
		finalStatus = models.CampaignStatusFailed
	}

	if err := d.DB.Model(campaign).Updates(map[string]interface{}{
		"status":        finalStatus,
		"total_count":   int(totalCount),
		"sent_count":    sentCount,
		"failed_count":  failedCount,
		"skipped_count": skippedCount,
	}).Error; err != nil {
		d.Logger.WithError(err).WithField("campaign_id", campaign.ID).Error("failed to finalize campaign")
		return err
	}

	d.Logger.WithFields(logrus.Fields{
		"campaign_id": campaign.ID,
		"status":      finalStatus,
		"total":       totalCount,
		"sent":        sentCount,
		"failed":      failedCount,
		"skipped":     skippedCount,
	}).Info("campaign dispatch completed")
	return nil
}
