package controller

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"maildeck/models"
	"maildeck/utils"
)

// Campaign list paging bounds
const (
	campaignPageSizeDefault = 50
	campaignPageSizeMin     = 10
	campaignPageSizeMax     = 200

	// Recipient detail is capped rather than paged
	recipientListMax = 300
)

type CampaignController struct {
	DB         *gorm.DB
	Dispatcher *utils.Dispatcher
	Logger     *logrus.Logger
}

func NewCampaignController(db *gorm.DB, dispatcher *utils.Dispatcher, logger *logrus.Logger) *CampaignController {
	return &CampaignController{
		DB:         db,
		Dispatcher: dispatcher,
		Logger:     logger,
	}
}

type DispatchRequest struct {
	ContactIDs []uint `json:"contact_ids" validate:"required,min=1"`
	TemplateID *uint  `json:"template_id"`
	Subject    string `json:"subject"`
	TextBody   string `json:"text_body"`
	HTMLBody   string `json:"html_body"`
}

// DispatchCampaign runs one campaign synchronously and returns the
// completed record. The viewer role is rejected by middleware before
// this handler runs.
func (cc *CampaignController) DispatchCampaign(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*utils.SessionClaims)

	var req DispatchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body"})
	}

	input := utils.DispatchInput{
		OrganizationID:  claims.OrganizationID,
		CreatedByUserID: claims.UserID,
		ContactIDs:      req.ContactIDs,
		TemplateID:      req.TemplateID,
		Subject:         req.Subject,
		TextBody:        req.TextBody,
		HTMLBody:        utils.NormalizeOptional(req.HTMLBody),
	}

	campaign, err := cc.Dispatcher.Dispatch(input)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrNoContactsSelected):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "no_contacts_selected"})
		case errors.Is(err, utils.ErrEmptySubject):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "subject_required"})
		case errors.Is(err, utils.ErrEmptyTextBody):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "text_body_required"})
		}
		utils.LogError("campaign_dispatch", err, map[string]interface{}{
			"organization_id": claims.OrganizationID,
		})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "dispatch_failed"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "campaign": campaign})
}

// GetCampaigns lists campaigns with filtering and pagination. With
// failedFirst=1 (and no status filter) the FAILED segment is served
// before everything else, with paging that stays correct across the
// segment boundary.
func (cc *CampaignController) GetCampaigns(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*utils.SessionClaims)

	status := strings.ToUpper(strings.TrimSpace(c.Query("status")))
	switch status {
	case models.CampaignStatusDraft, models.CampaignStatusSending, models.CampaignStatusSent, models.CampaignStatusFailed:
	default:
		status = "" // ALL
	}

	page := utils.ClampInt(c.Query("page"), 1, 1, 10000)
	size := utils.ClampInt(c.Query("size"), campaignPageSizeDefault, campaignPageSizeMin, campaignPageSizeMax)
	skip := (page - 1) * size

	// failedFirst only makes sense without a status filter
	failedFirst := c.Query("failedFirst") == "1" && status == ""

	baseQuery := func() *gorm.DB {
		q := cc.DB.Model(&models.Campaign{}).
			Where("organization_id = ?", claims.OrganizationID)

		if status != "" {
			q = q.Where("status = ?", status)
		}
		if search := strings.TrimSpace(c.Query("q")); search != "" {
			like := "%" + search + "%"
			q = q.Where("subject_snapshot LIKE ? OR template_name_snapshot LIKE ?", like, like)
		}
		if from, ok := parseDateOnly(c.Query("from")); ok {
			q = q.Where("created_at >= ?", from)
		}
		if to, ok := parseDateOnly(c.Query("to")); ok {
			q = q.Where("created_at < ?", to.AddDate(0, 0, 1))
		}
		if createdBy := utils.ParseUint(c.Query("createdBy")); createdBy != 0 {
			q = q.Where("created_by_user_id = ?", createdBy)
		}
		return q
	}

	var campaigns []models.Campaign
	var total int64

	if !failedFirst {
		if err := baseQuery().Count(&total).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch campaigns"})
		}
		if err := baseQuery().
			Order("created_at desc").
			Offset(skip).
			Limit(size).
			Find(&campaigns).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch campaigns"})
		}
	} else {
		var failedTotal, nonFailedTotal int64
		if err := baseQuery().Where("status = ?", models.CampaignStatusFailed).Count(&failedTotal).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch campaigns"})
		}
		if err := baseQuery().Where("status <> ?", models.CampaignStatusFailed).Count(&nonFailedTotal).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch campaigns"})
		}
		total = failedTotal + nonFailedTotal

		// The page window may start inside the FAILED segment, span the
		// boundary, or lie entirely in the non-FAILED segment.
		if skip < int(failedTotal) {
			takeFailed := size
			if remaining := int(failedTotal) - skip; takeFailed > remaining {
				takeFailed = remaining
			}

			var failedRows []models.Campaign
			if err := baseQuery().
				Where("status = ?", models.CampaignStatusFailed).
				Order("created_at desc").
				Offset(skip).
				Limit(takeFailed).
				Find(&failedRows).Error; err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch campaigns"})
			}
			campaigns = failedRows

			if takeNonFailed := size - takeFailed; takeNonFailed > 0 {
				var nonFailedRows []models.Campaign
				if err := baseQuery().
					Where("status <> ?", models.CampaignStatusFailed).
					Order("created_at desc").
					Limit(takeNonFailed).
					Find(&nonFailedRows).Error; err != nil {
					return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch campaigns"})
				}
				campaigns = append(campaigns, nonFailedRows...)
			}
		} else {
			if err := baseQuery().
				Where("status <> ?", models.CampaignStatusFailed).
				Order("created_at desc").
				Offset(skip - int(failedTotal)).
				Limit(size).
				Find(&campaigns).Error; err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch campaigns"})
			}
		}
	}

	return c.JSON(utils.PaginatedResponse{
		Data:  campaigns,
		Total: total,
		Page:  page,
		Limit: size,
	})
}

// GetCampaign returns one campaign with up to 300 of its recipients,
// ordered by status then most recently updated.
func (cc *CampaignController) GetCampaign(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*utils.SessionClaims)
	id := utils.ParseUint(c.Params("id"))

	var campaign models.Campaign
	if err := cc.DB.
		Where("id = ? AND organization_id = ?", id, claims.OrganizationID).
		First(&campaign).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found"})
	}

	var recipients []models.CampaignRecipient
	if err := cc.DB.
		Where("campaign_id = ?", campaign.ID).
		Order("status asc").
		Order("updated_at desc").
		Limit(recipientListMax).
		Find(&recipients).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch recipients"})
	}

	return c.JSON(fiber.Map{
		"ok":         true,
		"campaign":   campaign,
		"recipients": recipients,
	})
}

// parseDateOnly accepts YYYY-MM-DD and interprets it as UTC midnight.
func parseDateOnly(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}
