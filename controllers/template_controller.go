package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"maildeck/models"
	"maildeck/utils"
)

type TemplateController struct {
	DB     *gorm.DB
	Logger *logrus.Logger
}

func NewTemplateController(db *gorm.DB, logger *logrus.Logger) *TemplateController {
	return &TemplateController{DB: db, Logger: logger}
}

type TemplateRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Subject  string `json:"subject" validate:"required,max=998"`
	TextBody string `json:"text_body" validate:"required"`
	HTMLBody string `json:"html_body"`
}

// GetTemplates lists the organization's templates, most recently
// updated first. Pass archived=1 to include archived ones.
func (tc *TemplateController) GetTemplates(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*utils.SessionClaims)

	query := tc.DB.Where("organization_id = ?", claims.OrganizationID)
	if c.Query("archived") != "1" {
		query = query.Where("is_archived = ?", false)
	}

	var templates []models.EmailTemplate
	if err := query.Order("updated_at desc").Find(&templates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch templates",
		})
	}

	return c.JSON(fiber.Map{"ok": true, "templates": templates})
}

// GetTemplate fetches one template, archived or not.
func (tc *TemplateController) GetTemplate(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*utils.SessionClaims)
	id := utils.ParseUint(c.Params("id"))

	var tmpl models.EmailTemplate
	if err := tc.DB.
		Where("id = ? AND organization_id = ?", id, claims.OrganizationID).
		First(&tmpl).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found"})
	}

	return c.JSON(fiber.Map{"ok": true, "template": tmpl})
}

// CreateTemplate adds a template. Names are unique per organization.
func (tc *TemplateController) CreateTemplate(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*utils.SessionClaims)

	req, errMsg := tc.parseTemplateRequest(c)
	if errMsg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": errMsg})
	}

	var dup models.EmailTemplate
	if err := tc.DB.
		Where("organization_id = ? AND name = ?", claims.OrganizationID, req.Name).
		First(&dup).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "duplicate_name"})
	}

	tmpl := models.EmailTemplate{
		OrganizationID:  claims.OrganizationID,
		Name:            req.Name,
		Subject:         req.Subject,
		TextBody:        req.TextBody,
		HTMLBody:        utils.NormalizeOptional(req.HTMLBody),
		CreatedByUserID: claims.UserID,
		UpdatedByUserID: claims.UserID,
	}

	if err := tc.DB.Create(&tmpl).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create template",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "template": tmpl})
}

// UpdateTemplate replaces a template's content. Archived templates can
// be edited too; they just can't be dispatched from.
func (tc *TemplateController) UpdateTemplate(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*utils.SessionClaims)
	id := utils.ParseUint(c.Params("id"))

	var existing models.EmailTemplate
	if err := tc.DB.
		Where("id = ? AND organization_id = ?", id, claims.OrganizationID).
		First(&existing).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found"})
	}

	req, errMsg := tc.parseTemplateRequest(c)
	if errMsg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": errMsg})
	}

	var dup models.EmailTemplate
	if err := tc.DB.
		Where("organization_id = ? AND name = ? AND id <> ?", claims.OrganizationID, req.Name, existing.ID).
		First(&dup).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "duplicate_name"})
	}

	updates := map[string]interface{}{
		"name":               req.Name,
		"subject":            req.Subject,
		"text_body":          req.TextBody,
		"html_body":          utils.NormalizeOptional(req.HTMLBody),
		"updated_by_user_id": claims.UserID,
	}
	if err := tc.DB.Model(&existing).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update template",
		})
	}

	var updated models.EmailTemplate
	if err := tc.DB.First(&updated, existing.ID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch template",
		})
	}

	return c.JSON(fiber.Map{"ok": true, "template": updated})
}

// ArchiveTemplate hides a template from dispatch without deleting it,
// so existing campaign snapshots keep a valid reference.
func (tc *TemplateController) ArchiveTemplate(c *fiber.Ctx) error {
	return tc.setArchived(c, true)
}

// RestoreTemplate makes an archived template dispatchable again.
func (tc *TemplateController) RestoreTemplate(c *fiber.Ctx) error {
	return tc.setArchived(c, false)
}

func (tc *TemplateController) setArchived(c *fiber.Ctx, archived bool) error {
	claims := c.Locals("claims").(*utils.SessionClaims)
	id := utils.ParseUint(c.Params("id"))

	var existing models.EmailTemplate
	if err := tc.DB.
		Where("id = ? AND organization_id = ?", id, claims.OrganizationID).
		First(&existing).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found"})
	}

	if err := tc.DB.Model(&existing).Updates(map[string]interface{}{
		"is_archived":        archived,
		"updated_by_user_id": claims.UserID,
	}).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update template",
		})
	}

	return c.JSON(fiber.Map{"ok": true})
}

func (tc *TemplateController) parseTemplateRequest(c *fiber.Ctx) (TemplateRequest, string) {
	var req TemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return req, "invalid_body"
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Subject = strings.TrimSpace(req.Subject)

	if req.Name == "" {
		return req, "name_required"
	}
	if req.Subject == "" {
		return req, "subject_required"
	}
	if strings.TrimSpace(req.TextBody) == "" {
		return req, "text_body_required"
	}

	return req, ""
}
