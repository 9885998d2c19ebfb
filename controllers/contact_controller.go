package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"maildeck/models"
	"maildeck/utils"
)

type ContactController struct {
	DB     *gorm.DB
	Logger *logrus.Logger
}

func NewContactController(db *gorm.DB, logger *logrus.Logger) *ContactController {
	return &ContactController{DB: db, Logger: logger}
}

type ContactRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	CompanyName string `json:"company_name" validate:"omitempty,max=255"`
	Email       string `json:"email" validate:"omitempty,max=255"`
	Phone       string `json:"phone" validate:"omitempty,max=64"`
	Note        string `json:"note" validate:"omitempty,max=10000"`
}

// GetContacts lists the organization's contacts, newest first.
func (cc *ContactController) GetContacts(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*utils.SessionClaims)

	var contacts []models.Contact
	if err := cc.DB.
		Where("organization_id = ?", claims.OrganizationID).
		Order("created_at desc").
		Find(&contacts).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch contacts",
		})
	}

	return c.JSON(fiber.Map{"ok": true, "contacts": contacts})
}

// GetContact fetches one contact. Foreign-org ids look exactly like
// deleted ones: 404 either way.
func (cc *ContactController) GetContact(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*utils.SessionClaims)
	id := utils.ParseUint(c.Params("id"))

	var contact models.Contact
	if err := cc.DB.
		Where("id = ? AND organization_id = ?", id, claims.OrganizationID).
		First(&contact).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found"})
	}

	return c.JSON(fiber.Map{"ok": true, "contact": contact})
}

// CreateContact adds a contact. Email is optional, lowercased, and
// checked for duplicates within the organization when present.
func (cc *ContactController) CreateContact(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*utils.SessionClaims)

	var req ContactRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body"})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name_required"})
	}

	email := utils.NormalizeOptional(strings.ToLower(req.Email))
	if email != nil {
		var dup models.Contact
		if err := cc.DB.
			Where("organization_id = ? AND email = ?", claims.OrganizationID, *email).
			First(&dup).Error; err == nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "email_already_exists"})
		}
	}

	contact := models.Contact{
		OrganizationID:  claims.OrganizationID,
		Name:            name,
		CompanyName:     utils.NormalizeOptional(req.CompanyName),
		Email:           email,
		Phone:           utils.NormalizeOptional(req.Phone),
		Note:            utils.NormalizeOptional(req.Note),
		CreatedByUserID: claims.UserID,
		UpdatedByUserID: claims.UserID,
	}

	if err := cc.DB.Create(&contact).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create contact",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "contact": contact})
}

// UpdateContact replaces the editable fields of a contact.
func (cc *ContactController) UpdateContact(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*utils.SessionClaims)
	id := utils.ParseUint(c.Params("id"))

	var existing models.Contact
	if err := cc.DB.
		Where("id = ? AND organization_id = ?", id, claims.OrganizationID).
		First(&existing).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found"})
	}

	var req ContactRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body"})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name_required"})
	}

	email := utils.NormalizeOptional(strings.ToLower(req.Email))
	if email != nil {
		var dup models.Contact
		if err := cc.DB.
			Where("organization_id = ? AND email = ? AND id <> ?", claims.OrganizationID, *email, existing.ID).
			First(&dup).Error; err == nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "email_already_exists"})
		}
	}

	updates := map[string]interface{}{
		"name":               name,
		"company_name":       utils.NormalizeOptional(req.CompanyName),
		"email":              email,
		"phone":              utils.NormalizeOptional(req.Phone),
		"note":               utils.NormalizeOptional(req.Note),
		"updated_by_user_id": claims.UserID,
	}
	if err := cc.DB.Model(&existing).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update contact",
		})
	}

	var updated models.Contact
	if err := cc.DB.First(&updated, existing.ID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch contact",
		})
	}

	return c.JSON(fiber.Map{"ok": true, "contact": updated})
}

// DeleteContact removes a contact. Campaign history survives: recipient
// rows keep their snapshots and a null contact reference.
func (cc *ContactController) DeleteContact(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*utils.SessionClaims)
	id := utils.ParseUint(c.Params("id"))

	var existing models.Contact
	if err := cc.DB.
		Where("id = ? AND organization_id = ?", id, claims.OrganizationID).
		First(&existing).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found"})
	}

	if err := cc.DB.Delete(&existing).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete contact",
		})
	}

	return c.JSON(fiber.Map{"ok": true})
}
