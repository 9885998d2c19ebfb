package controller

import (
	"fmt"
	"strings"
	"time"

	"github.com/badoux/checkmail"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"maildeck/config"
	"maildeck/models"
	"maildeck/utils"
)

type InvitationController struct {
	DB      *gorm.DB
	Gateway utils.DeliveryGateway
	Logger  *logrus.Logger
}

func NewInvitationController(db *gorm.DB, gateway utils.DeliveryGateway, logger *logrus.Logger) *InvitationController {
	return &InvitationController{
		DB:      db,
		Gateway: gateway,
		Logger:  logger,
	}
}

type CreateInvitationRequest struct {
	Email string `json:"email" validate:"required,max=255"`
	Role  string `json:"role" validate:"omitempty,oneof=EDITOR VIEWER"`
}

// CreateInvitation issues a 24-hour single-use invite into the caller's
// organization. Admin only (enforced by middleware). Invites can only
// grant EDITOR or VIEWER; anything else is coerced to VIEWER.
func (ic *InvitationController) CreateInvitation(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*utils.SessionClaims)

	var req CreateInvitationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body"})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := checkmail.ValidateFormat(email); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_email"})
	}

	role := models.RoleViewer
	if req.Role == models.RoleEditor {
		role = models.RoleEditor
	}

	token, err := utils.GenerateToken()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "invitation_failed"})
	}

	invitation := models.Invitation{
		OrganizationID:  claims.OrganizationID,
		Email:           email,
		Role:            role,
		TokenHash:       utils.HashToken(token),
		ExpiresAt:       time.Now().Add(utils.InvitationTTLHours * time.Hour),
		CreatedByUserID: claims.UserID,
	}
	if err := ic.DB.Create(&invitation).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "invitation_failed"})
	}

	acceptURL := fmt.Sprintf("%s/invitations/accept?token=%s", config.AppConfig.AppURL, token)
	text := fmt.Sprintf("You have been invited to MailDeck as %s.\n\nAccept the invitation:\n%s\n\nThe link is valid for %d hours and can be used once.", role, acceptURL, utils.InvitationTTLHours)

	if _, err := ic.Gateway.Send(utils.Email{
		To:      email,
		Subject: "You're invited to MailDeck",
		Text:    text,
	}); err != nil {
		utils.LogError("invitation_send", err, map[string]interface{}{
			"organization_id": claims.OrganizationID,
			"invitation_id":   invitation.ID,
		})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "invitation_send_failed"})
	}

	ic.Logger.WithFields(logrus.Fields{
		"organization_id": claims.OrganizationID,
		"role":            role,
	}).Info("invitation created")

	return c.JSON(fiber.Map{"ok": true})
}

// AcceptInvitation validates the invite token, creates the user on
// first acceptance, attaches (or re-roles) the membership, spends the
// token, and signs the new member in.
func (ic *InvitationController) AcceptInvitation(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_invite"})
	}

	var invite models.Invitation
	if err := ic.DB.Where("token_hash = ?", utils.HashToken(token)).First(&invite).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_invite"})
	}

	if invite.AcceptedAt != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invite_used"})
	}
	if invite.ExpiresAt.Before(time.Now()) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invite_expired"})
	}

	// User: existing account or created on the spot.
	var user models.User
	if err := ic.DB.Where("email = ?", invite.Email).First(&user).Error; err != nil {
		user = models.User{
			Email:  invite.Email,
			Status: models.UserStatusActive,
		}
		if err := ic.DB.Create(&user).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "accept_failed"})
		}
	}

	// Membership: create, or update the role of an existing one.
	var membership models.Membership
	err := ic.DB.
		Where("organization_id = ? AND user_id = ?", invite.OrganizationID, user.ID).
		First(&membership).Error
	if err == nil {
		if err := ic.DB.Model(&membership).Update("role", invite.Role).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "accept_failed"})
		}
		membership.Role = invite.Role
	} else {
		membership = models.Membership{
			OrganizationID: invite.OrganizationID,
			UserID:         user.ID,
			Role:           invite.Role,
		}
		if err := ic.DB.Create(&membership).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "accept_failed"})
		}
	}

	if err := ic.DB.Model(&invite).Update("accepted_at", time.Now()).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "accept_failed"})
	}

	sessionToken, err := utils.GenerateSessionToken(user.ID, invite.OrganizationID, invite.Role)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "session_failed"})
	}

	setSessionCookie(c, sessionToken)

	ic.Logger.WithFields(logrus.Fields{
		"user_id":         user.ID,
		"organization_id": invite.OrganizationID,
		"role":            invite.Role,
	}).Info("invitation accepted")

	return c.JSON(fiber.Map{
		"ok":              true,
		"session":         sessionToken,
		"organization_id": invite.OrganizationID,
		"role":            invite.Role,
	})
}
