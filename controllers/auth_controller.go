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

type AuthController struct {
	DB      *gorm.DB
	Gateway utils.DeliveryGateway
	Logger  *logrus.Logger
}

func NewAuthController(db *gorm.DB, gateway utils.DeliveryGateway, logger *logrus.Logger) *AuthController {
	return &AuthController{
		DB:      db,
		Gateway: gateway,
		Logger:  logger,
	}
}

type RequestLinkRequest struct {
	Email string `json:"email" validate:"required,max=255"`
}

// RequestLink mints a single-use login token and emails a magic link.
// The response is identical whether or not the account exists, so the
// endpoint can't be used to enumerate users. Accounts are invite-only;
// unknown addresses get nothing.
func (ac *AuthController) RequestLink(c *fiber.Ctx) error {
	okResponse := fiber.Map{"ok": true}

	var req RequestLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.JSON(okResponse)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := checkmail.ValidateFormat(email); err != nil {
		return c.JSON(okResponse)
	}

	var user models.User
	if err := ac.DB.Where("email = ?", email).First(&user).Error; err != nil {
		return c.JSON(okResponse)
	}

	token, err := utils.GenerateToken()
	if err != nil {
		utils.LogError("login_token_generation", err, map[string]interface{}{"user_id": user.ID})
		return c.JSON(okResponse)
	}

	loginToken := models.LoginToken{
		UserID:    user.ID,
		TokenHash: utils.HashToken(token),
		ExpiresAt: time.Now().Add(utils.LoginTokenTTLMinutes * time.Minute),
	}
	if err := ac.DB.Create(&loginToken).Error; err != nil {
		utils.LogError("login_token_create", err, map[string]interface{}{"user_id": user.ID})
		return c.JSON(okResponse)
	}

	url := fmt.Sprintf("%s/auth/verify?token=%s", config.AppConfig.AppURL, token)
	text := fmt.Sprintf("Click the link below to sign in to MailDeck.\n\n%s\n\nThe link is valid for %d minutes and can be used once. If you didn't request it, you can ignore this email.", url, utils.LoginTokenTTLMinutes)

	if _, err := ac.Gateway.Send(utils.Email{
		To:      email,
		Subject: "Sign in to MailDeck",
		Text:    text,
	}); err != nil {
		// Still 200: a delivery error must not reveal that the account exists.
		utils.LogError("magic_link_send", err, map[string]interface{}{"user_id": user.ID})
	}

	return c.JSON(okResponse)
}

// VerifyLink exchanges a raw magic-link token for a session. Tokens are
// looked up by hash and rejected when unknown, already used, or past
// their expiry, each with its own reason code.
func (ac *AuthController) VerifyLink(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_token"})
	}

	var loginToken models.LoginToken
	if err := ac.DB.Where("token_hash = ?", utils.HashToken(token)).First(&loginToken).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_token"})
	}

	if loginToken.UsedAt != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "token_used"})
	}
	if loginToken.ExpiresAt.Before(time.Now()) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "token_expired"})
	}

	// Spend the token before issuing anything
	if err := ac.DB.Model(&loginToken).Update("used_at", time.Now()).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "verification_failed"})
	}

	var membership models.Membership
	if err := ac.DB.
		Where("user_id = ?", loginToken.UserID).
		Order("created_at asc").
		First(&membership).Error; err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "no_membership"})
	}

	sessionToken, err := utils.GenerateSessionToken(loginToken.UserID, membership.OrganizationID, membership.Role)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "session_failed"})
	}

	setSessionCookie(c, sessionToken)

	ac.Logger.WithFields(logrus.Fields{
		"user_id":         loginToken.UserID,
		"organization_id": membership.OrganizationID,
	}).Info("magic link login")

	return c.JSON(fiber.Map{
		"ok":              true,
		"session":         sessionToken,
		"organization_id": membership.OrganizationID,
		"role":            membership.Role,
	})
}

// Logout clears the session cookie. The credential itself stays valid
// until expiry; this only removes it from the browser.
func (ac *AuthController) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     utils.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HTTPOnly: true,
		SameSite: "Lax",
	})
	return c.JSON(fiber.Map{"ok": true})
}

// Me returns the caller's profile and session scope.
func (ac *AuthController) Me(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	claims := c.Locals("claims").(*utils.SessionClaims)

	return c.JSON(fiber.Map{
		"user":            user,
		"organization_id": claims.OrganizationID,
		"role":            claims.Role,
	})
}

func setSessionCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     utils.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(utils.SessionTTL.Seconds()),
		HTTPOnly: true,
		SameSite: "Lax",
		Secure:   config.AppConfig.Environment == "production",
	})
}
