package routes

import (
	controller "maildeck/controllers"
	"maildeck/middleware"
	"maildeck/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func SetupAuthRoutes(app *fiber.App, db *gorm.DB, gateway utils.DeliveryGateway, log *logrus.Logger) {
	authController := controller.NewAuthController(db, gateway, log)
	invitationController := controller.NewInvitationController(db, gateway, log)

	// Auth routes group with logging middleware
	auth := app.Group("/auth", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Public auth endpoints (no session required)
	auth.Post("/request-link", middleware.MagicLinkRateLimiter(), authController.RequestLink)
	auth.Get("/verify", authController.VerifyLink)
	auth.Post("/logout", authController.Logout)

	// Protected auth endpoints (require valid session)
	protectedAuth := auth.Group("", middleware.Protected())
	protectedAuth.Get("/me", authController.Me)

	// Invitation acceptance is public; the token is the credential
	invitations := app.Group("/invitations")
	invitations.Get("/accept", invitationController.AcceptInvitation)

	log.Info("Authentication routes initialized successfully")
}

func SetupAPIRoutes(app *fiber.App, db *gorm.DB, gateway utils.DeliveryGateway, log *logrus.Logger) {
	contactController := controller.NewContactController(db, log)
	templateController := controller.NewTemplateController(db, log)
	invitationController := controller.NewInvitationController(db, gateway, log)

	dispatcher := utils.NewDispatcher(db, gateway, log)
	campaignController := controller.NewCampaignController(db, dispatcher, log)

	// API group with versioning and protection
	api := app.Group("/api/v1", middleware.Protected(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Contact routes
	contact := api.Group("/contacts")
	contact.Get("/", contactController.GetContacts)
	contact.Get("/:id", contactController.GetContact)
	contact.Post("/", middleware.RequireEditor(), contactController.CreateContact)
	contact.Put("/:id", middleware.RequireEditor(), contactController.UpdateContact)
	contact.Delete("/:id", middleware.RequireEditor(), contactController.DeleteContact)

	// Template routes
	template := api.Group("/templates")
	template.Get("/", templateController.GetTemplates)
	template.Get("/:id", templateController.GetTemplate)
	template.Post("/", middleware.RequireEditor(), templateController.CreateTemplate)
	template.Put("/:id", middleware.RequireEditor(), templateController.UpdateTemplate)
	template.Post("/:id/archive", middleware.RequireEditor(), templateController.ArchiveTemplate)
	template.Post("/:id/restore", middleware.RequireEditor(), templateController.RestoreTemplate)

	// Campaign routes
	campaign := api.Group("/campaigns")
	campaign.Get("/", campaignController.GetCampaigns)
	campaign.Get("/:id", campaignController.GetCampaign)
	campaign.Post("/", middleware.RequireEditor(), campaignController.DispatchCampaign)

	// Invitation management (admin only)
	api.Post("/invitations", middleware.RequireAdmin(), invitationController.CreateInvitation)

	log.Info("API routes initialized successfully")
}

func SetupRoutes(app *fiber.App, db *gorm.DB, gateway utils.DeliveryGateway, log *logrus.Logger) {
	// Setup health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	SetupAuthRoutes(app, db, gateway, log)
	SetupAPIRoutes(app, db, gateway, log)

	// Setup 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})
}
