package main

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"maildeck/config"
	"maildeck/models"
)

// Seeds the first organization and its admin, so a fresh deployment has
// someone who can log in and invite the rest of the team.
func main() {
	logger := logrus.New()

	if err := config.LoadConfig(); err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	if err := config.ConnectDB(); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	orgName := getenvDefault("SEED_ORG_NAME", "MailDeck")
	adminEmail := strings.ToLower(strings.TrimSpace(getenvDefault("SEED_ADMIN_EMAIL", "admin@maildeck.local")))
	adminName := getenvDefault("SEED_ADMIN_NAME", "Admin")

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		var org models.Organization
		if err := tx.Where("name = ?", orgName).First(&org).Error; err != nil {
			org = models.Organization{Name: orgName}
			if err := tx.Create(&org).Error; err != nil {
				return err
			}
		}

		var user models.User
		if err := tx.Where("email = ?", adminEmail).First(&user).Error; err != nil {
			user = models.User{
				Email:  adminEmail,
				Name:   &adminName,
				Status: models.UserStatusActive,
			}
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
		}

		var membership models.Membership
		if err := tx.Where("organization_id = ? AND user_id = ?", org.ID, user.ID).First(&membership).Error; err != nil {
			membership = models.Membership{
				OrganizationID: org.ID,
				UserID:         user.ID,
				Role:           models.RoleAdmin,
			}
			if err := tx.Create(&membership).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.Fatalf("Seed failed: %v", err)
	}

	logger.WithFields(logrus.Fields{
		"organization": orgName,
		"admin_email":  adminEmail,
	}).Info("Seed completed")
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
