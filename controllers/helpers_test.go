package controller_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"maildeck/config"
	"maildeck/models"
	"maildeck/routes"
	"maildeck/utils"
)

// fakeGateway records sends and can fail for chosen addresses.
type fakeGateway struct {
	mu      sync.Mutex
	sent    []utils.Email
	failFor map[string]error
}

func (g *fakeGateway) Send(email utils.Email) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, email)
	if err, ok := g.failFor[email.To]; ok {
		return "", err
	}
	return fmt.Sprintf("msg-%d", len(g.sent)), nil
}

func (g *fakeGateway) lastTo(address string) (utils.Email, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := len(g.sent) - 1; i >= 0; i-- {
		if g.sent[i].To == address {
			return g.sent[i], true
		}
	}
	return utils.Email{}, false
}

var tokenPattern = regexp.MustCompile(`token=([A-Za-z0-9_-]+)`)

func extractToken(t *testing.T, body string) string {
	t.Helper()
	m := tokenPattern.FindStringSubmatch(body)
	require.Len(t, m, 2, "no token link in email body")
	return m[1]
}

// newTestApp wires the full router against an in-memory database and a
// fake delivery gateway.
func newTestApp(t *testing.T) (*fiber.App, *gorm.DB, *fakeGateway) {
	t.Helper()

	config.AppConfig = config.Config{
		Environment:        "development",
		AppURL:             "http://localhost:5000",
		SessionSecret:      "0123456789abcdef0123456789abcdef",
		EmailMode:          "console",
		RateLimitMagicLink: 1000,
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, config.MigrateDB(db))

	// Protected() looks the user up through the package-level handle.
	config.DB = db

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	gateway := &fakeGateway{}
	app := fiber.New()
	routes.SetupRoutes(app, db, gateway, logger)

	return app, db, gateway
}

type member struct {
	Org     models.Organization
	User    models.User
	Session string
}

// seedMember creates an active user with a membership and a signed
// session token for it.
func seedMember(t *testing.T, db *gorm.DB, org models.Organization, email, role string) member {
	t.Helper()

	user := models.User{Email: email, Status: models.UserStatusActive}
	require.NoError(t, db.Create(&user).Error)

	membership := models.Membership{
		OrganizationID: org.ID,
		UserID:         user.ID,
		Role:           role,
	}
	require.NoError(t, db.Create(&membership).Error)

	session, err := utils.GenerateSessionToken(user.ID, org.ID, role)
	require.NoError(t, err)

	return member{Org: org, User: user, Session: session}
}

func seedTestOrg(t *testing.T, db *gorm.DB, name string) models.Organization {
	t.Helper()
	org := models.Organization{Name: name}
	require.NoError(t, db.Create(&org).Error)
	return org
}

func seedTestContact(t *testing.T, db *gorm.DB, orgID uint, name string, email *string) models.Contact {
	t.Helper()
	contact := models.Contact{
		OrganizationID:  orgID,
		Name:            name,
		Email:           email,
		CreatedByUserID: 1,
		UpdatedByUserID: 1,
	}
	require.NoError(t, db.Create(&contact).Error)
	return contact
}

// doJSON performs a request with an optional session and JSON body and
// decodes the JSON response.
func doJSON(t *testing.T, app *fiber.App, method, path, session string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if session != "" {
		req.Header.Set("Authorization", "Bearer "+session)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	decoded := map[string]interface{}{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	return resp, decoded
}
