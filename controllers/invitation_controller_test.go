package controller_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maildeck/models"
)

func TestCreateInvitationIsAdminOnly(t *testing.T) {
	app, db, _ := newTestApp(t)

	org := seedTestOrg(t, db, "Acme")
	editor := seedMember(t, db, org, "editor@example.com", models.RoleEditor)
	viewer := seedMember(t, db, org, "viewer@example.com", models.RoleViewer)
	admin := seedMember(t, db, org, "admin@example.com", models.RoleAdmin)

	body := map[string]string{"email": "new@example.com", "role": "EDITOR"}

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/invitations", editor.Session, body)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/invitations", viewer.Session, body)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, out := doJSON(t, app, http.MethodPost, "/api/v1/invitations", admin.Session, body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, out["ok"])
}

func TestInvitationAcceptFlow(t *testing.T) {
	app, db, gateway := newTestApp(t)

	org := seedTestOrg(t, db, "Acme")
	admin := seedMember(t, db, org, "admin@example.com", models.RoleAdmin)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/invitations", admin.Session, map[string]string{
		"email": "new@example.com",
		"role":  "EDITOR",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	mail, ok := gateway.lastTo("new@example.com")
	require.True(t, ok)
	token := extractToken(t, mail.Text)

	resp, body := doJSON(t, app, http.MethodGet, "/invitations/accept?token="+token, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, models.RoleEditor, body["role"])

	// The account and membership now exist.
	var user models.User
	require.NoError(t, db.Where("email = ?", "new@example.com").First(&user).Error)
	var membership models.Membership
	require.NoError(t, db.
		Where("organization_id = ? AND user_id = ?", org.ID, user.ID).
		First(&membership).Error)
	assert.Equal(t, models.RoleEditor, membership.Role)

	// Invites are single use.
	resp, body = doJSON(t, app, http.MethodGet, "/invitations/accept?token="+token, "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invite_used", body["error"])
}

func TestInvitationRoleIsCoerced(t *testing.T) {
	app, db, gateway := newTestApp(t)

	org := seedTestOrg(t, db, "Acme")
	admin := seedMember(t, db, org, "admin@example.com", models.RoleAdmin)

	// An invite can never grant ADMIN; anything but EDITOR becomes VIEWER.
	for i, requested := range []string{"ADMIN", "", "owner"} {
		email := fmt.Sprintf("invitee%d@example.com", i)
		resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/invitations", admin.Session, map[string]string{
			"email": email,
			"role":  requested,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		mail, ok := gateway.lastTo(email)
		require.True(t, ok)
		token := extractToken(t, mail.Text)

		resp, body := doJSON(t, app, http.MethodGet, "/invitations/accept?token="+token, "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, models.RoleViewer, body["role"])
	}
}
