package controller_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maildeck/models"
	"maildeck/utils"
)

func TestContactCRUD(t *testing.T) {
	app, db, _ := newTestApp(t)

	org := seedTestOrg(t, db, "Acme")
	editor := seedMember(t, db, org, "editor@example.com", models.RoleEditor)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/contacts", editor.Session, map[string]string{
		"name":         "Ada",
		"company_name": "Lovelace Ltd",
		"email":        "Ada@Example.com",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := body["contact"].(map[string]interface{})
	assert.Equal(t, "ada@example.com", created["email"]) // lowercased on write
	id := fmt.Sprintf("%.0f", created["id"].(float64))

	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/contacts/"+id, editor.Session, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodPut, "/api/v1/contacts/"+id, editor.Session, map[string]string{
		"name":  "Ada L",
		"email": "ada@example.com",
		"phone": "+44 123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := body["contact"].(map[string]interface{})
	assert.Equal(t, "Ada L", updated["name"])
	assert.Equal(t, "+44 123", updated["phone"])

	resp, _ = doJSON(t, app, http.MethodDelete, "/api/v1/contacts/"+id, editor.Session, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/contacts/"+id, editor.Session, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestContactDuplicateEmail(t *testing.T) {
	app, db, _ := newTestApp(t)

	org := seedTestOrg(t, db, "Acme")
	editor := seedMember(t, db, org, "editor@example.com", models.RoleEditor)
	seedTestContact(t, db, org.ID, "Ada", utils.Pointer("ada@example.com"))

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/contacts", editor.Session, map[string]string{
		"name":  "Clone",
		"email": "ADA@example.com",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "email_already_exists", body["error"])

	// Same address in another organization is fine.
	otherOrg := seedTestOrg(t, db, "Rival")
	otherEditor := seedMember(t, db, otherOrg, "rival@example.com", models.RoleEditor)
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/contacts", otherEditor.Session, map[string]string{
		"name":  "Ada Too",
		"email": "ada@example.com",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestContactTenantIsolation(t *testing.T) {
	app, db, _ := newTestApp(t)

	org := seedTestOrg(t, db, "Acme")
	other := seedTestOrg(t, db, "Rival")
	editor := seedMember(t, db, org, "editor@example.com", models.RoleEditor)
	foreign := seedTestContact(t, db, other.ID, "Eve", utils.Pointer("eve@rival.example"))
	seedTestContact(t, db, org.ID, "Ada", utils.Pointer("ada@example.com"))

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/contacts", editor.Session, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := body["contacts"].([]interface{})
	require.Len(t, list, 1)
	assert.Equal(t, "Ada", list[0].(map[string]interface{})["name"])

	// A foreign contact is indistinguishable from a missing one.
	resp, _ = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v1/contacts/%d", foreign.ID), editor.Session, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestContactViewerIsReadOnly(t *testing.T) {
	app, db, _ := newTestApp(t)

	org := seedTestOrg(t, db, "Acme")
	viewer := seedMember(t, db, org, "viewer@example.com", models.RoleViewer)
	contact := seedTestContact(t, db, org.ID, "Ada", utils.Pointer("ada@example.com"))

	resp, _ := doJSON(t, app, http.MethodGet, "/api/v1/contacts", viewer.Session, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/contacts", viewer.Session, map[string]string{"name": "New"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPut, fmt.Sprintf("/api/v1/contacts/%d", contact.ID), viewer.Session, map[string]string{"name": "X"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/api/v1/contacts/%d", contact.ID), viewer.Session, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
