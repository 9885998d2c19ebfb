package controller_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maildeck/models"
)

func TestTemplateCRUDAndDuplicateName(t *testing.T) {
	app, db, _ := newTestApp(t)

	org := seedTestOrg(t, db, "Acme")
	editor := seedMember(t, db, org, "editor@example.com", models.RoleEditor)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/templates", editor.Session, map[string]string{
		"name":      "Welcome",
		"subject":   "Welcome {{name}}",
		"text_body": "Hi {{name}}",
		"html_body": "<p>Hi {{name}}</p>",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := body["template"].(map[string]interface{})
	id := fmt.Sprintf("%.0f", created["id"].(float64))

	// Names are unique per organization.
	resp, body = doJSON(t, app, http.MethodPost, "/api/v1/templates", editor.Session, map[string]string{
		"name":      "Welcome",
		"subject":   "Other",
		"text_body": "Other",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "duplicate_name", body["error"])

	// But not across organizations.
	otherOrg := seedTestOrg(t, db, "Rival")
	otherEditor := seedMember(t, db, otherOrg, "rival@example.com", models.RoleEditor)
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/templates", otherEditor.Session, map[string]string{
		"name":      "Welcome",
		"subject":   "Their welcome",
		"text_body": "Hello",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodPut, "/api/v1/templates/"+id, editor.Session, map[string]string{
		"name":      "Welcome v2",
		"subject":   "Welcome!",
		"text_body": "Hi there",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := body["template"].(map[string]interface{})
	assert.Equal(t, "Welcome v2", updated["name"])
}

func TestTemplateValidation(t *testing.T) {
	app, db, _ := newTestApp(t)

	org := seedTestOrg(t, db, "Acme")
	editor := seedMember(t, db, org, "editor@example.com", models.RoleEditor)

	cases := []struct {
		body map[string]string
		want string
	}{
		{map[string]string{"subject": "S", "text_body": "T"}, "name_required"},
		{map[string]string{"name": "N", "text_body": "T"}, "subject_required"},
		{map[string]string{"name": "N", "subject": "S", "text_body": "   "}, "text_body_required"},
	}
	for _, tc := range cases {
		resp, body := doJSON(t, app, http.MethodPost, "/api/v1/templates", editor.Session, tc.body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, tc.want, body["error"])
	}
}

func TestTemplateArchiveCycle(t *testing.T) {
	app, db, _ := newTestApp(t)

	org := seedTestOrg(t, db, "Acme")
	editor := seedMember(t, db, org, "editor@example.com", models.RoleEditor)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/templates", editor.Session, map[string]string{
		"name":      "Seasonal",
		"subject":   "Hello",
		"text_body": "Body",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := fmt.Sprintf("%.0f", body["template"].(map[string]interface{})["id"].(float64))

	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/templates/"+id+"/archive", editor.Session, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Archived templates vanish from the default listing...
	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/templates", editor.Session, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["templates"])

	// ...but show up with archived=1 and stay fetchable by id.
	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/templates?archived=1", editor.Session, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["templates"], 1)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/templates/"+id, editor.Session, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/templates/"+id+"/restore", editor.Session, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/templates", editor.Session, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["templates"], 1)
}
