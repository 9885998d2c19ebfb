package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"maildeck/models"
)

func TestRenderVars(t *testing.T) {
	contact := &models.Contact{
		Name:        "Ada",
		CompanyName: Pointer("Lovelace Ltd"),
		Email:       Pointer("ada@example.com"),
		Phone:       Pointer("+44 123"),
	}

	out := RenderVars("Hi {{name}} of {{companyName}}, mail {{email}}, call {{phone}}", contact)
	assert.Equal(t, "Hi Ada of Lovelace Ltd, mail ada@example.com, call +44 123", out)
}

func TestRenderVarsNilFields(t *testing.T) {
	contact := &models.Contact{Name: "Ada"}

	out := RenderVars("{{name}}|{{companyName}}|{{email}}|{{phone}}", contact)
	assert.Equal(t, "Ada|||", out)
}

func TestRenderVarsUnknownTokens(t *testing.T) {
	contact := &models.Contact{Name: "Ada"}

	out := RenderVars("Hi {{name}}, code {{discount}} and {{ name }}", contact)
	assert.Equal(t, "Hi Ada, code {{discount}} and {{ name }}", out)
}

func TestRenderVarsNilContact(t *testing.T) {
	out := RenderVars("Hi {{name}}", nil)
	assert.Equal(t, "Hi {{name}}", out)
}

func TestRenderVarsRepeatedTokens(t *testing.T) {
	contact := &models.Contact{Name: "Ada"}

	out := RenderVars("{{name}} {{name}} {{name}}", contact)
	assert.Equal(t, "Ada Ada Ada", out)
}

func TestRenderVarsIdempotent(t *testing.T) {
	contact := &models.Contact{
		Name:  "Ada",
		Email: Pointer("ada@example.com"),
	}

	once := RenderVars("{{name}} <{{email}}>", contact)
	assert.Equal(t, once, RenderVars(once, contact))
}
