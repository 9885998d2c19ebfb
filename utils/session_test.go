package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maildeck/config"
	"maildeck/models"
)

func setTestSecret(t *testing.T) {
	t.Helper()
	prev := config.AppConfig.SessionSecret
	config.AppConfig.SessionSecret = "0123456789abcdef0123456789abcdef"
	t.Cleanup(func() { config.AppConfig.SessionSecret = prev })
}

func TestSessionTokenRoundTrip(t *testing.T) {
	setTestSecret(t)

	token, err := GenerateSessionToken(7, 3, models.RoleEditor)
	require.NoError(t, err)

	claims, err := ParseSessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, uint(3), claims.OrganizationID)
	assert.Equal(t, models.RoleEditor, claims.Role)
}

func TestSessionTokenTampered(t *testing.T) {
	setTestSecret(t)

	token, err := GenerateSessionToken(7, 3, models.RoleViewer)
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, err = ParseSessionToken(tampered)
	assert.Error(t, err)
}

func TestSessionTokenWrongSecret(t *testing.T) {
	setTestSecret(t)

	token, err := GenerateSessionToken(7, 3, models.RoleAdmin)
	require.NoError(t, err)

	config.AppConfig.SessionSecret = "ffffffffffffffffffffffffffffffff"
	_, err = ParseSessionToken(token)
	assert.Error(t, err)
}

func TestSessionTokenExpired(t *testing.T) {
	setTestSecret(t)

	claims := &SessionClaims{
		UserID:         7,
		OrganizationID: 3,
		Role:           models.RoleEditor,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(config.AppConfig.SessionSecret))
	require.NoError(t, err)

	_, err = ParseSessionToken(token)
	assert.Error(t, err)
}
