package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"maildeck/config"
)

// SessionCookieName is where the signed session credential lives.
// Handlers also accept the same token as a bearer Authorization header.
const SessionCookieName = "md_session"

// SessionTTL bounds how long a magic-link login stays valid.
const SessionTTL = 12 * time.Hour

// SessionClaims is the tamper-evident session payload: who the caller
// is, which organization the session is scoped to, and their role in
// it. The role is fixed at login time; changing a membership takes
// effect on the next login.
type SessionClaims struct {
	UserID         uint   `json:"user_id"`
	OrganizationID uint   `json:"organization_id"`
	Role           string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateSessionToken signs a session credential for the given
// user/organization/role with the configured secret.
func GenerateSessionToken(userID, organizationID uint, role string) (string, error) {
	claims := &SessionClaims{
		UserID:         userID,
		OrganizationID: organizationID,
		Role:           role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(SessionTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.AppConfig.SessionSecret))
}

// ParseSessionToken verifies the signature and expiry and returns the
// claims. Any tampering or expiry yields an error, never partial data.
func ParseSessionToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(config.AppConfig.SessionSecret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*SessionClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid session token")
}
