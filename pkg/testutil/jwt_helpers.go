package testutil

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/avion00/medicare-backend/pkg/auth"
)

// JWTTestHelper provides utilities for JWT testing
type JWTTestHelper struct {
	Secret []byte
}

// NewJWTTestHelper creates a new JWT test helper with a default test secret
func NewJWTTestHelper() *JWTTestHelper {
	return &JWTTestHelper{
		Secret: []byte("test-secret-for-unit-tests"),
	}
}

// GenerateValidJWT generates a valid session token for testing
func (h *JWTTestHelper) GenerateValidJWT(userID int64) (string, error) {
	return auth.GenerateJWT(userID, "user"+strconv.FormatInt(userID, 10), h.Secret, time.Hour)
}

// GenerateExpiredJWT generates an expired session token for testing
func (h *JWTTestHelper) GenerateExpiredJWT(userID int64) (string, error) {
	claims := &auth.Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-1 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.Secret)
}

// BearerHeader formats a token as an Authorization header value.
func BearerHeader(token string) string {
	return "Bearer " + token
}
