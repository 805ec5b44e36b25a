package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/avion00/medicare-backend/pkg/ctxkeys"
)

// JWTAuthMiddleware validates bearer session tokens and exposes the caller's
// user id both on the gin context and on the request context.
func JWTAuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			// Browser clients typically use httpOnly cookies for auth.
			if cookieToken, err := c.Cookie("access_token"); err == nil && cookieToken != "" {
				header = "Bearer " + cookieToken
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "No authorization header"})
				c.Abort()
				return
			}
		}

		parts := strings.Fields(header)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header"})
			c.Abort()
			return
		}

		claims, err := ValidateJWT(parts[1], secret)
		if err != nil {
			msg := "Invalid JWT token"
			if errors.Is(err, ErrExpiredJWT) {
				msg = "JWT token expired"
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": msg})
			c.Abort()
			return
		}

		c.Set(string(ctxkeys.KeyUserID), claims.UserID)
		c.Set(string(ctxkeys.KeyUsername), claims.Username)
		c.Set(string(ctxkeys.KeyAuthType), "jwt")
		c.Set(string(ctxkeys.KeyJWTToken), parts[1])
		c.Request = c.Request.WithContext(ctxkeys.WithUserID(c.Request.Context(), claims.UserID))
		c.Next()
	}
}

// UserID returns the authenticated user id stored by JWTAuthMiddleware.
func UserID(c *gin.Context) (int64, bool) {
	if v, ok := c.Get(string(ctxkeys.KeyUserID)); ok {
		if id, ok := v.(int64); ok && id > 0 {
			return id, true
		}
	}
	return ctxkeys.GetUserID(c.Request.Context())
}
