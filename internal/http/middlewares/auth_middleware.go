package middlewares

import (
	"net/http"
	"strings"

	"github.com/UVMHacks2025/BashProShop/internal/actorctx"
	"github.com/UVMHacks2025/BashProShop/internal/auth"
	"github.com/UVMHacks2025/BashProShop/internal/sessions"
	"github.com/gin-gonic/gin"
)

// SessionCookieName is the HttpOnly cookie carrying the session token.
const SessionCookieName = "session"

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	VerifySessionToken(token string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	jwt     TokenVerifier
	revoked sessions.RevocationStore
}

func NewAuthMiddleware(jwt TokenVerifier, revoked sessions.RevocationStore) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, revoked: revoked}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := TokenFromRequest(c)
		if raw == "" {
			abortUnauthorized(c, "Login required")
			return
		}

		claims, err := m.jwt.VerifySessionToken(raw)
		if err != nil {
			abortUnauthorized(c, "Invalid or expired session")
			return
		}

		if m.revoked != nil {
			revoked, err := m.revoked.IsRevoked(c.Request.Context(), claims.JTI)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
					"error": gin.H{
						"code":    "session_store_unavailable",
						"message": "Could not verify session",
					},
				})
				return
			}
			if revoked {
				abortUnauthorized(c, "Session has been logged out")
				return
			}
		}

		WithIdentity(c, claims.UserID, claims.Email)
		c.Set(CtxSession, claims.JTI)

		c.Next()
	}
}

// TokenFromRequest prefers the session cookie and falls back to a Bearer header.
func TokenFromRequest(c *gin.Context) string {
	if v, err := c.Cookie(SessionCookieName); err == nil && v != "" {
		return v
	}

	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
}

// WithIdentity stores the caller on both the gin context and the request
// context (for log attribution further down).
func WithIdentity(c *gin.Context, userID, email string) {
	c.Set(CtxUserID, userID)
	c.Set(CtxEmail, email)
	c.Request = c.Request.WithContext(actorctx.WithUserID(c.Request.Context(), userID))
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    "unauthorized",
			"message": message,
		},
	})
}

func UserIDFromContext(c *gin.Context) (string, bool) {
	return stringFromContext(c, CtxUserID)
}

func EmailFromContext(c *gin.Context) (string, bool) {
	return stringFromContext(c, CtxEmail)
}

func stringFromContext(c *gin.Context, key string) (string, bool) {
	v, ok := c.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}
